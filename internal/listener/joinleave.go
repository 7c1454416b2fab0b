package listener

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/format"
	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/bwmarrin/discordgo"
)

// MemberJoin grants the autorole and posts the join message.
func (s *Set) MemberJoin(ctx context.Context, ev dispatch.Event) error {
	add, ok := ev.Data.(*discordgo.GuildMemberAdd)
	if !ok || add.Member == nil || add.User == nil {
		return nil
	}

	cfg, err := s.store.GuildConfig(ctx, add.GuildID)
	if err != nil {
		return err
	}

	var errs []error
	if cfg.Autorole != "" && !add.User.Bot {
		if err := s.grantAutorole(ctx, ev.Client, cfg, add.Member); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.JoinChannel != "" && cfg.JoinMessage != "" {
		if err := s.greet(ev.Client, cfg.JoinChannel, cfg.JoinMessage, add.GuildID, add.User); err != nil {
			errs = append(errs, fmt.Errorf("failed sending join message: %w", err))
		}
	}

	return errors.Join(errs...)
}

// MemberLeave posts the leave message.
func (s *Set) MemberLeave(ctx context.Context, ev dispatch.Event) error {
	rm, ok := ev.Data.(*discordgo.GuildMemberRemove)
	if !ok || rm.Member == nil || rm.User == nil {
		return nil
	}

	cfg, err := s.store.GuildConfig(ctx, rm.GuildID)
	if err != nil {
		return err
	}
	if cfg.LeaveChannel == "" || cfg.LeaveMessage == "" {
		return nil
	}

	if err := s.greet(ev.Client, cfg.LeaveChannel, cfg.LeaveMessage, rm.GuildID, rm.User); err != nil {
		return fmt.Errorf("failed sending leave message: %w", err)
	}
	return nil
}

func (s *Set) grantAutorole(ctx context.Context, c rest.Client, cfg database.GuildConfig, m *discordgo.Member) error {
	err := c.AddRole(cfg.ID, m.User.ID, cfg.Autorole)
	if err == nil {
		return nil
	}
	if !rest.IsPermissionError(err) {
		return fmt.Errorf("failed granting autorole %s to %s: %w", cfg.Autorole, m.User.ID, err)
	}

	if !s.notifyOnce(noticeAutorole + cfg.ID) {
		return nil
	}
	if err := s.store.ClearAutorole(ctx, cfg.ID); err != nil {
		s.notices.Delete(noticeAutorole + cfg.ID)
		return fmt.Errorf("failed clearing autorole for %s: %w", cfg.ID, err)
	}
	s.logger.Warn("autorole removed after permission loss", "guild", cfg.ID, "role", cfg.Autorole)

	guild, err := c.Guild(cfg.ID)
	if err != nil {
		return fmt.Errorf("failed looking up owner of %s: %w", cfg.ID, err)
	}
	_, err = c.SendDM(guild.OwnerID, fmt.Sprintf(
		"I couldn't give new members the autorole in **%s**: I'm missing the **Manage Roles** permission or the role is above mine. The autorole has been removed; set it again once that is fixed.",
		guild.Name,
	))
	if err != nil {
		s.logger.Info("could not notify guild owner about autorole", "guild", cfg.ID, "owner", guild.OwnerID, "err", err)
	}
	return nil
}

func (s *Set) greet(c rest.Client, channelID, tpl, guildID string, u *discordgo.User) error {
	vars := map[string]string{
		"member":   u.Mention(),
		"username": u.Username,
		"guild":    "",
		"count":    "",
	}
	if g, err := c.Guild(guildID); err == nil {
		vars["guild"] = g.Name
		vars["count"] = strconv.Itoa(g.MemberCount)
	}

	_, err := c.SendMessage(channelID, format.Truncate(format.Template(tpl, vars), 2000))
	return err
}
