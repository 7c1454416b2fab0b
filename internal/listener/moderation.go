package listener

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/LeBulldoge/kagura/internal/ratelimit"
	"github.com/bwmarrin/discordgo"
)

var invitePattern = regexp.MustCompile(`(?i)(discord\.(gg|io|me|li)|discord(app)?\.com/invite)/[\w-]+`)

func guildMessage(ev dispatch.Event) (*discordgo.Message, bool) {
	mc, ok := ev.Data.(*discordgo.MessageCreate)
	if !ok || mc.Message == nil || mc.GuildID == "" || mc.Author == nil || mc.Author.Bot {
		return nil, false
	}
	return mc.Message, true
}

func isPrivileged(c rest.Client, userID, channelID string) (bool, error) {
	return rest.HasPermission(c, userID, channelID, discordgo.PermissionManageMessages)
}

// LinkProtection removes invite links posted by members without message
// management rights.
func (s *Set) LinkProtection(ctx context.Context, ev dispatch.Event) error {
	m, ok := guildMessage(ev)
	if !ok || !invitePattern.MatchString(m.Content) {
		return nil
	}

	cfg, err := s.store.GuildConfig(ctx, m.GuildID)
	if err != nil {
		return err
	}
	if !cfg.LinkProtection || m.ChannelID == cfg.LinkExemptChannel || m.ChannelID == cfg.ModLogChannel {
		return nil
	}

	privileged, err := isPrivileged(ev.Client, m.Author.ID, m.ChannelID)
	if err != nil {
		return fmt.Errorf("failed checking permissions of %s: %w", m.Author.ID, err)
	}
	if privileged {
		return nil
	}

	canDelete, err := rest.HasPermission(ev.Client, ev.Client.BotUserID(), m.ChannelID, discordgo.PermissionManageMessages)
	if err != nil {
		return fmt.Errorf("failed checking own permissions in %s: %w", m.ChannelID, err)
	}
	if canDelete {
		err = ev.Client.DeleteMessage(m.ChannelID, m.ID)
	} else {
		err = &rest.MissingPermissionError{Permission: discordgo.PermissionManageMessages}
	}

	switch {
	case rest.IsPermissionError(err):
		if s.notifyOnce(noticeLinkPerm + m.GuildID) {
			_, err := ev.Client.SendMessage(m.ChannelID, "Link protection is on, but I can't remove invite links here: I need the **Manage Messages** permission.")
			if err != nil {
				return err
			}
		}
	case err != nil:
		return fmt.Errorf("failed deleting invite %s in %s: %w", m.ID, m.ChannelID, err)
	}

	_, err = ev.Client.SendMessage(m.ChannelID, m.Author.Mention()+", posting invite links isn't allowed here.")
	return err
}

// SlowMode deletes messages beyond the guild's per-user rate. When the bot
// cannot delete, slow mode is switched off for the guild instead of failing
// on every message.
func (s *Set) SlowMode(ctx context.Context, ev dispatch.Event) error {
	m, ok := guildMessage(ev)
	if !ok {
		return nil
	}

	cfg, err := s.store.GuildConfig(ctx, m.GuildID)
	if err != nil {
		return err
	}
	if !cfg.SlowMode {
		return nil
	}

	limit, window := s.opts.SlowModeLimit, s.opts.SlowModeWindow
	if cfg.SlowModeLimit > 0 {
		limit = cfg.SlowModeLimit
	}
	if cfg.SlowModeWindow > 0 {
		window = time.Duration(cfg.SlowModeWindow) * time.Second
	}

	if s.limiter.AllowN(ratelimit.Key(m.GuildID, m.Author.ID), limit, window) {
		return nil
	}

	privileged, err := isPrivileged(ev.Client, m.Author.ID, m.ChannelID)
	if err == nil && privileged {
		return nil
	}

	err = ev.Client.DeleteMessage(m.ChannelID, m.ID)
	if err == nil {
		return nil
	}
	if !rest.IsPermissionError(err) {
		return fmt.Errorf("failed deleting message %s over slow mode: %w", m.ID, err)
	}

	if !s.notifyOnce(noticeSlowModeOff + m.GuildID) {
		return nil
	}
	if err := s.store.DisableSlowMode(ctx, m.GuildID); err != nil {
		s.notices.Delete(noticeSlowModeOff + m.GuildID)
		return fmt.Errorf("failed disabling slow mode for %s: %w", m.GuildID, err)
	}

	s.logger.Warn("slow mode disabled after permission loss", "guild", m.GuildID)
	_, err = ev.Client.SendMessage(m.ChannelID, "Slow mode has been disabled because I lack the **Manage Messages** permission. Grant it and re-enable slow mode with `opts slowmode on`.")
	return err
}
