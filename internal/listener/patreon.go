package listener

import (
	"context"
	"fmt"
	"slices"

	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// PatreonKeys sends a reward key the first time a member gets the patreon
// role in the hub guild. Failed DMs are logged for manual follow-up.
func (s *Set) PatreonKeys(ctx context.Context, ev dispatch.Event) error {
	if s.opts.HubGuildID == "" || s.opts.PatreonRoleID == "" {
		return nil
	}

	upd, ok := ev.Data.(*discordgo.GuildMemberUpdate)
	if !ok || upd.Member == nil || upd.User == nil || upd.GuildID != s.opts.HubGuildID {
		return nil
	}
	if !slices.Contains(upd.Roles, s.opts.PatreonRoleID) {
		return nil
	}
	if upd.BeforeUpdate != nil && slices.Contains(upd.BeforeUpdate.Roles, s.opts.PatreonRoleID) {
		return nil
	}

	userID := upd.User.ID
	existing, err := s.store.RewardKey(ctx, userID)
	if err != nil {
		return err
	}
	if existing != "" {
		return nil
	}

	key := uuid.NewString()
	if err := s.store.SaveRewardKey(ctx, userID, key); err != nil {
		return fmt.Errorf("failed saving reward key: %w", err)
	}

	_, err = ev.Client.SendDM(userID, "Thanks for supporting us! Here is your reward key: `"+key+"`")
	if err != nil {
		s.logger.Warn("could not deliver reward key, needs manual follow-up", "user", userID, "err", err)
		return nil
	}

	s.logger.Info("reward key delivered", "user", userID)
	return nil
}
