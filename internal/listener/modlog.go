package listener

import (
	"context"
	"fmt"

	"github.com/LeBulldoge/kagura/internal/discord/format"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/bwmarrin/discordgo"
)

// ModLog reports deleted and edited messages and bans to the guild's
// mod-log channel. Message diffs come from the shard's message cache.
func (s *Set) ModLog(ctx context.Context, ev dispatch.Event) error {
	guildID, line := s.modLogLine(ev)
	if guildID == "" || line == "" {
		return nil
	}

	cfg, err := s.store.GuildConfig(ctx, guildID)
	if err != nil {
		return err
	}
	if cfg.ModLogChannel == "" {
		return nil
	}
	if ev.Cached != nil && ev.Cached.ChannelID == cfg.ModLogChannel {
		return nil
	}

	_, err = ev.Client.SendMessage(cfg.ModLogChannel, format.Truncate(line, 2000))
	if err != nil {
		return fmt.Errorf("failed writing mod log for %s: %w", guildID, err)
	}
	return nil
}

func (s *Set) modLogLine(ev dispatch.Event) (string, string) {
	switch e := ev.Data.(type) {
	case *discordgo.MessageDelete:
		c := ev.Cached
		if c == nil || c.AuthorID == ev.Client.BotUserID() {
			return "", ""
		}
		return c.GuildID, fmt.Sprintf("🗑️ Message by **%s** (<@%s>) deleted in <#%s>:\n>>> %s",
			c.Author, c.AuthorID, c.ChannelID, format.Truncate(c.Content, 1500))

	case *discordgo.MessageUpdate:
		c := ev.Cached
		if c == nil || e.Message == nil || c.Content == e.Content || e.Content == "" {
			return "", ""
		}
		if c.AuthorID == ev.Client.BotUserID() {
			return "", ""
		}
		return c.GuildID, fmt.Sprintf("✏️ Message by **%s** (<@%s>) edited in <#%s>:\n**Before:** %s\n**After:** %s",
			c.Author, c.AuthorID, c.ChannelID, format.Truncate(c.Content, 800), format.Truncate(e.Content, 800))

	case *discordgo.GuildBanAdd:
		if e.User == nil {
			return "", ""
		}
		return e.GuildID, fmt.Sprintf("🔨 **%s** (<@%s>) was banned.", e.User.Username, e.User.ID)

	case *discordgo.GuildBanRemove:
		if e.User == nil {
			return "", ""
		}
		return e.GuildID, fmt.Sprintf("🔓 **%s** (<@%s>) was unbanned.", e.User.Username, e.User.ID)
	}

	return "", ""
}
