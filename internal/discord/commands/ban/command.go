package ban

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/bwmarrin/discordgo"
)

type Command struct {
	logger *slog.Logger
}

func NewCommand() *Command {
	return &Command{logger: slog.Default()}
}

func (c *Command) Name() string {
	return "ban"
}

func (c *Command) Signature() *discordgo.ApplicationCommand {
	perm := int64(discordgo.PermissionBanMembers)
	return &discordgo.ApplicationCommand{
		Name:                     "ban",
		Description:              "Ban a member",
		Type:                     discordgo.ChatApplicationCommand,
		DefaultMemberPermissions: &perm,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "user",
				Description: "Who to ban",
				Type:        discordgo.ApplicationCommandOptionUser,
				Required:    true,
			},
			{
				Name:        "reason",
				Description: "Shown in the audit log",
				Type:        discordgo.ApplicationCommandOptionString,
			},
		},
	}
}

func (c *Command) Setup(*bot.Bot) error {
	return nil
}

// Run bans synchronously and reports every failure to the invoker.
func (c *Command) Run(_ context.Context, req *bot.Request) error {
	if err := req.RequirePermission(discordgo.PermissionBanMembers); err != nil {
		return err
	}

	target, ok := bot.ParseUserID(req.Arg(0))
	if !ok {
		return bot.Errorf("Mention the member to ban.")
	}
	if target == req.Author.ID {
		return bot.Errorf("You can't ban yourself.")
	}
	if target == req.Client.BotUserID() {
		return bot.Errorf("I'm not banning myself.")
	}

	reason := req.Rest(1)
	auditReason := fmt.Sprintf("%s (by %s)", reason, req.Author.Username)
	if reason == "" {
		auditReason = "Banned by " + req.Author.Username
	}

	err := req.Client.Ban(req.GuildID, target, auditReason, 0)
	if rest.IsPermissionError(err) {
		return fmt.Errorf("banning %s: %w: %w", target, &rest.MissingPermissionError{Permission: discordgo.PermissionBanMembers}, err)
	}
	if rest.CheckDiscordErrCode(err, discordgo.ErrCodeUnknownUser) {
		return bot.Errorf("I couldn't find that user.")
	}
	if err != nil {
		return fmt.Errorf("banning %s in %s: %w", target, req.GuildID, err)
	}

	c.logger.Info("member banned", "guild", req.GuildID, "target", target, "by", req.Author.ID)
	return req.Reply(fmt.Sprintf("🔨 <@%s> has been banned.", target))
}

func (c *Command) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}

func (c *Command) SetStorageConnection(*database.Storage) {}
