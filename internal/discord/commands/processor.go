package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/format"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/LeBulldoge/kagura/internal/ratelimit"
	"github.com/bwmarrin/discordgo"
)

// GuildConfigs is where the processor reads prefixes and disabled commands.
type GuildConfigs interface {
	GuildConfig(ctx context.Context, guildID string) (database.GuildConfig, error)
}

// Processor resolves prefixed messages and slash interactions to the same
// commands.
type Processor struct {
	commands map[string]Command
	configs  GuildConfigs
	prefix   string
	cooldown *ratelimit.Limiter

	logger *slog.Logger
}

func NewProcessor(commands map[string]Command, configs GuildConfigs, prefix string, cooldown time.Duration) *Processor {
	return &Processor{
		commands: commands,
		configs:  configs,
		prefix:   prefix,
		cooldown: ratelimit.New(1, cooldown),
		logger:   slog.Default().WithGroup("commands"),
	}
}

func (p *Processor) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	p.logger = logger
}

func (p *Processor) Register(d *dispatch.Dispatcher) {
	d.Handle(dispatch.KindMessageCreate, "commands", p.HandleMessage)
	d.Handle(dispatch.KindInteractionCreate, "commands", p.HandleInteraction)
}

// PruneCooldowns drops expired cooldown windows.
func (p *Processor) PruneCooldowns() int {
	return p.cooldown.Sweep()
}

func (p *Processor) HandleMessage(ctx context.Context, ev dispatch.Event) error {
	mc, ok := ev.Data.(*discordgo.MessageCreate)
	if !ok || mc.Message == nil || mc.Author == nil || mc.Author.Bot {
		return nil
	}

	cfg := database.GuildConfig{ID: mc.GuildID}
	if mc.GuildID != "" {
		var err error
		cfg, err = p.configs.GuildConfig(ctx, mc.GuildID)
		if err != nil {
			return err
		}
	}

	body, ok := p.stripPrefix(mc.Content, cfg.Prefix, ev.Client.BotUserID())
	if !ok {
		return nil
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil
	}

	req := &bot.Request{
		Client:    ev.Client,
		Shard:     ev.Shard,
		GuildID:   mc.GuildID,
		ChannelID: mc.ChannelID,
		Author:    mc.Author,
		Member:    mc.Member,
		Command:   strings.ToLower(fields[0]),
		Args:      fields[1:],
		Message:   mc.Message,
	}

	return p.execute(ctx, cfg, req)
}

func (p *Processor) stripPrefix(content, guildPrefix, botID string) (string, bool) {
	prefixes := []string{p.prefix}
	if guildPrefix != "" {
		prefixes = []string{guildPrefix}
	}
	if botID != "" {
		prefixes = append(prefixes, "<@"+botID+">", "<@!"+botID+">")
	}

	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(content, prefix) {
			return strings.TrimPrefix(content, prefix), true
		}
	}
	return "", false
}

func (p *Processor) HandleInteraction(ctx context.Context, ev dispatch.Event) error {
	intr, ok := ev.Data.(*discordgo.InteractionCreate)
	if !ok || intr.Interaction == nil || intr.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := intr.ApplicationCommandData()
	req := &bot.Request{
		Client:      ev.Client,
		Shard:       ev.Shard,
		GuildID:     intr.GuildID,
		ChannelID:   intr.ChannelID,
		Member:      intr.Member,
		Author:      intr.User,
		Command:     data.Name,
		Args:        bot.FlattenOptions(data.Options),
		Interaction: intr.Interaction,
	}
	if intr.Member != nil && intr.Member.User != nil {
		req.Author = intr.Member.User
	}
	if req.Author == nil {
		return errors.New("interaction without a user")
	}

	cfg := database.GuildConfig{ID: intr.GuildID}
	if intr.GuildID != "" {
		var err error
		cfg, err = p.configs.GuildConfig(ctx, intr.GuildID)
		if err != nil {
			return err
		}
	}

	return p.execute(ctx, cfg, req)
}

func (p *Processor) execute(ctx context.Context, cfg database.GuildConfig, req *bot.Request) error {
	cmd, ok := p.commands[req.Command]
	if !ok {
		if req.Interaction != nil {
			format.DisplayInteractionError(req.Client, req.Interaction, "Unknown command.")
		}
		return nil
	}

	log := p.logger.With(
		slog.Group("request",
			"command", req.Command,
			"guild", req.GuildID,
			"user", req.Author.ID,
			"shard", req.Shard,
		),
	)

	if cfg.IsCommandDisabled(req.Command) {
		log.Debug("command disabled in guild")
		if req.Interaction != nil {
			format.DisplayInteractionError(req.Client, req.Interaction, "That command is disabled here.")
		}
		return nil
	}

	if !p.cooldown.Allow(ratelimit.Key(req.Author.ID, req.Command)) {
		log.Debug("command on cooldown")
		if req.Interaction != nil {
			format.DisplayInteractionError(req.Client, req.Interaction, "Slow down a little, try again in a moment.")
		}
		return nil
	}

	err := cmd.Run(ctx, req)
	if err == nil {
		return nil
	}

	content := format.UserMessage(err)
	if uerr, ok := bot.IsUserError(err); ok {
		content = uerr.Msg
	} else {
		log.Error("command failed", "err", err)
	}

	if replyErr := p.reply(req, content); replyErr != nil {
		return fmt.Errorf("failed reporting error to user: %w", replyErr)
	}
	return nil
}

func (p *Processor) reply(req *bot.Request, content string) error {
	if req.Interaction != nil && !req.Responded() {
		format.DisplayInteractionError(req.Client, req.Interaction, content)
		return nil
	}
	return req.Reply(content)
}
