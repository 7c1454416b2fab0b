package birthday

import (
	"context"
	"log/slog"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/listener"
	"github.com/bwmarrin/discordgo"
)

type Command struct {
	database.WithStorage

	now    func() time.Time
	logger *slog.Logger
}

func NewCommand() *Command {
	return &Command{now: time.Now, logger: slog.Default()}
}

func (c *Command) Name() string {
	return "birthday"
}

func (c *Command) Signature() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "birthday",
		Description: "Manage birthdays",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "set",
				Description: "Set your birthday",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "date",
						Description: "Your birthday as dd-MM-yyyy",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
			{
				Name:        "clear",
				Description: "Forget your birthday",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "channel",
				Description: "Channel birthday wishes are posted to",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:         "channel",
						Description:  "The channel",
						Type:         discordgo.ApplicationCommandOptionChannel,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						Required:     true,
					},
				},
			},
			{
				Name:        "role",
				Description: "Role given for the day",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "role",
						Description: "The role",
						Type:        discordgo.ApplicationCommandOptionRole,
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *Command) Setup(*bot.Bot) error {
	return nil
}

func (c *Command) Run(ctx context.Context, req *bot.Request) error {
	switch req.Arg(0) {
	case "set":
		return c.set(ctx, req)
	case "clear":
		if err := c.GetStorage().ClearBirthday(ctx, req.Author.ID); err != nil {
			return err
		}
		return req.Reply("Your birthday has been forgotten.")
	case "channel":
		return c.configure(ctx, req, func(cfg *database.GuildConfig) error {
			id, ok := bot.ParseChannelID(req.Arg(1))
			if !ok {
				return bot.Errorf("Mention the channel birthday wishes should go to.")
			}
			cfg.BirthdayChannel = id
			return nil
		})
	case "role":
		return c.configure(ctx, req, func(cfg *database.GuildConfig) error {
			id, ok := bot.ParseRoleID(req.Arg(1))
			if !ok {
				return bot.Errorf("Mention the role to give for birthdays.")
			}
			cfg.BirthdayRole = id
			return nil
		})
	}

	return bot.Errorf("Usage: `birthday set dd-MM-yyyy`, `birthday clear`, `birthday channel #channel`, `birthday role @role`")
}

func (c *Command) set(ctx context.Context, req *bot.Request) error {
	date := req.Arg(1)
	b, err := listener.ParseBirthday(date)
	if err != nil {
		return bot.Errorf("`%s` is not a date, use dd-MM-yyyy, e.g. `14-07-1995`.", date)
	}
	if b.After(c.now()) {
		return bot.Errorf("That birthday is in the future.")
	}

	if err := c.GetStorage().SetBirthday(ctx, req.GuildID, req.Author.ID, b.String()); err != nil {
		return err
	}

	c.logger.Info("birthday set", "user", req.Author.ID, "guild", req.GuildID)
	return req.Reply("Got it! Your birthday is on **" + b.Display() + "**.")
}

func (c *Command) configure(ctx context.Context, req *bot.Request, apply func(*database.GuildConfig) error) error {
	if err := req.RequirePermission(discordgo.PermissionManageServer); err != nil {
		return err
	}

	cfg, err := c.GetStorage().GuildConfig(ctx, req.GuildID)
	if err != nil {
		return err
	}
	if err := apply(&cfg); err != nil {
		return err
	}
	if err := c.GetStorage().SaveGuildConfig(ctx, cfg); err != nil {
		return err
	}

	if cfg.HasBirthdaySetup() {
		return req.Reply("Birthday setup saved. Wishes go to <#" + cfg.BirthdayChannel + "> and celebrants get <@&" + cfg.BirthdayRole + ">.")
	}
	return req.Reply("Saved. Set both a birthday channel and role to start celebrating.")
}

func (c *Command) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}
