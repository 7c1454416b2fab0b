package opts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/operations"
	"github.com/bwmarrin/discordgo"
)

const (
	resetConfirmID = "opts_reset_confirm"
	resetCancelID  = "opts_reset_cancel"
	resetTimeout   = time.Minute
)

// Resetter forgets per-guild notices when a feature is turned back on.
type Resetter interface {
	ResetGuild(guildID string)
}

type Command struct {
	database.WithStorage

	listeners  Resetter
	operations *operations.Registry

	logger *slog.Logger
}

func NewCommand() *Command {
	return &Command{logger: slog.Default()}
}

func (c *Command) Name() string {
	return "opts"
}

func toggleOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "enabled",
				Description: "Turn it on or off",
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Required:    true,
			},
		},
	}
}

func channelMessageOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "channel",
				Description:  "Channel to post to, leave empty to turn off",
				Type:         discordgo.ApplicationCommandOptionChannel,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
			{
				Name:        "message",
				Description: "Supports $(member), $(username), $(guild) and $(count)",
				Type:        discordgo.ApplicationCommandOptionString,
			},
		},
	}
}

var (
	minSlowModeLimit  = 1.0
	minSlowModeWindow = 1.0
)

func (c *Command) Signature() *discordgo.ApplicationCommand {
	linkProtection := toggleOption("linkprotection", "Delete invite links from members")
	linkProtection.Options = append(linkProtection.Options, &discordgo.ApplicationCommandOption{
		Name:        "exempt",
		Description: "Channel where invites are allowed",
		Type:        discordgo.ApplicationCommandOptionChannel,
	})

	slowMode := toggleOption("slowmode", "Delete messages of members posting too fast")
	slowMode.Options = append(slowMode.Options,
		&discordgo.ApplicationCommandOption{
			Name:        "limit",
			Description: "Messages allowed per window",
			Type:        discordgo.ApplicationCommandOptionInteger,
			MinValue:    &minSlowModeLimit,
		},
		&discordgo.ApplicationCommandOption{
			Name:        "window",
			Description: "Window length in seconds",
			Type:        discordgo.ApplicationCommandOptionInteger,
			MinValue:    &minSlowModeWindow,
		},
	)

	perm := int64(discordgo.PermissionManageServer)
	return &discordgo.ApplicationCommand{
		Name:                     "opts",
		Description:              "Server settings",
		Type:                     discordgo.ChatApplicationCommand,
		DefaultMemberPermissions: &perm,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "show",
				Description: "Show the current settings",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			linkProtection,
			slowMode,
			{
				Name:        "autorole",
				Description: "Role given to new members",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "role",
						Description: "The role, leave empty to turn off",
						Type:        discordgo.ApplicationCommandOptionRole,
					},
				},
			},
			channelMessageOption("join", "Message posted when a member joins"),
			channelMessageOption("leave", "Message posted when a member leaves"),
			{
				Name:        "modlog",
				Description: "Channel for deleted and edited messages and bans",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:         "channel",
						Description:  "The channel, leave empty to turn off",
						Type:         discordgo.ApplicationCommandOptionChannel,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					},
				},
			},
			{
				Name:        "prefix",
				Description: "Prefix for message commands",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "prefix",
						Description: "The prefix, leave empty for the default",
						Type:        discordgo.ApplicationCommandOptionString,
					},
				},
			},
			{
				Name:        "command",
				Description: "Enable or disable a command here",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "name",
						Description: "Command name",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
					{
						Name:        "enabled",
						Description: "Turn it on or off",
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Required:    true,
					},
				},
			},
			{
				Name:        "reset",
				Description: "Reset every setting",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}
}

func (c *Command) Setup(b *bot.Bot) error {
	if b.Listeners != nil {
		c.listeners = b.Listeners
	}
	c.operations = b.Operations
	return nil
}

func parseToggle(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "enable", "yes":
		return true, nil
	case "off", "false", "disable", "no":
		return false, nil
	}
	return false, bot.Errorf("Say `on` or `off`.")
}

func (c *Command) Run(ctx context.Context, req *bot.Request) error {
	if err := req.RequirePermission(discordgo.PermissionManageServer); err != nil {
		return err
	}

	sub := strings.ToLower(req.Arg(0))
	switch sub {
	case "", "show":
		cfg, err := c.GetStorage().GuildConfig(ctx, req.GuildID)
		if err != nil {
			return err
		}
		return req.Reply(describe(cfg))
	case "reset":
		return c.confirmReset(req)
	}

	cfg, err := c.GetStorage().GuildConfig(ctx, req.GuildID)
	if err != nil {
		return err
	}

	reenabled, err := apply(&cfg, sub, req)
	if err != nil {
		return err
	}

	if err := c.GetStorage().SaveGuildConfig(ctx, cfg); err != nil {
		return err
	}
	if reenabled && c.listeners != nil {
		c.listeners.ResetGuild(req.GuildID)
	}

	c.logger.Info("guild option changed", "guild", req.GuildID, "option", sub, "user", req.Author.ID)
	return req.Reply("Saved.\n" + describe(cfg))
}

// apply changes cfg for one subcommand. It reports whether a feature that
// can be switched off on permission loss was turned on.
func apply(cfg *database.GuildConfig, sub string, req *bot.Request) (bool, error) {
	switch sub {
	case "linkprotection":
		on, err := parseToggle(req.Arg(1))
		if err != nil {
			return false, err
		}
		cfg.LinkProtection = on
		if id, ok := bot.ParseChannelID(req.Arg(2)); ok {
			cfg.LinkExemptChannel = id
		}
		return on, nil

	case "slowmode":
		on, err := parseToggle(req.Arg(1))
		if err != nil {
			return false, err
		}
		cfg.SlowMode = on
		if s := req.Arg(2); s != "" {
			limit, err := strconv.Atoi(s)
			if err != nil || limit < 1 {
				return false, bot.Errorf("The message limit must be a positive number.")
			}
			cfg.SlowModeLimit = limit
		}
		if s := req.Arg(3); s != "" {
			window, err := strconv.Atoi(s)
			if err != nil || window < 1 {
				return false, bot.Errorf("The window must be a positive number of seconds.")
			}
			cfg.SlowModeWindow = window
		}
		return on, nil

	case "autorole":
		if isOff(req.Arg(1)) {
			cfg.Autorole = ""
			return false, nil
		}
		id, ok := bot.ParseRoleID(req.Arg(1))
		if !ok {
			return false, bot.Errorf("Mention the role to give, or say `off`.")
		}
		cfg.Autorole = id
		return true, nil

	case "join", "leave":
		channel, message := "", ""
		if !isOff(req.Arg(1)) {
			id, ok := bot.ParseChannelID(req.Arg(1))
			if !ok {
				return false, bot.Errorf("Mention a channel followed by the message, or say `off`.")
			}
			channel, message = id, req.Rest(2)
			if message == "" {
				return false, bot.Errorf("The message can't be empty.")
			}
		}
		if sub == "join" {
			cfg.JoinChannel, cfg.JoinMessage = channel, message
		} else {
			cfg.LeaveChannel, cfg.LeaveMessage = channel, message
		}
		return false, nil

	case "modlog":
		if isOff(req.Arg(1)) {
			cfg.ModLogChannel = ""
			return false, nil
		}
		id, ok := bot.ParseChannelID(req.Arg(1))
		if !ok {
			return false, bot.Errorf("Mention the mod log channel, or say `off`.")
		}
		cfg.ModLogChannel = id
		return false, nil

	case "prefix":
		p := req.Arg(1)
		if isOff(p) {
			p = ""
		}
		if len(p) > 8 {
			return false, bot.Errorf("Keep the prefix to 8 characters or less.")
		}
		cfg.Prefix = p
		return false, nil

	case "command":
		name := strings.ToLower(req.Arg(1))
		if name == "" || name == "opts" {
			return false, bot.Errorf("Name a command other than `opts`.")
		}
		on, err := parseToggle(req.Arg(2))
		if err != nil {
			return false, err
		}
		cfg.SetCommandDisabled(name, !on)
		return false, nil
	}

	return false, bot.Errorf("Unknown option `%s`. Try `opts show`.", sub)
}

func isOff(s string) bool {
	return s == "" || strings.EqualFold(s, "off")
}

func describe(cfg database.GuildConfig) string {
	orOff := func(format, id string) string {
		if id == "" {
			return "off"
		}
		return fmt.Sprintf(format, id)
	}
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Prefix:** %s\n", orOff("`%s`", cfg.Prefix))
	fmt.Fprintf(&sb, "**Link protection:** %s", onOff(cfg.LinkProtection))
	if cfg.LinkExemptChannel != "" {
		fmt.Fprintf(&sb, " (allowed in <#%s>)", cfg.LinkExemptChannel)
	}
	fmt.Fprintf(&sb, "\n**Slow mode:** %s", onOff(cfg.SlowMode))
	if cfg.SlowModeLimit > 0 || cfg.SlowModeWindow > 0 {
		fmt.Fprintf(&sb, " (%d messages per %s)", cfg.SlowModeLimit, cfg.SlowModeWindowDuration())
	}
	fmt.Fprintf(&sb, "\n**Autorole:** %s\n", orOff("<@&%s>", cfg.Autorole))
	fmt.Fprintf(&sb, "**Join messages:** %s\n", orOff("<#%s>", cfg.JoinChannel))
	fmt.Fprintf(&sb, "**Leave messages:** %s\n", orOff("<#%s>", cfg.LeaveChannel))
	fmt.Fprintf(&sb, "**Mod log:** %s\n", orOff("<#%s>", cfg.ModLogChannel))
	fmt.Fprintf(&sb, "**Disabled commands:** %s", orOff("%s", cfg.DisabledCommands))

	return sb.String()
}

func (c *Command) confirmReset(req *bot.Request) error {
	if c.operations == nil {
		return fmt.Errorf("no operations registry")
	}

	msg, err := req.ReplyComplex(&discordgo.MessageSend{
		Content: "Reset **every** setting of this server?",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Reset", Style: discordgo.DangerButton, CustomID: resetConfirmID},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: resetCancelID},
				},
			},
		},
	})
	if err != nil {
		return err
	}

	guildID := req.GuildID
	c.operations.Register(msg.ID, operations.Operation{
		Owner: req.Author.ID,
		Handle: func(ctx context.Context, in operations.Input) operations.Result {
			return c.handleReset(ctx, guildID, in)
		},
		OnExpire: func() {
			c.logger.Debug("reset confirmation expired", "guild", guildID)
		},
	}, resetTimeout)

	return nil
}

func (c *Command) handleReset(ctx context.Context, guildID string, in operations.Input) operations.Result {
	content := "Reset cancelled."
	switch in.CustomID {
	case resetConfirmID:
		if err := c.GetStorage().SaveGuildConfig(ctx, database.GuildConfig{ID: guildID}); err != nil {
			c.logger.Error("failed resetting guild config", "guild", guildID, "err", err)
			content = "Sorry, something went wrong while resetting. Please try again later."
		} else {
			c.logger.Info("guild config reset", "guild", guildID, "user", in.UserID)
			content = "Every setting has been reset."
		}
	case resetCancelID:
	default:
		return operations.Ignored
	}

	if in.Interaction != nil {
		err := in.Client.Respond(in.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    content,
				Components: []discordgo.MessageComponent{},
			},
		})
		if err != nil {
			c.logger.Error("failed updating reset confirmation", "guild", guildID, "err", err)
		}
	}

	return operations.Completed
}

func (c *Command) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}
