package poll

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/format"
	"github.com/LeBulldoge/kagura/internal/operations"
	"github.com/LeBulldoge/kagura/internal/poll"
	"github.com/bwmarrin/discordgo"
)

const (
	votePrefix = "poll_vote_"
	// pollIdle closes a poll nobody voted on for this long.
	pollIdle = 24 * time.Hour
)

type Command struct {
	operations *operations.Registry

	logger *slog.Logger
}

func NewCommand() *Command {
	return &Command{logger: slog.Default()}
}

func (c *Command) Name() string {
	return "poll"
}

func (c *Command) Signature() *discordgo.ApplicationCommand {
	options := []*discordgo.ApplicationCommandOption{
		{
			Name:        "title",
			Description: "Title of the poll",
			Type:        discordgo.ApplicationCommandOptionString,
			Required:    true,
		},
	}
	for i := range poll.MaxOptions {
		options = append(options, &discordgo.ApplicationCommandOption{
			Name:        fmt.Sprintf("option_%d", i),
			Description: fmt.Sprintf("Option number %d. Format: <emoji>;<description>", i),
			Type:        discordgo.ApplicationCommandOptionString,
			Required:    i < poll.MinOptions,
		})
	}

	return &discordgo.ApplicationCommand{
		Name:        "poll",
		Description: "Start a poll",
		Type:        discordgo.ChatApplicationCommand,
		Options:     options,
	}
}

func (c *Command) Setup(b *bot.Bot) error {
	c.operations = b.Operations
	return nil
}

// parse reads the title and options either from the slash command data or
// from "title | emoji;label | emoji;label".
func parse(req *bot.Request) (string, []string) {
	if req.Interaction != nil && req.Interaction.Type == discordgo.InteractionApplicationCommand {
		var title string
		var raw []string
		for _, o := range req.Interaction.ApplicationCommandData().Options {
			if o.Name == "title" {
				title = o.StringValue()
				continue
			}
			if v := o.StringValue(); v != "" {
				raw = append(raw, v)
			}
		}
		return title, raw
	}

	parts := strings.Split(req.Rest(0), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts[0], parts[1:]
}

func (c *Command) Run(_ context.Context, req *bot.Request) error {
	if c.operations == nil {
		return fmt.Errorf("no operations registry")
	}

	title, raw := parse(req)
	if title == "" {
		return bot.Errorf("Usage: `poll <title> | <emoji>;<option> | <emoji>;<option>`")
	}

	options := make([]poll.Option, 0, len(raw))
	for i, s := range raw {
		o, err := poll.ParseOption(s)
		if err != nil {
			return bot.Errorf("Incorrect formatting for option %d, use `<emoji>;<description>`.", i+1)
		}
		options = append(options, o)
	}

	p, err := poll.New(title, req.Author.ID, options)
	if err != nil {
		return bot.Errorf("A poll needs between %d and %d options.", poll.MinOptions, poll.MaxOptions)
	}

	buttons := voteButtons(p)
	msg, err := req.ReplyComplex(&discordgo.MessageSend{
		Content:    p.Chart(),
		Components: buttons,
	})
	if err != nil {
		return err
	}

	log := c.logger.With("message", msg.ID, "guild", req.GuildID)
	c.operations.Register(msg.ID, operations.Operation{
		Handle: func(_ context.Context, in operations.Input) operations.Result {
			return c.vote(log, p, buttons, in)
		},
		OnExpire: func() {
			log.Debug("poll closed", "votes", p.Counts())
		},
	}, pollIdle)

	log.Info("poll started", "title", title, "options", len(options))
	return nil
}

func voteButtons(p *poll.Poll) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(p.Options))
	for i, o := range p.Options {
		buttons = append(buttons, discordgo.Button{
			CustomID: votePrefix + strconv.Itoa(i),
			Label:    o.Label,
			Emoji:    format.EmojiComponentFromString(o.Emoji),
			Style:    discordgo.SecondaryButton,
		})
	}

	// An action row holds five buttons at most.
	rows := []discordgo.MessageComponent{}
	for len(buttons) > 0 {
		n := min(5, len(buttons))
		rows = append(rows, discordgo.ActionsRow{Components: buttons[:n]})
		buttons = buttons[n:]
	}
	return rows
}

func (c *Command) vote(log *slog.Logger, p *poll.Poll, buttons []discordgo.MessageComponent, in operations.Input) operations.Result {
	s, ok := strings.CutPrefix(in.CustomID, votePrefix)
	if !ok || in.Interaction == nil {
		return operations.Ignored
	}
	option, err := strconv.Atoi(s)
	if err != nil {
		return operations.Ignored
	}

	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	if p.Vote(in.UserID, option) {
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    p.Chart(),
				Components: buttons,
			},
		}
	}

	if err := in.Client.Respond(in.Interaction, resp); err != nil {
		log.Error("failed updating poll", "user", in.UserID, "err", err)
	}

	return operations.Reset
}

func (c *Command) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}

func (c *Command) SetStorageConnection(*database.Storage) {}
