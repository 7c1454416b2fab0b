package quote

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/format"
	"github.com/bwmarrin/discordgo"
)

type Command struct {
	database.WithStorage

	now  func() time.Time
	pick func(n int) int

	logger *slog.Logger
}

func NewCommand() *Command {
	return &Command{now: time.Now, pick: rand.IntN, logger: slog.Default()}
}

func (c *Command) Name() string {
	return "quote"
}

func (c *Command) Signature() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "quote",
		Description: "Save and recall quotes",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "Save a quote",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "by",
						Description: "Who said it",
						Type:        discordgo.ApplicationCommandOptionUser,
						Required:    true,
					},
					{
						Name:        "text",
						Description: "What they said",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
			{
				Name:        "random",
				Description: "Show a random quote",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "by",
						Description: "Only quotes of this user",
						Type:        discordgo.ApplicationCommandOptionUser,
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
	if req.GuildID == "" {
		return bot.Errorf("Quotes only work in a server.")
	}

	switch req.Arg(0) {
	case "add":
		return c.addQuote(ctx, req)
	case "random", "":
		return c.randomQuote(ctx, req)
	}

	return bot.Errorf("Usage: `quote add @user text` or `quote random [@user]`")
}

func (c *Command) addQuote(ctx context.Context, req *bot.Request) error {
	userID, ok := bot.ParseUserID(req.Arg(1))
	if !ok {
		return bot.Errorf("Mention who said it.")
	}
	text := req.Rest(2)
	if text == "" {
		return bot.Errorf("The quote can't be empty.")
	}

	err := c.GetStorage().AddQuote(ctx, database.Quote{
		GuildID: req.GuildID,
		UserID:  userID,
		Text:    format.Truncate(text, 1500),
		Date:    c.now(),
	})
	if err != nil {
		return err
	}

	c.logger.Info("quote added", "guild", req.GuildID, "by", userID)
	return req.Reply(fmt.Sprintf("Quote by <@%s> saved.", userID))
}

func (c *Command) randomQuote(ctx context.Context, req *bot.Request) error {
	var userID string
	if arg := req.Arg(1); arg != "" {
		id, ok := bot.ParseUserID(arg)
		if !ok {
			return bot.Errorf("Mention whose quotes to pick from.")
		}
		userID = id
	}

	quotes, err := c.GetStorage().Quotes(ctx, req.GuildID, userID)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		return bot.Errorf("No quotes found.")
	}

	q := quotes[c.pick(len(quotes))]

	name := "<@" + q.UserID + ">"
	if member, err := req.Client.Member(req.GuildID, q.UserID); err == nil {
		if n := format.GetMemberDisplayName(member); n != "" {
			name = n
		}
	}

	return req.Reply(fmt.Sprintf("Here is a random quote!\n\n**%s**, %s\n> %s",
		name, format.TimeToTimestamp(q.Date), q.Text))
}

func (c *Command) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}
