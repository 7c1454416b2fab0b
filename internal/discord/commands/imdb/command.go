package imdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/format"
	"github.com/LeBulldoge/kagura/internal/os"
	"github.com/bwmarrin/discordgo"
)

type Command struct {
	scraper *Scraper

	logger *slog.Logger
}

func NewCommand() *Command {
	return &Command{logger: slog.Default()}
}

func (c *Command) Name() string {
	return "imdb"
}

func (c *Command) Signature() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "imdb",
		Description: "Look up a movie or show",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "title",
				Description: "What to search for",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
		},
	}
}

func (c *Command) Setup(*bot.Bot) error {
	if c.scraper != nil {
		return nil
	}

	s, err := NewScraper(DefaultSource, os.CachePath("colly"))
	if err != nil {
		return err
	}
	c.scraper = s
	return nil
}

func (c *Command) Run(_ context.Context, req *bot.Request) error {
	query := req.Rest(0)
	if len(query) < 3 {
		return bot.Errorf("Give me at least 3 characters to search for.")
	}

	results, err := c.scraper.Search(query)
	if err != nil {
		return fmt.Errorf("searching for %q: %w", query, err)
	}
	if len(results) == 0 {
		return bot.Errorf("Nothing found for **%s**.", query)
	}

	title, err := c.scraper.Title(results[0].ID)
	if errors.Is(err, ErrNotFound) {
		return bot.Errorf("Nothing found for **%s**.", query)
	}
	if err != nil {
		return fmt.Errorf("fetching title %s: %w", results[0].ID, err)
	}

	return req.Reply(fmt.Sprintf("**%s**\n%s\n<%s>",
		title.Name, format.Truncate(title.Description, 1500), title.URL(c.scraper.Source())))
}

func (c *Command) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}

func (c *Command) SetStorageConnection(*database.Storage) {}
