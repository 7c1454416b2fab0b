package shards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/gateway"
	"github.com/LeBulldoge/kagura/internal/shard"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

type Command struct {
	registry *shard.Registry
	shards   *gateway.Shards
	status   shard.StatusReader
	started  time.Time

	now    func() time.Time
	logger *slog.Logger
}

func NewCommand() *Command {
	return &Command{now: time.Now, logger: slog.Default()}
}

func (c *Command) Name() string {
	return "shards"
}

func (c *Command) Signature() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "shards",
		Description: "Show the state of every shard in this process",
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *Command) Setup(b *bot.Bot) error {
	c.registry = b.Registry
	c.shards = b.Shards
	c.status = b.Status
	c.started = b.Started
	return nil
}

func (c *Command) Run(_ context.Context, req *bot.Request) error {
	return req.Reply(c.table(req.Shard))
}

func (c *Command) table(current int) string {
	latencies := c.shards.Latencies()
	now := c.now()

	var sb strings.Builder
	sb.WriteString("```\n")

	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHARD\tLAST EVENT\tCACHED\tLATENCY\t")
	for _, s := range c.registry.All() {
		marker := ""
		if s.ID == current {
			marker = "*"
		}

		last := "never"
		if t := s.LastEvent(); !t.IsZero() {
			last = humanize.RelTime(t, now, "ago", "from now")
		}

		fmt.Fprintf(w, "%d%s\t%s\t%s\t%s\t\n",
			s.ID, marker, last, humanize.Comma(int64(s.Messages.Len())), latencies[s.ID].Round(time.Millisecond))
	}
	w.Flush()

	fmt.Fprintf(&sb, "\nstate %s, %d of %d shards here", c.status.Current(), c.registry.Len(), c.shards.Total())
	if !c.started.IsZero() {
		fmt.Fprintf(&sb, ", up since %s", humanize.RelTime(c.started, now, "ago", "from now"))
	}
	sb.WriteString("\n```")

	return sb.String()
}

func (c *Command) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}

func (c *Command) SetStorageConnection(*database.Storage) {}
