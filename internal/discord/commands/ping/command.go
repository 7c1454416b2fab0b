package ping

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/gateway"
	"github.com/bwmarrin/discordgo"
)

type Command struct {
	shards *gateway.Shards

	logger *slog.Logger
}

func NewCommand() *Command {
	return &Command{logger: slog.Default()}
}

func (c *Command) Name() string {
	return "ping"
}

func (c *Command) Signature() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Show gateway latency",
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *Command) Setup(b *bot.Bot) error {
	c.shards = b.Shards
	return nil
}

func (c *Command) Run(_ context.Context, req *bot.Request) error {
	own := c.shards.Latencies()[req.Shard]
	avg := c.shards.AverageLatency()

	return req.Reply(fmt.Sprintf(
		"🏓 Pong! Shard %d: **%s**, average over %d shards: **%s**",
		req.Shard, own.Round(time.Millisecond), len(c.shards.IDs()), avg.Round(time.Millisecond),
	))
}

func (c *Command) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}

func (c *Command) SetStorageConnection(*database.Storage) {}
