package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LeBulldoge/kagura/internal/backoff"
	"github.com/LeBulldoge/kagura/internal/config"
	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/gateway"
	"github.com/LeBulldoge/kagura/internal/listener"
	"github.com/LeBulldoge/kagura/internal/operations"
	"github.com/LeBulldoge/kagura/internal/shard"
	"github.com/bwmarrin/discordgo"
)

// Bot is the handle given to commands. Everything a command may touch
// hangs off it, so nothing is reached through package globals.
type Bot struct {
	Config     *config.Config
	Storage    *database.Storage
	Status     shard.StatusReader
	Registry   *shard.Registry
	Shards     *gateway.Shards
	Scheduler  *backoff.Scheduler
	Listeners  *listener.Set
	Operations *operations.Registry

	Started time.Time
}

// CreateCommands overwrites the global application commands with sigs
// through the lowest owned shard.
func (bot *Bot) CreateCommands(ctx context.Context, sigs []*discordgo.ApplicationCommand) error {
	ids := bot.Shards.IDs()
	if len(ids) == 0 {
		return fmt.Errorf("no shard to register commands through")
	}

	session := bot.Shards.Session(ids[0])
	if session.State == nil || session.State.User == nil {
		return fmt.Errorf("shard %d has no user yet", ids[0])
	}

	created, err := session.ApplicationCommandBulkOverwrite(session.State.User.ID, "", sigs, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}

	for _, v := range created {
		slog.Info("created command", "cmd", v.Name)
	}

	return nil
}

// Shutdown releases what the handle owns. Connections are closed by the
// startup coordinator.
func (bot *Bot) Shutdown() {
	if bot.Scheduler != nil {
		bot.Scheduler.Close()
	}

	if bot.Storage != nil {
		if err := bot.Storage.Close(); err != nil {
			slog.Error("failure closing database connection", "err", err)
		}
	}

	slog.Info("gracefully shutting down.")
}
