package commands

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/commands/ban"
	"github.com/LeBulldoge/kagura/internal/discord/commands/birthday"
	"github.com/LeBulldoge/kagura/internal/discord/commands/imdb"
	"github.com/LeBulldoge/kagura/internal/discord/commands/opts"
	"github.com/LeBulldoge/kagura/internal/discord/commands/ping"
	"github.com/LeBulldoge/kagura/internal/discord/commands/poll"
	"github.com/LeBulldoge/kagura/internal/discord/commands/quote"
	"github.com/LeBulldoge/kagura/internal/discord/commands/shards"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/exp/maps"
)

type Command interface {
	Name() string
	Signature() *discordgo.ApplicationCommand

	Setup(*bot.Bot) error
	SetStorageConnection(*database.Storage)
	Run(ctx context.Context, req *bot.Request) error

	AddLogger(*slog.Logger)
}

// Commands is the explicit command table. Adding a command means adding a
// line here.
func Commands() map[string]Command {
	list := []Command{
		ping.NewCommand(),
		shards.NewCommand(),
		birthday.NewCommand(),
		opts.NewCommand(),
		ban.NewCommand(),
		imdb.NewCommand(),
		poll.NewCommand(),
		quote.NewCommand(),
	}

	res := make(map[string]Command, len(list))
	for _, cmd := range list {
		res[cmd.Name()] = cmd
	}
	return res
}

// SetupCommands prepares every command once at boot.
func SetupCommands(b *bot.Bot, commands map[string]Command) error {
	for name, cmd := range commands {
		logger := slog.Default().With(
			slog.Group(
				"command",
				slog.String("name", name),
			),
		)
		cmd.AddLogger(logger)
		cmd.SetStorageConnection(b.Storage)
		if err := cmd.Setup(b); err != nil {
			return fmt.Errorf("failed to setup command %s: %w", name, err)
		}
	}
	return nil
}

// Signatures lists the slash command metadata in name order.
func Signatures(commands map[string]Command) []*discordgo.ApplicationCommand {
	names := maps.Keys(commands)
	slices.Sort(names)

	sigs := make([]*discordgo.ApplicationCommand, 0, len(names))
	for _, name := range names {
		if sig := commands[name].Signature(); sig != nil {
			sigs = append(sigs, sig)
		}
	}
	return sigs
}
