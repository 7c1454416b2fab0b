package kagura

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LeBulldoge/kagura/internal/backoff"
	"github.com/LeBulldoge/kagura/internal/config"
	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/commands"
	"github.com/LeBulldoge/kagura/internal/discord/gateway"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/LeBulldoge/kagura/internal/listener"
	"github.com/LeBulldoge/kagura/internal/operations"
	kos "github.com/LeBulldoge/kagura/internal/os"
	"github.com/LeBulldoge/kagura/internal/shard"
	"github.com/LeBulldoge/kagura/internal/startup"
	"github.com/bwmarrin/discordgo"
)

const sweepInterval = 5 * time.Minute

// run boots the process and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config, shardOverride *int) error {
	status := shard.NewStatus()
	status.Advance(shard.Loading)

	if cfg.ConfigDir != "" {
		kos.SetCustomConfigDir(cfg.ConfigDir)
	}
	if err := kos.EnsureDir(kos.ConfigPath()); err != nil {
		return startup.Exit(startup.ExitStorage, fmt.Errorf("failed creating config directory: %w", err))
	}

	storage := database.New(kos.ConfigPath())
	if err := storage.Open(ctx); err != nil {
		return startup.Exit(startup.ExitStorage, fmt.Errorf("failed opening storage: %w", err))
	}

	// Sessions are not opened before the coordinator identifies them, so
	// this one only serves REST calls.
	restSession, err := gateway.NewSession(cfg.Token, 0, 1)
	if err != nil {
		storage.Close()
		return startup.Exit(startup.ExitConfig, err)
	}

	gw := startup.NewOnceRecommender(restSession)
	total, err := startup.DetermineShardCount(ctx, cfg.TotalShards, shardOverride, gw)
	if err != nil {
		storage.Close()
		return startup.Exit(startup.ExitShardCount, err)
	}

	owned, err := startup.DetermineOwnedShardRange(total, cfg.ShardsFrom, cfg.ShardsTo)
	if err != nil {
		storage.Close()
		return startup.Exit(startup.ExitShardSubset, err)
	}

	concurrency := startup.IdentifyConcurrency(ctx, gw)
	slog.Info("shard layout decided", "total", total, "owned", owned, "concurrency", concurrency)

	registry := shard.NewRegistry(cfg.MessageCacheSize)
	shards := gateway.NewShards(total)

	dispatcher := dispatch.NewDispatcher(status, registry, dispatch.NewPool(cfg.Workers))

	scheduler := backoff.NewScheduler(cfg.BackoffInterval)

	listeners := listener.NewSet(storage, scheduler, listener.Options{
		SlowModeLimit:    cfg.SlowModeLimit,
		SlowModeWindow:   cfg.SlowModeWindow,
		HubGuildID:       cfg.HubGuildID,
		PatreonRoleID:    cfg.PatreonRoleID,
		BirthdayLocation: cfg.BirthdayLocation(),
	})
	listeners.ClientFor = shards.ClientFor
	listeners.Register(dispatcher)

	ops := operations.NewRegistry()
	dispatcher.Handle(dispatch.KindReactionAdd, "operations", ops.HandleReaction)
	dispatcher.Handle(dispatch.KindInteractionCreate, "operations", ops.HandleComponent)

	b := &bot.Bot{
		Config:     cfg,
		Storage:    storage,
		Status:     status,
		Registry:   registry,
		Shards:     shards,
		Scheduler:  scheduler,
		Listeners:  listeners,
		Operations: ops,
		Started:    time.Now(),
	}
	defer func() {
		dispatcher.Close()
		b.Shutdown()
	}()

	cmds := commands.Commands()
	if err := commands.SetupCommands(b, cmds); err != nil {
		return err
	}

	processor := commands.NewProcessor(cmds, storage, cfg.Prefix, cfg.CommandCooldown)
	processor.Register(dispatcher)

	connect := func(id int, ready func()) (startup.Connection, error) {
		session, err := gateway.NewSession(cfg.Token, id, total)
		if err != nil {
			return nil, err
		}
		session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) {
			ready()
		})

		shards.Add(id, session)
		registry.GetOrCreate(id).Attach(gateway.Attach(session, dispatcher, cfg.HeartbeatCheck))

		return session, nil
	}

	coordinator := startup.NewCoordinator(status, connect, startup.Options{
		MaxConcurrency: concurrency,
		IdentifyDelay:  cfg.IdentifyDelay,
	})

	coordinator.OnPostLoad("birthdays", func(ctx context.Context) error {
		listeners.StartBirthdays(ctx, cfg.BirthdayInterval)
		return nil
	})
	coordinator.OnPostLoad("presence", func(context.Context) error {
		return shards.UpdateStatus(cfg.PresenceStatusText)
	})
	coordinator.OnPostLoad("commands", func(ctx context.Context) error {
		return b.CreateCommands(ctx, commands.Signatures(cmds))
	})
	coordinator.OnPostLoad("sweeper", func(ctx context.Context) error {
		go sweep(ctx, ops, listeners, processor)
		return nil
	})

	if err := coordinator.Start(ctx, owned); err != nil {
		return startup.Exit(startup.ExitConnect, err)
	}
	defer func() {
		if err := coordinator.Shutdown(); err != nil {
			slog.Error("failed closing shards", "err", err)
		}
	}()

	slog.Info("press Ctrl+C to exit")
	<-ctx.Done()
	slog.Info("shutting down")

	return nil
}

// sweep periodically drops expired operations and idle rate limiter windows.
func sweep(ctx context.Context, ops *operations.Registry, listeners *listener.Set, processor *commands.Processor) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			slog.Debug("swept idle state",
				"operations", ops.Sweep(),
				"limiter", listeners.PruneLimiter(),
				"cooldowns", processor.PruneCooldowns(),
			)
		}
	}
}
