package kagura

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/LeBulldoge/kagura/internal/config"
	kos "github.com/LeBulldoge/kagura/internal/os"
	"github.com/LeBulldoge/kagura/internal/startup"
	"github.com/spf13/cobra"
)

type flags struct {
	envFile   string
	token     string
	configDir string
	logLevel  string

	shards    int
	shardFrom int
	shardTo   int
}

func NewRootCommand() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "kagura",
		Short:         "Kagura - a sharded Discord bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return startup.Exit(startup.ExitConfig, err)
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			})))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, f.shardOverride(cmd))
		},
	}

	fl := root.Flags()
	fl.StringVar(&f.envFile, "env-file", "", "Path to a .env file")
	fl.StringVar(&f.token, "token", "", "Bot token, overrides DISCORD_TOKEN")
	fl.StringVar(&f.configDir, "config", "", "Config directory, overrides KAGURA_CONFIG_DIR")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")
	fl.IntVar(&f.shards, "shards", 0, "Total shard count, overrides SHARD_COUNT and the gateway recommendation")
	fl.IntVar(&f.shardFrom, "shard-from", 0, "First shard id run by this process")
	fl.IntVar(&f.shardTo, "shard-to", 0, "Shard id after the last one run by this process")

	return root
}

// load reads the environment and applies every flag that was set on top.
func (f *flags) load(cmd *cobra.Command) (*config.Config, error) {
	var envFiles []string
	if f.envFile != "" {
		if !kos.FileExists(f.envFile) {
			return nil, fmt.Errorf("env file %s does not exist", f.envFile)
		}
		envFiles = append(envFiles, f.envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("token") {
		cfg.Token = strings.TrimPrefix(strings.TrimSpace(f.token), "Bot ")
	}
	if fl.Changed("config") {
		cfg.ConfigDir = f.configDir
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fl.Changed("shard-from") {
		cfg.ShardsFrom = &f.shardFrom
	}
	if fl.Changed("shard-to") {
		cfg.ShardsTo = &f.shardTo
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *flags) shardOverride(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("shards") {
		return nil
	}
	return &f.shards
}

// Execute runs the root command. The returned error carries the process
// exit code, see startup.ExitCode.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		slog.Error("kagura stopped", "err", err, "code", startup.ExitCode(err))
	}
	return err
}
