package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrMissingToken = errors.New("bot token is not set")

type Config struct {
	Token     string `env:"DISCORD_TOKEN"`
	ConfigDir string `env:"KAGURA_CONFIG_DIR"`
	Prefix    string `env:"KAGURA_PREFIX" envDefault:"k!"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	// TotalShards of zero means "ask the gateway for its recommendation".
	TotalShards int  `env:"SHARD_COUNT" envDefault:"0"`
	ShardsFrom  *int `env:"SHARD_FROM"`
	ShardsTo    *int `env:"SHARD_TO"`

	IdentifyDelay      time.Duration `env:"IDENTIFY_DELAY" envDefault:"5s"`
	HeartbeatCheck     time.Duration `env:"HEARTBEAT_CHECK_INTERVAL" envDefault:"15s"`
	Workers            int           `env:"DISPATCH_WORKERS" envDefault:"0"`
	MessageCacheSize   int           `env:"MESSAGE_CACHE_SIZE" envDefault:"2500"`
	BackoffInterval    time.Duration `env:"BACKOFF_INTERVAL" envDefault:"1500ms"`
	BirthdayInterval   time.Duration `env:"BIRTHDAY_INTERVAL" envDefault:"1h"`
	BirthdayTimezone   string        `env:"BIRTHDAY_TIMEZONE" envDefault:"UTC"`
	SlowModeLimit      int           `env:"SLOWMODE_LIMIT" envDefault:"5"`
	SlowModeWindow     time.Duration `env:"SLOWMODE_WINDOW" envDefault:"5s"`
	CommandCooldown    time.Duration `env:"COMMAND_COOLDOWN" envDefault:"3s"`
	HubGuildID         string        `env:"HUB_GUILD_ID"`
	PatreonRoleID      string        `env:"PATREON_ROLE_ID"`
	PresenceStatusText string        `env:"PRESENCE_TEXT" envDefault:"k!help"`
}

// Load reads an optional .env file followed by the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed parsing environment: %w", err)
	}

	cfg.Token = strings.TrimPrefix(strings.TrimSpace(cfg.Token), "Bot ")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.TotalShards < 0 {
		return fmt.Errorf("shard count must not be negative, got %d", c.TotalShards)
	}
	if c.SlowModeLimit < 1 {
		return fmt.Errorf("slow mode limit must be positive, got %d", c.SlowModeLimit)
	}
	if _, err := time.LoadLocation(c.BirthdayTimezone); err != nil {
		return fmt.Errorf("invalid birthday timezone %q: %w", c.BirthdayTimezone, err)
	}

	return nil
}

func (c *Config) BirthdayLocation() *time.Location {
	loc, err := time.LoadLocation(c.BirthdayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
