package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/LeBulldoge/sqlighter"
)

type GuildConfig struct {
	ID                string `db:"id"`
	Prefix            string `db:"prefix"`
	Autorole          string `db:"autorole"`
	JoinChannel       string `db:"join_channel"`
	JoinMessage       string `db:"join_message"`
	LeaveChannel      string `db:"leave_channel"`
	LeaveMessage      string `db:"leave_message"`
	BirthdayChannel   string `db:"birthday_channel"`
	BirthdayRole      string `db:"birthday_role"`
	ModLogChannel     string `db:"modlog_channel"`
	LinkProtection    bool   `db:"link_protection"`
	LinkExemptChannel string `db:"link_exempt_channel"`
	SlowMode          bool   `db:"slowmode"`
	SlowModeLimit     int    `db:"slowmode_limit"`
	// SlowModeWindow is stored in seconds.
	SlowModeWindow   int    `db:"slowmode_window"`
	DisabledCommands string `db:"disabled_commands"`
}

func (g GuildConfig) SlowModeWindowDuration() time.Duration {
	return time.Duration(g.SlowModeWindow) * time.Second
}

func (g GuildConfig) IsCommandDisabled(name string) bool {
	if g.DisabledCommands == "" {
		return false
	}
	return slices.Contains(strings.Split(g.DisabledCommands, ","), name)
}

func (g *GuildConfig) SetCommandDisabled(name string, disabled bool) {
	var cmds []string
	if g.DisabledCommands != "" {
		cmds = strings.Split(g.DisabledCommands, ",")
	}
	cmds = slices.DeleteFunc(cmds, func(c string) bool { return c == name })
	if disabled {
		cmds = append(cmds, name)
	}
	g.DisabledCommands = strings.Join(cmds, ",")
}

func (g GuildConfig) HasBirthdaySetup() bool {
	return g.BirthdayChannel != "" && g.BirthdayRole != ""
}

// GuildConfig returns the stored config for guildID, or the defaults when
// the guild never changed anything.
func (m *Storage) GuildConfig(ctx context.Context, guildID string) (GuildConfig, error) {
	res := GuildConfig{ID: guildID}

	err := m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		err := tx.GetContext(ctx, &res, "SELECT * FROM GuildConfigs WHERE id = ?", guildID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failure getting config for guild %s: %w", guildID, err)
		}

		return nil
	})

	return res, err
}

func (m *Storage) SaveGuildConfig(ctx context.Context, g GuildConfig) error {
	return m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO GuildConfigs (
      id, prefix, autorole, join_channel, join_message, leave_channel, leave_message,
      birthday_channel, birthday_role, modlog_channel, link_protection, link_exempt_channel,
      slowmode, slowmode_limit, slowmode_window, disabled_commands
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Prefix, g.Autorole, g.JoinChannel, g.JoinMessage, g.LeaveChannel, g.LeaveMessage,
			g.BirthdayChannel, g.BirthdayRole, g.ModLogChannel, g.LinkProtection, g.LinkExemptChannel,
			g.SlowMode, g.SlowModeLimit, g.SlowModeWindow, g.DisabledCommands,
		)
		if err != nil {
			return fmt.Errorf("failure saving config for guild %s: %w", g.ID, err)
		}

		return nil
	})
}

func (m *Storage) updateGuildColumn(ctx context.Context, guildID string, column string, value any) error {
	return m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO GuildConfigs (id) VALUES (?)", guildID)
		if err != nil {
			return fmt.Errorf("failure creating config for guild %s: %w", guildID, err)
		}

		_, err = tx.ExecContext(ctx, "UPDATE GuildConfigs SET "+column+" = ? WHERE id = ?", value, guildID)
		if err != nil {
			return fmt.Errorf("failure updating %s for guild %s: %w", column, guildID, err)
		}

		return nil
	})
}

func (m *Storage) DisableSlowMode(ctx context.Context, guildID string) error {
	return m.updateGuildColumn(ctx, guildID, "slowmode", false)
}

func (m *Storage) ClearAutorole(ctx context.Context, guildID string) error {
	return m.updateGuildColumn(ctx, guildID, "autorole", "")
}

// BirthdayGuilds lists guilds with both a birthday channel and role.
func (m *Storage) BirthdayGuilds(ctx context.Context) ([]GuildConfig, error) {
	res := []GuildConfig{}

	err := m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		err := tx.SelectContext(ctx, &res, "SELECT * FROM GuildConfigs WHERE birthday_channel != '' AND birthday_role != ''")
		if err != nil {
			return fmt.Errorf("failure getting birthday guilds: %w", err)
		}

		return nil
	})

	return res, err
}
