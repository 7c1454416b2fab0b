package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LeBulldoge/sqlighter"
)

type Birthday struct {
	UserID   string `db:"id"`
	Birthday string `db:"birthday"`
}

func (m *Storage) SetBirthday(ctx context.Context, guildID string, userID string, birthday string) error {
	return m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO Users (id, birthday) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET birthday = excluded.birthday", userID, birthday)
		if err != nil {
			return fmt.Errorf("failure saving birthday for user %s: %w", userID, err)
		}

		if guildID == "" {
			return nil
		}

		_, err = tx.ExecContext(ctx, "INSERT OR IGNORE INTO GuildBirthdays (guild_id, user_id) VALUES (?, ?)", guildID, userID)
		if err != nil {
			return fmt.Errorf("failure tracking birthday of user %s in guild %s: %w", userID, guildID, err)
		}

		return nil
	})
}

func (m *Storage) ClearBirthday(ctx context.Context, userID string) error {
	return m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE Users SET birthday = '' WHERE id = ?", userID)
		if err != nil {
			return fmt.Errorf("failure clearing birthday for user %s: %w", userID, err)
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM GuildBirthdays WHERE user_id = ?", userID)
		return err
	})
}

// GuildBirthdays lists the tracked members of guildID that have a birthday.
func (m *Storage) GuildBirthdays(ctx context.Context, guildID string) ([]Birthday, error) {
	res := []Birthday{}

	err := m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		err := tx.SelectContext(ctx, &res, `SELECT Users.id, Users.birthday FROM GuildBirthdays
      JOIN Users ON Users.id = GuildBirthdays.user_id
      WHERE GuildBirthdays.guild_id = ? AND Users.birthday != ''`, guildID)
		if err != nil {
			return fmt.Errorf("failure getting birthdays for guild %s: %w", guildID, err)
		}

		return nil
	})

	return res, err
}

func (m *Storage) BirthdayHolders(ctx context.Context, guildID string) ([]string, error) {
	res := []string{}

	err := m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		err := tx.SelectContext(ctx, &res, "SELECT user_id FROM BirthdayHolders WHERE guild_id = ?", guildID)
		if err != nil {
			return fmt.Errorf("failure getting birthday holders for guild %s: %w", guildID, err)
		}

		return nil
	})

	return res, err
}

func (m *Storage) AddBirthdayHolder(ctx context.Context, guildID string, userID string) error {
	return m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO BirthdayHolders (guild_id, user_id) VALUES (?, ?)", guildID, userID)
		return err
	})
}

// RemoveBirthdayHolder also stops tracking the member's birthday in the
// guild when stale is set, i.e. the member left.
func (m *Storage) RemoveBirthdayHolder(ctx context.Context, guildID string, userID string, stale bool) error {
	return m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM BirthdayHolders WHERE guild_id = ? AND user_id = ?", guildID, userID)
		if err != nil || !stale {
			return err
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM GuildBirthdays WHERE guild_id = ? AND user_id = ?", guildID, userID)
		return err
	})
}

func (m *Storage) RewardKey(ctx context.Context, userID string) (string, error) {
	var key string

	err := m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		err := tx.GetContext(ctx, &key, "SELECT reward_key FROM Users WHERE id = ?", userID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	})

	return key, err
}

func (m *Storage) SaveRewardKey(ctx context.Context, userID string, key string) error {
	return m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO Users (id, reward_key) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET reward_key = excluded.reward_key", userID, key)
		if err != nil {
			return fmt.Errorf("failure saving reward key for user %s: %w", userID, err)
		}

		return nil
	})
}
