package database

import (
	"context"
	"fmt"
	"time"

	"github.com/LeBulldoge/sqlighter"
)

type Quote struct {
	GuildID string    `db:"guild_id"`
	UserID  string    `db:"user_id"`
	Text    string    `db:"text"`
	Date    time.Time `db:"date"`
}

func (m *Storage) AddQuote(ctx context.Context, q Quote) error {
	return m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO Quotes (guild_id, user_id, text, date) VALUES (?, ?, ?, ?)",
			q.GuildID, q.UserID, q.Text, q.Date.UTC())
		if err != nil {
			return fmt.Errorf("failure saving a quote: %w", err)
		}

		return nil
	})
}

// Quotes lists the quotes of guildID, only those of userID when it is set.
func (m *Storage) Quotes(ctx context.Context, guildID string, userID string) ([]Quote, error) {
	res := []Quote{}

	err := m.Tx(ctx, func(ctx context.Context, tx *sqlighter.Tx) error {
		var err error
		if userID == "" {
			err = tx.SelectContext(ctx, &res, "SELECT * FROM Quotes WHERE guild_id = ? ORDER BY date", guildID)
		} else {
			err = tx.SelectContext(ctx, &res, "SELECT * FROM Quotes WHERE guild_id = ? AND user_id = ? ORDER BY date", guildID, userID)
		}
		if err != nil {
			return fmt.Errorf("failure getting quotes for guild %s: %w", guildID, err)
		}

		return nil
	})

	return res, err
}
