package quote

import (
	"context"
	"testing"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/rest/resttest"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quotedAt = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func newTestCommand(t *testing.T) *Command {
	t.Helper()

	s := database.New(t.TempDir())
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { s.Close() })

	c := NewCommand()
	c.SetStorageConnection(s)
	c.now = func() time.Time { return quotedAt }
	c.pick = func(int) int { return 0 }
	return c
}

func request(client *resttest.Client, args ...string) *bot.Request {
	return &bot.Request{
		Client:    client,
		GuildID:   "g",
		ChannelID: "c",
		Author:    &discordgo.User{ID: "1"},
		Command:   "quote",
		Args:      args,
	}
}

func TestAddAndRecall(t *testing.T) {
	c := newTestCommand(t)
	client := resttest.New()
	ctx := context.Background()

	require.NoError(t, c.Run(ctx, request(client, "add", "<@42>", "never", "again")))
	require.NoError(t, c.Run(ctx, request(client, "random", "<@42>")))

	sent := client.Calls().Sent
	require.Len(t, sent, 2)
	assert.Equal(t, "Quote by <@42> saved.", sent[0].Content)
	assert.Contains(t, sent[1].Content, "> never again")
	assert.Contains(t, sent[1].Content, "<t:1709287200>")
}

func TestRandomWithoutQuotes(t *testing.T) {
	c := newTestCommand(t)
	client := resttest.New()

	err := c.Run(context.Background(), request(client, "random"))

	uerr, ok := bot.IsUserError(err)
	require.True(t, ok)
	assert.Equal(t, "No quotes found.", uerr.Msg)
}

func TestAddRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no user", args: []string{"add", "hello"}},
		{name: "no text", args: []string{"add", "<@42>"}},
		{name: "unknown subcommand", args: []string{"delete"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCommand(t)
			client := resttest.New()

			err := c.Run(context.Background(), request(client, tt.args...))

			_, ok := bot.IsUserError(err)
			assert.True(t, ok, "want a user error, got %v", err)
			assert.Empty(t, client.Calls().Sent)
		})
	}
}
