package commands

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/bot"
	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/LeBulldoge/kagura/internal/discord/rest/resttest"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct {
	err  error
	runs []*bot.Request
}

func (c *echoCommand) Name() string                             { return "echo" }
func (c *echoCommand) Signature() *discordgo.ApplicationCommand { return nil }
func (c *echoCommand) Setup(*bot.Bot) error                     { return nil }
func (c *echoCommand) SetStorageConnection(*database.Storage)   {}
func (c *echoCommand) AddLogger(*slog.Logger)                   {}

func (c *echoCommand) Run(_ context.Context, req *bot.Request) error {
	c.runs = append(c.runs, req)
	if c.err != nil {
		return c.err
	}
	return req.Reply(req.Rest(0))
}

type fakeConfigs map[string]database.GuildConfig

func (f fakeConfigs) GuildConfig(_ context.Context, guildID string) (database.GuildConfig, error) {
	if cfg, ok := f[guildID]; ok {
		return cfg, nil
	}
	return database.GuildConfig{ID: guildID}, nil
}

func newTestProcessor(cmd *echoCommand, configs fakeConfigs) *Processor {
	return NewProcessor(map[string]Command{"echo": cmd}, configs, "k!", time.Minute)
}

func message(c *resttest.Client, author, content string) dispatch.Event {
	return dispatch.Event{
		Kind:   dispatch.KindMessageCreate,
		Client: c,
		Data: &discordgo.MessageCreate{Message: &discordgo.Message{
			ID:        "m",
			GuildID:   "g",
			ChannelID: "c",
			Content:   content,
			Author:    &discordgo.User{ID: author},
		}},
	}
}

func TestHandleMessagePrefixes(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		content  string
		wantArgs []string
	}{
		{"default prefix", "", "k!echo hello world", []string{"hello", "world"}},
		{"case insensitive name", "", "k!ECHO hi", []string{"hi"}},
		{"mention", "", "<@bot> echo hi", []string{"hi"}},
		{"nick mention", "", "<@!bot>echo hi", []string{"hi"}},
		{"guild prefix", "?", "?echo hi", []string{"hi"}},
		{"default prefix replaced", "?", "k!echo hi", nil},
		{"no prefix", "", "echo hi", nil},
		{"prefix only", "", "k!", nil},
		{"unknown command", "", "k!nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &echoCommand{}
			p := newTestProcessor(cmd, fakeConfigs{"g": {ID: "g", Prefix: tt.prefix}})
			client := resttest.New()

			require.NoError(t, p.HandleMessage(context.Background(), message(client, "u", tt.content)))

			if tt.wantArgs == nil {
				assert.Empty(t, cmd.runs)
				return
			}
			require.Len(t, cmd.runs, 1)
			assert.Equal(t, tt.wantArgs, cmd.runs[0].Args)
			assert.Equal(t, "echo", cmd.runs[0].Command)
		})
	}
}

func TestHandleMessageIgnoresBots(t *testing.T) {
	cmd := &echoCommand{}
	p := newTestProcessor(cmd, fakeConfigs{})
	client := resttest.New()

	ev := message(client, "other", "k!echo hi")
	ev.Data.(*discordgo.MessageCreate).Author.Bot = true
	require.NoError(t, p.HandleMessage(context.Background(), ev))

	assert.Empty(t, cmd.runs)
}

func TestDisabledCommand(t *testing.T) {
	cmd := &echoCommand{}
	p := newTestProcessor(cmd, fakeConfigs{"g": {ID: "g", DisabledCommands: "ban,echo"}})

	require.NoError(t, p.HandleMessage(context.Background(), message(resttest.New(), "u", "k!echo hi")))
	assert.Empty(t, cmd.runs)
}

func TestCooldownPerUserAndCommand(t *testing.T) {
	cmd := &echoCommand{}
	p := newTestProcessor(cmd, fakeConfigs{})
	client := resttest.New()
	ctx := context.Background()

	require.NoError(t, p.HandleMessage(ctx, message(client, "u1", "k!echo one")))
	require.NoError(t, p.HandleMessage(ctx, message(client, "u1", "k!echo two")))
	require.NoError(t, p.HandleMessage(ctx, message(client, "u2", "k!echo three")))

	require.Len(t, cmd.runs, 2)
	assert.Equal(t, "u1", cmd.runs[0].Author.ID)
	assert.Equal(t, "u2", cmd.runs[1].Author.ID)
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"user error", bot.Errorf("Mention the member to ban."), "Mention the member to ban."},
		{"missing permission", &rest.MissingPermissionError{Permission: discordgo.PermissionBanMembers}, "I need the **Ban Members** permission to do that."},
		{"rest forbidden", resttest.ErrForbidden, "I don't have the permissions needed to do that here."},
		{"internal", errors.New("database is locked"), "Sorry, something went wrong while doing that. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(&echoCommand{err: tt.err}, fakeConfigs{})
			client := resttest.New()

			require.NoError(t, p.HandleMessage(context.Background(), message(client, "u", "k!echo")))

			sent := client.Calls().Sent
			require.Len(t, sent, 1)
			assert.Equal(t, tt.want, sent[0].Content)
		})
	}
}

func interaction(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g",
		ChannelID: "c",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u"}},
		Data:      discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}}
}

func TestHandleInteraction(t *testing.T) {
	cmd := &echoCommand{}
	p := newTestProcessor(cmd, fakeConfigs{})
	client := resttest.New()

	ev := dispatch.Event{
		Kind:   dispatch.KindInteractionCreate,
		Client: client,
		Data: interaction("echo", &discordgo.ApplicationCommandInteractionDataOption{
			Name: "text", Type: discordgo.ApplicationCommandOptionString, Value: "hello there",
		}),
	}
	require.NoError(t, p.HandleInteraction(context.Background(), ev))

	require.Len(t, cmd.runs, 1)
	assert.Equal(t, []string{"hello", "there"}, cmd.runs[0].Args)
	assert.Equal(t, "u", cmd.runs[0].Author.ID)

	calls := client.Calls()
	assert.Empty(t, calls.Sent)
	require.Len(t, calls.Responses, 1)
	assert.Equal(t, "hello there", calls.Responses[0].Data.Content)
}

func TestHandleInteractionErrorIsEphemeral(t *testing.T) {
	p := newTestProcessor(&echoCommand{err: bot.Errorf("nope")}, fakeConfigs{})
	client := resttest.New()

	ev := dispatch.Event{Kind: dispatch.KindInteractionCreate, Client: client, Data: interaction("echo")}
	require.NoError(t, p.HandleInteraction(context.Background(), ev))

	responses := client.Calls().Responses
	require.Len(t, responses, 1)
	assert.Equal(t, "nope", responses[0].Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, responses[0].Data.Flags)
}

func TestHandleInteractionIgnoresComponents(t *testing.T) {
	cmd := &echoCommand{}
	p := newTestProcessor(cmd, fakeConfigs{})

	intr := interaction("echo")
	intr.Type = discordgo.InteractionMessageComponent
	ev := dispatch.Event{Kind: dispatch.KindInteractionCreate, Client: resttest.New(), Data: intr}
	require.NoError(t, p.HandleInteraction(context.Background(), ev))

	assert.Empty(t, cmd.runs)
}

func TestCommandTable(t *testing.T) {
	cmds := Commands()
	for _, name := range []string{"ping", "shards", "birthday", "opts", "ban", "imdb", "poll", "quote"} {
		require.Contains(t, cmds, name)
		assert.Equal(t, name, cmds[name].Signature().Name)
	}

	sigs := Signatures(cmds)
	require.Len(t, sigs, len(cmds))
	assert.Equal(t, "ban", sigs[0].Name)
}
