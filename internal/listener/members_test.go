package listener

import (
	"context"
	"testing"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/rest/resttest"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/LeBulldoge/kagura/internal/shard"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinEvent(c *resttest.Client, userID string) dispatch.Event {
	u := &discordgo.User{ID: userID, Username: userID}
	return dispatch.Event{
		Kind:   dispatch.KindGuildMemberAdd,
		Client: c,
		Data:   &discordgo.GuildMemberAdd{Member: &discordgo.Member{GuildID: "g", User: u}},
	}
}

func TestMemberJoinGreetsAndGrantsAutorole(t *testing.T) {
	store := newFakeStore()
	store.configs["g"] = database.GuildConfig{
		ID:          "g",
		Autorole:    "newbie",
		JoinChannel: "welcome",
		JoinMessage: "Welcome $(member) to $(guild)! You are member #$(count).",
	}
	set := newTestSet(t, store, Options{})
	client := resttest.New()

	require.NoError(t, set.MemberJoin(context.Background(), joinEvent(client, "u1")))

	_, msgs, _, added, _ := snapshot(client)
	assert.Equal(t, []resttest.RoleCall{{GuildID: "g", UserID: "u1", RoleID: "newbie"}}, added)
	require.Len(t, msgs, 1)
	assert.Equal(t, resttest.Sent{ChannelID: "welcome", Content: "Welcome <@u1> to Guild! You are member #42."}, msgs[0])
}

func TestMemberJoinClearsAutoroleOnPermissionLoss(t *testing.T) {
	store := newFakeStore()
	store.configs["g"] = database.GuildConfig{ID: "g", Autorole: "newbie"}
	set := newTestSet(t, store, Options{})
	client := resttest.New()
	client.RoleErr = resttest.ErrForbidden

	require.NoError(t, set.MemberJoin(context.Background(), joinEvent(client, "u1")))
	require.NoError(t, set.MemberJoin(context.Background(), joinEvent(client, "u2")))

	_, _, dms, added, _ := snapshot(client)
	assert.Len(t, added, 1)
	assert.Equal(t, 1, store.autoroleClear)
	require.Len(t, dms, 1)
	assert.Equal(t, "owner", dms[0].ChannelID)
}

func TestMemberLeave(t *testing.T) {
	store := newFakeStore()
	store.configs["g"] = database.GuildConfig{ID: "g", LeaveChannel: "bye", LeaveMessage: "$(username) left."}
	set := newTestSet(t, store, Options{})
	client := resttest.New()

	u := &discordgo.User{ID: "u1", Username: "alice"}
	ev := dispatch.Event{
		Kind:   dispatch.KindGuildMemberRemove,
		Client: client,
		Data:   &discordgo.GuildMemberRemove{Member: &discordgo.Member{GuildID: "g", User: u}},
	}
	require.NoError(t, set.MemberLeave(context.Background(), ev))

	_, msgs, _, _, _ := snapshot(client)
	assert.Equal(t, []resttest.Sent{{ChannelID: "bye", Content: "alice left."}}, msgs)
}

func memberUpdate(userID string, before, after []string) *discordgo.GuildMemberUpdate {
	upd := &discordgo.GuildMemberUpdate{Member: &discordgo.Member{
		GuildID: "hub",
		User:    &discordgo.User{ID: userID},
		Roles:   after,
	}}
	if before != nil {
		upd.BeforeUpdate = &discordgo.Member{GuildID: "hub", Roles: before}
	}
	return upd
}

func TestPatreonKeys(t *testing.T) {
	store := newFakeStore()
	set := newTestSet(t, store, Options{HubGuildID: "hub", PatreonRoleID: "patron"})
	client := resttest.New()
	ctx := context.Background()

	ev := dispatch.Event{Kind: dispatch.KindGuildMemberUpdate, Client: client}

	ev.Data = memberUpdate("u1", []string{}, []string{"other"})
	require.NoError(t, set.PatreonKeys(ctx, ev))

	ev.Data = memberUpdate("u1", []string{"other"}, []string{"other", "patron"})
	require.NoError(t, set.PatreonKeys(ctx, ev))

	// role already held before, or key already sent
	ev.Data = memberUpdate("u1", []string{"patron"}, []string{"patron"})
	require.NoError(t, set.PatreonKeys(ctx, ev))
	ev.Data = memberUpdate("u1", nil, []string{"patron"})
	require.NoError(t, set.PatreonKeys(ctx, ev))

	_, _, dms, _, _ := snapshot(client)
	require.Len(t, dms, 1)
	key := store.keys["u1"]
	assert.Len(t, key, 36)
	assert.Contains(t, dms[0].Content, key)
}

func TestPatreonKeysKeepsKeyWhenDMFails(t *testing.T) {
	store := newFakeStore()
	set := newTestSet(t, store, Options{HubGuildID: "hub", PatreonRoleID: "patron"})
	client := resttest.New()
	client.DMErr = resttest.ErrForbidden

	ev := dispatch.Event{Kind: dispatch.KindGuildMemberUpdate, Client: client, Data: memberUpdate("u1", nil, []string{"patron"})}
	require.NoError(t, set.PatreonKeys(context.Background(), ev))

	assert.NotEmpty(t, store.keys["u1"])
}

func TestModLog(t *testing.T) {
	cached := &shard.CachedMessage{ID: "m1", GuildID: "g", ChannelID: "general", AuthorID: "u1", Author: "alice", Content: "before"}

	tests := []struct {
		name string
		ev   dispatch.Event
		want string
	}{
		{
			name: "delete",
			ev:   dispatch.Event{Kind: dispatch.KindMessageDelete, Data: &discordgo.MessageDelete{Message: &discordgo.Message{ID: "m1"}}, Cached: cached},
			want: "deleted in <#general>",
		},
		{
			name: "delete uncached",
			ev:   dispatch.Event{Kind: dispatch.KindMessageDelete, Data: &discordgo.MessageDelete{Message: &discordgo.Message{ID: "m1"}}},
		},
		{
			name: "edit",
			ev:   dispatch.Event{Kind: dispatch.KindMessageUpdate, Data: &discordgo.MessageUpdate{Message: &discordgo.Message{ID: "m1", Content: "after"}}, Cached: cached},
			want: "**After:** after",
		},
		{
			name: "edit without content change",
			ev:   dispatch.Event{Kind: dispatch.KindMessageUpdate, Data: &discordgo.MessageUpdate{Message: &discordgo.Message{ID: "m1", Content: "before"}}, Cached: cached},
		},
		{
			name: "ban",
			ev:   dispatch.Event{Kind: dispatch.KindGuildBanAdd, Data: &discordgo.GuildBanAdd{GuildID: "g", User: &discordgo.User{ID: "u2", Username: "bob"}}},
			want: "**bob** (<@u2>) was banned.",
		},
		{
			name: "unban",
			ev:   dispatch.Event{Kind: dispatch.KindGuildBanRemove, Data: &discordgo.GuildBanRemove{GuildID: "g", User: &discordgo.User{ID: "u2", Username: "bob"}}},
			want: "was unbanned.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.configs["g"] = database.GuildConfig{ID: "g", ModLogChannel: "modlog"}
			set := newTestSet(t, store, Options{})
			client := resttest.New()
			tt.ev.Client = client

			require.NoError(t, set.ModLog(context.Background(), tt.ev))

			_, msgs, _, _, _ := snapshot(client)
			if tt.want == "" {
				assert.Empty(t, msgs)
				return
			}
			require.Len(t, msgs, 1)
			assert.Equal(t, "modlog", msgs[0].ChannelID)
			assert.Contains(t, msgs[0].Content, tt.want)
		})
	}
}
