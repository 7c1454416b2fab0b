package operations

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func newTestRegistry() (*Registry, *time.Time) {
	now := time.Unix(1700000000, 0)
	r := NewRegistry()
	r.now = func() time.Time { return now }
	return r, &now
}

func TestFeedCompletes(t *testing.T) {
	r, _ := newTestRegistry()

	var calls atomic.Int32
	r.Register("m1", Operation{Handle: func(context.Context, Input) Result {
		calls.Add(1)
		return Completed
	}}, time.Minute)

	assert.True(t, r.Feed(context.Background(), Input{MessageID: "m1", UserID: "u"}))
	assert.False(t, r.Feed(context.Background(), Input{MessageID: "m1", UserID: "u"}))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, r.Len())
}

func TestFeedOwnerOnly(t *testing.T) {
	r, _ := newTestRegistry()
	r.Register("m1", Operation{Owner: "owner", Handle: func(context.Context, Input) Result { return Completed }}, time.Minute)

	assert.False(t, r.Feed(context.Background(), Input{MessageID: "m1", UserID: "someone"}))
	assert.True(t, r.Feed(context.Background(), Input{MessageID: "m1", UserID: "owner"}))
}

func TestFeedResetExtendsTimeout(t *testing.T) {
	r, now := newTestRegistry()
	r.Register("m1", Operation{Handle: func(context.Context, Input) Result { return Reset }}, time.Minute)

	*now = now.Add(50 * time.Second)
	assert.True(t, r.Feed(context.Background(), Input{MessageID: "m1"}))

	*now = now.Add(50 * time.Second)
	assert.True(t, r.Feed(context.Background(), Input{MessageID: "m1"}), "reset should have restarted the timeout")
}

func TestExpiredOperations(t *testing.T) {
	r, now := newTestRegistry()

	var expired atomic.Int32
	op := Operation{
		Handle:   func(context.Context, Input) Result { return Completed },
		OnExpire: func() { expired.Add(1) },
	}
	r.Register("m1", op, time.Minute)
	r.Register("m2", op, time.Hour)

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, int32(1), expired.Load())
	assert.False(t, r.Feed(context.Background(), Input{MessageID: "m1"}))
	assert.True(t, r.Feed(context.Background(), Input{MessageID: "m2"}))
}

func TestHandleReaction(t *testing.T) {
	r, _ := newTestRegistry()

	got := make(chan Input, 1)
	r.Register("m1", Operation{Handle: func(_ context.Context, in Input) Result {
		got <- in
		return Completed
	}}, time.Minute)

	err := r.HandleReaction(context.Background(), dispatch.Event{
		Kind: dispatch.KindReactionAdd,
		Data: &discordgo.MessageReactionAdd{MessageReaction: &discordgo.MessageReaction{
			MessageID: "m1",
			UserID:    "u1",
			Emoji:     discordgo.Emoji{Name: "✅"},
		}},
	})
	assert.NoError(t, err)

	in := <-got
	assert.Equal(t, "u1", in.UserID)
	assert.Equal(t, "✅", in.Emoji)
}
