package operations

import (
	"context"
	"sync"
	"time"

	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/bwmarrin/discordgo"
)

type Result int

const (
	// Ignored leaves the operation waiting for further input.
	Ignored Result = iota
	// Completed removes the operation.
	Completed
	// Reset keeps the operation and restarts its timeout.
	Reset
)

// Input is a reaction or a component click on a message with a pending
// operation.
type Input struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string

	Emoji       string
	CustomID    string
	Interaction *discordgo.Interaction

	Client rest.Client
}

type Operation struct {
	// Owner restricts input to one user. Empty accepts anyone.
	Owner    string
	Handle   func(ctx context.Context, in Input) Result
	OnExpire func()
}

type entry struct {
	op      Operation
	ttl     time.Duration
	expires time.Time
}

// Registry holds interactive menus keyed by the message they are attached to.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (r *Registry) Register(messageID string, op Operation, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[messageID] = &entry{op: op, ttl: ttl, expires: r.now().Add(ttl)}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

func (r *Registry) take(messageID string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[messageID]
	if !ok {
		return nil, false
	}
	if r.now().After(e.expires) {
		delete(r.entries, messageID)
		if e.op.OnExpire != nil {
			go e.op.OnExpire()
		}
		return nil, false
	}
	return e, true
}

// Feed routes in to the operation attached to its message. It reports
// whether an operation consumed the input.
func (r *Registry) Feed(ctx context.Context, in Input) bool {
	e, ok := r.take(in.MessageID)
	if !ok {
		return false
	}
	if e.op.Owner != "" && e.op.Owner != in.UserID {
		return false
	}

	switch e.op.Handle(ctx, in) {
	case Completed:
		r.mu.Lock()
		if r.entries[in.MessageID] == e {
			delete(r.entries, in.MessageID)
		}
		r.mu.Unlock()
	case Reset:
		r.mu.Lock()
		e.expires = r.now().Add(e.ttl)
		r.mu.Unlock()
	case Ignored:
		return false
	}

	return true
}

// Sweep removes expired operations and reports how many were dropped.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*entry
	for id, e := range r.entries {
		if now.After(e.expires) {
			delete(r.entries, id)
			expired = append(expired, e)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		if e.op.OnExpire != nil {
			e.op.OnExpire()
		}
	}
	return len(expired)
}

// HandleReaction is the dispatcher handler for MESSAGE_REACTION_ADD.
func (r *Registry) HandleReaction(ctx context.Context, ev dispatch.Event) error {
	react, ok := ev.Data.(*discordgo.MessageReactionAdd)
	if !ok || react.MessageReaction == nil {
		return nil
	}
	if ev.Client != nil && react.UserID == ev.Client.BotUserID() {
		return nil
	}

	r.Feed(ctx, Input{
		GuildID:   react.GuildID,
		ChannelID: react.ChannelID,
		MessageID: react.MessageID,
		UserID:    react.UserID,
		Emoji:     react.Emoji.APIName(),
		Client:    ev.Client,
	})
	return nil
}

// HandleComponent is the dispatcher handler for component interactions.
func (r *Registry) HandleComponent(ctx context.Context, ev dispatch.Event) error {
	intr, ok := ev.Data.(*discordgo.InteractionCreate)
	if !ok || intr.Interaction == nil || intr.Type != discordgo.InteractionMessageComponent || intr.Message == nil {
		return nil
	}

	in := Input{
		GuildID:     intr.GuildID,
		ChannelID:   intr.ChannelID,
		MessageID:   intr.Message.ID,
		CustomID:    intr.MessageComponentData().CustomID,
		Interaction: intr.Interaction,
		Client:      ev.Client,
	}
	if intr.Member != nil && intr.Member.User != nil {
		in.UserID = intr.Member.User.ID
	} else if intr.User != nil {
		in.UserID = intr.User.ID
	}

	r.Feed(ctx, in)
	return nil
}
