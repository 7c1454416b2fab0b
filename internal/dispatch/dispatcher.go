package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/LeBulldoge/kagura/internal/shard"
	"github.com/bwmarrin/discordgo"
)

type HandlerFunc func(ctx context.Context, ev Event) error

type handler struct {
	name string
	fn   HandlerFunc
}

// Dispatcher is the single entry point for inbound events. It does the cheap
// triage on the caller's goroutine and hands handler work to the pool.
type Dispatcher struct {
	status   shard.StatusReader
	registry *shard.Registry
	pool     *Pool

	mu       sync.RWMutex
	handlers map[Kind][]handler

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
	logger *slog.Logger
}

func NewDispatcher(status shard.StatusReader, registry *shard.Registry, pool *Pool) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		status:   status,
		registry: registry,
		pool:     pool,
		handlers: make(map[Kind][]handler),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
		logger:   slog.Default().WithGroup("dispatch"),
	}
}

func (d *Dispatcher) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	d.logger = logger
}

// Handle registers fn for every event of kind. Handlers of one kind run
// independently of each other.
func (d *Dispatcher) Handle(kind Kind, name string, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[kind] = append(d.handlers[kind], handler{name: name, fn: fn})
}

func (d *Dispatcher) handlersFor(kind Kind) []handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.handlers[kind]
}

func (d *Dispatcher) Dispatch(ev Event) {
	if ev.At.IsZero() {
		ev.At = d.now()
	}

	if ev.Kind == KindHeartbeat {
		d.registry.GetOrCreate(ev.Shard).Touch(ev.At)
		return
	}

	if d.status.Current() != shard.PostLoad {
		return
	}

	st := d.registry.GetOrCreate(ev.Shard)
	st.Touch(ev.At)
	trackMessage(st, &ev)

	for _, h := range d.handlersFor(ev.Kind) {
		if !d.pool.Submit(func() { d.run(h, ev) }) {
			return
		}
	}
}

func (d *Dispatcher) run(h handler, ev Event) {
	log := d.logger.With(
		slog.Group(
			"event",
			slog.Int("shard", ev.Shard),
			slog.String("kind", string(ev.Kind)),
			slog.String("handler", h.name),
		),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("event handler panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	if err := h.fn(d.ctx, ev); err != nil {
		log.Error("event handler failed", "err", err)
	}
}

// Close cancels in-flight handler contexts and drains the pool.
func (d *Dispatcher) Close() {
	d.cancel()
	d.pool.Close()
}

func trackMessage(st *shard.State, ev *Event) {
	switch e := ev.Data.(type) {
	case *discordgo.MessageCreate:
		if e.Message != nil {
			st.Messages.Put(cachedMessage(e.Message, ev.At))
		}
	case *discordgo.MessageUpdate:
		if e.Message == nil {
			return
		}
		if prev, ok := st.Messages.Get(e.ID); ok {
			ev.Cached = &prev
			if e.Content == "" && e.Author == nil {
				return
			}
			next := cachedMessage(e.Message, ev.At)
			if next.AuthorID == "" {
				next.AuthorID, next.Author = prev.AuthorID, prev.Author
			}
			st.Messages.Put(next)
		} else if e.Author != nil {
			st.Messages.Put(cachedMessage(e.Message, ev.At))
		}
	case *discordgo.MessageDelete:
		if e.Message == nil {
			return
		}
		if prev, ok := st.Messages.Remove(e.ID); ok {
			ev.Cached = &prev
		}
	}
}

func cachedMessage(m *discordgo.Message, at time.Time) shard.CachedMessage {
	msg := shard.CachedMessage{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		At:        at,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.Author = m.Author.Username
	}
	return msg
}
