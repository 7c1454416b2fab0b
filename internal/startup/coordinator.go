package startup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LeBulldoge/kagura/internal/shard"
)

var ErrAlreadyStarted = errors.New("startup already ran")

// Connection is one shard's gateway connection.
type Connection interface {
	Open() error
	Close() error
}

// Connector builds the connection of shard id. ready must be called on the
// shard's ready signal.
type Connector func(id int, ready func()) (Connection, error)

type Hook struct {
	Name string
	Run  func(ctx context.Context) error
}

type Options struct {
	// MaxConcurrency is how many shards identify together.
	MaxConcurrency int
	// IdentifyDelay separates two identify buckets.
	IdentifyDelay time.Duration
}

// Coordinator opens the owned shards and moves the load state forward once
// all of them are ready. It is the only writer of the load state.
type Coordinator struct {
	status  *shard.Status
	connect Connector
	opts    Options

	mu      sync.Mutex
	conns   map[int]Connection
	barrier *shard.Barrier
	hooks   []Hook

	postload chan struct{}

	logger *slog.Logger
}

func NewCoordinator(status *shard.Status, connect Connector, opts Options) *Coordinator {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if opts.IdentifyDelay < 0 {
		opts.IdentifyDelay = 0
	}

	return &Coordinator{
		status:   status,
		connect:  connect,
		opts:     opts,
		conns:    make(map[int]Connection),
		postload: make(chan struct{}),
		logger:   slog.Default().WithGroup("startup"),
	}
}

func (c *Coordinator) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	c.logger = logger
}

// OnPostLoad adds a hook run once after every owned shard is ready. Hooks
// run in registration order; a failing hook is logged and does not stop
// the others.
func (c *Coordinator) OnPostLoad(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hooks = append(c.hooks, Hook{Name: name, Run: fn})
}

// Start builds a connection per owned shard and returns. Connections are
// opened by a single identify goroutine and the barrier is awaited on
// another one. A shard that never becomes ready stalls the load state.
func (c *Coordinator) Start(ctx context.Context, owned []int) error {
	if !c.status.Advance(shard.LoadingShards) {
		return ErrAlreadyStarted
	}

	conns := make([]Connection, 0, len(owned))
	for _, id := range owned {
		conn, err := c.connect(id, func() { c.ShardReady(id) })
		if err != nil {
			return fmt.Errorf("failed creating connection for shard %d: %w", id, err)
		}
		conns = append(conns, conn)
	}

	c.mu.Lock()
	c.barrier = shard.NewBarrier(owned)
	for i, id := range owned {
		c.conns[id] = conns[i]
	}
	barrier := c.barrier
	c.mu.Unlock()

	c.logger.Info("starting shards", "count", len(owned), "concurrency", c.opts.MaxConcurrency)

	go c.identify(ctx, owned, conns)
	go c.await(ctx, barrier)

	return nil
}

func (c *Coordinator) identify(ctx context.Context, owned []int, conns []Connection) {
	for start := 0; start < len(owned); start += c.opts.MaxConcurrency {
		if start > 0 && c.opts.IdentifyDelay > 0 {
			t := time.NewTimer(c.opts.IdentifyDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				c.logger.Warn("identify cancelled", "opened", start, "total", len(owned))
				return
			case <-t.C:
			}
		}

		end := min(start+c.opts.MaxConcurrency, len(owned))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(id int, conn Connection) {
				defer wg.Done()

				if err := conn.Open(); err != nil {
					c.logger.Error("failed opening shard, startup will not complete", "shard", id, "err", err)
					return
				}
				c.logger.Info("shard connected", "shard", id)
			}(owned[i], conns[i])
		}
		wg.Wait()
	}
}

// ShardReady counts a shard's ready signal. Signals after every shard was
// ready, from reconnects, are ignored.
func (c *Coordinator) ShardReady(id int) {
	c.mu.Lock()
	barrier := c.barrier
	c.mu.Unlock()

	if barrier == nil {
		c.logger.Warn("ready signal before start", "shard", id)
		return
	}

	if barrier.Done(id) {
		c.logger.Info("last shard ready", "shard", id)
	}
}

func (c *Coordinator) await(ctx context.Context, barrier *shard.Barrier) {
	select {
	case <-ctx.Done():
		return
	case <-barrier.Wait():
	}

	if !c.status.Advance(shard.Loaded) {
		return
	}
	c.logger.Info("all shards ready")

	go c.runPostLoad(ctx)
}

func (c *Coordinator) runPostLoad(ctx context.Context) {
	defer close(c.postload)

	if !c.status.Advance(shard.PostLoad) {
		return
	}

	c.mu.Lock()
	hooks := append([]Hook(nil), c.hooks...)
	c.mu.Unlock()

	for _, h := range hooks {
		if err := h.Run(ctx); err != nil {
			c.logger.Error("postload hook failed", "hook", h.Name, "err", err)
			continue
		}
		c.logger.Debug("postload hook done", "hook", h.Name)
	}
}

// PostLoadDone is closed once every postload hook returned.
func (c *Coordinator) PostLoadDone() <-chan struct{} {
	return c.postload
}

// Shutdown closes every connection created by Start.
func (c *Coordinator) Shutdown() error {
	c.mu.Lock()
	conns := c.conns
	c.conns = make(map[int]Connection)
	c.mu.Unlock()

	var errs []error
	for id, conn := range conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("shard %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
