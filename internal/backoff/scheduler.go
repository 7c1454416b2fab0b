package backoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	QueueRoleGrants  = "role-grants"
	QueueRoleRevokes = "role-revokes"
	QueueMessages    = "messages"
)

var ErrClosed = errors.New("backoff scheduler is closed")

// Action is one queued outbound call. It only closes over ids so it can run
// long after the event that produced it.
type Action struct {
	Name   string
	Target string
	Run    func(ctx context.Context) error
}

type queue struct {
	name     string
	items    []Action
	draining bool
	last     time.Time
}

// Scheduler keeps one FIFO per queue name. Each non-empty queue is drained
// by its own goroutine that waits at least interval between two actions.
type Scheduler struct {
	interval time.Duration

	mu     sync.Mutex
	queues map[string]*queue
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *slog.Logger
}

func NewScheduler(interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		interval: interval,
		queues:   make(map[string]*queue),
		ctx:      ctx,
		cancel:   cancel,
		logger:   slog.Default().WithGroup("backoff"),
	}
}

func (s *Scheduler) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	s.logger = logger
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) Enqueue(queueName string, a Action) error {
	if a.Run == nil {
		return fmt.Errorf("action %q has nothing to run", a.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	q, ok := s.queues[queueName]
	if !ok {
		q = &queue{name: queueName}
		s.queues[queueName] = q
	}
	q.items = append(q.items, a)

	if !q.draining {
		q.draining = true
		s.wg.Add(1)
		go s.drain(q)
	}

	return nil
}

func (s *Scheduler) Pending(queueName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.queues[queueName]; ok {
		return len(q.items)
	}
	return 0
}

func (s *Scheduler) drain(q *queue) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if len(q.items) == 0 {
			q.draining = false
			s.mu.Unlock()
			return
		}
		a := q.items[0]
		q.items[0] = Action{}
		q.items = q.items[1:]
		wait := time.Until(q.last.Add(s.interval))
		s.mu.Unlock()

		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-s.ctx.Done():
				t.Stop()
				s.dropRemaining(q)
				return
			case <-t.C:
			}
		}

		s.run(q.name, a)

		s.mu.Lock()
		q.last = time.Now()
		s.mu.Unlock()
	}
}

func (s *Scheduler) run(queueName string, a Action) {
	log := s.logger.With("queue", queueName, "action", a.Name, "target", a.Target)

	defer func() {
		if r := recover(); r != nil {
			log.Error("backoff action panicked", "panic", r)
		}
	}()

	if err := a.Run(s.ctx); err != nil {
		log.Error("backoff action failed", "err", err)
		return
	}

	log.Debug("backoff action done")
}

func (s *Scheduler) dropRemaining(q *queue) {
	s.mu.Lock()
	dropped := len(q.items)
	q.items = nil
	q.draining = false
	s.mu.Unlock()

	if dropped > 0 {
		s.logger.Warn("dropping queued actions on shutdown", "queue", q.name, "count", dropped)
	}
}

// Close stops accepting actions. Queued actions that have not started are
// lost; the next periodic scan re-derives them.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
