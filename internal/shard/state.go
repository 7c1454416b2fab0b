package shard

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// State is the mutable per-shard data owned by the Registry.
type State struct {
	ID       int
	Messages *MessageCache

	lastEvent atomic.Int64

	mu       sync.Mutex
	listener io.Closer
}

func newState(id int, cacheSize int) *State {
	return &State{
		ID:       id,
		Messages: NewMessageCache(cacheSize),
	}
}

func (s *State) Touch(at time.Time) {
	s.lastEvent.Store(at.UnixNano())
}

// LastEvent returns the zero time until the shard received its first event.
func (s *State) LastEvent() time.Time {
	n := s.lastEvent.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Attach binds the shard's event listener, closing any previous one.
func (s *State) Attach(l io.Closer) {
	s.mu.Lock()
	prev := s.listener
	s.listener = l
	s.mu.Unlock()

	if prev != nil && prev != l {
		_ = prev.Close()
	}
}

func (s *State) Listener() io.Closer {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listener
}
