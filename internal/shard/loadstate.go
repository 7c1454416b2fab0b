package shard

import "sync/atomic"

type LoadState int32

const (
	PreLoad LoadState = iota
	Loading
	LoadingShards
	Loaded
	PostLoad
)

func (s LoadState) String() string {
	switch s {
	case PreLoad:
		return "PRELOAD"
	case Loading:
		return "LOADING"
	case LoadingShards:
		return "LOADING_SHARDS"
	case Loaded:
		return "LOADED"
	case PostLoad:
		return "POSTLOAD"
	}
	return "UNKNOWN"
}

// StatusReader is the read-only view of the process load state.
type StatusReader interface {
	Current() LoadState
	AtLeast(LoadState) bool
}

// Status holds the process-wide load state. Only the startup coordinator
// advances it; everything else receives it as a StatusReader.
type Status struct {
	v atomic.Int32
}

func NewStatus() *Status {
	return &Status{}
}

func (s *Status) Current() LoadState {
	return LoadState(s.v.Load())
}

func (s *Status) AtLeast(state LoadState) bool {
	return s.Current() >= state
}

// Advance moves the state forward to `to`. It reports false and leaves the
// state untouched when `to` is not ahead of the current state.
func (s *Status) Advance(to LoadState) bool {
	for {
		cur := s.v.Load()
		if int32(to) <= cur {
			return false
		}
		if s.v.CompareAndSwap(cur, int32(to)) {
			return true
		}
	}
}
