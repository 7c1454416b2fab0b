package shard

import "sync"

// Barrier counts down once per owned shard id. It is single use: after the
// count reaches zero further Done calls are ignored.
type Barrier struct {
	mu      sync.Mutex
	pending map[int]struct{}
	done    chan struct{}
	closed  bool
}

func NewBarrier(shardIDs []int) *Barrier {
	b := &Barrier{
		pending: make(map[int]struct{}, len(shardIDs)),
		done:    make(chan struct{}),
	}
	for _, id := range shardIDs {
		b.pending[id] = struct{}{}
	}
	if len(b.pending) == 0 {
		b.closed = true
		close(b.done)
	}

	return b
}

// Done marks shardID as ready. It returns true only for the call that
// brought the count to zero.
func (b *Barrier) Done(shardID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if _, ok := b.pending[shardID]; !ok {
		return false
	}
	delete(b.pending, shardID)

	if len(b.pending) == 0 {
		b.closed = true
		close(b.done)
		return true
	}

	return false
}

func (b *Barrier) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.pending)
}

// Wait returns a channel closed once every shard reported ready.
func (b *Barrier) Wait() <-chan struct{} {
	return b.done
}
