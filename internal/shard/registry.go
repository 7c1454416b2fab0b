package shard

import (
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

// Registry maps shard ids to their State. Shards are added lazily and
// never removed for the lifetime of the process.
type Registry struct {
	mu        sync.RWMutex
	shards    map[int]*State
	cacheSize int
}

func NewRegistry(messageCacheSize int) *Registry {
	return &Registry{
		shards:    make(map[int]*State),
		cacheSize: messageCacheSize,
	}
}

func (r *Registry) Get(id int) *State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.shards[id]
}

// GetOrCreate returns the state for id, creating it on first access.
func (r *Registry) GetOrCreate(id int) *State {
	if s := r.Get(id); s != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.shards[id]; ok {
		return s
	}
	s := newState(id, r.cacheSize)
	r.shards[id] = s

	return s
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.shards)
}

// IDs returns the registered shard ids in ascending order.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	ids := maps.Keys(r.shards)
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

func (r *Registry) All() []*State {
	ids := r.IDs()
	res := make([]*State, 0, len(ids))
	for _, id := range ids {
		if s := r.Get(id); s != nil {
			res = append(res, s)
		}
	}
	return res
}
