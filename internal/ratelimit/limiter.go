package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Limiter is a sliding window rate limiter keyed by an arbitrary string,
// usually "guildID:userID". Each key has its own lock; there is no lock held
// across keys on the hot path.
type Limiter struct {
	mu      sync.RWMutex
	windows map[string]*window

	limit  int
	period time.Duration
	now    func() time.Time
}

type window struct {
	mu   sync.Mutex
	hits []time.Time
	// dead is set once the window left the map; holders must fetch again.
	dead bool
}

func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

func (l *Limiter) window(key string) *window {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.windows[key]; ok {
		return w
	}
	w = &window{}
	l.windows[key] = w

	return w
}

// Allow reports whether key is within the limit and, if so, records the hit.
// Denied calls are not counted.
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, l.limit, l.period)
}

// AllowN is Allow with a per-call limit, used for guild overrides.
func (l *Limiter) AllowN(key string, limit int, period time.Duration) bool {
	for {
		w := l.window(key)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		allowed := w.allow(l.now(), limit, period)
		w.mu.Unlock()

		return allowed
	}
}

func (w *window) allow(now time.Time, limit int, period time.Duration) bool {
	cutoff := now.Add(-period)
	kept := w.hits[:0]
	for _, h := range w.hits {
		if h.After(cutoff) {
			kept = append(kept, h)
		}
	}
	w.hits = kept

	if len(w.hits) >= limit {
		return false
	}
	w.hits = append(w.hits, now)
	return true
}

// Count returns the hits for key inside the current window.
func (l *Limiter) Count(key string) int {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if !ok {
		return 0
	}

	cutoff := l.now().Add(-l.period)
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, h := range w.hits {
		if h.After(cutoff) {
			n++
		}
	}
	return n
}

func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.windows[key]; ok {
		w.mu.Lock()
		w.dead = true
		w.mu.Unlock()
		delete(l.windows, key)
	}
}

// Sweep drops keys without hits in the last period.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.period)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, w := range l.windows {
		w.mu.Lock()
		stale := len(w.hits) == 0 || !w.hits[len(w.hits)-1].After(cutoff)
		if stale {
			w.dead = true
		}
		w.mu.Unlock()
		if stale {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}
