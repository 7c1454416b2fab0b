package shard

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// CachedMessage is the part of a message kept around to rebuild edit and
// delete diffs for the mod log.
type CachedMessage struct {
	ID        string
	GuildID   string
	ChannelID string
	AuthorID  string
	Author    string
	Content   string
	At        time.Time
}

// MessageCache is a bounded id -> message map evicting the least recently
// used entry.
type MessageCache struct {
	mu    sync.Mutex
	items *simplelru.LRU[string, CachedMessage]
}

func NewMessageCache(capacity int) *MessageCache {
	// NewLRU only fails for a non-positive size.
	items, _ := simplelru.NewLRU[string, CachedMessage](max(capacity, 1), nil)
	return &MessageCache{items: items}
}

func (c *MessageCache) Put(msg CachedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Add(msg.ID, msg)
}

func (c *MessageCache) Get(id string) (CachedMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.items.Get(id)
}

// Remove drops id and returns what was cached for it.
func (c *MessageCache) Remove(id string) (CachedMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, ok := c.items.Peek(id)
	if ok {
		c.items.Remove(id)
	}
	return msg, ok
}

func (c *MessageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.items.Len()
}
