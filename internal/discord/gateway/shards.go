package gateway

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/exp/maps"
)

// Shards is the explicit fan-out over every session this process owns.
// Operations spanning shards are named methods here instead of a merged
// view pretending to be one connection.
type Shards struct {
	total int

	mu       sync.RWMutex
	sessions map[int]*discordgo.Session
	clients  map[int]rest.Client
}

func NewShards(total int) *Shards {
	return &Shards{
		total:    total,
		sessions: make(map[int]*discordgo.Session),
		clients:  make(map[int]rest.Client),
	}
}

func (s *Shards) Total() int {
	return s.total
}

func (s *Shards) Add(id int, session *discordgo.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = session
	s.clients[id] = rest.NewSessionClient(session)
}

// IDs returns the owned shard ids in ascending order.
func (s *Shards) IDs() []int {
	s.mu.RLock()
	ids := maps.Keys(s.sessions)
	s.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

func (s *Shards) Session(id int) *discordgo.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Shards) Client(id int) rest.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients[id]
}

// ClientFor returns the client of the shard owning guildID, or nil when
// that shard is not owned by this process.
func (s *Shards) ClientFor(guildID string) rest.Client {
	id, err := ShardForGuild(guildID, s.total)
	if err != nil {
		return nil
	}
	return s.Client(id)
}

// Each calls fn for every owned shard in id order and joins the errors.
func (s *Shards) Each(fn func(id int, session *discordgo.Session) error) error {
	var errs []error
	for _, id := range s.IDs() {
		session := s.Session(id)
		if session == nil {
			continue
		}
		if err := fn(id, session); err != nil {
			errs = append(errs, fmt.Errorf("shard %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Latencies returns the last heartbeat round trip of every owned shard.
func (s *Shards) Latencies() map[int]time.Duration {
	res := make(map[int]time.Duration)
	_ = s.Each(func(id int, session *discordgo.Session) error {
		res[id] = session.HeartbeatLatency()
		return nil
	})
	return res
}

// AverageLatency averages the heartbeat latency of shards that got an ack.
func (s *Shards) AverageLatency() time.Duration {
	var sum time.Duration
	var n int
	for _, l := range s.Latencies() {
		if l <= 0 {
			continue
		}
		sum += l
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}

// UpdateStatus sets the same presence on every shard.
func (s *Shards) UpdateStatus(text string) error {
	return s.Each(func(_ int, session *discordgo.Session) error {
		return session.UpdateGameStatus(0, text)
	})
}

// ShardForGuild applies Discord's sharding formula.
func ShardForGuild(guildID string, total int) (int, error) {
	if total < 1 {
		return 0, fmt.Errorf("invalid shard count %d", total)
	}

	id, err := strconv.ParseUint(guildID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid guild id %q: %w", guildID, err)
	}

	return int((id >> 22) % uint64(total)), nil
}
