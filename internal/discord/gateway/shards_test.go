package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardForGuild(t *testing.T) {
	tests := []struct {
		guild   string
		total   int
		want    int
		wantErr bool
	}{
		{"41771983423143937", 16, 6, false},
		{"41771983423143937", 1, 0, false},
		{"175928847299117063", 3, 2, false},
		{"not-a-snowflake", 2, 0, true},
		{"41771983423143937", 0, 0, true},
	}

	for _, tt := range tests {
		got, err := ShardForGuild(tt.guild, tt.total)
		if tt.wantErr {
			assert.Error(t, err, tt.guild)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ShardForGuild(%s, %d)", tt.guild, tt.total)
	}
}

func sessionWithLatency(d time.Duration) *discordgo.Session {
	sent := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &discordgo.Session{LastHeartbeatSent: sent, LastHeartbeatAck: sent.Add(d)}
}

func TestShardsFanOut(t *testing.T) {
	shards := NewShards(4)
	shards.Add(3, sessionWithLatency(30*time.Millisecond))
	shards.Add(1, sessionWithLatency(10*time.Millisecond))
	shards.Add(2, &discordgo.Session{})

	assert.Equal(t, []int{1, 2, 3}, shards.IDs())
	assert.Equal(t, 4, shards.Total())

	latencies := shards.Latencies()
	assert.Equal(t, 10*time.Millisecond, latencies[1])
	assert.Equal(t, time.Duration(0), latencies[2])
	assert.Equal(t, 30*time.Millisecond, latencies[3])

	// shards without an ack yet are left out of the average
	assert.Equal(t, 20*time.Millisecond, shards.AverageLatency())

	var order []int
	err := shards.Each(func(id int, _ *discordgo.Session) error {
		order = append(order, id)
		if id == 2 {
			return errors.New("boom")
		}
		return nil
	})
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.ErrorContains(t, err, "shard 2: boom")
}

func TestShardsAverageLatencyWithoutAcks(t *testing.T) {
	shards := NewShards(1)
	assert.Zero(t, shards.AverageLatency())

	shards.Add(0, &discordgo.Session{})
	assert.Zero(t, shards.AverageLatency())
}

func TestShardsClientFor(t *testing.T) {
	shards := NewShards(16)
	shards.Add(6, &discordgo.Session{})

	assert.NotNil(t, shards.ClientFor("41771983423143937"))
	assert.Nil(t, shards.ClientFor("175928847299117063"))
	assert.Nil(t, shards.ClientFor("garbage"))
	assert.Nil(t, shards.Client(0))
}
