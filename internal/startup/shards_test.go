package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecommender struct {
	res   *discordgo.GatewayBotResponse
	err   error
	calls int
}

func (f *fakeRecommender) GatewayBot(...discordgo.RequestOption) (*discordgo.GatewayBotResponse, error) {
	f.calls++
	return f.res, f.err
}

func intPtr(v int) *int { return &v }

func TestDetermineShardCount(t *testing.T) {
	recommended := &discordgo.GatewayBotResponse{Shards: 7}

	tests := []struct {
		name       string
		configured int
		override   *int
		gw         *fakeRecommender
		want       int
		wantErr    bool
		wantCalls  int
	}{
		{"override wins", 4, intPtr(2), &fakeRecommender{res: recommended}, 2, false, 0},
		{"configured", 4, nil, &fakeRecommender{res: recommended}, 4, false, 0},
		{"recommended", 0, nil, &fakeRecommender{res: recommended}, 7, false, 1},
		{"gateway failure", 0, nil, &fakeRecommender{err: errors.New("503")}, 0, true, 1},
		{"zero recommended", 0, nil, &fakeRecommender{res: &discordgo.GatewayBotResponse{}}, 0, true, 1},
		{"bad override", 4, intPtr(0), &fakeRecommender{res: recommended}, 0, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetermineShardCount(context.Background(), tt.configured, tt.override, tt.gw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.wantCalls, tt.gw.calls)
		})
	}
}

func TestIdentifyConcurrency(t *testing.T) {
	gw := &fakeRecommender{res: &discordgo.GatewayBotResponse{
		SessionStartLimit: discordgo.SessionInformation{MaxConcurrency: 16},
	}}
	assert.Equal(t, 16, IdentifyConcurrency(context.Background(), gw))

	assert.Equal(t, 1, IdentifyConcurrency(context.Background(), &fakeRecommender{err: errors.New("down")}))
	assert.Equal(t, 1, IdentifyConcurrency(context.Background(), &fakeRecommender{res: &discordgo.GatewayBotResponse{}}))
	assert.Equal(t, 1, IdentifyConcurrency(context.Background(), nil))
}

func TestDetermineOwnedShardRange(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		from    *int
		to      *int
		want    []int
		wantErr error
	}{
		{"all shards", 3, nil, nil, []int{0, 1, 2}, nil},
		{"subset", 10, intPtr(4), intPtr(7), []int{4, 5, 6}, nil},
		{"subset clipped", 5, intPtr(3), intPtr(9), []int{3, 4}, nil},
		{"only from", 5, intPtr(1), nil, nil, ErrIncompleteSubset},
		{"only to", 5, nil, intPtr(1), nil, ErrIncompleteSubset},
		{"negative", 5, intPtr(-1), intPtr(2), nil, ErrInvalidSubset},
		{"empty", 5, intPtr(2), intPtr(2), nil, ErrInvalidSubset},
		{"reversed", 5, intPtr(3), intPtr(1), nil, ErrInvalidSubset},
		{"beyond total", 5, intPtr(5), intPtr(8), nil, ErrInvalidSubset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetermineOwnedShardRange(tt.total, tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitGeneric, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitShardSubset, ExitCode(Exit(ExitShardSubset, ErrIncompleteSubset)))

	wrapped := errors.Join(errors.New("context"), Exit(ExitStorage, errors.New("locked")))
	assert.Equal(t, ExitStorage, ExitCode(wrapped))
	assert.NoError(t, Exit(ExitConfig, nil))
	assert.ErrorIs(t, Exit(ExitShardSubset, ErrIncompleteSubset), ErrIncompleteSubset)
}

func TestOnceRecommenderAsksOnce(t *testing.T) {
	gw := &fakeRecommender{res: &discordgo.GatewayBotResponse{
		Shards:            4,
		SessionStartLimit: discordgo.SessionInformation{MaxConcurrency: 2},
	}}
	once := NewOnceRecommender(gw)
	ctx := context.Background()

	total, err := DetermineShardCount(ctx, 0, nil, once)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, 2, IdentifyConcurrency(ctx, once))
	assert.Equal(t, 1, gw.calls)
}

func TestOnceRecommenderReplaysFailure(t *testing.T) {
	gw := &fakeRecommender{err: errors.New("down")}
	once := NewOnceRecommender(gw)
	ctx := context.Background()

	_, err := DetermineShardCount(ctx, 0, nil, once)
	require.Error(t, err)
	assert.Equal(t, 1, IdentifyConcurrency(ctx, once))
	assert.Equal(t, 1, gw.calls)
}
