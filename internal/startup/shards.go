package startup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrIncompleteSubset = errors.New("shard subset needs both a lower and an upper bound")
	ErrInvalidSubset    = errors.New("shard subset is empty or out of range")
)

// Recommender is the part of the REST client that knows the recommended
// shard count.
type Recommender interface {
	GatewayBot(options ...discordgo.RequestOption) (*discordgo.GatewayBotResponse, error)
}

// OnceRecommender asks the wrapped gateway once and replays that answer,
// error included, to every later caller.
type OnceRecommender struct {
	gw   Recommender
	once sync.Once
	res  *discordgo.GatewayBotResponse
	err  error
}

func NewOnceRecommender(gw Recommender) *OnceRecommender {
	return &OnceRecommender{gw: gw}
}

func (o *OnceRecommender) GatewayBot(options ...discordgo.RequestOption) (*discordgo.GatewayBotResponse, error) {
	o.once.Do(func() {
		o.res, o.err = o.gw.GatewayBot(options...)
	})
	return o.res, o.err
}

// DetermineShardCount picks the runtime override, then the configured
// count, then the platform's recommendation. Failures are not retried.
func DetermineShardCount(ctx context.Context, configured int, override *int, gw Recommender) (int, error) {
	if override != nil {
		if *override < 1 {
			return 0, fmt.Errorf("invalid shard count override %d", *override)
		}
		return *override, nil
	}

	if configured > 0 {
		return configured, nil
	}

	if gw == nil {
		return 0, errors.New("no shard count configured and no gateway to ask")
	}

	res, err := gw.GatewayBot(discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed fetching recommended shard count: %w", err)
	}
	if res.Shards < 1 {
		return 0, fmt.Errorf("gateway recommended %d shards", res.Shards)
	}

	return res.Shards, nil
}

// IdentifyConcurrency returns how many shards may identify at once,
// falling back to one.
func IdentifyConcurrency(ctx context.Context, gw Recommender) int {
	if gw == nil {
		return 1
	}

	res, err := gw.GatewayBot(discordgo.WithContext(ctx))
	if err != nil || res.SessionStartLimit.MaxConcurrency < 1 {
		return 1
	}
	return res.SessionStartLimit.MaxConcurrency
}

// DetermineOwnedShardRange returns the shard ids this process runs: [from, to)
// clipped to [0, total), or every shard when no subset is set.
func DetermineOwnedShardRange(total int, from, to *int) ([]int, error) {
	if (from == nil) != (to == nil) {
		return nil, ErrIncompleteSubset
	}

	lo, hi := 0, total
	if from != nil {
		lo, hi = *from, *to
		if lo < 0 || hi <= lo {
			return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidSubset, lo, hi)
		}
		hi = min(hi, total)
		if lo >= hi {
			return nil, fmt.Errorf("%w: [%d, %d) of %d shards", ErrInvalidSubset, lo, *to, total)
		}
	}

	ids := make([]int, 0, hi-lo)
	for id := lo; id < hi; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}
