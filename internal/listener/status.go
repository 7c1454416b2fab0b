package listener

import (
	"context"

	"github.com/LeBulldoge/kagura/internal/dispatch"
)

// Status only reports connection changes. Reconnecting is discordgo's job.
func (s *Set) Status(_ context.Context, ev dispatch.Event) error {
	change, ok := ev.Data.(dispatch.StatusChange)
	if !ok {
		return nil
	}

	log := s.logger.With("shard", ev.Shard, "status", change.Status)
	if change.Status == dispatch.StatusDisconnected {
		log.Warn("shard connection changed")
		return nil
	}
	log.Info("shard connection changed")

	return nil
}
