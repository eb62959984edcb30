package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundrelay/soundrelay/internal/infra/adapters/memory"
)

// Sweeper periodically deletes rooms that have been idle longer than the
// TTL, a safety net against connections that vanished without a clean
// disconnect signal.
type Sweeper struct {
	registry memory.RoomRegistry
	interval time.Duration
	idleTTL  time.Duration
}

func NewSweeper(registry memory.RoomRegistry, interval, idleTTL time.Duration) *Sweeper {
	return &Sweeper{
		registry: registry,
		interval: interval,
		idleTTL:  idleTTL,
	}
}

// Run blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.registry.SweepIdle(s.idleTTL, time.Now())
			if len(removed) > 0 {
				slog.Info(
					"idle rooms removed",
					slog.Int("count", len(removed)),
					slog.Any("rooms", removed),
				)
			}
		}
	}
}
