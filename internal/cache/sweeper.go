package cache

import (
	"context"
	"log/slog"
	"time"

	"reelfetch/internal/logging"
)

// Sweeper periodically prunes stale cache files so disk usage stays bounded
// even for URLs that are never requested again.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper for store.
func NewSweeper(store *Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "cache-sweeper"),
	}
}

// Run prunes once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}
	s.logger.Info("cache sweeper started", logging.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			s.logger.Info("cache sweeper stopping")
			return nil
		}
	}
}

func (s *Sweeper) sweep() {
	removed, reclaimed, err := s.store.Prune()
	if err != nil {
		logging.WarnWithContext(s.logger, "cache sweep incomplete", "cache_sweep_failed",
			logging.Error(err),
			logging.Int("removed", removed),
			logging.String(logging.FieldImpact, "stale files remain on disk until the next sweep"))
		return
	}
	if removed > 0 {
		s.logger.Info("cache sweep complete",
			logging.Int("removed", removed),
			logging.Int64("reclaimed_bytes", reclaimed))
	}
}
