package flow

import (
	"fmt"
	"log/slog"

	"reelfetch/internal/admission"
	"reelfetch/internal/cache"
	"reelfetch/internal/config"
	"reelfetch/internal/downloader"
	"reelfetch/internal/errlog"
	"reelfetch/internal/ledger"
	"reelfetch/internal/metrics"
)

// Service bundles a Flow with the stores it was built over, for callers that
// also report stats or maintain the cache.
type Service struct {
	Flow       *Flow
	Cache      *cache.Store
	Ledger     *ledger.Ledger
	Dispatcher *downloader.Dispatcher
}

// NewFromConfig builds every collaborator from cfg. errs and rec may be nil;
// when rec is set the queue depth gauge is registered on it.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, errs *errlog.Log, rec *metrics.Recorder) (*Service, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	gate, err := admission.NewGate(cfg.Limits.QueueCapacity)
	if err != nil {
		return nil, err
	}
	limiter, err := admission.NewLimiter(cfg.Limits.RateQuota, cfg.RatePeriod(), cfg.Limits.RateTrackedUsers)
	if err != nil {
		return nil, err
	}
	store, err := cache.New(cfg.Paths.CacheDir, cfg.CacheTTL(), logger)
	if err != nil {
		return nil, err
	}
	usage, err := ledger.Open(cfg.Paths.LedgerPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open usage ledger: %w", err)
	}
	dispatcher, err := downloader.NewFromConfig(cfg, logger, errs, rec)
	if err != nil {
		return nil, err
	}
	f, err := New(Deps{
		Gate:         gate,
		Limiter:      limiter,
		Cache:        store,
		Downloader:   dispatcher,
		Ledger:       usage,
		MaxFileBytes: cfg.MaxFileBytes(),
		Logger:       logger,
		Errors:       errs,
		Metrics:      rec,
	})
	if err != nil {
		return nil, err
	}
	rec.WatchQueue(gate.Depth)
	return &Service{Flow: f, Cache: store, Ledger: usage, Dispatcher: dispatcher}, nil
}
