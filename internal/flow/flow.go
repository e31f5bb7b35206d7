package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"reelfetch/internal/admission"
	"reelfetch/internal/errlog"
	"reelfetch/internal/fileutil"
	"reelfetch/internal/logging"
	"reelfetch/internal/media"
	"reelfetch/internal/metrics"
	"reelfetch/internal/services"
)

// RateLimiter admits or denies a user.
type RateLimiter interface {
	Allow(userID string) bool
}

// Cache maps normalized URLs to stored files.
type Cache interface {
	Lookup(url string) (string, bool)
	Store(url, tempPath string) (string, error)
}

// Downloader produces a scratch file for a request.
type Downloader interface {
	Fetch(ctx context.Context, req media.Request) (string, error)
}

// UsageRecorder counts fresh deliveries.
type UsageRecorder interface {
	Record(userID, platform string) error
}

// Deps are the collaborators a Flow drives. Errors and Metrics may be nil.
type Deps struct {
	Gate         *admission.Gate
	Limiter      RateLimiter
	Cache        Cache
	Downloader   Downloader
	Ledger       UsageRecorder
	MaxFileBytes int64
	Logger       *slog.Logger
	Errors       *errlog.Log
	Metrics      *metrics.Recorder
}

// Flow runs a request through admission, the cache, the downloader, the size
// ceiling and the commit step.
type Flow struct {
	gate       *admission.Gate
	limiter    RateLimiter
	cache      Cache
	downloader Downloader
	ledger     UsageRecorder
	maxBytes   int64
	logger     *slog.Logger
	errs       *errlog.Log
	metrics    *metrics.Recorder
}

// New validates deps and builds a Flow.
func New(d Deps) (*Flow, error) {
	switch {
	case d.Gate == nil:
		return nil, errors.New("flow: gate is required")
	case d.Limiter == nil:
		return nil, errors.New("flow: rate limiter is required")
	case d.Cache == nil:
		return nil, errors.New("flow: cache is required")
	case d.Downloader == nil:
		return nil, errors.New("flow: downloader is required")
	case d.Ledger == nil:
		return nil, errors.New("flow: ledger is required")
	case d.MaxFileBytes <= 0:
		return nil, fmt.Errorf("flow: max file size must be positive, got %d", d.MaxFileBytes)
	}
	return &Flow{
		gate:       d.Gate,
		limiter:    d.Limiter,
		cache:      d.Cache,
		downloader: d.Downloader,
		ledger:     d.Ledger,
		maxBytes:   d.MaxFileBytes,
		logger:     logging.NewComponentLogger(d.Logger, "flow"),
		errs:       d.Errors,
		metrics:    d.Metrics,
	}, nil
}

// Gate exposes the queue gate for depth reporting.
func (f *Flow) Gate() *admission.Gate { return f.gate }

// MaxFileBytes is the delivery ceiling.
func (f *Flow) MaxFileBytes() int64 { return f.maxBytes }

// Handle decides the outcome for req. The returned Result is never nil. The
// error carries the services marker for every non-served outcome and is nil
// for served ones. The queue slot taken on entry is released before Handle
// returns, whatever the path.
func (f *Flow) Handle(ctx context.Context, req media.Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = services.WithRequestID(ctx, requestID)
	}
	ctx = services.WithUserID(ctx, req.UserID)
	ctx = services.WithCommand(ctx, req.Platform.String())
	logger := logging.WithContext(ctx, f.logger).With(
		logging.String(logging.FieldPlatform, req.Platform.String()),
		logging.String(logging.FieldURL, req.URL),
	)

	res, err := f.handle(ctx, logger, req)
	res.RequestID = requestID
	f.metrics.ObserveRequest(req.Platform.String(), res.Outcome.String())

	attrs := []logging.Attr{logging.String(logging.FieldOutcome, res.Outcome.String())}
	if res.Outcome.Served() {
		attrs = append(attrs, logging.Int64("bytes", res.Size), logging.Bool("cached", res.Cached))
	}
	logger.Info("request finished", logging.Args(attrs...)...)
	return res, err
}

func (f *Flow) handle(ctx context.Context, logger *slog.Logger, req media.Request) (*Result, error) {
	slot, ok := f.gate.TryEnter()
	if !ok {
		return &Result{Outcome: OutcomeRejectedCapacity},
			services.Wrap(services.ErrQueueFull, "flow", "admit", fmt.Sprintf("%d downloads in flight", f.gate.Capacity()), nil)
	}
	defer slot.Release()

	if !f.limiter.Allow(req.UserID) {
		return &Result{Outcome: OutcomeRejectedRate},
			services.Wrap(services.ErrRateLimited, "flow", "admit", "user over quota", nil)
	}

	if path, hit := f.cache.Lookup(req.URL); hit {
		f.metrics.ObserveCacheLookup(true)
		size, err := fileutil.Size(path)
		if err == nil {
			return &Result{Outcome: OutcomeServedCache, Path: path, Size: size, Cached: true}, nil
		}
		// The entry vanished between lookup and stat; fall through to a fresh download.
		logger.Debug("cache entry disappeared", logging.String("path", path), logging.Error(err))
	} else {
		f.metrics.ObserveCacheLookup(false)
	}

	tempPath, err := f.downloader.Fetch(ctx, req)
	if err != nil {
		return &Result{Outcome: OutcomeFailedDownload}, err
	}

	size, err := fileutil.Size(tempPath)
	if err != nil {
		_ = os.Remove(tempPath)
		f.errs.Record(ctx, err)
		return &Result{Outcome: OutcomeFailedDownload},
			services.Wrap(services.ErrDownloadFailed, "flow", "size", "downloaded file unreadable", err)
	}
	if size > f.maxBytes {
		if rmErr := os.Remove(tempPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("discard oversized download failed", logging.String("path", tempPath), logging.Error(rmErr))
		}
		return &Result{Outcome: OutcomeRejectedTooLarge, Size: size},
			services.Wrap(services.ErrFileTooLarge, "flow", "size", fmt.Sprintf("%d bytes exceeds %d", size, f.maxBytes), nil)
	}

	return f.commit(ctx, logger, req, tempPath, size), nil
}

// commit stores the file and counts the delivery. Neither step can turn a
// successful download into a failure.
func (f *Flow) commit(ctx context.Context, logger *slog.Logger, req media.Request, tempPath string, size int64) *Result {
	res := &Result{Outcome: OutcomeServedFresh, Path: tempPath, Size: size}

	if stored, err := f.cache.Store(req.URL, tempPath); err != nil {
		logging.WarnWithContext(logger, "cache store failed; serving uncached", "cache_store_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next request for this URL downloads again"))
		f.errs.Record(ctx, err)
	} else {
		res.Path = stored
		res.Cached = true
	}

	if err := f.ledger.Record(req.UserID, req.Platform.String()); err != nil {
		logging.WarnWithContext(logger, "usage ledger not persisted", "ledger_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ledger_path permissions"),
			logging.String(logging.FieldImpact, "stats on disk lag behind memory"))
		f.errs.Record(ctx, err)
	}
	return res
}
