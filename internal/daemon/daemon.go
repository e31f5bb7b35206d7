package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"reelfetch/internal/config"
	"reelfetch/internal/logging"
)

// ErrAlreadyRunning is returned when another process holds the lock.
var ErrAlreadyRunning = errors.New("another reelfetch instance is already running")

// APIServer serves the command surface on an address until ctx ends.
type APIServer interface {
	Run(ctx context.Context, bind string) error
}

// Worker is a background loop supervised alongside the server.
type Worker interface {
	Run(ctx context.Context) error
}

// Daemon coordinates the API server and background workers and enforces
// single-instance execution.
type Daemon struct {
	bind    string
	logger  *slog.Logger
	server  APIServer
	workers []Worker

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	started atomic.Int64
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Uptime       time.Duration
	APIBind      string
	LockFilePath string
}

// New constructs a daemon. Nil workers are skipped.
func New(cfg *config.Config, logger *slog.Logger, server APIServer, workers ...Worker) (*Daemon, error) {
	if cfg == nil || server == nil {
		return nil, errors.New("daemon requires config and api server")
	}
	lockPath := cfg.LockPath()
	active := make([]Worker, 0, len(workers))
	for _, w := range workers {
		if w != nil {
			active = append(active, w)
		}
	}
	return &Daemon{
		bind:     cfg.Bot.APIBind,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		server:   server,
		workers:  active,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Run acquires the lock and blocks until ctx is cancelled or a component
// fails. A clean shutdown returns nil.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			logging.WarnWithContext(d.logger, "release daemon lock", "daemon_unlock_failed",
				logging.Error(err),
				logging.String("lock_path", d.lockPath),
				logging.String(logging.FieldErrorHint, "remove the lock file if no reelfetch process is running"))
		}
	}()

	d.started.Store(time.Now().UnixNano())
	d.logger.Info("reelfetch daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("api_bind", d.bind),
		logging.Int("workers", len(d.workers)))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return d.server.Run(groupCtx, d.bind)
	})
	for _, w := range d.workers {
		group.Go(func() error {
			return w.Run(groupCtx)
		})
	}

	err = group.Wait()
	if err != nil {
		logging.ErrorWithContext(d.logger, "reelfetch daemon stopped with error", "daemon_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "bot requests are no longer served"))
		return err
	}
	d.logger.Info("reelfetch daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	return nil
}

// Status reports whether Run is active.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		APIBind:      d.bind,
		LockFilePath: d.lockPath,
	}
	if status.Running {
		if started := d.started.Load(); started > 0 {
			status.Uptime = time.Since(time.Unix(0, started))
		}
	}
	return status
}
