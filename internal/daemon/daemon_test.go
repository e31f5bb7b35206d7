package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"reelfetch/internal/daemon"
	"reelfetch/internal/logging"
	"reelfetch/internal/testsupport"
)

type blockingServer struct {
	bind    atomic.Value
	started chan struct{}
	stopped chan struct{}
}

func newBlockingServer() *blockingServer {
	return &blockingServer{started: make(chan struct{}), stopped: make(chan struct{})}
}

func (s *blockingServer) Run(ctx context.Context, bind string) error {
	s.bind.Store(bind)
	close(s.started)
	<-ctx.Done()
	close(s.stopped)
	return nil
}

type workerFunc func(context.Context) error

func (f workerFunc) Run(ctx context.Context) error { return f(ctx) }

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestDaemonRunStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	server := newBlockingServer()
	d, err := daemon.New(cfg, logging.NewNop(), server, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	waitFor(t, server.started, "server start")
	if got := server.bind.Load(); got != cfg.Bot.APIBind {
		t.Fatalf("server bound to %v, want %s", got, cfg.Bot.APIBind)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("lock path = %q, want %q", status.LockFilePath, cfg.LockPath())
	}
	if _, err := os.Stat(cfg.LockPath()); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}

	// A second Run on the same daemon is refused while the first is active.
	if err := d.Run(ctx); err == nil {
		t.Fatal("expected second run to fail")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
	waitFor(t, server.stopped, "server stop")
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRefusesWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(filepath.Dir(cfg.LockPath()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	other := flock.New(cfg.LockPath())
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer other.Unlock()

	d, err := daemon.New(cfg, logging.NewNop(), newBlockingServer())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Run(context.Background()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("Run error = %v, want ErrAlreadyRunning", err)
	}
}

func TestDaemonWorkerFailureStopsServer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	server := newBlockingServer()
	boom := errors.New("sweeper exploded")
	worker := workerFunc(func(ctx context.Context) error {
		select {
		case <-server.started:
			return boom
		case <-ctx.Done():
			return nil
		}
	})
	d, err := daemon.New(cfg, logging.NewNop(), server, worker)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	if err := d.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
	waitFor(t, server.stopped, "server stop")

	// The lock is released so a later run can start.
	relock := flock.New(cfg.LockPath())
	ok, err := relock.TryLock()
	if err != nil || !ok {
		t.Fatalf("expected lock to be free: ok=%v err=%v", ok, err)
	}
	_ = relock.Unlock()
}

func TestNewRequiresServer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(cfg, nil, nil); err == nil {
		t.Fatal("expected error without server")
	}
	if _, err := daemon.New(nil, nil, newBlockingServer()); err == nil {
		t.Fatal("expected error without config")
	}
}
