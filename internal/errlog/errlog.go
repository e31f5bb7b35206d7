package errlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"reelfetch/internal/services"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Log appends one block per failure. A nil *Log discards everything.
type Log struct {
	mu  sync.Mutex
	w   io.WriteCloser
	now func() time.Time
}

// Open returns a size-rotated log at path. maxMB below one falls back to 10.
func Open(path string, maxMB, backups int) (*Log, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("error log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create error log directory: %w", err)
	}
	if maxMB < 1 {
		maxMB = 10
	}
	if backups < 0 {
		backups = 0
	}
	return New(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxMB,
		MaxBackups: backups,
	}), nil
}

// New wraps an arbitrary writer.
func New(w io.WriteCloser) *Log {
	return &Log{w: w, now: time.Now}
}

// Record writes err with the user and command found on ctx. The stack is the
// one captured where the error was created when available, otherwise the
// caller's.
func (l *Log) Record(ctx context.Context, err error) {
	if l == nil || err == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	user, _ := services.UserIDFromContext(ctx)
	command, _ := services.CommandFromContext(ctx)
	requestID, _ := services.RequestIDFromContext(ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "%s user=%s command=%s", l.now().UTC().Format(time.RFC3339), orDash(user), orDash(command))
	if requestID != "" {
		fmt.Fprintf(&b, " request=%s", requestID)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "error: %v\n", err)
	b.WriteString(stackOf(err))
	b.WriteString("\n---\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, b.String())
}

// Close releases the underlying file.
func (l *Log) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

func stackOf(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		return strings.TrimLeft(fmt.Sprintf("%+v", st.StackTrace()), "\n")
	}
	return strings.TrimRight(string(debug.Stack()), "\n")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
