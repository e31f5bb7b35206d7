package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"reelfetch/internal/testsupport"
)

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunRequiresBotToken(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBotToken(""))
	err := Run(context.Background(), cfg, Options{})
	if err == nil || !strings.Contains(err.Error(), "REELFETCH_BOT_TOKEN") {
		t.Fatalf("Run error = %v, want bot token error", err)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Logging.Format = "json"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Run(ctx, cfg, Options{LogLevel: "error"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "reelfetch.pid")); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, stat err=%v", err)
	}
	if _, err := os.Stat(cfg.Paths.CacheDir); err != nil {
		t.Fatalf("expected cache dir created: %v", err)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelfetch.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("pid file = %q", data)
	}
	if err := writePIDFile(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}
