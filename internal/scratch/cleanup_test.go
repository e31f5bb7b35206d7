package scratch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelfetch/internal/logging"
)

func writeAged(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "youtube-1.mp4")
	partial := filepath.Join(dir, "youtube-2.f137.mp4.part")
	recent := filepath.Join(dir, "tiktok-3.mp4")
	writeAged(t, oldFile, 100, 2*time.Hour)
	writeAged(t, partial, 50, 3*time.Hour)
	writeAged(t, recent, 10, time.Minute)

	result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", result.Removed)
	}
	if result.Reclaimed != 150 {
		t.Fatalf("Reclaimed = %d, want 150", result.Reclaimed)
	}
	for _, path := range []string{oldFile, partial} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s should have been removed", path)
		}
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("recent file should still exist")
	}
}

func TestCleanStaleIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(sub, old, old); err != nil {
		t.Fatal(err)
	}

	result := CleanStale(context.Background(), dir, time.Hour, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("expected no removals, got %v", result.Removed)
	}
	if _, err := os.Stat(sub); err != nil {
		t.Fatal("directory should be untouched")
	}
}

func TestCleanStaleStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instagram-1.mp4")
	writeAged(t, path, 1, 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := CleanStale(ctx, dir, time.Hour, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("expected no work after cancel, got %v", result.Removed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal("file should survive a cancelled pass")
	}
}
