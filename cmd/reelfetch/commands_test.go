package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelfetch/internal/cache"
	"reelfetch/internal/ledger"
	"reelfetch/internal/media"
	"reelfetch/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Bot token:   yes")
	requireContains(t, out, "Cache directory")
	requireContains(t, out, "yt-dlp")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestStatsEmptyLedger(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Downloads: 0")
	requireContains(t, out, "No downloads recorded yet")
}

func TestStatsRendersTables(t *testing.T) {
	env := setupCLITestEnv(t)
	stats := ledger.Stats{
		Downloads: 6,
		Users:     map[string]int{"alice": 4, "bob": 2},
		Platforms: map[string]int{"youtube": 5, "tiktok": 1},
	}
	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(env.cfg.Paths.LedgerPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(env.cfg.Paths.LedgerPath, data, 0o644); err != nil {
		t.Fatalf("write ledger: %v", err)
	}

	out, _, err := runCLI(t, []string{"stats", "--top", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Downloads: 6")
	requireContains(t, out, "Users:     2")
	requireContains(t, out, "youtube")
	requireContains(t, out, "alice")
	if strings.Contains(out, "bob") {
		t.Fatalf("expected --top 1 to hide bob:\n%s", out)
	}
}

func TestCacheListAndPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	store, err := cache.New(env.cfg.Paths.CacheDir, env.cfg.CacheTTL(), nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	fresh := store.PathFor("https://www.tiktok.com/@a/video/1")
	stale := store.PathFor("https://www.tiktok.com/@a/video/2")
	testsupport.WriteFile(t, fresh, 2048)
	testsupport.WriteFile(t, stale, 4096)
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	abandoned := filepath.Join(env.cfg.Paths.ScratchDir, "youtube-abandoned.mp4.part")
	testsupport.WriteFile(t, abandoned, 1024)
	if err := os.Chtimes(abandoned, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, cache.Key("https://www.tiktok.com/@a/video/1"))
	requireContains(t, out, "2 files")
	requireContains(t, out, "1 stale")

	out, _, err = runCLI(t, []string{"cache", "prune"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Removed 1 stale files (4.0 KiB reclaimed)")
	requireContains(t, out, "Removed 1 abandoned scratch files (1.0 KiB reclaimed)")
	if _, err := os.Stat(abandoned); !os.IsNotExist(err) {
		t.Fatalf("expected abandoned scratch file removed, stat err=%v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale entry removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh entry kept: %v", err)
	}
}

func TestCacheListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "is empty")
}

func TestFetchServesFromCache(t *testing.T) {
	env := setupCLITestEnv(t)
	const link = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	req, err := media.NewRequest("cli", media.PlatformYouTube, link, media.QualityMedium)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	store, err := cache.New(env.cfg.Paths.CacheDir, env.cfg.CacheTTL(), nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	testsupport.WriteFile(t, store.PathFor(req.URL), 4096)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	out, _, err := runCLI(t, []string{"fetch", "youtube", link, "--output", dest}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Outcome: served_cache")
	requireContains(t, out, "Cached:  yes")
	requireContains(t, out, "Path:    "+dest)
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("expected copied file: %v", err)
	}
	if info.Size() != 4096 {
		t.Fatalf("copied size = %d, want 4096", info.Size())
	}

	stats, err := ledger.Read(env.cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("ledger.Read: %v", err)
	}
	if stats.Downloads != 0 {
		t.Fatalf("cache hits must not be counted, got %d", stats.Downloads)
	}
}

func TestFetchRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)
	cases := [][]string{
		{"fetch", "vimeo", "https://vimeo.com/1"},
		{"fetch", "youtube", "https://www.tiktok.com/@a/video/1"},
		{"fetch", "youtube", "https://www.youtube.com/watch?v=x", "--quality", "8k"},
		{"fetch", "youtube"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args, env.configPath); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
}
