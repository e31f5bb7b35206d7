package ledger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"reelfetch/internal/services"
)

func TestRecordPersistsWholeRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	l, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := l.Record("42", "youtube"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record("42", "tiktok"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"downloads", "users", "platforms"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("expected key %q in %s", key, data)
		}
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	stats := reopened.Snapshot()
	if stats.Downloads != 2 || stats.Users["42"] != 2 || stats.Platforms["youtube"] != 1 || stats.Platforms["tiktok"] != 1 {
		t.Fatalf("unexpected stats after reopen: %+v", stats)
	}
}

func TestCountersSumToTotal(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "usage.json"), nil)
	if err != nil {
		t.Fatal(err)
	}

	users := []string{"u1", "u2", "u3"}
	platforms := []string{"youtube", "instagram", "tiktok"}
	const k = 17
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Record(users[i%len(users)], platforms[i%2]); err != nil {
				t.Errorf("Record: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stats := l.Snapshot()
	if stats.Downloads != k {
		t.Fatalf("downloads = %d, want %d", stats.Downloads, k)
	}
	sumUsers, sumPlatforms := 0, 0
	for _, v := range stats.Users {
		sumUsers += v
	}
	for _, v := range stats.Platforms {
		sumPlatforms += v
	}
	if sumUsers != k || sumPlatforms != k {
		t.Fatalf("user sum %d, platform sum %d, want %d", sumUsers, sumPlatforms, k)
	}

	persisted, err := Read(l.Path())
	if err != nil {
		t.Fatal(err)
	}
	if persisted.Downloads != k {
		t.Fatalf("persisted downloads = %d, want %d", persisted.Downloads, k)
	}
}

func TestRecordReportsPersistenceFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	l, err := Open(filepath.Join(dir, "usage.json"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Swap the ledger directory for a regular file so every write path fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err = l.Record("42", "youtube")
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence marker, got %v", err)
	}
	if got := l.Snapshot().Downloads; got != 1 {
		t.Fatalf("expected in-memory counter to advance, got %d", got)
	}
}

func TestSharedFileKeepsEveryWritersCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	server, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open server: %v", err)
	}
	cli, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open cli: %v", err)
	}

	if err := server.Record("u1", "youtube"); err != nil {
		t.Fatal(err)
	}
	if err := cli.Record("cli", "tiktok"); err != nil {
		t.Fatal(err)
	}
	if err := server.Record("u2", "youtube"); err != nil {
		t.Fatal(err)
	}

	persisted, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if persisted.Downloads != 3 {
		t.Fatalf("downloads = %d, want 3 (%+v)", persisted.Downloads, persisted)
	}
	for _, user := range []string{"u1", "u2", "cli"} {
		if persisted.Users[user] != 1 {
			t.Fatalf("user %s = %d, want 1 (%+v)", user, persisted.Users[user], persisted.Users)
		}
	}
	if persisted.Platforms["youtube"] != 2 || persisted.Platforms["tiktok"] != 1 {
		t.Fatalf("unexpected platforms %+v", persisted.Platforms)
	}
	if got := server.Snapshot().Downloads; got != 3 {
		t.Fatalf("server snapshot downloads = %d, want 3", got)
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "usage.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Record("42", "instagram"); err != nil {
		t.Fatal(err)
	}
	snap := l.Snapshot()
	snap.Users["42"] = 99
	if l.Snapshot().Users["42"] != 1 {
		t.Fatal("mutating a snapshot must not affect the ledger")
	}
}

func TestRankedBreakdowns(t *testing.T) {
	stats := Stats{
		Downloads: 6,
		Users:     map[string]int{"b": 2, "a": 2, "c": 1, "d": 1},
		Platforms: map[string]int{"youtube": 4, "tiktok": 2},
	}
	top := stats.TopUsers(2)
	if len(top) != 2 || top[0].Name != "a" || top[1].Name != "b" {
		t.Fatalf("unexpected top users %+v", top)
	}
	platforms := stats.ByPlatform()
	if platforms[0].Name != "youtube" || platforms[0].Total != 4 {
		t.Fatalf("unexpected platform order %+v", platforms)
	}
}
