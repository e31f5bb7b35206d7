package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"reelfetch/internal/fileutil"
	"reelfetch/internal/logging"
	"reelfetch/internal/services"
)

// Stats is the persisted usage record.
type Stats struct {
	Downloads int            `json:"downloads"`
	Users     map[string]int `json:"users"`
	Platforms map[string]int `json:"platforms"`
}

// Count is one row of a ranked breakdown.
type Count struct {
	Name  string
	Total int
}

func newStats() Stats {
	return Stats{Users: map[string]int{}, Platforms: map[string]int{}}
}

func (s Stats) clone() Stats {
	out := Stats{
		Downloads: s.Downloads,
		Users:     make(map[string]int, len(s.Users)),
		Platforms: make(map[string]int, len(s.Platforms)),
	}
	for k, v := range s.Users {
		out.Users[k] = v
	}
	for k, v := range s.Platforms {
		out.Platforms[k] = v
	}
	return out
}

// TopUsers returns the n heaviest users, ties broken by id.
func (s Stats) TopUsers(n int) []Count {
	return ranked(s.Users, n)
}

// ByPlatform returns every platform ordered by count.
func (s Stats) ByPlatform() []Count {
	return ranked(s.Platforms, 0)
}

func ranked(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for name, total := range m {
		out = append(out, Count{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Ledger keeps usage counters in memory and rewrites the JSON file after every
// update. A crash mid-write can leave the previous file in place but never a
// partially written one.
//
// Several processes may share one file (serve and fetch). Each Record takes
// an exclusive flock on <path>.lock and re-reads the file before counting, so
// no process overwrites another's deliveries.
type Ledger struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
	lock   *flock.Flock
	stats  Stats
}

// Open loads the ledger at path, starting empty when the file is missing.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger path is required")
	}
	l := &Ledger{
		path:   path,
		logger: logging.NewComponentLogger(logger, "ledger"),
		lock:   flock.New(path + ".lock"),
		stats:  newStats(),
	}
	stats, err := Read(path)
	if err != nil {
		return nil, err
	}
	l.stats = stats
	l.logger.Debug("loaded usage ledger",
		logging.String("path", path),
		logging.Int("downloads", stats.Downloads))
	return l, nil
}

// Read parses the ledger file without opening it for writing.
func Read(path string) (Stats, error) {
	stats := newStats()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("read ledger: %w", err)
	}
	if len(data) == 0 {
		return stats, nil
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return newStats(), fmt.Errorf("parse ledger %s: %w", path, err)
	}
	if stats.Users == nil {
		stats.Users = map[string]int{}
	}
	if stats.Platforms == nil {
		stats.Platforms = map[string]int{}
	}
	return stats, nil
}

// Record counts one delivered download for user on platform and persists the
// result. The in-memory counters advance even when persisting fails; the
// error carries the ErrPersistence marker.
func (l *Ledger) Record(userID, platform string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.bump(userID, platform)
		return services.Wrap(services.ErrPersistence, "ledger", "prepare", l.path, err)
	}
	if err := l.lock.Lock(); err != nil {
		l.bump(userID, platform)
		return services.Wrap(services.ErrPersistence, "ledger", "lock", l.path, err)
	}
	defer func() {
		if err := l.lock.Unlock(); err != nil {
			logging.WarnWithContext(l.logger, "release ledger lock", "ledger_unlock_failed",
				logging.Error(err),
				logging.String("lock_path", l.lock.Path()))
		}
	}()

	disk, err := Read(l.path)
	if err != nil {
		logging.WarnWithContext(l.logger, "reload usage ledger", "ledger_reload_failed",
			logging.Error(err),
			logging.String("path", l.path),
			logging.String(logging.FieldImpact, "counts from other processes since the last write are overwritten"))
	} else {
		l.stats = disk
	}
	l.bump(userID, platform)

	if err := l.save(); err != nil {
		return services.Wrap(services.ErrPersistence, "ledger", "save", l.path, err)
	}
	return nil
}

func (l *Ledger) bump(userID, platform string) {
	l.stats.Downloads++
	l.stats.Users[userID]++
	l.stats.Platforms[platform]++
}

// Snapshot returns a copy of the current counters.
func (l *Ledger) Snapshot() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats.clone()
}

// Path returns the backing file.
func (l *Ledger) Path() string { return l.path }

func (l *Ledger) save() error {
	data, err := json.MarshalIndent(l.stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	return fileutil.WriteFileAtomic(l.path, data, 0o644)
}
