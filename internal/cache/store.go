package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"reelfetch/internal/fileutil"
	"reelfetch/internal/logging"
	"reelfetch/internal/services"
)

// Ext is the media extension every cache slot carries.
const Ext = ".mp4"

// Entry describes one file in the cache directory.
type Entry struct {
	Key     string
	Path    string
	Size    int64
	ModTime time.Time
	Fresh   bool
}

// Store maps source URLs to media files named by a hash of the URL. A file's
// mtime is the only freshness signal; nothing else is persisted.
type Store struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New opens (and creates if needed) a cache rooted at dir.
func New(dir string, ttl time.Duration, logger *slog.Logger, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	s := &Store{
		dir:    dir,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the cache root.
func (s *Store) Dir() string { return s.dir }

// TTL returns the freshness window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Key returns the stable cache key for a normalized URL.
func Key(url string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(url))
}

// PathFor returns the slot a URL maps to, whether or not it exists.
func (s *Store) PathFor(url string) string {
	return filepath.Join(s.dir, Key(url)+Ext)
}

// Lookup returns the cached file for url when it exists and is younger than
// the freshness window. Stale entries are reported as absent and left for the
// next Store to overwrite.
func (s *Store) Lookup(url string) (string, bool) {
	path := s.PathFor(url)
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("cache stat failed", logging.String("path", path), logging.Error(err))
		}
		return "", false
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	if !s.fresh(info.ModTime()) {
		s.logger.Debug("cache entry stale",
			logging.String("key", Key(url)),
			logging.Duration("age", s.now().Sub(info.ModTime())))
		return "", false
	}
	return path, true
}

// Store takes ownership of tempPath by renaming it into the slot for url,
// replacing any previous entry. On failure the temp file is left untouched so
// the caller can still serve it.
func (s *Store) Store(url, tempPath string) (string, error) {
	dst := s.PathFor(url)
	if err := fileutil.Move(tempPath, dst); err != nil {
		hint := "check cache directory permissions"
		if fileutil.IsCrossDevice(err) {
			hint = "place scratch_dir on the same filesystem as cache_dir"
		}
		return "", services.Wrap(services.ErrStorage, "cache", "store", hint, err)
	}
	// Downloaders may stamp the upstream upload time; freshness counts from now.
	now := s.now()
	if err := os.Chtimes(dst, now, now); err != nil {
		logging.WarnWithContext(s.logger, "cache mtime update failed", "cache_touch_failed",
			logging.String("path", dst),
			logging.Error(err),
			logging.String(logging.FieldImpact, "entry may expire early"))
	}
	s.logger.Debug("cache entry stored", logging.String("key", Key(url)), logging.String("path", dst))
	return dst, nil
}

// List returns every cache file, newest first.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read cache directory: %w", err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, Ext) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Key:     strings.TrimSuffix(name, Ext),
			Path:    filepath.Join(s.dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Fresh:   s.fresh(info.ModTime()),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries, nil
}

// Prune deletes stale files and returns how many were removed and how many
// bytes were reclaimed.
func (s *Store) Prune() (int, int64, error) {
	entries, err := s.List()
	if err != nil {
		return 0, 0, err
	}
	var removed int
	var reclaimed int64
	var errs []error
	for _, entry := range entries {
		if entry.Fresh {
			continue
		}
		if err := os.Remove(entry.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
		reclaimed += entry.Size
	}
	return removed, reclaimed, errors.Join(errs...)
}

func (s *Store) fresh(modTime time.Time) bool {
	return s.now().Sub(modTime) < s.ttl
}
