package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// BotTokenEnv names the environment variable holding the bot credential.
const BotTokenEnv = "REELFETCH_BOT_TOKEN"

// Paths contains directory and file locations.
type Paths struct {
	CacheDir   string `toml:"cache_dir"`
	ScratchDir string `toml:"scratch_dir"`
	LedgerPath string `toml:"ledger_path"`
	LogDir     string `toml:"log_dir"`
}

// Bot contains the chat command surface settings.
type Bot struct {
	Token    string `toml:"token"`
	APIBind  string `toml:"api_bind"`
	Language string `toml:"language"`
}

// Limits contains admission, cache and size ceilings.
type Limits struct {
	CacheTTLHours     int `toml:"cache_ttl_hours"`
	CacheSweepMinutes int `toml:"cache_sweep_minutes"`
	QueueCapacity     int `toml:"queue_capacity"`
	RateQuota         int `toml:"rate_quota"`
	RatePeriodSeconds int `toml:"rate_period_seconds"`
	RateTrackedUsers  int `toml:"rate_tracked_users"`
	MaxFileMB         int `toml:"max_file_mb"`
}

// YouTube contains yt-dlp settings.
type YouTube struct {
	Binary               string `toml:"binary"`
	CookiesFile          string `toml:"cookies_file"`
	Attempts             int    `toml:"attempts"`
	BackoffSeconds       int    `toml:"backoff_seconds"`
	SocketTimeoutSeconds int    `toml:"socket_timeout_seconds"`
}

// HTTP contains settings for the Instagram and TikTok fetchers.
type HTTP struct {
	TimeoutSeconds int      `toml:"timeout_seconds"`
	UserAgents     []string `toml:"user_agents"`
}

// Logging contains configuration for log output and the error log.
type Logging struct {
	Format          string `toml:"format"`
	Level           string `toml:"level"`
	ErrorLogMaxMB   int    `toml:"error_log_max_mb"`
	ErrorLogBackups int    `toml:"error_log_backups"`
}

// Config encapsulates all configuration values for reelfetch.
//
// Configuration sections by subsystem:
//   - Paths: cache, scratch, ledger and log locations
//   - Bot: credential, HTTP bind address, reply language
//   - Limits: cache freshness, queue capacity, rate quota, size ceiling
//   - YouTube: yt-dlp binary, cookies and retry policy
//   - HTTP: timeouts and user agents for direct fetches
//   - Logging: log format, level, and error log rotation
type Config struct {
	Paths   Paths   `toml:"paths"`
	Bot     Bot     `toml:"bot"`
	Limits  Limits  `toml:"limits"`
	YouTube YouTube `toml:"youtube"`
	HTTP    HTTP    `toml:"http"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelfetch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelfetch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache, scratch, ledger and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CacheDir, c.Paths.ScratchDir, c.Paths.LogDir, filepath.Dir(c.Paths.LedgerPath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequireBotToken fails when no bot credential was supplied. Only the
// long-running server needs one; local CLI commands do not.
func (c *Config) RequireBotToken() error {
	if strings.TrimSpace(c.Bot.Token) != "" {
		return nil
	}
	return fmt.Errorf("bot token is required: export %s or set bot.token", BotTokenEnv)
}

// CacheTTL is the freshness window for cached media.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Limits.CacheTTLHours) * time.Hour
}

// CacheSweepInterval is how often stale cache files are removed; zero disables the sweeper.
func (c *Config) CacheSweepInterval() time.Duration {
	return time.Duration(c.Limits.CacheSweepMinutes) * time.Minute
}

// RatePeriod is the sliding window used by the per-user limiter.
func (c *Config) RatePeriod() time.Duration {
	return time.Duration(c.Limits.RatePeriodSeconds) * time.Second
}

// MaxFileBytes is the largest file the bot will deliver.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Limits.MaxFileMB) * 1024 * 1024
}

// YouTubeBackoff is the fixed delay between yt-dlp attempts.
func (c *Config) YouTubeBackoff() time.Duration {
	return time.Duration(c.YouTube.BackoffSeconds) * time.Second
}

// HTTPTimeout bounds a single Instagram or TikTok HTTP exchange.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ErrorLogPath is the append-only failure log.
func (c *Config) ErrorLogPath() string {
	return filepath.Join(c.Paths.LogDir, "errors.log")
}

// LockPath is the single-instance lock held by the server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "reelfetch.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheRoot() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "reelfetch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/reelfetch"
	}
	return filepath.Join(home, ".cache", "reelfetch")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
