package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBot()
	c.normalizeLimits()
	if err := c.normalizeYouTube(); err != nil {
		return err
	}
	c.normalizeHTTP()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	cacheRoot := defaultCacheRoot()
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = filepath.Join(cacheRoot, "videos")
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = filepath.Join(cacheRoot, "scratch")
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = defaultLedgerPath
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBot() {
	if value, ok := os.LookupEnv(BotTokenEnv); ok && strings.TrimSpace(value) != "" {
		c.Bot.Token = value
	}
	c.Bot.Token = strings.TrimSpace(c.Bot.Token)
	c.Bot.APIBind = strings.TrimSpace(c.Bot.APIBind)
	if c.Bot.APIBind == "" {
		c.Bot.APIBind = defaultAPIBind
	}
	c.Bot.Language = strings.TrimSpace(c.Bot.Language)
	if c.Bot.Language == "" {
		c.Bot.Language = defaultLanguage
	}
}

func (c *Config) normalizeLimits() {
	if c.Limits.CacheTTLHours <= 0 {
		c.Limits.CacheTTLHours = defaultCacheTTLHours
	}
	if c.Limits.CacheSweepMinutes < 0 {
		c.Limits.CacheSweepMinutes = 0
	}
	if c.Limits.RateTrackedUsers <= 0 {
		c.Limits.RateTrackedUsers = defaultRateTrackedUsers
	}
}

func (c *Config) normalizeYouTube() error {
	c.YouTube.Binary = strings.TrimSpace(c.YouTube.Binary)
	if c.YouTube.Binary == "" {
		c.YouTube.Binary = defaultYouTubeBinary
	}
	c.YouTube.CookiesFile = strings.TrimSpace(c.YouTube.CookiesFile)
	if c.YouTube.CookiesFile == "" {
		if value, ok := os.LookupEnv("REELFETCH_YOUTUBE_COOKIES"); ok {
			c.YouTube.CookiesFile = strings.TrimSpace(value)
		}
	}
	if c.YouTube.CookiesFile != "" {
		var err error
		if c.YouTube.CookiesFile, err = expandPath(c.YouTube.CookiesFile); err != nil {
			return fmt.Errorf("youtube.cookies_file: %w", err)
		}
	}
	if c.YouTube.SocketTimeoutSeconds <= 0 {
		c.YouTube.SocketTimeoutSeconds = defaultYouTubeSocketTimeout
	}
	return nil
}

func (c *Config) normalizeHTTP() {
	agents := make([]string, 0, len(c.HTTP.UserAgents))
	for _, ua := range c.HTTP.UserAgents {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			agents = append(agents, trimmed)
		}
	}
	if len(agents) == 0 {
		agents = append(agents, defaultUserAgents...)
	}
	c.HTTP.UserAgents = agents
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.ErrorLogMaxMB <= 0 {
		c.Logging.ErrorLogMaxMB = defaultErrorLogMaxMB
	}
	if c.Logging.ErrorLogBackups < 0 {
		c.Logging.ErrorLogBackups = 0
	}
}
