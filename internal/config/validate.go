package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable. The bot token is checked
// separately by RequireBotToken because offline commands run without one.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateBot(); err != nil {
		return err
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.New("http.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if c.Paths.CacheDir == c.Paths.ScratchDir {
		return errors.New("paths.scratch_dir must differ from paths.cache_dir")
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		return errors.New("paths.ledger_path must be set")
	}
	return nil
}

func (c *Config) validateLimits() error {
	return ensurePositiveMap(map[string]int{
		"limits.cache_ttl_hours":     c.Limits.CacheTTLHours,
		"limits.queue_capacity":      c.Limits.QueueCapacity,
		"limits.rate_quota":          c.Limits.RateQuota,
		"limits.rate_period_seconds": c.Limits.RatePeriodSeconds,
		"limits.max_file_mb":         c.Limits.MaxFileMB,
	})
}

func (c *Config) validateYouTube() error {
	if c.YouTube.Attempts <= 0 {
		return errors.New("youtube.attempts must be positive")
	}
	if c.YouTube.BackoffSeconds < 0 {
		return errors.New("youtube.backoff_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateBot() error {
	if _, err := language.Parse(c.Bot.Language); err != nil {
		return fmt.Errorf("bot.language %q is not a valid language tag: %w", c.Bot.Language, err)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
