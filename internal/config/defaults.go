package config

import "path/filepath"

const (
	defaultLedgerPath           = "~/.local/share/reelfetch/usage.json"
	defaultLogDir               = "~/.local/share/reelfetch/logs"
	defaultAPIBind              = "127.0.0.1:8787"
	defaultLanguage             = "en"
	defaultCacheTTLHours        = 24
	defaultQueueCapacity        = 10
	defaultRateQuota            = 5
	defaultRatePeriodSeconds    = 60
	defaultRateTrackedUsers     = 10000
	defaultMaxFileMB            = 50
	defaultYouTubeBinary        = "yt-dlp"
	defaultYouTubeAttempts      = 3
	defaultYouTubeBackoff       = 2
	defaultYouTubeSocketTimeout = 30
	defaultHTTPTimeoutSeconds   = 60
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultErrorLogMaxMB        = 10
	defaultErrorLogBackups      = 5
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	cacheRoot := defaultCacheRoot()
	return Config{
		Paths: Paths{
			CacheDir:   filepath.Join(cacheRoot, "videos"),
			ScratchDir: filepath.Join(cacheRoot, "scratch"),
			LedgerPath: defaultLedgerPath,
			LogDir:     defaultLogDir,
		},
		Bot: Bot{
			APIBind:  defaultAPIBind,
			Language: defaultLanguage,
		},
		Limits: Limits{
			CacheTTLHours:     defaultCacheTTLHours,
			QueueCapacity:     defaultQueueCapacity,
			RateQuota:         defaultRateQuota,
			RatePeriodSeconds: defaultRatePeriodSeconds,
			RateTrackedUsers:  defaultRateTrackedUsers,
			MaxFileMB:         defaultMaxFileMB,
		},
		YouTube: YouTube{
			Binary:               defaultYouTubeBinary,
			Attempts:             defaultYouTubeAttempts,
			BackoffSeconds:       defaultYouTubeBackoff,
			SocketTimeoutSeconds: defaultYouTubeSocketTimeout,
		},
		HTTP: HTTP{
			TimeoutSeconds: defaultHTTPTimeoutSeconds,
			UserAgents:     append([]string(nil), defaultUserAgents...),
		},
		Logging: Logging{
			Format:          defaultLogFormat,
			Level:           defaultLogLevel,
			ErrorLogMaxMB:   defaultErrorLogMaxMB,
			ErrorLogBackups: defaultErrorLogBackups,
		},
	}
}
