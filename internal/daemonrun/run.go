package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"reelfetch/internal/botapi"
	"reelfetch/internal/cache"
	"reelfetch/internal/config"
	"reelfetch/internal/daemon"
	"reelfetch/internal/errlog"
	"reelfetch/internal/flow"
	"reelfetch/internal/logging"
	"reelfetch/internal/metrics"
	"reelfetch/internal/preflight"
	"reelfetch/internal/scratch"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the reelfetch server and blocks until SIGINT, SIGTERM or a
// fatal component error.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.RequireBotToken(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "reelfetch.log")},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	errs, err := errlog.Open(cfg.ErrorLogPath(), cfg.Logging.ErrorLogMaxMB, cfg.Logging.ErrorLogBackups)
	if err != nil {
		return fmt.Errorf("open error log: %w", err)
	}
	defer errs.Close()

	logDependencySnapshot(signalCtx, logger, cfg)
	scratch.CleanStale(signalCtx, cfg.Paths.ScratchDir, scratch.DefaultMaxAge, logger)
	pidPath := filepath.Join(cfg.Paths.LogDir, "reelfetch.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rec := metrics.New()
	svc, err := flow.NewFromConfig(cfg, logger, errs, rec)
	if err != nil {
		logger.Error("build request flow", logging.Error(err))
		return err
	}

	server, err := botapi.New(botapi.Options{
		Token:     cfg.Bot.Token,
		Language:  cfg.Bot.Language,
		MaxFileMB: cfg.Limits.MaxFileMB,
		Downloads: svc.Flow,
		Stats:     svc.Ledger,
		Queue:     svc.Flow.Gate(),
		Metrics:   rec,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}

	var sweeper daemon.Worker
	if interval := cfg.CacheSweepInterval(); interval > 0 {
		sweeper = cache.NewSweeper(svc.Cache, interval, logger)
	}

	d, err := daemon.New(cfg, logger, server, sweeper)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("reelfetch daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("bot_token_present", strings.TrimSpace(cfg.Bot.Token) != ""),
		logging.Bool("youtube_cookies", strings.TrimSpace(cfg.YouTube.CookiesFile) != ""),
		logging.String("cache_dir", cfg.Paths.CacheDir),
		logging.String("ledger_path", cfg.Paths.LedgerPath),
		logging.Int("queue_capacity", cfg.Limits.QueueCapacity),
		logging.Int("max_file_mb", cfg.Limits.MaxFileMB),
	)
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		impact := "some downloads may fail"
		if result.Optional {
			impact = "degraded performance"
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.Bool("optional", result.Optional),
			logging.String(logging.FieldErrorHint, "run `reelfetch config validate` for the full report"),
			logging.String(logging.FieldImpact, impact))
	}
}
