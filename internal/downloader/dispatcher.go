package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelfetch/internal/config"
	"reelfetch/internal/errlog"
	"reelfetch/internal/fileutil"
	"reelfetch/internal/httpx"
	"reelfetch/internal/logging"
	"reelfetch/internal/media"
	"reelfetch/internal/metrics"
	"reelfetch/internal/services"
)

// Options wires the dispatcher to its adapters.
type Options struct {
	ScratchDir string
	YouTube    YouTubeOptions
	HTTPClient *http.Client
}

// Dispatcher routes a request to the adapter for its platform and hides
// adapter failures behind services.ErrDownloadFailed.
type Dispatcher struct {
	scratchDir string
	youtube    Fetcher
	instagram  Fetcher
	tiktok     Fetcher
	logger     *slog.Logger
	errs       *errlog.Log
	metrics    *metrics.Recorder
}

// New builds a dispatcher with the three platform adapters. errs and rec may
// be nil.
func New(opts Options, logger *slog.Logger, errs *errlog.Log, rec *metrics.Recorder) (*Dispatcher, error) {
	scratch := strings.TrimSpace(opts.ScratchDir)
	if scratch == "" {
		return nil, errors.New("scratch directory is required")
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	client := opts.HTTPClient
	if client == nil {
		client = httpx.NewClient(0, nil)
	}
	yt := opts.YouTube
	if yt.OnAttempt == nil {
		yt.OnAttempt = func() { rec.ObserveAttempt(media.PlatformYouTube.String()) }
	}
	return &Dispatcher{
		scratchDir: scratch,
		youtube:    NewYouTube(yt, logger),
		instagram:  NewInstagram(client, func() { rec.ObserveAttempt(media.PlatformInstagram.String()) }),
		tiktok:     NewTikTok(client, func() { rec.ObserveAttempt(media.PlatformTikTok.String()) }),
		logger:     logging.NewComponentLogger(logger, "downloader"),
		errs:       errs,
		metrics:    rec,
	}, nil
}

// NewFromConfig builds a dispatcher from application settings.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, errs *errlog.Log, rec *metrics.Recorder) (*Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	client := httpx.NewClient(cfg.HTTPTimeout(), cfg.HTTP.UserAgents)
	var userAgent string
	if tr, ok := client.Transport.(*httpx.Transport); ok {
		userAgent = tr.UserAgent()
	}
	return New(Options{
		ScratchDir: cfg.Paths.ScratchDir,
		HTTPClient: client,
		YouTube: YouTubeOptions{
			Binary:        cfg.YouTube.Binary,
			CookiesFile:   cfg.YouTube.CookiesFile,
			UserAgent:     userAgent,
			SocketTimeout: time.Duration(cfg.YouTube.SocketTimeoutSeconds) * time.Second,
			Attempts:      cfg.YouTube.Attempts,
			Backoff:       cfg.YouTubeBackoff(),
		},
	}, logger, errs, rec)
}

// ScratchDir returns where downloads land before they are cached.
func (d *Dispatcher) ScratchDir() string { return d.scratchDir }

// Fetch downloads req into a fresh scratch file and returns its path. The
// caller owns the file. Every failure comes back as ErrDownloadFailed; the
// underlying cause goes to the logs only.
func (d *Dispatcher) Fetch(ctx context.Context, req media.Request) (string, error) {
	fetcher, err := d.fetcherFor(req.Platform)
	if err != nil {
		return "", d.fail(ctx, req, "", err)
	}

	dest := scratchPath(d.scratchDir, req.Platform)
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("download started",
		logging.String(logging.FieldPlatform, req.Platform.String()),
		logging.String(logging.FieldURL, req.URL),
		logging.String("quality", req.Quality.Label()))

	started := time.Now()
	err = fetcher.Fetch(ctx, req, dest)
	if err == nil {
		err = checkOutput(dest)
	}
	d.metrics.ObserveDownload(req.Platform.String(), time.Since(started), err)
	if err != nil {
		return "", d.fail(ctx, req, dest, err)
	}

	logger.Info("download finished",
		logging.String(logging.FieldPlatform, req.Platform.String()),
		logging.String("path", dest),
		logging.Duration("elapsed", time.Since(started)))
	return dest, nil
}

func (d *Dispatcher) fetcherFor(p media.Platform) (Fetcher, error) {
	switch p {
	case media.PlatformYouTube:
		return d.youtube, nil
	case media.PlatformInstagram:
		return d.instagram, nil
	case media.PlatformTikTok:
		return d.tiktok, nil
	default:
		return nil, fmt.Errorf("no downloader for platform %q", p)
	}
}

func (d *Dispatcher) fail(ctx context.Context, req media.Request, dest string, cause error) error {
	if dest != "" {
		removePartials(dest)
	}
	logging.WarnWithContext(logging.WithContext(ctx, d.logger), "download failed", "download_failed",
		logging.String(logging.FieldPlatform, req.Platform.String()),
		logging.String(logging.FieldURL, req.URL),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "see the error log for the stack trace"),
		logging.String(logging.FieldImpact, "user receives the download failed message"))
	d.errs.Record(ctx, cause)
	return services.Wrap(services.ErrDownloadFailed, "downloader", "fetch", req.Platform.String(), nil)
}

func checkOutput(dest string) error {
	size, err := fileutil.Size(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoOutput, err)
	}
	if size == 0 {
		return ErrEmptyFile
	}
	return nil
}

// removePartials deletes dest and anything yt-dlp left next to it under the
// same stem (.part files, unmerged streams).
func removePartials(dest string) {
	stem := strings.TrimSuffix(dest, filepath.Ext(dest))
	matches, _ := filepath.Glob(stem + "*")
	for _, path := range matches {
		_ = os.Remove(path)
	}
	_ = os.Remove(dest)
}
