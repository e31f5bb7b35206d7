package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	pkgerrors "github.com/pkg/errors"

	"reelfetch/internal/logging"
	"reelfetch/internal/media"
)

const (
	defaultYouTubeAttempts = 3
	defaultYouTubeBackoff  = 2 * time.Second
)

// noStreamMarkers are yt-dlp stderr fragments meaning no acceptable format exists.
var noStreamMarkers = []string{
	"requested format is not available",
	"no video formats found",
}

// YouTubeOptions configures the yt-dlp adapter.
type YouTubeOptions struct {
	Binary        string
	CookiesFile   string
	UserAgent     string
	SocketTimeout time.Duration
	Attempts      int
	Backoff       time.Duration
	// OnAttempt runs before every yt-dlp invocation, retries included.
	OnAttempt func()
}

// ytdlpArgs is the per-invocation argument set handed to a runner.
type ytdlpArgs struct {
	Binary        string
	Format        string
	Output        string
	CookiesFile   string
	UserAgent     string
	SocketTimeout time.Duration
}

// runner executes yt-dlp once and returns its stderr alongside any error.
type runner func(ctx context.Context, url string, args ytdlpArgs) (string, error)

// YouTube downloads through yt-dlp with a bounded, fixed-delay retry.
type YouTube struct {
	opts   YouTubeOptions
	run    runner
	logger *slog.Logger
}

// NewYouTube builds the adapter. Zero attempts or backoff select 3 and 2s.
func NewYouTube(opts YouTubeOptions, logger *slog.Logger) *YouTube {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultYouTubeAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultYouTubeBackoff
	}
	return &YouTube{
		opts:   opts,
		run:    runYTDLP,
		logger: logging.NewComponentLogger(logger, "youtube"),
	}
}

// FormatFor returns the yt-dlp selector for a quality tier: the exact height
// as mp4 first, then the best mp4 of any height.
func FormatFor(q media.Quality) string {
	h := q.Height()
	return fmt.Sprintf(
		"bv*[height=%d][ext=mp4]+ba[ext=m4a]/b[height=%d][ext=mp4]/bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]",
		h, h,
	)
}

// Fetch runs yt-dlp until it produces dest, the attempts run out, or the
// failure says no stream exists.
func (y *YouTube) Fetch(ctx context.Context, req media.Request, dest string) error {
	args := ytdlpArgs{
		Binary:        y.opts.Binary,
		Format:        FormatFor(req.Quality),
		Output:        strings.TrimSuffix(dest, ".mp4") + ".%(ext)s",
		CookiesFile:   y.opts.CookiesFile,
		UserAgent:     y.opts.UserAgent,
		SocketTimeout: y.opts.SocketTimeout,
	}
	logger := logging.WithContext(ctx, y.logger)

	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			if y.opts.OnAttempt != nil {
				y.opts.OnAttempt()
			}
			logger.Debug("yt-dlp attempt",
				logging.Int("attempt", attempt),
				logging.String("format", args.Format))
			stderr, err := y.run(ctx, req.URL, args)
			if err != nil {
				if hasNoStream(stderr) || hasNoStream(err.Error()) {
					return pkgerrors.Wrapf(ErrNoStream, "%s at %s", req.URL, req.Quality.Label())
				}
				return pkgerrors.Wrapf(err, "yt-dlp attempt %d", attempt)
			}
			if _, statErr := os.Stat(dest); statErr != nil {
				return pkgerrors.Wrapf(ErrNoOutput, "expected %s", dest)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(y.opts.Attempts)),
		retry.Delay(y.opts.Backoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrNoStream) && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("yt-dlp attempt failed",
				logging.Int("attempt", int(n)+1),
				logging.Int("max_attempts", y.opts.Attempts),
				logging.Error(err),
				logging.String(logging.FieldEventType, "youtube_attempt_failed"))
		}),
	)
	if err != nil {
		return &Error{Platform: media.PlatformYouTube.String(), Stage: "ytdlp", Err: err}
	}
	return nil
}

func hasNoStream(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range noStreamMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
