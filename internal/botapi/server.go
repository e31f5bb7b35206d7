package botapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/text/message"

	"reelfetch/internal/flow"
	"reelfetch/internal/ledger"
	"reelfetch/internal/logging"
	"reelfetch/internal/media"
	"reelfetch/internal/metrics"
	"reelfetch/internal/services"
)

const shutdownTimeout = 10 * time.Second

// HeaderOutcome carries the flow outcome on every download response.
const HeaderOutcome = "X-Reelfetch-Outcome"

// Downloads runs a request through the flow.
type Downloads interface {
	Handle(ctx context.Context, req media.Request) (*flow.Result, error)
}

// StatsSource reports usage counters.
type StatsSource interface {
	Snapshot() ledger.Stats
}

// QueueInfo reports gate occupancy.
type QueueInfo interface {
	Depth() int
	Capacity() int
}

// Options configures the server. Metrics and Logger may be nil.
type Options struct {
	Token     string
	Language  string
	MaxFileMB int
	Downloads Downloads
	Stats     StatsSource
	Queue     QueueInfo
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

// Server is the HTTP command surface a chat transport talks to.
type Server struct {
	echo      *echo.Echo
	downloads Downloads
	stats     StatsSource
	queue     QueueInfo
	maxFileMB int
	messages  *localizer
	logger    *slog.Logger
}

// New wires routes and middleware.
func New(opts Options) (*Server, error) {
	if opts.Downloads == nil || opts.Stats == nil || opts.Queue == nil {
		return nil, errors.New("botapi: downloads, stats and queue are required")
	}
	messages, err := newLocalizer(opts.Language)
	if err != nil {
		return nil, fmt.Errorf("botapi: language: %w", err)
	}
	s := &Server{
		echo:      echo.New(),
		downloads: opts.Downloads,
		stats:     opts.Stats,
		queue:     opts.Queue,
		maxFileMB: opts.MaxFileMB,
		messages:  messages,
		logger:    logging.NewComponentLogger(opts.Logger, "botapi"),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.requestLogger())

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()), s.bearerAuth(opts.Token))

	api := e.Group("/api/v1", s.bearerAuth(opts.Token))
	api.POST("/commands", s.handleCommand)
	api.POST("/downloads", s.handleDownload)
	api.GET("/stats", s.handleStats)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on bind until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, bind string) error {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan struct{})
	shutdownErr := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			shutdownErr <- nil
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		close(stop)
		<-shutdownErr
		return fmt.Errorf("api serve: %w", err)
	}
	return <-shutdownErr
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []logging.Attr{
				logging.String("method", v.Method),
				logging.String("uri", v.URI),
				logging.Int("status", v.Status),
				logging.Int64("latency_ms", v.Latency.Milliseconds()),
				logging.String(logging.FieldCorrelationID, v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, logging.Error(v.Error))
			}
			s.logger.Info("http request", logging.Args(attrs...)...)
			return nil
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.statsResponse())
}

func (s *Server) statsResponse() StatsResponse {
	snap := s.stats.Snapshot()
	return StatsResponse{
		Downloads:     snap.Downloads,
		Users:         snap.Users,
		Platforms:     snap.Platforms,
		QueueDepth:    s.queue.Depth(),
		QueueCapacity: s.queue.Capacity(),
	}
}

func (s *Server) handleCommand(c echo.Context) error {
	var req CommandRequest
	if err := c.Bind(&req); err != nil {
		return s.reject(c, s.printerFor(c, ""), services.Wrap(services.ErrUnknownCommand, "botapi", "bind", "", err))
	}
	p := s.printerFor(c, req.Language)

	cmd, err := ParseCommand(req.Text)
	if err != nil {
		return s.reject(c, p, err)
	}
	switch cmd.Kind {
	case CommandStart:
		return c.JSON(http.StatusOK, CommandResponse{Reply: p.Sprintf(msgWelcome)})
	case CommandHelp:
		return c.JSON(http.StatusOK, CommandResponse{Reply: p.Sprintf(msgHelp, s.maxFileMB)})
	case CommandStats:
		snap := s.stats.Snapshot()
		return c.JSON(http.StatusOK, CommandResponse{Reply: p.Sprintf(msgStats, snap.Downloads, len(snap.Users))})
	case CommandDownload:
		if cmd.Quality == "" {
			return c.JSON(http.StatusOK, qualityPrompt(p, cmd))
		}
		return s.download(c, p, req.UserID, cmd.Platform, cmd.URL, cmd.Quality)
	default:
		return s.reject(c, p, services.Wrap(services.ErrUnknownCommand, "botapi", "command", string(cmd.Kind), nil))
	}
}

func (s *Server) handleDownload(c echo.Context) error {
	var req DownloadRequest
	if err := c.Bind(&req); err != nil {
		return s.reject(c, s.printerFor(c, ""), services.Wrap(services.ErrInvalidURL, "botapi", "bind", "", err))
	}
	p := s.printerFor(c, req.Language)

	platform, err := media.ParsePlatform(req.Platform)
	if err != nil {
		return s.reject(c, p, services.Wrap(services.ErrUnknownCommand, "botapi", "download", "", err))
	}
	quality, err := media.ParseQuality(req.Quality)
	if err != nil {
		return s.reject(c, p, services.Wrap(services.ErrInvalidURL, "botapi", "download", "", err))
	}
	return s.download(c, p, req.UserID, platform, req.URL, quality)
}

func (s *Server) download(c echo.Context, p *message.Printer, userID string, platform media.Platform, rawURL string, quality media.Quality) error {
	if strings.TrimSpace(userID) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "user_id is required"})
	}
	req, err := media.NewRequest(userID, platform, rawURL, quality)
	if err != nil {
		return s.reject(c, p, services.Wrap(services.ErrInvalidURL, "botapi", "download", "", err))
	}

	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		ctx = services.WithRequestID(ctx, id)
	}
	res, err := s.downloads.Handle(ctx, req)
	defer func() {
		if closeErr := res.Close(); closeErr != nil {
			s.logger.Warn("scratch cleanup failed", logging.String("path", res.Path), logging.Error(closeErr))
		}
	}()
	if res != nil {
		c.Response().Header().Set(HeaderOutcome, res.Outcome.String())
	}
	if err != nil {
		return s.reject(c, p, err)
	}
	return c.Attachment(res.Path, fmt.Sprintf("%s-%s.mp4", req.Platform, req.Quality.Label()))
}

func qualityPrompt(p *message.Printer, cmd Command) CommandResponse {
	choices := make([]QualityChoice, 0, len(media.Qualities()))
	for _, q := range media.Qualities() {
		choices = append(choices, QualityChoice{Quality: string(q), Label: q.Label()})
	}
	return CommandResponse{
		Reply:   p.Sprintf(msgChooseQuality),
		Choices: choices,
		Target:  &DownloadTarget{Platform: cmd.Platform.String(), URL: cmd.URL},
	}
}

// reject answers with the fixed message and status for err's marker.
func (s *Server) reject(c echo.Context, p *message.Printer, err error) error {
	reason := services.Reason(err)
	var status int
	var text string
	switch reason {
	case "queue_full":
		status, text = http.StatusServiceUnavailable, p.Sprintf(msgQueueFull)
	case "rate_limited":
		status, text = http.StatusTooManyRequests, p.Sprintf(msgRateLimited)
	case "file_too_large":
		status, text = http.StatusRequestEntityTooLarge, p.Sprintf(msgFileTooLarge, s.maxFileMB)
	case "invalid_url":
		status, text = http.StatusBadRequest, p.Sprintf(msgInvalidURL)
	case "unknown_command":
		status, text = http.StatusBadRequest, p.Sprintf(msgUnknownCommand)
	default:
		status, text = http.StatusBadGateway, p.Sprintf(msgDownloadFailed)
	}
	s.logger.Debug("request rejected", logging.String("reason", reason), logging.Error(err))
	return c.JSON(status, ErrorResponse{
		Error:     reason,
		Message:   text,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}

func (s *Server) printerFor(c echo.Context, explicit string) *message.Printer {
	if explicit != "" {
		return s.messages.printer(explicit)
	}
	return s.messages.printer(c.Request().Header.Get("Accept-Language"))
}
