package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrQueueFull      = errors.New("queue full")
	ErrRateLimited    = errors.New("rate limited")
	ErrDownloadFailed = errors.New("download failed")
	ErrFileTooLarge   = errors.New("file too large")
	ErrStorage        = errors.New("storage failure")
	ErrPersistence    = errors.New("persistence failure")
	ErrInvalidURL     = errors.New("invalid url")
	ErrUnknownCommand = errors.New("unknown command")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrDownloadFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Reason maps an error to the short, stable label used in metrics and
// user-facing message selection.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrFileTooLarge):
		return "file_too_large"
	case errors.Is(err, ErrInvalidURL):
		return "invalid_url"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "download_failed"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
