package downloader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoStream means the source has no downloadable stream in any acceptable
	// format. Retrying cannot help.
	ErrNoStream = errors.New("no stream found")
	// ErrNoMedia means the post page did not advertise a video URL.
	ErrNoMedia = errors.New("media url not found")
	// ErrNoOutput means the tool reported success but left no file behind.
	ErrNoOutput = errors.New("downloader produced no file")
	// ErrEmptyFile means the download finished with zero bytes.
	ErrEmptyFile = errors.New("downloaded file is empty")
)

// StatusError reports a non-200 answer from a media or metadata endpoint.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "unexpected HTTP status"
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, strings.TrimSpace(e.URL))
}

// Error ties an adapter failure to the platform and stage that produced it.
// Stage is "metadata" or "media" for direct fetches and "ytdlp" for YouTube.
type Error struct {
	Platform string
	Stage    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform=%s stage=%s: %v", e.Platform, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
