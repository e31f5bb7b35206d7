package flow

import (
	"errors"
	"os"
)

// Outcome is the terminal state of one request.
type Outcome string

const (
	OutcomeRejectedCapacity Outcome = "rejected_capacity"
	OutcomeRejectedRate     Outcome = "rejected_rate"
	OutcomeServedCache      Outcome = "served_cache"
	OutcomeFailedDownload   Outcome = "failed_download"
	OutcomeRejectedTooLarge Outcome = "rejected_too_large"
	OutcomeServedFresh      Outcome = "served_fresh"
)

// Served reports whether the outcome delivers a file.
func (o Outcome) Served() bool {
	return o == OutcomeServedCache || o == OutcomeServedFresh
}

func (o Outcome) String() string { return string(o) }

// Result describes what Handle decided. Path and Size are set only when a
// file is delivered. Callers must Close the result once the file has been
// sent.
type Result struct {
	RequestID string
	Outcome   Outcome
	Path      string
	Size      int64
	// Cached is false when the file could not be moved into the cache and
	// Path points at a scratch file that Close deletes.
	Cached bool
}

// Close removes the scratch file behind an uncached delivery. It is a no-op
// for cache-backed results.
func (r *Result) Close() error {
	if r == nil || r.Cached || r.Path == "" {
		return nil
	}
	err := os.Remove(r.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
