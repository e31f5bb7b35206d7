package admission

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTrackedUsers bounds the windows held when the caller passes no limit.
const DefaultTrackedUsers = 10000

// Limiter enforces a per-user sliding-window quota. Windows for users that
// have been idle longer than the period expire on their own, and at most
// maxUsers windows are tracked at once. The quota is exact only while fewer
// than maxUsers distinct users are active inside one period: beyond that the
// least recently seen window is evicted and that user starts a fresh quota.
type Limiter struct {
	mu      sync.Mutex
	quota   int
	period  time.Duration
	now     func() time.Time
	windows *expirable.LRU[string, []time.Time]
}

// LimiterOption customizes a Limiter.
type LimiterOption func(*Limiter)

// WithNow overrides the limiter clock.
func WithNow(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter allows quota requests per user in any trailing period.
func NewLimiter(quota int, period time.Duration, maxUsers int, opts ...LimiterOption) (*Limiter, error) {
	if quota <= 0 {
		return nil, fmt.Errorf("rate quota must be positive, got %d", quota)
	}
	if period <= 0 {
		return nil, fmt.Errorf("rate period must be positive, got %s", period)
	}
	if maxUsers <= 0 {
		maxUsers = DefaultTrackedUsers
	}
	l := &Limiter{
		quota:   quota,
		period:  period,
		now:     time.Now,
		windows: expirable.NewLRU[string, []time.Time](maxUsers, nil, period),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow prunes the user's window and records the request if the quota
// allows it. Denied requests are not recorded. The check and the record
// happen under one lock so concurrent calls cannot both take the last slot.
func (l *Limiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	window, _ := l.windows.Get(userID)
	window = prune(window, now.Add(-l.period))
	if len(window) >= l.quota {
		l.windows.Add(userID, window)
		return false
	}
	l.windows.Add(userID, append(window, now))
	return true
}

// Remaining reports how many more requests userID may make right now.
func (l *Limiter) Remaining(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	window, _ := l.windows.Peek(userID)
	window = prune(window, l.now().Add(-l.period))
	if rem := l.quota - len(window); rem > 0 {
		return rem
	}
	return 0
}

// prune drops timestamps at or before cutoff. The slice is ordered, so the
// first survivor marks the start of the window.
func prune(window []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(window) && !window[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return window
	}
	kept := make([]time.Time, len(window)-idx, len(window)-idx+1)
	copy(kept, window[idx:])
	return kept
}
