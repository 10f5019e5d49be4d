package quote

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter bounds outbound quote-source calls to maxCalls per rolling window.
// It is a single shared counter: all callers, interactive and scheduled, draw
// from the same budget. Acquire never drops a call silently; the only error
// path is caller cancellation.
type Limiter struct {
	maxCalls int
	window   time.Duration

	mu    sync.Mutex
	calls []time.Time

	now func() time.Time
}

// NewLimiter constructs a sliding-window limiter.
func NewLimiter(maxCalls int, window time.Duration) (*Limiter, error) {
	if maxCalls < 1 {
		return nil, fmt.Errorf("quote: limiter max calls must be positive, got %d", maxCalls)
	}
	if window <= 0 {
		return nil, fmt.Errorf("quote: limiter window must be positive, got %s", window)
	}
	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
		calls:    make([]time.Time, 0, maxCalls),
		now:      time.Now,
	}, nil
}

// Acquire blocks until a call slot is free within the rolling window, or
// returns the context error if the caller is cancelled first.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.evictLocked(now)

		if len(l.calls) < l.maxCalls {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		// Sleep until the oldest recorded call exits the window, then
		// re-check: another caller may have taken the freed slot.
		wait := l.window - now.Sub(l.calls[0])
		l.mu.Unlock()
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Pending reports how many call slots are currently consumed.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictLocked(l.now())
	return len(l.calls)
}

func (l *Limiter) evictLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(l.calls) && !l.calls[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.calls = append(l.calls[:0], l.calls[idx:]...)
	}
}
