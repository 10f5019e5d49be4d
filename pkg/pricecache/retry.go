package pricecache

import (
	"context"
	"time"
)

// Default backoff schedule between batch attempts.
var defaultBackoffs = []time.Duration{time.Second, 2 * time.Second, 5 * time.Second}

// RetryPolicy is the single retry configuration used for every batch fetch:
// an attempt cap plus an explicit backoff schedule. Keeping it in one value
// makes the behaviour testable in isolation from network code.
type RetryPolicy struct {
	MaxAttempts int
	Backoffs    []time.Duration
}

// DefaultRetryPolicy returns the standard 3-attempt 1s/2s/5s policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoffs: defaultBackoffs}
}

func (p RetryPolicy) normalised() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if len(p.Backoffs) == 0 {
		p.Backoffs = defaultBackoffs
	}
	return p
}

// backoff returns the sleep before attempt n+1 (0-based n).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if attempt >= len(p.Backoffs) {
		return p.Backoffs[len(p.Backoffs)-1]
	}
	return p.Backoffs[attempt]
}

// Do runs fn up to MaxAttempts times. fn reports via its return whether
// another attempt is wanted; Do sleeps the scheduled backoff in between and
// stops early when ctx is cancelled. Giving up is not an error: the caller's
// cache keeps whatever it already has.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) (retry bool)) {
	p = p.normalised()
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		if !fn(attempt) {
			return
		}
		if attempt == p.MaxAttempts-1 {
			return
		}
		timer := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
