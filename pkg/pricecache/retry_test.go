package pricecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicyStopsWhenDone(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Backoffs: []time.Duration{time.Millisecond}}

	var attempts []int
	p.Do(context.Background(), func(attempt int) bool {
		attempts = append(attempts, attempt)
		return attempt < 1
	})
	require.Equal(t, []int{0, 1}, attempts)
}

func TestRetryPolicyHonoursAttemptCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Backoffs: []time.Duration{time.Millisecond}}

	calls := 0
	p.Do(context.Background(), func(int) bool {
		calls++
		return true
	})
	require.Equal(t, 3, calls)
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, Backoffs: []time.Duration{time.Hour}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Do(ctx, func(int) bool {
			cancel()
			return true
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do did not stop after context cancellation")
	}
}

func TestRetryPolicyBackoffSchedule(t *testing.T) {
	p := DefaultRetryPolicy()
	require.Equal(t, time.Second, p.backoff(0))
	require.Equal(t, 2*time.Second, p.backoff(1))
	require.Equal(t, 5*time.Second, p.backoff(2))
	// Past the schedule the last delay repeats.
	require.Equal(t, 5*time.Second, p.backoff(7))
}
