package quote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAdmitsUpToMaxImmediately(t *testing.T) {
	limiter, err := NewLimiter(5, time.Second)
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
	require.Equal(t, 5, limiter.Pending())
}

func TestLimiterEnforcesRollingWindow(t *testing.T) {
	// 3 calls per 300ms: the 4th call of each window must wait for the
	// oldest timestamp to expire. 10 calls therefore need at least three
	// full windows beyond the initial burst.
	limiter, err := NewLimiter(3, 300*time.Millisecond)
	require.NoError(t, err)

	var stamps []time.Time
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
		stamps = append(stamps, time.Now())
	}

	// Timestamp-gap assertion: call i and call i+maxCalls must be at least
	// one window apart.
	for i := 0; i+3 < len(stamps); i++ {
		gap := stamps[i+3].Sub(stamps[i])
		require.GreaterOrEqual(t, gap, 290*time.Millisecond,
			"calls %d and %d only %s apart", i, i+3, gap)
	}
}

func TestLimiterConcurrentCallersShareBudget(t *testing.T) {
	limiter, err := NewLimiter(4, 200*time.Millisecond)
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stamps []time.Time
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, limiter.Acquire(context.Background()))
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 12)
	// 12 admissions at 4 per 200ms need two additional windows.
	var min, max time.Time
	for _, s := range stamps {
		if min.IsZero() || s.Before(min) {
			min = s
		}
		if s.After(max) {
			max = s
		}
	}
	require.GreaterOrEqual(t, max.Sub(min), 390*time.Millisecond)
}

func TestLimiterAcquireCancelled(t *testing.T) {
	limiter, err := NewLimiter(1, time.Minute)
	require.NoError(t, err)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = limiter.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiterRejectsInvalidConfig(t *testing.T) {
	_, err := NewLimiter(0, time.Second)
	require.Error(t, err)
	_, err = NewLimiter(10, 0)
	require.Error(t, err)
}
