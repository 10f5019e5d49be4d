package pricecache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stocksim-api/pkg/calendar"
	"stocksim-api/pkg/quote"
)

// fixedSessions always reports the same session kind.
type fixedSessions struct {
	kind calendar.Kind
}

func (f fixedSessions) Session(time.Time) calendar.SessionState {
	return calendar.SessionState{Kind: f.kind, IsOpen: f.kind == calendar.KindRegular}
}

// scriptedSource answers FetchBatch from a script keyed by call number.
type scriptedSource struct {
	mu      sync.Mutex
	calls   int
	blockOn chan struct{} // when set, FetchBatch waits for close
	script  func(call int, symbols []quote.Symbol) map[quote.Symbol]quote.FetchResult
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) FetchBatch(ctx context.Context, symbols []quote.Symbol) (map[quote.Symbol]quote.FetchResult, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	block := s.blockOn
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.script(call, symbols), nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func snapshotFor(sym quote.Symbol, price float64) map[quote.Symbol]quote.FetchResult {
	return map[quote.Symbol]quote.FetchResult{
		sym: {Snapshot: &quote.Snapshot{Symbol: sym, CurrentPrice: price, PreviousClose: price - 1}},
	}
}

func failFor(sym quote.Symbol, kind quote.ErrorKind) map[quote.Symbol]quote.FetchResult {
	return map[quote.Symbol]quote.FetchResult{
		sym: {Err: quote.NewFetchError(kind, errors.New("scripted failure"))},
	}
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, Backoffs: []time.Duration{time.Millisecond}}
}

func newTestCache(t *testing.T, source quote.Source, opts ...Option) *Cache {
	t.Helper()
	cache, err := New(source, fixedSessions{kind: calendar.KindRegular},
		Config{Retry: fastRetry(), FetchTimeout: 2 * time.Second}, opts...)
	require.NoError(t, err)
	return cache
}

func TestGetOrRefreshCoalescesConcurrentCallers(t *testing.T) {
	release := make(chan struct{})
	source := &scriptedSource{
		blockOn: release,
		script: func(int, []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			return snapshotFor("TCS.NS", 3500)
		},
	}
	cache := newTestCache(t, source)

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]map[quote.Symbol]quote.Snapshot, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
			require.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Give every waiter time to join the in-flight fetch, then release it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, source.callCount(), "coalescing must issue exactly one source call")
	for _, res := range results {
		require.InDelta(t, 3500.0, res["TCS.NS"].CurrentPrice, 1e-9)
	}
}

func TestGetOrRefreshRespectsTTL(t *testing.T) {
	now := time.Date(2025, 8, 26, 11, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	source := &scriptedSource{
		script: func(int, []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			return snapshotFor("TCS.NS", 3500)
		},
	}
	cache := newTestCache(t, source, WithClock(clock))

	first, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
	require.NoError(t, err)

	// 5 seconds later, well inside the 30s open-session TTL.
	now = now.Add(5 * time.Second)
	second, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
	require.NoError(t, err)

	require.Equal(t, 1, source.callCount(), "fresh entry must not trigger a source call")
	require.Equal(t, first["TCS.NS"].AsOf, second["TCS.NS"].AsOf)

	// Past the TTL the next read refreshes.
	now = now.Add(31 * time.Second)
	_, err = cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
	require.NoError(t, err)
	require.Equal(t, 2, source.callCount())
}

func TestGetOrRefreshForceBypassesTTL(t *testing.T) {
	source := &scriptedSource{
		script: func(call int, _ []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			return snapshotFor("TCS.NS", 3500+float64(call))
		},
	}
	cache := newTestCache(t, source)

	_, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
	require.NoError(t, err)
	res, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, true)
	require.NoError(t, err)

	require.Equal(t, 2, source.callCount())
	require.InDelta(t, 3502.0, res["TCS.NS"].CurrentPrice, 1e-9)
}

func TestGetOrRefreshKeepsStaleSnapshotOnFailure(t *testing.T) {
	source := &scriptedSource{
		script: func(call int, _ []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			if call == 1 {
				return snapshotFor("TCS.NS", 3500)
			}
			return failFor("TCS.NS", quote.ErrTransient)
		},
	}
	cache := newTestCache(t, source)

	_, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
	require.NoError(t, err)

	res, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, true)
	require.NoError(t, err)

	snap, ok := res["TCS.NS"]
	require.True(t, ok, "stale snapshot must survive a failed refresh")
	require.InDelta(t, 3500.0, snap.CurrentPrice, 1e-9)
}

func TestRefreshBatchCountsOnlyFreshFetches(t *testing.T) {
	source := &scriptedSource{
		script: func(call int, _ []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			if call == 1 {
				return snapshotFor("TCS.NS", 3500)
			}
			return failFor("TCS.NS", quote.ErrTransient)
		},
	}
	cache := newTestCache(t, source)

	snaps, applied, err := cache.RefreshBatch(context.Background(), []quote.Symbol{"TCS.NS"})
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	require.Len(t, snaps, 1)

	// Sustained outage: stale snapshots keep flowing but the applied count
	// drops to zero, so a loop tracking updates sees the failure.
	for cycle := 0; cycle < 3; cycle++ {
		snaps, applied, err = cache.RefreshBatch(context.Background(), []quote.Symbol{"TCS.NS"})
		require.NoError(t, err)
		require.Zero(t, applied, "stale fallback must not count as an update")
		require.InDelta(t, 3500.0, snaps["TCS.NS"].CurrentPrice, 1e-9)
	}
}

func TestGetOrRefreshNeverSeenSymbolIsAbsent(t *testing.T) {
	source := &scriptedSource{
		script: func(int, []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			return failFor("GHOST.NS", quote.ErrNotFound)
		},
	}
	cache := newTestCache(t, source)

	res, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"GHOST.NS"}, true)
	require.NoError(t, err)
	_, ok := res["GHOST.NS"]
	require.False(t, ok, "never-seen failing symbol must be reported as no data, not a zero price")

	// NotFound parks the symbol: a non-forced read inside the TTL stays quiet.
	_, err = cache.GetOrRefresh(context.Background(), []quote.Symbol{"GHOST.NS"}, false)
	require.NoError(t, err)
	require.Equal(t, 1, source.callCount())
}

func TestGetOrRefreshRetriesTransientWithinCycle(t *testing.T) {
	source := &scriptedSource{
		script: func(call int, _ []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			if call == 1 {
				return failFor("TCS.NS", quote.ErrTransient)
			}
			return snapshotFor("TCS.NS", 3500)
		},
	}
	cache, err := New(source, fixedSessions{kind: calendar.KindRegular}, Config{
		Retry:        RetryPolicy{MaxAttempts: 3, Backoffs: []time.Duration{time.Millisecond}},
		FetchTimeout: 2 * time.Second,
	})
	require.NoError(t, err)

	res, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, true)
	require.NoError(t, err)
	require.Equal(t, 2, source.callCount(), "transient failure retries within the cycle")
	require.InDelta(t, 3500.0, res["TCS.NS"].CurrentPrice, 1e-9)
}

func TestGetOrRefreshNoDataEscalatesToParked(t *testing.T) {
	source := &scriptedSource{
		script: func(int, []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			return failFor("THIN.NS", quote.ErrNoData)
		},
	}
	cache, err := New(source, fixedSessions{kind: calendar.KindRegular}, Config{
		Retry:        RetryPolicy{MaxAttempts: 3, Backoffs: []time.Duration{time.Millisecond}},
		FetchTimeout: 2 * time.Second,
		NoDataCycles: 2,
	})
	require.NoError(t, err)

	_, err = cache.GetOrRefresh(context.Background(), []quote.Symbol{"THIN.NS"}, true)
	require.NoError(t, err)
	// First no_data retried once, second escalates and parks the symbol.
	require.Equal(t, 2, source.callCount())

	_, err = cache.GetOrRefresh(context.Background(), []quote.Symbol{"THIN.NS"}, false)
	require.NoError(t, err)
	require.Equal(t, 2, source.callCount(), "parked symbol stays quiet until TTL expiry")
}

func TestGetOrRefreshCancelledWaiterLeavesFetchRunning(t *testing.T) {
	release := make(chan struct{})
	source := &scriptedSource{
		blockOn: release,
		script: func(int, []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			return snapshotFor("TCS.NS", 3500)
		},
	}
	cache := newTestCache(t, source)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := cache.GetOrRefresh(ctx, []quote.Symbol{"TCS.NS"}, false)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The coalesced fetch was not cancelled with the waiter: once the source
	// responds, later callers see the result without a second call.
	close(release)
	require.Eventually(t, func() bool {
		res, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
		return err == nil && res["TCS.NS"].CurrentPrice == 3500
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, 1, source.callCount())
}

// recordingStore tracks saves and serves canned snapshots.
type recordingStore struct {
	mu     sync.Mutex
	saved  []quote.Snapshot
	stored map[quote.Symbol]quote.Snapshot
}

func (s *recordingStore) LoadSnapshot(_ context.Context, sym quote.Symbol) (*quote.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.stored[sym]
	if !ok {
		return nil, false, nil
	}
	out := snap
	return &out, true, nil
}

func (s *recordingStore) SaveSnapshot(_ context.Context, snapshot *quote.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, *snapshot)
	return nil
}

func (s *recordingStore) ListActiveSymbols(_ context.Context, limit int, _ string) ([]quote.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]quote.Symbol, 0, len(s.stored))
	for sym := range s.stored {
		if len(out) == limit {
			break
		}
		out = append(out, sym)
	}
	return out, nil
}

func TestGetOrRefreshWritesThroughToStore(t *testing.T) {
	store := &recordingStore{stored: map[quote.Symbol]quote.Snapshot{}}
	source := &scriptedSource{
		script: func(int, []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			return snapshotFor("TCS.NS", 3500)
		},
	}
	cache := newTestCache(t, source, WithStore(store))

	_, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
	require.NoError(t, err)
	cache.persistWG.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.saved, 1)
	require.Equal(t, quote.Symbol("TCS.NS"), store.saved[0].Symbol)
}

func TestWarmSeedsFromStore(t *testing.T) {
	seeded := quote.Snapshot{
		Symbol:       "TCS.NS",
		CurrentPrice: 3400,
		AsOf:         time.Now().Add(-time.Hour),
	}
	store := &recordingStore{stored: map[quote.Symbol]quote.Snapshot{"TCS.NS": seeded}}
	source := &scriptedSource{
		script: func(int, []quote.Symbol) map[quote.Symbol]quote.FetchResult {
			return snapshotFor("TCS.NS", 3500)
		},
	}
	cache := newTestCache(t, source, WithStore(store))

	require.Equal(t, 1, cache.Warm(context.Background(), 100))

	// The seed is an hour old: it serves as fallback, and the first touch
	// refreshes it.
	res, err := cache.GetOrRefresh(context.Background(), []quote.Symbol{"TCS.NS"}, false)
	require.NoError(t, err)
	require.InDelta(t, 3500.0, res["TCS.NS"].CurrentPrice, 1e-9)
	require.Equal(t, 1, source.callCount())
}

func TestTTLByKindDefaults(t *testing.T) {
	var ttl TTLByKind
	require.Equal(t, 30*time.Second, ttl.For(calendar.KindRegular))
	require.Equal(t, time.Minute, ttl.For(calendar.KindPreMarket))
	require.Equal(t, 5*time.Minute, ttl.For(calendar.KindClosed))

	custom := TTLByKind{Regular: time.Second, PreMarket: 2 * time.Second, Closed: 3 * time.Second}
	require.Equal(t, time.Second, custom.For(calendar.KindRegular))
	require.Equal(t, 3*time.Second, custom.For(calendar.KindClosed))
}
