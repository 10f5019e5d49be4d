// Package pricecache keeps an always-available in-memory view of last-known
// prices and refreshes it through a rate-limited quote source. Concurrent
// callers asking for the same symbol share one outstanding fetch, and a
// failed refresh never evicts the previous snapshot: stale data is preferred
// over no data.
package pricecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"stocksim-api/pkg/calendar"
	"stocksim-api/pkg/quote"
)

const (
	defaultFetchTimeout   = 45 * time.Second
	defaultPersistTimeout = 5 * time.Second
	defaultNoDataCycles   = 2
)

// SessionProvider yields the trading-session state for a point in time.
// *calendar.Calendar satisfies it; tests inject fakes.
type SessionProvider interface {
	Session(t time.Time) calendar.SessionState
}

// TTLByKind maps session kinds to snapshot freshness TTLs. Refresh is
// aggressive while the market trades and sparse off-hours.
type TTLByKind struct {
	Regular   time.Duration
	PreMarket time.Duration
	Closed    time.Duration
}

// For returns the TTL for a session kind, with the stock defaults of
// 30s / 60s / 5m when unset.
func (t TTLByKind) For(kind calendar.Kind) time.Duration {
	switch kind {
	case calendar.KindRegular:
		if t.Regular > 0 {
			return t.Regular
		}
		return 30 * time.Second
	case calendar.KindPreMarket:
		if t.PreMarket > 0 {
			return t.PreMarket
		}
		return time.Minute
	default:
		if t.Closed > 0 {
			return t.Closed
		}
		return 5 * time.Minute
	}
}

// Config tunes a Cache.
type Config struct {
	TTL   TTLByKind
	Retry RetryPolicy
	// FetchTimeout bounds one coalesced fetch including retries. The fetch
	// runs on its own context so a cancelled waiter never aborts it for the
	// other waiters.
	FetchTimeout time.Duration
	// NoDataCycles is how many consecutive no_data results a symbol may
	// produce before it is parked like an unknown symbol until TTL expiry.
	NoDataCycles int
}

// Cache is the single synchronized owner of per-symbol refresh state.
type Cache struct {
	source   quote.Source
	sessions SessionProvider
	limiter  *quote.Limiter
	store    Store
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	entries map[quote.Symbol]*entry

	persistWG sync.WaitGroup
}

// entry is the transient per-symbol refresh state. All access goes through
// the cache mutex; callers never mutate a snapshot directly.
type entry struct {
	snapshot     *quote.Snapshot
	fetchedAt    time.Time // freshness bookkeeping, also set on permanent failures
	appliedAt    time.Time // completion-time guard: later-completing fetch wins
	noDataStreak int
	inflight     *flight
}

// flight is the coalescing point for one outstanding batch fetch.
type flight struct {
	done chan struct{}
}

// Option customises a Cache.
type Option func(*Cache)

// WithLimiter gates outbound source calls through a shared rate limiter.
func WithLimiter(l *quote.Limiter) Option {
	return func(c *Cache) { c.limiter = l }
}

// WithStore enables durable write-through and restart seeding.
func WithStore(s Store) Option {
	return func(c *Cache) { c.store = s }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a price cache over the given quote source.
func New(source quote.Source, sessions SessionProvider, cfg Config, opts ...Option) (*Cache, error) {
	if source == nil {
		return nil, fmt.Errorf("pricecache: source is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("pricecache: session provider is required")
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.NoDataCycles <= 0 {
		cfg.NoDataCycles = defaultNoDataCycles
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	c := &Cache{
		source:   source,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
		entries:  make(map[quote.Symbol]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetOrRefresh returns the best-known snapshot for each symbol, refreshing
// stale entries through the source first.
//
// Within the freshness TTL of the current session a symbol is served from
// memory with no external call unless force is set. A symbol whose fetch is
// already outstanding is joined, never duplicated. When ctx is cancelled the
// caller stops waiting and receives whatever is cached; the shared fetch
// keeps running for the remaining waiters. Symbols with no data at all are
// absent from the result; callers must treat absence as "no data
// available", never as a zero price.
func (c *Cache) GetOrRefresh(ctx context.Context, symbols []quote.Symbol, force bool) (map[quote.Symbol]quote.Snapshot, error) {
	snapshots, _, err := c.refresh(ctx, symbols, force)
	return snapshots, err
}

// RefreshBatch forces a refresh and additionally reports how many symbols a
// fetch actually updated during this call. Stale fallbacks still appear in
// the snapshot map but do not count as updates, so a caller tracking the
// count sees through the stale-preferred contract to the real fetch outcome.
func (c *Cache) RefreshBatch(ctx context.Context, symbols []quote.Symbol) (map[quote.Symbol]quote.Snapshot, int, error) {
	return c.refresh(ctx, symbols, true)
}

func (c *Cache) refresh(ctx context.Context, symbols []quote.Symbol, force bool) (map[quote.Symbol]quote.Snapshot, int, error) {
	symbols = dedup(symbols)
	start := c.now()
	ttl := c.cfg.TTL.For(c.sessions.Session(start).Kind)

	c.mu.Lock()
	var toFetch []quote.Symbol
	flights := make(map[*flight]struct{})
	for _, sym := range symbols {
		e := c.ensureLocked(sym)
		if e.inflight != nil {
			flights[e.inflight] = struct{}{}
			continue
		}
		if !force && !e.fetchedAt.IsZero() && start.Sub(e.fetchedAt) < ttl {
			continue
		}
		toFetch = append(toFetch, sym)
	}
	if len(toFetch) > 0 {
		f := &flight{done: make(chan struct{})}
		for _, sym := range toFetch {
			c.entries[sym].inflight = f
		}
		flights[f] = struct{}{}
		go c.runFetch(f, toFetch)
	}
	c.mu.Unlock()

	for f := range flights {
		select {
		case <-f.done:
		case <-ctx.Done():
			return c.collect(symbols), c.appliedSince(symbols, start), ctx.Err()
		}
	}
	return c.collect(symbols), c.appliedSince(symbols, start), nil
}

// appliedSince counts symbols whose snapshot was applied at or after start,
// i.e. refreshed by fetches that completed during this call.
func (c *Cache) appliedSince(symbols []quote.Symbol, start time.Time) int {
	applied := 0
	c.mu.Lock()
	for _, sym := range symbols {
		if e, ok := c.entries[sym]; ok && e.snapshot != nil && !e.appliedAt.Before(start) {
			applied++
		}
	}
	c.mu.Unlock()
	return applied
}

// Warm seeds the cache from the durable store, typically at process start.
// Seeded entries carry their stored AsOf, so anything older than the TTL is
// refreshed on first touch. Returns the number of seeded symbols.
func (c *Cache) Warm(ctx context.Context, limit int) int {
	if c.store == nil {
		return 0
	}
	symbols, err := c.store.ListActiveSymbols(ctx, limit, "")
	if err != nil {
		logx.WithContext(ctx).Errorf("pricecache: warm list symbols: %v", err)
		return 0
	}
	seeded := 0
	for _, sym := range symbols {
		snapshot, ok, err := c.store.LoadSnapshot(ctx, sym)
		if err != nil {
			logx.WithContext(ctx).Errorf("pricecache: warm load %s: %v", sym, err)
			continue
		}
		if !ok {
			continue
		}
		c.mu.Lock()
		e := c.ensureLocked(sym)
		if e.snapshot == nil {
			e.snapshot = snapshot
			e.fetchedAt = snapshot.AsOf
			e.appliedAt = snapshot.AsOf
			seeded++
		}
		c.mu.Unlock()
	}
	return seeded
}

// runFetch executes one coalesced batch fetch with the shared retry policy.
// It runs detached from any caller context.
func (c *Cache) runFetch(f *flight, symbols []quote.Symbol) {
	defer c.finishFlight(f, symbols)

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FetchTimeout)
	defer cancel()

	pending := symbols
	c.cfg.Retry.Do(ctx, func(attempt int) bool {
		if c.limiter != nil {
			if err := c.limiter.Acquire(ctx); err != nil {
				logx.Errorf("pricecache: rate limit wait aborted: %v", err)
				return false
			}
		}
		results, err := c.source.FetchBatch(ctx, pending)
		completedAt := c.now()
		if err != nil {
			logx.Errorf("pricecache: fetch via %s (%d symbols, attempt %d): %v",
				c.source.Name(), len(pending), attempt+1, err)
			return ctx.Err() == nil
		}
		pending = c.apply(results, pending, completedAt)
		return len(pending) > 0
	})
}

// apply merges batch results into the cache and returns the symbols worth
// another attempt this cycle.
func (c *Cache) apply(results map[quote.Symbol]quote.FetchResult, batch []quote.Symbol, completedAt time.Time) []quote.Symbol {
	var retry []quote.Symbol

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sym := range batch {
		e := c.ensureLocked(sym)
		result, ok := results[sym]
		if !ok {
			// Unknown to the source this round; keep whatever we had.
			continue
		}
		if result.OK() {
			// Completion-time ordering: an old slow response must not
			// clobber a newer fast one.
			if completedAt.After(e.appliedAt) {
				snapshot := *result.Snapshot
				e.snapshot = &snapshot
				e.fetchedAt = completedAt
				e.appliedAt = completedAt
				e.noDataStreak = 0
				c.persist(snapshot)
			}
			continue
		}
		switch result.Err.Kind {
		case quote.ErrNotFound:
			// Permanent for this cycle: park until the TTL expires.
			e.fetchedAt = completedAt
		case quote.ErrNoData:
			e.noDataStreak++
			if e.noDataStreak >= c.cfg.NoDataCycles {
				e.fetchedAt = completedAt
			} else {
				retry = append(retry, sym)
			}
		default:
			retry = append(retry, sym)
		}
	}
	return retry
}

// persist writes a snapshot through to the store without blocking the fetch
// path. The in-memory copy is authoritative; store errors are only logged.
func (c *Cache) persist(snapshot quote.Snapshot) {
	if c.store == nil {
		return
	}
	c.persistWG.Add(1)
	go func() {
		defer c.persistWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), defaultPersistTimeout)
		defer cancel()
		if err := c.store.SaveSnapshot(ctx, &snapshot); err != nil {
			logx.Errorf("pricecache: persist %s: %v", snapshot.Symbol, err)
		}
	}()
}

func (c *Cache) finishFlight(f *flight, symbols []quote.Symbol) {
	c.mu.Lock()
	for _, sym := range symbols {
		if e, ok := c.entries[sym]; ok && e.inflight == f {
			e.inflight = nil
		}
	}
	c.mu.Unlock()
	close(f.done)
}

func (c *Cache) collect(symbols []quote.Symbol) map[quote.Symbol]quote.Snapshot {
	out := make(map[quote.Symbol]quote.Snapshot, len(symbols))
	c.mu.Lock()
	for _, sym := range symbols {
		if e, ok := c.entries[sym]; ok && e.snapshot != nil {
			out[sym] = *e.snapshot
		}
	}
	c.mu.Unlock()
	return out
}

func (c *Cache) ensureLocked(sym quote.Symbol) *entry {
	e, ok := c.entries[sym]
	if !ok {
		e = &entry{}
		c.entries[sym] = e
	}
	return e
}

func dedup(symbols []quote.Symbol) []quote.Symbol {
	seen := make(map[quote.Symbol]struct{}, len(symbols))
	out := symbols[:0:0]
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
