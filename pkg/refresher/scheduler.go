// Package refresher runs the background price refresh loop. It keeps the
// cache warm for a cohort of symbols, pacing itself by the trading session
// and backing off when the quote source has a bad stretch.
package refresher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"stocksim-api/pkg/calendar"
	"stocksim-api/pkg/pricecache"
	"stocksim-api/pkg/quote"
)

var (
	// ErrAlreadyRunning is returned by Start when the loop is active.
	ErrAlreadyRunning = errors.New("refresher: scheduler already running")
	// ErrNotRunning is returned by Stop when there is nothing to stop.
	ErrNotRunning = errors.New("refresher: scheduler not running")
)

// Refresher is the slice of the price cache the scheduler drives. The
// applied count is the number of symbols a fetch actually updated; stale
// fallbacks in the snapshot map do not count, so a sustained source outage
// is visible here even while the cache keeps serving old data.
type Refresher interface {
	RefreshBatch(ctx context.Context, symbols []quote.Symbol) (map[quote.Symbol]quote.Snapshot, int, error)
}

// SymbolLister supplies the dynamic part of the refresh cohort. Nil is fine:
// the scheduler then refreshes only the configured major symbols.
type SymbolLister interface {
	ListActiveSymbols(ctx context.Context, limit int, cohort string) ([]quote.Symbol, error)
}

// Status is a point-in-time report of the loop, safe to serve over the API.
type Status struct {
	Running          bool      `json:"running"`
	Session          string    `json:"session"`
	IntervalSeconds  int       `json:"interval_seconds"`
	CoolingDown      bool      `json:"cooling_down"`
	LastCycleAt      time.Time `json:"last_cycle_at"`
	LastCycleSymbols int       `json:"last_cycle_symbols"`
	TotalUpdates     int64     `json:"total_updates"`
	ErrorStreak      int       `json:"error_streak"`
}

// Scheduler owns one background refresh goroutine. Start and Stop are
// idempotent-safe in the sense that double calls report a sentinel error
// instead of corrupting state.
type Scheduler struct {
	cache    Refresher
	sessions pricecache.SessionProvider
	lister   SymbolLister
	cfg      Config
	now      func() time.Time

	mu     sync.Mutex
	status Status
	stop   chan struct{}
	done   chan struct{}
}

// SchedulerOption customises a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSymbolLister wires the store-backed active symbol list into the cohort.
func WithSymbolLister(l SymbolLister) SchedulerOption {
	return func(s *Scheduler) { s.lister = l }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler constructs a stopped scheduler.
func NewScheduler(cache Refresher, sessions pricecache.SessionProvider, cfg Config, opts ...SchedulerOption) (*Scheduler, error) {
	if cache == nil {
		return nil, errors.New("refresher: cache is required")
	}
	if sessions == nil {
		return nil, errors.New("refresher: session provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		cache:    cache,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the refresh loop. The first cycle runs immediately.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		return ErrAlreadyRunning
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.status.Running = true
	s.status.ErrorStreak = 0
	go s.run(s.stop, s.done)
	logx.Info("refresher: scheduler started")
	return nil
}

// Stop asks the loop to finish and waits for it. A cycle already in flight
// completes normally; Stop only prevents the next one.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.status.Running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.status.Running = false
	s.mu.Unlock()
	logx.Info("refresher: scheduler stopped")
	return nil
}

// Status returns a copy of the current loop state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()
	st.Session = string(s.sessions.Session(s.now()).Kind)
	return st
}

// run is the loop body. It re-reads the session every wake so the cadence
// follows the market through open, pre-market and close transitions without
// a restart.
func (s *Scheduler) run(stop, done chan struct{}) {
	defer close(done)
	for {
		session := s.sessions.Session(s.now())
		interval := s.cfg.intervalFor(session.Kind)

		s.runCycle(stop, session, interval)

		sleep := interval
		s.mu.Lock()
		s.status.IntervalSeconds = int(interval / time.Second)
		cooling := s.status.ErrorStreak >= s.cfg.CooldownThreshold
		s.status.CoolingDown = cooling
		s.mu.Unlock()
		if cooling {
			sleep = s.cfg.cooldown()
		}

		timer := time.NewTimer(sleep)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle refreshes the cohort once and records the outcome.
func (s *Scheduler) runCycle(stop chan struct{}, session calendar.SessionState, interval time.Duration) {
	select {
	case <-stop:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout(interval))
	defer cancel()

	symbols := s.cohort(ctx, session.Kind)
	if len(symbols) == 0 {
		return
	}

	start := s.now()
	_, applied, err := s.cache.RefreshBatch(ctx, symbols)
	if err != nil {
		logx.Errorf("refresher: cycle over %d symbols: %v", len(symbols), err)
	}
	failed := err != nil || applied == 0

	s.mu.Lock()
	s.status.LastCycleAt = start
	s.status.LastCycleSymbols = len(symbols)
	s.status.TotalUpdates += int64(applied)
	if failed {
		s.status.ErrorStreak++
		if s.status.ErrorStreak == s.cfg.CooldownThreshold {
			logx.Errorf("refresher: %d consecutive bad cycles, entering cooldown", s.status.ErrorStreak)
		}
	} else {
		s.status.ErrorStreak = 0
	}
	s.mu.Unlock()

	logx.Infof("refresher: cycle done session=%s symbols=%d updated=%d took=%s",
		session.Kind, len(symbols), applied, time.Since(start).Round(time.Millisecond))
}

// cohort assembles the symbols to refresh this cycle. Pre-market sticks to
// the configured majors; the open session adds up to ActiveLimit active
// symbols from the store; after close the store's trending cohort keeps the
// most-watched names warm on the slow cadence.
func (s *Scheduler) cohort(ctx context.Context, kind calendar.Kind) []quote.Symbol {
	seen := make(map[quote.Symbol]struct{}, len(s.cfg.MajorSymbols)+s.cfg.ActiveLimit)
	out := make([]quote.Symbol, 0, len(s.cfg.MajorSymbols)+s.cfg.ActiveLimit)
	add := func(sym quote.Symbol) {
		if sym == "" {
			return
		}
		if _, dup := seen[sym]; dup {
			return
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	for _, sym := range s.cfg.MajorSymbols {
		add(quote.Symbol(sym))
	}
	if kind == calendar.KindPreMarket || s.lister == nil || s.cfg.ActiveLimit <= 0 {
		return out
	}
	storeCohort := ""
	if kind == calendar.KindClosed {
		storeCohort = "trending"
	}
	active, err := s.lister.ListActiveSymbols(ctx, s.cfg.ActiveLimit, storeCohort)
	if err != nil {
		logx.Errorf("refresher: list active symbols: %v", err)
	}
	for _, sym := range active {
		add(sym)
	}
	return out
}

// cycleTimeout bounds one cycle to its interval, with a floor so short
// intervals still leave room for the retry schedule.
func cycleTimeout(interval time.Duration) time.Duration {
	const floor = 30 * time.Second
	if interval < floor {
		return floor
	}
	return interval
}
