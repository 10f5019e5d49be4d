// Package sim provides a synthetic quote source for local development and
// tests. Its prices are explicitly fabricated random walks; production
// sources never invent a price, they report no_data instead.
package sim

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"stocksim-api/pkg/quote"
)

func init() {
	quote.RegisterSource("sim", func(name string, cfg *quote.SourceConfig) (quote.Source, error) {
		return New(name), nil
	})
}

// Source generates deterministic per-symbol random walks. The walk is seeded
// by the symbol name, so restarts reproduce the same trajectory.
type Source struct {
	name string

	mu     sync.Mutex
	walks  map[quote.Symbol]*walk
	now    func() time.Time
	jitter float64 // max fractional step per fetch
}

type walk struct {
	rng   *rand.Rand
	price float64
	prev  float64
}

// New constructs a simulator source.
func New(name string) *Source {
	return &Source{
		name:   name,
		walks:  make(map[quote.Symbol]*walk),
		now:    time.Now,
		jitter: 0.005,
	}
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// FetchBatch advances each symbol's walk one step and returns the result.
func (s *Source) FetchBatch(ctx context.Context, symbols []quote.Symbol) (map[quote.Symbol]quote.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fetchedAt := s.now()
	results := make(map[quote.Symbol]quote.FetchResult, len(symbols))
	for _, sym := range symbols {
		if strings.TrimSpace(string(sym)) == "" {
			continue
		}
		w := s.walkFor(sym)
		step := 1 + (w.rng.Float64()*2-1)*s.jitter
		w.prev = w.price
		w.price = math.Max(0.05, w.price*step)

		volume := w.rng.Int63n(5_000_000)
		results[sym] = quote.FetchResult{Snapshot: &quote.Snapshot{
			Symbol:        sym,
			CurrentPrice:  round2(w.price),
			PreviousClose: round2(w.prev),
			Volume:        &volume,
			AsOf:          fetchedAt,
		}}
	}
	return results, nil
}

func (s *Source) walkFor(sym quote.Symbol) *walk {
	if w, ok := s.walks[sym]; ok {
		return w
	}
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(strings.TrimSpace(string(sym)))))
	seed := int64(h.Sum64())
	rng := rand.New(rand.NewSource(seed))
	// Base price in [50, 2050): stable per symbol across restarts.
	base := 50 + rng.Float64()*2000
	w := &walk{rng: rng, price: base, prev: base}
	s.walks[sym] = w
	return w
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
