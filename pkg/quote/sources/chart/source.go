package chart

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"stocksim-api/pkg/quote"
)

const (
	defaultBatchSize = 10
	// defaultHistoryDays spans a long weekend plus a holiday cluster so the
	// series always contains at least two trading-day closes.
	defaultHistoryDays = 10
)

func init() {
	quote.RegisterSource("chart", func(name string, cfg *quote.SourceConfig) (quote.Source, error) {
		opts := []Option{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.MaxRetries > 0 {
			opts = append(opts, WithMaxRetries(cfg.MaxRetries))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return NewSource(name, NewClient(opts...),
			WithBatchSize(cfg.BatchSize),
			WithHistoryDays(cfg.HistoryDays)), nil
	})
}

// Source adapts the chart API into the quote.Source capability. It slices
// requests into fixed-size underlying calls and derives the previous
// trading-day close from daily history, so weekend and holiday gaps never
// leak into percent-change baselines.
type Source struct {
	name        string
	client      *Client
	batchSize   int
	historyDays int
	now         func() time.Time
}

// SourceOption customises a Source.
type SourceOption func(*Source)

// WithBatchSize overrides the per-call symbol batch size.
func WithBatchSize(size int) SourceOption {
	return func(s *Source) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithHistoryDays overrides the calendar-day span of requested history.
func WithHistoryDays(days int) SourceOption {
	return func(s *Source) {
		if days > 0 {
			s.historyDays = days
		}
	}
}

// NewSource wires a chart-backed quote source.
func NewSource(name string, client *Client, opts ...SourceOption) *Source {
	src := &Source{
		name:        name,
		client:      client,
		batchSize:   defaultBatchSize,
		historyDays: defaultHistoryDays,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(src)
	}
	return src
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// FetchBatch fetches best-effort snapshots for the requested symbols.
// Failures are classified per symbol; only call-level problems (cancelled
// context) surface as an error.
func (s *Source) FetchBatch(ctx context.Context, symbols []quote.Symbol) (map[quote.Symbol]quote.FetchResult, error) {
	results := make(map[quote.Symbol]quote.FetchResult, len(symbols))

	for start := 0; start < len(symbols); start += s.batchSize {
		end := start + s.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]

		names := make([]string, 0, len(batch))
		for _, sym := range batch {
			names = append(names, string(sym))
		}

		payload, err := s.client.DailyHistory(ctx, names, s.historyDays)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			// The whole underlying call failed; every symbol of this batch
			// is transient, the remaining batches still get their chance.
			for _, sym := range batch {
				results[sym] = quote.FetchResult{Err: quote.NewFetchError(quote.ErrTransient, err)}
			}
			continue
		}

		fetchedAt := s.now()
		for _, sym := range batch {
			if result, ok := s.resolve(payload, sym, fetchedAt); ok {
				results[sym] = result
			}
		}
	}
	return results, nil
}

// resolve maps one symbol's slice of the payload to a FetchResult. The
// second return is false when the payload carries nothing for the symbol at
// all, which callers must treat as unknown.
func (s *Source) resolve(payload *DailyResponse, sym quote.Symbol, fetchedAt time.Time) (quote.FetchResult, bool) {
	if reason, ok := payload.Errors[string(sym)]; ok {
		kind := quote.ErrTransient
		switch reason {
		case reasonNotFound:
			kind = quote.ErrNotFound
		case reasonNoData:
			kind = quote.ErrNoData
		}
		return quote.FetchResult{Err: quote.NewFetchError(kind, fmt.Errorf("chart: upstream reported %s for %s", reason, sym))}, true
	}

	series, ok := payload.Quotes[string(sym)]
	if !ok {
		return quote.FetchResult{}, false
	}

	bars := series.bars()
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })
	if len(bars) == 0 {
		return quote.FetchResult{Err: quote.NewFetchError(quote.ErrNoData, fmt.Errorf("chart: empty series for %s", sym))}, true
	}

	latest := bars[len(bars)-1]
	snapshot := &quote.Snapshot{
		Symbol:       sym,
		CurrentPrice: latest.Close,
		Volume:       latest.Volume,
		AsOf:         fetchedAt,
	}
	// Previous trading-day close is the bar before the latest one. With a
	// single usable bar the baseline stays unknown; it is never fabricated.
	if len(bars) >= 2 {
		snapshot.PreviousClose = bars[len(bars)-2].Close
	}
	return quote.FetchResult{Snapshot: snapshot}, true
}
