package quote

import (
	"context"
	"fmt"
	"time"
)

// Symbol is an exchange-qualified ticker, e.g. "RELIANCE.NS". Opaque to this
// package beyond equality.
type Symbol string

// Snapshot is the best-known price view for one symbol. Change figures are
// derived on read, never stored, so stored fields and derivation logic cannot
// drift apart.
type Snapshot struct {
	Symbol        Symbol
	CurrentPrice  float64
	PreviousClose float64 // prior trading-day close; 0 means unknown
	Volume        *int64
	AsOf          time.Time // fetch timestamp
}

// Change returns the absolute price change against the previous close.
// Zero when the baseline is unknown.
func (s Snapshot) Change() float64 {
	if s.PreviousClose <= 0 {
		return 0
	}
	return s.CurrentPrice - s.PreviousClose
}

// ChangePercent returns the percentage change against the previous close.
// Exactly 0 when the baseline is absent or non-positive, never NaN or Inf.
func (s Snapshot) ChangePercent() float64 {
	if s.PreviousClose <= 0 {
		return 0
	}
	return (s.CurrentPrice - s.PreviousClose) / s.PreviousClose * 100
}

// ErrorKind classifies a per-symbol fetch failure.
type ErrorKind string

const (
	// ErrNotFound: the source does not know the symbol. Permanent for the
	// current cycle; not retried.
	ErrNotFound ErrorKind = "not_found"
	// ErrNoData: the source is reachable but returned an empty series.
	ErrNoData ErrorKind = "no_data"
	// ErrTransient: network error, timeout, upstream 5xx or rate limiting.
	ErrTransient ErrorKind = "transient"
)

// FetchError is a classified per-symbol failure.
type FetchError struct {
	Kind  ErrorKind
	Cause error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("quote: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("quote: %s", e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// NewFetchError builds a classified fetch error.
func NewFetchError(kind ErrorKind, cause error) *FetchError {
	return &FetchError{Kind: kind, Cause: cause}
}

// FetchResult carries either a snapshot or a classified failure for one
// symbol of a batch call.
type FetchResult struct {
	Snapshot *Snapshot
	Err      *FetchError
}

// OK reports whether the result carries a usable snapshot.
func (r FetchResult) OK() bool { return r.Snapshot != nil && r.Err == nil }

// Source is the capability boundary to an external quote provider.
//
// FetchBatch returns best-effort results keyed by symbol. Partial failure is
// the normal case: a symbol may map to a FetchResult carrying an error, or be
// missing from the map entirely; callers must treat a missing entry as
// "unknown", not as a failure of the batch. The returned error is reserved
// for call-level problems (cancelled context, misconfiguration); it is never
// used for individual symbols.
//
// Implementations batch internally at their own fixed batch size; callers
// never need to know it.
type Source interface {
	Name() string
	FetchBatch(ctx context.Context, symbols []Symbol) (map[Symbol]FetchResult, error)
}
