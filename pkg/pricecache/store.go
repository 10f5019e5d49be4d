package pricecache

import (
	"context"

	"stocksim-api/pkg/quote"
)

// Store is the durable counterpart of the in-memory cache. The cache writes
// accepted snapshots through to it fire-and-forget: the in-memory view stays
// authoritative for read-your-writes, the store converges on the next write
// and seeds the cache after a restart.
type Store interface {
	// LoadSnapshot returns the stored snapshot for a symbol, if any.
	LoadSnapshot(ctx context.Context, symbol quote.Symbol) (*quote.Snapshot, bool, error)
	// SaveSnapshot upserts the snapshot for its symbol.
	SaveSnapshot(ctx context.Context, snapshot *quote.Snapshot) error
	// ListActiveSymbols returns up to limit tradable symbols, optionally
	// filtered to a named cohort ("major", "trending", ...).
	ListActiveSymbols(ctx context.Context, limit int, cohort string) ([]quote.Symbol, error)
}
