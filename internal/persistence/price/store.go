// Package pricepersist is the durable layer under the in-memory price cache:
// Postgres rows for restarts, Redis for cross-process reads. Snapshots travel
// through Redis as msgpack payloads.
package pricepersist

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	cachekeys "stocksim-api/internal/cache"
	"stocksim-api/internal/model"
	"stocksim-api/pkg/pricecache"
	"stocksim-api/pkg/quote"
)

var _ pricecache.Store = (*Store)(nil)

// Store implements snapshot persistence over the price and symbol tables.
type Store struct {
	priceModel   model.PriceLatestModel
	symbolsModel model.SymbolsModel
	redis        *redis.Redis
	ttl          cachekeys.TTLSet
}

// Config enumerates the dependencies of a Store. Redis is optional; without
// it the store is Postgres-only.
type Config struct {
	PriceModel   model.PriceLatestModel
	SymbolsModel model.SymbolsModel
	Redis        *redis.Redis
	TTL          cachekeys.TTLSet
}

// NewStore wires a snapshot store. Returns nil when the database models are
// missing, which callers treat as "no durable layer".
func NewStore(cfg Config) *Store {
	if cfg.PriceModel == nil || cfg.SymbolsModel == nil {
		return nil
	}
	return &Store{
		priceModel:   cfg.PriceModel,
		symbolsModel: cfg.SymbolsModel,
		redis:        cfg.Redis,
		ttl:          cfg.TTL,
	}
}

// snapshotPayload is the msgpack wire form of a snapshot in Redis.
type snapshotPayload struct {
	Symbol    string  `msgpack:"symbol"`
	Price     float64 `msgpack:"price"`
	PrevClose float64 `msgpack:"prev_close"`
	Volume    *int64  `msgpack:"volume,omitempty"`
	AsOfMs    int64   `msgpack:"as_of_ms"`
}

// LoadSnapshot reads the stored snapshot for a symbol, preferring the Redis
// copy over the Postgres row.
func (s *Store) LoadSnapshot(ctx context.Context, symbol quote.Symbol) (*quote.Snapshot, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	if snapshot, ok := s.loadFromRedis(ctx, symbol); ok {
		return snapshot, true, nil
	}

	row, err := s.priceModel.FindOneBySymbol(ctx, string(symbol))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rowToSnapshot(row), true, nil
}

// SaveSnapshot upserts the Postgres row and refreshes the Redis copy. The
// Redis write is best effort.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *quote.Snapshot) error {
	if s == nil || snapshot == nil || strings.TrimSpace(string(snapshot.Symbol)) == "" {
		return nil
	}
	row := &model.PriceLatest{
		Symbol:    string(snapshot.Symbol),
		Price:     snapshot.CurrentPrice,
		PrevClose: snapshot.PreviousClose,
		AsOfMs:    snapshot.AsOf.UnixMilli(),
	}
	if snapshot.Volume != nil {
		row.Volume = sql.NullInt64{Int64: *snapshot.Volume, Valid: true}
	}
	if err := s.priceModel.Upsert(ctx, row); err != nil {
		return err
	}
	s.cacheSnapshot(ctx, snapshot)
	return nil
}

// ListActiveSymbols returns up to limit tradable symbols for a cohort. The
// list is cached in Redis so scheduler cycles do not hammer Postgres.
func (s *Store) ListActiveSymbols(ctx context.Context, limit int, cohort string) ([]quote.Symbol, error) {
	if s == nil {
		return nil, nil
	}
	if symbols, ok := s.loadSymbolList(ctx, limit, cohort); ok {
		return symbols, nil
	}

	rows, err := s.symbolsModel.ListActive(ctx, limit, cohort)
	if err != nil {
		return nil, err
	}
	symbols := make([]quote.Symbol, 0, len(rows))
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		symbols = append(symbols, quote.Symbol(row.Symbol))
		names = append(names, row.Symbol)
	}
	s.cacheSymbolList(ctx, cohort, names)
	return symbols, nil
}

func (s *Store) loadFromRedis(ctx context.Context, symbol quote.Symbol) (*quote.Snapshot, bool) {
	if s.redis == nil {
		return nil, false
	}
	key := cachekeys.PriceLatestKey(string(symbol))
	raw, err := s.redis.GetCtx(ctx, key)
	if err != nil || raw == "" {
		if err != nil {
			logx.WithContext(ctx).Errorf("pricepersist: redis get key=%s err=%v", key, err)
		}
		return nil, false
	}
	var payload snapshotPayload
	if err := msgpack.Unmarshal([]byte(raw), &payload); err != nil {
		logx.WithContext(ctx).Errorf("pricepersist: decode snapshot key=%s err=%v", key, err)
		return nil, false
	}
	snapshot := &quote.Snapshot{
		Symbol:        quote.Symbol(payload.Symbol),
		CurrentPrice:  payload.Price,
		PreviousClose: payload.PrevClose,
		Volume:        payload.Volume,
		AsOf:          time.UnixMilli(payload.AsOfMs).UTC(),
	}
	return snapshot, true
}

func (s *Store) cacheSnapshot(ctx context.Context, snapshot *quote.Snapshot) {
	if s.redis == nil {
		return
	}
	ttl := cachekeys.PriceTTL(s.ttl)
	if ttl <= 0 {
		return
	}
	payload := snapshotPayload{
		Symbol:    string(snapshot.Symbol),
		Price:     snapshot.CurrentPrice,
		PrevClose: snapshot.PreviousClose,
		Volume:    snapshot.Volume,
		AsOfMs:    snapshot.AsOf.UnixMilli(),
	}
	raw, err := msgpack.Marshal(payload)
	if err != nil {
		logx.WithContext(ctx).Errorf("pricepersist: encode snapshot symbol=%s err=%v", snapshot.Symbol, err)
		return
	}
	key := cachekeys.PriceLatestKey(string(snapshot.Symbol))
	if err := s.redis.SetexCtx(ctx, key, string(raw), int(ttl/time.Second)); err != nil {
		logx.WithContext(ctx).Errorf("pricepersist: redis set key=%s err=%v", key, err)
	}
}

func (s *Store) loadSymbolList(ctx context.Context, limit int, cohort string) ([]quote.Symbol, bool) {
	if s.redis == nil {
		return nil, false
	}
	key := cachekeys.ActiveSymbolsKey(cohort)
	raw, err := s.redis.GetCtx(ctx, key)
	if err != nil || raw == "" {
		if err != nil {
			logx.WithContext(ctx).Errorf("pricepersist: redis get key=%s err=%v", key, err)
		}
		return nil, false
	}
	var names []string
	if err := msgpack.Unmarshal([]byte(raw), &names); err != nil {
		logx.WithContext(ctx).Errorf("pricepersist: decode symbol list key=%s err=%v", key, err)
		return nil, false
	}
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	symbols := make([]quote.Symbol, 0, len(names))
	for _, name := range names {
		symbols = append(symbols, quote.Symbol(name))
	}
	return symbols, true
}

func (s *Store) cacheSymbolList(ctx context.Context, cohort string, names []string) {
	if s.redis == nil || len(names) == 0 {
		return
	}
	ttl := cachekeys.ActiveSymbolsTTL(s.ttl)
	if ttl <= 0 {
		return
	}
	raw, err := msgpack.Marshal(names)
	if err != nil {
		logx.WithContext(ctx).Errorf("pricepersist: encode symbol list cohort=%s err=%v", cohort, err)
		return
	}
	key := cachekeys.ActiveSymbolsKey(cohort)
	if err := s.redis.SetexCtx(ctx, key, string(raw), int(ttl/time.Second)); err != nil {
		logx.WithContext(ctx).Errorf("pricepersist: redis set key=%s err=%v", key, err)
	}
}

func rowToSnapshot(row *model.PriceLatest) *quote.Snapshot {
	snapshot := &quote.Snapshot{
		Symbol:        quote.Symbol(row.Symbol),
		CurrentPrice:  row.Price,
		PreviousClose: row.PrevClose,
		AsOf:          time.UnixMilli(row.AsOfMs).UTC(),
	}
	if row.Volume.Valid {
		volume := row.Volume.Int64
		snapshot.Volume = &volume
	}
	return snapshot
}
