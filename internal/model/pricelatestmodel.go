package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PriceLatestModel = (*customPriceLatestModel)(nil)

type (
	// PriceLatestModel is an interface to be customized, add more methods here,
	// and implement the added methods in customPriceLatestModel.
	PriceLatestModel interface {
		priceLatestModel
		// Upsert inserts or refreshes the latest price row for a symbol.
		Upsert(ctx context.Context, data *PriceLatest) error
	}

	customPriceLatestModel struct {
		*defaultPriceLatestModel
	}
)

// NewPriceLatestModel returns a model for the database table.
func NewPriceLatestModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) PriceLatestModel {
	return &customPriceLatestModel{
		defaultPriceLatestModel: newPriceLatestModel(conn, c, opts...),
	}
}

// Upsert writes the latest snapshot for data.Symbol. The symbol-keyed cache
// entry is invalidated so the next read sees the new row.
func (m *customPriceLatestModel) Upsert(ctx context.Context, data *PriceLatest) error {
	priceLatestSymbolKey := fmt.Sprintf("%s%v", cachePriceLatestSymbolPrefix, data.Symbol)
	_, err := m.ExecCtx(ctx, func(ctx context.Context, conn sqlx.SqlConn) (sql.Result, error) {
		query := fmt.Sprintf(`insert into %s (symbol, price, prev_close, volume, as_of_ms)
values ($1, $2, $3, $4, $5)
on conflict (symbol) do update set
	price = excluded.price,
	prev_close = excluded.prev_close,
	volume = excluded.volume,
	as_of_ms = excluded.as_of_ms,
	updated_at = now()`, m.table)
		return conn.ExecCtx(ctx, query, data.Symbol, data.Price, data.PrevClose, data.Volume, data.AsOfMs)
	}, priceLatestSymbolKey)
	return err
}
