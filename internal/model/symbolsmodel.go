package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ SymbolsModel = (*customSymbolsModel)(nil)

type (
	// SymbolsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customSymbolsModel.
	SymbolsModel interface {
		symbolsModel
		// ListActive returns up to limit active symbols, optionally filtered
		// to one cohort.
		ListActive(ctx context.Context, limit int, cohort string) ([]*Symbols, error)
	}

	customSymbolsModel struct {
		*defaultSymbolsModel
	}
)

// NewSymbolsModel returns a model for the database table.
func NewSymbolsModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) SymbolsModel {
	return &customSymbolsModel{
		defaultSymbolsModel: newSymbolsModel(conn, c, opts...),
	}
}

// ListActive is a list query, so it bypasses the row cache.
func (m *customSymbolsModel) ListActive(ctx context.Context, limit int, cohort string) ([]*Symbols, error) {
	var resp []*Symbols
	var err error
	if cohort == "" {
		query := fmt.Sprintf("select %s from %s where is_active = true order by symbol limit $1", symbolsRows, m.table)
		err = m.QueryRowsNoCacheCtx(ctx, &resp, query, limit)
	} else {
		query := fmt.Sprintf("select %s from %s where is_active = true and cohort = $1 order by symbol limit $2", symbolsRows, m.table)
		err = m.QueryRowsNoCacheCtx(ctx, &resp, query, cohort, limit)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
