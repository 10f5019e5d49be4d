package logic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"stocksim-api/internal/svc"
	"stocksim-api/internal/types"
	"stocksim-api/pkg/quote"
)

// MaxSymbolsPerRequest caps one prices call. Larger baskets should page.
const MaxSymbolsPerRequest = 50

type GetPricesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetPricesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetPricesLogic {
	return &GetPricesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetPricesLogic) GetPrices(req *types.GetPricesReq) (*types.GetPricesResp, error) {
	symbols := parseSymbols(req.Symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols is required")
	}
	if len(symbols) > MaxSymbolsPerRequest {
		return nil, fmt.Errorf("too many symbols: %d, max %d", len(symbols), MaxSymbolsPerRequest)
	}

	snapshots, err := l.svcCtx.PriceCache.GetOrRefresh(l.ctx, symbols, req.Force)
	if err != nil {
		// Partial data still goes out; the error means the caller stopped
		// waiting, not that the cache is empty.
		l.Errorf("get prices: %v", err)
	}

	resp := &types.GetPricesResp{
		Prices: make(map[string]types.PriceItem, len(snapshots)),
	}
	for _, sym := range symbols {
		snapshot, ok := snapshots[sym]
		if !ok {
			resp.Missing = append(resp.Missing, string(sym))
			continue
		}
		resp.Prices[string(sym)] = snapshotToItem(snapshot)
	}
	return resp, nil
}

func parseSymbols(raw string) []quote.Symbol {
	parts := strings.Split(raw, ",")
	out := make([]quote.Symbol, 0, len(parts))
	for _, part := range parts {
		sym := strings.ToUpper(strings.TrimSpace(part))
		if sym == "" {
			continue
		}
		out = append(out, quote.Symbol(sym))
	}
	return out
}

func snapshotToItem(s quote.Snapshot) types.PriceItem {
	item := types.PriceItem{
		Symbol:        string(s.Symbol),
		CurrentPrice:  s.CurrentPrice,
		PreviousClose: s.PreviousClose,
		Change:        s.Change(),
		ChangePercent: s.ChangePercent(),
		Volume:        s.Volume,
	}
	if !s.AsOf.IsZero() {
		item.AsOfMs = s.AsOf.UnixMilli()
	} else {
		item.AsOfMs = time.Now().UnixMilli()
	}
	return item
}
