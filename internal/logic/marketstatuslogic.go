package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"stocksim-api/internal/svc"
	"stocksim-api/internal/types"
)

type MarketStatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMarketStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MarketStatusLogic {
	return &MarketStatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *MarketStatusLogic) MarketStatus() (*types.MarketStatusResp, error) {
	status := l.svcCtx.Calendar.Status(time.Now())
	return &types.MarketStatusResp{
		Status:      status.Status,
		Message:     status.Message,
		Session:     string(status.SessionKind),
		NextEvent:   status.NextEvent,
		NextEventAt: status.NextEventAt.Format(time.RFC3339),
	}, nil
}
