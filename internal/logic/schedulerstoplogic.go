package logic

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"

	"stocksim-api/internal/svc"
	"stocksim-api/internal/types"
	"stocksim-api/pkg/refresher"
)

type SchedulerStopLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSchedulerStopLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SchedulerStopLogic {
	return &SchedulerStopLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SchedulerStopLogic) SchedulerStop() (*types.SchedulerActionResp, error) {
	err := l.svcCtx.Scheduler.Stop()
	if errors.Is(err, refresher.ErrNotRunning) {
		return &types.SchedulerActionResp{Running: false, Message: "scheduler not running"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &types.SchedulerActionResp{Running: false, Message: "scheduler stopped"}, nil
}
