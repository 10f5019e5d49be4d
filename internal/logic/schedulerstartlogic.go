package logic

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"

	"stocksim-api/internal/svc"
	"stocksim-api/internal/types"
	"stocksim-api/pkg/refresher"
)

type SchedulerStartLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSchedulerStartLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SchedulerStartLogic {
	return &SchedulerStartLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SchedulerStartLogic) SchedulerStart() (*types.SchedulerActionResp, error) {
	err := l.svcCtx.Scheduler.Start()
	if errors.Is(err, refresher.ErrAlreadyRunning) {
		return &types.SchedulerActionResp{Running: true, Message: "scheduler already running"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &types.SchedulerActionResp{Running: true, Message: "scheduler started"}, nil
}
