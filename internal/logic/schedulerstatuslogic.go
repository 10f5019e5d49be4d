package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"stocksim-api/internal/svc"
	"stocksim-api/internal/types"
)

type SchedulerStatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSchedulerStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SchedulerStatusLogic {
	return &SchedulerStatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SchedulerStatusLogic) SchedulerStatus() (*types.SchedulerStatusResp, error) {
	status := l.svcCtx.Scheduler.Status()
	resp := &types.SchedulerStatusResp{
		Running:          status.Running,
		Session:          status.Session,
		IntervalSeconds:  status.IntervalSeconds,
		CoolingDown:      status.CoolingDown,
		LastCycleSymbols: status.LastCycleSymbols,
		TotalUpdates:     status.TotalUpdates,
		ErrorStreak:      status.ErrorStreak,
	}
	if !status.LastCycleAt.IsZero() {
		resp.LastCycleAt = status.LastCycleAt.Format(time.RFC3339)
	}
	return resp, nil
}
