// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"stocksim-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/api/v1/stocks/prices",
				Handler: GetPricesHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/v1/market/status",
				Handler: MarketStatusHandler(serverCtx),
			},
		},
	)

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/api/v1/admin/scheduler/status",
				Handler: SchedulerStatusHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/api/v1/admin/scheduler/start",
				Handler: SchedulerStartHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/api/v1/admin/scheduler/stop",
				Handler: SchedulerStopHandler(serverCtx),
			},
		},
	)
}
