package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"stocksim-api/internal/logic"
	"stocksim-api/internal/svc"
)

func SchedulerStartHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewSchedulerStartLogic(r.Context(), svcCtx)
		resp, err := l.SchedulerStart()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
