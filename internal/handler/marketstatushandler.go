package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"stocksim-api/internal/logic"
	"stocksim-api/internal/svc"
)

func MarketStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewMarketStatusLogic(r.Context(), svcCtx)
		resp, err := l.MarketStatus()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
