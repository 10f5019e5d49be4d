package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"stocksim-api/internal/logic"
	"stocksim-api/internal/svc"
	"stocksim-api/internal/types"
)

func GetPricesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GetPricesReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewGetPricesLogic(r.Context(), svcCtx)
		resp, err := l.GetPrices(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
