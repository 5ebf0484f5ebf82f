package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmehra2102/storefront/internal/coupon/domain"
	"github.com/dmehra2102/storefront/pkg/httpx"
	"github.com/dmehra2102/storefront/pkg/money"
	"github.com/go-chi/chi/v5"
)

type Evaluator interface {
	Evaluate(ctx context.Context, code string, subtotalCents int64) (domain.Result, error)
}

type Handler struct {
	log       *slog.Logger
	evaluator Evaluator
}

func NewHandler(log *slog.Logger, evaluator Evaluator) *Handler {
	return &Handler{log: log, evaluator: evaluator}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/evaluate", h.evaluate)
	return r
}

type evaluateReq struct {
	Code     string       `json:"code"`
	Subtotal money.Amount `json:"subtotal"`
}

type evaluateResp struct {
	Code     string       `json:"code"`
	Valid    bool         `json:"valid"`
	Discount money.Amount `json:"discount"`
	Error    domain.Kind  `json:"error,omitempty"`
	Message  string       `json:"message,omitempty"`
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Subtotal < 0 {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_subtotal", "subtotal must not be negative")
		return
	}

	res, err := h.evaluator.Evaluate(r.Context(), req.Code, int64(req.Subtotal))
	resp := evaluateResp{Code: res.Code, Valid: res.Valid, Discount: money.Amount(res.DiscountCents)}

	var cerr *domain.Error
	switch {
	case errors.As(err, &cerr):
		resp.Error = cerr.Kind
		resp.Message = cerr.Message()
	case err != nil:
		h.log.Error("coupon evaluation failed", "code", res.Code, "err", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "Error validating coupon")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, resp)
}
