package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/wishlist/domain"
	"github.com/dmehra2102/storefront/pkg/httpx"
	"github.com/dmehra2102/storefront/pkg/money"
	"github.com/go-chi/chi/v5"
)

type WishlistService interface {
	List(ctx context.Context, userID string) ([]domain.Item, error)
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	Toggle(ctx context.Context, userID, productID string) (bool, error)
}

type Handler struct {
	log     *slog.Logger
	service WishlistService
}

func NewHandler(log *slog.Logger, service WishlistService) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(identity.RequireUser)
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Delete("/{productID}", h.remove)
	r.Post("/{productID}/toggle", h.toggle)
	return r
}

type addReq struct {
	ProductID string `json:"product_id"`
}

type itemView struct {
	ProductID      string        `json:"product_id"`
	Name           string        `json:"name"`
	Slug           string        `json:"slug"`
	Price          money.Amount  `json:"price"`
	CompareAtPrice *money.Amount `json:"compare_at_price,omitempty"`
	Brand          string        `json:"brand,omitempty"`
	ImageURL       string        `json:"image_url,omitempty"`
	InStock        bool          `json:"in_stock"`
	AddedAt        string        `json:"added_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	items, err := h.service.List(r.Context(), u.ID)
	if err != nil {
		h.fail(w, err)
		return
	}

	out := make([]itemView, 0, len(items))
	for _, it := range items {
		v := itemView{
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			Slug:      it.Product.Slug,
			Price:     money.Amount(it.Product.PriceCents),
			Brand:     it.Product.Brand,
			ImageURL:  it.Product.ImageURL,
			InStock:   it.Product.InStock,
			AddedAt:   it.CreatedAt.UTC().Format(time.RFC3339),
		}
		if it.Product.CompareAtPriceCents != nil {
			cmp := money.Amount(*it.Product.CompareAtPriceCents)
			v.CompareAtPrice = &cmp
		}
		out = append(out, v)
	}
	httpx.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	var req addReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.service.Add(r.Context(), u.ID, req.ProductID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	if err := h.service.Remove(r.Context(), u.ID, chi.URLParam(r, "productID")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	saved, err := h.service.Toggle(r.Context(), u.ID, chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]bool{"in_wishlist": saved})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		httpx.RespondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		httpx.RespondError(w, http.StatusNotFound, "product_not_found", err.Error())
	default:
		h.log.Error("wishlist request failed", "err", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
