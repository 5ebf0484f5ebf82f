package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/pkg/httpx"
	"github.com/dmehra2102/storefront/pkg/money"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Add(ctx context.Context, userID, productID string, variantID *string, qty int) error
	UpdateQuantity(ctx context.Context, userID, lineID string, qty int) error
	Remove(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}

type Handler struct {
	log     *slog.Logger
	service CartService
}

func NewHandler(log *slog.Logger, service CartService) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(identity.RequireUser)
	r.Get("/", h.getCart)
	r.Post("/", h.addItem)
	r.Delete("/", h.clearCart)
	r.Patch("/items/{id}", h.updateQuantity)
	r.Delete("/items/{id}", h.removeItem)
	return r
}

type addItemReq struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id"`
	Quantity  *int    `json:"quantity"`
}

type updateQuantityReq struct {
	Quantity int `json:"quantity"`
}

type lineView struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"product_id"`
	VariantID   *string      `json:"variant_id,omitempty"`
	ProductName string       `json:"product_name"`
	ProductSlug string       `json:"product_slug"`
	VariantName string       `json:"variant_name,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
	Quantity    int          `json:"quantity"`
	UnitPrice   money.Amount `json:"unit_price"`
	Total       money.Amount `json:"total"`
	InStock     bool         `json:"in_stock"`
}

type cartView struct {
	Lines     []lineView   `json:"lines"`
	ItemCount int          `json:"item_count"`
	Subtotal  money.Amount `json:"subtotal"`
}

func toView(c domain.Cart) cartView {
	v := cartView{
		Lines:     make([]lineView, 0, len(c.Lines)),
		ItemCount: c.ItemCount(),
		Subtotal:  money.Amount(c.SubtotalCents()),
	}
	for _, l := range c.Lines {
		v.Lines = append(v.Lines, lineView{
			ID:          l.ID,
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			ProductSlug: l.ProductSlug,
			VariantName: l.VariantName,
			ImageURL:    l.ImageURL,
			Quantity:    l.Quantity,
			UnitPrice:   money.Amount(l.UnitPriceCents()),
			Total:       money.Amount(l.TotalCents()),
			InStock:     l.StockQuantity >= l.Quantity,
		})
	}
	return v
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	c, err := h.service.Get(r.Context(), u.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())

	var req addItemReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	if err := h.service.Add(r.Context(), u.ID, req.ProductID, req.VariantID, qty); err != nil {
		h.fail(w, err)
		return
	}
	h.respondCart(w, r, u.ID, http.StatusCreated)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())

	var req updateQuantityReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), u.ID, chi.URLParam(r, "id"), req.Quantity); err != nil {
		h.fail(w, err)
		return
	}
	h.respondCart(w, r, u.ID, http.StatusOK)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	if err := h.service.Remove(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	h.respondCart(w, r, u.ID, http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	if err := h.service.Clear(r.Context(), u.ID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, userID string, status int) {
	c, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, status, toView(c))
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		httpx.RespondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		httpx.RespondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		httpx.RespondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, domain.ErrLineNotFound):
		httpx.RespondError(w, http.StatusNotFound, "line_not_found", err.Error())
	default:
		h.log.Error("cart request failed", "err", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
