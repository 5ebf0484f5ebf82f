package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	coupondomain "github.com/dmehra2102/storefront/internal/coupon/domain"
	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/changefeed"
	"github.com/dmehra2102/storefront/pkg/httpx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Placer interface {
	Place(ctx context.Context, userID string, req application.PlaceRequest) (domain.Order, error)
}

type StatusChanger interface {
	Cancel(ctx context.Context, actor identity.User, orderID string) (domain.Order, error)
	Apply(ctx context.Context, actor identity.User, orderID string, action domain.Action, tracking *domain.Tracking) (domain.Order, error)
}

type Queries interface {
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, actor identity.User, id string) (domain.Order, error)
	ListAllOrders(ctx context.Context, status *domain.Status) ([]domain.Order, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, table, scope string) (*changefeed.Subscription, error)
}

type Watcher interface {
	Watch(ctx context.Context, userID string, events <-chan changefeed.Change, onChange func(application.Update)) error
}

type Handler struct {
	log     *slog.Logger
	placer  Placer
	status  StatusChanger
	queries Queries
	feed    Subscriber
	watcher Watcher
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, placer Placer, status StatusChanger, queries Queries, feed Subscriber, watcher Watcher) *Handler {
	return &Handler{
		log:     log,
		placer:  placer,
		status:  status,
		queries: queries,
		feed:    feed,
		watcher: watcher,
		tracer:  otel.Tracer("order-http"),
	}
}

// Routes is the buyer surface, mounted at /orders.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(identity.RequireUser)
	r.Post("/", h.placeOrder)
	r.Get("/", h.listOrders)
	r.Get("/stream", h.stream)
	r.Get("/{id}", h.getOrder)
	r.Post("/{id}/cancel", h.cancelOrder)
	return r
}

// SellerRoutes is the back-office surface, mounted at /seller/orders.
func (h *Handler) SellerRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(identity.RequireRole(identity.RoleSeller, identity.RoleAdmin))
	r.Get("/", h.listAllOrders)
	r.Get("/{id}", h.getOrder)
	r.Post("/{id}/{action}", h.applyAction)
	return r
}

type placeOrderReq struct {
	ShippingAddress domain.Address       `json:"shipping_address"`
	BillingAddress  *domain.Address      `json:"billing_address"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
	CouponCode      string               `json:"coupon_code"`
	Notes           string               `json:"notes"`
}

type trackingReq struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrderHTTP")
	defer span.End()
	u, _ := identity.CurrentUser(ctx)

	var req placeOrderReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCOD
	}

	o, err := h.placer.Place(ctx, u.ID, application.PlaceRequest{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, toView(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	orders, err := h.queries.ListOrders(r.Context(), u.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toViews(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	o, err := h.queries.GetOrder(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toView(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())
	o, err := h.status.Cancel(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toView(o))
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			httpx.RespondError(w, http.StatusBadRequest, "invalid_status", fmt.Sprintf("unknown status %q", raw))
			return
		}
		status = &st
	}

	orders, err := h.queries.ListAllOrders(r.Context(), status)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toViews(orders))
}

func (h *Handler) applyAction(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.CurrentUser(r.Context())

	var req trackingReq
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	var tracking *domain.Tracking
	if req.TrackingNumber != "" || req.TrackingURL != "" {
		tracking = &domain.Tracking{Number: req.TrackingNumber, URL: req.TrackingURL}
	}

	action := domain.Action(chi.URLParam(r, "action"))
	o, err := h.status.Apply(r.Context(), u, chi.URLParam(r, "id"), action, tracking)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toView(o))
}

// stream pushes the buyer's order changes as server-sent events until the
// client goes away.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, _ := identity.CurrentUser(ctx)

	sub, err := h.feed.Subscribe(ctx, application.FeedTable, u.ID)
	if err != nil {
		h.log.Error("order stream subscribe failed", "user_id", u.ID, "err", err)
		httpx.RespondError(w, http.StatusServiceUnavailable, "stream_unavailable", "live updates are unavailable")
		return
	}
	defer sub.Close()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ": connected\n\n")
	_ = rc.Flush()

	err = h.watcher.Watch(ctx, u.ID, sub.Events(), func(up application.Update) {
		data, err := json.Marshal(up)
		if err != nil {
			h.log.Error("order update marshal failed", "order_id", up.OrderID, "err", err)
			return
		}
		_, _ = fmt.Fprintf(w, "event: order\ndata: %s\n\n", data)
		_ = rc.Flush()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		h.log.Warn("order stream ended", "user_id", u.ID, "err", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var (
		verr *domain.ValidationError
		cerr *coupondomain.Error
	)
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		httpx.RespondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.As(err, &verr):
		httpx.RespondJSON(w, http.StatusBadRequest, httpx.ErrorResponse{Error: verr.Error(), Code: "invalid_" + verr.Field})
	case errors.As(err, &cerr):
		httpx.RespondError(w, http.StatusUnprocessableEntity, "coupon_"+string(cerr.Kind), cerr.Message())
	case errors.Is(err, domain.ErrEmptyCart):
		httpx.RespondError(w, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		httpx.RespondError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, domain.ErrCartChanged):
		httpx.RespondError(w, http.StatusConflict, "cart_changed", err.Error())
	case errors.Is(err, domain.ErrPlacementInFlight):
		httpx.RespondError(w, http.StatusConflict, "placement_in_flight", err.Error())
	case errors.Is(err, domain.ErrIllegalStatusTransition):
		httpx.RespondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		httpx.RespondError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrUnknownAction):
		httpx.RespondError(w, http.StatusBadRequest, "unknown_action", err.Error())
	case errors.Is(err, domain.ErrPersistence):
		h.log.Error("order request failed", "err", err)
		httpx.RespondError(w, http.StatusInternalServerError, "persistence_failure", domain.ErrPersistence.Error())
	default:
		h.log.Error("order request failed", "err", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
