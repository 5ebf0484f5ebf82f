package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	coupondomain "github.com/dmehra2102/storefront/internal/coupon/domain"
	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/notify"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type PlacementConfig struct {
	Shipping domain.ShippingPolicy
	Attempts int
	Timeout  time.Duration
}

type PlaceRequest struct {
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	PaymentMethod   domain.PaymentMethod
	CouponCode      string
	Notes           string
}

type PlacementService struct {
	log      *slog.Logger
	repo     OrderRepository
	cart     CartReader
	coupons  CouponEvaluator
	cache    OrderCache
	guard    InflightGuard
	numbers  NumberSource
	notifier notify.Notifier
	cfg      PlacementConfig
	now      func() time.Time
	tracer   trace.Tracer
}

func NewPlacementService(log *slog.Logger, repo OrderRepository, cart CartReader, coupons CouponEvaluator,
	cache OrderCache, guard InflightGuard, numbers NumberSource, notifier notify.Notifier, cfg PlacementConfig) *PlacementService {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &PlacementService{
		log:      log,
		repo:     repo,
		cart:     cart,
		coupons:  coupons,
		cache:    cache,
		guard:    guard,
		numbers:  numbers,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		tracer:   otel.Tracer("order-placement"),
	}
}

// Place turns the user's cart into an order. On any failure the cart is left
// as it was and no order is visible.
func (s *PlacementService) Place(ctx context.Context, userID string, req PlaceRequest) (domain.Order, error) {
	if userID == "" {
		return domain.Order{}, identity.ErrUnauthenticated
	}

	ctx, span := s.tracer.Start(ctx, "PlaceOrder", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	o, err := s.place(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var verr *domain.ValidationError
		if !errors.As(err, &verr) && !errors.Is(err, domain.ErrPlacementInFlight) {
			s.notifier.Notify(ctx, userID, notify.Error("Failed to place order", userMessage(err)))
		}
		return domain.Order{}, err
	}

	span.SetAttributes(attribute.String("order.number", o.Number))
	s.cart.Invalidate(userID)
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("order cache invalidate failed", "user_id", userID, "err", err)
	}
	s.notifier.Notify(ctx, userID, notify.Success("Order placed!", fmt.Sprintf("Your order %s has been placed successfully.", o.Number)))
	s.log.Info("order placed", "order_id", o.ID, "order_number", o.Number, "user_id", userID, "total_cents", o.TotalCents)
	return o, nil
}

func (s *PlacementService) place(ctx context.Context, userID string, req PlaceRequest) (domain.Order, error) {
	if err := domain.ValidateCheckout(req.PaymentMethod, req.ShippingAddress, req.BillingAddress); err != nil {
		return domain.Order{}, err
	}

	key := "checkout:" + userID
	acquired, err := s.guard.Acquire(ctx, key)
	switch {
	case err != nil:
		s.log.Warn("checkout guard unavailable", "user_id", userID, "err", err)
	case !acquired:
		return domain.Order{}, domain.ErrPlacementInFlight
	default:
		defer func() {
			if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
				s.log.Warn("checkout guard release failed", "user_id", userID, "err", err)
			}
		}()
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	c, err := s.cart.Snapshot(ctx, userID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if c.Empty() {
		return domain.Order{}, domain.ErrEmptyCart
	}
	subtotal := c.SubtotalCents()

	var couponCode string
	var discount int64
	if code := coupondomain.Normalize(req.CouponCode); code != "" {
		res, err := s.coupons.Evaluate(ctx, code, subtotal)
		var cerr *coupondomain.Error
		switch {
		case errors.As(err, &cerr):
			return domain.Order{}, err
		case err != nil:
			return domain.Order{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		couponCode, discount = res.Code, res.DiscountCents
	}

	draft := domain.Draft{
		UserID:          userID,
		Items:           itemsFromCart(c),
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		CouponCode:      couponCode,
		DiscountCents:   discount,
		Notes:           req.Notes,
	}
	if err := draft.Validate(); err != nil {
		return domain.Order{}, err
	}

	o := domain.NewOrder(draft, s.cfg.Shipping, s.now().UTC())
	o.AssignIDs(uuid.NewString(), uuid.NewString)

	return s.persist(ctx, o)
}

// persist retries only on order number collisions.
func (s *PlacementService) persist(ctx context.Context, o domain.Order) (domain.Order, error) {
	for attempt := 1; attempt <= s.cfg.Attempts; attempt++ {
		number, err := s.numbers.Next()
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		o.Number = number

		payload, err := json.Marshal(domain.PlacedEvent(o))
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		rec := outbox.Record{
			AggregateType: domain.AggregateType,
			AggregateID:   o.ID,
			Type:          domain.EventOrderPlaced,
			Payload:       payload,
			Headers:       map[string]string{"user_id": o.UserID},
			Traceparent:   tracing.Traceparent(ctx),
		}

		err = s.repo.CreateWithOutbox(ctx, o, rec)
		switch {
		case err == nil:
			return o, nil
		case errors.Is(err, domain.ErrDuplicateOrderNumber):
			s.log.Warn("order number collision, retrying", "order_number", number, "attempt", attempt)
			continue
		case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrCartChanged),
			errors.Is(err, coupondomain.ErrUsageLimitReached):
			return domain.Order{}, err
		default:
			s.log.Error("order create failed", "order_number", number, "err", err)
			return domain.Order{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
	}
	return domain.Order{}, fmt.Errorf("%w: %w after %d attempts", domain.ErrPersistence, domain.ErrDuplicateOrderNumber, s.cfg.Attempts)
}

func itemsFromCart(c cartdomain.Cart) []domain.Item {
	items := make([]domain.Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		productID := l.ProductID
		it := domain.NewItem(&productID, l.VariantID, l.ProductName, l.VariantName, l.Quantity, l.UnitPriceCents())
		it.CartLineID = l.ID
		items = append(items, it)
	}
	return items
}

func userMessage(err error) string {
	var cerr *coupondomain.Error
	switch {
	case errors.As(err, &cerr):
		return cerr.Message()
	case errors.Is(err, domain.ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, domain.ErrInsufficientStock):
		return "Some items in your cart are out of stock."
	case errors.Is(err, domain.ErrCartChanged):
		return "Your cart changed while placing the order. Please review it and try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "Placing the order timed out. Your cart is unchanged; please try again."
	}
	return err.Error()
}
