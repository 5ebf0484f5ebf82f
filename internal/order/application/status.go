package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/notify"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type StatusService struct {
	log      *slog.Logger
	repo     OrderRepository
	cache    OrderCache
	notifier notify.Notifier
	now      func() time.Time
	tracer   trace.Tracer
}

func NewStatusService(log *slog.Logger, repo OrderRepository, cache OrderCache, notifier notify.Notifier) *StatusService {
	return &StatusService{
		log:      log,
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		now:      time.Now,
		tracer:   otel.Tracer("order-status"),
	}
}

// Cancel is the buyer path: only the owner, only while pending.
func (s *StatusService) Cancel(ctx context.Context, actor identity.User, orderID string) (domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.StatusCancelled, nil)
}

// Apply runs a seller action such as "ship" against an order.
func (s *StatusService) Apply(ctx context.Context, actor identity.User, orderID string, action domain.Action, tracking *domain.Tracking) (domain.Order, error) {
	to, err := action.Target()
	if err != nil {
		return domain.Order{}, err
	}
	return s.Transition(ctx, actor, orderID, to, tracking)
}

// Transition moves an order to status to. The stored status must still match
// what was read when the write commits; a concurrent change makes this fail
// with domain.ErrIllegalStatusTransition.
func (s *StatusService) Transition(ctx context.Context, actor identity.User, orderID string, to domain.Status, tracking *domain.Tracking) (domain.Order, error) {
	if actor.ID == "" {
		return domain.Order{}, identity.ErrUnauthenticated
	}

	ctx, span := s.tracer.Start(ctx, "TransitionOrder", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.to", string(to)),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer span.End()

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if actor.Role == identity.RoleCustomer && o.UserID != actor.ID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err := domain.Authorize(actor.Role, o.Status, to); err != nil {
		return domain.Order{}, err
	}

	ch := domain.NewStatusChange(o, to, tracking)
	payload, err := json.Marshal(domain.StatusChangedEvent(o, ch, actor.ID, s.now().UTC()))
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	rec := outbox.Record{
		AggregateType: domain.AggregateType,
		AggregateID:   o.ID,
		Type:          domain.EventOrderStatusChanged,
		Payload:       payload,
		Headers:       map[string]string{"user_id": o.UserID},
		Traceparent:   tracing.Traceparent(ctx),
	}

	updated, err := s.repo.UpdateStatusWithOutbox(ctx, ch, rec)
	switch {
	case errors.Is(err, domain.ErrIllegalStatusTransition), errors.Is(err, domain.ErrOrderNotFound):
		return domain.Order{}, err
	case err != nil:
		span.RecordError(err)
		s.log.Error("order status update failed", "order_id", o.ID, "to", to, "err", err)
		return domain.Order{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	if err := s.cache.Invalidate(ctx, o.UserID); err != nil {
		s.log.Warn("order cache invalidate failed", "user_id", o.UserID, "err", err)
	}
	if actor.ID != o.UserID {
		s.notifier.Notify(ctx, actor.ID, notify.Success("Order updated", fmt.Sprintf("Order %s is now %s.", o.Number, to)))
	}
	s.log.Info("order status changed", "order_id", o.ID, "from", ch.From, "to", ch.To, "actor", actor.ID, "role", actor.Role)
	return updated, nil
}
