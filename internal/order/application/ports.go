package application

import (
	"context"
	"errors"

	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	coupondomain "github.com/dmehra2102/storefront/internal/coupon/domain"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

var ErrCacheMiss = errors.New("cache miss")

// OrderRepository writes every order change together with its outbox record
// in one transaction.
type OrderRepository interface {
	// CreateWithOutbox persists the order and items, decrements stock, redeems
	// the coupon and empties the buyer's cart. It returns
	// domain.ErrDuplicateOrderNumber when the number is taken.
	CreateWithOutbox(ctx context.Context, o domain.Order, rec outbox.Record) error
	// UpdateStatusWithOutbox returns domain.ErrIllegalStatusTransition when
	// the order is no longer in ch.From at commit time.
	UpdateStatusWithOutbox(ctx context.Context, ch domain.StatusChange, rec outbox.Record) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, status *domain.Status) ([]domain.Order, error)
}

type OrderCache interface {
	GetList(ctx context.Context, userID string) ([]domain.Order, error)
	SetList(ctx context.Context, userID string, orders []domain.Order) error
	Invalidate(ctx context.Context, userID string) error
}

type CartReader interface {
	Snapshot(ctx context.Context, userID string) (cartdomain.Cart, error)
	Invalidate(userID string)
}

type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotalCents int64) (coupondomain.Result, error)
}

type InflightGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// NotificationLog marks a notification key as raised and reports whether it
// already was.
type NotificationLog interface {
	Seen(ctx context.Context, key string) (bool, error)
}

type NumberSource interface {
	Next() (string, error)
}
