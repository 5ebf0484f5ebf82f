package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/order/domain"
)

type Queries struct {
	log   *slog.Logger
	repo  OrderRepository
	cache OrderCache
}

func NewQueries(log *slog.Logger, repo OrderRepository, cache OrderCache) *Queries {
	return &Queries{log: log, repo: repo, cache: cache}
}

// ListOrders returns the buyer's orders, newest first.
func (q *Queries) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, identity.ErrUnauthenticated
	}

	orders, err := q.cache.GetList(ctx, userID)
	if err == nil {
		return orders, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		q.log.Warn("order cache get failed", "user_id", userID, "err", err)
	}

	orders, err = q.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := q.cache.SetList(ctx, userID, orders); err != nil {
		q.log.Warn("order cache set failed", "user_id", userID, "err", err)
	}
	return orders, nil
}

// GetOrder hides other buyers' orders behind ErrOrderNotFound.
func (q *Queries) GetOrder(ctx context.Context, actor identity.User, id string) (domain.Order, error) {
	if actor.ID == "" {
		return domain.Order{}, identity.ErrUnauthenticated
	}
	o, err := q.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if actor.Role == identity.RoleCustomer && o.UserID != actor.ID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListAllOrders is the seller/admin view, optionally filtered by status.
func (q *Queries) ListAllOrders(ctx context.Context, status *domain.Status) ([]domain.Order, error) {
	return q.repo.List(ctx, status)
}
