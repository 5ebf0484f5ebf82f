package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	log    *slog.Logger
	repo   CartRepository
	cache  CartCache
	sfg    singleflight.Group
	tracer trace.Tracer
}

func NewService(log *slog.Logger, repo CartRepository, cache CartCache) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		cache:  cache,
		tracer: otel.Tracer("cart"),
	}
}

// Get serves the cart through the cache. Concurrent misses for one user share
// a single repository read.
func (s *Service) Get(ctx context.Context, userID string) (domain.Cart, error) {
	if userID == "" {
		return domain.Cart{}, identity.ErrUnauthenticated
	}

	v, err, _ := s.sfg.Do(userID, func() (any, error) {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return *cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("cart cache get failed", "user_id", userID, "err", err)
		}

		c, err := s.Snapshot(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, userID, &c); err != nil {
			s.log.Warn("cart cache set failed", "user_id", userID, "err", err)
		}
		return c, nil
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return v.(domain.Cart), nil
}

// Snapshot reads the cart straight from the store.
func (s *Service) Snapshot(ctx context.Context, userID string) (domain.Cart, error) {
	if userID == "" {
		return domain.Cart{}, identity.ErrUnauthenticated
	}
	ctx, span := s.tracer.Start(ctx, "CartSnapshot")
	defer span.End()

	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return domain.Cart{}, fmt.Errorf("load cart lines: %w", err)
	}
	return domain.Cart{UserID: userID, Lines: lines}, nil
}

func (s *Service) Add(ctx context.Context, userID, productID string, variantID *string, qty int) error {
	if userID == "" {
		return identity.ErrUnauthenticated
	}
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	if uuid.Validate(productID) != nil {
		return domain.ErrProductNotFound
	}
	if variantID != nil && uuid.Validate(*variantID) != nil {
		return domain.ErrProductNotFound
	}

	if err := s.repo.AddLine(ctx, userID, productID, variantID, qty); err != nil {
		s.log.Error("cart add failed", "user_id", userID, "product_id", productID, "err", err)
		return err
	}
	s.Invalidate(userID)
	return nil
}

// UpdateQuantity removes the line when qty drops below 1.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, qty int) error {
	if userID == "" {
		return identity.ErrUnauthenticated
	}
	if qty < 1 {
		return s.Remove(ctx, userID, lineID)
	}
	if uuid.Validate(lineID) != nil {
		return domain.ErrLineNotFound
	}

	if err := s.repo.SetQuantity(ctx, userID, lineID, qty); err != nil {
		return err
	}
	s.Invalidate(userID)
	return nil
}

func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	if userID == "" {
		return identity.ErrUnauthenticated
	}
	if uuid.Validate(lineID) != nil {
		return domain.ErrLineNotFound
	}

	if err := s.repo.RemoveLine(ctx, userID, lineID); err != nil {
		return err
	}
	s.Invalidate(userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return identity.ErrUnauthenticated
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		s.log.Error("cart clear failed", "user_id", userID, "err", err)
		return err
	}
	s.Invalidate(userID)
	return nil
}

// Invalidate drops the cached cart. Failures are logged only; the entry
// expires on its own.
func (s *Service) Invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cart cache invalidate failed", "user_id", userID, "err", err)
	}
}
