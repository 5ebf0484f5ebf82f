package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/wishlist/domain"
	"github.com/dmehra2102/storefront/pkg/notify"
	"github.com/google/uuid"
)

type Service struct {
	log      *slog.Logger
	repo     WishlistRepository
	notifier notify.Notifier
}

func NewService(log *slog.Logger, repo WishlistRepository, notifier notify.Notifier) *Service {
	return &Service{log: log, repo: repo, notifier: notifier}
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Item, error) {
	if userID == "" {
		return nil, identity.ErrUnauthenticated
	}
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return items, nil
}

// Add is idempotent: saving a product twice keeps one entry.
func (s *Service) Add(ctx context.Context, userID, productID string) error {
	if err := validate(userID, productID); err != nil {
		return err
	}
	added, err := s.repo.Add(ctx, userID, productID)
	if err != nil {
		return err
	}
	if added {
		s.notifier.Notify(ctx, userID, notify.Success("Added to wishlist", "Item has been added to your wishlist."))
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	if err := validate(userID, productID); err != nil {
		return err
	}
	removed, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return err
	}
	if removed {
		s.notifier.Notify(ctx, userID, notify.Success("Removed", "Item has been removed from your wishlist."))
	}
	return nil
}

func (s *Service) Contains(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, identity.ErrUnauthenticated
	}
	if uuid.Validate(productID) != nil {
		return false, nil
	}
	return s.repo.Contains(ctx, userID, productID)
}

// Toggle removes the product when saved and saves it otherwise. It reports
// whether the product is saved afterwards.
func (s *Service) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	if err := validate(userID, productID); err != nil {
		return false, err
	}
	removed, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if removed {
		s.notifier.Notify(ctx, userID, notify.Success("Removed", "Item has been removed from your wishlist."))
		return false, nil
	}
	if _, err := s.repo.Add(ctx, userID, productID); err != nil {
		return false, err
	}
	s.notifier.Notify(ctx, userID, notify.Success("Added to wishlist", "Item has been added to your wishlist."))
	return true, nil
}

func validate(userID, productID string) error {
	if userID == "" {
		return identity.ErrUnauthenticated
	}
	if uuid.Validate(productID) != nil {
		return domain.ErrProductNotFound
	}
	return nil
}
