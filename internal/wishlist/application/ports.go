package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/wishlist/domain"
)

type WishlistRepository interface {
	List(ctx context.Context, userID string) ([]domain.Item, error)
	// Add reports false when the product was already saved. It fails with
	// domain.ErrProductNotFound for unknown or inactive products.
	Add(ctx context.Context, userID, productID string) (bool, error)
	// Remove reports whether a row was deleted.
	Remove(ctx context.Context, userID, productID string) (bool, error)
	Contains(ctx context.Context, userID, productID string) (bool, error)
}
