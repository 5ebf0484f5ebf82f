package application

import (
	"context"
	"errors"

	"github.com/dmehra2102/storefront/internal/cart/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type CartRepository interface {
	Lines(ctx context.Context, userID string) ([]domain.Line, error)
	// AddLine merges quantity into an existing (product, variant) line.
	AddLine(ctx context.Context, userID, productID string, variantID *string, qty int) error
	SetQuantity(ctx context.Context, userID, lineID string, qty int) error
	RemoveLine(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
