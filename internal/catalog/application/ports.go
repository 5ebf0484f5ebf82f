package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

type CatalogRepository interface {
	ListProducts(ctx context.Context, q domain.Query) ([]domain.Product, error)
	// ProductBySlug fails with domain.ErrProductNotFound for unknown or
	// inactive products.
	ProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	// CategoryID reports false when no active category has slug.
	CategoryID(ctx context.Context, slug string) (string, bool, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Brands(ctx context.Context) ([]string, error)
}
