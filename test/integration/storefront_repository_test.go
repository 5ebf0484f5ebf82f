//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/dmehra2102/storefront/internal/catalog/domain"
	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	wishlistdomain "github.com/dmehra2102/storefront/internal/wishlist/domain"
	wishlistpg "github.com/dmehra2102/storefront/internal/wishlist/infrastructure/postgres"
	"github.com/dmehra2102/storefront/pkg/logging"
)

func TestWishlistRepository(t *testing.T) {
	ctx := context.Background()
	repo := wishlistpg.NewRepository(logging.Discard(), pool)
	user := "user-" + uuid.NewString()
	p := seedProduct(t, "scarf", 1200, 2, true)
	hidden := seedProduct(t, "retired", 1200, 2, false)

	added, err := repo.Add(ctx, user, p.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, user, p.ID)
	require.NoError(t, err)
	assert.False(t, added, "second add is a no-op")

	_, err = repo.Add(ctx, user, hidden.ID)
	assert.ErrorIs(t, err, wishlistdomain.ErrProductNotFound)
	_, err = repo.Add(ctx, user, uuid.NewString())
	assert.ErrorIs(t, err, wishlistdomain.ErrProductNotFound)

	items, err := repo.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ProductID)
	assert.Equal(t, int64(1200), items[0].Product.PriceCents)
	assert.True(t, items[0].Product.InStock)

	in, err := repo.Contains(ctx, user, p.ID)
	require.NoError(t, err)
	assert.True(t, in)

	removed, err := repo.Remove(ctx, user, p.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Remove(ctx, user, p.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCatalogRepository_FiltersAndSlug(t *testing.T) {
	ctx := context.Background()
	repo := catalogpg.NewRepository(logging.Discard(), pool)
	brand := "Acme-" + uuid.NewString()[:6]

	cheap := seedProduct(t, "widget", 500, 3, true)
	dear := seedProduct(t, "gizmo", 9000, 0, true)
	_, err := pool.Exec(ctx, `UPDATE products SET brand=$1 WHERE id = ANY($2::uuid[])`, brand, []string{cheap.ID, dear.ID})
	require.NoError(t, err)

	minPrice := int64(1000)
	got, err := repo.ListProducts(ctx, catalogdomain.Query{Brand: brand, MinPriceCents: &minPrice})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dear.ID, got[0].ID)
	assert.False(t, got[0].InStock())

	got, err = repo.ListProducts(ctx, catalogdomain.Query{Brand: brand, Search: "WIDG"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cheap.ID, got[0].ID)

	brands, err := repo.Brands(ctx)
	require.NoError(t, err)
	assert.Contains(t, brands, brand)

	one, err := repo.ProductBySlug(ctx, cheap.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(500), one.PriceCents)

	_, err = repo.ProductBySlug(ctx, "no-such-"+uuid.NewString())
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}
