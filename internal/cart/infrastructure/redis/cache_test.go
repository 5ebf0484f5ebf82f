package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmehra2102/storefront/internal/cart/application"
	"github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, 15*time.Minute), mr
}

func TestCache_SetGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	price := int64(1250)

	in := &domain.Cart{UserID: "u1", Lines: []domain.Line{
		{ID: "l1", ProductID: "p1", Quantity: 2, ProductPriceCents: 1000, VariantPriceCents: &price},
	}}
	require.NoError(t, cache.Set(ctx, "u1", in))

	ttl := mr.TTL(cacheKey("u1"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	out, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, int64(2500), out.SubtotalCents())
}

func TestCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)
	out, err := cache.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, application.ErrCacheMiss)
	assert.Nil(t, out)
}

func TestCache_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("u1"), "{nope"))

	_, err := cache.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, application.ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "u1", &domain.Cart{UserID: "u1"}))

	require.NoError(t, cache.Delete(ctx, "u1"))
	assert.False(t, mr.Exists(cacheKey("u1")))
	require.NoError(t, cache.Delete(ctx, "u1"))
}
