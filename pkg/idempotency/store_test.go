package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Minute), mr
}

func TestKey_Format(t *testing.T) {
	s, _ := setupStore(t)
	assert.Equal(t, "idem:order.events:2:41", s.Key("order.events", 2, 41))
}

func TestSeen_FirstThenDuplicate(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "idem:t:0:1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(ctx, "idem:t:0:1")
	require.NoError(t, err)
	assert.True(t, seen)

	assert.Equal(t, time.Minute, mr.TTL("idem:t:0:1"))
}

func TestAcquireRelease(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	ok, err := s.Acquire(ctx, "checkout:u-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Acquire(ctx, "checkout:u-1")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	require.NoError(t, s.Release(ctx, "checkout:u-1"))
	assert.False(t, mr.Exists("inflight:checkout:u-1"))

	ok, err = s.Acquire(ctx, "checkout:u-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquire_ExpiresAfterTTL(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	ok, err := s.Acquire(ctx, "checkout:u-2")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = s.Acquire(ctx, "checkout:u-2")
	require.NoError(t, err)
	assert.True(t, ok)
}
