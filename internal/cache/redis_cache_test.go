package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/Lutefd/currency-data/internal/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func setupTestRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub redis server", err)
	}

	redisCache, err := cache.NewRedisCache(mr.Addr(), "")
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}

	return redisCache, mr
}

func TestNewRedisCache(t *testing.T) {
	redisCache, mr := setupTestRedis(t)
	defer mr.Close()
	defer redisCache.Close()

	assert.NotNil(t, redisCache)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = cache.NewRedisCache(addr, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestGet(t *testing.T) {
	redisCache, mr := setupTestRedis(t)
	defer mr.Close()
	defer redisCache.Close()

	ctx := context.Background()

	_, err := redisCache.Get(ctx, "non_existent_key")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	err = redisCache.Set(ctx, "currency:2022-01-01", []byte("payload"), time.Minute)
	assert.NoError(t, err)

	value, err := redisCache.Get(ctx, "currency:2022-01-01")
	assert.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)
}

func TestSet(t *testing.T) {
	redisCache, mr := setupTestRedis(t)
	defer mr.Close()
	defer redisCache.Close()

	ctx := context.Background()

	err := redisCache.Set(ctx, "expiring_key", []byte("a"), time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("expiring_key"))

	mr.FastForward(2 * time.Minute)
	_, err = redisCache.Get(ctx, "expiring_key")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	err = redisCache.Set(ctx, "no_expiration_key", []byte("b"), 0)
	assert.NoError(t, err)

	value, err := redisCache.Get(ctx, "no_expiration_key")
	assert.NoError(t, err)
	assert.Equal(t, []byte("b"), value)
}

func TestDelete(t *testing.T) {
	redisCache, mr := setupTestRedis(t)
	defer mr.Close()
	defer redisCache.Close()

	ctx := context.Background()

	assert.NoError(t, redisCache.Set(ctx, "first", []byte("1"), time.Minute))
	assert.NoError(t, redisCache.Set(ctx, "second", []byte("2"), time.Minute))

	err := redisCache.Delete(ctx, "first", "second")
	assert.NoError(t, err)

	_, err = redisCache.Get(ctx, "first")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	_, err = redisCache.Get(ctx, "second")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	assert.NoError(t, redisCache.Delete(ctx, "non_existent_key"))
	assert.NoError(t, redisCache.Delete(ctx))
}

func TestClose(t *testing.T) {
	redisCache, mr := setupTestRedis(t)
	defer mr.Close()

	err := redisCache.Close()
	assert.NoError(t, err)

	_, err = redisCache.Get(context.Background(), "test_key")
	assert.Error(t, err)
}

func TestNoopCache(t *testing.T) {
	var c cache.Cache = cache.NoopCache{}
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	assert.NoError(t, c.Delete(ctx, "key"))
	assert.NoError(t, c.Close())
}
