package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("key not found")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// NoopCache is used when no Redis address is configured. Every lookup misses.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return nil
}

func (NoopCache) Delete(ctx context.Context, keys ...string) error {
	return nil
}

func (NoopCache) Close() error {
	return nil
}
