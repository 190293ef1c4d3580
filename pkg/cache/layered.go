package cache

import (
	"context"
	"time"
)

// LayeredCache reads through a process-local LRU (L1) in front of Redis (L2).
// Writes go to Redis first. Locks live only in Redis so every replica sees them.
type LayeredCache struct {
	l1    *MemoryCache
	l2    *RedisCache
	l1TTL time.Duration
}

// NewLayeredCache creates a layered cache over redisCache.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		MemoryTTL:     time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		l1:    NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		l2:    redisCache,
		l1TTL: cfg.MemoryTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := lc.l2.Set(ctx, key, data, expiration); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, data, lc.l1Expiry(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}

	// Raw bytes keep the L1 copy in the same encoding.
	var raw []byte
	if err := lc.l2.Get(ctx, key, &raw); err != nil {
		return err
	}
	if err := decode(raw, dest); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, raw, lc.l1Expiry(lc.l2.ttl(ctx, key)))
	return nil
}

// l1Expiry caps remote lifetimes at the L1 TTL so replicas converge.
func (lc *LayeredCache) l1Expiry(remote time.Duration) time.Duration {
	if remote <= 0 || remote > lc.l1TTL {
		return lc.l1TTL
	}
	return remote
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	if ok, _ := lc.l1.Exists(ctx, keys...); ok {
		return true, nil
	}
	return lc.l2.Exists(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.l2.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.l2.Unlock(ctx, key)
}

// Close stops the memory layer. The Redis client is closed by its owner.
func (lc *LayeredCache) Close() error {
	return lc.l1.Close()
}
