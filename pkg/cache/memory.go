package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memEntry struct {
	key      string
	value    []byte
	expireAt time.Time // zero means no expiry
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryCache is a size-bounded LRU holding encoded values. A background loop
// drops expired entries until Close.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is most recently used
	maxSize int
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize < 1 {
		cfg.MaxSize = 1
	}

	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: cfg.MaxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go mc.cleanupLoop(cfg.CleanupInterval)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.put(key, data, expiration)
	return nil
}

// put stores a private copy of data. Callers hold mu.
func (mc *MemoryCache) put(key string, data []byte, expiration time.Duration) {
	e := &memEntry{key: key, value: append([]byte(nil), data...)}
	if expiration > 0 {
		e.expireAt = mc.now().Add(expiration)
	}

	if el, ok := mc.items[key]; ok {
		el.Value = e
		mc.order.MoveToFront(el)
		return
	}
	for mc.order.Len() >= mc.maxSize {
		mc.removeElement(mc.order.Back())
	}
	mc.items[key] = mc.order.PushFront(e)
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	e, ok := mc.lookup(key)
	var data []byte
	if ok {
		data = e.value
	}
	mc.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return decode(data, dest)
}

// lookup returns a live entry and marks it used. Callers hold mu.
func (mc *MemoryCache) lookup(key string) (*memEntry, bool) {
	el, ok := mc.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*memEntry)
	if e.expired(mc.now()) {
		mc.removeElement(el)
		return nil, false
	}
	mc.order.MoveToFront(el)
	return e, true
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if el, ok := mc.items[key]; ok {
			mc.removeElement(el)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if _, ok := mc.lookup(key); ok {
			return true, nil
		}
	}
	return false, nil
}

// TryLock claims key for ttl unless a live entry already holds it.
func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, held := mc.lookup(key); held {
		return false, nil
	}
	mc.put(key, []byte(lockValue), ttl)
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Len reports the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.order.Len()
}

func (mc *MemoryCache) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	mc.order.Remove(el)
	delete(mc.items, el.Value.(*memEntry).key)
}

func (mc *MemoryCache) cleanupLoop(interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-t.C:
			mc.dropExpired()
		}
	}
}

func (mc *MemoryCache) dropExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := mc.now()
	for el := mc.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memEntry).expired(now) {
			mc.removeElement(el)
		}
		el = prev
	}
}

// Close stops the cleanup loop. It is safe to call more than once.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() { close(mc.stop) })
	return nil
}
