package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type entry struct {
	Symbol string            `json:"symbol"`
	Prices map[string]string `json:"prices"`
}

func TestMemoryCache_RoundTripsJSON(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := entry{Symbol: "VOO", Prices: map[string]string{"2025-01-01": "500.1"}}
	if err := mc.Set(ctx, "k", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := GetTyped[entry](ctx, mc, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Symbol != "VOO" || out.Prices["2025-01-01"] != "500.1" {
		t.Fatalf("unexpected value %+v", out)
	}

	// Mutating the source must not leak into the cached copy.
	in.Prices["2025-01-01"] = "0"
	out, _ = GetTyped[entry](ctx, mc, "k")
	if out.Prices["2025-01-01"] != "500.1" {
		t.Fatalf("cached value aliased caller map")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "k", "v", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	var s string
	if err := mc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
	if ok, _ := mc.Exists(ctx, "k"); ok {
		t.Fatalf("expired key must not exist")
	}
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", time.Minute)
	_ = mc.Set(ctx, "b", "2", time.Minute)
	_ = mc.Set(ctx, "c", "3", time.Minute)

	if ok, _ := mc.Exists(ctx, "a"); ok {
		t.Fatalf("oldest key should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "c"); !ok {
		t.Fatalf("newest key missing")
	}
}

func TestMemoryCache_TryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, _ := mc.TryLock(ctx, "lock", time.Minute)
	if !ok {
		t.Fatalf("first TryLock should succeed")
	}
	if ok, _ := mc.TryLock(ctx, "lock", time.Minute); ok {
		t.Fatalf("second TryLock should fail while held")
	}
	_ = mc.Unlock(ctx, "lock")
	if ok, _ := mc.TryLock(ctx, "lock", time.Minute); !ok {
		t.Fatalf("TryLock after Unlock should succeed")
	}
}

func TestMemoryCache_GetRefreshesRecency(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", 0)
	_ = mc.Set(ctx, "b", "2", 0)
	var s string
	if err := mc.Get(ctx, "a", &s); err != nil || s != "1" {
		t.Fatalf("Get a = %q, %v", s, err)
	}
	_ = mc.Set(ctx, "c", "3", 0)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("least recently used key b should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "a"); !ok {
		t.Fatalf("recently read key a was evicted")
	}
	if mc.Len() != 2 {
		t.Fatalf("Len = %d, want 2", mc.Len())
	}
}

func TestMemoryCache_DropExpiredAndClose(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(0))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return base }

	_ = mc.Set(ctx, "short", "x", time.Second)
	_ = mc.Set(ctx, "forever", "y", 0)
	mc.now = func() time.Time { return base.Add(time.Hour) }
	mc.dropExpired()

	if mc.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after sweep", mc.Len())
	}
	if err := mc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestLayeredCache_L1ExpiryCapsRemoteTTL(t *testing.T) {
	lc := &LayeredCache{l1TTL: time.Minute}
	cases := map[time.Duration]time.Duration{
		0:                time.Minute,
		-time.Second:     time.Minute,
		30 * time.Second: 30 * time.Second,
		time.Hour:        time.Minute,
	}
	for remote, want := range cases {
		if got := lc.l1Expiry(remote); got != want {
			t.Fatalf("l1Expiry(%v) = %v, want %v", remote, got, want)
		}
	}
}

func TestGenerateKeyWithParams(t *testing.T) {
	if got := GenerateKeyWithParams("prices", "VOO", "equity"); got != "prices:VOO:equity" {
		t.Fatalf("unexpected key %q", got)
	}
}
