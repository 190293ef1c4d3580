package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_RefillsOverTime(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	if !l.Allow("u1", 2, 1) || !l.Allow("u1", 2, 1) {
		t.Fatalf("first two requests should pass")
	}
	if l.Allow("u1", 2, 1) {
		t.Fatalf("third request should be limited")
	}
	if !l.Allow("u2", 2, 1) {
		t.Fatalf("keys must be independent")
	}

	now = now.Add(time.Second)
	if !l.Allow("u1", 2, 1) {
		t.Fatalf("one token should have refilled")
	}
}

func TestLimiter_SweepDropsFullBuckets(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	l.Allow("a", 1, 1)
	now = now.Add(5 * time.Second)
	l.Sweep()
	if l.Len() != 0 {
		t.Fatalf("expected idle bucket to be swept, have %d", l.Len())
	}
}
