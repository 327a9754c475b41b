package infra

import (
	"context"
	"testing"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"
)

func TestTokenBuckets_SameKeyReturnsSameLimiter(t *testing.T) {
	b := NewTokenBuckets(10)

	l1 := b.Get(domain.Key("k"))
	l2 := b.Get(domain.Key("k"))
	if l1 != l2 {
		t.Fatalf("expected same limiter for same key")
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 bucket, got %d", b.Len())
	}
}

func TestTokenBuckets_BurstEqualsLimit(t *testing.T) {
	b := NewTokenBuckets(2)

	lim := b.Get(domain.Key("k"))
	if !lim.Allow() || !lim.Allow() {
		t.Fatalf("expected the first two Allow calls to pass")
	}
	if lim.Allow() {
		t.Fatalf("expected third immediate Allow to be false")
	}
	if !b.Get(domain.Key("other")).Allow() {
		t.Fatalf("expected a different key to have its own bucket")
	}
}

func TestTokenBuckets_SweepRemovesIdleBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := NewTokenBuckets(10, WithIdleTTL(time.Minute), WithSweepEvery(0))
	b.now = func() time.Time { return now }

	before := b.Get(domain.Key("k"))
	now = now.Add(2 * time.Minute)
	b.Sweep()

	if b.Len() != 0 {
		t.Fatalf("expected idle bucket to be swept")
	}
	if after := b.Get(domain.Key("k")); before == after {
		t.Fatalf("expected limiter to be recreated after sweep")
	}
}

func TestTokenBuckets_StartSweeperStopsWithContext(t *testing.T) {
	b := NewTokenBuckets(10, WithIdleTTL(time.Nanosecond), WithSweepEvery(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b.Get(domain.Key("k"))
	b.StartSweeper(ctx)

	deadline := time.Now().Add(time.Second)
	for b.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected sweeper to remove idle bucket")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSlotPool_BlocksWhenFull(t *testing.T) {
	p := NewSlotPool(1)

	release, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected first Acquire to succeed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected Acquire to fail while pool is full")
	}

	release()
	release2, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected Acquire to succeed after release")
	}
	release2()
}
