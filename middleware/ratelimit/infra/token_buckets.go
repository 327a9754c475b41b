package infra

import (
	"context"
	"sync"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// TokenBuckets guarda um token bucket (x/time/rate) por identidade, com
// limpeza das chaves ociosas. É o limitador da política de falha "local":
// cada processo passa a limitar sozinho enquanto o contador compartilhado
// estiver fora.
type TokenBuckets struct {
	mu         sync.Mutex
	buckets    map[domain.Key]*bucket
	perSecond  rate.Limit
	burst      int
	idleTTL    time.Duration
	sweepEvery time.Duration
	now        func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

var _ domain.LimiterStore = (*TokenBuckets)(nil)

type BucketOption func(*TokenBuckets)

func WithIdleTTL(d time.Duration) BucketOption {
	return func(b *TokenBuckets) { b.idleTTL = d }
}

func WithSweepEvery(d time.Duration) BucketOption {
	return func(b *TokenBuckets) { b.sweepEvery = d }
}

// NewTokenBuckets usa limit tanto como taxa quanto como burst, o mesmo teto da
// janela de 1s do contador compartilhado.
func NewTokenBuckets(limit int, opts ...BucketOption) *TokenBuckets {
	b := &TokenBuckets{
		buckets:    make(map[domain.Key]*bucket),
		perSecond:  rate.Limit(limit),
		burst:      limit,
		idleTTL:    5 * time.Minute,
		sweepEvery: time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *TokenBuckets) Get(key domain.Key) domain.Limiter {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if bk, ok := b.buckets[key]; ok {
		bk.lastSeen = now
		return bk.lim
	}

	lim := rate.NewLimiter(b.perSecond, b.burst)
	b.buckets[key] = &bucket{lim: lim, lastSeen: now}
	return lim
}

func (b *TokenBuckets) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buckets)
}

// Sweep remove buckets sem uso há mais de idleTTL.
func (b *TokenBuckets) Sweep() {
	cutoff := b.now().Add(-b.idleTTL)

	b.mu.Lock()
	defer b.mu.Unlock()

	for k, bk := range b.buckets {
		if bk.lastSeen.Before(cutoff) {
			delete(b.buckets, k)
		}
	}
}

// StartSweeper roda Sweep periodicamente até ctx ser cancelado.
func (b *TokenBuckets) StartSweeper(ctx context.Context) {
	if b.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(b.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.Sweep()
			}
		}
	}()
}
