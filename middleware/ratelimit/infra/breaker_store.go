package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerStore envolve um CounterStore com circuit breaker. Com o circuito
// aberto as operações falham na hora, sem esperar o timeout do Redis.
type BreakerStore struct {
	inner domain.CounterStore
	cb    *gobreaker.CircuitBreaker
}

var _ domain.CounterStore = (*BreakerStore)(nil)

type BreakerOptions struct {
	Name string
	// Falhas consecutivas até abrir o circuito.
	Failures uint32
	// Tempo aberto antes de deixar passar uma tentativa.
	OpenFor time.Duration
	Logger  logrus.FieldLogger
}

func NewBreakerStore(inner domain.CounterStore, opts BreakerOptions) *BreakerStore {
	if opts.Name == "" {
		opts.Name = "ratelimit-store"
	}
	return &BreakerStore{inner: inner, cb: newBreaker(opts)}
}

func newBreaker(opts BreakerOptions) *gobreaker.CircuitBreaker {
	if opts.Failures == 0 {
		opts.Failures = 5
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 10 * time.Second
	}
	failures := opts.Failures
	log := opts.Logger

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// cliente que desistiu não diz nada sobre a saúde do store
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log == nil {
				return
			}
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("rate limit store breaker state changed")
		},
	})
}

func (s *BreakerStore) State() gobreaker.State { return s.cb.State() }

func (s *BreakerStore) Incr(ctx context.Context, key string) (int64, error) {
	v, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Incr(ctx, key)
	})
	if err != nil {
		return 0, breakerErr(err)
	}
	return v.(int64), nil
}

func (s *BreakerStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Expire(ctx, key, ttl)
	})
	return breakerErr(err)
}

func (s *BreakerStore) Count(ctx context.Context, key string) (int64, error) {
	v, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Count(ctx, key)
	})
	if err != nil {
		return 0, breakerErr(err)
	}
	return v.(int64), nil
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}
