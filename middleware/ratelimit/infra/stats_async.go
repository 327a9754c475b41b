package infra

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var ErrStatsQueueFull = errors.New("stats queue full")

// BreakerStats protege um StatsStore remoto com circuit breaker e prazo por
// escrita.
type BreakerStats struct {
	inner   domain.StatsStore
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

var _ domain.StatsStore = (*BreakerStats)(nil)

func NewBreakerStats(inner domain.StatsStore, timeout time.Duration, opts BreakerOptions) *BreakerStats {
	if opts.Name == "" {
		opts.Name = "ratelimit-stats"
	}
	return &BreakerStats{inner: inner, cb: newBreaker(opts), timeout: timeout}
}

func (s *BreakerStats) State() gobreaker.State { return s.cb.State() }

func (s *BreakerStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return nil, s.inner.Record(ctx, ev)
	})
	return breakerErr(err)
}

// AsyncStats tira a gravação de estatísticas do caminho da requisição: Record
// só enfileira, e um worker grava no store interno. Fila cheia descarta o
// evento.
type AsyncStats struct {
	inner  domain.StatsStore
	events chan domain.StatsEvent
	log    logrus.FieldLogger

	dropped atomic.Int64
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ domain.StatsStore = (*AsyncStats)(nil)

func NewAsyncStats(inner domain.StatsStore, buffer int, log logrus.FieldLogger) *AsyncStats {
	if buffer <= 0 {
		buffer = 1024
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AsyncStats{
		inner:  inner,
		events: make(chan domain.StatsEvent, buffer),
		log:    log,
	}
}

// Start sobe o worker; ele para com ctx cancelado ou com Close.
func (s *AsyncStats) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
}

func (s *AsyncStats) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			if err := s.inner.Record(ctx, ev); err != nil {
				s.log.WithError(err).WithField("outcome", string(ev.Outcome)).
					Debug("rate limit stats write failed")
			}
		}
	}
}

func (s *AsyncStats) Record(_ context.Context, ev domain.StatsEvent) error {
	select {
	case s.events <- ev:
		return nil
	default:
		s.dropped.Add(1)
		return ErrStatsQueueFull
	}
}

func (s *AsyncStats) Dropped() int64 { return s.dropped.Load() }

// Close para o worker. Eventos ainda na fila são descartados.
func (s *AsyncStats) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	<-s.done
	return nil
}
