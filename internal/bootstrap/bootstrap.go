// Package bootstrap monta a cadeia de middlewares de rate limit a partir de
// config.Config. Os binários em cmd/ só chamam Build e Wrap.
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nobra-gateway/internal/config"
	"nobra-gateway/middleware/ratelimit"
	"nobra-gateway/middleware/ratelimit/domain"
	"nobra-gateway/middleware/ratelimit/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const memorySweepEvery = 5 * time.Second

type Limiter struct {
	rate        func(http.Handler) http.Handler
	concurrency func(http.Handler) http.Handler

	registry *prometheus.Registry
	stats    domain.StatsStore
	closers  []func() error
}

// Build cria store, breaker, stats e middlewares. Goroutines de limpeza param
// quando ctx é cancelado.
func Build(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*Limiter, error) {
	l := &Limiter{}

	whitelist, err := domain.NewWhitelist(cfg.RateLimit.Whitelist)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	var store domain.CounterStore
	switch cfg.RateLimit.Store {
	case config.StoreMemory:
		mem := infra.NewMemoryStore()
		mem.StartSweeper(ctx, memorySweepEvery)
		store = mem
	default:
		rdb = infra.NewRedisClient(ctx, infra.RedisClientOptions{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			Timeout:  cfg.Redis.Timeout,
		}, log)
		if rdb == nil {
			log.WithField("policy", string(cfg.RateLimit.FailurePolicy)).
				Warn("rate limit store unavailable, failure policy applies to every request")
			store = infra.UnavailableStore{}
			break
		}
		l.closers = append(l.closers, rdb.Close)
		store = infra.NewRedisStore(rdb)
		if cfg.Breaker.Enabled {
			store = infra.NewBreakerStore(store, infra.BreakerOptions{
				Name:     "redis-counter",
				Failures: cfg.Breaker.Failures,
				OpenFor:  cfg.Breaker.Timeout,
				Logger:   log,
			})
		}
	}

	var fallback domain.LimiterStore
	if cfg.RateLimit.FailurePolicy == domain.FailLocal {
		buckets := infra.NewTokenBuckets(cfg.RateLimit.RequestsPerSecond)
		buckets.StartSweeper(ctx)
		fallback = buckets
	}

	if err := l.buildStats(ctx, cfg, rdb, log); err != nil {
		_ = l.Close()
		return nil, err
	}

	rate, err := ratelimit.New(ratelimit.Options{
		Store:              store,
		Limit:              cfg.RateLimit.RequestsPerSecond,
		Whitelist:          whitelist,
		FailurePolicy:      cfg.RateLimit.FailurePolicy,
		Fallback:           fallback,
		Stats:              l.stats,
		Logger:             log,
		IgnoreProxyHeaders: !cfg.RateLimit.TrustProxyHeaders,
	})
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	l.rate = rate
	l.concurrency = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.Concurrency.Max,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.Concurrency.Timeout,
	})

	log.WithFields(logrus.Fields{
		"limit":           cfg.RateLimit.RequestsPerSecond,
		"whitelist":       whitelist.Len(),
		"policy":          string(cfg.RateLimit.FailurePolicy),
		"store":           cfg.RateLimit.Store,
		"trust_proxy":     cfg.RateLimit.TrustProxyHeaders,
		"stats":           cfg.Stats.Backend,
		"concurrency_max": cfg.Concurrency.Max,
	}).Info("rate limiter configured")

	return l, nil
}

func (l *Limiter) buildStats(ctx context.Context, all config.Config, rdb *redis.Client, log logrus.FieldLogger) error {
	cfg := all.Stats
	switch cfg.Backend {
	case config.StatsMemory:
		l.stats = infra.NewMemoryStats(infra.WithTrackKeys(cfg.TrackKeys))
	case config.StatsRedis:
		if rdb == nil {
			log.Warn("redis stats requested without a redis connection, stats disabled")
			return nil
		}
		l.stats = l.remoteStats(ctx, infra.NewRedisStats(rdb,
			infra.WithStatsPrefix(cfg.Prefix),
			infra.WithStatsTTL(cfg.TTL),
			infra.WithStatsTrackKeys(cfg.TrackKeys),
		), cfg, all.Breaker, log)
	case config.StatsPrometheus:
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		ps, err := infra.NewPrometheusStats(reg)
		if err != nil {
			return err
		}
		l.registry = reg
		l.stats = ps
	}
	return nil
}

// remoteStats grava num worker próprio, com prazo por escrita e breaker, para
// que um Redis lento nunca segure a requisição.
func (l *Limiter) remoteStats(ctx context.Context, inner domain.StatsStore, cfg config.StatsConfig, breaker config.BreakerConfig, log logrus.FieldLogger) domain.StatsStore {
	if breaker.Enabled {
		inner = infra.NewBreakerStats(inner, cfg.Timeout, infra.BreakerOptions{
			Name:     "redis-stats",
			Failures: breaker.Failures,
			OpenFor:  breaker.Timeout,
			Logger:   log,
		})
	}
	async := infra.NewAsyncStats(inner, cfg.Buffer, log)
	async.Start(ctx)
	l.closers = append(l.closers, async.Close)
	return async
}

// Wrap aplica rate limit por fora e limite de concorrência por dentro:
// requisições bloqueadas não ocupam vaga.
func (l *Limiter) Wrap(h http.Handler) http.Handler {
	return l.rate(l.concurrency(h))
}

func (l *Limiter) Stats() domain.StatsStore { return l.stats }

// MetricsHandler expõe /metrics; sem backend Prometheus responde 404.
func (l *Limiter) MetricsHandler() http.Handler {
	if l.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(l.registry, promhttp.HandlerOpts{})
}

// Close libera na ordem inversa da criação.
func (l *Limiter) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		errs = append(errs, l.closers[i]())
	}
	l.closers = nil
	return errors.Join(errs...)
}
