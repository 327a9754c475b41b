package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"nobra-gateway/middleware/ratelimit/application"
	"nobra-gateway/middleware/ratelimit/domain"

	"github.com/sirupsen/logrus"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderRetry     = "Retry-After"
)

type Options struct {
	Store domain.CounterStore
	// Limit é o máximo de requisições por segundo por IP. Obrigatório.
	Limit     int
	Whitelist domain.Whitelist
	// FailurePolicy vazio equivale a domain.FailOpen.
	FailurePolicy domain.FailurePolicy
	// Fallback é obrigatório com FailurePolicy = domain.FailLocal.
	Fallback domain.LimiterStore
	Stats    domain.StatsStore
	Logger   logrus.FieldLogger
	// IgnoreProxyHeaders faz a identidade vir só do RemoteAddr.
	IgnoreProxyHeaders bool
	Now                func() time.Time
}

// New valida as opções e monta o middleware.
func New(opts Options) (func(next http.Handler) http.Handler, error) {
	policy, err := domain.ParseFailurePolicy(string(opts.FailurePolicy))
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	svc := application.Service{
		Store:      opts.Store,
		Limit:      opts.Limit,
		Policy:     policy,
		Fallback:   opts.Fallback,
		RetryAfter: domain.Window,
		Now:        opts.Now,
	}
	if err := svc.Validate(); err != nil {
		return nil, err
	}

	l := &limiter{opts: opts, svc: svc}
	return l.wrap, nil
}

// Middleware é como New, mas entra em pânico com opções inválidas.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	mw, err := New(opts)
	if err != nil {
		panic(fmt.Sprintf("ratelimit: %v", err))
	}
	return mw
}

type limiter struct {
	opts Options
	svc  application.Service
}

func (l *limiter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := domain.Key(ClientIP(r, !l.opts.IgnoreProxyHeaders))

		if l.opts.Whitelist.Contains(key) {
			l.record(ctx, r, key, domain.OutcomeWhitelisted)
			next.ServeHTTP(w, r)
			return
		}

		dec := l.svc.Decide(ctx, key)
		if dec.Err != nil {
			entry := l.opts.Logger.WithFields(logrus.Fields{
				"client_ip": string(key),
				"key":       dec.Key,
				"policy":    string(l.svc.Policy),
				"allowed":   dec.Allowed,
			}).WithError(dec.Err)
			if domain.IsStoreError(dec.Err) {
				entry.Warn("rate limit store error")
			} else {
				entry.Error("rate limit store error")
			}
		}
		l.record(ctx, r, key, dec.Outcome)

		if !dec.Allowed {
			if dec.Outcome == domain.OutcomeStoreError {
				l.unavailable(w, dec)
				return
			}
			l.reject(w, dec)
			return
		}

		hw := &headerWriter{
			ResponseWriter: w,
			decorate: func(h http.Header) {
				h.Set(HeaderLimit, formatInt(dec.Limit))
				h.Set(HeaderRemaining, formatInt(l.svc.Remaining(ctx, dec.Key)))
				h.Set(HeaderReset, formatInt64(dec.Reset.Unix()))
			},
		}
		next.ServeHTTP(hw, r)
		hw.commit()
	})
}

func (l *limiter) reject(w http.ResponseWriter, dec domain.Decision) {
	retry := seconds(dec.RetryAfter)

	h := w.Header()
	h.Set(HeaderRetry, formatInt(retry))
	h.Set(HeaderLimit, formatInt(dec.Limit))
	h.Set(HeaderRemaining, "0")
	h.Set(HeaderReset, formatInt64(dec.Reset.Unix()))

	writeError(w, http.StatusTooManyRequests, ErrorBody{
		Error:      "RateLimitExceeded",
		Message:    fmt.Sprintf("Rate limit exceeded. Maximum %d requests per second allowed.", dec.Limit),
		RetryAfter: retry,
	})
}

func (l *limiter) unavailable(w http.ResponseWriter, dec domain.Decision) {
	retry := seconds(dec.RetryAfter)
	w.Header().Set(HeaderRetry, formatInt(retry))

	writeError(w, http.StatusServiceUnavailable, ErrorBody{
		Error:      "RateLimiterUnavailable",
		Message:    "Rate limiter is temporarily unavailable. Try again later.",
		RetryAfter: retry,
	})
}

func (l *limiter) record(ctx context.Context, r *http.Request, key domain.Key, outcome domain.Outcome) {
	if l.opts.Stats == nil {
		return
	}
	err := l.opts.Stats.Record(ctx, domain.StatsEvent{
		Key:     key,
		Outcome: outcome,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      l.opts.Now(),
	})
	if err != nil {
		l.opts.Logger.WithError(err).Debug("rate limit stats record failed")
	}
}
