package ratelimit

import (
	"net/http"
	"time"

	"nobra-gateway/middleware/ratelimit/application"
	"nobra-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	// Max <= 0 desliga o limite.
	Max          int
	RejectStatus int
	// AcquireTimeout <= 0 espera até o cliente desistir.
	AcquireTimeout time.Duration
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	gate := application.Gate{
		Pool: infra.NewSlotPool(opts.Max),
		Wait: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			leave, ok := gate.Enter(r.Context())
			if !ok {
				writeError(w, opts.RejectStatus, ErrorBody{
					Error:      "TooManyConcurrentRequests",
					Message:    "Server is busy. Try again later.",
					RetryAfter: 1,
				})
				return
			}
			defer leave()

			next.ServeHTTP(w, r)
		})
	}
}
