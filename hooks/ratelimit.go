package hooks

import (
	"golang.org/x/time/rate"

	"zrpc/envelope"
	"zrpc/server"
)

// RateLimit rejects requests once the token bucket (refill r tokens/sec, up
// to burst) runs dry, short-circuiting before the registry is ever
// consulted. This throttles traffic; it never retries or re-times-out a
// call, so it does not touch spec.md's "no automatic retry or timeout
// policy" non-goal.
//
// The limiter is created once, in the outer closure, and shared across all
// requests — a fresh limiter per request would defeat rate limiting
// entirely.
func RateLimit(r float64, burst int) server.Hook {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(req *envelope.Request) *envelope.Response {
			if !limiter.Allow() {
				return &envelope.Response{Error: &envelope.RPCError{
					Type:    "zrpc.hooks.RateLimitExceeded",
					Message: "rate limit exceeded",
					Args:    []any{req.Method},
				}}
			}
			return next(req)
		}
	}
}
