package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	pkgerrors "decisionmap/pkg/errors"
)

// Limiter is satisfied by ratelimit.TokenBucketLimiter
type Limiter interface {
	Allow(key string) bool
	RetryAfter(key string) time.Duration
}

// RateLimit throttles requests per client address. It expects RealIP to
// have run first.
func RateLimit(limiter Limiter, perMinute int, errs *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r.RemoteAddr)
			if !limiter.Allow(key) {
				wait := int(math.Ceil(limiter.RetryAfter(key).Seconds()))
				if wait < 1 {
					wait = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(wait))
				errs.Handle(w, r, pkgerrors.NewRateLimitError(perMinute, "minute").WithDetail("retry_after_seconds", wait))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
