package api

import (
	"net"
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimiter is satisfied by *rate.Limiter.
type rateLimiter interface {
	Allow() bool
}

// ClientLimiter hands out the limiter for one client; ratelimit.Registry
// satisfies it.
type ClientLimiter interface {
	For(client string) *rate.Limiter
}

const retryAfterSeconds = "1"

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		writeRateLimited(w)
	})
}

func clientRateLimitMiddleware(limits ClientLimiter, next http.Handler) http.Handler {
	if limits == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limits.For(clientAddress(r)).Allow() {
			next.ServeHTTP(w, r)
			return
		}
		writeRateLimited(w)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("Retry-After", retryAfterSeconds)
	writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
}
