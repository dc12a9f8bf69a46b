package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dataprowler/dataprowler/internal/schema"
)

// Registry hands out one limiter per domain. It is safe for concurrent use.
type Registry struct {
	enabled   bool
	perMinute int
	burst     int
	overrides map[string]int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option configures a Registry.
type Option func(*Registry)

// WithBurst lets every limiter absorb n requests at once. The default is one.
func WithBurst(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.burst = n
		}
	}
}

// NewRegistry builds a Registry from the rate_limiting settings.
func NewRegistry(cfg schema.RateLimiting, opts ...Option) *Registry {
	overrides := make(map[string]int, len(cfg.DomainSpecific))
	for domain, perMinute := range cfg.DomainSpecific {
		overrides[normalizeDomain(domain)] = perMinute
	}
	r := &Registry{
		enabled:   cfg.Enabled,
		perMinute: cfg.RequestsPerMinute,
		burst:     1,
		overrides: overrides,
		limiters:  make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RequestsPerMinute reports the budget applied to domain, or 0 when
// limiting is disabled.
func (r *Registry) RequestsPerMinute(domain string) int {
	if !r.enabled {
		return 0
	}
	if perMinute, ok := r.overrides[normalizeDomain(domain)]; ok {
		return perMinute
	}
	return r.perMinute
}

// For returns the limiter for domain, creating it on first use. Any key
// works, so the API also uses it per client address.
func (r *Registry) For(domain string) *rate.Limiter {
	key := normalizeDomain(domain)

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, ok := r.limiters[key]; ok {
		return limiter
	}
	limiter := PerMinute(r.RequestsPerMinute(key), r.burst)
	r.limiters[key] = limiter
	return limiter
}

// PerMinute builds a token bucket refilling perMinute tokens a minute. A
// zero or negative perMinute means unlimited; burst is at least one.
func PerMinute(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if host, _, ok := strings.Cut(domain, ":"); ok {
		domain = host
	}
	return strings.TrimPrefix(domain, "www.")
}
