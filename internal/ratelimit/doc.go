// Package ratelimit turns the rate_limiting settings into token-bucket
// limiters: one per domain, using the domain_specific budget when present
// and requests_per_minute otherwise.
package ratelimit
