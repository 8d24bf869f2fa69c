package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket so a burst of lifecycle events cannot
// overwhelm a subscriber endpoint.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows up to burst requests immediately, refilling at
// requestsPerSecond.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
