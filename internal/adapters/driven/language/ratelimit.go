package language

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimitBackoff is used when a provider does not say how long to wait.
const DefaultRateLimitBackoff = 30 * time.Second

// RateLimiter paces language model requests.
// It combines a token bucket with a backoff window set after 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter allows requestsPerMinute requests with a burst of one.
// A non-positive value disables pacing; backoff still applies.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until a request may be made or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// Backoff blocks requests for d, or DefaultRateLimitBackoff when d <= 0.
func (r *RateLimiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = DefaultRateLimitBackoff
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(d); until.After(r.retryAt) {
		r.retryAt = until
	}
}

// Allow reports whether a request may be made now without blocking.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
