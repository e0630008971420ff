package gateway

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-connection signals-per-minute budget.
// rpm <= 0 disables limiting entirely.
type RateLimiter struct {
	rpm   int
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter allowing rpm events per minute per key
// with the given burst.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	return &RateLimiter{
		rpm:      rpm,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Enabled reports whether limiting is active.
func (r *RateLimiter) Enabled() bool { return r.rpm > 0 }

// Allow reports whether the key may proceed now.
func (r *RateLimiter) Allow(key string) bool {
	if !r.Enabled() {
		return true
	}
	r.mu.Lock()
	lim, ok := r.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(r.rpm)/60.0), r.burst)
		r.limiters[key] = lim
	}
	r.mu.Unlock()
	return lim.Allow()
}

// Forget drops per-key state, typically on disconnect.
func (r *RateLimiter) Forget(key string) {
	r.mu.Lock()
	delete(r.limiters, key)
	r.mu.Unlock()
}
