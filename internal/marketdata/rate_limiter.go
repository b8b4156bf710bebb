package marketdata

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum spacing between outbound upstream calls.
// The provider allows roughly one request per second, so every call funnels
// through AwaitSlot before touching the network.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	lastCall time.Time
}

// NewRateLimiter creates a limiter with the given minimum call spacing
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// AwaitSlot blocks until at least the configured interval has elapsed since
// the previous call passed through. The first call returns immediately.
// The lock is held across the wait so concurrent callers are serialized:
// no two callers can pass within one interval of each other.
func (r *RateLimiter) AwaitSlot(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastCall.IsZero() {
		wait := r.interval - time.Since(r.lastCall)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	r.lastCall = time.Now()
	return nil
}
