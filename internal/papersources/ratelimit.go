// Package papersources provides clients for searching academic paper databases.
package papersources

import (
	"context"
	"sync"
	"time"

	"github.com/helixir/literature-connectors/internal/domain"
)

// RateLimiter is a token bucket that bounds how many outbound calls a
// connector may start. It is safe for concurrent use.
//
// Tokens are consumed by TryAcquire and Acquire and returned by Release.
// When a refill interval is configured the bucket is topped back up to
// capacity once per interval; the refill is computed on access, so no
// background goroutine is involved.
type RateLimiter struct {
	mu             sync.Mutex
	capacity       int
	available      int
	refillInterval time.Duration
	lastRefill     time.Time
	now            func() time.Time

	// wake is closed and replaced whenever tokens become available.
	wake chan struct{}
}

// NewRateLimiter creates a full bucket holding capacity tokens.
// A refillInterval of zero disables refilling.
//
// Example configurations:
//   - PubMed without API key: NewRateLimiter(3, time.Second)
//   - arXiv: NewRateLimiter(1, 3*time.Second)
func NewRateLimiter(capacity int, refillInterval time.Duration) (*RateLimiter, error) {
	if capacity <= 0 {
		return nil, domain.NewValidationError("capacity", "must be positive")
	}
	if refillInterval < 0 {
		return nil, domain.NewValidationError("refill_interval", "must not be negative")
	}

	return &RateLimiter{
		capacity:       capacity,
		available:      capacity,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
		now:            time.Now,
		wake:           make(chan struct{}),
	}, nil
}

// TryAcquire consumes one token if one is available.
// It never blocks and leaves the bucket untouched when it returns false.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillLocked()
	if r.available == 0 {
		return false
	}
	r.available--
	return true
}

// Acquire blocks until a token is consumed or ctx is done.
// Waiters are woken by Release or by the next refill, never by polling.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refillLocked()
		if r.available > 0 {
			r.available--
			r.mu.Unlock()
			return nil
		}
		wake := r.wake
		untilRefill := r.untilRefillLocked()
		r.mu.Unlock()

		if err := r.wait(ctx, wake, untilRefill); err != nil {
			return err
		}
	}
}

// Wait is an alias for Acquire.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.Acquire(ctx)
}

// Release returns n tokens to the bucket, never exceeding capacity,
// and wakes every waiter.
func (r *RateLimiter) Release(n int) {
	if n <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillLocked()
	r.available = min(r.available+n, r.capacity)
	r.broadcastLocked()
}

// AvailableTokens returns the number of tokens that can be acquired right now.
func (r *RateLimiter) AvailableTokens() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillLocked()
	return r.available
}

// HasAvailableTokens reports whether AvailableTokens is positive.
func (r *RateLimiter) HasAvailableTokens() bool {
	return r.AvailableTokens() > 0
}

// Capacity returns the maximum number of tokens the bucket holds.
func (r *RateLimiter) Capacity() int {
	return r.capacity
}

// RefillInterval returns the configured refill period, zero when disabled.
func (r *RateLimiter) RefillInterval() time.Duration {
	return r.refillInterval
}

// refillLocked tops the bucket up if at least one refill interval has
// elapsed since the last refill. r.mu must be held.
func (r *RateLimiter) refillLocked() {
	if r.refillInterval == 0 {
		return
	}

	elapsed := r.now().Sub(r.lastRefill)
	if elapsed < r.refillInterval {
		return
	}

	periods := elapsed / r.refillInterval
	r.lastRefill = r.lastRefill.Add(periods * r.refillInterval)
	if r.available < r.capacity {
		r.available = r.capacity
		r.broadcastLocked()
	}
}

// untilRefillLocked returns the time left until the next refill, or zero
// when refilling is disabled. r.mu must be held.
func (r *RateLimiter) untilRefillLocked() time.Duration {
	if r.refillInterval == 0 {
		return 0
	}
	d := r.lastRefill.Add(r.refillInterval).Sub(r.now())
	if d <= 0 {
		return time.Nanosecond
	}
	return d
}

func (r *RateLimiter) broadcastLocked() {
	close(r.wake)
	r.wake = make(chan struct{})
}

// wait parks the caller until wake is closed, the next refill is due or ctx is done.
func (r *RateLimiter) wait(ctx context.Context, wake <-chan struct{}, untilRefill time.Duration) error {
	var refill <-chan time.Time
	if untilRefill > 0 {
		timer := time.NewTimer(untilRefill)
		defer timer.Stop()
		refill = timer.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wake:
		return nil
	case <-refill:
		return nil
	}
}
