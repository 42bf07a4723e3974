package papersources

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-connectors/internal/domain"
)

// fakeClock is a manually advanced time source for refill tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, capacity int, refill time.Duration) *RateLimiter {
	t.Helper()
	rl, err := NewRateLimiter(capacity, refill)
	require.NoError(t, err)
	return rl
}

func TestNewRateLimiter(t *testing.T) {
	t.Run("starts full", func(t *testing.T) {
		rl := newTestLimiter(t, 5, 0)

		assert.Equal(t, 5, rl.Capacity())
		assert.Equal(t, 5, rl.AvailableTokens())
		assert.True(t, rl.HasAvailableTokens())
		assert.Zero(t, rl.RefillInterval())
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		for _, capacity := range []int{0, -1} {
			rl, err := NewRateLimiter(capacity, 0)
			require.Error(t, err)
			assert.Nil(t, rl)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		}
	})

	t.Run("rejects negative refill interval", func(t *testing.T) {
		_, err := NewRateLimiter(1, -time.Second)

		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "refill_interval", ve.Field)
	})
}

func TestRateLimiter_TryAcquire(t *testing.T) {
	t.Run("consumes up to capacity", func(t *testing.T) {
		rl := newTestLimiter(t, 3, 0)

		assert.True(t, rl.TryAcquire())
		assert.True(t, rl.TryAcquire())
		assert.True(t, rl.TryAcquire())
		assert.False(t, rl.TryAcquire(), "fourth acquire should fail")
		assert.Equal(t, 0, rl.AvailableTokens())
		assert.False(t, rl.HasAvailableTokens())
	})

	t.Run("failed acquire does not change the count", func(t *testing.T) {
		rl := newTestLimiter(t, 1, 0)
		require.True(t, rl.TryAcquire())

		for i := 0; i < 5; i++ {
			assert.False(t, rl.TryAcquire())
		}
		rl.Release(1)
		assert.Equal(t, 1, rl.AvailableTokens())
	})

	t.Run("concurrent acquires never exceed capacity", func(t *testing.T) {
		const capacity = 10
		rl := newTestLimiter(t, capacity, 0)

		var granted atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rl.TryAcquire() {
					granted.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(capacity), granted.Load())
		assert.Equal(t, 0, rl.AvailableTokens())
	})
}

func TestRateLimiter_Acquire(t *testing.T) {
	t.Run("returns immediately while tokens remain", func(t *testing.T) {
		rl := newTestLimiter(t, 5, 0)
		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 5; i++ {
			require.NoError(t, rl.Acquire(ctx))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
		assert.Equal(t, 0, rl.AvailableTokens())
	})

	t.Run("blocks until release", func(t *testing.T) {
		rl := newTestLimiter(t, 1, 0)
		require.True(t, rl.TryAcquire())

		done := make(chan error, 1)
		go func() {
			done <- rl.Acquire(context.Background())
		}()

		select {
		case <-done:
			t.Fatal("acquire should block while the bucket is empty")
		case <-time.After(30 * time.Millisecond):
		}

		rl.Release(1)

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("acquire was not woken by release")
		}
		assert.Equal(t, 0, rl.AvailableTokens())
	})

	t.Run("one release wakes one of many waiters per token", func(t *testing.T) {
		rl := newTestLimiter(t, 2, 0)
		require.True(t, rl.TryAcquire())
		require.True(t, rl.TryAcquire())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var acquired atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rl.Acquire(ctx) == nil {
					acquired.Add(1)
				}
			}()
		}

		rl.Release(2)
		require.Eventually(t, func() bool { return acquired.Load() == 2 }, time.Second, 5*time.Millisecond)

		// The remaining waiters stay parked until canceled.
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(2), acquired.Load())
		cancel()
		wg.Wait()
		assert.Equal(t, int32(2), acquired.Load())
	})

	t.Run("returns immediately with canceled context", func(t *testing.T) {
		rl := newTestLimiter(t, 1, 0)
		require.True(t, rl.TryAcquire())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := rl.Acquire(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("returns deadline error while waiting", func(t *testing.T) {
		rl := newTestLimiter(t, 1, 0)
		require.True(t, rl.TryAcquire())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := rl.Acquire(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("wakes on refill", func(t *testing.T) {
		rl := newTestLimiter(t, 1, 40*time.Millisecond)
		require.True(t, rl.TryAcquire())

		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		elapsed := time.Since(start)

		assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
		assert.Less(t, elapsed, time.Second)
	})
}

func TestRateLimiter_Release(t *testing.T) {
	t.Run("caps at capacity", func(t *testing.T) {
		rl := newTestLimiter(t, 3, 0)
		require.True(t, rl.TryAcquire())

		rl.Release(10)
		assert.Equal(t, 3, rl.AvailableTokens())
	})

	t.Run("ignores non-positive counts", func(t *testing.T) {
		rl := newTestLimiter(t, 2, 0)
		require.True(t, rl.TryAcquire())

		rl.Release(0)
		rl.Release(-3)
		assert.Equal(t, 1, rl.AvailableTokens())
	})

	t.Run("count stays within bounds under concurrency", func(t *testing.T) {
		rl := newTestLimiter(t, 5, 0)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				rl.TryAcquire()
			}()
			go func() {
				defer wg.Done()
				rl.Release(1)
			}()
		}
		wg.Wait()

		n := rl.AvailableTokens()
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, n, 5)
	})
}

func TestRateLimiter_Refill(t *testing.T) {
	t.Run("refills to capacity once the interval elapses", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestLimiter(t, 3, time.Second)
		rl.now = clock.Now
		rl.lastRefill = clock.Now()

		for i := 0; i < 3; i++ {
			require.True(t, rl.TryAcquire())
		}
		assert.False(t, rl.TryAcquire())

		clock.Advance(999 * time.Millisecond)
		assert.Equal(t, 0, rl.AvailableTokens())

		clock.Advance(time.Millisecond)
		assert.Equal(t, 3, rl.AvailableTokens())
	})

	t.Run("several elapsed intervals refill once", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestLimiter(t, 2, time.Second)
		rl.now = clock.Now
		rl.lastRefill = clock.Now()

		require.True(t, rl.TryAcquire())
		clock.Advance(5500 * time.Millisecond)

		assert.Equal(t, 2, rl.AvailableTokens())
		// The window is aligned to whole intervals: next refill is due at 6s.
		require.True(t, rl.TryAcquire())
		require.True(t, rl.TryAcquire())
		clock.Advance(400 * time.Millisecond)
		assert.Equal(t, 0, rl.AvailableTokens())
		clock.Advance(100 * time.Millisecond)
		assert.Equal(t, 2, rl.AvailableTokens())
	})

	t.Run("disabled refill never adds tokens", func(t *testing.T) {
		clock := newFakeClock()
		rl := newTestLimiter(t, 1, 0)
		rl.now = clock.Now

		require.True(t, rl.TryAcquire())
		clock.Advance(time.Hour)
		assert.Equal(t, 0, rl.AvailableTokens())
	})
}
