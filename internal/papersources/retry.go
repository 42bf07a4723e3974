package papersources

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/helixir/literature-connectors/internal/domain"
)

const (
	// DefaultMaxAttempts is the attempt budget of DefaultRetryPolicy.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the wait between attempts of DefaultRetryPolicy.
	DefaultRetryDelay = time.Second
)

// RetryEvent describes a failed attempt that is about to be retried.
type RetryEvent struct {
	Source  string
	Attempt int
	Wait    time.Duration
	Err     error
}

// RetryOption configures a RetryPolicy.
type RetryOption func(*RetryPolicy)

// WithLimiter makes the policy acquire a token from limiter before every attempt.
func WithLimiter(limiter *RateLimiter) RetryOption {
	return func(p *RetryPolicy) {
		p.limiter = limiter
	}
}

// WithMaxRetryAfter caps the wait taken from a rate limit hint.
// Zero applies hints as given.
func WithMaxRetryAfter(d time.Duration) RetryOption {
	return func(p *RetryPolicy) {
		if d > 0 {
			p.maxRetryAfter = d
		}
	}
}

// WithRetryHook registers a function called before each retry wait.
func WithRetryHook(hook func(RetryEvent)) RetryOption {
	return func(p *RetryPolicy) {
		p.onRetry = hook
	}
}

// WithAcquireHook registers a function that receives the time spent
// waiting for each limiter token.
func WithAcquireHook(hook func(wait time.Duration)) RetryOption {
	return func(p *RetryPolicy) {
		p.onAcquire = hook
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger zerolog.Logger) RetryOption {
	return func(p *RetryPolicy) {
		p.logger = logger
	}
}

// WithSourceName tags errors produced by the policy with a source name.
func WithSourceName(name string) RetryOption {
	return func(p *RetryPolicy) {
		p.source = name
	}
}

// RetryPolicy runs a unit of work up to a fixed number of attempts.
//
// A limiter token is acquired before each attempt. Validation failures and
// context cancellation end the run at once. Any other failure is retried
// after the configured delay, or after the server's hint when a rate limit
// error carries one. Errors that are not *domain.APIError values are
// wrapped into one. When every attempt fails the returned *domain.APIError
// records the attempt count and matches domain.ErrRetriesExhausted.
//
// A RetryPolicy is immutable and safe for concurrent use.
type RetryPolicy struct {
	maxAttempts   int
	delay         time.Duration
	maxRetryAfter time.Duration
	limiter       *RateLimiter
	source        string
	onRetry       func(RetryEvent)
	onAcquire     func(time.Duration)
	logger        zerolog.Logger
	logSometimes  *rate.Sometimes
}

// NewRetryPolicy creates a policy allowing maxAttempts attempts separated by delay.
func NewRetryPolicy(maxAttempts int, delay time.Duration, opts ...RetryOption) (*RetryPolicy, error) {
	if maxAttempts < 1 {
		return nil, domain.NewValidationError("max_attempts", "must be at least 1")
	}
	if delay <= 0 {
		return nil, domain.NewValidationError("retry_delay", "must be set to a positive duration")
	}

	p := &RetryPolicy{
		maxAttempts:  maxAttempts,
		delay:        delay,
		logger:       zerolog.Nop(),
		logSometimes: &rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// DefaultRetryPolicy returns a policy with three attempts one second apart.
func DefaultRetryPolicy(opts ...RetryOption) *RetryPolicy {
	p, err := NewRetryPolicy(DefaultMaxAttempts, DefaultRetryDelay, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// MaxAttempts returns the attempt budget, including the first attempt.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// Delay returns the base wait between attempts.
func (p *RetryPolicy) Delay() time.Duration {
	return p.delay
}

// Do runs work under the policy.
func (p *RetryPolicy) Do(ctx context.Context, work func(ctx context.Context) error) error {
	_, err := Execute(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	})
	return err
}

// Execute runs work under policy p and returns the first successful result.
func Execute[T any](ctx context.Context, p *RetryPolicy, work func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if p.limiter != nil {
			start := time.Now()
			if err := p.limiter.Acquire(ctx); err != nil {
				return zero, err
			}
			if p.onAcquire != nil {
				p.onAcquire(time.Since(start))
			}
		}

		result, err := work(ctx)
		if err == nil {
			return result, nil
		}
		if !domain.IsRetryable(ctx, err) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}
			return zero, err
		}

		lastErr = p.asAPIError(err)
		if attempt == p.maxAttempts {
			break
		}

		wait := p.waitFor(lastErr)
		p.notifyRetry(RetryEvent{Source: p.source, Attempt: attempt, Wait: wait, Err: lastErr})
		if err := sleepContext(ctx, wait); err != nil {
			return zero, err
		}
	}

	return zero, &domain.APIError{
		Source:     p.source,
		StatusCode: statusOf(lastErr),
		Message:    "retries exhausted",
		Cause:      lastErr,
		Attempts:   p.maxAttempts,
	}
}

// asAPIError keeps API errors as they are and wraps anything else.
func (p *RetryPolicy) asAPIError(err error) error {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return domain.NewAPIError(p.source, domain.StatusNotApplicable, "request failed", err)
}

// waitFor picks the wait before the next attempt.
func (p *RetryPolicy) waitFor(err error) time.Duration {
	var rlErr *domain.RateLimitError
	if !errors.As(err, &rlErr) || !rlErr.HasRetryAfter() {
		return p.delay
	}
	if p.maxRetryAfter > 0 && rlErr.RetryAfter > p.maxRetryAfter {
		return p.maxRetryAfter
	}
	return rlErr.RetryAfter
}

func (p *RetryPolicy) notifyRetry(ev RetryEvent) {
	if p.onRetry != nil {
		p.onRetry(ev)
	}
	p.logSometimes.Do(func() {
		p.logger.Warn().
			Err(ev.Err).
			Str("source", ev.Source).
			Int("attempt", ev.Attempt).
			Int("max_attempts", p.maxAttempts).
			Dur("wait", ev.Wait).
			Msg("attempt failed, retrying")
	})
}

func statusOf(err error) int {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return domain.StatusNotApplicable
}

// sleepContext waits for d, returning early with ctx.Err() on cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
