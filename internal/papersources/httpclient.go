package papersources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/observability"
)

// defaultMaxResponseBytes bounds how much of a response body is read.
const defaultMaxResponseBytes = 10 << 20

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Source names the connector in errors, logs and metrics.
	Source string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// RateCapacity is the number of limiter tokens per refill window.
	RateCapacity int

	// RefillInterval is the limiter refill window. Zero disables refilling.
	RefillInterval time.Duration

	// MaxAttempts is the attempt budget of the retry policy, first attempt included.
	MaxAttempts int

	// RetryDelay is the base delay between attempts.
	RetryDelay time.Duration

	// MaxRetryAfter caps server supplied Retry-After hints. Zero means no cap.
	MaxRetryAfter time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g., "X-API-Key").
	APIKeyHeader string

	// APIKeyParam is the query parameter name for the API key (e.g., "api_key").
	APIKeyParam string

	// MaxResponseBytes caps the size of a response body. Larger bodies fail
	// the attempt instead of reaching a parser truncated.
	MaxResponseBytes int64

	// Logger receives retry and failure logs. Nil disables logging.
	Logger *zerolog.Logger

	// Metrics records request telemetry. Nil disables metrics.
	Metrics *observability.Metrics
}

func (c *HTTPClientConfig) applyDefaults() {
	if c.Source == "" {
		c.Source = "external"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateCapacity == 0 {
		c.RateCapacity = 10
	}
	if c.RefillInterval == 0 {
		c.RefillInterval = time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = "Helixir-LiteratureConnectors/1.0"
	}
}

// HTTPClient performs GET-style calls against a literature API under a
// RateLimiter and a RetryPolicy, turning HTTP failures into the domain
// error taxonomy. It is safe for concurrent use.
type HTTPClient struct {
	client  *http.Client
	limiter *RateLimiter
	policy  *RetryPolicy
	config  HTTPClientConfig
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewHTTPClient creates a new HTTP client with rate limiting and retries.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	cfg.applyDefaults()

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = observability.WithSourceContext(*cfg.Logger, cfg.Source)
	}

	limiter, err := NewRateLimiter(cfg.RateCapacity, cfg.RefillInterval)
	if err != nil {
		return nil, fmt.Errorf("create %s rate limiter: %w", cfg.Source, err)
	}

	c := &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		config:  cfg,
		logger:  logger,
		metrics: cfg.Metrics,
	}

	policy, err := NewRetryPolicy(cfg.MaxAttempts, cfg.RetryDelay,
		WithLimiter(limiter),
		WithMaxRetryAfter(cfg.MaxRetryAfter),
		WithSourceName(cfg.Source),
		WithLogger(logger),
		WithRetryHook(c.onRetry),
		WithAcquireHook(c.onAcquire),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s retry policy: %w", cfg.Source, err)
	}
	c.policy = policy

	return c, nil
}

// Limiter returns the client's rate limiter.
func (c *HTTPClient) Limiter() *RateLimiter {
	return c.limiter
}

// Policy returns the client's retry policy.
func (c *HTTPClient) Policy() *RetryPolicy {
	return c.policy
}

// Get fetches endpointURL with params appended to its query string.
// The endpoint label names the call in metrics.
func (c *HTTPClient) Get(ctx context.Context, endpoint, endpointURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(endpointURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s URL: %w", c.config.Source, err)
	}

	query := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	if c.config.APIKey != "" && c.config.APIKeyParam != "" {
		query.Set(c.config.APIKeyParam, c.config.APIKey)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.config.Source, err)
	}
	return c.Do(req, endpoint)
}

// Do executes req under the retry policy and returns the response body of
// the first successful attempt.
//
// The request body is not preserved across retries; callers must provide
// requests with GetBody set if the body needs to be resent on retry.
func (c *HTTPClient) Do(req *http.Request, endpoint string) ([]byte, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	attempt := 0
	body, err := Execute(req.Context(), c.policy, func(ctx context.Context) ([]byte, error) {
		attempt++
		if attempt > 1 {
			if err := c.resetRequestBody(req); err != nil {
				return nil, domain.NewValidationError("body", err.Error())
			}
		}
		return c.attempt(req.WithContext(ctx), endpoint)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRetriesExhausted) {
			if c.metrics != nil {
				c.metrics.RecordRetriesExhausted(c.config.Source)
			}
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("giving up on request")
		}
		return nil, err
	}
	return body, nil
}

// attempt performs a single round trip and classifies the outcome.
func (c *HTTPClient) attempt(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if c.metrics != nil {
		c.metrics.RecordSourceRequest(c.config.Source, endpoint, time.Since(start).Seconds())
	}
	if err != nil {
		c.recordFailure(endpoint, "network")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes+1))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.recordFailure(endpoint, "rate_limited")
		if c.metrics != nil {
			c.metrics.RecordSourceRateLimited(c.config.Source)
		}
		return nil, domain.NewRateLimitError(c.config.Source, parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.recordFailure(endpoint, "status_"+strconv.Itoa(resp.StatusCode))
		return nil, domain.NewAPIError(c.config.Source, resp.StatusCode, statusMessage(resp.StatusCode, body), nil)
	}

	if readErr != nil {
		c.recordFailure(endpoint, "read")
		return nil, domain.NewAPIError(c.config.Source, resp.StatusCode, "reading response body", readErr)
	}
	if int64(len(body)) > c.config.MaxResponseBytes {
		c.recordFailure(endpoint, "too_large")
		return nil, domain.NewAPIError(c.config.Source, resp.StatusCode,
			fmt.Sprintf("response too large: exceeds %d bytes", c.config.MaxResponseBytes), nil)
	}
	return body, nil
}

func (c *HTTPClient) recordFailure(endpoint, errorType string) {
	if c.metrics != nil {
		c.metrics.RecordSourceRequestFailed(c.config.Source, endpoint, errorType)
	}
}

func (c *HTTPClient) onRetry(RetryEvent) {
	if c.metrics != nil {
		c.metrics.RecordRetry(c.config.Source)
	}
}

func (c *HTTPClient) onAcquire(wait time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordLimiterWait(c.config.Source, wait.Seconds())
	}
}

// parseRetryAfter reads a Retry-After header given as seconds or as an
// HTTP date. It returns domain.RetryAfterUnknown when the header is absent
// or unreadable.
func parseRetryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return domain.RetryAfterUnknown
	}

	if seconds, err := strconv.ParseInt(header, 10, 64); err == nil {
		if seconds < 0 {
			return domain.RetryAfterUnknown
		}
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if delay := t.Sub(now); delay > 0 {
			return delay
		}
		return 0
	}

	return domain.RetryAfterUnknown
}

// statusMessage summarizes a failed response for an APIError.
func statusMessage(status int, body []byte) string {
	msg := http.StatusText(status)
	if msg == "" {
		msg = "unexpected status"
	}
	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		return msg
	}
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	return msg + ": " + snippet
}

// resetRequestBody resets the request body for retry if possible.
func (c *HTTPClient) resetRequestBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("failed to get request body for retry: %w", err)
	}
	req.Body = body
	return nil
}

// Trace times one connector operation and reports its outcome to the
// client's logger and metrics.
type Trace struct {
	client *HTTPClient
	logger zerolog.Logger
	start  time.Time
}

// BeginSearch starts tracing a search for query.
func (c *HTTPClient) BeginSearch(query string) *Trace {
	if c.metrics != nil {
		c.metrics.RecordSearchStarted(c.config.Source)
	}
	return &Trace{
		client: c,
		logger: observability.WithSearchContext(c.logger, query),
		start:  time.Now(),
	}
}

// BeginFetch starts tracing a lookup of one record by id.
func (c *HTTPClient) BeginFetch(id string) *Trace {
	return &Trace{
		client: c,
		logger: observability.WithPaperContext(c.logger, id),
		start:  time.Now(),
	}
}

// Took returns the time elapsed since the trace began.
func (t *Trace) Took() time.Duration {
	return time.Since(t.start)
}

// End records the outcome of a search that returned papers records.
func (t *Trace) End(papers int, err error) {
	took := t.Took()
	metrics, source := t.client.metrics, t.client.config.Source
	if err != nil {
		t.logger.Warn().Err(err).Dur("took", took).Msg("search failed")
		if metrics != nil {
			metrics.RecordSearchFailed(source, took.Seconds())
		}
		return
	}
	t.logger.Debug().Int("papers", papers).Dur("took", took).Msg("search completed")
	if metrics != nil {
		metrics.RecordSearchCompleted(source, papers, took.Seconds())
		metrics.RecordPapersParsed(source, papers)
	}
}

// EndFetch logs the outcome of a record lookup. Missing records and bad
// identifiers are caller errors and stay at debug level.
func (t *Trace) EndFetch(err error) {
	took := t.Took()
	switch {
	case err == nil:
		t.logger.Debug().Dur("took", took).Msg("paper fetched")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		t.logger.Debug().Err(err).Dur("took", took).Msg("paper lookup rejected")
	default:
		t.logger.Warn().Err(err).Dur("took", took).Msg("paper fetch failed")
	}
}

// Logger returns the client's source-scoped logger.
func (c *HTTPClient) Logger() zerolog.Logger {
	return c.logger
}
