package arxiv

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/observability"
	"github.com/helixir/literature-connectors/internal/papersources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateCapacity allows one request per refill window, as arXiv asks.
	DefaultRateCapacity = 1

	// DefaultRefillInterval is the arXiv limiter window.
	DefaultRefillInterval = 3 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	// MaxPageSize is the largest page arXiv serves in one response.
	MaxPageSize = 2000

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateCapacity is the number of requests allowed per refill window.
	RateCapacity int

	// RefillInterval is the rate limiter refill window.
	RefillInterval time.Duration

	// MaxAttempts is the retry budget, first attempt included.
	MaxAttempts int

	// RetryDelay is the delay between attempts.
	RetryDelay time.Duration

	// MaxRetryAfter caps server Retry-After hints. Zero means no cap.
	MaxRetryAfter time.Duration

	// MaxResults is the page size used when a search does not set one.
	MaxResults int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool

	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateCapacity == 0 {
		c.RateCapacity = DefaultRateCapacity
	}
	if c.RefillInterval == 0 {
		c.RefillInterval = DefaultRefillInterval
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the papersources.PaperSource interface for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	parser     Parser
}

// Ensure Client implements PaperSource interface.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:         string(domain.SourceTypeArXiv),
		Timeout:        cfg.Timeout,
		RateCapacity:   cfg.RateCapacity,
		RefillInterval: cfg.RefillInterval,
		MaxAttempts:    cfg.MaxAttempts,
		RetryDelay:     cfg.RetryDelay,
		MaxRetryAfter:  cfg.MaxRetryAfter,
		Logger:         cfg.Logger,
		Metrics:        cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create arXiv client: %w", err)
	}

	return NewWithHTTPClient(cfg, httpClient), nil
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries arXiv for papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	if err := params.Validate(MaxPageSize); err != nil {
		return nil, err
	}

	trace := c.httpClient.BeginSearch(params.Query)
	page, err := c.search(ctx, params)
	trace.End(len(page.Papers), err)
	if err != nil {
		return nil, err
	}

	return papersources.NewSearchResult(domain.SourceTypeArXiv, page.Papers, page.Total, params.Offset, trace.Took()), nil
}

func (c *Client) search(ctx context.Context, params papersources.SearchParams) (papersources.Page, error) {
	body, err := c.httpClient.Get(ctx, "query", c.queryURL(), c.searchQuery(params))
	if err != nil {
		return papersources.Page{}, fmt.Errorf("searching arXiv: %w", err)
	}

	page, err := c.parser.ParsePage(body)
	if err != nil {
		return papersources.Page{}, fmt.Errorf("decoding response: %w", err)
	}
	return page, nil
}

// GetByID retrieves a specific paper by its arXiv ID.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	trace := c.httpClient.BeginFetch(id)
	paper, err := c.getByID(ctx, id)
	trace.EndFetch(err)
	return paper, err
}

func (c *Client) getByID(ctx context.Context, id string) (*domain.Paper, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "is required")
	}

	query := url.Values{}
	query.Set("id_list", id)
	query.Set("max_results", "1")

	body, err := c.httpClient.Get(ctx, "query", c.queryURL(), query)
	if err != nil {
		return nil, fmt.Errorf("fetching arXiv paper %s: %w", id, err)
	}

	page, err := c.parser.ParsePage(body)
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(page.Papers) == 0 {
		return nil, domain.NewNotFoundError("paper", id)
	}
	return page.Papers[0], nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) queryURL() string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/query"
}

// searchQuery builds the arXiv search parameters.
func (c *Client) searchQuery(params papersources.SearchParams) url.Values {
	query := url.Values{}

	searchQuery := "all:" + strings.TrimSpace(params.Query)
	if params.DateFrom != nil || params.DateTo != nil {
		searchQuery += " AND " + buildDateFilter(params.DateFrom, params.DateTo)
	}
	query.Set("search_query", searchQuery)

	query.Set("max_results", strconv.Itoa(params.PageSize(c.config.MaxResults)))
	if params.Offset > 0 {
		query.Set("start", strconv.Itoa(params.Offset))
	}

	// Newest submissions first.
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")

	return query
}

// buildDateFilter constructs the arXiv date filter string.
func buildDateFilter(from, to *time.Time) string {
	fromStr, toStr := "*", "*"
	if from != nil {
		fromStr = from.Format("20060102") + "0000"
	}
	if to != nil {
		toStr = to.Format("20060102") + "2359"
	}
	return fmt.Sprintf("submittedDate:[%s TO %s]", fromStr, toStr)
}
