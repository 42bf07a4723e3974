package europepmc

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/observability"
	"github.com/helixir/literature-connectors/internal/papersources"
)

const (
	// DefaultBaseURL is the Europe PMC REST API base URL.
	DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

	// DefaultRateCapacity is the request budget per refill window.
	DefaultRateCapacity = 10

	// DefaultRefillInterval is the limiter refill window.
	DefaultRefillInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size.
	DefaultMaxResults = 25

	// MaxPageSize is the largest pageSize the search endpoint accepts.
	MaxPageSize = 1000

	// initialCursor starts a cursorMark traversal.
	initialCursor = "*"

	sourceName = "Europe PMC"
)

// pmcIDRegex matches PubMed Central identifiers such as PMC1234567.
var pmcIDRegex = regexp.MustCompile(`^PMC\d+$`)

// Config holds configuration for the Europe PMC client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	RateCapacity   int
	RefillInterval time.Duration

	MaxAttempts   int
	RetryDelay    time.Duration
	MaxRetryAfter time.Duration

	// MaxResults is the page size used when a search does not set one.
	MaxResults int

	Enabled bool

	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

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

// Client implements the papersources.PaperSource interface for Europe PMC.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	parser     Parser
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a new Europe PMC client with the given configuration.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:         string(domain.SourceTypeEuropePMC),
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
		return nil, fmt.Errorf("create Europe PMC client: %w", err)
	}

	return NewWithHTTPClient(cfg, httpClient), nil
}

// NewWithHTTPClient creates a new Europe PMC client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries Europe PMC. The API paginates with cursors only, so a
// non-zero offset is reached by walking cursors with lightweight idlist
// requests before the page itself is fetched.
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

	return papersources.NewSearchResult(domain.SourceTypeEuropePMC, page.Papers, page.Total, params.Offset, trace.Took()), nil
}

func (c *Client) search(ctx context.Context, params papersources.SearchParams) (papersources.Page, error) {
	query := buildQuery(params)

	cursor, total, err := c.skip(ctx, query, params.Offset)
	if err != nil {
		return papersources.Page{}, err
	}
	if cursor == "" {
		return papersources.Page{Papers: []*domain.Paper{}, Total: total}, nil
	}

	body, err := c.fetch(ctx, query, "core", params.PageSize(c.config.MaxResults), cursor)
	if err != nil {
		return papersources.Page{}, fmt.Errorf("searching Europe PMC: %w", err)
	}

	page, err := c.parser.ParsePage(body)
	if err != nil {
		return papersources.Page{}, fmt.Errorf("decoding response: %w", err)
	}
	return page, nil
}

// skip advances the cursor past offset hits. It returns an empty cursor
// when the result set ends before offset.
func (c *Client) skip(ctx context.Context, query string, offset int) (string, int, error) {
	cursor := initialCursor
	total := 0
	for offset > 0 {
		n := min(offset, MaxPageSize)
		body, err := c.fetch(ctx, query, "idlist", n, cursor)
		if err != nil {
			return "", 0, fmt.Errorf("paging Europe PMC: %w", err)
		}

		resp, err := ParseResponse(body)
		if err != nil {
			return "", 0, fmt.Errorf("decoding response: %w", err)
		}
		total = resp.HitCount

		if resp.NextCursorMark == "" || resp.NextCursorMark == cursor || offset >= resp.HitCount {
			return "", total, nil
		}
		cursor = resp.NextCursorMark
		offset -= n
	}
	return cursor, total, nil
}

func (c *Client) fetch(ctx context.Context, query, resultType string, pageSize int, cursor string) ([]byte, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("format", "json")
	q.Set("resultType", resultType)
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("cursorMark", cursor)
	return c.httpClient.Get(ctx, "search", c.searchURL(), q)
}

// GetByID retrieves a record by "SRC/ID" or "SRC:ID". Bare numeric IDs are
// taken as MEDLINE PMIDs and PMC-prefixed IDs as PubMed Central records.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	trace := c.httpClient.BeginFetch(id)
	paper, err := c.getByID(ctx, id)
	trace.EndFetch(err)
	return paper, err
}

func (c *Client) getByID(ctx context.Context, id string) (*domain.Paper, error) {
	src, extID, err := parseRecordID(id)
	if err != nil {
		return nil, err
	}

	body, err := c.fetch(ctx, fmt.Sprintf("EXT_ID:%s AND SRC:%s", extID, src), "core", 1, initialCursor)
	if err != nil {
		return nil, fmt.Errorf("fetching Europe PMC record %s: %w", id, err)
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
	return domain.SourceTypeEuropePMC
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) searchURL() string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/search"
}

// buildQuery appends a FIRST_PDATE range to the user query when dates are set.
func buildQuery(params papersources.SearchParams) string {
	query := strings.TrimSpace(params.Query)
	if params.DateFrom == nil && params.DateTo == nil {
		return query
	}

	from, to := "1800-01-01", "3000-12-31"
	if params.DateFrom != nil {
		from = params.DateFrom.Format(time.DateOnly)
	}
	if params.DateTo != nil {
		to = params.DateTo.Format(time.DateOnly)
	}
	return fmt.Sprintf("(%s) AND FIRST_PDATE:[%s TO %s]", query, from, to)
}

// parseRecordID splits a record reference into its registry code and
// external identifier.
func parseRecordID(id string) (string, string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", domain.NewValidationError("id", "is required")
	}

	if src, extID, ok := strings.Cut(id, "/"); ok {
		return checkRecordID(src, extID)
	}
	if src, extID, ok := strings.Cut(id, ":"); ok {
		return checkRecordID(src, extID)
	}

	upper := strings.ToUpper(id)
	switch {
	case pmcIDRegex.MatchString(upper):
		return "PMC", upper, nil
	case isDigits(id):
		return "MED", id, nil
	default:
		return "", "", domain.NewValidationError("id", "must be SRC/ID, a PMID or a PMCID")
	}
}

func checkRecordID(src, extID string) (string, string, error) {
	src = strings.ToUpper(strings.TrimSpace(src))
	extID = strings.TrimSpace(extID)
	if !domain.IsEuropePMCSourceCode(src) {
		return "", "", domain.NewValidationError("id", "unknown Europe PMC source code "+src)
	}
	if extID == "" || strings.ContainsAny(extID, " ()\"") {
		return "", "", domain.NewValidationError("id", "invalid external identifier")
	}
	return src, extID, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
