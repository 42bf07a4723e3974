package pubmed

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
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateCapacity is the request budget per second without an API key.
	DefaultRateCapacity = 3

	// APIKeyRateCapacity is the request budget per second with an API key.
	APIKeyRateCapacity = 10

	// DefaultRefillInterval is the limiter window NCBI quotas are expressed in.
	DefaultRefillInterval = time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per search.
	DefaultMaxResults = 100

	// MaxResultsLimit is the maximum results allowed per request by the API.
	MaxResultsLimit = 10000

	// DefaultTool identifies this client to NCBI.
	DefaultTool = "helixir-litconnect"

	// efetchBatchSize bounds the PMIDs sent in one efetch URL.
	efetchBatchSize = 200

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits.
	APIKey string

	// Tool and Email identify the caller to NCBI.
	Tool  string
	Email string

	Timeout time.Duration

	// RateCapacity is the number of requests allowed per refill window.
	// Defaults to 3, or 10 when an API key is set.
	RateCapacity   int
	RefillInterval time.Duration

	MaxAttempts   int
	RetryDelay    time.Duration
	MaxRetryAfter time.Duration

	// MaxResults is the default maximum results per search.
	MaxResults int

	// Enabled indicates whether this source is enabled.
	Enabled bool

	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateCapacity == 0 {
		c.RateCapacity = DefaultRateCapacity
		if c.APIKey != "" {
			c.RateCapacity = APIKeyRateCapacity
		}
	}
	if c.RefillInterval == 0 {
		c.RefillInterval = DefaultRefillInterval
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the papersources.PaperSource interface for PubMed.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	parser     Parser
}

// Compile-time check that Client implements PaperSource.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new PubMed client with the given configuration.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	httpClient, err := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:         string(domain.SourceTypePubMed),
		Timeout:        cfg.Timeout,
		RateCapacity:   cfg.RateCapacity,
		RefillInterval: cfg.RefillInterval,
		MaxAttempts:    cfg.MaxAttempts,
		RetryDelay:     cfg.RetryDelay,
		MaxRetryAfter:  cfg.MaxRetryAfter,
		APIKey:         cfg.APIKey,
		APIKeyParam:    "api_key",
		Logger:         cfg.Logger,
		Metrics:        cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create PubMed client: %w", err)
	}

	return NewWithHTTPClient(cfg, httpClient), nil
}

// NewWithHTTPClient creates a new PubMed client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries PubMed for papers matching the given parameters.
// It performs a two-step search:
// 1. esearch.fcgi - retrieves PMIDs matching the query
// 2. efetch.fcgi - retrieves full article metadata for the PMIDs
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	if err := params.Validate(MaxResultsLimit); err != nil {
		return nil, err
	}

	trace := c.httpClient.BeginSearch(params.Query)
	papers, total, err := c.search(ctx, params)
	trace.End(len(papers), err)
	if err != nil {
		return nil, err
	}

	return papersources.NewSearchResult(domain.SourceTypePubMed, papers, total, params.Offset, trace.Took()), nil
}

func (c *Client) search(ctx context.Context, params papersources.SearchParams) ([]*domain.Paper, int, error) {
	searchResult, err := c.esearch(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("esearch failed: %w", err)
	}

	// Unknown phrases are an empty result, not an error.
	if searchResult.ErrorList != nil && len(searchResult.ErrorList.PhraseNotFound) > 0 && len(searchResult.IDList.IDs) == 0 {
		return []*domain.Paper{}, 0, nil
	}
	if len(searchResult.IDList.IDs) == 0 {
		return []*domain.Paper{}, searchResult.Count, nil
	}

	papers, err := c.efetch(ctx, searchResult.IDList.IDs)
	if err != nil {
		return nil, 0, fmt.Errorf("efetch failed: %w", err)
	}
	return papers, searchResult.Count, nil
}

// GetByID retrieves a specific paper by its PubMed ID (PMID).
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
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return nil, domain.NewValidationError("id", "must be a numeric PMID")
	}

	papers, err := c.efetch(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}
	if len(papers) == 0 {
		return nil, domain.NewNotFoundError("paper", id)
	}
	return papers[0], nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether the source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// esearch performs a search query and returns matching PMIDs.
func (c *Client) esearch(ctx context.Context, params papersources.SearchParams) (*ESearchResult, error) {
	q := c.baseQuery()
	q.Set("term", strings.TrimSpace(params.Query))
	q.Set("retmode", "xml")
	q.Set("usehistory", "n")
	q.Set("retmax", strconv.Itoa(params.PageSize(c.config.MaxResults)))
	if params.Offset > 0 {
		q.Set("retstart", strconv.Itoa(params.Offset))
	}

	if params.DateFrom != nil || params.DateTo != nil {
		q.Set("datetype", "pdat")
		// NCBI requires both bounds once either is given.
		minDate, maxDate := "1800/01/01", "3000/12/31"
		if params.DateFrom != nil {
			minDate = params.DateFrom.Format("2006/01/02")
		}
		if params.DateTo != nil {
			maxDate = params.DateTo.Format("2006/01/02")
		}
		q.Set("mindate", minDate)
		q.Set("maxdate", maxDate)
	}

	body, err := c.httpClient.Get(ctx, "esearch", c.endpoint("esearch.fcgi"), q)
	if err != nil {
		return nil, err
	}

	result, err := ParseESearch(body)
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if msg := strings.TrimSpace(result.Error); msg != "" {
		return nil, domain.NewAPIError(string(domain.SourceTypePubMed), domain.StatusNotApplicable, msg, nil)
	}
	return result, nil
}

// efetch retrieves full article metadata for the given PMIDs, batching
// long ID lists. Records keep the esearch order.
func (c *Client) efetch(ctx context.Context, pmids []string) ([]*domain.Paper, error) {
	papers := make([]*domain.Paper, 0, len(pmids))
	for start := 0; start < len(pmids); start += efetchBatchSize {
		end := min(start+efetchBatchSize, len(pmids))

		q := c.baseQuery()
		q.Set("id", strings.Join(pmids[start:end], ","))
		q.Set("retmode", "xml")
		q.Set("rettype", "abstract")

		body, err := c.httpClient.Get(ctx, "efetch", c.endpoint("efetch.fcgi"), q)
		if err != nil {
			return nil, err
		}

		page, err := c.parser.ParsePage(body)
		if err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		papers = append(papers, page.Papers...)
	}
	return papers, nil
}

func (c *Client) baseQuery() url.Values {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("tool", c.config.Tool)
	if c.config.Email != "" {
		q.Set("email", c.config.Email)
	}
	return q
}

func (c *Client) endpoint(name string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + name
}
