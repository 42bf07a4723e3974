// Package papersources provides the shared machinery behind every literature
// source connector: the token bucket limiter, the retry policy, the HTTP
// transport built on both, and the registry that fans searches out to
// several connectors.
//
// Each literature API (arXiv, PubMed, Europe PMC) implements PaperSource in
// its own subpackage, and pairs it with a Parser that turns the API's wire
// format into canonical domain.Paper records.
//
// Example usage:
//
//	source := arxiv.New(cfg)
//	params := papersources.SearchParams{
//		Query:      "CRISPR gene editing",
//		MaxResults: 50,
//	}
//	result, err := source.Search(ctx, params)
package papersources

import (
	"context"
	"strings"
	"time"

	"github.com/helixir/literature-connectors/internal/domain"
)

// SearchParams defines the parameters for searching academic papers.
// All fields except Query are optional.
type SearchParams struct {
	// Query is the search query string (required).
	// The format may vary by source; some support boolean operators
	// and field-specific searches.
	Query string

	// DateFrom filters papers published on or after this date.
	DateFrom *time.Time

	// DateTo filters papers published on or before this date.
	DateTo *time.Time

	// MaxResults limits the number of papers returned in a single request.
	// A value of 0 uses the source's default limit.
	MaxResults int

	// Offset specifies the starting position for paginated results.
	Offset int
}

// Validate checks the parameters against a source's page size limit.
func (p SearchParams) Validate(maxPageSize int) error {
	if strings.TrimSpace(p.Query) == "" {
		return domain.NewValidationError("query", "is required")
	}
	if p.MaxResults < 0 {
		return domain.NewValidationError("max_results", "must not be negative")
	}
	if maxPageSize > 0 && p.MaxResults > maxPageSize {
		return domain.NewValidationError("max_results", "exceeds the source limit")
	}
	if p.Offset < 0 {
		return domain.NewValidationError("offset", "must not be negative")
	}
	if p.DateFrom != nil && p.DateTo != nil && p.DateFrom.After(*p.DateTo) {
		return domain.NewValidationError("date_from", "must not be after date_to")
	}
	return nil
}

// PageSize returns MaxResults, or def when MaxResults is unset.
func (p SearchParams) PageSize(def int) int {
	if p.MaxResults > 0 {
		return p.MaxResults
	}
	return def
}

// SearchResult contains the results from a paper source search operation.
type SearchResult struct {
	// Papers contains the papers returned by the search, in source order.
	Papers []*domain.Paper

	// TotalResults is the total number of papers matching the query,
	// as reported by the source.
	TotalResults int

	// HasMore indicates whether additional results are available
	// beyond the current page.
	HasMore bool

	// NextOffset is the offset to use for fetching the next page.
	// Only meaningful when HasMore is true.
	NextOffset int

	// Source identifies which paper source provided these results.
	Source domain.SourceType

	// SearchDuration is the time taken to execute the search,
	// including network latency and response parsing.
	SearchDuration time.Duration
}

// NewSearchResult builds a result page and derives the pagination fields.
func NewSearchResult(source domain.SourceType, papers []*domain.Paper, total, offset int, took time.Duration) *SearchResult {
	if papers == nil {
		papers = []*domain.Paper{}
	}
	next := offset + len(papers)
	hasMore := len(papers) > 0 && next < total
	return &SearchResult{
		Papers:         papers,
		TotalResults:   total,
		HasMore:        hasMore,
		NextOffset:     next,
		Source:         source,
		SearchDuration: took,
	}
}

// Parser turns one raw API response into canonical records.
//
// Implementations are pure: they perform no I/O, keep no state between
// calls and are safe for concurrent use. Parse never fails; malformed
// input yields an empty slice and records missing an identifier or a
// title are dropped.
type Parser interface {
	Parse(raw []byte) []*domain.Paper
}

// Page is one decoded response: its records plus the total hit count the
// source declared for the query.
type Page struct {
	Papers []*domain.Paper
	Total  int
}

// PaperSource defines the interface that all paper source clients must implement.
type PaperSource interface {
	// Search queries the paper source for papers matching the given parameters.
	// Invalid parameters are rejected with a *domain.ValidationError before
	// any request is sent.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves a specific paper by its source-specific identifier.
	//
	// Returns domain.ErrNotFound if the paper does not exist.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// SourceType returns the type identifier for this paper source.
	SourceType() domain.SourceType

	// Name returns a human-readable name for this paper source.
	Name() string

	// IsEnabled returns whether this paper source is currently enabled.
	IsEnabled() bool
}
