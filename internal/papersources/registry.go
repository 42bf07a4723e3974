package papersources

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/helixir/literature-connectors/internal/domain"
)

// SourceResult holds the result of a search from one source.
type SourceResult struct {
	// Source identifies which paper source provided the result.
	Source domain.SourceType

	// Result contains the search results if the search succeeded.
	// Will be nil if Error is non-nil.
	Result *SearchResult

	// Error contains the error if the search failed.
	// Will be nil if Result is non-nil.
	Error error
}

// Registry manages paper sources and coordinates concurrent searches.
// It provides thread-safe registration and retrieval of paper sources,
// as well as concurrent search operations across multiple sources.
type Registry struct {
	mu            sync.RWMutex
	sources       map[domain.SourceType]PaperSource
	maxConcurrent int
}

// NewRegistry creates a new source registry with an empty source map.
// maxConcurrent bounds how many sources are searched at once; values
// below one mean no bound.
func NewRegistry(maxConcurrent int) *Registry {
	return &Registry{
		sources:       make(map[domain.SourceType]PaperSource),
		maxConcurrent: maxConcurrent,
	}
}

// Register adds a source to the registry.
// If a source with the same type already exists, it will be replaced.
func (r *Registry) Register(source PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns a source by type, or nil if not found.
func (r *Registry) Get(sourceType domain.SourceType) PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// Lookup returns the enabled source registered under sourceType.
// It fails with domain.ErrUnknownSource or domain.ErrSourceDisabled.
func (r *Registry) Lookup(sourceType domain.SourceType) (PaperSource, error) {
	source := r.Get(sourceType)
	if source == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, sourceType)
	}
	if !source.IsEnabled() {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceDisabled, sourceType)
	}
	return source, nil
}

// AllSources returns all registered sources ordered by source type.
// The returned slice is a snapshot.
func (r *Registry) AllSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.sources))
	for _, source := range r.sources {
		sources = append(sources, source)
	}
	sortSources(sources)
	return sources
}

// EnabledSources returns only enabled sources, ordered by source type.
// The returned slice is a snapshot.
func (r *Registry) EnabledSources() []PaperSource {
	all := r.AllSources()
	sources := make([]PaperSource, 0, len(all))
	for _, source := range all {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	return sources
}

// SearchAll searches all enabled sources concurrently.
func (r *Registry) SearchAll(ctx context.Context, params SearchParams) []SourceResult {
	return r.SearchSources(ctx, params, nil)
}

// SearchSources searches specific sources concurrently.
// If sourceTypes is nil or empty, searches all enabled sources.
// Returns one result per searched source, in the order the sources were
// requested; errors are reported per source and never cancel the other
// searches. Unknown source types are skipped.
func (r *Registry) SearchSources(ctx context.Context, params SearchParams, sourceTypes []domain.SourceType) []SourceResult {
	var sources []PaperSource

	if len(sourceTypes) == 0 {
		sources = r.EnabledSources()
	} else {
		r.mu.RLock()
		sources = make([]PaperSource, 0, len(sourceTypes))
		for _, st := range sourceTypes {
			if source, ok := r.sources[st]; ok {
				sources = append(sources, source)
			}
		}
		r.mu.RUnlock()
	}

	if len(sources) == 0 {
		return nil
	}

	results := make([]SourceResult, len(sources))

	var g errgroup.Group
	if r.maxConcurrent > 0 {
		g.SetLimit(r.maxConcurrent)
	}
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			result, err := source.Search(ctx, params)
			results[i] = SourceResult{
				Source: source.SourceType(),
				Result: result,
				Error:  err,
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func sortSources(sources []PaperSource) {
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].SourceType() < sources[j].SourceType()
	})
}
