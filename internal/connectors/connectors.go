// Package connectors builds the paper source registry from configuration.
package connectors

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-connectors/internal/config"
	"github.com/helixir/literature-connectors/internal/observability"
	"github.com/helixir/literature-connectors/internal/papersources"
	"github.com/helixir/literature-connectors/internal/papersources/arxiv"
	"github.com/helixir/literature-connectors/internal/papersources/europepmc"
	"github.com/helixir/literature-connectors/internal/papersources/pubmed"
)

// NewRegistry creates one client per configured source and registers it.
// Disabled sources are registered too so lookups can tell a disabled
// source from an unknown one. metrics may be nil.
func NewRegistry(cfg config.PaperSourcesConfig, maxConcurrent int, logger zerolog.Logger, metrics *observability.Metrics) (*papersources.Registry, error) {
	registry := papersources.NewRegistry(maxConcurrent)

	// arXiv.
	ax := cfg.ArXiv
	axClient, err := arxiv.New(arxiv.Config{
		BaseURL:        ax.BaseURL,
		Timeout:        ax.Timeout,
		RateCapacity:   ax.RateCapacity,
		RefillInterval: ax.RateRefillInterval,
		MaxAttempts:    ax.MaxAttempts,
		RetryDelay:     ax.RetryDelay,
		MaxRetryAfter:  ax.MaxRetryAfter,
		MaxResults:     ax.MaxResults,
		Enabled:        ax.Enabled,
		Logger:         &logger,
		Metrics:        metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}
	register(registry, axClient, logger)

	// PubMed.
	pm := cfg.PubMed
	pmClient, err := pubmed.New(pubmed.Config{
		BaseURL:        pm.BaseURL,
		APIKey:         pm.APIKey,
		Tool:           pm.Tool,
		Email:          pm.Email,
		Timeout:        pm.Timeout,
		RateCapacity:   pm.RateCapacity,
		RefillInterval: pm.RateRefillInterval,
		MaxAttempts:    pm.MaxAttempts,
		RetryDelay:     pm.RetryDelay,
		MaxRetryAfter:  pm.MaxRetryAfter,
		MaxResults:     pm.MaxResults,
		Enabled:        pm.Enabled,
		Logger:         &logger,
		Metrics:        metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("pubmed: %w", err)
	}
	register(registry, pmClient, logger)

	// Europe PMC.
	ep := cfg.EuropePMC
	epClient, err := europepmc.New(europepmc.Config{
		BaseURL:        ep.BaseURL,
		Timeout:        ep.Timeout,
		RateCapacity:   ep.RateCapacity,
		RefillInterval: ep.RateRefillInterval,
		MaxAttempts:    ep.MaxAttempts,
		RetryDelay:     ep.RetryDelay,
		MaxRetryAfter:  ep.MaxRetryAfter,
		MaxResults:     ep.MaxResults,
		Enabled:        ep.Enabled,
		Logger:         &logger,
		Metrics:        metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("europepmc: %w", err)
	}
	register(registry, epClient, logger)

	return registry, nil
}

func register(registry *papersources.Registry, source papersources.PaperSource, logger zerolog.Logger) {
	registry.Register(source)
	logger.Info().
		Str("source", source.SourceType().String()).
		Bool("enabled", source.IsEnabled()).
		Msgf("registered paper source: %s", source.Name())
}
