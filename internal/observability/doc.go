// Package observability provides logging and metrics support for the
// literature connectors.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, sources, retries and the HTTP API
//   - Context helpers for propagating request and source identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("source", "arxiv").Msg("search started")
//
// Scope a logger to a connector and one of its searches:
//
//	logger = observability.WithSourceContext(logger, "arxiv")
//	logger = observability.WithSearchContext(logger, query)
//
// # Metrics
//
// Initialize metrics once per process:
//
//	metrics := observability.NewMetrics("literature_connectors")
//
// Record metrics:
//
//	metrics.RecordSourceRequest("pubmed", "efetch", took.Seconds())
//	metrics.RecordRetry("pubmed")
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP API request identifier
//   - source: paper source (arxiv, pubmed, europepmc)
//   - query: search query
//   - paper_id: source-local paper identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
