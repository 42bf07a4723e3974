package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_connectors_new")

	assert.NotNil(t, m.SearchesStarted)
	assert.NotNil(t, m.SearchesCompleted)
	assert.NotNil(t, m.SearchesFailed)
	assert.NotNil(t, m.SearchDuration)
	assert.NotNil(t, m.PapersPerSearch)
	assert.NotNil(t, m.PapersParsed)
	assert.NotNil(t, m.SourceRequestsTotal)
	assert.NotNil(t, m.SourceRequestsFailed)
	assert.NotNil(t, m.SourceRateLimited)
	assert.NotNil(t, m.SourceRetries)
	assert.NotNil(t, m.SourceRetriesExhausted)
	assert.NotNil(t, m.LimiterWaitDuration)
	assert.NotNil(t, m.APIRequestsTotal)
	assert.NotNil(t, m.APIRequestDuration)
}

func TestRecordSearchStarted(t *testing.T) {
	m := NewMetrics("test_search_started")

	m.RecordSearchStarted("arxiv")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesStarted.WithLabelValues("arxiv")))
}

func TestRecordSearchCompleted(t *testing.T) {
	m := NewMetrics("test_search_completed")

	m.RecordSearchCompleted("europepmc", 42, 2.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesCompleted.WithLabelValues("europepmc")))
}

func TestRecordSearchFailed(t *testing.T) {
	m := NewMetrics("test_search_failed")

	m.RecordSearchFailed("pubmed", 1.0)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesFailed.WithLabelValues("pubmed")))
}

func TestRecordPapersParsed(t *testing.T) {
	m := NewMetrics("test_papers_parsed")

	m.RecordPapersParsed("arxiv", 25)
	m.RecordPapersParsed("arxiv", 5)
	assert.Equal(t, float64(30), testutil.ToFloat64(m.PapersParsed.WithLabelValues("arxiv")))
}

func TestRecordSourceRequest(t *testing.T) {
	m := NewMetrics("test_source_request")

	m.RecordSourceRequest("arxiv", "query", 0.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRequestsTotal.WithLabelValues("arxiv", "query")))
}

func TestRecordSourceRequestFailed(t *testing.T) {
	m := NewMetrics("test_source_request_failed")

	m.RecordSourceRequestFailed("europepmc", "search", "timeout")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRequestsFailed.WithLabelValues("europepmc", "search", "timeout")))
}

func TestRecordSourceRateLimited(t *testing.T) {
	m := NewMetrics("test_source_rate_limited")

	m.RecordSourceRateLimited("pubmed")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRateLimited.WithLabelValues("pubmed")))
}

func TestRecordRetries(t *testing.T) {
	m := NewMetrics("test_retries")

	m.RecordRetry("pubmed")
	m.RecordRetry("pubmed")
	m.RecordRetriesExhausted("pubmed")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SourceRetries.WithLabelValues("pubmed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRetriesExhausted.WithLabelValues("pubmed")))
}

func TestRecordLimiterWait(t *testing.T) {
	m := NewMetrics("test_limiter_wait")

	m.RecordLimiterWait("arxiv", 0.25)

	count, err := getHistogramVecSampleCount(m.LimiterWaitDuration, "arxiv")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestRecordAPIRequest(t *testing.T) {
	m := NewMetrics("test_api_request")

	m.RecordAPIRequest("/api/v1/search", "200", 0.1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("/api/v1/search", "200")))

	count, err := getHistogramVecSampleCount(m.APIRequestDuration, "/api/v1/search")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

// Helper to get the sample count of one histogram series.
func getHistogramVecSampleCount(h *prometheus.HistogramVec, labels ...string) (uint64, error) {
	observer, err := h.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	metric, ok := observer.(prometheus.Metric)
	if !ok {
		return 0, nil
	}

	var out = &dto.Metric{}
	if err := metric.Write(out); err != nil {
		return 0, err
	}
	return out.Histogram.GetSampleCount(), nil
}
