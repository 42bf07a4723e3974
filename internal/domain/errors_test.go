package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	t.Run("error message", func(t *testing.T) {
		err := NewValidationError("query", "cannot be empty")
		assert.Equal(t, "validation error: query: cannot be empty", err.Error())
	})

	t.Run("unwrap returns ErrInvalidInput", func(t *testing.T) {
		err := fmt.Errorf("search: %w", NewValidationError("max_results", "must be positive"))
		assert.ErrorIs(t, err, ErrInvalidInput)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "max_results", ve.Field)
	})
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("paper", "2301.12345")
	assert.Equal(t, "paper not found: 2301.12345", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAPIError(t *testing.T) {
	t.Run("error message with status", func(t *testing.T) {
		err := NewAPIError("pubmed", 500, "internal server error", nil)
		assert.Equal(t, "pubmed API error (status 500): internal server error", err.Error())
		assert.True(t, err.HasStatusCode())
	})

	t.Run("error message without status", func(t *testing.T) {
		err := NewAPIError("arxiv", StatusNotApplicable, "request failed", assert.AnError)
		assert.Contains(t, err.Error(), "arxiv API error: request failed")
		assert.Contains(t, err.Error(), assert.AnError.Error())
		assert.False(t, err.HasStatusCode())
	})

	t.Run("unwrap returns cause", func(t *testing.T) {
		err := NewAPIError("europepmc", 503, "service unavailable", assert.AnError)
		assert.Equal(t, assert.AnError, err.Unwrap())
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("exhausted only when attempts are recorded", func(t *testing.T) {
		plain := NewAPIError("arxiv", 502, "bad gateway", nil)
		assert.False(t, errors.Is(plain, ErrRetriesExhausted))

		exhausted := &APIError{Source: "arxiv", Message: "giving up", Cause: plain, Attempts: 3}
		assert.ErrorIs(t, exhausted, ErrRetriesExhausted)
		assert.Contains(t, exhausted.Error(), "after 3 attempts")
	})
}

func TestRateLimitError(t *testing.T) {
	t.Run("error message with retry after", func(t *testing.T) {
		err := NewRateLimitError("pubmed", 30*time.Second)
		assert.Equal(t, "rate limited by pubmed: retry after 30s", err.Error())
		assert.True(t, err.HasRetryAfter())
	})

	t.Run("unknown retry after", func(t *testing.T) {
		err := NewRateLimitError("arxiv", RetryAfterUnknown)
		assert.False(t, err.HasRetryAfter())
		assert.Equal(t, RetryAfterUnknown, err.RetryAfter)
		assert.Equal(t, "rate limited by arxiv: too many requests", err.Error())
	})

	t.Run("negative hints normalize to unknown", func(t *testing.T) {
		err := NewRateLimitError("arxiv", -5*time.Second)
		assert.Equal(t, RetryAfterUnknown, err.RetryAfter)
	})

	t.Run("status is always 429", func(t *testing.T) {
		err := NewRateLimitError("europepmc", time.Second)
		assert.Equal(t, 429, err.StatusCode)
	})

	t.Run("matches ErrRateLimited", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewRateLimitError("pubmed", time.Minute))
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("is an APIError", func(t *testing.T) {
		var err error = NewRateLimitError("pubmed", time.Minute)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "pubmed", apiErr.Source)
		assert.Equal(t, 429, apiErr.StatusCode)

		var rlErr *RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, time.Minute, rlErr.RetryAfter)
	})
}

func TestIsRetryable(t *testing.T) {
	live := context.Background()
	done, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		err      error
		expected bool
	}{
		{"nil", live, nil, false},
		{"validation", live, NewValidationError("id", "is required"), false},
		{"wrapped validation", live, fmt.Errorf("x: %w", NewValidationError("id", "is required")), false},
		{"attempt timeout with live context", live, fmt.Errorf("get: %w", context.DeadlineExceeded), true},
		{"canceled caller context", done, context.Canceled, false},
		{"api error after caller cancel", done, NewAPIError("arxiv", 500, "boom", nil), false},
		{"api error", live, NewAPIError("arxiv", 500, "boom", nil), true},
		{"rate limit", live, NewRateLimitError("arxiv", time.Second), true},
		{"generic", live, errors.New("connection reset"), true},
		{"not found", live, NewNotFoundError("paper", "1"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.ctx, tt.err))
		})
	}
}
