package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates that the request was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrRetriesExhausted indicates that every attempt allowed by a retry policy failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrSourceDisabled indicates that the requested paper source is disabled.
	ErrSourceDisabled = errors.New("source disabled")

	// ErrUnknownSource indicates that no paper source is registered under the requested name.
	ErrUnknownSource = errors.New("unknown source")
)

const (
	// StatusNotApplicable is the StatusCode of an APIError that did not come from an HTTP response.
	StatusNotApplicable = 0

	// RetryAfterUnknown marks a RateLimitError whose origin gave no retry hint.
	RetryAfterUnknown time.Duration = -1
)

// ValidationError represents a validation error for a specific field.
// Validation errors are never retried.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// APIError is a failed call to an external literature API.
// StatusCode is StatusNotApplicable when the failure carried no HTTP status,
// and Attempts is set only when the error reports an exhausted retry policy.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
	Attempts   int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.StatusCode != StatusNotApplicable {
		msg = fmt.Sprintf("%s API error (status %d): %s", e.sourceName(), e.StatusCode, msg)
	} else {
		msg = fmt.Sprintf("%s API error: %s", e.sourceName(), msg)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is reports ErrRetriesExhausted for errors produced by an exhausted retry policy.
func (e *APIError) Is(target error) bool {
	return target == ErrRetriesExhausted && e.Attempts > 0
}

// HasStatusCode reports whether the error carries an HTTP status.
func (e *APIError) HasStatusCode() bool {
	return e.StatusCode != StatusNotApplicable
}

func (e *APIError) sourceName() string {
	if e.Source == "" {
		return "external"
	}
	return e.Source
}

// RateLimitError is an APIError raised when an upstream API throttled the caller.
// Its status code is always 429.
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if !e.HasRetryAfter() {
		return fmt.Sprintf("rate limited by %s: %s", e.sourceName(), e.Message)
	}
	return fmt.Sprintf("rate limited by %s: retry after %s", e.sourceName(), e.RetryAfter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrRateLimited
}

// Is matches ErrRateLimited even when a cause is attached.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// As lets errors.As treat a rate limit error as an *APIError.
func (e *RateLimitError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// HasRetryAfter reports whether the origin supplied a retry hint.
func (e *RateLimitError) HasRetryAfter() bool {
	return e.RetryAfter >= 0
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewRateLimitError creates a new RateLimitError.
// Pass RetryAfterUnknown when the upstream gave no hint.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	if retryAfter < 0 {
		retryAfter = RetryAfterUnknown
	}
	return &RateLimitError{
		APIError: APIError{
			Source:     source,
			StatusCode: http.StatusTooManyRequests,
			Message:    "too many requests",
		},
		RetryAfter: retryAfter,
	}
}

// NewAPIError creates a new APIError.
func NewAPIError(source string, statusCode int, message string, cause error) *APIError {
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// IsRetryable reports whether a retry policy may attempt the failed call
// again under ctx. Validation failures are terminal, and so is any failure
// once ctx itself is done. A context error raised while ctx is still live
// comes from a per-attempt timeout and is retryable.
func IsRetryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidInput) {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return false
	}
	return true
}
