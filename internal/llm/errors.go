package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ProviderError represents a provider-specific completion failure.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Provider, e.Message)
}

// NewProviderError creates a new provider error.
func NewProviderError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Message: message}
}

// WithStatusCode sets the HTTP status code.
func (e *ProviderError) WithStatusCode(code int) *ProviderError {
	e.StatusCode = code
	return e
}

// RateLimitError reports a rate or token limit rejection.
type RateLimitError struct {
	Provider   string
	RetryAfter int // seconds, 0 when the service did not say
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("[%s] rate limited: %s", e.Provider, e.Message)
}

// IsRetryableStatusCode reports whether an HTTP status warrants a retry.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429 - rate/token limited
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// IsRetryableError reports whether a completion failure warrants a retry.
// Context cancellation and client-side request errors are fatal; rate
// limits, retryable statuses and network errors are transient.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode == 0 || IsRetryableStatusCode(pe.StatusCode)
	}

	// Network errors (connection refused, timeouts, DNS) are retryable.
	return true
}
