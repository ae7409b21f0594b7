package errors

import (
	"errors"
	"fmt"
)

// ProviderError is a non-2xx response from the metadata provider.
type ProviderError struct {
	StatusCode int
	Message    string // status_message from the response body, or a generic fallback
	Endpoint   string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// NewProviderError builds a ProviderError, falling back to a generic message when the
// provider did not report one.
func NewProviderError(statusCode int, endpoint, statusMessage string) *ProviderError {
	message := statusMessage
	if message == "" {
		message = fmt.Sprintf("Error %d: Failed to fetch from provider", statusCode)
	}
	return &ProviderError{
		StatusCode: statusCode,
		Message:    message,
		Endpoint:   endpoint,
	}
}

// IsProviderError checks if err is a ProviderError
func IsProviderError(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr)
}

// AsProviderError returns the wrapped ProviderError, if any.
func AsProviderError(err error) (*ProviderError, bool) {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr, true
	}
	return nil, false
}
