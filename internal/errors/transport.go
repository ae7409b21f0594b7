package errors

import (
	"errors"
	"net/url"
	"strings"
)

// TransportKind separates failures to reach the provider from bad responses.
type TransportKind int

const (
	// Unreachable means the request never produced a response (DNS, timeout, reset).
	Unreachable TransportKind = iota
	// InvalidData means the provider answered but the body could not be parsed.
	InvalidData
)

func (k TransportKind) String() string {
	switch k {
	case Unreachable:
		return "could not reach provider"
	case InvalidData:
		return "provider returned invalid data"
	default:
		return "transport error"
	}
}

// TransportError wraps network and decoding failures for a single request.
type TransportError struct {
	Kind     TransportKind
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-enqueueing the request may succeed.
// Only timeouts and connection-level failures qualify.
func (e *TransportError) Retryable() bool {
	if e.Kind != Unreachable {
		return false
	}
	var urlErr *url.Error
	if errors.As(e.Err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	return false
}

// NewUnreachableError wraps a failure to reach the provider.
func NewUnreachableError(endpoint string, err error) *TransportError {
	return &TransportError{Kind: Unreachable, Endpoint: endpoint, Err: err}
}

// NewInvalidDataError wraps a failure to parse the provider's response.
func NewInvalidDataError(endpoint string, err error) *TransportError {
	return &TransportError{Kind: InvalidData, Endpoint: endpoint, Err: err}
}

// IsTransportError checks if err is a TransportError
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsRetryable reports whether a caller should re-enqueue the failed request.
func IsRetryable(err error) bool {
	if IsRateLimitError(err) {
		return true
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable()
	}
	return false
}
