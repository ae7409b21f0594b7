package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/scheduler"
	"github.com/lepinkainen/marquee/internal/tmdb"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks handler input errors.
var errBadRequest = errors.New("bad request")

// statusFor maps a catalog error to the HTTP status returned to the client.
func statusFor(err error) int {
	var (
		rateErr      *apperrors.RateLimitError
		transportErr *apperrors.TransportError
	)

	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, tmdb.ErrEmptyQuery),
		errors.Is(err, tmdb.ErrInvalidMediaType),
		errors.Is(err, scheduler.ErrEmptyEndpoint),
		errors.Is(err, scheduler.ErrInvalidEndpoint):
		return http.StatusBadRequest
	case errors.Is(err, tmdb.ErrNoPoster):
		return http.StatusNotFound
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests
	case errors.Is(err, scheduler.ErrQueueFull), errors.Is(err, scheduler.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transportErr):
		if transportErr.Kind == apperrors.Unreachable && transportErr.Retryable() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}

	if providerErr, ok := apperrors.AsProviderError(err); ok {
		if providerErr.StatusCode >= 400 && providerErr.StatusCode < 500 {
			return providerErr.StatusCode
		}
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// handleError writes the mapped status and logs server-side failures.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		s.logger.Debug("Client went away", "path", r.URL.Path, "request_id", GetRequestID(r.Context()))
		return
	}

	if status >= 500 {
		s.logger.Error("Request failed", "path", r.URL.Path, "status", status, "error", err, "request_id", GetRequestID(r.Context()))
	} else {
		s.logger.Debug("Request rejected", "path", r.URL.Path, "status", status, "error", err, "request_id", GetRequestID(r.Context()))
	}

	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
