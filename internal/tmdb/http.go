package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/scheduler"
)

// Fetch issues one GET for endpoint and returns the decoded-ready JSON body.
// It implements scheduler.Fetcher.
func (c *Client) Fetch(ctx context.Context, endpoint string, params scheduler.Params) (json.RawMessage, error) {
	target := c.baseURL + endpoint
	if query := params.Encode(); query != "" {
		target += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperrors.NewUnreachableError(endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUnreachableError(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewUnreachableError(endpoint, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(endpoint, resp, body)
	}

	if !json.Valid(body) {
		return nil, apperrors.NewInvalidDataError(endpoint, errors.New("response body is not valid JSON"))
	}

	return json.RawMessage(body), nil
}

// statusError turns a non-2xx response into a ProviderError, using TMDB's
// status_message when the body carries one. 429s are also marked as rate limited.
func statusError(endpoint string, resp *http.Response, body []byte) error {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	_ = json.Unmarshal(body, &payload)

	providerErr := apperrors.NewProviderError(resp.StatusCode, endpoint, strings.TrimSpace(payload.StatusMessage))
	if resp.StatusCode != http.StatusTooManyRequests {
		return providerErr
	}

	rateErr := apperrors.NewRateLimitErrorWithRetry(providerErr.Message, parseRetryAfter(resp.Header.Get("Retry-After")))
	rateErr.Err = providerErr
	return rateErr
}

// parseRetryAfter accepts both delay-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
