// Package tmdb talks to TheMovieDB API: Client is the raw transport the request
// scheduler dispatches through, Catalog turns scheduled responses into the shapes
// the CLI and HTTP server render.
package tmdb

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 10 << 20
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client performs single authenticated GETs against the TMDB API. It does no
// pacing or retrying of its own; route calls through a scheduler.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a TMDB transport using a v4 read access token.
func NewClient(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewConfigError("tmdb.token", "TMDB read access token is not set (TMDB_API_READ_ACCESS_TOKEN)")
	}

	client := &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	if err := validateBaseURL(client.baseURL); err != nil {
		return nil, err
	}

	return client, nil
}

// validateBaseURL returns a ConfigError unless base is an absolute http(s) URL.
func validateBaseURL(base string) error {
	u, err := url.Parse(base)
	if err != nil {
		return apperrors.NewConfigError("tmdb.baseurl", fmt.Sprintf("invalid TMDB base URL %q: %v", base, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.NewConfigError("tmdb.baseurl", fmt.Sprintf("TMDB base URL %q must use http or https", base))
	}
	if u.Host == "" {
		return apperrors.NewConfigError("tmdb.baseurl", fmt.Sprintf("TMDB base URL %q has no host", base))
	}
	return nil
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the TMDB API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
