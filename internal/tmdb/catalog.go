package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/scheduler"
)

const (
	defaultLanguage      = "en-US"
	defaultRetryAttempts = 2
	maxBackoff           = 10 * time.Second
)

var (
	// ErrInvalidMediaType is returned when an unsupported media type is provided.
	ErrInvalidMediaType = errors.New("invalid media type")
	// ErrNoPoster is returned when no poster is available for the media.
	ErrNoPoster = errors.New("poster not available")
	// ErrEmptyQuery is returned for a blank search query.
	ErrEmptyQuery = errors.New("search query is required")
)

// Requester is anything that can run a rate-limited provider request:
// the scheduler itself, or a cache in front of it.
type Requester interface {
	Do(ctx context.Context, endpoint string, params scheduler.Params) (json.RawMessage, error)
}

// Catalog builds movie and TV views from scheduled TMDB requests.
type Catalog struct {
	requester     Requester
	imageBaseURL  string
	language      string
	retryAttempts int
	imageClient   HTTPDoer
	logger        *slog.Logger
	backoff       func(attempt int, err error) time.Duration

	mu         sync.RWMutex
	genreCache map[string]map[int]string
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithImageBaseURL sets a custom base URL for TMDB images.
func WithImageBaseURL(base string) CatalogOption {
	return func(c *Catalog) {
		if base != "" {
			c.imageBaseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithLanguage sets the language requested from TMDB.
func WithLanguage(language string) CatalogOption {
	return func(c *Catalog) {
		if language != "" {
			c.language = language
		}
	}
}

// WithRetryAttempts sets how many times a retryable request is attempted in total.
func WithRetryAttempts(attempts int) CatalogOption {
	return func(c *Catalog) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
	}
}

// WithImageClient sets the HTTP client used to download images from the CDN.
func WithImageClient(client HTTPDoer) CatalogOption {
	return func(c *Catalog) {
		if client != nil {
			c.imageClient = client
		}
	}
}

// WithCatalogLogger sets the logger for retry diagnostics.
func WithCatalogLogger(logger *slog.Logger) CatalogOption {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCatalog creates a catalog over requester.
func NewCatalog(requester Requester, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		requester:     requester,
		imageBaseURL:  defaultImageBaseURL,
		language:      defaultLanguage,
		retryAttempts: defaultRetryAttempts,
		imageClient:   &http.Client{Timeout: 30 * time.Second},
		logger:        slog.Default(),
		backoff:       backoffDelay,
		genreCache:    make(map[string]map[int]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// getJSON runs one request through the requester and decodes it into target.
// Retryable failures are enqueued again after a backoff; everything else is
// returned as is.
func (c *Catalog) getJSON(ctx context.Context, endpoint string, params scheduler.Params, target any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		raw, err := c.requester.Do(ctx, endpoint, params)
		if err == nil {
			if err := json.Unmarshal(raw, target); err != nil {
				return apperrors.NewInvalidDataError(endpoint, err)
			}
			return nil
		}

		lastErr = err
		if !apperrors.IsRetryable(err) || attempt == c.retryAttempts {
			return err
		}

		delay := c.backoff(attempt, err)
		c.logger.Debug("Retrying TMDB request", "endpoint", endpoint, "attempt", attempt, "delay", delay, "error", err)
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// backoffDelay doubles from one second, honoring a provider Retry-After when larger.
func backoffDelay(attempt int, err error) time.Duration {
	delay := time.Duration(1<<uint(attempt-1)) * time.Second

	var rateErr *apperrors.RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > delay {
		delay = rateErr.RetryAfter
	}

	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validMediaType(mediaType string) bool {
	return mediaType == "movie" || mediaType == "tv"
}
