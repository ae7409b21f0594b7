package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/scheduler"
	"github.com/lepinkainen/marquee/internal/testutil"
)

const testImageBase = "https://images.test/t/p"

func newTestCatalog(t *testing.T, p *testutil.Provider, opts ...CatalogOption) *Catalog {
	t.Helper()

	sched, err := scheduler.New(newTestClient(t, p), scheduler.Config{MaxRequests: 100, Window: time.Second})
	require.NoError(t, err)
	t.Cleanup(sched.Close)

	c := NewCatalog(sched, append([]CatalogOption{WithImageBaseURL(testImageBase + "/")}, opts...)...)
	c.backoff = func(int, error) time.Duration { return time.Millisecond }
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestCatalogRetriesRateLimitedRequest(t *testing.T) {
	p := testutil.NewProvider(t)
	var calls int32
	p.Handle("/genre/movie/list", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, map[string]any{"genres": []map[string]any{{"id": 28, "name": "Action"}}})
	})
	c := newTestCatalog(t, p)

	genres, err := c.getGenres(context.Background(), "movie")
	require.NoError(t, err)
	assert.Equal(t, "Action", genres[28])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCatalogDoesNotRetryProviderErrors(t *testing.T) {
	p := testutil.NewProvider(t)
	c := newTestCatalog(t, p, WithRetryAttempts(3))

	_, err := c.MovieDetails(context.Background(), 0)
	providerErr, ok := apperrors.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, providerErr.StatusCode)
	assert.Equal(t, 1, p.Count("/movie/0"))
}

func TestCatalogGivesUpAfterRetryAttempts(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Handle("/movie/603", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c := newTestCatalog(t, p, WithRetryAttempts(3))

	_, err := c.MovieDetails(context.Background(), 603)
	assert.True(t, apperrors.IsRateLimitError(err))
	assert.Equal(t, 3, p.Count("/movie/603"))
}

func TestCatalogWrapsUndecodableResponses(t *testing.T) {
	p := testutil.NewProvider(t)
	p.HandleJSON("/movie/603", http.StatusOK, []int{1, 2, 3})
	c := newTestCatalog(t, p)

	_, err := c.MovieDetails(context.Background(), 603)
	var transportErr *apperrors.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, apperrors.InvalidData, transportErr.Kind)
}

func TestGetGenresCachesResponse(t *testing.T) {
	p := testutil.NewProvider(t)
	p.HandleJSON("/genre/movie/list", http.StatusOK, map[string]any{
		"genres": []map[string]any{{"id": 1, "name": "Action"}},
	})
	c := newTestCatalog(t, p)

	for range 2 {
		genres, err := c.getGenres(context.Background(), "movie")
		require.NoError(t, err)
		assert.Equal(t, "Action", genres[1])
	}

	assert.Equal(t, 1, p.Count("/genre/movie/list"))
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(1, errors.New("x")))
	assert.Equal(t, 2*time.Second, backoffDelay(2, errors.New("x")))
	assert.Equal(t, maxBackoff, backoffDelay(8, errors.New("x")))

	rateErr := apperrors.NewRateLimitErrorWithRetry("slow down", 5*time.Second)
	assert.Equal(t, 5*time.Second, backoffDelay(1, rateErr))

	rateErr = apperrors.NewRateLimitErrorWithRetry("slow down", time.Minute)
	assert.Equal(t, maxBackoff, backoffDelay(1, rateErr))
}

func TestSleepContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
