package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/metrics"
	"github.com/lepinkainen/marquee/internal/scheduler"
	"github.com/lepinkainen/marquee/internal/testutil"
	"github.com/lepinkainen/marquee/internal/tmdb"
)

// fakeCatalog returns canned values; err, when set, is returned by every call.
type fakeCatalog struct {
	err         error
	searchPages int
	searchQuery string
	relatedType string
	seasonArgs  [2]int
}

func (f *fakeCatalog) Search(_ context.Context, query string, maxPages int) (*tmdb.SearchResponse, error) {
	f.searchQuery = query
	f.searchPages = maxPages
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.SearchResponse{Results: []tmdb.SearchResult{{TMDBID: "603", Title: "The Matrix"}}, TotalResults: 1, TotalPages: 1}, nil
}

func (f *fakeCatalog) Home(context.Context) (*tmdb.Home, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.Home{Trending: []tmdb.SearchResult{}, Popular: []tmdb.SearchResult{}, TopRatedTV: []tmdb.SearchResult{}}, nil
}

func (f *fakeCatalog) MovieDetails(_ context.Context, id int) (*tmdb.MovieDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.MovieDetails{TMDBID: id, Title: "The Matrix"}, nil
}

func (f *fakeCatalog) TVDetails(_ context.Context, id int) (*tmdb.TVDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.TVDetails{TMDBID: id, Title: "Game of Thrones"}, nil
}

func (f *fakeCatalog) Season(_ context.Context, tvID, seasonNumber int) (*tmdb.Season, error) {
	f.seasonArgs = [2]int{tvID, seasonNumber}
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.Season{TVID: tvID, SeasonNumber: seasonNumber}, nil
}

func (f *fakeCatalog) Related(_ context.Context, mediaType string, id int) ([]tmdb.SearchResult, error) {
	f.relatedType = mediaType
	if f.err != nil {
		return nil, f.err
	}
	if mediaType != "movie" && mediaType != "tv" {
		return nil, tmdb.ErrInvalidMediaType
	}
	return []tmdb.SearchResult{{TMDBID: fmt.Sprint(id + 1), MediaType: mediaType}}, nil
}

type staticStats scheduler.Stats

func (s staticStats) Stats() scheduler.Stats { return scheduler.Stats(s) }

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	s := New(":0", &fakeCatalog{}, staticStats{State: scheduler.Running, Queued: 2, InWindow: 40})

	rec := get(t, s.Handler(), "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status": "ok",
		"scheduler": {"state": "running", "queued": 2, "in_window": 40, "in_flight": 0,
			"enqueued": 0, "dispatched": 0, "succeeded": 0, "failed": 0, "canceled": 0}
	}`, rec.Body.String())
}

func TestRequestIDIsGeneratedAndEchoed(t *testing.T) {
	s := New(":0", &fakeCatalog{}, nil)

	rec := get(t, s.Handler(), "/health")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestSearch(t *testing.T) {
	catalog := &fakeCatalog{}
	s := New(":0", catalog, nil, WithMaxPages(3))

	rec := get(t, s.Handler(), "/api/search?query="+url.QueryEscape("the matrix")+"&pages=10")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "the matrix", catalog.searchQuery)
	assert.Equal(t, 3, catalog.searchPages)

	var resp tmdb.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The Matrix", resp.Results[0].Title)
}

func TestSearchDefaultsToMaxPages(t *testing.T) {
	catalog := &fakeCatalog{}
	s := New(":0", catalog, nil)

	rec := get(t, s.Handler(), "/api/search?query=alien")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tmdb.DefaultMaxPages, catalog.searchPages)
}

func TestBadInput(t *testing.T) {
	s := New(":0", &fakeCatalog{}, nil)

	tests := []struct {
		target string
		want   string
	}{
		{"/api/search", "query parameter is required"},
		{"/api/search?query=%20%20", "query parameter is required"},
		{"/api/search?query=x&pages=zero", "pages must be a positive integer"},
		{"/api/movie/abc", `invalid id "abc"`},
		{"/api/tv/0", `invalid id "0"`},
		{"/api/tv/1399/season/x", `invalid season "x"`},
		{"/api/person/5/related", tmdb.ErrInvalidMediaType.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, s.Handler(), tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorBody(t, rec), tt.want)
		})
	}
}

func TestRoutesPassPathParameters(t *testing.T) {
	catalog := &fakeCatalog{}
	s := New(":0", catalog, nil)

	rec := get(t, s.Handler(), "/api/tv/1399/season/2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]int{1399, 2}, catalog.seasonArgs)

	rec = get(t, s.Handler(), "/api/tv/1399/related")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tv", catalog.relatedType)

	rec = get(t, s.Handler(), "/api/movie/603/related")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "movie", catalog.relatedType)

	rec = get(t, s.Handler(), "/api/movie/603")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tmdb_id":603`)
}

func TestErrorMapping(t *testing.T) {
	rateErr := apperrors.NewRateLimitErrorWithRetry("Too many requests", 2*time.Second)
	rateErr.Err = apperrors.NewProviderError(http.StatusTooManyRequests, "/movie/1", "")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"provider not found", apperrors.NewProviderError(404, "/movie/1", "The resource you requested could not be found."), http.StatusNotFound},
		{"provider unauthorized", apperrors.NewProviderError(401, "/movie/1", "Invalid API key"), http.StatusUnauthorized},
		{"provider server error", apperrors.NewProviderError(503, "/movie/1", ""), http.StatusBadGateway},
		{"rate limited", rateErr, http.StatusTooManyRequests},
		{"unreachable", apperrors.NewUnreachableError("/movie/1", errors.New("dial failed")), http.StatusBadGateway},
		{"timeout", apperrors.NewUnreachableError("/movie/1", &url.Error{Op: "Get", URL: "x", Err: context.DeadlineExceeded}), http.StatusGatewayTimeout},
		{"invalid data", apperrors.NewInvalidDataError("/movie/1", errors.New("bad json")), http.StatusBadGateway},
		{"queue full", scheduler.ErrQueueFull, http.StatusServiceUnavailable},
		{"closed", scheduler.ErrClosed, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestErrorResponseBody(t *testing.T) {
	s := New(":0", &fakeCatalog{err: errors.New("database exploded")}, nil)

	rec := get(t, s.Handler(), "/api/home")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorBody(t, rec))
}

func TestNotFoundRoute(t *testing.T) {
	s := New(":0", &fakeCatalog{}, nil)

	rec := get(t, s.Handler(), "/api/nope")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "The requested resource was not found", errorBody(t, rec))
}

func TestRecovery(t *testing.T) {
	s := New(":0", &fakeCatalog{}, nil)
	s.router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec := get(t, s.Handler(), "/panic")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorBody(t, rec))
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New(staticStats{Queued: 4})
	s := New(":0", &fakeCatalog{}, staticStats{Queued: 4}, WithMetrics(m))

	get(t, s.Handler(), "/api/movie/603")
	rec := get(t, s.Handler(), "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "marquee_scheduler_queued 4")
	assert.Contains(t, body, `marquee_http_requests_total{method="GET",route="/api/movie/{id}",status="200"} 1`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	s := New(":0", &fakeCatalog{}, nil)
	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// newProviderServer wires the real catalog and scheduler against the fake provider.
func newProviderServer(t *testing.T, p *testutil.Provider) (*Server, *scheduler.Scheduler) {
	t.Helper()

	client, err := tmdb.NewClient(testutil.ProviderToken, tmdb.WithBaseURL(p.URL))
	require.NoError(t, err)
	sched, err := scheduler.New(client, scheduler.Config{MaxRequests: 100, Window: time.Second})
	require.NoError(t, err)
	t.Cleanup(sched.Close)

	return New(":0", tmdb.NewCatalog(sched), sched), sched
}

func TestProviderNotFoundPassesThrough(t *testing.T) {
	p := testutil.NewProvider(t)
	s, sched := newProviderServer(t, p)

	rec := get(t, s.Handler(), "/api/movie/999999")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "The resource you requested could not be found.", errorBody(t, rec))
	assert.Equal(t, uint64(1), sched.Stats().Failed)
}

func TestProviderMovieDetails(t *testing.T) {
	p := testutil.NewProvider(t)
	p.HandleJSON("/movie/603", http.StatusOK, map[string]any{
		"id":           603,
		"title":        "The Matrix",
		"release_date": "1999-03-30",
		"runtime":      136,
		"vote_average": 8.2,
		"vote_count":   25000,
		"imdb_id":      "tt0133093",
	})
	s, _ := newProviderServer(t, p)

	rec := get(t, s.Handler(), "/api/movie/603")

	require.Equal(t, http.StatusOK, rec.Code)
	var movie tmdb.MovieDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &movie))
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, "1999", movie.Year)
	assert.Equal(t, "136 min", movie.Runtime)

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "videos,credits", reqs[0].Query.Get("append_to_response"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := New("127.0.0.1:0", &fakeCatalog{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestGetRequestIDEmpty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}
