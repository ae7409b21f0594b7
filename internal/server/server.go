// Package server exposes the catalog as a JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lepinkainen/marquee/internal/metrics"
	"github.com/lepinkainen/marquee/internal/tmdb"
)

const shutdownTimeout = 10 * time.Second

// Catalog is the slice of *tmdb.Catalog the API serves.
type Catalog interface {
	Search(ctx context.Context, query string, maxPages int) (*tmdb.SearchResponse, error)
	Home(ctx context.Context) (*tmdb.Home, error)
	MovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	TVDetails(ctx context.Context, id int) (*tmdb.TVDetails, error)
	Season(ctx context.Context, tvID, seasonNumber int) (*tmdb.Season, error)
	Related(ctx context.Context, mediaType string, id int) ([]tmdb.SearchResult, error)
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics instruments requests and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMaxPages caps the pages a single search may request.
func WithMaxPages(pages int) Option {
	return func(s *Server) {
		if pages > 0 {
			s.maxPages = pages
		}
	}
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	addr     string
	catalog  Catalog
	stats    metrics.StatsSource
	metrics  *metrics.Metrics
	logger   *slog.Logger
	maxPages int
}

// New creates a new HTTP server instance. stats may be nil, in which case
// /health omits the scheduler snapshot.
func New(addr string, catalog Catalog, stats metrics.StatsSource, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		catalog:  catalog,
		stats:    stats,
		logger:   slog.Default(),
		maxPages: tmdb.DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(s.requestLogger)
	r.Use(s.recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "The requested resource was not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "The requested method is not allowed for this resource")
	})

	s.router = r
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.addr)

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}
