package server

import "net/http"

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Get("/api/search", s.handleSearch)
	s.router.Get("/api/home", s.handleHome)
	s.router.Get("/api/movie/{id}", s.handleMovie)
	s.router.Get("/api/tv/{id}", s.handleTV)
	s.router.Get("/api/tv/{id}/season/{season}", s.handleSeason)
	s.router.Get("/api/{mediaType}/{id}/related", s.handleRelated)
}
