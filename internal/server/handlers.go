package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lepinkainen/marquee/internal/scheduler"
)

type healthResponse struct {
	Status    string           `json:"status"`
	Scheduler *scheduler.Stats `json:"scheduler,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.stats != nil {
		stats := s.stats.Stats()
		resp.Scheduler = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.handleError(w, r, fmt.Errorf("%w: query parameter is required", errBadRequest))
		return
	}

	pages := s.maxPages
	if raw := r.URL.Query().Get("pages"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.handleError(w, r, fmt.Errorf("%w: pages must be a positive integer", errBadRequest))
			return
		}
		pages = min(n, s.maxPages)
	}

	resp, err := s.catalog.Search(r.Context(), query, pages)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	home, err := s.catalog.Home(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	movie, err := s.catalog.MovieDetails(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (s *Server) handleTV(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	tv, err := s.catalog.TVDetails(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tv)
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	seasonNumber, err := strconv.Atoi(chi.URLParam(r, "season"))
	if err != nil || seasonNumber < 0 {
		s.handleError(w, r, fmt.Errorf("%w: invalid season %q", errBadRequest, chi.URLParam(r, "season")))
		return
	}

	season, err := s.catalog.Season(r.Context(), id, seasonNumber)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, season)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	related, err := s.catalog.Related(r.Context(), chi.URLParam(r, "mediaType"), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, related)
}

// pathID parses a positive TMDB id from the named URL parameter.
func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}
