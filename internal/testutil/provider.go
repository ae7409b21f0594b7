package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// ProviderToken is the bearer token the fake provider expects by default.
const ProviderToken = "test-read-access-token"

// RecordedRequest is one request seen by the fake provider.
type RecordedRequest struct {
	Path          string
	Query         url.Values
	Authorization string
	Accept        string
}

// Provider is a fake TMDB API backed by httptest. Unregistered paths answer 404
// with a TMDB-style error body; a wrong bearer token answers 401.
type Provider struct {
	*httptest.Server

	t        *testing.T
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []RecordedRequest
	token    string
}

// NewProvider starts a fake provider that is shut down when the test completes.
func NewProvider(t *testing.T) *Provider {
	t.Helper()

	p := &Provider{
		t:      t,
		routes: make(map[string]http.HandlerFunc),
		token:  ProviderToken,
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)

	return p
}

// Handle registers a handler for an exact path.
func (p *Provider) Handle(path string, h http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[path] = h
}

// HandleJSON registers a fixed JSON response for an exact path.
func (p *Provider) HandleJSON(path string, status int, body any) {
	p.t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		p.t.Fatalf("failed to marshal fixture for %s: %v", path, err)
	}

	p.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(data)
	})
}

// Requests returns a copy of every request received so far.
func (p *Provider) Requests() []RecordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]RecordedRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Count returns how many requests hit path.
func (p *Provider) Count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, r := range p.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (p *Provider) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.requests = append(p.requests, RecordedRequest{
		Path:          r.URL.Path,
		Query:         r.URL.Query(),
		Authorization: r.Header.Get("Authorization"),
		Accept:        r.Header.Get("Accept"),
	})
	h, ok := p.routes[r.URL.Path]
	p.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+p.token {
		writeStatus(w, http.StatusUnauthorized, 7, "Invalid API key: You must be granted a valid key.")
		return
	}
	if !ok {
		writeStatus(w, http.StatusNotFound, 34, "The resource you requested could not be found.")
		return
	}
	h(w, r)
}

func writeStatus(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":        false,
		"status_code":    code,
		"status_message": message,
	})
}
