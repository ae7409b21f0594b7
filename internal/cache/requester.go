package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lepinkainen/marquee/internal/scheduler"
)

// Requester runs a provider request; the scheduler is the usual implementation.
type Requester interface {
	Do(ctx context.Context, endpoint string, params scheduler.Params) (json.RawMessage, error)
}

// CachedRequester answers repeated requests from the cache. Misses go to the
// wrapped requester and take a place in its queue as usual.
type CachedRequester struct {
	next  Requester
	cache *CacheDB
	ttl   time.Duration
}

// NewCachedRequester wraps next with a response cache. A non-positive ttl uses DefaultTTL.
func NewCachedRequester(next Requester, cache *CacheDB, ttl time.Duration) *CachedRequester {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedRequester{next: next, cache: cache, ttl: ttl}
}

// Do returns a fresh cached body for the request or fetches and caches it.
func (r *CachedRequester) Do(ctx context.Context, endpoint string, params scheduler.Params) (json.RawMessage, error) {
	payload, _, err := GetOrFetch(r.cache, TMDBTable, Key(endpoint, params), r.ttl, func() (json.RawMessage, error) {
		return r.next.Do(ctx, endpoint, params)
	})
	return payload, err
}

// Invalidate drops every cached response.
func (r *CachedRequester) Invalidate() (int64, error) {
	return r.cache.InvalidateSource(TMDBTable)
}

// Key is the cache key for a request: the endpoint plus its encoded parameters.
func Key(endpoint string, params scheduler.Params) string {
	if query := params.Encode(); query != "" {
		return endpoint + "?" + query
	}
	return endpoint
}
