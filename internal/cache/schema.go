package cache

// TMDBTable holds raw TMDB response bodies keyed by request.
const TMDBTable = "tmdb_cache"

// TMDBCacheSchema defines the schema for the TMDB response cache.
// cached_at is Unix nanoseconds.
const TMDBCacheSchema = `
CREATE TABLE IF NOT EXISTS tmdb_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tmdb_cached_at ON tmdb_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for initialization
var AllCacheSchemas = []string{
	TMDBCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names.
// Table names are interpolated into SQL, so only these are accepted.
var ValidCacheTableNames = map[string]bool{
	TMDBTable: true,
}
