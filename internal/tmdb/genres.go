package tmdb

import (
	"context"
	"fmt"
)

// genreLookup loads the genre tables for the media types present in items.
// A failed lookup only costs the genre names, so it is logged and skipped.
func (c *Catalog) genreLookup(ctx context.Context, items []media) map[int]string {
	needed := make(map[string]bool)
	for _, m := range items {
		if len(m.GenreIDs) > 0 && validMediaType(m.MediaType) {
			needed[m.MediaType] = true
		}
	}

	lookup := make(map[int]string)
	for _, mediaType := range []string{"movie", "tv"} {
		if !needed[mediaType] {
			continue
		}
		genres, err := c.getGenres(ctx, mediaType)
		if err != nil {
			c.logger.Debug("Genre lookup failed", "media_type", mediaType, "error", err)
			continue
		}
		for id, name := range genres {
			if _, ok := lookup[id]; !ok {
				lookup[id] = name
			}
		}
	}
	return lookup
}

func (c *Catalog) getGenres(ctx context.Context, mediaType string) (map[int]string, error) {
	c.mu.RLock()
	if genres, ok := c.genreCache[mediaType]; ok {
		c.mu.RUnlock()
		return genres, nil
	}
	c.mu.RUnlock()

	var response struct {
		Genres []genre `json:"genres"`
	}

	endpoint := fmt.Sprintf("/genre/%s/list", mediaType)
	if err := c.getJSON(ctx, endpoint, c.languageParams(), &response); err != nil {
		return nil, err
	}

	result := make(map[int]string, len(response.Genres))
	for _, g := range response.Genres {
		result[g.ID] = g.Name
	}

	c.mu.Lock()
	c.genreCache[mediaType] = result
	c.mu.Unlock()

	return result, nil
}
