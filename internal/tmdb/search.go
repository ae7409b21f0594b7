package tmdb

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/marquee/internal/scheduler"
)

// DefaultMaxPages bounds how many result pages one search fetches.
const DefaultMaxPages = 5

func (c *Catalog) searchParams(query string, pageNum int) scheduler.Params {
	return scheduler.NewParams(
		"query", query,
		"include_adult", "false",
		"language", c.language,
		"page", strconv.Itoa(pageNum),
	)
}

func (c *Catalog) fetchSearchPage(ctx context.Context, query string, pageNum int) (*page, error) {
	var response page
	if err := c.getJSON(ctx, "/search/multi", c.searchParams(query, pageNum), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// SearchPage fetches a single page of a multi search.
func (c *Catalog) SearchPage(ctx context.Context, query string, pageNum int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if pageNum < 1 {
		pageNum = 1
	}

	response, err := c.fetchSearchPage(ctx, query, pageNum)
	if err != nil {
		return nil, err
	}

	return c.formatSearch(ctx, response.Results, response.TotalPages), nil
}

// Search runs a multi search across up to maxPages pages. Page one is fetched
// first to learn the page count; the rest are requested concurrently and
// queue behind each other in the scheduler. Any page failing fails the search.
func (c *Catalog) Search(ctx context.Context, query string, maxPages int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	first, err := c.fetchSearchPage(ctx, query, 1)
	if err != nil {
		return nil, err
	}

	totalPages := min(first.TotalPages, maxPages)
	pages := make([][]media, max(totalPages, 1))
	pages[0] = first.Results

	if totalPages > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for pageNum := 2; pageNum <= totalPages; pageNum++ {
			g.Go(func() error {
				response, err := c.fetchSearchPage(gctx, query, pageNum)
				if err != nil {
					return err
				}
				pages[pageNum-1] = response.Results
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var combined []media
	for _, results := range pages {
		combined = append(combined, results...)
	}

	c.logger.Debug("Search complete", "query", query, "pages", totalPages, "results", len(combined))

	return c.formatSearch(ctx, combined, totalPages), nil
}

// formatSearch drops people and other non-title hits and renders the rest.
func (c *Catalog) formatSearch(ctx context.Context, items []media, totalPages int) *SearchResponse {
	titles := make([]media, 0, len(items))
	for _, m := range items {
		if validMediaType(m.MediaType) {
			titles = append(titles, m)
		}
	}

	genres := c.genreLookup(ctx, titles)

	results := make([]SearchResult, 0, len(titles))
	for _, m := range titles {
		results = append(results, c.formatSearchResult(m, "", genres))
	}

	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		TotalPages:   totalPages,
	}
}
