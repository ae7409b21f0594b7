package tmdb

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/marquee/internal/scheduler"
)

const relatedLimit = 15

func (c *Catalog) languageParams() scheduler.Params {
	return scheduler.NewParams("language", c.language)
}

func (c *Catalog) detailParams() scheduler.Params {
	return scheduler.NewParams("append_to_response", "videos,credits", "language", c.language)
}

// MovieDetails fetches a movie with its videos and credits in one request.
func (c *Catalog) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var raw movieResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", id), c.detailParams(), &raw); err != nil {
		return nil, err
	}

	videos := trailers(raw.Videos.Results)
	details := &MovieDetails{
		TMDBID:      raw.ID,
		Title:       raw.Title,
		Year:        yearOf(raw.ReleaseDate),
		Quality:     "HD",
		Rating:      halfRating(raw.VoteAverage),
		Votes:       formatVotes(raw.VoteCount),
		ImageSrc:    c.ImageURL(raw.PosterPath, "large", "poster"),
		Plot:        raw.Overview,
		Tagline:     raw.Tagline,
		Genres:      genreNames(raw.Genres),
		IMDBID:      raw.IMDBID,
		IMDBURL:     IMDBURL(raw.IMDBID),
		Runtime:     formatRuntime(raw.Runtime),
		ReleaseDate: raw.ReleaseDate,
		Trailer:     firstTrailer(videos),
		Videos:      videos,
		Directors:   crewNames(raw.Credits, "Director"),
		Cast:        c.castMembers(raw.Credits),
		EmbedURL:    MovieEmbedURL(raw.IMDBID),
	}
	if raw.BackdropPath != "" {
		details.Backdrop = c.ImageURL(raw.BackdropPath, "original", "backdrop")
	}

	return details, nil
}

// TVDetails fetches a TV show with its videos and credits in one request.
func (c *Catalog) TVDetails(ctx context.Context, id int) (*TVDetails, error) {
	var raw tvResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/tv/%d", id), c.detailParams(), &raw); err != nil {
		return nil, err
	}

	creators := make([]string, 0, len(raw.CreatedBy))
	for _, creator := range raw.CreatedBy {
		creators = append(creators, creator.Name)
	}
	for _, name := range crewNames(raw.Credits, "Creator", "Executive Producer") {
		if !slices.Contains(creators, name) {
			creators = append(creators, name)
		}
	}

	runtime := ""
	if len(raw.EpisodeRunTime) > 0 {
		runtime = formatRuntime(raw.EpisodeRunTime[0])
	}

	seasons := make([]SeasonSummary, 0, len(raw.Seasons))
	for _, s := range raw.Seasons {
		seasons = append(seasons, SeasonSummary{
			SeasonNumber: s.SeasonNumber,
			Name:         s.Name,
			EpisodeCount: s.EpisodeCount,
			AirDate:      s.AirDate,
			PosterSrc:    c.ImageURL(s.PosterPath, "medium", "poster"),
		})
	}

	videos := trailers(raw.Videos.Results)
	details := &TVDetails{
		TMDBID:           raw.ID,
		Title:            raw.Name,
		Year:             yearOf(raw.FirstAirDate),
		Quality:          "HD",
		Rating:           halfRating(raw.VoteAverage),
		Votes:            formatVotes(raw.VoteCount),
		ImageSrc:         c.ImageURL(raw.PosterPath, "large", "poster"),
		Plot:             raw.Overview,
		Genres:           genreNames(raw.Genres),
		Runtime:          runtime,
		ReleaseDate:      raw.FirstAirDate,
		LastAirDate:      raw.LastAirDate,
		Status:           raw.Status,
		NumberOfSeasons:  raw.NumberOfSeasons,
		NumberOfEpisodes: raw.NumberOfEpisodes,
		Seasons:          seasons,
		Trailer:          firstTrailer(videos),
		Videos:           videos,
		Creators:         creators,
		Cast:             c.castMembers(raw.Credits),
		EmbedURL:         TVEmbedURL(raw.ID, 1, 1),
	}
	if raw.BackdropPath != "" {
		details.Backdrop = c.ImageURL(raw.BackdropPath, "original", "backdrop")
	}

	return details, nil
}

// Season fetches one season of a TV show with per-episode player URLs.
func (c *Catalog) Season(ctx context.Context, tvID, seasonNumber int) (*Season, error) {
	var raw seasonResponse
	endpoint := fmt.Sprintf("/tv/%d/season/%d", tvID, seasonNumber)
	if err := c.getJSON(ctx, endpoint, c.languageParams(), &raw); err != nil {
		return nil, err
	}

	episodes := make([]Episode, 0, len(raw.Episodes))
	for _, e := range raw.Episodes {
		episodes = append(episodes, Episode{
			EpisodeNumber: e.EpisodeNumber,
			Name:          e.Name,
			Overview:      e.Overview,
			AirDate:       e.AirDate,
			Runtime:       formatRuntime(e.Runtime),
			StillSrc:      c.ImageURL(e.StillPath, "medium", "backdrop"),
			Rating:        fmt.Sprintf("%.1f", e.VoteAverage),
			EmbedURL:      TVEmbedURL(tvID, raw.SeasonNumber, e.EpisodeNumber),
		})
	}

	return &Season{
		TVID:         tvID,
		SeasonNumber: raw.SeasonNumber,
		Name:         raw.Name,
		Overview:     raw.Overview,
		AirDate:      raw.AirDate,
		PosterSrc:    c.ImageURL(raw.PosterPath, "medium", "poster"),
		Episodes:     episodes,
	}, nil
}

// Related returns recommendations for a title, falling back to similar titles
// when TMDB has no recommendations.
func (c *Catalog) Related(ctx context.Context, mediaType string, id int) ([]SearchResult, error) {
	if !validMediaType(mediaType) {
		return nil, ErrInvalidMediaType
	}

	params := c.languageParams().With("page", "1")

	var response page
	endpoint := fmt.Sprintf("/%s/%d/recommendations", mediaType, id)
	if err := c.getJSON(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	if len(response.Results) == 0 {
		c.logger.Debug("No recommendations, trying similar", "media_type", mediaType, "id", id)
		endpoint = fmt.Sprintf("/%s/%d/similar", mediaType, id)
		if err := c.getJSON(ctx, endpoint, params, &response); err != nil {
			return nil, err
		}
	}

	return c.listing(response.Results, mediaType, relatedLimit), nil
}

// Home fetches the landing page rows concurrently.
func (c *Catalog) Home(ctx context.Context) (*Home, error) {
	var trending, popular, topRated page
	base := c.languageParams()
	params := base.With("page", "1")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, "/trending/movie/day", base, &trending)
	})
	g.Go(func() error {
		return c.getJSON(gctx, "/movie/popular", params, &popular)
	})
	g.Go(func() error {
		return c.getJSON(gctx, "/tv/top_rated", params, &topRated)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Home{
		Trending:   c.listing(trending.Results, "movie", 0),
		Popular:    c.listing(popular.Results, "movie", 0),
		TopRatedTV: c.listing(topRated.Results, "tv", 0),
	}, nil
}

// listing renders up to limit items; limit 0 keeps them all.
func (c *Catalog) listing(items []media, mediaType string, limit int) []SearchResult {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]SearchResult, 0, len(items))
	for _, m := range items {
		out = append(out, c.formatListing(m, mediaType))
	}
	return out
}
