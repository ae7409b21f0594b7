package cmd

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/tmdb"
	"github.com/lepinkainen/marquee/internal/tui"
)

var selectResult = tui.Select

// SearchCmd represents the search command
type SearchCmd struct {
	Query       []string `arg:"" help:"Title to search for"`
	Pages       int      `help:"Maximum result pages to fetch (defaults to search.maxpages)"`
	Interactive bool     `short:"i" help:"Pick a result interactively and show its details"`
	MinVotes    int      `help:"Hide results with fewer votes in interactive mode" default:"100"`
}

// MovieCmd represents the movie command
type MovieCmd struct {
	ID int `arg:"" help:"TMDB movie ID"`
}

// TVCmd represents the tv command
type TVCmd struct {
	ID     int `arg:"" help:"TMDB TV show ID"`
	Season int `help:"Show this season's episodes instead of the show" default:"-1"`
}

// RelatedCmd represents the related command
type RelatedCmd struct {
	MediaType string `arg:"" help:"movie or tv" enum:"movie,tv"`
	ID        int    `arg:"" help:"TMDB ID"`
}

// HomeCmd represents the home command
type HomeCmd struct{}

func (s *SearchCmd) Run(ctx context.Context, app *App) error {
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}
	cfg, err := app.Config()
	if err != nil {
		return err
	}

	pages := cfg.Search.MaxPages
	if s.Pages > 0 {
		pages = s.Pages
	}

	query := strings.Join(s.Query, " ")
	resp, err := catalog.Search(ctx, query, pages)
	if err != nil {
		return err
	}

	if !s.Interactive {
		return app.Render(resp)
	}

	selection, err := selectResult(query, resp.Results, s.MinVotes)
	if err != nil {
		return fmt.Errorf("interactive selection failed: %w", err)
	}

	switch selection.Action {
	case tui.ActionSelected:
		return showDetails(ctx, app, catalog, *selection.Selection)
	case tui.ActionStopped:
		return apperrors.NewStopProcessingError("search canceled")
	default:
		app.logger.Info("No title selected", "query", query)
		return nil
	}
}

func showDetails(ctx context.Context, app *App, catalog *tmdb.Catalog, result tmdb.SearchResult) error {
	if result.MediaType == "tv" {
		details, err := catalog.TVDetails(ctx, result.ID)
		if err != nil {
			return err
		}
		return app.Render(details)
	}

	details, err := catalog.MovieDetails(ctx, result.ID)
	if err != nil {
		return err
	}
	return app.Render(details)
}

func (m *MovieCmd) Run(ctx context.Context, app *App) error {
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}
	details, err := catalog.MovieDetails(ctx, m.ID)
	if err != nil {
		return err
	}
	return app.Render(details)
}

func (t *TVCmd) Run(ctx context.Context, app *App) error {
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}

	if t.Season >= 0 {
		season, err := catalog.Season(ctx, t.ID, t.Season)
		if err != nil {
			return err
		}
		return app.Render(season)
	}

	details, err := catalog.TVDetails(ctx, t.ID)
	if err != nil {
		return err
	}
	return app.Render(details)
}

func (r *RelatedCmd) Run(ctx context.Context, app *App) error {
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}
	related, err := catalog.Related(ctx, r.MediaType, r.ID)
	if err != nil {
		return err
	}
	return app.Render(related)
}

func (h *HomeCmd) Run(ctx context.Context, app *App) error {
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}
	home, err := catalog.Home(ctx)
	if err != nil {
		return err
	}
	return app.Render(home)
}
