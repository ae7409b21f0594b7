package cmd

import (
	"context"
	"fmt"
)

// PosterCmd represents the poster command
type PosterCmd struct {
	MediaType string `arg:"" help:"movie or tv" enum:"movie,tv"`
	ID        int    `arg:"" help:"TMDB ID"`
	Out       string `short:"o" type:"path" help:"Output file (defaults to <type>-<id>.jpg)"`
	MaxWidth  int    `help:"Resize posters wider than this many pixels" default:"1000"`
}

func (p *PosterCmd) Run(ctx context.Context, app *App) error {
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}

	url, err := catalog.PosterURL(ctx, p.MediaType, p.ID)
	if err != nil {
		return err
	}

	out := p.Out
	if out == "" {
		out = fmt.Sprintf("%s-%d.jpg", p.MediaType, p.ID)
	}

	if err := catalog.DownloadPoster(ctx, url, out, p.MaxWidth); err != nil {
		return err
	}

	app.logger.Info("Saved poster", "path", out)
	_, err = fmt.Fprintln(app.out, out)
	return err
}
