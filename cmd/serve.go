package cmd

import (
	"context"

	"github.com/lepinkainen/marquee/internal/metrics"
	"github.com/lepinkainen/marquee/internal/server"
)

// ServeCmd represents the serve command
type ServeCmd struct {
	Addr string `help:"Listen address (defaults to server.addr)"`
}

func (s *ServeCmd) Run(ctx context.Context, app *App) error {
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}
	cfg, err := app.Config()
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if s.Addr != "" {
		addr = s.Addr
	}

	sched := app.Scheduler()
	srv := server.New(addr, catalog, sched,
		server.WithLogger(app.logger),
		server.WithMetrics(metrics.New(sched)),
		server.WithMaxPages(cfg.Search.MaxPages),
	)
	return srv.Run(ctx)
}
