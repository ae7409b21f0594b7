package cmd

import (
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/lepinkainen/marquee/internal/cache"
	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/output"
	"github.com/lepinkainen/marquee/internal/scheduler"
	"github.com/lepinkainen/marquee/internal/tmdb"
)

// App carries the resolved configuration and lazily builds the request
// pipeline: client, scheduler, response cache and catalog.
type App struct {
	viper  *viper.Viper
	out    io.Writer
	format output.Format
	logger *slog.Logger

	cfg       *config.Config
	scheduler *scheduler.Scheduler
	cache     *cache.CacheDB
	catalog   *tmdb.Catalog
}

func newApp(v *viper.Viper, out io.Writer, format string) (*App, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return &App{
		viper:  v,
		out:    out,
		format: f,
		logger: slog.Default(),
	}, nil
}

// Config loads and validates the configuration once.
func (a *App) Config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.viper)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// Catalog builds the TMDB pipeline on first use. A missing token fails here,
// before anything is enqueued.
func (a *App) Catalog() (*tmdb.Catalog, error) {
	if a.catalog != nil {
		return a.catalog, nil
	}

	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}

	client, err := tmdb.NewClient(cfg.TMDB.Token, tmdb.WithBaseURL(cfg.TMDB.BaseURL))
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.New(client, cfg.Scheduler, scheduler.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.scheduler = sched

	var requester tmdb.Requester = sched
	if cfg.Cache.Enabled {
		db, err := cache.Open(cfg.Cache.DBFile)
		if err != nil {
			a.logger.Warn("Response cache unavailable, continuing without it", "error", err)
		} else {
			a.cache = db
			requester = cache.NewCachedRequester(sched, db, cfg.Cache.TTL)
		}
	}

	a.catalog = tmdb.NewCatalog(requester,
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithRetryAttempts(cfg.TMDB.RetryAttempts),
		tmdb.WithCatalogLogger(a.logger),
	)

	a.logger.Debug("Request pipeline ready",
		"max_requests", cfg.Scheduler.MaxRequests,
		"window", cfg.Scheduler.Window,
		"cache", a.cache != nil)

	return a.catalog, nil
}

// Scheduler returns the scheduler built by Catalog, or nil before that.
func (a *App) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}

// Render writes value to the command output in the selected format.
func (a *App) Render(value any) error {
	return output.Render(a.out, a.format, value)
}

// Close releases the scheduler and cache.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close cache", "error", err)
		}
	}
}
