package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/lepinkainen/marquee/internal/cache"
	"github.com/lepinkainen/marquee/internal/config"
)

// CacheCmd represents the cache command and its subcommands
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove every cached response"`
	Prune CachePruneCmd `cmd:"" help:"Remove cached responses older than cache.ttl"`
	Info  CacheInfoCmd  `cmd:"" help:"Show where the cache lives and how many responses it holds"`
}

// CacheClearCmd represents the cache clear command
type CacheClearCmd struct{}

// CachePruneCmd represents the cache prune command
type CachePruneCmd struct{}

// CacheInfoCmd represents the cache info command
type CacheInfoCmd struct{}

// ConfigCmd represents the config command and its subcommands
type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write a config file with the default settings"`
}

// ConfigInitCmd represents the config init command
type ConfigInitCmd struct {
	Path string `arg:"" optional:"" type:"path" help:"Where to write the file" default:"config.yaml"`
}

func openCache(app *App) (*cache.CacheDB, *config.Config, error) {
	cfg, err := app.Config()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Cache.DBFile == "" || cfg.Cache.DBFile == cache.MemoryDSN {
		app.logger.Info("Cache is in-memory, nothing persists between runs")
	}
	db, err := cache.Open(cfg.Cache.DBFile)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

func (c *CacheClearCmd) Run(app *App) error {
	db, _, err := openCache(app)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	n, err := db.InvalidateSource(cache.TMDBTable)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.out, "Removed %d cached responses\n", n)
	return err
}

func (c *CachePruneCmd) Run(app *App) error {
	db, cfg, err := openCache(app)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	n, err := db.ClearExpired(cache.TMDBTable, cfg.Cache.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.out, "Removed %d expired responses\n", n)
	return err
}

func (c *CacheInfoCmd) Run(app *App) error {
	db, _, err := openCache(app)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	n, err := db.Count(cache.TMDBTable)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.out, "%s: %d cached responses\n", db.Path(), n)
	return err
}

// Run writes defaults only, so environment values such as the token never land in the file.
func (c *ConfigInitCmd) Run(app *App) error {
	defaults := viper.New()
	config.SetDefaults(defaults)
	if err := config.WriteDefault(defaults, c.Path); err != nil {
		return err
	}
	app.logger.Info("Wrote config file", "path", c.Path)
	return nil
}
