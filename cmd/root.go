package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/marquee/internal/config"
	apperrors "github.com/lepinkainen/marquee/internal/errors"
)

var exit = os.Exit

// CLI represents the complete command structure for the marquee application
type CLI struct {
	// Global flags
	Debug  bool   `help:"Enable debug logging"`
	Config string `type:"path" help:"Path to config file (defaults to ./config.yaml when present)"`
	Format string `short:"f" help:"Output format: table, json or yaml" default:"table" enum:"table,json,yaml"`

	Search  SearchCmd  `cmd:"" help:"Search movies and TV shows"`
	Movie   MovieCmd   `cmd:"" help:"Show movie details"`
	TV      TVCmd      `cmd:"" name:"tv" help:"Show TV show details or one season"`
	Related RelatedCmd `cmd:"" help:"List recommendations for a title"`
	Home    HomeCmd    `cmd:"" help:"Show trending, popular and top rated lists"`
	Poster  PosterCmd  `cmd:"" help:"Download a poster image"`
	Serve   ServeCmd   `cmd:"" help:"Run the JSON API server"`
	Cache   CacheCmd   `cmd:"" help:"Manage the response cache"`
	Cfg     ConfigCmd  `cmd:"" name:"config" help:"Manage the config file"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("marquee"),
		kong.Description("Browse TMDB through a rate-limited request scheduler."),
		kong.UsageOnError(),
	}, options...)...)
}

// Execute runs the Kong-based CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		if apperrors.IsStopProcessingError(err) {
			slog.Info("Stopped", "reason", err)
			return
		}
		slog.Error("Command failed", "kind", failureKind(err), "error", err)
		exit(1)
	}
}

// failureKind names the class of a command failure for the error log.
func failureKind(err error) string {
	switch {
	case apperrors.IsConfigError(err):
		return "config"
	case apperrors.IsRateLimitError(err):
		return "rate_limit"
	case apperrors.IsProviderError(err):
		return "provider"
	case apperrors.IsTransportError(err):
		return "transport"
	default:
		return "internal"
	}
}

// run parses args, loads configuration and executes the selected command.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	var cli CLI
	parser, err := newParser(&cli, kong.Writers(stdout, os.Stderr))
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	initLogging(cli.Debug)

	v, err := initConfig(cli.Config)
	if err != nil {
		return err
	}

	app, err := newApp(v, stdout, cli.Format)
	if err != nil {
		return err
	}
	defer app.Close()

	kctx.BindTo(ctx, (*context.Context)(nil))
	return kctx.Run(app)
}

func initConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)
	if err := config.BindEnv(v); err != nil {
		return nil, err
	}
	if err := config.ReadFile(v, path); err != nil {
		return nil, err
	}
	return v, nil
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// stderr keeps stdout clean for --format json|yaml
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
