// Package config loads marquee settings from defaults, an optional YAML file
// and the environment, using viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/scheduler"
)

// Keys understood in config.yaml. Environment variables use the MARQUEE_ prefix
// with dots replaced by underscores, e.g. MARQUEE_SCHEDULER_MAXREQUESTS.
const (
	KeyTMDBToken         = "tmdb.token"
	KeyTMDBBaseURL       = "tmdb.baseurl"
	KeyTMDBImageBaseURL  = "tmdb.imagebaseurl"
	KeyTMDBLanguage      = "tmdb.language"
	KeyTMDBRetryAttempts = "tmdb.retryattempts"

	KeySchedulerMaxRequests  = "scheduler.maxrequests"
	KeySchedulerWindow       = "scheduler.window"
	KeySchedulerInterval     = "scheduler.interval"
	KeySchedulerSafetyMargin = "scheduler.safetymargin"
	KeySchedulerMaxQueue     = "scheduler.maxqueue"

	KeyCacheEnabled = "cache.enabled"
	KeyCacheDBFile  = "cache.dbfile"
	KeyCacheTTL     = "cache.ttl"

	KeyServerAddr = "server.addr"

	KeySearchMaxPages = "search.maxpages"
)

// TokenEnv is the environment variable holding the TMDB read access token.
const TokenEnv = "TMDB_API_READ_ACCESS_TOKEN"

// Config is the resolved application configuration.
type Config struct {
	TMDB      TMDB
	Scheduler scheduler.Config
	Cache     Cache
	Server    Server
	Search    Search
}

// TMDB holds provider settings.
type TMDB struct {
	Token         string
	BaseURL       string
	ImageBaseURL  string
	Language      string
	RetryAttempts int
}

// Cache holds response cache settings.
type Cache struct {
	Enabled bool
	DBFile  string
	TTL     time.Duration
}

// Server holds HTTP server settings.
type Server struct {
	Addr string
}

// Search holds search settings.
type Search struct {
	MaxPages int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTMDBBaseURL, "https://api.themoviedb.org/3")
	v.SetDefault(KeyTMDBImageBaseURL, "https://image.tmdb.org/t/p")
	v.SetDefault(KeyTMDBLanguage, "en-US")
	v.SetDefault(KeyTMDBRetryAttempts, 2)

	v.SetDefault(KeySchedulerMaxRequests, scheduler.DefaultMaxRequests)
	v.SetDefault(KeySchedulerWindow, scheduler.DefaultWindow.String())
	v.SetDefault(KeySchedulerInterval, scheduler.DefaultInterval.String())
	v.SetDefault(KeySchedulerSafetyMargin, scheduler.DefaultSafetyMargin.String())
	v.SetDefault(KeySchedulerMaxQueue, 0)

	v.SetDefault(KeyCacheEnabled, true)
	v.SetDefault(KeyCacheDBFile, ":memory:")
	v.SetDefault(KeyCacheTTL, "1h")

	v.SetDefault(KeyServerAddr, ":8080")

	v.SetDefault(KeySearchMaxPages, 5)
}

// BindEnv enables MARQUEE_* environment overrides and maps the TMDB token to
// its conventional variable.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("marquee")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyTMDBToken, "MARQUEE_TMDB_TOKEN", TokenEnv); err != nil {
		return fmt.Errorf("failed to bind environment variable: %w", err)
	}
	return nil
}

// ReadFile loads a YAML config file. With an empty path it looks for
// config.yaml in the working directory; a missing file is not an error then.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			slog.Debug("No config file found, using defaults and environment")
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	slog.Debug("Loaded config file", "path", v.ConfigFileUsed())
	return nil
}

// WriteDefault writes the current settings to path, refusing to overwrite.
func WriteDefault(v *viper.Viper, path string) error {
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load resolves v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var errs []error
	duration := func(key string) time.Duration {
		raw := strings.TrimSpace(v.GetString(key))
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, apperrors.NewConfigError(key, fmt.Sprintf("invalid duration %q", raw)))
		}
		return d
	}

	cfg := &Config{
		TMDB: TMDB{
			Token:         strings.TrimSpace(v.GetString(KeyTMDBToken)),
			BaseURL:       v.GetString(KeyTMDBBaseURL),
			ImageBaseURL:  v.GetString(KeyTMDBImageBaseURL),
			Language:      v.GetString(KeyTMDBLanguage),
			RetryAttempts: v.GetInt(KeyTMDBRetryAttempts),
		},
		Scheduler: scheduler.Config{
			MaxRequests:  v.GetInt(KeySchedulerMaxRequests),
			Window:       duration(KeySchedulerWindow),
			Interval:     duration(KeySchedulerInterval),
			SafetyMargin: duration(KeySchedulerSafetyMargin),
			MaxQueue:     v.GetInt(KeySchedulerMaxQueue),
		},
		Cache: Cache{
			Enabled: v.GetBool(KeyCacheEnabled),
			DBFile:  v.GetString(KeyCacheDBFile),
			TTL:     duration(KeyCacheTTL),
		},
		Server: Server{
			Addr: v.GetString(KeyServerAddr),
		},
		Search: Search{
			MaxPages: v.GetInt(KeySearchMaxPages),
		},
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. The token is checked later, by the
// commands that talk to TMDB.
func (c *Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := validateURL(KeyTMDBBaseURL, c.TMDB.BaseURL); err != nil {
		return err
	}
	if err := validateURL(KeyTMDBImageBaseURL, c.TMDB.ImageBaseURL); err != nil {
		return err
	}
	if c.TMDB.RetryAttempts < 1 {
		return apperrors.NewConfigError(KeyTMDBRetryAttempts, fmt.Sprintf("must be at least 1, got %d", c.TMDB.RetryAttempts))
	}
	if c.Cache.TTL <= 0 {
		return apperrors.NewConfigError(KeyCacheTTL, fmt.Sprintf("must be positive, got %s", c.Cache.TTL))
	}
	if c.Search.MaxPages < 1 {
		return apperrors.NewConfigError(KeySearchMaxPages, fmt.Sprintf("must be at least 1, got %d", c.Search.MaxPages))
	}
	if c.Server.Addr == "" {
		return apperrors.NewConfigError(KeyServerAddr, "must not be empty")
	}
	return nil
}

// validateURL requires an absolute http(s) URL with a host.
func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return apperrors.NewConfigError(key, fmt.Sprintf("invalid URL %q: %v", raw, err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.NewConfigError(key, fmt.Sprintf("must be an absolute http or https URL, got %q", raw))
	}
	return nil
}
