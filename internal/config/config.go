package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Notion      NotionConfig      `yaml:"notion" mapstructure:"notion"`
	Google      GoogleConfig      `yaml:"google" mapstructure:"google"`
	OpenBrewery OpenBreweryConfig `yaml:"openbrewery" mapstructure:"openbrewery"`
	Home        HomeConfig        `yaml:"home" mapstructure:"home"`
	Sync        SyncConfig        `yaml:"sync" mapstructure:"sync"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig     `yaml:"circuit" mapstructure:"circuit"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// NotionConfig configures the destination database.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	BreweryDB string  `yaml:"brewery_db" mapstructure:"brewery_db"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GoogleConfig configures the Distance Matrix client.
type GoogleConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// OpenBreweryConfig configures the directory source.
type OpenBreweryConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	State   string `yaml:"state" mapstructure:"state"`
	PerPage int    `yaml:"per_page" mapstructure:"per_page"`
}

// HomeConfig holds the origin for drive time and distance.
type HomeConfig struct {
	Address string `yaml:"address" mapstructure:"address"`
}

// SyncConfig tunes the workflows.
type SyncConfig struct {
	Concurrency        int `yaml:"concurrency" mapstructure:"concurrency"`
	ProgressEvery      int `yaml:"progress_every" mapstructure:"progress_every"`
	RouteCacheTTLHours int `yaml:"route_cache_ttl_hours" mapstructure:"route_cache_ttl_hours"`
}

// RetryConfig controls backoff for transient API failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig controls the Distance Matrix circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// StoreConfig configures the run ledger and route cache.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the variable names used by earlier
// deployments.
var legacyEnv = map[string]string{
	"notion.token":      "NOTION_SECRET",
	"notion.brewery_db": "NOTION_MA_BREWERY_DB_ID",
	"google.key":        "GOOGLE_CLOUD_API_KEY",
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Overload(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BREWERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "BREWERY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	// Defaults
	v.SetDefault("notion.rate_limit", 3)
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("openbrewery.base_url", "https://api.openbrewerydb.org")
	v.SetDefault("openbrewery.state", "massachusetts")
	v.SetDefault("openbrewery.per_page", 100)
	v.SetDefault("home.address", "4 Moloney St, West Roxbury MA 02132")
	v.SetDefault("sync.concurrency", 1)
	v.SetDefault("sync.progress_every", 25)
	v.SetDefault("sync.route_cache_ttl_hours", 720)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "brewery-sync.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is one of "import",
// "enrich" or "runs".
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, msg)
		}
	}

	switch mode {
	case "import":
		require(c.Notion.Token != "", "notion.token is required (BREWERY_NOTION_TOKEN or NOTION_SECRET)")
		require(c.Notion.BreweryDB != "", "notion.brewery_db is required (BREWERY_NOTION_BREWERY_DB or NOTION_MA_BREWERY_DB_ID)")
		require(c.OpenBrewery.PerPage > 0 && c.OpenBrewery.PerPage <= 200, "openbrewery.per_page must be between 1 and 200")
	case "enrich":
		require(c.Notion.Token != "", "notion.token is required (BREWERY_NOTION_TOKEN or NOTION_SECRET)")
		require(c.Notion.BreweryDB != "", "notion.brewery_db is required (BREWERY_NOTION_BREWERY_DB or NOTION_MA_BREWERY_DB_ID)")
		require(c.Google.Key != "", "google.key is required (BREWERY_GOOGLE_KEY or GOOGLE_CLOUD_API_KEY)")
		require(strings.TrimSpace(c.Home.Address) != "", "home.address is required")
	case "runs":
		require(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres", "store.driver must be sqlite or postgres to inspect runs")
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		errs = append(errs, "store.driver must be sqlite, postgres or none")
	}
	require(c.Sync.Concurrency >= 1, "sync.concurrency must be at least 1")

	if len(errs) > 0 {
		return eris.Wrap(errors.New(strings.Join(errs, "; ")), "config: invalid")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
