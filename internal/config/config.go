package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Tables    TablesConfig    `yaml:"tables" mapstructure:"tables"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Selection SelectionConfig `yaml:"selection" mapstructure:"selection"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Records   RecordsConfig   `yaml:"records" mapstructure:"records"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// CatalogConfig locates the pattern catalog.
type CatalogConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Manifest is an optional YAML product list. Empty uses the built-in products.
	Manifest string `yaml:"manifest" mapstructure:"manifest"`
}

// TablesConfig locates the regulatory flow, drainfield and tank tables.
type TablesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// SearchConfig tunes the rotation search.
type SearchConfig struct {
	RotationStep float64 `yaml:"rotation_step" mapstructure:"rotation_step"`
	Perturbation float64 `yaml:"perturbation" mapstructure:"perturbation"`
	Tolerance    float64 `yaml:"tolerance" mapstructure:"tolerance"`
}

// SelectionConfig controls product order and boundary extraction.
type SelectionConfig struct {
	Products      []string `yaml:"products" mapstructure:"products"`
	BoundaryLayer string   `yaml:"boundary_layer" mapstructure:"boundary_layer"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig bounds retries of transient Postgres failures.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// RecordsConfig points at the permit database holding septic records.
type RecordsConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// RateLimit is requests per second per client; Burst defaults to twice that.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
	// CORSOrigins lists allowed origins. Empty allows any.
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// BatchConfig bounds batch concurrency.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DRAINFIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("catalog.dir", "json")
	v.SetDefault("catalog.manifest", "")
	v.SetDefault("tables.dir", "data")
	v.SetDefault("search.rotation_step", 5.0)
	v.SetDefault("search.perturbation", 5.0)
	v.SetDefault("search.tolerance", 0.001)
	v.SetDefault("selection.products", []string{"mps9", "arc24", "eq36lp"})
	v.SetDefault("selection.boundary_layer", "polyline_boundary")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "drainfield.db")
	v.SetDefault("store.retry.max_attempts", 3)
	v.SetDefault("store.retry.initial_backoff", "200ms")
	v.SetDefault("store.retry.max_backoff", "5s")
	v.SetDefault("records.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.burst", 0)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command depends on. Unknown commands only
// get the shared checks.
func (c *Config) Validate(command string) error {
	var errs []string
	if c.Search.RotationStep <= 0 || c.Search.RotationStep > 90 {
		errs = append(errs, "search.rotation_step must be in (0, 90]")
	}
	if c.Search.Perturbation < 0 {
		errs = append(errs, "search.perturbation must not be negative")
	}
	if c.Search.Tolerance <= 0 {
		errs = append(errs, "search.tolerance must be positive")
	}

	switch command {
	case "batch":
		if c.Batch.Concurrency < 1 {
			errs = append(errs, "batch.concurrency must be at least 1")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Server.RateLimit <= 0 {
			errs = append(errs, "server.rate_limit must be positive")
		}
	case "record":
		if c.Records.DatabaseURL == "" {
			errs = append(errs, "records.database_url is required")
		}
	case "migrate":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
