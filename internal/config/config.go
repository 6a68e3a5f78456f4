// Package config loads process configuration from an optional file and
// RESUME_ prefixed environment variables.
package config

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/viper"

	"github.com/swarajreddy10/Resume-Canvas-sub000/cache"
	"github.com/swarajreddy10/Resume-Canvas-sub000/pkg/di"
)

// EnvPrefix is prepended to every environment override, e.g.
// RESUME_CACHE_DOCUMENTS_MAX_SIZE=80.
const EnvPrefix = "RESUME"

// Config holds all configuration for the resume cache service
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Cache    di.Config      `mapstructure:"cache"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type DatabaseConfig struct {
	// DSN is passed to the sqlite3 driver.
	DSN string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads configPath when it is not empty, applies environment overrides
// and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks logging and metrics settings and every named cache.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Log.Format, validation.In("json", "console", "text")),
	)
	if err == nil {
		err = validation.ValidateStruct(&c.Database,
			validation.Field(&c.Database.DSN, validation.Required),
		)
	}
	if err == nil && c.Metrics.Enabled {
		err = validation.ValidateStruct(&c.Metrics,
			validation.Field(&c.Metrics.Addr, validation.Required),
		)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "config validation failed")
	}

	return c.Cache.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.dsn", "file::memory:?cache=shared")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9091")

	defaults := di.DefaultConfig()
	setCacheDefaults(v, "cache.queries", defaults.Queries)
	setCacheDefaults(v, "cache.documents", defaults.Documents)
	setCacheDefaults(v, "cache.completions", defaults.Completions)
}

func setCacheDefaults(v *viper.Viper, prefix string, c cache.Config) {
	v.SetDefault(prefix+".max_size", c.MaxSize)
	v.SetDefault(prefix+".default_ttl", c.DefaultTTL)
	v.SetDefault(prefix+".sweep_interval", c.SweepInterval)
	v.SetDefault(prefix+".backend", string(c.Backend))
	v.SetDefault(prefix+".sharded.num_shards", c.Sharded.NumShards)
	v.SetDefault(prefix+".sharded.eviction_percentage", c.Sharded.EvictionPercentage)
	v.SetDefault(prefix+".sharded.missing_record_storage", c.Sharded.MissingRecordStorage)
	v.SetDefault(prefix+".sharded.eviction_interval", c.Sharded.EvictionInterval)
}
