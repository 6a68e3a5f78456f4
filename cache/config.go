package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/swarajreddy10/Resume-Canvas-sub000/internal/cacheinfra"
)

// Backend selects the implementation behind NewCacheService.
type Backend string

const (
	// BackendMemory is the single-lock LRU MemoryCache.
	BackendMemory Backend = "memory"
	// BackendSharded is the sturdyc-backed sharded cache.
	BackendSharded Backend = "sharded"
)

// Config describes one logical cache.
type Config struct {
	// MaxSize bounds the number of entries. Must be at least 1.
	MaxSize int `mapstructure:"max_size"`

	// DefaultTTL applies when a caller does not pass an explicit TTL.
	DefaultTTL time.Duration `mapstructure:"default_ttl"`

	// SweepInterval enables a background expiry sweep. Zero keeps expiry lazy.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// Backend is only consulted by NewCacheService. Empty means memory.
	Backend Backend `mapstructure:"backend"`

	// Sharded holds the extra knobs of the sharded backend.
	Sharded ShardedConfig `mapstructure:"sharded"`
}

// ShardedConfig configures the sturdyc backend.
type ShardedConfig struct {
	NumShards            int                 `mapstructure:"num_shards"`
	EvictionPercentage   int                 `mapstructure:"eviction_percentage"`
	EarlyRefresh         *EarlyRefreshConfig `mapstructure:"early_refresh"`
	MissingRecordStorage bool                `mapstructure:"missing_record_storage"`
	EvictionInterval     time.Duration       `mapstructure:"eviction_interval"`
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `mapstructure:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `mapstructure:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `mapstructure:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay"`
}

// DefaultConfig returns 100 entries with a five minute TTL on the memory backend.
func DefaultConfig() Config {
	infra := cacheinfra.DefaultConfig()
	return Config{
		MaxSize:    DefaultMaxSize,
		DefaultTTL: DefaultTTL,
		Backend:    BackendMemory,
		Sharded: ShardedConfig{
			NumShards:          infra.NumShards,
			EvictionPercentage: infra.EvictionPercentage,
		},
	}
}

// Validate rejects configurations that would leave eviction undefined.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.MaxSize, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultTTL, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.SweepInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Backend, validation.In(BackendMemory, BackendSharded)),
	)
	if err != nil {
		return invalidConfig(err, "invalid cache config")
	}

	if c.backend() == BackendSharded {
		if err := c.toInternal().Validate(); err != nil {
			return invalidConfig(err, "invalid sharded cache config")
		}
	}
	return nil
}

func (c Config) backend() Backend {
	if c.Backend == "" {
		return BackendMemory
	}
	return c.Backend
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if er := c.Sharded.EarlyRefresh; er != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: er.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: er.MaxAsyncRefreshTime,
			SyncRefreshTime:     er.SyncRefreshTime,
			RetryBaseDelay:      er.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Capacity:             c.MaxSize,
		NumShards:            c.Sharded.NumShards,
		TTL:                  c.DefaultTTL,
		EvictionPercentage:   c.Sharded.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: c.Sharded.MissingRecordStorage,
		EvictionInterval:     c.Sharded.EvictionInterval,
	}
}
