package di

import (
	"errors"
	"fmt"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"go.uber.org/zap"

	"github.com/swarajreddy10/Resume-Canvas-sub000/cache"
	"github.com/swarajreddy10/Resume-Canvas-sub000/repositorycache"
)

// Names of the caches owned by a Container, used as the cache label in
// logs and metrics.
const (
	QueriesCache     = "queries"
	DocumentsCache   = "documents"
	CompletionsCache = "completions"
)

// Config holds one cache.Config per named cache. Backend is only honoured
// for Queries; Documents and Completions are always in-memory LRU caches.
type Config struct {
	Queries     cache.Config `mapstructure:"queries"`
	Documents   cache.Config `mapstructure:"documents"`
	Completions cache.Config `mapstructure:"completions"`
}

// DefaultConfig sizes the caches for a single application instance.
func DefaultConfig() Config {
	queries := cache.DefaultConfig()

	documents := cache.DefaultConfig()
	documents.MaxSize = 50
	documents.DefaultTTL = time.Hour

	completions := cache.DefaultConfig()
	completions.MaxSize = 200
	completions.DefaultTTL = 30 * time.Minute

	return Config{
		Queries:     queries,
		Documents:   documents,
		Completions: completions,
	}
}

// Validate checks every named cache.
func (c Config) Validate() error {
	for name, cfg := range map[string]cache.Config{
		QueriesCache:     c.Queries,
		DocumentsCache:   c.Documents,
		CompletionsCache: c.Completions,
	} {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s cache: %w", name, err)
		}
	}
	return nil
}

// Container provides dependency injection for cache related components.
// It owns every cache instance the process uses; nothing else in the module
// keeps a cache in package state. The entry point builds one Container and
// closes it on shutdown.
type Container struct {
	config        Config
	logger        *zap.Logger
	keySerializer cache.KeySerializer

	queries     cache.CacheService
	documents   *cache.MemoryCache[[]byte]
	completions *cache.MemoryCache[string]

	closeOnce sync.Once
	closeErr  error
}

// NewContainer validates cfg and builds the named caches. A nil logger
// disables logging.
func NewContainer(cfg Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("cache")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	queries, err := cache.NewCacheService(cfg.Queries, cache.WithEvictionHook(evictionLogger(logger, QueriesCache)))
	if err != nil {
		return nil, err
	}

	documentsCfg := cfg.Documents
	documentsCfg.Backend = cache.BackendMemory
	documents, err := cache.New[[]byte](documentsCfg, cache.WithEvictionHook(evictionLogger(logger, DocumentsCache)))
	if err != nil {
		closeService(queries)
		return nil, err
	}

	completionsCfg := cfg.Completions
	completionsCfg.Backend = cache.BackendMemory
	completions, err := cache.New[string](completionsCfg, cache.WithEvictionHook(evictionLogger(logger, CompletionsCache)))
	if err != nil {
		closeService(queries)
		_ = documents.Close()
		return nil, err
	}

	logger.Info("caches ready",
		zap.Int("queries_max_size", cfg.Queries.MaxSize),
		zap.String("queries_backend", string(cfg.Queries.Backend)),
		zap.Int("documents_max_size", documentsCfg.MaxSize),
		zap.Int("completions_max_size", completionsCfg.MaxSize),
	)

	return &Container{
		config:        cfg,
		logger:        logger,
		keySerializer: cache.NewDefaultKeySerializer(),
		queries:       queries,
		documents:     documents,
		completions:   completions,
	}, nil
}

// NewContainerWithDefaults builds a Container from DefaultConfig without
// logging.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(DefaultConfig(), nil)
}

// Queries returns the read-through service used for repository results.
func (c *Container) Queries() cache.CacheService {
	return c.queries
}

// Documents returns the cache of rendered PDFs.
func (c *Container) Documents() *cache.MemoryCache[[]byte] {
	return c.documents
}

// Completions returns the cache of AI generated text.
func (c *Container) Completions() *cache.MemoryCache[string] {
	return c.completions
}

func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

func (c *Container) Config() Config {
	return c.config
}

func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Stats returns a snapshot per named cache. The sharded query backend only
// reports its size.
func (c *Container) Stats() map[string]cache.Stats {
	stats := map[string]cache.Stats{
		DocumentsCache:   c.documents.Stats(),
		CompletionsCache: c.completions.Stats(),
	}

	switch q := c.queries.(type) {
	case *cache.MemoryService:
		stats[QueriesCache] = q.Store().Stats()
	case interface{ Len() int }:
		stats[QueriesCache] = cache.Stats{Entries: q.Len(), MaxSize: c.config.Queries.MaxSize}
	}
	return stats
}

// Close stops background sweepers. It is safe to call more than once.
func (c *Container) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = errors.Join(
			closeService(c.queries),
			c.documents.Close(),
			c.completions.Close(),
		)
		c.logger.Debug("caches closed")
	})
	return c.closeErr
}

// NewCachedRepository wraps base with the container's query cache.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedRepository[resume.Resume](container, resume.NewRepository(db))
func NewCachedRepository[T any](container *Container, base repository.Repository[T], opts ...repositorycache.Option) *repositorycache.CachedRepository[T] {
	opts = append([]repositorycache.Option{repositorycache.WithLogger(container.logger)}, opts...)
	return repositorycache.New(base, container.queries, container.keySerializer, opts...)
}

func closeService(svc cache.CacheService) error {
	if closer, ok := svc.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func evictionLogger(logger *zap.Logger, name string) func(string, cache.EvictionReason) {
	logger = logger.With(zap.String("cache", name))
	return func(key string, reason cache.EvictionReason) {
		logger.Debug("cache entry removed", zap.String("key", key), zap.Stringer("reason", reason))
	}
}
