package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/swarajreddy10/Resume-Canvas-sub000/internal/cacheinfra"
)

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes read-through caching. fetchFn must have the shape
// func(context.Context) (T, error); FetchFn[T] values qualify.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Delete(ctx context.Context, key string) error
}

// Invalidator is implemented by services that can drop groups of keys.
type Invalidator interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

// GetOrFetch is the type-safe entry point to a CacheService.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T, want %T", ErrInvalidResultType, key, result, zero)
	}
	return typed, nil
}

// NewCacheService builds the read-through service selected by cfg.Backend.
// opts configure the memory backend's MemoryCache; the sharded backend
// ignores them.
func NewCacheService(cfg Config, opts ...Option) (CacheService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.backend() {
	case BackendSharded:
		service, err := cacheinfra.NewShardedService(cfg.toInternal())
		if err != nil {
			return nil, err
		}
		return service, nil
	default:
		store, err := New[any](cfg, opts...)
		if err != nil {
			return nil, err
		}
		return NewMemoryService(store), nil
	}
}

// MemoryService is a CacheService over a MemoryCache. Concurrent misses on
// the same key share one fetch, which runs with the first caller's context
// values but not its cancellation. Fetch errors are returned and never cached.
type MemoryService struct {
	store *MemoryCache[any]
	group singleflight.Group
}

var (
	_ CacheService = (*MemoryService)(nil)
	_ Invalidator  = (*MemoryService)(nil)
	_ CacheService = (*cacheinfra.ShardedService)(nil)
	_ Invalidator  = (*cacheinfra.ShardedService)(nil)
)

// NewMemoryService wraps store.
func NewMemoryService(store *MemoryCache[any]) *MemoryService {
	return &MemoryService{store: store}
}

// Store exposes the underlying cache.
func (s *MemoryService) Store() *MemoryCache[any] {
	return s.store
}

// GetOrFetch returns the cached value for key, or runs fetchFn and caches
// its result with the store default TTL.
func (s *MemoryService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return s.GetOrFetchWithTTL(ctx, key, s.store.DefaultTTL(), fetchFn)
}

// GetOrFetchWithTTL is GetOrFetch with an explicit TTL for the stored value.
func (s *MemoryService) GetOrFetchWithTTL(ctx context.Context, key string, ttl time.Duration, fetchFn any) (any, error) {
	if err := cacheinfra.ValidateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	if value, ok := s.store.Get(key); ok {
		return value, nil
	}

	// The flight is shared, so it must not die with the first caller's ctx.
	fetchCtx := context.WithoutCancel(ctx)
	value, err, _ := s.group.Do(key, func() (any, error) {
		// A flight that finished between the lookup above and Do may
		// already have filled the key.
		if s.store.Has(key) {
			if value, ok := s.store.Get(key); ok {
				return value, nil
			}
		}

		value, err := cacheinfra.CallFetch(fetchCtx, fetchFn)
		if err != nil {
			return nil, err
		}
		s.store.SetWithTTL(key, value, ttl)
		return value, nil
	})
	return value, err
}

// Delete drops key.
func (s *MemoryService) Delete(ctx context.Context, key string) error {
	s.group.Forget(key)
	s.store.Delete(key)
	return nil
}

// DeleteByPrefix drops every key starting with prefix.
func (s *MemoryService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.store.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.store.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys drops each of keys.
func (s *MemoryService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		s.store.Delete(key)
	}
	return nil
}

// Close stops the store's sweeper.
func (s *MemoryService) Close() error {
	return s.store.Close()
}
