package cacheinfra

import (
	"context"
	"strings"

	"github.com/viccon/sturdyc"
)

// ShardedService is a read-through cache backed by a sturdyc client. It is
// the alternative to the single-lock memory backend when many goroutines hit
// the same logical cache.
type ShardedService struct {
	client *sturdyc.Client[entry]
}

// entry boxes cached values so a nil result is still a valid entry.
type entry struct {
	value any
}

// NewShardedService validates cfg and builds the sturdyc client.
func NewShardedService(cfg Config) (*ShardedService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &ShardedService{client: client}, nil
}

// GetOrFetch returns the cached value for key or runs fetchFn and caches its
// result. sturdyc deduplicates concurrent fetches for the same key.
func (s *ShardedService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := ValidateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	var fetchErr error
	e, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (entry, error) {
		value, err := CallFetch(ctx, fetchFn)
		if err != nil {
			fetchErr = err
			return entry{}, err
		}
		return entry{value: value}, nil
	})
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// Delete drops a single key.
func (s *ShardedService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix drops every key starting with prefix.
func (s *ShardedService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys drops each of keys.
func (s *ShardedService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Len returns the number of entries across all shards.
func (s *ShardedService) Len() int {
	return s.client.Size()
}
