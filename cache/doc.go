// Package cache provides the bounded in-memory caches behind the resume
// service, plus the read-through and key helpers used by repository
// decorators.
//
// # Overview
//
// The package exports three building blocks:
//
//   - MemoryCache: a generic LRU cache with a per-entry time to live
//   - CacheService: a read-through interface, backed by MemoryService or the
//     sharded sturdyc service
//   - KeySerializer: builds stable cache keys from method names and arguments
//
// # MemoryCache
//
// A MemoryCache holds at most MaxSize entries. Writing a new key into a full
// cache evicts the least recently used entry. Get counts as a use; Has does not.
// Each entry expires DefaultTTL after it was written unless SetWithTTL
// supplies another duration. Expiry is lazy: expired entries are dropped when
// Get, Has or DeleteExpired encounters them. Setting Config.SweepInterval
// also starts a background sweep, which Close stops.
//
//	queries := cache.NewMemoryCache[[]Resume](100, 5*time.Minute)
//	queries.Set("user-123", resumes)
//	if list, ok := queries.Get("user-123"); ok {
//		return list
//	}
//
// Values are stored as given. Caching a pointer, slice or map shares it with
// the caller.
//
// # Read-through
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	resume, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (Resume, error) {
//		return repo.GetByID(ctx, id)
//	})
//
// Concurrent misses for one key share a single fetch. Errors from the fetch are
// returned to every waiting caller and are not cached.
//
// # Keys
//
// The default KeySerializer joins a method name and its arguments with
// KeySeparator. Arguments are rendered with reflection: maps are sorted,
// structs list their exported fields and Stringer values (time.Time,
// uuid.UUID) use String. Function arguments render as their pointer, which is
// stable only within one process.
//
// HashKey and Fingerprint collapse large inputs such as document bodies or
// prompts into a fixed width xxhash key under a namespace.
package cache
