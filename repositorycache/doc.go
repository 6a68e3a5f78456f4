// Package repositorycache provides a caching decorator for go-repository-bun
// repositories.
//
// # Overview
//
// CachedRepository wraps a repository.Repository[T] and serves its read
// methods through a cache.CacheService. Writes go to the base repository and,
// when they succeed, drop the cached reads they may have changed.
//
//	base := resume.NewRepository(db)
//	cached := repositorycache.New(base, queries, cache.NewDefaultKeySerializer())
//
//	r, err := cached.GetByID(ctx, id)
//	list, total, err := cached.List(ctx, resume.ByUser(userID))
//
// # Cached vs Pass-through Operations
//
// Cached: Get, GetByID, GetByIdentifier, List, Count.
//
// Pass-through: every write, every *Tx method and Raw. Reads inside a
// transaction never touch the cache, so they cannot observe or publish
// uncommitted rows.
//
// # Keys
//
// Keys are namespace::Method::args. The namespace defaults to the snake_case
// record type name (Resume becomes resume) and can be overridden with
// WithNamespace. Every read key is registered so that invalidation can find
// it again by prefix.
//
// # Invalidation
//
//   - Create, CreateMany, GetOrCreate: List and Count
//   - Update, Upsert, Delete, ForceDelete and their bulk forms: Get, List,
//     Count, plus GetByID and GetByIdentifier for each affected record
//   - DeleteMany, DeleteWhere: the whole namespace
//
// Record IDs are read from an ID field; identifiers from Identifier, Slug,
// Name or Code, whichever is set first.
//
// When the cache service implements cache.Invalidator the keys are dropped
// in one call; otherwise Delete is called per key. Invalidation failures are
// logged and never fail the write.
//
// # Tags
//
// WithCacheTags attaches tags to a context. Reads made with that context are
// registered under each tag and InvalidateTags drops them as a group, which
// suits data owned by one user or one document.
//
// # Errors
//
// Errors from the base repository are returned unchanged and are never
// cached.
package repositorycache
