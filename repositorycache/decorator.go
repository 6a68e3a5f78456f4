package repositorycache

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/swarajreddy10/Resume-Canvas-sub000/cache"
)

var _ repository.Repository[any] = (*CachedRepository[any])(nil)

// listResult wraps the tuple result from List operations for caching
type listResult[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total"`
}

// Option configures a CachedRepository.
type Option func(*options)

type options struct {
	namespace string
	logger    *zap.Logger
}

// WithNamespace overrides the key namespace, which defaults to the snake_case
// name of the record type.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithLogger sets the logger used to report failed invalidations.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// CachedRepository decorates a base repository with read-through caching.
//
// Keys have the form namespace::Method::args. Invalidation matches on that
// layout, so a custom KeySerializer must render the method name first and
// join the arguments with cache.KeySeparator.
type CachedRepository[T any] struct {
	base          repository.Repository[T]
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	namespace     string
	logger        *zap.Logger

	keys *xsync.MapOf[string, struct{}]
	tags *xsync.MapOf[string, *xsync.MapOf[string, struct{}]]
}

// New creates a new CachedRepository that wraps the base repository with caching
func New[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedRepository[T] {
	o := options{
		namespace: namespaceFor[T](),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &CachedRepository[T]{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		namespace:     o.namespace,
		logger:        o.logger.With(zap.String("namespace", o.namespace)),
		keys:          xsync.NewMapOf[string, struct{}](),
		tags:          xsync.NewMapOf[string, *xsync.MapOf[string, struct{}]](),
	}
}

// Namespace returns the prefix shared by every key this repository writes.
func (c *CachedRepository[T]) Namespace() string {
	return c.namespace
}

// Get retrieves a single record using the provided criteria, with caching
func (c *CachedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	key := c.track(ctx, "Get", criteria)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (T, error) {
		return c.base.Get(ctx, criteria...)
	})
}

// GetByID retrieves a record by ID with optional criteria, with caching
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	key := c.track(ctx, "GetByID", id, criteria)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id, criteria...)
	})
}

// List retrieves multiple records using the provided criteria, with caching
func (c *CachedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	key := c.track(ctx, "List", criteria)
	res, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (listResult[T], error) {
		records, total, err := c.base.List(ctx, criteria...)
		return listResult[T]{Records: records, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return res.Records, res.Total, nil
}

// Count returns the number of records matching the criteria, with caching
func (c *CachedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	key := c.track(ctx, "Count", criteria)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (int, error) {
		return c.base.Count(ctx, criteria...)
	})
}

// GetByIdentifier retrieves a record by identifier with optional criteria, with caching
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	key := c.track(ctx, "GetByIdentifier", identifier, criteria)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (T, error) {
		return c.base.GetByIdentifier(ctx, identifier, criteria...)
	})
}

// Create creates a new record. Write operations pass through to base repository
func (c *CachedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.Create(ctx, record, criteria...)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

func (c *CachedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.CreateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

func (c *CachedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateMany(ctx, records, criteria...)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

func (c *CachedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

// GetOrCreate may insert, so it invalidates like Create.
func (c *CachedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	result, err := c.base.GetOrCreate(ctx, record)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

func (c *CachedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	result, err := c.base.GetOrCreateTx(ctx, tx, record)
	if err == nil {
		c.invalidateAfterCreate(ctx)
	}
	return result, err
}

// Update updates a record and drops every cached read that may include it.
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Update(ctx, record, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result)
	}
	return result, err
}

func (c *CachedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpdateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result)
	}
	return result, err
}

func (c *CachedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateMany(ctx, records, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result...)
	}
	return result, err
}

func (c *CachedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result...)
	}
	return result, err
}

func (c *CachedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Upsert(ctx, record, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result)
	}
	return result, err
}

func (c *CachedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpsertTx(ctx, tx, record, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result)
	}
	return result, err
}

func (c *CachedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertMany(ctx, records, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result...)
	}
	return result, err
}

func (c *CachedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.invalidateRecords(ctx, result...)
	}
	return result, err
}

func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	err := c.base.Delete(ctx, record)
	if err == nil {
		c.invalidateRecords(ctx, record)
	}
	return err
}

func (c *CachedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.DeleteTx(ctx, tx, record)
	if err == nil {
		c.invalidateRecords(ctx, record)
	}
	return err
}

// DeleteMany deletes by criteria. The affected records are unknown, so every
// read in the namespace is dropped.
func (c *CachedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteMany(ctx, criteria...)
	if err == nil {
		c.invalidateNamespace(ctx)
	}
	return err
}

func (c *CachedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteManyTx(ctx, tx, criteria...)
	if err == nil {
		c.invalidateNamespace(ctx)
	}
	return err
}

func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhere(ctx, criteria...)
	if err == nil {
		c.invalidateNamespace(ctx)
	}
	return err
}

func (c *CachedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhereTx(ctx, tx, criteria...)
	if err == nil {
		c.invalidateNamespace(ctx)
	}
	return err
}

func (c *CachedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	err := c.base.ForceDelete(ctx, record)
	if err == nil {
		c.invalidateRecords(ctx, record)
	}
	return err
}

func (c *CachedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.ForceDeleteTx(ctx, tx, record)
	if err == nil {
		c.invalidateRecords(ctx, record)
	}
	return err
}

// Reads inside a transaction bypass the cache: they may observe uncommitted
// rows.

func (c *CachedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIDTx(ctx, tx, id, criteria...)
}

func (c *CachedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return c.base.ListTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.CountTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// Raw is never cached.
func (c *CachedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return c.base.Raw(ctx, sql, args...)
}

func (c *CachedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return c.base.RawTx(ctx, tx, sql, args...)
}

func (c *CachedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return c.base.Handlers()
}

// InvalidateTags drops every read registered under any of tags.
func (c *CachedRepository[T]) InvalidateTags(ctx context.Context, tags ...string) error {
	var keys []string
	for _, tag := range dedupeStrings(tags) {
		set, ok := c.tags.LoadAndDelete(tag)
		if !ok {
			continue
		}
		set.Range(func(key string, _ struct{}) bool {
			keys = append(keys, key)
			return true
		})
	}
	return c.dropKeys(ctx, keys)
}

// InvalidateAll drops every read this repository has cached.
func (c *CachedRepository[T]) InvalidateAll(ctx context.Context) error {
	return c.dropMatching(ctx, c.namespace+cache.KeySeparator)
}

func (c *CachedRepository[T]) key(method string, args ...any) string {
	return c.namespace + cache.KeySeparator + c.keySerializer.SerializeKey(method, args...)
}

// track builds the key for a read and registers it, along with any context
// tags, for later invalidation. A key scope replaces the criteria in the key.
func (c *CachedRepository[T]) track(ctx context.Context, method string, args ...any) string {
	if scope := keyScopeFromContext(ctx); len(scope) > 0 {
		args = append(withoutCriteria(args), scope)
	}
	key := c.key(method, args...)
	c.keys.Store(key, struct{}{})

	for _, tag := range cacheTagsFromContext(ctx) {
		set, _ := c.tags.LoadOrCompute(tag, func() *xsync.MapOf[string, struct{}] {
			return xsync.NewMapOf[string, struct{}]()
		})
		set.Store(key, struct{}{})
	}
	return key
}

// withoutCriteria drops function arguments and slices of functions.
func withoutCriteria(args []any) []any {
	out := make([]any, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			out = append(out, arg)
			continue
		}
		t := reflect.TypeOf(arg)
		if t.Kind() == reflect.Func {
			continue
		}
		if (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Func {
			continue
		}
		out = append(out, arg)
	}
	return out
}

func (c *CachedRepository[T]) methodPrefix(method string, args ...any) string {
	return c.key(method, args...) + cache.KeySeparator
}

func (c *CachedRepository[T]) invalidateAfterCreate(ctx context.Context) {
	c.logFailure(c.dropMatching(ctx,
		c.methodPrefix("List"),
		c.methodPrefix("Count"),
	), "create")
}

// invalidateRecords drops the by-ID and by-identifier reads of each record
// plus every criteria based read.
func (c *CachedRepository[T]) invalidateRecords(ctx context.Context, records ...T) {
	prefixes := []string{
		c.methodPrefix("Get"),
		c.methodPrefix("List"),
		c.methodPrefix("Count"),
	}
	for _, record := range records {
		if id, ok := fieldString(record, "ID", "Id"); ok {
			prefixes = append(prefixes, c.methodPrefix("GetByID", id))
		}
		if identifier, ok := fieldString(record, "Identifier", "Slug", "Name", "Code"); ok {
			prefixes = append(prefixes, c.methodPrefix("GetByIdentifier", identifier))
		}
	}
	c.logFailure(c.dropMatching(ctx, prefixes...), "update")
}

func (c *CachedRepository[T]) invalidateNamespace(ctx context.Context) {
	c.logFailure(c.InvalidateAll(ctx), "delete")
}

func (c *CachedRepository[T]) dropMatching(ctx context.Context, prefixes ...string) error {
	var keys []string
	c.keys.Range(func(key string, _ struct{}) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
				break
			}
		}
		return true
	})
	return c.dropKeys(ctx, keys)
}

// dropKeys removes keys from the cache in one call when the service supports
// it, and forgets them either way.
func (c *CachedRepository[T]) dropKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	defer func() {
		for _, key := range keys {
			c.keys.Delete(key)
		}
	}()

	if inv, ok := c.cache.(cache.Invalidator); ok {
		return inv.InvalidateKeys(ctx, keys)
	}

	var firstErr error
	for _, key := range keys {
		if err := c.cache.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *CachedRepository[T]) logFailure(err error, op string) {
	if err != nil {
		c.logger.Warn("cache invalidation failed", zap.String("op", op), zap.Error(err))
	}
}

// fieldString reads the first non-zero field among names from a struct or
// struct pointer.
func fieldString(record any, names ...string) (string, bool) {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", false
	}

	for _, name := range names {
		field := v.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() || field.IsZero() {
			continue
		}
		return fmt.Sprintf("%v", field.Interface()), true
	}
	return "", false
}

func namespaceFor[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return toSnake(name)
}
