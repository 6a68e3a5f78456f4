package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultMaxSize is the entry bound used when none is configured.
	DefaultMaxSize = 100
	// DefaultTTL is the time-to-live applied when a caller does not pass one.
	DefaultTTL = 5 * time.Minute
)

// EvictionReason tells an eviction hook why an entry left the cache.
type EvictionReason int

const (
	// EvictionCapacity means the entry was the least recently used one when
	// an insert pushed the cache over its bound.
	EvictionCapacity EvictionReason = iota
	// EvictionExpired means the entry was found past its expiry.
	EvictionExpired
)

func (r EvictionReason) String() string {
	switch r {
	case EvictionCapacity:
		return "capacity"
	case EvictionExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Option customizes a MemoryCache at construction time.
type Option func(*options)

type options struct {
	now     func() time.Time
	onEvict func(key string, reason EvictionReason)
}

// WithClock replaces time.Now as the cache time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithEvictionHook registers fn to be called for every capacity eviction and
// every expired entry removed by Get, Has or a sweep. fn runs with the cache
// lock held and must not call back into the cache.
func WithEvictionHook(fn func(key string, reason EvictionReason)) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// MemoryCache is a bounded in-process key/value cache with per-entry TTL and
// least recently used eviction.
//
// Front of the list is the most recently used entry, back is the next one
// to go. Get marks an entry as used; Has does not.
type MemoryCache[V any] struct {
	mu sync.Mutex

	maxSize    int
	defaultTTL time.Duration
	items      map[string]*list.Element
	lru        *list.List

	now     func() time.Time
	onEvict func(key string, reason EvictionReason)
	stats   *counters

	sweepEvery time.Duration
	stop       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// New builds a MemoryCache from cfg. Invalid configurations are rejected.
func New[V any](cfg Config, opts ...Option) (*MemoryCache[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := newMemoryCache[V](cfg.MaxSize, cfg.DefaultTTL, opts...)
	c.startSweeper(cfg.SweepInterval)
	return c, nil
}

// NewMemoryCache builds a MemoryCache without a sweeper. A maxSize below 1 is
// clamped to 1 and a non-positive defaultTTL falls back to DefaultTTL.
func NewMemoryCache[V any](maxSize int, defaultTTL time.Duration, opts ...Option) *MemoryCache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return newMemoryCache[V](maxSize, defaultTTL, opts...)
}

func newMemoryCache[V any](maxSize int, defaultTTL time.Duration, opts ...Option) *MemoryCache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &MemoryCache[V]{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element, maxSize),
		lru:        list.New(),
		now:        o.now,
		onEvict:    o.onEvict,
		stats:      newCounters(),
	}
}

// Set stores value under key with the cache default TTL.
func (c *MemoryCache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key, expiring ttl from now. A zero or
// negative ttl stores an entry that is already expired.
func (c *MemoryCache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	c.stats.sets.Inc()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.lru.MoveToFront(el)
		return
	}

	c.items[key] = c.lru.PushFront(&entry[V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})

	if c.lru.Len() > c.maxSize {
		c.evictOldestLocked()
	}
}

// Get returns the value stored under key. Expired entries are removed and
// reported as missing. A hit moves the entry to the most recently used end.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.misses.Inc()
		return zero, false
	}

	e := el.Value.(*entry[V])
	if c.expiredLocked(e, c.now()) {
		c.removeElementLocked(el, EvictionExpired)
		c.stats.misses.Inc()
		return zero, false
	}

	c.lru.MoveToFront(el)
	c.stats.hits.Inc()
	return e.value, true
}

// Has reports whether a live entry exists for key. Expired entries are
// removed. Recency is left untouched.
func (c *MemoryCache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	if c.expiredLocked(el.Value.(*entry[V]), c.now()) {
		c.removeElementLocked(el, EvictionExpired)
		return false
	}
	return true
}

// Delete removes key. Missing keys are ignored.
func (c *MemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.lru.Remove(el)
		delete(c.items, key)
	}
}

// Clear drops every entry.
func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element, c.maxSize)
	c.lru.Init()
}

// Len returns the number of stored entries, including expired entries that
// have not been touched since they expired.
func (c *MemoryCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Keys returns the stored keys from most to least recently used.
func (c *MemoryCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry[V]).key)
	}
	return out
}

// MaxSize returns the entry bound.
func (c *MemoryCache[V]) MaxSize() int {
	return c.maxSize
}

// DefaultTTL returns the TTL used by Set.
func (c *MemoryCache[V]) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// DeleteExpired removes every expired entry and returns how many were dropped.
func (c *MemoryCache[V]) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if c.expiredLocked(el.Value.(*entry[V]), now) {
			c.removeElementLocked(el, EvictionExpired)
			removed++
		}
		el = prev
	}
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *MemoryCache[V]) Stats() Stats {
	c.mu.Lock()
	entries := c.lru.Len()
	c.mu.Unlock()

	return c.stats.snapshot(entries, c.maxSize)
}

func (c *MemoryCache[V]) expiredLocked(e *entry[V], now time.Time) bool {
	return !now.Before(e.expiresAt)
}

func (c *MemoryCache[V]) evictOldestLocked() {
	if el := c.lru.Back(); el != nil {
		c.removeElementLocked(el, EvictionCapacity)
	}
}

func (c *MemoryCache[V]) removeElementLocked(el *list.Element, reason EvictionReason) {
	e := el.Value.(*entry[V])
	c.lru.Remove(el)
	delete(c.items, e.key)

	switch reason {
	case EvictionCapacity:
		c.stats.evictions.Inc()
	case EvictionExpired:
		c.stats.expirations.Inc()
	}
	if c.onEvict != nil {
		c.onEvict(e.key, reason)
	}
}
