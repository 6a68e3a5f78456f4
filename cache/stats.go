package cache

import "github.com/puzpuzpuz/xsync/v3"

// Stats is a point-in-time view of a cache's counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	Expirations int64
	Entries     int
	MaxSize     int
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type counters struct {
	hits        *xsync.Counter
	misses      *xsync.Counter
	sets        *xsync.Counter
	evictions   *xsync.Counter
	expirations *xsync.Counter
}

func newCounters() *counters {
	return &counters{
		hits:        xsync.NewCounter(),
		misses:      xsync.NewCounter(),
		sets:        xsync.NewCounter(),
		evictions:   xsync.NewCounter(),
		expirations: xsync.NewCounter(),
	}
}

func (c *counters) snapshot(entries, maxSize int) Stats {
	return Stats{
		Hits:        c.hits.Value(),
		Misses:      c.misses.Value(),
		Sets:        c.sets.Value(),
		Evictions:   c.evictions.Value(),
		Expirations: c.expirations.Value(),
		Entries:     entries,
		MaxSize:     maxSize,
	}
}
