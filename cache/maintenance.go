package cache

import "time"

// startSweeper launches the goroutine that drops expired entries every
// interval. Lazy expiry in Get and Has does not depend on it; it only keeps
// write-once keys from lingering until they are pushed out by capacity.
func (c *MemoryCache[V]) startSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}

	c.sweepEvery = interval
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.sweepLoop()
}

func (c *MemoryCache[V]) sweepLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.DeleteExpired()
		}
	}
}

// Close stops the background sweeper, if one is running. The cache remains
// usable afterwards with lazy expiry only. Close is safe to call repeatedly.
func (c *MemoryCache[V]) Close() error {
	c.closeOnce.Do(func() {
		if c.stop == nil {
			return
		}
		close(c.stop)
		<-c.done
	})
	return nil
}
