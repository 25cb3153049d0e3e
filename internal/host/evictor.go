// evictor.go houses the eviction loop for Cache.  Every tick it scans the
// map and removes:
//
//   - Contexts idle longer than idleTTL
//   - least-recently-used Contexts when the map exceeds maxEntries
//
// Each eviction closes the Context, is logged, and updates Prometheus
// counters.
package host

import (
	"sort"
	"sync/atomic"
	"time"
)

func (c *Cache) evictLoop() {
	for {
		select {
		case <-c.stop:
			return
		case <-c.ticker.C:
			c.evictOnce(c.now())
		}
	}
}

// evictOnce runs one idle pass followed by one LRU pass.
func (c *Cache) evictOnce(now time.Time) {
	type kv struct {
		key string
		at  int64
	}
	var live []kv

	// Idle pass.
	c.m.Range(func(key, value any) bool {
		at := atomic.LoadInt64(&value.(*entry).lastSeen)
		if now.Sub(time.Unix(0, at)) > c.idleTTL {
			c.drop(key.(string), "idle")
			return true
		}
		live = append(live, kv{key: key.(string), at: at})
		return true
	})

	// LRU pass.
	if c.maxEntries <= 0 || len(live) <= c.maxEntries {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].at < live[j].at })
	for i := 0; i < len(live)-c.maxEntries; i++ {
		c.drop(live[i].key, "lru")
	}
}
