// internal/host/cache.go
//
// Runtime Context cache.
//
// Context
// -------
// Plugins are called from many requests at once.  Cache keeps one
// pluginapi.Context per plugin id so memoized tenant settings and the
// plugin's database pool are shared.  Contexts are built on first use.
// Concurrent first requests for the same plugin are collapsed with
// singleflight, so every caller sees the same *Context.
//
// Entries live in a sync.Map together with a lastSeen timestamp.  The
// evictor (evictor.go) closes and drops idle entries and trims the map
// under LRU pressure.
//
// Notes
// -----
//   - Evict drops one plugin immediately; use it after a manifest change.
//   - Close stops the evictor and closes every cached Context.
//   - Oxford commas, two spaces after periods.
package host

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/adept/internal/metrics"
	"github.com/yanizio/adept/internal/plugin"
	"github.com/yanizio/adept/internal/pluginapi"
)

// Defaults used when Options leave a field zero.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 100
	EvictInterval = 5 * time.Minute
)

// ErrNotFound is returned for plugin ids missing from the registry.
var ErrNotFound = errors.New("plugin not registered")

// BuildFunc constructs the Context for one plugin.
type BuildFunc func(meta *plugin.Metadata) *pluginapi.Context

// Options tune a Cache.
type Options struct {
	IdleTTL       time.Duration
	MaxEntries    int
	EvictInterval time.Duration // negative disables the background loop
}

type entry struct {
	ctx      *pluginapi.Context
	lastSeen int64 // UnixNano
}

func (e *entry) touch(now time.Time) { atomic.StoreInt64(&e.lastSeen, now.UnixNano()) }

// Cache lazily builds Contexts and evicts them on idle TTL or LRU pressure.
type Cache struct {
	registry *plugin.Registry
	build    BuildFunc
	sfg      singleflight.Group
	m        sync.Map // plugin id → *entry

	idleTTL    time.Duration
	maxEntries int
	now        func() time.Time

	ticker    *time.Ticker
	stop      chan struct{}
	closeOnce sync.Once
}

// New constructs a Cache and starts the background evictor.
func New(reg *plugin.Registry, build BuildFunc, opts Options) *Cache {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = IdleTTL
	}
	if opts.MaxEntries == 0 {
		opts.MaxEntries = MaxEntries
	}
	if opts.EvictInterval == 0 {
		opts.EvictInterval = EvictInterval
	}
	c := &Cache{
		registry:   reg,
		build:      build,
		idleTTL:    opts.IdleTTL,
		maxEntries: opts.MaxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if opts.EvictInterval > 0 {
		c.ticker = time.NewTicker(opts.EvictInterval)
		go c.evictLoop()
	}
	return c
}

// Get returns the Context for pluginID, building it on demand.
func (c *Cache) Get(pluginID string) (*pluginapi.Context, error) {
	if v, ok := c.m.Load(pluginID); ok {
		ent := v.(*entry)
		ent.touch(c.now())
		return ent.ctx, nil
	}

	v, err, _ := c.sfg.Do(pluginID, func() (any, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(pluginID); ok {
			ent := v.(*entry)
			ent.touch(c.now())
			return ent.ctx, nil
		}
		meta, err := c.registry.Get(pluginID)
		if err != nil {
			metrics.ContextLoadErrorsTotal.Inc()
			if errors.Is(err, plugin.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, pluginID)
			}
			return nil, err
		}
		ent := &entry{ctx: c.build(meta)}
		ent.touch(c.now())
		c.m.Store(pluginID, ent)
		metrics.ContextLoadTotal.Inc()
		metrics.ActiveContexts.Inc()
		zap.L().Debug("plugin context loaded", zap.String("plugin_id", pluginID))
		return ent.ctx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pluginapi.Context), nil
}

// Evict closes and drops the Context for pluginID, if cached.
func (c *Cache) Evict(pluginID string) {
	c.drop(pluginID, "manual")
}

// Len returns the number of cached Contexts.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Close stops the evictor and closes every cached Context.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		if c.ticker != nil {
			c.ticker.Stop()
		}
		c.m.Range(func(key, _ any) bool {
			c.drop(key.(string), "shutdown")
			return true
		})
	})
}

func (c *Cache) drop(pluginID, reason string) bool {
	v, ok := c.m.LoadAndDelete(pluginID)
	if !ok {
		return false
	}
	if err := v.(*entry).ctx.Close(); err != nil {
		zap.L().Warn("plugin context close",
			zap.String("plugin_id", pluginID),
			zap.Error(err))
	}
	zap.L().Info("plugin context evicted",
		zap.String("plugin_id", pluginID),
		zap.String("reason", reason))
	metrics.ContextEvictTotal.Inc()
	metrics.ActiveContexts.Dec()
	return true
}
