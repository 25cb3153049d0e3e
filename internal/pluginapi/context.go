// internal/pluginapi/context.go
//
// Plugin Runtime Context.
//
// Context
// -------
// A Context is the single surface a plugin sees.  It bundles, for one
// plugin:
//
//   - the tenant database settings (type, connection string, pool),
//   - the per-site config store,
//   - the permission gate, and
//   - read-only site and content lookups plus URL builders.
//
// Faults are converted to false, nil, zero, or "" at this boundary and
// handed to the diagnostics Recorder tagged with the plugin.  The only
// exception is tenant config resolution, where a decryption failure is
// returned so a plugin never talks to the wrong database.
//
// Lifecycle
// ---------
// One Context per plugin is shared across requests (see internal/host).
// Every memoized field is safe under concurrent first access.  Close
// releases the plugin's pool; the host cache calls it on eviction.  A
// closed Context never reopens its pool: DB returns ErrClosed, and callers
// go back to the host cache for a fresh Context.
//
// Notes
// -----
//   - Deps is copied at construction.  Mutating the caller's Deps, its
//     Defaults included, has no effect on an existing Context.
//   - Oxford commas, two spaces after periods.
package pluginapi

import (
	"context"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/acl"
	"github.com/yanizio/adept/internal/content"
	"github.com/yanizio/adept/internal/database"
	"github.com/yanizio/adept/internal/diagnostics"
	"github.com/yanizio/adept/internal/files"
	"github.com/yanizio/adept/internal/paths"
	"github.com/yanizio/adept/internal/plugin"
	"github.com/yanizio/adept/internal/pluginconfig"
	"github.com/yanizio/adept/internal/site"
	"github.com/yanizio/adept/internal/tenant"
)

// ErrClosed is returned by DB once the Context has been closed.
var ErrClosed = errors.New("plugin context closed")

// OpenFunc opens a plugin pool.  database.OpenWithOptions is the default.
type OpenFunc func(ctx context.Context, d database.Driver, dsn string, opts database.Options) (*sqlx.DB, error)

// Deps carries the collaborators of a Context.  ConfigRepo, Sites, and
// Content are required for their operations; the rest have defaults.
type Deps struct {
	Defaults    tenant.Defaults
	Secrets     tenant.SecretResolver
	ConfigRepo  pluginconfig.Repository
	Codec       pluginconfig.Codec
	Authorizer  acl.Authorizer
	Sites       site.Directory
	Content     content.Reader
	Paths       *paths.Builder
	Mover       files.Mover
	Diagnostics diagnostics.Recorder
	DBOptions   database.Options
	OpenDB      OpenFunc
}

// Context is the Runtime Context of one plugin.
type Context struct {
	meta   plugin.Metadata
	src    diagnostics.Source
	deps   Deps
	tenant *tenant.Resolver
	store  *pluginconfig.Store
	gate   *acl.Gate

	mu     sync.Mutex
	driver *database.Driver
	db     *sqlx.DB
	closed bool
}

// New builds the Context for meta.  meta is copied.
func New(meta *plugin.Metadata, deps Deps) *Context {
	m := *meta
	if deps.Diagnostics == nil {
		deps.Diagnostics = diagnostics.NewZapRecorder(zap.L())
	}
	if deps.Codec == nil {
		deps.Codec = pluginconfig.JSONCodec{}
	}
	if deps.Paths == nil {
		deps.Paths = paths.New("")
	}
	if deps.Mover == nil {
		deps.Mover = files.NewFSMover(deps.Paths.SiteDir)
	}
	if deps.DBOptions == (database.Options{}) {
		deps.DBOptions = database.PluginOptions
	}
	if deps.OpenDB == nil {
		deps.OpenDB = database.OpenWithOptions
	}

	src := diagnostics.Source{PluginID: m.ID, PluginName: m.DisplayName()}
	return &Context{
		meta:   m,
		src:    src,
		deps:   deps,
		tenant: tenant.NewResolver(deps.Defaults, &m, deps.Secrets),
		store:  pluginconfig.NewStore(src, deps.ConfigRepo, deps.Codec, deps.Diagnostics).WithSchemas(m.Schemas),
		gate:   acl.NewGate(m.ID, deps.Authorizer),
	}
}

// Metadata returns a copy of the plugin metadata.
func (c *Context) Metadata() plugin.Metadata { return c.meta }

// PluginID is shorthand for Metadata().ID.
func (c *Context) PluginID() string { return c.meta.ID }

/* ------------------------------------------------------------------ */
/*  Tenant database                                                    */
/* ------------------------------------------------------------------ */

// DatabaseType returns the effective database type.
func (c *Context) DatabaseType() (string, error) { return c.tenant.DatabaseType() }

// ConnectionString returns the effective connection string.
func (c *Context) ConnectionString() (string, error) { return c.tenant.ConnectionString() }

// Driver returns the driver for DatabaseType.  Unknown types select the
// default driver.
func (c *Context) Driver() (database.Driver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driverLocked()
}

func (c *Context) driverLocked() (database.Driver, error) {
	if c.driver != nil {
		return *c.driver, nil
	}
	dbType, err := c.tenant.DatabaseType()
	if err != nil {
		return database.Driver{}, err
	}
	d := database.Select(dbType)
	c.driver = &d
	return d, nil
}

// DB returns the plugin pool, opening it on first use.  A failed open is
// not cached.  After Close it returns ErrClosed.
func (c *Context) DB(ctx context.Context) (*sqlx.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.db != nil {
		return c.db, nil
	}
	d, err := c.driverLocked()
	if err != nil {
		return nil, err
	}
	dsn, err := c.tenant.ConnectionString()
	if err != nil {
		return nil, err
	}
	db, err := c.deps.OpenDB(ctx, d, dsn, c.deps.DBOptions)
	if err != nil {
		return nil, err
	}
	zap.L().Info("plugin database opened",
		zap.String("plugin_id", c.meta.ID),
		zap.Stringer("driver", d))
	c.db = db
	return db, nil
}

// Close releases the plugin pool, if one was opened, and marks the Context
// closed.  Further calls are no-ops.
func (c *Context) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.closed = true
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.Close()
}

// RecordError hands err to diagnostics tagged with this plugin and returns
// the correlation id.
func (c *Context) RecordError(err error) string {
	return c.deps.Diagnostics.RecordError(c.src, err)
}
