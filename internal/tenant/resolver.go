// internal/tenant/resolver.go
//
// Tenant config resolution.
//
// Context
// -------
// A Resolver answers two questions for one plugin: which database type and
// which connection string.  Per field:
//
//  1. Start from the process default.
//  2. If the plugin metadata supplies a non-empty override, use it.
//  3. If data protection is on and the override was used, decrypt it.
//  4. Cache the result for the lifetime of the Resolver.
//
// A cached value is never recomputed, even if the Defaults the caller holds
// are mutated afterwards.  Build a new Resolver to pick up changes.
// Decryption failures are returned and not cached, so a later call retries.
//
// Concurrency
// -----------
// Each field is guarded by its own mutex.  Concurrent first callers block
// on the mutex and observe the single computed value.
//
// Notes
// -----
//   - Decrypted strings are not validated.  Driver selection absorbs bad
//     database types; bad DSNs surface when the pool is opened.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/metrics"
	"github.com/yanizio/adept/internal/plugin"
)

// SecretResolver decrypts protected strings.  *secret.Resolver satisfies it.
type SecretResolver interface {
	Resolve(raw string, protected bool) (string, error)
}

// Resolver memoizes the effective tenant config for one plugin.
type Resolver struct {
	defaults Defaults
	meta     *plugin.Metadata
	secrets  SecretResolver

	dbType  lazyString
	connStr lazyString
}

// NewResolver copies defaults.  secrets may be nil when ProtectData is off.
func NewResolver(defaults Defaults, meta *plugin.Metadata, secrets SecretResolver) *Resolver {
	return &Resolver{defaults: defaults, meta: meta, secrets: secrets}
}

// DatabaseType returns the effective database type.
func (r *Resolver) DatabaseType() (string, error) {
	return r.dbType.get(func() (string, error) {
		return r.resolve("database_type", r.defaults.DatabaseType, r.meta.DatabaseType)
	})
}

// ConnectionString returns the effective connection string.
func (r *Resolver) ConnectionString() (string, error) {
	return r.connStr.get(func() (string, error) {
		return r.resolve("connection_string", r.defaults.ConnectionString, r.meta.ConnectionString)
	})
}

// Config resolves both fields.
func (r *Resolver) Config() (Config, error) {
	dbType, err := r.DatabaseType()
	if err != nil {
		return Config{}, err
	}
	conn, err := r.ConnectionString()
	if err != nil {
		return Config{}, err
	}
	return Config{DatabaseType: dbType, ConnectionString: conn}, nil
}

func (r *Resolver) resolve(field, def, override string) (string, error) {
	if override == "" {
		return def, nil
	}
	if !r.defaults.ProtectData {
		return override, nil
	}
	if r.secrets == nil {
		return "", fmt.Errorf("tenant: %s for plugin %s is protected but no secret resolver is configured", field, r.meta.ID)
	}
	plain, err := r.secrets.Resolve(override, true)
	if err != nil {
		metrics.DecryptFailuresTotal.Inc()
		zap.L().Error("tenant config decrypt failed",
			zap.String("plugin_id", r.meta.ID),
			zap.String("field", field),
			zap.Error(err))
		return "", fmt.Errorf("tenant: decrypt %s for plugin %s: %w", field, r.meta.ID, err)
	}
	return plain, nil
}

//
// lazyString
//

// lazyString caches the first successful result of a compute func.
type lazyString struct {
	mu   sync.Mutex
	done bool
	val  string
}

func (l *lazyString) get(compute func() (string, error)) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.val, nil
	}
	v, err := compute()
	if err != nil {
		return "", err
	}
	l.val, l.done = v, true
	return v, nil
}
