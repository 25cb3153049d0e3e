// internal/bootstrap/bootstrap.go
//
// Process wiring shared by cmd/web and cmd/pluginctl.
//
// Context
// -------
// Open turns a loaded Config into a ready Runtime:
//
//  1. Resolve `vault:` references (only when some are present).
//  2. Build the secret resolver from `security.secret_key`.
//  3. Open the control-plane pool with the default driver.
//  4. Load plugin manifests into a Registry.
//  5. Assemble pluginapi.Deps from the SQL collaborators.
//  6. Build the host cache that hands out one Runtime Context per plugin.
//
// Notes
// -----
//   - Close releases everything Open acquired, in reverse order.
//   - Oxford commas, two spaces after periods.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/acl"
	"github.com/yanizio/adept/internal/config"
	"github.com/yanizio/adept/internal/content"
	"github.com/yanizio/adept/internal/database"
	"github.com/yanizio/adept/internal/diagnostics"
	"github.com/yanizio/adept/internal/files"
	"github.com/yanizio/adept/internal/host"
	"github.com/yanizio/adept/internal/paths"
	"github.com/yanizio/adept/internal/plugin"
	"github.com/yanizio/adept/internal/pluginapi"
	"github.com/yanizio/adept/internal/pluginconfig"
	"github.com/yanizio/adept/internal/secret"
	"github.com/yanizio/adept/internal/site"
	"github.com/yanizio/adept/internal/vault"
)

// Runtime bundles the long-lived process objects.
type Runtime struct {
	Config   *config.Config
	DB       *sqlx.DB
	Driver   database.Driver
	Secrets  *secret.Resolver
	Registry *plugin.Registry
	Authz    *acl.SQLAuthorizer
	Sites    *site.SQLDirectory
	Deps     pluginapi.Deps
	Contexts *host.Cache
}

// Open wires a Runtime from cfg.  cfg is modified in place when it holds
// Vault references.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if cfg.HasRefs() {
		vc, err := vault.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: vault: %w", err)
		}
		if err := cfg.ResolveRefs(ctx, vc); err != nil {
			return nil, err
		}
	}

	rt := &Runtime{Config: cfg}

	secrets, err := Secrets(cfg)
	if err != nil {
		return nil, err
	}
	rt.Secrets = secrets

	rt.Driver = database.Select(cfg.Database.ControlType())
	db, err := database.OpenWithOptions(ctx, rt.Driver, cfg.Database.GlobalDSN, database.DefaultOptions)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: control database: %w", err)
	}
	rt.DB = db

	metas, err := plugin.LoadManifests(cfg.Plugins.Dir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: plugins: %w", err)
	}
	rt.Registry = plugin.NewRegistry(metas...)

	rt.Authz = acl.NewSQLAuthorizer(db)
	rt.Sites = site.NewSQLDirectory(db, cfg.Storage.SiteRoot, site.DefaultCacheSize)
	builder := paths.New(cfg.Storage.SiteRoot)

	rt.Deps = pluginapi.Deps{
		Defaults:    cfg.TenantDefaults(),
		ConfigRepo:  pluginconfig.NewSQLRepository(db, rt.Driver),
		Codec:       pluginconfig.JSONCodec{},
		Authorizer:  rt.Authz,
		Sites:       rt.Sites,
		Content:     content.NewSQLReader(db),
		Paths:       builder,
		Mover:       files.NewFSMover(builder.SiteDir),
		Diagnostics: diagnostics.NewZapRecorder(zap.L()),
		DBOptions:   database.PluginOptions,
	}
	if secrets != nil {
		rt.Deps.Secrets = secrets
	}

	rt.Contexts = host.New(rt.Registry, rt.Build, host.Options{
		IdleTTL:    cfg.Plugins.IdleTTL,
		MaxEntries: cfg.Plugins.MaxEntries,
	})

	zap.L().Info("plugin runtime ready",
		zap.Int("plugins", len(metas)),
		zap.Stringer("driver", rt.Driver),
		zap.Bool("protect_data", cfg.Security.ProtectData))
	return rt, nil
}

// Build constructs a Runtime Context for meta from the shared Deps.
func (rt *Runtime) Build(meta *plugin.Metadata) *pluginapi.Context {
	return pluginapi.New(meta, rt.Deps)
}

// Close releases the cache and the control-plane pool.
func (rt *Runtime) Close() {
	if rt.Contexts != nil {
		rt.Contexts.Close()
	}
	if rt.DB != nil {
		_ = rt.DB.Close()
	}
}

// Secrets builds the resolver for cfg, or nil when no key is configured
// and protection is off.
func Secrets(cfg *config.Config) (*secret.Resolver, error) {
	if cfg.Security.SecretKey == "" {
		if cfg.Security.ProtectData {
			return nil, fmt.Errorf("bootstrap: %w", secret.ErrNoKey)
		}
		return nil, nil
	}
	r, err := secret.New(cfg.Security.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return r, nil
}
