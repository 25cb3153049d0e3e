// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `<root>/conf/.env` (cmd/web loads the jail-wide file first).
  2. `conf/global.yaml`.
  3. Environment variables prefixed `ADEPT_`, where `__` maps to “.”
     (e.g., `ADEPT_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads through `Get()`.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay.
  • ERROR spans: YAML parse, env overlay, unmarshal, validation failures.
  • INFO span: final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Vault references
----------------
`ResolveRefs()` walks the string fields that may carry secrets
(`database.global_dsn`, `database.connection_string`, and
`security.secret_key`) and swaps any `vault:<mount>/<path>#<key>` value
for the secret it names.  The loader itself never talks to Vault, so
tests and the CLI can load config without a Vault server.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves ADEPT_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("ADEPT_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, validates, and caches Config.
func Load() (*Config, error) {
	return LoadFrom(rootDir())
}

// LoadFrom is Load with an explicit root directory.
func LoadFrom(root string) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: ADEPT_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("ADEPT_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, "ADEPT_"), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"database_type", cfg.Database.Type,
		"control_type", cfg.Database.ControlType(),
		"protect_data", cfg.Security.ProtectData,
		"plugins_dir", cfg.Plugins.Dir,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }

// applyDefaults fills optional fields left blank by every layer.
func applyDefaults(cfg *Config) {
	if cfg.Database.Type == "" {
		cfg.Database.Type = "mysql"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Plugins.Dir = cfg.Abs(cfg.Plugins.Dir)
	cfg.Storage.SiteRoot = cfg.Abs(cfg.Storage.SiteRoot)
}

// RefResolver swaps a reference string for the value it names.
// *vault.Client satisfies it.
type RefResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ResolveRefs resolves secret references in place.  Values without the
// `vault:` prefix pass through unchanged.
func (c *Config) ResolveRefs(ctx context.Context, r RefResolver) error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"database.global_dsn", &c.Database.GlobalDSN},
		{"database.connection_string", &c.Database.ConnectionString},
		{"security.secret_key", &c.Security.SecretKey},
	}
	for _, f := range fields {
		if !strings.HasPrefix(*f.ptr, "vault:") {
			continue
		}
		if r == nil {
			return fmt.Errorf("config: %s is a vault reference but no vault client is configured", f.name)
		}
		val, err := r.Resolve(ctx, *f.ptr)
		if err != nil {
			zap.S().Errorw("config vault reference failed", "field", f.name, "err", err)
			return fmt.Errorf("config: resolve %s: %w", f.name, err)
		}
		*f.ptr = val
	}
	return nil
}

// HasRefs reports whether any secret field still holds a vault reference.
func (c *Config) HasRefs() bool {
	for _, s := range []string{c.Database.GlobalDSN, c.Database.ConnectionString, c.Security.SecretKey} {
		if strings.HasPrefix(s, "vault:") {
			return true
		}
	}
	return false
}
