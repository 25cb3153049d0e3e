// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   - optional `.env`                         (dotenv values),
//   - `conf/global.yaml`                      (primary static file),
//   - `ADEPT_`-prefixed environment overrides (highest precedence).
//
// String values that begin with `vault:` are references, resolved through
// the Vault client by ResolveRefs before anything reads them.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
//   - Oxford commas, two spaces after periods.  No em-dash.
package config

import (
	"path/filepath"
	"time"

	"github.com/yanizio/adept/internal/tenant"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	UserHeader string `koanf:"user_header"` // trusted identity header, see auth.TrustedHeader
}

//
// Database section
//

// Database holds the control-plane DSN and the plugin tenant defaults.
//
// `GlobalDSN` reaches the CMS tables (site, channel, content, ACL, and
// plugin_config) and is opened with the `GlobalType` driver.  `Type` and
// `ConnectionString` are the process defaults every plugin inherits unless
// its manifest overrides them.  An empty `GlobalType` falls back to `Type`,
// so single-database installs set only one of them.
type Database struct {
	GlobalDSN        string `koanf:"global_dsn"        validate:"required"`
	GlobalType       string `koanf:"global_type"`
	Type             string `koanf:"type"`
	ConnectionString string `koanf:"connection_string"`
}

// ControlType returns the database type for GlobalDSN.
func (d Database) ControlType() string {
	if d.GlobalType != "" {
		return d.GlobalType
	}
	return d.Type
}

//
// Security section
//

// Security controls protected plugin overrides.
type Security struct {
	ProtectData bool   `koanf:"protect_data"`
	SecretKey   string `koanf:"secret_key" validate:"required_if=ProtectData true"`
}

//
// Plugins section
//

// Plugins locates manifests and sizes the Runtime Context cache.
type Plugins struct {
	Dir        string        `koanf:"dir"         validate:"required"`
	IdleTTL    time.Duration `koanf:"idle_ttl"`
	MaxEntries int           `koanf:"max_entries" validate:"gte=0"`
}

//
// Storage section
//

// Storage locates site folders on disk.
type Storage struct {
	SiteRoot string `koanf:"site_root" validate:"required"`
}

//
// Log section
//

// Log tunes the file logger.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or ADEPT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // ADEPT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Security Security `koanf:"security"`
	Plugins  Plugins  `koanf:"plugins"`
	Storage  Storage  `koanf:"storage"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// TenantDefaults returns the process-wide plugin defaults.  The value is a
// copy; later config reloads do not reach Runtime Contexts built from it.
func (c *Config) TenantDefaults() tenant.Defaults {
	return tenant.Defaults{
		DatabaseType:     c.Database.Type,
		ConnectionString: c.Database.ConnectionString,
		ProtectData:      c.Security.ProtectData,
	}
}

// Abs resolves p against Paths.Root unless it is already absolute.
func (c *Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}
