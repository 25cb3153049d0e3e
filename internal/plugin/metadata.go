// internal/plugin/metadata.go
//
// Installed-plugin identity.
//
// Context
// -------
// Metadata is loaded once when a plugin registers and lives for the process
// lifetime.  The Runtime Context references it but never mutates it.  The
// two database fields are optional overrides of the process defaults; when
// `security.protect_data` is on they hold enc:v1: ciphertext.
//
// Notes
// -----
//   - Struct tags serve both yaml.v3 (manifest files) and validator/v10.
//   - Oxford commas, two spaces after periods.
package plugin

import "github.com/yanizio/adept/internal/schema"

// Metadata mirrors one plugin.yaml manifest.
type Metadata struct {
	ID               string `yaml:"id"                validate:"required,max=64,excludesall=/\\ "`
	Name             string `yaml:"name"              validate:"required"`
	Version          string `yaml:"version"`
	Description      string `yaml:"description"`
	DatabaseType     string `yaml:"database_type"`
	ConnectionString string `yaml:"connection_string"`

	// ConfigSchema maps config names to JSON Schema documents.
	ConfigSchema map[string]any `yaml:"config_schema"`

	Dir     string      `yaml:"-"` // directory the manifest was read from
	Schemas *schema.Set `yaml:"-"` // compiled ConfigSchema, nil when empty
}

// DisplayName returns Name, or ID when the manifest left Name blank.
func (m *Metadata) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
