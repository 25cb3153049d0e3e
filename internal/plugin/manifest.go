// internal/plugin/manifest.go
//
// Manifest discovery.
//
// Context
// -------
// Every installed plugin lives in `<plugins.dir>/<id>/` and ships a
// `plugin.yaml`:
//
//	id: sitemap
//	name: Sitemap Generator
//	version: 1.2.0
//	database_type: postgres               # optional override
//	connection_string: enc:v1:Zm9v...     # optional override
//	config_schema:                        # optional, per config name
//	  sitemap: { type: object }
//
// LoadManifests walks the first level of the directory, parses each
// manifest with yaml.v3, validates it, and checks that the id matches the
// directory name.  Directories without a manifest are skipped.  A broken
// manifest aborts discovery so operators notice at boot.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yanizio/adept/internal/schema"
)

// ManifestFile is the per-plugin manifest name.
const ManifestFile = "plugin.yaml"

var v = validator.New()

// ParseManifest decodes and validates one manifest.
func ParseManifest(data []byte) (*Metadata, error) {
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("plugin: parse manifest: %w", err)
	}
	if err := v.Struct(&m); err != nil {
		return nil, fmt.Errorf("plugin: validate manifest: %w", err)
	}
	set, err := schema.Compile(m.ConfigSchema)
	if err != nil {
		return nil, fmt.Errorf("plugin: manifest %s: %w", m.ID, err)
	}
	m.Schemas = set
	return &m, nil
}

// LoadManifests reads every <dir>/<id>/plugin.yaml, sorted by id.
func LoadManifests(dir string) ([]*Metadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("plugin: read dir %s: %w", dir, err)
	}

	var out []*Metadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pluginDir := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(filepath.Join(pluginDir, ManifestFile))
		if errors.Is(err, os.ErrNotExist) {
			zap.S().Debugw("plugin dir without manifest", "dir", pluginDir)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("plugin: read manifest in %s: %w", pluginDir, err)
		}

		m, err := ParseManifest(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pluginDir, err)
		}
		if m.ID != e.Name() {
			return nil, fmt.Errorf("plugin: manifest id %q does not match directory %q", m.ID, e.Name())
		}
		m.Dir = pluginDir
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	zap.S().Infow("plugin manifests loaded", "dir", dir, "count", len(out))
	return out, nil
}
