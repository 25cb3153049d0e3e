// internal/plugin/registry.go
//
// Plugin registry (cycle-free).
//
// Manifests discovered at boot are registered here, keyed by plugin id.
// The host cache looks plugins up by id when a Runtime Context is first
// requested.  Register replaces an existing entry with the same id.

package plugin

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when no plugin with the requested id is registered.
var ErrNotFound = errors.New("plugin not found")

// Registry is safe for concurrent use.  Zero value is ready.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Metadata
}

// NewRegistry returns a registry pre-filled with metas.
func NewRegistry(metas ...*Metadata) *Registry {
	r := &Registry{}
	for _, m := range metas {
		r.Register(m)
	}
	return r
}

// Register stores m under m.ID.
func (r *Registry) Register(m *Metadata) {
	r.mu.Lock()
	if r.plugins == nil {
		r.plugins = make(map[string]*Metadata)
	}
	r.plugins[m.ID] = m
	r.mu.Unlock()
}

// Get returns the metadata for id.
func (r *Registry) Get(id string) (*Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.plugins[id]; ok {
		return m, nil
	}
	return nil, ErrNotFound
}

// All returns every registered plugin sorted by id.
func (r *Registry) All() []*Metadata {
	r.mu.RLock()
	out := make([]*Metadata, 0, len(r.plugins))
	for _, m := range r.plugins {
		out = append(out, m)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
