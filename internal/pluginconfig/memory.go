package pluginconfig

import (
	"context"
	"sort"
	"sync"
)

type memKey struct {
	pluginID string
	siteID   int
	name     string
}

// MemoryRepository is an in-process Repository used by tests.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[memKey]string
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[memKey]string)}
}

func (m *MemoryRepository) Exists(_ context.Context, pluginID string, siteID int, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[memKey{pluginID, siteID, name}]
	return ok, nil
}

func (m *MemoryRepository) Insert(_ context.Context, pluginID string, siteID int, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey{pluginID, siteID, name}
	if _, ok := m.rows[k]; ok {
		return ErrDuplicate
	}
	m.rows[k] = value
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, pluginID string, siteID int, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey{pluginID, siteID, name}
	if _, ok := m.rows[k]; ok {
		m.rows[k] = value
	}
	return nil
}

func (m *MemoryRepository) Upsert(_ context.Context, pluginID string, siteID int, name, value string) error {
	m.mu.Lock()
	m.rows[memKey{pluginID, siteID, name}] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, pluginID string, siteID int, name string) error {
	m.mu.Lock()
	delete(m.rows, memKey{pluginID, siteID, name})
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Value(_ context.Context, pluginID string, siteID int, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[memKey{pluginID, siteID, name}]
	return v, ok, nil
}

func (m *MemoryRepository) Names(_ context.Context, pluginID string, siteID int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := []string{}
	for k := range m.rows {
		if k.pluginID == pluginID && k.siteID == siteID {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryRepository) DeleteAll(_ context.Context, pluginID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.rows {
		if k.pluginID == pluginID {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored rows.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
