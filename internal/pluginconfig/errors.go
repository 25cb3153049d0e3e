package pluginconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyName is returned when a config name is empty.  No storage is
	// touched.
	ErrEmptyName = errors.New("pluginconfig: config name is empty")

	// ErrInvalidTarget is returned when a decode target is not a non-nil
	// pointer.
	ErrInvalidTarget = errors.New("pluginconfig: decode target must be a non-nil pointer")

	// ErrDuplicate is returned by MemoryRepository.Insert for an existing key.
	ErrDuplicate = errors.New("pluginconfig: duplicate key")
)

// PersistenceError wraps a backend or codec failure with the key involved.
type PersistenceError struct {
	Op       string // set, get, remove, encode, decode, names, purge
	PluginID string
	SiteID   int
	Name     string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("pluginconfig: %s %s/%d/%s: %v", e.Op, e.PluginID, e.SiteID, e.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
