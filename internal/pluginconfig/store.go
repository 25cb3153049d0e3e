// internal/pluginconfig/store.go
//
// Per-plugin config store.
//
// Context
// -------
// Every Runtime Context owns one Store bound to its plugin id.  Values are
// scoped by (site id, name); site id 0 is the global scope and is reached
// through the *Global helpers, which are thin calls with siteID 0.
//
// Two API layers exist:
//
//   - SetE, LoadE, RemoveE, NamesE, and PurgeE return typed errors
//     (ErrEmptyName, *PersistenceError) for callers that care.
//   - Set, Load, Remove, Names, Purge, and Get[T] swallow those errors,
//     hand them to the diagnostics Recorder, and return false or the zero
//     value.  Plugins use this layer; a broken config row must not break
//     the page that reads it.
//
// Notes
// -----
//   - A nil value, including a typed nil pointer, map, or slice, deletes
//     the entry.  So does a value that encodes to JSON null.
//   - Writes rely on Repository.Upsert being atomic.  There is no
//     check-then-insert here.
//   - A failed decode leaves the destination untouched.
//   - Oxford commas, two spaces after periods.
package pluginconfig

import (
	"context"
	"errors"
	"reflect"

	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/diagnostics"
	"github.com/yanizio/adept/internal/metrics"
	"github.com/yanizio/adept/internal/schema"
)

// GlobalSiteID is the site id used for plugin-wide entries.
const GlobalSiteID = 0

// Store reads and writes config entries for one plugin.
type Store struct {
	src     diagnostics.Source
	repo    Repository
	codec   Codec
	rec     diagnostics.Recorder
	schemas *schema.Set
}

// NewStore binds repo to src.PluginID.  A nil codec means JSONCodec; a nil
// recorder means a zap recorder on the global logger.
func NewStore(src diagnostics.Source, repo Repository, codec Codec, rec diagnostics.Recorder) *Store {
	if codec == nil {
		codec = JSONCodec{}
	}
	if rec == nil {
		rec = diagnostics.NewZapRecorder(nil)
	}
	return &Store{src: src, repo: repo, codec: codec, rec: rec}
}

// WithSchemas makes SetE reject values that fail the schema for their name.
// It returns s for chaining and must be called before the store is shared.
func (s *Store) WithSchemas(set *schema.Set) *Store {
	s.schemas = set
	return s
}

// PluginID returns the plugin the store is bound to.
func (s *Store) PluginID() string { return s.src.PluginID }

/* ------------------------------------------------------------------ */
/*  Strict API                                                         */
/* ------------------------------------------------------------------ */

// SetE stores v under (siteID, name).  A nil v deletes the entry.
func (s *Store) SetE(ctx context.Context, siteID int, name string, v any) error {
	if name == "" {
		count("set", ErrEmptyName)
		return ErrEmptyName
	}
	if isNil(v) {
		return s.RemoveE(ctx, siteID, name)
	}

	data, err := s.codec.Marshal(v)
	if err != nil {
		err = s.wrap("encode", siteID, name, err)
		count("set", err)
		return err
	}
	if isNull(data) {
		return s.RemoveE(ctx, siteID, name)
	}
	if err := s.schemas.Validate(name, data); err != nil {
		count("set", err)
		return err
	}

	if err := s.repo.Upsert(ctx, s.src.PluginID, siteID, name, string(data)); err != nil {
		err = s.wrap("set", siteID, name, err)
		count("set", err)
		return err
	}
	count("set", nil)
	return nil
}

// LoadE decodes the entry into dst, which must be a non-nil pointer.  It
// reports false with a nil error when the entry is missing or empty.
func (s *Store) LoadE(ctx context.Context, siteID int, name string, dst any) (bool, error) {
	if name == "" {
		count("get", ErrEmptyName)
		return false, ErrEmptyName
	}
	rv := reflect.ValueOf(dst)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		count("get", ErrInvalidTarget)
		return false, ErrInvalidTarget
	}

	raw, ok, err := s.repo.Value(ctx, s.src.PluginID, siteID, name)
	if err != nil {
		err = s.wrap("get", siteID, name, err)
		count("get", err)
		return false, err
	}
	if !ok || raw == "" {
		count("get", nil)
		return false, nil
	}

	// Decode into a scratch value so dst is untouched on failure.
	tmp := reflect.New(rv.Elem().Type())
	if err := s.codec.Unmarshal([]byte(raw), tmp.Interface()); err != nil {
		err = s.wrap("decode", siteID, name, err)
		count("get", err)
		return false, err
	}
	rv.Elem().Set(tmp.Elem())
	count("get", nil)
	return true, nil
}

// RemoveE deletes the entry.  Removing a missing entry is not an error.
func (s *Store) RemoveE(ctx context.Context, siteID int, name string) error {
	if name == "" {
		count("remove", ErrEmptyName)
		return ErrEmptyName
	}
	if err := s.repo.Delete(ctx, s.src.PluginID, siteID, name); err != nil {
		err = s.wrap("remove", siteID, name, err)
		count("remove", err)
		return err
	}
	count("remove", nil)
	return nil
}

// NamesE lists the config names stored for siteID.
func (s *Store) NamesE(ctx context.Context, siteID int) ([]string, error) {
	names, err := s.repo.Names(ctx, s.src.PluginID, siteID)
	if err != nil {
		return nil, s.wrap("names", siteID, "", err)
	}
	return names, nil
}

// PurgeE deletes every entry of the plugin across all sites.
func (s *Store) PurgeE(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx, s.src.PluginID)
	if err != nil {
		return 0, s.wrap("purge", 0, "", err)
	}
	zap.L().Info("plugin config purged",
		zap.String("plugin_id", s.src.PluginID),
		zap.Int64("rows", n))
	return n, nil
}

/* ------------------------------------------------------------------ */
/*  Boolean adapters                                                   */
/* ------------------------------------------------------------------ */

// Set is SetE with errors recorded and reported as false.
func (s *Store) Set(ctx context.Context, siteID int, name string, v any) bool {
	return s.ok(s.SetE(ctx, siteID, name, v))
}

// Load is LoadE with errors recorded.  It reports whether dst was filled.
func (s *Store) Load(ctx context.Context, siteID int, name string, dst any) bool {
	found, err := s.LoadE(ctx, siteID, name, dst)
	return s.ok(err) && found
}

// Remove is RemoveE with errors recorded and reported as false.
func (s *Store) Remove(ctx context.Context, siteID int, name string) bool {
	return s.ok(s.RemoveE(ctx, siteID, name))
}

// Names is NamesE with errors recorded and reported as nil.
func (s *Store) Names(ctx context.Context, siteID int) []string {
	names, err := s.NamesE(ctx, siteID)
	if !s.ok(err) {
		return nil
	}
	return names
}

// Purge is PurgeE with errors recorded and reported as false.
func (s *Store) Purge(ctx context.Context) bool {
	_, err := s.PurgeE(ctx)
	return s.ok(err)
}

// SetGlobal is Set with GlobalSiteID.
func (s *Store) SetGlobal(ctx context.Context, name string, v any) bool {
	return s.Set(ctx, GlobalSiteID, name, v)
}

// LoadGlobal is Load with GlobalSiteID.
func (s *Store) LoadGlobal(ctx context.Context, name string, dst any) bool {
	return s.Load(ctx, GlobalSiteID, name, dst)
}

// RemoveGlobal is Remove with GlobalSiteID.
func (s *Store) RemoveGlobal(ctx context.Context, name string) bool {
	return s.Remove(ctx, GlobalSiteID, name)
}

// Get returns the decoded entry, or the zero T when the name is empty, the
// entry is missing, or anything fails.
func Get[T any](ctx context.Context, s *Store, siteID int, name string) T {
	var v T
	s.Load(ctx, siteID, name, &v)
	return v
}

// GetGlobal is Get with GlobalSiteID.
func GetGlobal[T any](ctx context.Context, s *Store, name string) T {
	return Get[T](ctx, s, GlobalSiteID, name)
}

/* ------------------------------------------------------------------ */
/*  helpers                                                            */
/* ------------------------------------------------------------------ */

// ok records persistence faults and reports whether err was nil.  Empty
// names and schema rejections are caller mistakes and are not recorded.
func (s *Store) ok(err error) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrEmptyName) && !errors.Is(err, schema.ErrViolation) {
		s.rec.RecordError(s.src, err)
	}
	return false
}

func (s *Store) wrap(op string, siteID int, name string, err error) error {
	return &PersistenceError{Op: op, PluginID: s.src.PluginID, SiteID: siteID, Name: name, Err: err}
}

func count(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyName), errors.Is(err, ErrInvalidTarget), errors.Is(err, schema.ErrViolation):
		result = "invalid"
	default:
		result = "error"
	}
	metrics.ConfigOpsTotal.WithLabelValues(op, result).Inc()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
