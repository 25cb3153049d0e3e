// internal/site/directory.go
//
// Site directory collaborator.
//
// Context
// -------
// The Runtime Context resolves sites by id, by filesystem path, and lists
// active ids.  SQLDirectory answers from the control-plane database and
// keeps recently used records in an LRU for CacheTTL.  Concurrent misses
// for the same id are collapsed with singleflight.
//
// Path matching
// -------------
// A path under `storage.site_root` belongs to the site whose Dir is the
// first path segment below the root.  Paths that match no site Dir fall
// back to the root site (empty Dir) when one exists.
//
// Notes
// -----
//   - A suspended or deleted site reads as ErrNotFound at most CacheTTL
//     after the change.
//   - Oxford commas, two spaces after periods.
package site

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/adept/internal/cache"
)

// ErrNotFound is returned when no active site matches.
var ErrNotFound = errors.New("site not found")

// Directory is the read-only site lookup the Runtime Context consumes.
type Directory interface {
	ByID(ctx context.Context, id int) (*Record, error)
	ByPath(ctx context.Context, path string) (*Record, error)
	IDs(ctx context.Context) ([]int, error)
}

// DefaultCacheSize bounds the SQLDirectory LRU.
const DefaultCacheSize = 256

// CacheTTL is how long a resolved record is served without re-reading.
const CacheTTL = 30 * time.Second

type cached struct {
	rec *Record
	exp time.Time
}

// SQLDirectory implements Directory over the `site` table.
type SQLDirectory struct {
	db   *sqlx.DB
	root string // storage.site_root
	lru  *cache.LRU[int, cached]
	sfg  singleflight.Group
	now  func() time.Time
}

// NewSQLDirectory returns a directory rooted at siteRoot.
func NewSQLDirectory(db *sqlx.DB, siteRoot string, cacheSize int) *SQLDirectory {
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}
	return &SQLDirectory{
		db:   db,
		root: filepath.Clean(siteRoot),
		lru:  cache.New[int, cached](cacheSize),
		now:  time.Now,
	}
}

// ByID returns the active site with id.
func (d *SQLDirectory) ByID(ctx context.Context, id int) (*Record, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	if c, ok := d.lru.Get(id); ok {
		if d.now().Before(c.exp) {
			return c.rec, nil
		}
		d.lru.Remove(id)
	}

	v, err, _ := d.sfg.Do(strconv.Itoa(id), func() (any, error) {
		rec, err := ByID(ctx, d.db, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		d.remember(rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// ByPath returns the site owning the filesystem path.
func (d *SQLDirectory) ByPath(ctx context.Context, path string) (*Record, error) {
	all, err := AllActive(ctx, d.db)
	if err != nil {
		return nil, err
	}
	rec := MatchPath(all, d.root, path)
	if rec == nil {
		return nil, ErrNotFound
	}
	d.remember(rec)
	return rec, nil
}

// IDs lists active site ids in ascending order.
func (d *SQLDirectory) IDs(ctx context.Context) ([]int, error) {
	return ActiveIDs(ctx, d.db)
}

func (d *SQLDirectory) remember(rec *Record) {
	d.lru.Add(rec.ID, cached{rec: rec, exp: d.now().Add(CacheTTL)})
}

// MatchPath picks the record owning path below root, or nil.
func MatchPath(sites []Record, root, path string) *Record {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]

	var rootSite *Record
	for i := range sites {
		s := &sites[i]
		if s.IsRoot() {
			if rootSite == nil {
				rootSite = s
			}
			continue
		}
		if strings.EqualFold(strings.Trim(s.Dir, "/"), first) {
			return s
		}
	}
	return rootSite
}
