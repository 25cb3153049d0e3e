// internal/site/repository.go
//
// Site-table query helpers.
//
// Context
// -------
// These functions provide read-only access to the **site** table.  All of
// them exclude suspended or deleted rows at SQL level to keep callers
// simple.
//
//   - `AllActive`: directory warm-up, path matching, admin tooling.
//   - `ByID`: Runtime Context lookups.
//   - `ActiveIDs`: ordered id listing for plugins.
//
// Notes
// -----
//   - Column list matches the fields in `Record`; update both together.
//   - Errors are returned verbatim; callers decide what to log.
//   - Oxford commas, two spaces after periods.
package site

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const selectColumns = `
        SELECT id, host, dir, title, locale, api_url, keep_file_name,
               suspended_at, deleted_at, created_at, updated_at
        FROM   site`

// AllActive returns every site that is neither suspended nor deleted,
// ordered by id.
func AllActive(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	q := selectColumns + `
        WHERE  suspended_at IS NULL
          AND  deleted_at   IS NULL
        ORDER  BY id`
	var rows []Record
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// ByID fetches a single active site row.
func ByID(ctx context.Context, db *sqlx.DB, id int) (*Record, error) {
	q := db.Rebind(selectColumns + `
        WHERE  id = ?
          AND  suspended_at IS NULL
          AND  deleted_at   IS NULL
        LIMIT  1`)
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ActiveIDs returns the ids of all active sites in ascending order.
func ActiveIDs(ctx context.Context, db *sqlx.DB) ([]int, error) {
	const q = `
        SELECT id
        FROM   site
        WHERE  suspended_at IS NULL
          AND  deleted_at   IS NULL
        ORDER  BY id`
	ids := make([]int, 0, 8)
	if err := db.SelectContext(ctx, &ids, q); err != nil {
		return nil, err
	}
	return ids, nil
}
