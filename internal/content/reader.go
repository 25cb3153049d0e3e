// internal/content/reader.go
//
// Read-only channel and content lookups for plugins.  Every query is scoped
// by site_id so a plugin cannot read another site's rows by guessing ids.
// A missing row is reported as ErrNotFound; other errors are returned
// verbatim.

package content

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("content not found")

// Reader is the collaborator the Runtime Context consumes.
type Reader interface {
	Node(ctx context.Context, siteID, channelID int) (*Node, error)
	Item(ctx context.Context, siteID, channelID, contentID int) (*Item, error)
}

// SQLReader implements Reader with sqlx.
type SQLReader struct {
	db *sqlx.DB
}

// NewSQLReader wraps db.
func NewSQLReader(db *sqlx.DB) *SQLReader { return &SQLReader{db: db} }

// Node returns one channel of siteID.
func (r *SQLReader) Node(ctx context.Context, siteID, channelID int) (*Node, error) {
	q := r.db.Rebind(`
        SELECT id, site_id, parent_id, name, index_name, created_at
        FROM   channel
        WHERE  site_id = ? AND id = ?
        LIMIT  1`)
	var n Node
	if err := r.db.GetContext(ctx, &n, q, siteID, channelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Item returns one content row of siteID/channelID.
func (r *SQLReader) Item(ctx context.Context, siteID, channelID, contentID int) (*Item, error) {
	q := r.db.Rebind(`
        SELECT id, site_id, channel_id, title, body, checked, added_at, updated_at
        FROM   content
        WHERE  site_id = ? AND channel_id = ? AND id = ?
        LIMIT  1`)
	var it Item
	if err := r.db.GetContext(ctx, &it, q, siteID, channelID, contentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}
