// internal/pluginconfig/repository.go
//
// Plugin config persistence.
//
// Context
// -------
// One row per (plugin_id, site_id, config_name).  site_id 0 holds global
// entries.  The unique index on the triple is what makes Upsert atomic:
// two concurrent writers of the same key both succeed and the last one
// wins, with no duplicate rows and no check-then-insert window.
//
// Schema reference
//
//	CREATE TABLE plugin_config (
//	    id            INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    plugin_id     VARCHAR(64)  NOT NULL,
//	    site_id       INT          NOT NULL DEFAULT 0,
//	    config_name   VARCHAR(255) NOT NULL,
//	    config_value  MEDIUMTEXT   NOT NULL,
//	    updated_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    UNIQUE KEY uq_plugin_config (plugin_id, site_id, config_name)
//	);
//
// Notes
// -----
//   - Exists, Insert, and Update complete the row-level contract; the Store
//     itself writes only through Upsert and Delete.
//   - Oxford commas, two spaces after periods.
package pluginconfig

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/adept/internal/database"
)

// Repository is the persistence collaborator behind Store.
type Repository interface {
	Exists(ctx context.Context, pluginID string, siteID int, name string) (bool, error)
	Insert(ctx context.Context, pluginID string, siteID int, name, value string) error
	Update(ctx context.Context, pluginID string, siteID int, name, value string) error
	Upsert(ctx context.Context, pluginID string, siteID int, name, value string) error
	Delete(ctx context.Context, pluginID string, siteID int, name string) error
	Value(ctx context.Context, pluginID string, siteID int, name string) (string, bool, error)
	Names(ctx context.Context, pluginID string, siteID int) ([]string, error)
	DeleteAll(ctx context.Context, pluginID string) (int64, error)
}

// SQLRepository implements Repository on the control-plane database.
type SQLRepository struct {
	db     *sqlx.DB
	driver database.Driver
	upsert string
}

// NewSQLRepository binds db with the dialect of d.
func NewSQLRepository(db *sqlx.DB, d database.Driver) *SQLRepository {
	return &SQLRepository{
		db:     db,
		driver: d,
		upsert: d.UpsertSQL("plugin_config",
			[]string{"plugin_id", "site_id", "config_name"},
			[]string{"config_value"}),
	}
}

// Exists reports whether a row exists for the key.
func (r *SQLRepository) Exists(ctx context.Context, pluginID string, siteID int, name string) (bool, error) {
	q := r.driver.Rebind(`
        SELECT 1 FROM plugin_config
        WHERE  plugin_id = ? AND site_id = ? AND config_name = ?
        LIMIT  1`)
	var one int
	err := r.db.QueryRowContext(ctx, q, pluginID, siteID, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert adds a new row.  Fails on a duplicate key.
func (r *SQLRepository) Insert(ctx context.Context, pluginID string, siteID int, name, value string) error {
	q := r.driver.Rebind(`
        INSERT INTO plugin_config (plugin_id, site_id, config_name, config_value, updated_at)
        VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	_, err := r.db.ExecContext(ctx, q, pluginID, siteID, name, value)
	return err
}

// Update rewrites an existing row.  Missing rows are left alone.
func (r *SQLRepository) Update(ctx context.Context, pluginID string, siteID int, name, value string) error {
	q := r.driver.Rebind(`
        UPDATE plugin_config
        SET    config_value = ?, updated_at = CURRENT_TIMESTAMP
        WHERE  plugin_id = ? AND site_id = ? AND config_name = ?`)
	_, err := r.db.ExecContext(ctx, q, value, pluginID, siteID, name)
	return err
}

// Upsert inserts or overwrites the row atomically.
func (r *SQLRepository) Upsert(ctx context.Context, pluginID string, siteID int, name, value string) error {
	_, err := r.db.ExecContext(ctx, r.upsert, pluginID, siteID, name, value)
	return err
}

// Delete removes the row.  Deleting a missing row is not an error.
func (r *SQLRepository) Delete(ctx context.Context, pluginID string, siteID int, name string) error {
	q := r.driver.Rebind(`
        DELETE FROM plugin_config
        WHERE  plugin_id = ? AND site_id = ? AND config_name = ?`)
	_, err := r.db.ExecContext(ctx, q, pluginID, siteID, name)
	return err
}

// Value returns the stored text and whether a row exists.
func (r *SQLRepository) Value(ctx context.Context, pluginID string, siteID int, name string) (string, bool, error) {
	q := r.driver.Rebind(`
        SELECT config_value FROM plugin_config
        WHERE  plugin_id = ? AND site_id = ? AND config_name = ?
        LIMIT  1`)
	var v string
	err := r.db.GetContext(ctx, &v, q, pluginID, siteID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Names lists config names for one plugin and site, sorted.
func (r *SQLRepository) Names(ctx context.Context, pluginID string, siteID int) ([]string, error) {
	q := r.driver.Rebind(`
        SELECT config_name FROM plugin_config
        WHERE  plugin_id = ? AND site_id = ?
        ORDER  BY config_name`)
	names := make([]string, 0, 8)
	if err := r.db.SelectContext(ctx, &names, q, pluginID, siteID); err != nil {
		return nil, err
	}
	return names, nil
}

// DeleteAll removes every row of pluginID, across all sites.
func (r *SQLRepository) DeleteAll(ctx context.Context, pluginID string) (int64, error) {
	q := r.driver.Rebind(`DELETE FROM plugin_config WHERE plugin_id = ?`)
	res, err := r.db.ExecContext(ctx, q, pluginID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
