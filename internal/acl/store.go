// internal/acl/store.go
//
// Query helpers for role-based access control.
//
// Context
// -------
// The ACL model lives in the control-plane database:
//
//	role             (id PK, name, enabled)
//	role_acl         (role_id, component, action, permitted)
//	role_plugin_acl  (role_id, plugin_id, site_id, permitted)
//	user_role        (user_id, role_id)
//
// role_acl answers admin-surface questions ("may this user configure
// plugins at all").  role_plugin_acl answers the per-plugin question the
// Runtime Context asks.  Its site_id column is 0 for a plugin-wide grant;
// a site-scoped check matches (plugin_id, site_id) exactly and does not
// fall back to the plugin-wide row.
//
// Notes
// -----
//   - Queries are written with "?" and rebound through sqlx, so the same
//     helpers serve MySQL and Postgres.
//   - Disabled roles never grant anything.
//   - Oxford commas, two spaces after periods.
package acl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// UserRoles returns the enabled role names bound to userID.
func UserRoles(ctx context.Context, db *sqlx.DB, userID int64) ([]string, error) {
	q := db.Rebind(`SELECT r.name
                 FROM user_role ur
                 JOIN role r ON r.id = ur.role_id
                WHERE ur.user_id = ? AND r.enabled = TRUE`)

	roles := make([]string, 0, 4)
	if err := db.SelectContext(ctx, &roles, q, userID); err != nil {
		return nil, err
	}
	return roles, nil
}

// RoleAllowed reports whether any of roles is permitted for component and
// action.  An empty roles slice returns false, nil.
func RoleAllowed(ctx context.Context, db *sqlx.DB, roles []string, component, action string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	q, args, err := sqlx.In(`SELECT 1
            FROM role_acl ra
            JOIN role r ON r.id = ra.role_id
           WHERE r.name IN (?)
             AND ra.component = ?
             AND ra.action    = ?
             AND ra.permitted = TRUE
           LIMIT 1`, roles, component, action)
	if err != nil {
		return false, err
	}
	return exists(ctx, db, db.Rebind(q), args...)
}

// PluginAllowed reports whether any of roles holds the plugin permission
// named by key.  An empty roles slice returns false, nil.
func PluginAllowed(ctx context.Context, db *sqlx.DB, roles []string, key Key) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	q, args, err := sqlx.In(`SELECT 1
            FROM role_plugin_acl pa
            JOIN role r ON r.id = pa.role_id
           WHERE r.name IN (?)
             AND r.enabled    = TRUE
             AND pa.plugin_id = ?
             AND pa.site_id   = ?
             AND pa.permitted = TRUE
           LIMIT 1`, roles, key.PluginID, key.SiteID)
	if err != nil {
		return false, err
	}
	return exists(ctx, db, db.Rebind(q), args...)
}

func exists(ctx context.Context, db *sqlx.DB, q string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SQLAuthorizer implements Authorizer against the ACL tables.
type SQLAuthorizer struct {
	db *sqlx.DB
}

// NewSQLAuthorizer wraps db.
func NewSQLAuthorizer(db *sqlx.DB) *SQLAuthorizer {
	return &SQLAuthorizer{db: db}
}

// HasPermission resolves userID's roles and checks key against them.  An
// unknown user has no roles and is denied.
func (a *SQLAuthorizer) HasPermission(ctx context.Context, userID int64, key Key) (bool, error) {
	roles, err := UserRoles(ctx, a.db, userID)
	if err != nil {
		return false, err
	}
	return PluginAllowed(ctx, a.db, roles, key)
}

// HasRolePermission checks the component/action table for userID.
func (a *SQLAuthorizer) HasRolePermission(ctx context.Context, userID int64, component, action string) (bool, error) {
	roles, err := UserRoles(ctx, a.db, userID)
	if err != nil {
		return false, err
	}
	return RoleAllowed(ctx, a.db, roles, component, action)
}
