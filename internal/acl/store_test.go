// internal/acl/store_test.go
//
// Unit-tests for the ACL query helpers using sqlmock.
//
// Run: go test ./internal/acl -v

package acl

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T, driver string) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, driver), mock
}

func TestUserRoles(t *testing.T) {
	db, mock := newMock(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT r.name FROM user_role ur JOIN role r ON r.id = ur.role_id WHERE ur.user_id = ? AND r.enabled = TRUE`,
	)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("editor").AddRow("admin"))

	got, err := UserRoles(context.Background(), db, 42)
	if err != nil {
		t.Fatalf("UserRoles error: %v", err)
	}
	if len(got) != 2 || got[0] != "editor" || got[1] != "admin" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRoleAllowed(t *testing.T) {
	db, mock := newMock(t, "mysql")

	q := `SELECT 1 FROM role_acl ra JOIN role r ON r.id = ra.role_id WHERE r.name IN (?, ?) AND ra.component = ? AND ra.action = ? AND ra.permitted = TRUE LIMIT 1`
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs("editor", "admin", "plugins", "configure").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := RoleAllowed(context.Background(), db,
		[]string{"editor", "admin"}, "plugins", "configure")
	if err != nil {
		t.Fatalf("RoleAllowed error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok = true, got false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRoleAllowed_NoRoles(t *testing.T) {
	db, mock := newMock(t, "mysql")
	ok, err := RoleAllowed(context.Background(), db, nil, "plugins", "configure")
	if err != nil || ok {
		t.Fatalf("RoleAllowed(nil) = %v, %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL: %v", err)
	}
}

func TestPluginAllowed_SiteScopedPostgres(t *testing.T) {
	db, mock := newMock(t, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE r.name IN ($1) AND r.enabled = TRUE AND pa.plugin_id = $2 AND pa.site_id = $3`)).
		WithArgs("editor", "seo", int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := PluginAllowed(context.Background(), db, []string{"editor"}, SiteKey("seo", 12))
	if err != nil {
		t.Fatalf("PluginAllowed error: %v", err)
	}
	if ok {
		t.Fatalf("expected no grant")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLAuthorizer_HasPermission(t *testing.T) {
	db, mock := newMock(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM user_role ur`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("editor"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM role_plugin_acl pa`)).
		WithArgs("editor", "seo", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := NewSQLAuthorizer(db).HasPermission(context.Background(), 7, PluginKey("seo"))
	if err != nil || !ok {
		t.Fatalf("HasPermission = %v, %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLAuthorizer_UnknownUser(t *testing.T) {
	db, mock := newMock(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM user_role ur`)).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	ok, err := NewSQLAuthorizer(db).HasPermission(context.Background(), 999, PluginKey("seo"))
	if err != nil || ok {
		t.Fatalf("HasPermission = %v, %v", ok, err)
	}
}

func TestSQLAuthorizer_Error(t *testing.T) {
	db, mock := newMock(t, "mysql")
	boom := errors.New("db down")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM user_role ur`)).WillReturnError(boom)

	if _, err := NewSQLAuthorizer(db).HasRolePermission(context.Background(), 1, "plugins", "configure"); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}
