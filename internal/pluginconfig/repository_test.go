package pluginconfig

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/adept/internal/database"
)

func newMockRepo(t *testing.T, dbType string) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	d := database.Select(dbType)
	return NewSQLRepository(sqlx.NewDb(db, d.DriverName), d), mock
}

func TestSQLRepository_Upsert_MySQL(t *testing.T) {
	repo, mock := newMockRepo(t, "mysql")
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE config_value = VALUES(config_value)")).
		WithArgs("seo", int64(3), "opts", `{"a":1}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Upsert(context.Background(), "seo", 3, "opts", `{"a":1}`); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLRepository_Upsert_Postgres(t *testing.T) {
	repo, mock := newMockRepo(t, "postgresql")
	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP) ON CONFLICT (plugin_id, site_id, config_name)")).
		WithArgs("seo", int64(0), "opts", `1`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Upsert(context.Background(), "seo", 0, "opts", `1`); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLRepository_Value(t *testing.T) {
	repo, mock := newMockRepo(t, "mysql")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT config_value FROM plugin_config")).
		WithArgs("seo", int64(1), "opts").
		WillReturnRows(sqlmock.NewRows([]string{"config_value"}).AddRow(`"x"`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT config_value FROM plugin_config")).
		WithArgs("seo", int64(1), "missing").
		WillReturnError(sql.ErrNoRows)

	v, ok, err := repo.Value(context.Background(), "seo", 1, "opts")
	if err != nil || !ok || v != `"x"` {
		t.Fatalf("Value = %q, %v, %v", v, ok, err)
	}
	v, ok, err = repo.Value(context.Background(), "seo", 1, "missing")
	if err != nil || ok || v != "" {
		t.Fatalf("missing Value = %q, %v, %v", v, ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLRepository_ValueError(t *testing.T) {
	repo, mock := newMockRepo(t, "mysql")
	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT config_value FROM plugin_config")).
		WillReturnError(boom)

	if _, _, err := repo.Value(context.Background(), "seo", 1, "opts"); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}

func TestSQLRepository_Exists(t *testing.T) {
	repo, mock := newMockRepo(t, "mysql")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM plugin_config")).
		WithArgs("seo", int64(2), "opts").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM plugin_config")).
		WithArgs("seo", int64(2), "nope").
		WillReturnError(sql.ErrNoRows)

	if ok, err := repo.Exists(context.Background(), "seo", 2, "opts"); err != nil || !ok {
		t.Fatalf("Exists(opts) = %v, %v", ok, err)
	}
	if ok, err := repo.Exists(context.Background(), "seo", 2, "nope"); err != nil || ok {
		t.Fatalf("Exists(nope) = %v, %v", ok, err)
	}
}

func TestSQLRepository_InsertUpdateDelete(t *testing.T) {
	repo, mock := newMockRepo(t, "postgres")
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO plugin_config (plugin_id, site_id, config_name, config_value, updated_at)")).
		WithArgs("seo", int64(4), "n", "1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET    config_value = $1")).
		WithArgs("2", "seo", int64(4), "n").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM plugin_config")).
		WithArgs("seo", int64(4), "n").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Insert(ctx, "seo", 4, "n", "1"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.Update(ctx, "seo", 4, "n", "2"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := repo.Delete(ctx, "seo", 4, "n"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLRepository_NamesAndDeleteAll(t *testing.T) {
	repo, mock := newMockRepo(t, "mysql")
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT config_name FROM plugin_config")).
		WithArgs("seo", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"config_name"}).AddRow("a").AddRow("b"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM plugin_config WHERE plugin_id = ?")).
		WithArgs("seo").
		WillReturnResult(sqlmock.NewResult(0, 5))

	names, err := repo.Names(ctx, "seo", 0)
	if err != nil || len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names = %v, %v", names, err)
	}
	n, err := repo.DeleteAll(ctx, "seo")
	if err != nil || n != 5 {
		t.Fatalf("DeleteAll = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
