package site

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var sqlmockNow = time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

var siteCols = []string{
	"id", "host", "dir", "title", "locale", "api_url", "keep_file_name",
	"suspended_at", "deleted_at", "created_at", "updated_at",
}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestSQLDirectory_ByID_Caches(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE  id = ?`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(siteCols).
			AddRow(7, "a.example", "a", "A", "en_US", "https://a.example/api", false, nil, nil, sqlmockNow, sqlmockNow))

	d := NewSQLDirectory(db, "/srv/sites", 8)
	for i := 0; i < 2; i++ {
		rec, err := d.ByID(context.Background(), 7)
		if err != nil {
			t.Fatalf("ByID: %v", err)
		}
		if rec.Dir != "a" || rec.APIURL != "https://a.example/api" {
			t.Fatalf("unexpected record: %+v", rec)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLDirectory_ExpiredEntryRequeries(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE  id = ?`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(siteCols).
			AddRow(7, "a.example", "a", "A", "en_US", "", false, nil, nil, sqlmockNow, sqlmockNow))
	// The site is soft-deleted after the first lookup.
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE  id = ?`)).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	now := sqlmockNow
	d := NewSQLDirectory(db, "/srv/sites", 8)
	d.now = func() time.Time { return now }

	if _, err := d.ByID(context.Background(), 7); err != nil {
		t.Fatalf("ByID: %v", err)
	}
	now = now.Add(CacheTTL - time.Second)
	if _, err := d.ByID(context.Background(), 7); err != nil {
		t.Fatalf("ByID within TTL: %v", err)
	}
	now = now.Add(2 * time.Second)
	if _, err := d.ByID(context.Background(), 7); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound after TTL", err)
	}
	if d.lru.Len() != 0 {
		t.Fatalf("expired entry still cached")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLDirectory_ByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE  id = ?`)).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	d := NewSQLDirectory(db, "/srv/sites", 8)
	if _, err := d.ByID(context.Background(), 9); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := d.ByID(context.Background(), 0); err != ErrNotFound {
		t.Fatalf("id 0: err = %v, want ErrNotFound", err)
	}
}

func TestSQLDirectory_IDs(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3).AddRow(4))

	d := NewSQLDirectory(db, "/srv/sites", 8)
	ids, err := d.IDs(context.Background())
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 4 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestMatchPath(t *testing.T) {
	root := filepath.FromSlash("/srv/sites")
	sites := []Record{
		{ID: 1, Dir: ""},
		{ID: 2, Dir: "blog"},
		{ID: 3, Dir: "shop/"},
	}

	cases := []struct {
		path string
		want int
	}{
		{"/srv/sites/blog/upload/a.png", 2},
		{"/srv/sites/shop/index.html", 3},
		{"/srv/sites/index.html", 1},
		{"/srv/sites/unknown/x.png", 1},
		{"/etc/passwd", 0},
	}
	for _, c := range cases {
		got := MatchPath(sites, root, filepath.FromSlash(c.path))
		id := 0
		if got != nil {
			id = got.ID
		}
		if id != c.want {
			t.Errorf("MatchPath(%q) = %d, want %d", c.path, id, c.want)
		}
	}

	if MatchPath(sites[1:], root, filepath.FromSlash("/srv/sites/none/x")) != nil {
		t.Errorf("expected nil without a root site")
	}
}
