package site

import "time"

// Record mirrors one row in the persistent `site` table.  The operational
// state is captured by two nullable timestamps:
//
//   - SuspendedAt – site is temporarily disabled (e.g., billing).
//   - DeletedAt   – site is permanently removed.
//
// Either timestamp being non-NULL hides the site from the directory.
//
// Dir is the site's storage folder relative to `storage.site_root`.  The
// root site has an empty Dir.  APIURL is the outward-facing API base used
// when building plugin URLs.
type Record struct {
	ID           int        `db:"id"`
	Host         string     `db:"host"`
	Dir          string     `db:"dir"`
	Title        string     `db:"title"`
	Locale       string     `db:"locale"`
	APIURL       string     `db:"api_url"`
	KeepFileName bool       `db:"keep_file_name"`
	SuspendedAt  *time.Time `db:"suspended_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsRoot reports whether the site is served from the storage root.
func (r *Record) IsRoot() bool { return r.Dir == "" }
