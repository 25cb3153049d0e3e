// internal/database/driver.go
//
// Driver selection.
//
// Context
// -------
// A plugin's database type string comes from its metadata override or from
// the process default, possibly after decryption.  Select maps it onto one
// of two linked drivers.  Only the alternate type is matched explicitly;
// every other string, empty and garbage included, lands on the default.
// That fallback is intentional and never reported as an error.
//
// Notes
// -----
//   - Matching trims whitespace and ignores case.
//   - Oxford commas, two spaces after periods.
package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Type names a supported database flavour.
type Type string

const (
	MySQL    Type = "mysql"    // default variant
	Postgres Type = "postgres" // alternate variant
)

// Driver describes how to talk to one database flavour.
type Driver struct {
	Type       Type
	DriverName string // database/sql registration name
	BindType   int    // sqlx.QUESTION or sqlx.DOLLAR
}

var (
	mysqlDriver    = Driver{Type: MySQL, DriverName: "mysql", BindType: sqlx.QUESTION}
	postgresDriver = Driver{Type: Postgres, DriverName: "postgres", BindType: sqlx.DOLLAR}
)

// Select returns the driver for databaseType, falling back to MySQL.
func Select(databaseType string) Driver {
	switch strings.ToLower(strings.TrimSpace(databaseType)) {
	case "postgres", "postgresql":
		return postgresDriver
	default:
		return mysqlDriver
	}
}

// Rebind converts a "?" query into this driver's placeholder style.
func (d Driver) Rebind(query string) string {
	return sqlx.Rebind(d.BindType, query)
}

// UpsertSQL builds an atomic insert-or-update statement for table in this
// driver's dialect and placeholder style.  keys must be covered by a unique
// index; vals are overwritten on conflict.  An updated_at column is set to
// CURRENT_TIMESTAMP on both paths.
func (d Driver) UpsertSQL(table string, keys, vals []string) string {
	cols := append(append([]string{}, keys...), vals...)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s, updated_at) VALUES (%s, CURRENT_TIMESTAMP)",
		table, strings.Join(cols, ", "), marks)

	sets := make([]string, 0, len(vals)+1)
	switch d.Type {
	case Postgres:
		for _, v := range vals {
			sets = append(sets, v+" = EXCLUDED."+v)
		}
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(keys, ", "), strings.Join(sets, ", "))
	default:
		for _, v := range vals {
			sets = append(sets, v+" = VALUES("+v+")")
		}
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		fmt.Fprintf(&b, " ON DUPLICATE KEY UPDATE %s", strings.Join(sets, ", "))
	}
	return d.Rebind(b.String())
}

// String implements fmt.Stringer.
func (d Driver) String() string { return string(d.Type) }
