// Package database centralises sqlx connection helpers.  Two drivers are
// linked in: go-sql-driver/mysql (the default, also fine for MariaDB) and
// lib/pq for PostgreSQL.  Which one a pool uses is decided by Select.
//
// OpenWithOptions(ctx, driver, dsn, opts) opens a pool sized by opts;
// DefaultOptions suits the control plane and PluginOptions suits plugin
// pools.  It Pings the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Options tunes one pool.  Zero fields fall back to the Open defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra ping attempts after the first
	RetryBackoff    time.Duration // sleep between attempts
}

// DefaultOptions are used by Open: 15 max open, 5 idle, and a 30-minute
// connection lifetime.  Suitable for process-wide pools.
var DefaultOptions = Options{
	MaxOpenConns:    15,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
}

// PluginOptions keep per-plugin pools small.
var PluginOptions = Options{
	MaxOpenConns:    5,
	MaxIdleConns:    2,
	ConnMaxLifetime: 30 * time.Minute,
	Retries:         2,
	RetryBackoff:    500 * time.Millisecond,
}

// OpenWithOptions opens a pool for d and pings it, retrying per opts.
func OpenWithOptions(ctx context.Context, d Driver, dsn string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", d.Type, err)
	}

	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = DefaultOptions.MaxOpenConns
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = DefaultOptions.MaxIdleConns
	}
	if opts.ConnMaxLifetime == 0 {
		opts.ConnMaxLifetime = DefaultOptions.ConnMaxLifetime
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= opts.Retries {
			break
		}
		zap.L().Warn("database ping failed, retrying",
			zap.String("driver", d.DriverName),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryBackoff):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database: ping %s: %w", d.Type, err)
}
