// Package database centralises sqlx connection helpers.  The backing store
// is the product's managed Postgres (Supabase exposes a vanilla Postgres
// wire), so the driver is lib/pq.
//
// Public entry points:
//
//	Open(ctx, dsn)                    – quick helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts)   – fine-grained control plus connect retry.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Options tunes one pool.  Zero values fall back to the defaults noted on
// each field.
type Options struct {
	MaxOpenConns    int           // default 15
	MaxIdleConns    int           // default 5
	ConnMaxLifetime time.Duration // default 30m
	Retries         int           // extra ping attempts after the first
	RetryBackoff    time.Duration // pause between ping attempts
}

// Open returns a *sqlx.DB with sane defaults.  Suitable for the process-wide
// pool or for test setups.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, Options{})
}

// OpenWithOptions lets callers tune the pool and gives the database a few
// chances to come up before bootstrap gives up (useful when the service and
// its database restart together).
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 15
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime == 0 {
		opts.ConnMaxLifetime = 30 * time.Minute
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
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
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryBackoff):
		}
	}
	_ = db.Close()
	return nil, err
}
