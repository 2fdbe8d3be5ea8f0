// Package postgres stores the source registry and event log in PostgreSQL.
// It persists the same column layout and string encodings as the CSV and
// SQLite backends, so the three are interchangeable behind the core
// interfaces.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
)

const schema = `
CREATE TABLE IF NOT EXISTS registry (
    id BIGSERIAL PRIMARY KEY,
    sheet_name TEXT NOT NULL UNIQUE,
    sheet_url TEXT NOT NULL,
    status TEXT NOT NULL,
    kpis TEXT NOT NULL,
    thresholds TEXT NOT NULL,
    onboard_date TEXT NOT NULL,
    last_sync_date TEXT NOT NULL DEFAULT '',
    offboard_date TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    timestamp TEXT NOT NULL,
    sheet_name TEXT NOT NULL,
    error_type TEXT NOT NULL,
    error_message TEXT NOT NULL,
    status TEXT NOT NULL,
    resolution TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_sheet_name ON events (sheet_name);

CREATE TABLE IF NOT EXISTS events_archive (
    id BIGSERIAL PRIMARY KEY,
    timestamp TEXT NOT NULL,
    sheet_name TEXT NOT NULL,
    error_type TEXT NOT NULL,
    error_message TEXT NOT NULL,
    status TEXT NOT NULL,
    resolution TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_archive_sheet_name ON events_archive (sheet_name);
`

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool for dsn.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(err, "parsing dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errs.Wrap(err, "opening pool")
	}
	return &DB{Pool: pool}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ready reports whether the database answers queries.
func (db *DB) Ready(ctx context.Context) error {
	var one int
	return db.Pool.QueryRow(ctx, "select 1").Scan(&one)
}

// Migrate creates the registry and event tables if they are missing.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return errs.Wrap(err, "running migration")
	}
	return nil
}
