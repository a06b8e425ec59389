package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the SQLite tables for stored trips and the response
// cache.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return execSchema(ctx, db, []string{
		`
		CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			payload TEXT NOT NULL
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_trips_created_at
		ON trips(created_at);
		`,
		`
		CREATE TABLE IF NOT EXISTS response_cache (
			cache_key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		);
		`,
	})
}

// InitPostgresSchema creates the same tables on Postgres.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	return execSchema(ctx, db, []string{
		`
		CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			payload JSONB NOT NULL
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_trips_created_at
		ON trips(created_at);
		`,
		`
		CREATE TABLE IF NOT EXISTS response_cache (
			cache_key TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			expires_at BIGINT NOT NULL
		);
		`,
	})
}

func execSchema(ctx context.Context, db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
