// Package db provides PostgreSQL storage for generation task history.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS content_tasks (
	id                     UUID PRIMARY KEY,
	content_type           TEXT NOT NULL,
	platform               TEXT NOT NULL,
	brand_voice            TEXT NOT NULL,
	topic                  TEXT NOT NULL,
	score                  DOUBLE PRECISION NOT NULL,
	optimization_type      TEXT NOT NULL,
	optimization_performed BOOLEAN NOT NULL DEFAULT FALSE,
	generation_seconds     DOUBLE PRECISION NOT NULL DEFAULT 0,
	result                 JSONB NOT NULL,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS content_tasks_created_at_idx ON content_tasks (created_at DESC);
`

// EnsureSchema creates the task table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
