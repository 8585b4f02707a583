// Package storage implements the canonical store ports on Postgres.
// Queries are built with squirrel; every upsert is a single-row
// ON CONFLICT write so concurrent pipeline, sweep, and router passes
// interleave safely without multi-row transactions.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

// builder is the shared statement builder with Postgres placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the pipeline tables when they are absent.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			category_override TEXT NOT NULL DEFAULT '',
			product_url TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			blocked BOOLEAN NOT NULL DEFAULT FALSE,
			source_fetched_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS deals (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id),
			dedup_key TEXT NOT NULL UNIQUE,
			current_price_cents BIGINT NOT NULL,
			old_price_cents BIGINT,
			discount_percent INT,
			currency TEXT NOT NULL DEFAULT 'USD',
			starts_at TIMESTAMPTZ,
			expires_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			suppressed BOOLEAN NOT NULL DEFAULT FALSE,
			approved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS deals_status_idx ON deals (status)`,
		`CREATE INDEX IF NOT EXISTS deals_expires_at_idx ON deals (expires_at)`,
		`CREATE TABLE IF NOT EXISTS ingestion_runs (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			site_key TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ,
			error TEXT NOT NULL DEFAULT '',
			products_processed INT NOT NULL DEFAULT 0,
			deals_processed INT NOT NULL DEFAULT 0,
			records_dropped INT NOT NULL DEFAULT 0,
			unresolved_refs INT NOT NULL DEFAULT 0,
			metadata JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS automation_gates (
			site_key TEXT PRIMARY KEY,
			ingestion_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			auto_publish_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			unaffiliated_auto_publish_enabled BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
