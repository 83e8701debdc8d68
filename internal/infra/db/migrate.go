package db

import (
	"context"
	"database/sql"
	"fmt"
)

// MigrateUp creates the schema for dialect. It is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB, dialect Dialect) error {
	timestamp := "TIMESTAMPTZ NOT NULL DEFAULT now()"
	if dialect == SQLite {
		timestamp = "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"
	}

	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS sites (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    url          TEXT NOT NULL,
    username     TEXT NOT NULL,
    app_password TEXT NOT NULL,
    created_at   ` + timestamp + `,
    UNIQUE (url, username)
)`,
		`CREATE INDEX IF NOT EXISTS idx_sites_created_at ON sites(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}
	return nil
}

// MigrateDown drops the schema. All site data is lost.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`DROP INDEX IF EXISTS idx_sites_created_at`,
		`DROP TABLE IF EXISTS sites`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}
