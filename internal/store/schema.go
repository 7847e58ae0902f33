package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// sqliteSchemaV1 stores one row per analysis. The full result is kept as
// JSON; the summary columns exist for listing and filtering.
const sqliteSchemaV1 = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,        -- fixed-width UTC timestamp
    subject_name TEXT NOT NULL DEFAULT '',
    narrative TEXT NOT NULL,
    interpretation TEXT NOT NULL DEFAULT '',
    percentile INTEGER NOT NULL DEFAULT 0,
    severity TEXT NOT NULL DEFAULT '',
    result TEXT NOT NULL             -- JSON
);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_subject ON analyses(subject_name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// postgresSchemaV1 mirrors sqliteSchemaV1 with native types.
const postgresSchemaV1 = `
CREATE TABLE IF NOT EXISTS wingman_analyses (
    id UUID PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL,
    subject_name TEXT NOT NULL DEFAULT '',
    narrative TEXT NOT NULL,
    interpretation TEXT NOT NULL DEFAULT '',
    percentile INTEGER NOT NULL DEFAULT 0,
    severity TEXT NOT NULL DEFAULT '',
    result JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_wingman_analyses_created ON wingman_analyses(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_wingman_analyses_subject ON wingman_analyses(lower(subject_name));
`

// InitSchema creates the SQLite schema, or checks an existing database
// and migrates it forward.
func InitSchema(ctx context.Context, db *sql.DB) error {
	current, err := getSchemaVersion(ctx, db)
	if err != nil {
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
		return nil
	}

	if err := ValidateIntegrity(ctx, db); err != nil {
		return fmt.Errorf("database integrity check failed: %w", err)
	}

	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}
	return nil
}

// getSchemaVersion fails when the schema_version table does not exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqliteSchemaV1); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return tx.Commit()
}

// ValidateIntegrity runs PRAGMA integrity_check and reports the first problem.
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return fmt.Errorf("running integrity_check: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return fmt.Errorf("scanning integrity_check result: %w", err)
		}
		if result != "ok" {
			return fmt.Errorf("integrity_check failed: %s", result)
		}
	}
	return rows.Err()
}
