package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is stored in PRAGMA user_version once Migrate succeeds.
const SchemaVersion = 1

// Timestamps are unix microseconds so that range predicates compare as integers.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT    NOT NULL CHECK (length(user_id) > 0),
		resource_id TEXT    NOT NULL CHECK (length(resource_id) > 0),
		status      TEXT    NOT NULL DEFAULT 'pending'
		            CHECK (status IN ('unknown', 'pending', 'confirmed', 'blocked')),
		start_us    INTEGER NOT NULL,
		end_us      INTEGER NOT NULL,
		note        TEXT    NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL,
		CHECK (start_us < end_us)
	)`,
	`CREATE INDEX IF NOT EXISTS reservations_resource_span
		ON reservations (resource_id, start_us, end_us)`,
	`CREATE INDEX IF NOT EXISTS reservations_user_id
		ON reservations (user_id, id)`,
	`CREATE INDEX IF NOT EXISTS reservations_status_id
		ON reservations (status, id)`,
}

// Migrate brings the schema up to SchemaVersion. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= SchemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}
