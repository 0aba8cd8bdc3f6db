package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	var version int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)

	var name string
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'reservations'").Scan(&name))
	assert.Equal(t, "reservations", name)
}

func TestMigrate_Checks(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, Migrate(ctx, db))

	insert := `INSERT INTO reservations (user_id, resource_id, status, start_us, end_us, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, 0)`

	_, err := db.ExecContext(ctx, insert, "alice", "room", "pending", 1, 2)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "alice", "room", "pending", 2, 2)
	assert.Error(t, err, "empty span")

	_, err = db.ExecContext(ctx, insert, "alice", "room", "cancelled", 1, 2)
	assert.Error(t, err, "unknown status")

	_, err = db.ExecContext(ctx, insert, "", "room", "pending", 1, 2)
	assert.Error(t, err, "empty user")
}
