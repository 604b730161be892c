package storage

// Test Plan for SQLite Schema:
// - CreateSchema creates every table and index
// - CreateSchema is idempotent and keeps stored rows
// - GetSchemaVersion returns "" before CreateSchema and SchemaVersion after
// - Deleting a scan run leaves its files with a NULL run_id

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestCreateSchema(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)

	for _, table := range []string{"scan_runs", "files", "classes", "class_properties", "class_ancestors", "class_problems", "metadata"} {
		assert.True(t, tableExists(t, db, table), "table %s should exist", table)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name LIKE 'idx_%'").Scan(&count))
	assert.Equal(t, len(indexes), count)
}

func TestCreateSchema_Idempotent(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	_, err := db.Exec("INSERT INTO files (path, checksum, scanned_at) VALUES ('a.rb', 1, '2026-01-01T00:00:00Z')")
	require.NoError(t, err)

	require.NoError(t, CreateSchema(db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM files").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetSchemaVersion(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Empty(t, version)

	require.NoError(t, CreateSchema(db))
	version, err = GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestSchema_RunDeletionNullsFileRun(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewRecordWriter(db)

	runID, err := writer.BeginRun(".", "frames")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO files (path, checksum, run_id, scanned_at) VALUES ('a.rb', 1, ?, '2026-01-01T00:00:00Z')", runID)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM scan_runs WHERE id = ?", runID)
	require.NoError(t, err)

	var run sql.NullString
	require.NoError(t, db.QueryRow("SELECT run_id FROM files WHERE path = 'a.rb'").Scan(&run))
	assert.False(t, run.Valid)
}
