package storage

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is stored in the metadata table when the schema is created.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes for the record store.
// Uses a transaction so schema creation succeeds or fails as a whole.
//
// Schema includes:
//   - scan_runs: one row per scan, keyed by a UUID
//   - files: one row per analyzed file with its checksum
//   - classes and their ordered properties, ancestors and problem locations
//   - metadata: schema version
//
// Idempotent. Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Create all tables in dependency order
	tables := []struct {
		name string
		ddl  string
	}{
		{"scan_runs", createScanRunsTable},
		{"files", createFilesTable},
		{"classes", createClassesTable},
		{"class_properties", createClassPropertiesTable},
		{"class_ancestors", createClassAncestorsTable},
		{"class_problems", createClassProblemsTable},
		{"metadata", createMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)", SchemaVersion,
	); err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the stored schema version, or "" before CreateSchema.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var version string
	err := db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	if err != nil {
		// metadata table missing or empty means no schema yet
		return "", nil
	}
	return version, nil
}

const createScanRunsTable = `
CREATE TABLE IF NOT EXISTS scan_runs (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	scope_mode TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	file_count INTEGER NOT NULL DEFAULT 0,
	failure_count INTEGER NOT NULL DEFAULT 0
)`

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	checksum INTEGER NOT NULL,
	run_id TEXT REFERENCES scan_runs(id) ON DELETE SET NULL,
	scanned_at TEXT NOT NULL
)`

const createClassesTable = `
CREATE TABLE IF NOT EXISTS classes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	qualified_name TEXT NOT NULL,
	model TEXT,
	UNIQUE(path, qualified_name)
)`

const createClassPropertiesTable = `
CREATE TABLE IF NOT EXISTS class_properties (
	class_id INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	type TEXT,
	PRIMARY KEY (class_id, position)
)`

const createClassAncestorsTable = `
CREATE TABLE IF NOT EXISTS class_ancestors (
	class_id INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	ancestor TEXT NOT NULL,
	PRIMARY KEY (class_id, position)
)`

const createClassProblemsTable = `
CREATE TABLE IF NOT EXISTS class_problems (
	class_id INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	start_byte INTEGER NOT NULL,
	end_byte INTEGER NOT NULL,
	line INTEGER NOT NULL,
	col INTEGER NOT NULL,
	PRIMARY KEY (class_id, position)
)`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_classes_qualified_name ON classes(qualified_name)",
	"CREATE INDEX IF NOT EXISTS idx_class_ancestors_ancestor ON class_ancestors(ancestor)",
	"CREATE INDEX IF NOT EXISTS idx_classes_model ON classes(model)",
	"CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id)",
}
