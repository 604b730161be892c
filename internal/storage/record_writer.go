package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
)

// timeLayout keeps a fixed-width fraction so stored timestamps sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// RecordWriter writes scan runs and file records to SQLite.
type RecordWriter struct {
	db *sql.DB
}

// NewRecordWriter creates a RecordWriter instance.
// DB must have schema already created via CreateSchema().
func NewRecordWriter(db *sql.DB) *RecordWriter {
	return &RecordWriter{db: db}
}

// BeginRun records the start of a scan of root and returns its id.
func (w *RecordWriter) BeginRun(root string, mode dsl.ScopeMode) (string, error) {
	id := uuid.New().String()

	_, err := sq.Insert("scan_runs").
		Columns("id", "root", "scope_mode", "started_at").
		Values(id, root, string(mode), formatTime(time.Now())).
		RunWith(w.db).
		Exec()
	if err != nil {
		return "", fmt.Errorf("failed to begin scan run: %w", err)
	}
	return id, nil
}

// FinishRun stamps a run with its completion time and counts.
func (w *RecordWriter) FinishRun(runID string, fileCount, failureCount int) error {
	res, err := sq.Update("scan_runs").
		Set("finished_at", formatTime(time.Now())).
		Set("file_count", fileCount).
		Set("failure_count", failureCount).
		Where(sq.Eq{"id": runID}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to finish scan run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: scan run %s", ErrNotFound, runID)
	}
	return nil
}

// WriteFileRecord replaces everything stored for record.SourceFile with
// record, in one transaction. runID may be empty.
func (w *RecordWriter) WriteFileRecord(runID string, record *dsl.FileRecord) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if err := writeFileRecord(tx, runID, record); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file record for %s: %w", record.SourceFile, err)
	}
	return nil
}

// WriteFileRecords writes many records in a single transaction.
func (w *RecordWriter) WriteFileRecords(runID string, records []dsl.FileRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	for i := range records {
		if err := writeFileRecord(tx, runID, &records[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file records: %w", err)
	}
	return nil
}

// DeleteFile removes a file and, by cascade, its classes.
func (w *RecordWriter) DeleteFile(path string) error {
	_, err := sq.Delete("files").
		Where(sq.Eq{"path": path}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}

func writeFileRecord(tx *sql.Tx, runID string, record *dsl.FileRecord) error {
	path := record.SourceFile

	// Cascades to classes and their children
	if _, err := sq.Delete("files").Where(sq.Eq{"path": path}).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to clear file %s: %w", path, err)
	}

	_, err := sq.Insert("files").
		Columns("path", "checksum", "run_id", "scanned_at").
		Values(path, int64(record.Checksum), nullString(runID), formatTime(time.Now())).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	for _, class := range record.SortedClasses() {
		if err := writeClass(tx, path, class); err != nil {
			return fmt.Errorf("failed to write class %s in %s: %w", class.Name, path, err)
		}
	}
	return nil
}

func writeClass(tx *sql.Tx, path string, class *dsl.ClassRecord) error {
	var model sql.NullString
	if class.HasModel() {
		model = sql.NullString{String: class.ModelReference.String(), Valid: true}
	}

	res, err := sq.Insert("classes").
		Columns("path", "qualified_name", "model").
		Values(path, class.Name.String(), model).
		RunWith(tx).
		Exec()
	if err != nil {
		return err
	}
	classID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if len(class.Properties) > 0 {
		insert := sq.Insert("class_properties").Columns("class_id", "position", "name", "type")
		for i, prop := range class.Properties {
			var typ sql.NullString
			if prop.Type != nil {
				typ = sql.NullString{String: *prop.Type, Valid: true}
			}
			insert = insert.Values(classID, i, prop.Name, typ)
		}
		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return err
		}
	}

	if len(class.Ancestors) > 0 {
		insert := sq.Insert("class_ancestors").Columns("class_id", "position", "ancestor")
		for i, ancestor := range class.Ancestors {
			insert = insert.Values(classID, i, ancestor.String())
		}
		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return err
		}
	}

	if len(class.ProblemLocations) > 0 {
		insert := sq.Insert("class_problems").
			Columns("class_id", "position", "start_byte", "end_byte", "line", "col")
		for i, loc := range class.ProblemLocations {
			insert = insert.Values(classID, i, loc.StartByte, loc.EndByte, loc.Line, loc.Column)
		}
		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return err
		}
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
