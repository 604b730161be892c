package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ScanRun describes one recorded scan.
type ScanRun struct {
	ID           string        `json:"id" yaml:"id"`
	Root         string        `json:"root" yaml:"root"`
	ScopeMode    dsl.ScopeMode `json:"scope_mode" yaml:"scope_mode"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	FileCount    int           `json:"file_count" yaml:"file_count"`
	FailureCount int           `json:"failure_count" yaml:"failure_count"`
}

// RecordReader reads file records back from SQLite.
type RecordReader struct {
	db *sql.DB
}

// NewRecordReader creates a RecordReader instance.
// DB should have schema already created.
func NewRecordReader(db *sql.DB) *RecordReader {
	return &RecordReader{db: db}
}

// GetFileRecord rebuilds the record stored for path.
// Returns (nil, nil) if the file was never written.
func (r *RecordReader) GetFileRecord(path string) (*dsl.FileRecord, error) {
	checksum, ok, err := r.Checksum(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	classes, err := r.loadClasses(sq.Eq{"path": path})
	if err != nil {
		return nil, fmt.Errorf("failed to load classes for %s: %w", path, err)
	}

	record := &dsl.FileRecord{
		Classes:    make(map[string]*dsl.ClassRecord, len(classes)),
		SourceFile: path,
		Checksum:   checksum,
	}
	for _, class := range classes {
		record.Classes[class.Name.Key()] = class
	}
	return record, nil
}

// Checksum returns the stored checksum for path and whether the file exists.
func (r *RecordReader) Checksum(path string) (uint32, bool, error) {
	var checksum int64
	err := sq.Select("checksum").
		From("files").
		Where(sq.Eq{"path": path}).
		RunWith(r.db).
		QueryRow().
		Scan(&checksum)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get checksum for %s: %w", path, err)
	}
	return uint32(checksum), true, nil
}

// FindClass returns every stored record for name, one per defining file,
// ordered by file path.
func (r *RecordReader) FindClass(name dsl.QualifiedName) ([]*dsl.ClassRecord, error) {
	classes, err := r.loadClasses(sq.Eq{"qualified_name": name.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to find class %s: %w", name, err)
	}
	return classes, nil
}

// FindSubclasses returns the records that list name as an ancestor.
func (r *RecordReader) FindSubclasses(name dsl.QualifiedName) ([]*dsl.ClassRecord, error) {
	sub := sq.Select("class_id").From("class_ancestors").Where(sq.Eq{"ancestor": name.String()})
	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	classes, err := r.loadClasses(sq.Expr("id IN ("+subSQL+")", subArgs...))
	if err != nil {
		return nil, fmt.Errorf("failed to find subclasses of %s: %w", name, err)
	}
	return classes, nil
}

// AllClasses returns every stored class record ordered by file and name.
func (r *RecordReader) AllClasses() ([]*dsl.ClassRecord, error) {
	classes, err := r.loadClasses(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load classes: %w", err)
	}
	return classes, nil
}

// ListClasses returns the distinct qualified names of all stored classes,
// sorted.
func (r *RecordReader) ListClasses() ([]dsl.QualifiedName, error) {
	rows, err := sq.Select("DISTINCT qualified_name").
		From("classes").
		OrderBy("qualified_name").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	names := []dsl.QualifiedName{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan class name: %w", err)
		}
		names = append(names, dsl.ParseQualifiedName(name))
	}
	return names, rows.Err()
}

// ListFiles returns all stored file paths, sorted.
func (r *RecordReader) ListFiles() ([]string, error) {
	rows, err := sq.Select("path").
		From("files").
		OrderBy("path").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// LatestRun returns the most recently started scan run.
// Returns (nil, nil) if no scan was recorded.
func (r *RecordReader) LatestRun() (*ScanRun, error) {
	run := &ScanRun{}
	var mode, startedAt string
	var finishedAt sql.NullString

	err := sq.Select("id", "root", "scope_mode", "started_at", "finished_at", "file_count", "failure_count").
		From("scan_runs").
		OrderBy("started_at DESC").
		Limit(1).
		RunWith(r.db).
		QueryRow().
		Scan(&run.ID, &run.Root, &mode, &startedAt, &finishedAt, &run.FileCount, &run.FailureCount)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scan run: %w", err)
	}

	run.ScopeMode = dsl.ScopeMode(mode)
	run.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if finishedAt.Valid {
		t, _ := time.Parse(timeLayout, finishedAt.String)
		run.FinishedAt = &t
	}
	return run, nil
}

// loadClasses reads class rows matching where and attaches their children.
// Rows are fully drained before the next query so a single connection is
// enough.
func (r *RecordReader) loadClasses(where sq.Sqlizer) ([]*dsl.ClassRecord, error) {
	query := sq.Select("id", "path", "qualified_name", "model").
		From("classes").
		OrderBy("path", "qualified_name")
	if where != nil {
		query = query.Where(where)
	}

	rows, err := query.RunWith(r.db).Query()
	if err != nil {
		return nil, err
	}

	var classes []*dsl.ClassRecord
	byID := make(map[int64]*dsl.ClassRecord)
	var ids []int64
	for rows.Next() {
		var id int64
		var path, name string
		var model sql.NullString
		if err := rows.Scan(&id, &path, &name, &model); err != nil {
			rows.Close()
			return nil, err
		}

		class := &dsl.ClassRecord{
			Name:             dsl.ParseQualifiedName(name),
			Properties:       []dsl.PropertyDeclaration{},
			Ancestors:        []dsl.QualifiedName{},
			SourceFile:       path,
			ProblemLocations: []dsl.ProblemLocation{},
		}
		if model.Valid {
			class.ModelReference = dsl.ParseQualifiedName(model.String)
		}
		classes = append(classes, class)
		byID[id] = class
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return []*dsl.ClassRecord{}, nil
	}

	if err := r.loadProperties(ids, byID); err != nil {
		return nil, err
	}
	if err := r.loadAncestors(ids, byID); err != nil {
		return nil, err
	}
	if err := r.loadProblems(ids, byID); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *RecordReader) loadProperties(ids []int64, byID map[int64]*dsl.ClassRecord) error {
	rows, err := sq.Select("class_id", "name", "type").
		From("class_properties").
		Where(sq.Eq{"class_id": ids}).
		OrderBy("class_id", "position").
		RunWith(r.db).
		Query()
	if err != nil {
		return fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var prop dsl.PropertyDeclaration
		var typ sql.NullString
		if err := rows.Scan(&id, &prop.Name, &typ); err != nil {
			return fmt.Errorf("failed to scan property: %w", err)
		}
		if typ.Valid {
			s := typ.String
			prop.Type = &s
		}
		byID[id].Properties = append(byID[id].Properties, prop)
	}
	return rows.Err()
}

func (r *RecordReader) loadAncestors(ids []int64, byID map[int64]*dsl.ClassRecord) error {
	rows, err := sq.Select("class_id", "ancestor").
		From("class_ancestors").
		Where(sq.Eq{"class_id": ids}).
		OrderBy("class_id", "position").
		RunWith(r.db).
		Query()
	if err != nil {
		return fmt.Errorf("failed to query ancestors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var ancestor string
		if err := rows.Scan(&id, &ancestor); err != nil {
			return fmt.Errorf("failed to scan ancestor: %w", err)
		}
		byID[id].Ancestors = append(byID[id].Ancestors, dsl.ParseQualifiedName(ancestor))
	}
	return rows.Err()
}

func (r *RecordReader) loadProblems(ids []int64, byID map[int64]*dsl.ClassRecord) error {
	rows, err := sq.Select("class_id", "start_byte", "end_byte", "line", "col").
		From("class_problems").
		Where(sq.Eq{"class_id": ids}).
		OrderBy("class_id", "position").
		RunWith(r.db).
		Query()
	if err != nil {
		return fmt.Errorf("failed to query problem locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var loc dsl.ProblemLocation
		if err := rows.Scan(&id, &loc.StartByte, &loc.EndByte, &loc.Line, &loc.Column); err != nil {
			return fmt.Errorf("failed to scan problem location: %w", err)
		}
		loc.File = byID[id].SourceFile
		byID[id].ProblemLocations = append(byID[id].ProblemLocations, loc)
	}
	return rows.Err()
}
