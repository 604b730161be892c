package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
	"github.com/mvp-joe/propscan/internal/watcher"
)

// RecordStore is the subset of storage.RecordWriter used for incremental
// updates.
type RecordStore interface {
	WriteFileRecords(runID string, records []dsl.FileRecord) error
	DeleteFile(path string) error
}

// Incremental rescans changed files and keeps a RecordStore in sync. It
// implements watcher.Rescanner.
type Incremental struct {
	scanner *Scanner
	store   RecordStore
	runID   string
}

var _ watcher.Rescanner = (*Incremental)(nil)

// NewIncremental creates an incremental updater. Records are written under
// runID, which may be empty.
func NewIncremental(scanner *Scanner, store RecordStore, runID string) *Incremental {
	return &Incremental{
		scanner: scanner,
		store:   store,
		runID:   runID,
	}
}

// Rescan re-analyzes files. Files that no longer exist are forgotten and
// deleted from the store.
func (inc *Incremental) Rescan(ctx context.Context, files []string) (*watcher.RescanStats, error) {
	stats := &watcher.RescanStats{}

	var present []string
	for _, path := range files {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			inc.scanner.Forget(path)
			if err := inc.store.DeleteFile(path); err != nil {
				return nil, err
			}
			stats.FilesRemoved++
			continue
		}
		present = append(present, path)
	}

	if len(present) == 0 {
		return stats, nil
	}

	result, err := inc.scanner.Scan(ctx, present)
	if err != nil {
		return nil, err
	}
	for _, failure := range result.Failures {
		log.Printf("Warning: failed to analyze %s: %v", failure.Path, failure.Err)
	}

	if err := inc.store.WriteFileRecords(inc.runID, result.Records); err != nil {
		return nil, fmt.Errorf("failed to store records: %w", err)
	}

	stats.FilesScanned = result.Stats.Files
	stats.Failures = result.Stats.Failures
	stats.Classes = result.Stats.Classes
	return stats, nil
}
