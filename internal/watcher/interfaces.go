package watcher

import "context"

// FileWatcher monitors source files for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching the root directory, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// PathFilter decides which paths are watched. scanner.Discovery implements it.
type PathFilter interface {
	// MatchesPath reports whether changes to a file should be reported.
	MatchesPath(path string) bool

	// IgnoresDir reports whether a directory should not be watched at all.
	IgnoresDir(path string) bool
}

// Rescanner re-analyzes changed files. Files that no longer exist are removed.
type Rescanner interface {
	Rescan(ctx context.Context, files []string) (*RescanStats, error)
}

// RescanStats summarizes one incremental rescan.
type RescanStats struct {
	FilesScanned int
	FilesRemoved int
	Failures     int
	Classes      int
}
