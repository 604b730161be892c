package watcher

import (
	"context"
	"log"
)

// WatchCoordinator routes debounced file changes from a FileWatcher to a
// Rescanner.
type WatchCoordinator struct {
	files     FileWatcher
	rescanner Rescanner
	onRescan  func(*RescanStats)
}

// NewWatchCoordinator creates a new watch coordinator. onRescan, if not nil,
// is called after every successful rescan.
func NewWatchCoordinator(files FileWatcher, rescanner Rescanner, onRescan func(*RescanStats)) *WatchCoordinator {
	return &WatchCoordinator{
		files:     files,
		rescanner: rescanner,
		onRescan:  onRescan,
	}
}

// Start begins routing file changes to the rescanner.
// Blocks until context is cancelled, then stops the file watcher.
func (c *WatchCoordinator) Start(ctx context.Context) error {
	if err := c.files.Start(ctx, func(files []string) {
		c.handleFileChange(ctx, files)
	}); err != nil {
		c.cleanup()
		return err
	}

	<-ctx.Done()
	c.cleanup()
	return ctx.Err()
}

func (c *WatchCoordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		log.Printf("Warning: file watcher stop failed: %v", err)
	}
}

// handleFileChange rescans the changed files. Events that arrive while the
// rescan runs accumulate and fire on resume.
func (c *WatchCoordinator) handleFileChange(ctx context.Context, files []string) {
	if len(files) == 0 {
		return
	}

	c.files.Pause()
	defer c.files.Resume()

	log.Printf("Processing %d file change(s)...", len(files))

	stats, err := c.rescanner.Rescan(ctx, files)
	if err != nil {
		log.Printf("Error: rescan failed: %v", err)
		return
	}

	log.Printf("✓ Rescanned %d file(s), removed %d, %d class(es), %d failure(s)",
		stats.FilesScanned, stats.FilesRemoved, stats.Classes, stats.Failures)

	if c.onRescan != nil {
		c.onRescan(stats)
	}
}
