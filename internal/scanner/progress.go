package scanner

import "time"

// Stats summarizes a completed scan.
type Stats struct {
	Files      int
	Classes    int
	Properties int
	Problems   int
	Failures   int
	CacheHits  int
	Duration   time.Duration
}

// ProgressReporter provides callbacks for reporting scan progress.
// Callbacks are never invoked concurrently.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnFileProcessingStart is called before analyzing files.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is analyzed or fails.
	OnFileProcessed(fileName string)

	// OnComplete is called when the scan finishes.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                    {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)        {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)      {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)              {}
