// Package scanner discovers Ruby files and turns them into prop records,
// analyzing files concurrently and caching records between scans.
package scanner

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/maypok86/otter"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
	"github.com/mvp-joe/propscan/internal/autogen/ruby"
)

// Options configures a Scanner.
type Options struct {
	// Workers bounds concurrent file analyses. Zero means runtime.NumCPU().
	Workers int

	// CacheSize is the number of file records kept between scans. Zero
	// disables the cache.
	CacheSize int

	ScopeMode dsl.ScopeMode
	Progress  ProgressReporter
}

// Failure is a file that could not be analyzed.
type Failure struct {
	Path string `json:"path" yaml:"path"`
	Err  error  `json:"-" yaml:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// Result holds the records of one scan, sorted by source file.
type Result struct {
	Records  []dsl.FileRecord
	Failures []Failure
	Stats    Stats
}

// Scanner parses Ruby files and generates their records.
type Scanner struct {
	parser      *ruby.Parser
	checksummer dsl.Checksummer
	workers     int
	scopeMode   dsl.ScopeMode
	progress    ProgressReporter
	progressMu  sync.Mutex

	cache  otter.Cache[string, dsl.FileRecord]
	cached bool
}

// New creates a scanner. Call Close to release the record cache.
func New(opts Options) (*Scanner, error) {
	s := &Scanner{
		parser:      ruby.NewParser(),
		checksummer: dsl.CRC32{},
		workers:     opts.Workers,
		scopeMode:   opts.ScopeMode,
		progress:    opts.Progress,
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	if s.scopeMode == "" {
		s.scopeMode = dsl.ScopeFrames
	}
	if s.progress == nil {
		s.progress = &NoOpProgressReporter{}
	}

	if opts.CacheSize > 0 {
		cache, err := otter.MustBuilder[string, dsl.FileRecord](opts.CacheSize).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create record cache: %w", err)
		}
		s.cache = cache
		s.cached = true
	}
	return s, nil
}

// Close releases the record cache.
func (s *Scanner) Close() {
	if s.cached {
		s.cache.Close()
	}
}

// ScanDir discovers files with d and scans them.
func (s *Scanner) ScanDir(ctx context.Context, d *Discovery) (*Result, error) {
	s.report(func(p ProgressReporter) { p.OnDiscoveryStart() })
	files, err := d.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	s.report(func(p ProgressReporter) { p.OnDiscoveryComplete(len(files)) })

	return s.Scan(ctx, files)
}

// Scan analyzes files concurrently. A file that cannot be read or parsed is
// reported in Result.Failures and does not stop the others. Scan only returns
// an error when ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context, files []string) (*Result, error) {
	start := time.Now()
	s.report(func(p ProgressReporter) { p.OnFileProcessingStart(len(files)) })

	type fileResult struct {
		record dsl.FileRecord
		hit    bool
		err    error
	}
	results := make([]fileResult, len(files))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			record, hit, err := s.scanFile(ctx, path)
			results[i] = fileResult{record: record, hit: hit, err: err}
			s.report(func(p ProgressReporter) { p.OnFileProcessed(path) })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Records: make([]dsl.FileRecord, 0, len(files)),
	}
	for i, r := range results {
		if r.err != nil {
			result.Failures = append(result.Failures, Failure{Path: files[i], Err: r.err})
			continue
		}
		if r.hit {
			result.Stats.CacheHits++
		}
		result.Records = append(result.Records, r.record)
	}

	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].SourceFile < result.Records[j].SourceFile
	})

	result.Stats.Files = len(result.Records)
	result.Stats.Failures = len(result.Failures)
	for _, record := range result.Records {
		result.Stats.Classes += len(record.Classes)
		result.Stats.Problems += record.ProblemCount()
		for _, class := range record.Classes {
			result.Stats.Properties += len(class.Properties)
		}
	}
	result.Stats.Duration = time.Since(start)

	s.report(func(p ProgressReporter) { p.OnComplete(&result.Stats) })
	return result, nil
}

// ScanFile analyzes a single file, reusing the cached record when the file's
// checksum is unchanged.
func (s *Scanner) ScanFile(ctx context.Context, path string) (dsl.FileRecord, error) {
	record, _, err := s.scanFile(ctx, path)
	return record, err
}

func (s *Scanner) scanFile(ctx context.Context, path string) (dsl.FileRecord, bool, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return dsl.FileRecord{}, false, fmt.Errorf("failed to read file: %w", err)
	}

	if s.cached {
		if record, ok := s.cache.Get(path); ok && record.Checksum == s.checksummer.Checksum(source) {
			return record, true, nil
		}
	}

	pf, err := s.parser.Parse(ctx, path, source)
	if err != nil {
		return dsl.FileRecord{}, false, fmt.Errorf("failed to parse file: %w", err)
	}

	record := dsl.Generate(pf, s.checksummer, dsl.Options{ScopeMode: s.scopeMode})
	if s.cached {
		s.cache.Set(path, record)
	}
	return record, false, nil
}

// Forget drops the cached record for path, typically after it was deleted.
func (s *Scanner) Forget(path string) {
	if s.cached {
		s.cache.Delete(path)
	}
}

func (s *Scanner) report(fn func(ProgressReporter)) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	fn(s.progress)
}
