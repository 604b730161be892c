package mcp

import (
	"fmt"
	"sync"
	"time"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
	"github.com/mvp-joe/propscan/internal/graph"
)

// ClassSource reads stored class records. storage.RecordReader implements it.
type ClassSource interface {
	FindClass(name dsl.QualifiedName) ([]*dsl.ClassRecord, error)
	ListClasses() ([]dsl.QualifiedName, error)
	AllClasses() ([]*dsl.ClassRecord, error)
}

// GraphProvider holds the ancestry graph built from a ClassSource and
// rebuilds it on demand. Safe for concurrent use.
type GraphProvider struct {
	source  ClassSource
	metrics *ReloadMetrics

	mu       sync.RWMutex
	ancestry *graph.Ancestry
}

// NewGraphProvider builds the initial graph from source.
func NewGraphProvider(source ClassSource) (*GraphProvider, error) {
	p := &GraphProvider{
		source:  source,
		metrics: NewReloadMetrics(),
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload rebuilds the graph from the current stored records. On failure the
// previous graph stays in place.
func (p *GraphProvider) Reload() error {
	start := time.Now()
	ancestry, err := p.build()
	if err != nil {
		p.metrics.RecordReload(time.Since(start), err, 0)
		return err
	}

	p.mu.Lock()
	p.ancestry = ancestry
	p.mu.Unlock()

	p.metrics.RecordReload(time.Since(start), nil, definedClasses(ancestry))
	return nil
}

func (p *GraphProvider) build() (*graph.Ancestry, error) {
	classes, err := p.source.AllClasses()
	if err != nil {
		return nil, fmt.Errorf("failed to load classes: %w", err)
	}

	ancestry, err := graph.Build(classes)
	if err != nil {
		return nil, fmt.Errorf("failed to build ancestry graph: %w", err)
	}
	return ancestry, nil
}

// Metrics returns a snapshot of the reload metrics.
func (p *GraphProvider) Metrics() MetricsSnapshot {
	return p.metrics.GetMetrics()
}

// Ancestry returns the current graph.
func (p *GraphProvider) Ancestry() *graph.Ancestry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ancestry
}

func definedClasses(ancestry *graph.Ancestry) int {
	n := 0
	for _, node := range ancestry.Classes() {
		if node.Kind == graph.NodeClass {
			n++
		}
	}
	return n
}
