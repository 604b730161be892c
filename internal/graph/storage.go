package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// GraphFileName is the name of the exported graph file
	GraphFileName = "ancestry.json"
	// GraphVersion is the current version of the graph format
	GraphVersion = "1.0"
)

// Storage reads and writes exported graphs.
type Storage interface {
	// Load loads the graph from disk. Returns nil if file doesn't exist.
	Load() (*GraphData, error)

	// Save saves the graph to disk using atomic write pattern.
	Save(data *GraphData) error

	// Exists checks if the graph file exists.
	Exists() bool
}

type storage struct {
	graphDir string // Directory containing graph file (.propscan/graph/)
}

// NewStorage creates a new graph storage instance.
func NewStorage(graphDir string) (Storage, error) {
	// Temp directory for atomic writes lives inside the graph directory
	if err := os.MkdirAll(filepath.Join(graphDir, ".tmp"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create graph directory: %w", err)
	}
	return &storage{graphDir: graphDir}, nil
}

// Load loads the graph data from disk.
func (s *storage) Load() (*GraphData, error) {
	data, err := os.ReadFile(s.graphFilePath())
	if os.IsNotExist(err) {
		return nil, nil // Not an error, just no graph yet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var graphData GraphData
	if err := json.Unmarshal(data, &graphData); err != nil {
		return nil, fmt.Errorf("failed to parse graph JSON: %w", err)
	}
	return &graphData, nil
}

// Save writes data to a temp file and renames it into place.
func (s *storage) Save(data *GraphData) error {
	data.Metadata.Version = GraphVersion
	data.Metadata.NodeCount = len(data.Nodes)
	data.Metadata.EdgeCount = len(data.Edges)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph data: %w", err)
	}

	tempPath := filepath.Join(s.graphDir, ".tmp", GraphFileName)
	if err := os.WriteFile(tempPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp graph file: %w", err)
	}

	// Atomic rename (POSIX guarantees atomicity)
	if err := os.Rename(tempPath, s.graphFilePath()); err != nil {
		return fmt.Errorf("failed to rename temp graph file: %w", err)
	}
	return nil
}

// Exists checks if the graph file exists.
func (s *storage) Exists() bool {
	_, err := os.Stat(s.graphFilePath())
	return err == nil
}

func (s *storage) graphFilePath() string {
	return filepath.Join(s.graphDir, GraphFileName)
}
