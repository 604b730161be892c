package graph

import "time"

// NodeKind distinguishes classes seen in source from names only referenced.
type NodeKind string

const (
	NodeClass    NodeKind = "class"    // Defined in at least one scanned file
	NodeExternal NodeKind = "external" // Referenced as an ancestor or model only
)

// Node is a class or module in the ancestry graph.
type Node struct {
	ID         string   `json:"id" yaml:"id"`                           // Qualified name (e.g., "Payments::Charge")
	Kind       NodeKind `json:"kind" yaml:"kind"`                       // Type of node
	Files      []string `json:"files,omitempty" yaml:"files,omitempty"` // Defining files, sorted
	Properties int      `json:"properties" yaml:"properties"`           // Declared properties across all files
	Problems   int      `json:"problems" yaml:"problems"`               // Problem locations across all files
}

// EdgeType represents the type of relationship between nodes.
type EdgeType string

const (
	EdgeAncestor EdgeType = "ancestor" // Class inherits or mixes in ancestor
	EdgeModel    EdgeType = "model"    // Class declares a model reference
)

// Edge represents a relationship between two classes.
type Edge struct {
	From     string   `json:"from" yaml:"from"`         // Source node ID
	To       string   `json:"to" yaml:"to"`             // Target node ID
	Type     EdgeType `json:"type" yaml:"type"`         // Relationship type
	Position int      `json:"position" yaml:"position"` // Source order among the class's ancestors
}

// GraphData is the serializable form of the ancestry graph.
type GraphData struct {
	Metadata GraphMetadata `json:"_metadata" yaml:"_metadata"`
	Nodes    []Node        `json:"nodes" yaml:"nodes"`
	Edges    []Edge        `json:"edges" yaml:"edges"`
}

// GraphMetadata contains metadata about the graph.
type GraphMetadata struct {
	Version     string    `json:"version" yaml:"version"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	NodeCount   int       `json:"node_count" yaml:"node_count"`
	EdgeCount   int       `json:"edge_count" yaml:"edge_count"`
}

// Result is one node reached by a traversal.
type Result struct {
	Node  *Node `json:"node" yaml:"node"`
	Depth int   `json:"depth" yaml:"depth"` // 1 for direct relationships
}
