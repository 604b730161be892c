// Package graph builds an in-memory graph of class ancestry and model
// references from file records and answers traversal queries over it.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
)

var (
	// ErrNodeNotFound indicates a queried class is not in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoPath indicates that no ancestry path connects two classes.
	ErrNoPath = errors.New("no ancestry path")
)

// Ancestry is an immutable graph of classes. Ancestor edges point from a
// class to each of its ancestors; model edges point from a class to its
// model reference.
type Ancestry struct {
	// Inheritance edges only; model edges live in the maps below
	inheritance graph.Graph[string, *Node]

	nodes       map[string]*Node
	ancestors   map[string][]string // source order
	descendants map[string][]string // sorted
	models      map[string][]string
	modelUsers  map[string][]string
	edges       []Edge
	generatedAt time.Time
}

// Build creates the graph for classes. A class defined in several files
// becomes one node whose relationships are the union over those files.
func Build(classes []*dsl.ClassRecord) (*Ancestry, error) {
	sorted := make([]*dsl.ClassRecord, len(classes))
	copy(sorted, classes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SourceFile != sorted[j].SourceFile {
			return sorted[i].SourceFile < sorted[j].SourceFile
		}
		return sorted[i].Name.String() < sorted[j].Name.String()
	})

	b := newBuilder()
	for _, class := range sorted {
		b.addClass(class)
	}
	return b.finish()
}

// BuildFromFiles creates the graph for every class in records.
func BuildFromFiles(records []dsl.FileRecord) (*Ancestry, error) {
	var classes []*dsl.ClassRecord
	for i := range records {
		classes = append(classes, records[i].SortedClasses()...)
	}
	return Build(classes)
}

// NewFromData rebuilds a graph from its exported form.
func NewFromData(data *GraphData) (*Ancestry, error) {
	b := newBuilder()
	for i := range data.Nodes {
		node := data.Nodes[i]
		b.nodes[node.ID] = &node
	}

	// Exported edges are in insertion order, so positions are rebuilt as-is
	for _, edge := range data.Edges {
		b.relate(edge.From, edge.To, edge.Type)
	}

	a, err := b.finish()
	if err != nil {
		return nil, err
	}
	if !data.Metadata.GeneratedAt.IsZero() {
		a.generatedAt = data.Metadata.GeneratedAt
	}
	return a, nil
}

type builder struct {
	nodes      map[string]*Node
	ancestors  map[string][]string
	models     map[string][]string
	modelUsers map[string][]string
	edges      []Edge
}

func newBuilder() *builder {
	return &builder{
		nodes:      make(map[string]*Node),
		ancestors:  make(map[string][]string),
		models:     make(map[string][]string),
		modelUsers: make(map[string][]string),
	}
}

func (b *builder) ensure(id string, kind NodeKind) *Node {
	node, ok := b.nodes[id]
	if !ok {
		node = &Node{ID: id, Kind: kind}
		b.nodes[id] = node
	}
	if kind == NodeClass {
		node.Kind = NodeClass
	}
	return node
}

func (b *builder) addClass(class *dsl.ClassRecord) {
	id := class.Name.String()
	node := b.ensure(id, NodeClass)
	if !contains(node.Files, class.SourceFile) {
		node.Files = append(node.Files, class.SourceFile)
		sort.Strings(node.Files)
	}
	node.Properties += len(class.Properties)
	node.Problems += len(class.ProblemLocations)

	for _, ancestor := range class.Ancestors {
		b.relate(id, ancestor.String(), EdgeAncestor)
	}
	if class.HasModel() {
		b.relate(id, class.ModelReference.String(), EdgeModel)
	}
}

// relate records one edge, ignoring duplicates.
func (b *builder) relate(from, to string, typ EdgeType) {
	b.ensure(from, NodeExternal)
	b.ensure(to, NodeExternal)

	switch typ {
	case EdgeAncestor:
		if contains(b.ancestors[from], to) {
			return
		}
		b.edges = append(b.edges, Edge{From: from, To: to, Type: typ, Position: len(b.ancestors[from])})
		b.ancestors[from] = append(b.ancestors[from], to)
	case EdgeModel:
		if contains(b.models[from], to) {
			return
		}
		b.edges = append(b.edges, Edge{From: from, To: to, Type: typ, Position: len(b.models[from])})
		b.models[from] = append(b.models[from], to)
		b.modelUsers[to] = append(b.modelUsers[to], from)
	}
}

func (b *builder) finish() (*Ancestry, error) {
	g := graph.New(func(n *Node) string { return n.ID }, graph.Directed(), graph.Weighted())

	ids := sortedKeys(b.nodes)
	for _, id := range ids {
		if err := g.AddVertex(b.nodes[id]); err != nil {
			return nil, fmt.Errorf("failed to add node %s: %w", id, err)
		}
	}

	for _, from := range ids {
		for _, to := range b.ancestors[from] {
			if from == to {
				continue
			}
			err := g.AddEdge(from, to, graph.EdgeWeight(1), graph.EdgeAttribute("type", string(EdgeAncestor)))
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", from, to, err)
			}
		}
	}

	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to index descendants: %w", err)
	}
	descendants := make(map[string][]string, len(predecessors))
	for id, preds := range predecessors {
		if len(preds) == 0 {
			continue
		}
		descendants[id] = sortedKeys(preds)
	}

	for _, users := range b.modelUsers {
		sort.Strings(users)
	}

	return &Ancestry{
		inheritance: g,
		nodes:       b.nodes,
		ancestors:   b.ancestors,
		descendants: descendants,
		models:      b.models,
		modelUsers:  b.modelUsers,
		edges:       b.edges,
		generatedAt: time.Now(),
	}, nil
}

// Node returns the node for a qualified name.
func (a *Ancestry) Node(name string) (*Node, error) {
	node, ok := a.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	return node, nil
}

// Classes returns every node, sorted by ID.
func (a *Ancestry) Classes() []*Node {
	out := make([]*Node, 0, len(a.nodes))
	for _, id := range sortedKeys(a.nodes) {
		out = append(out, a.nodes[id])
	}
	return out
}

// Ancestors walks ancestor edges breadth first from name. Direct ancestors
// come first in source order. A depth of zero or less is unlimited.
func (a *Ancestry) Ancestors(name string, depth int) ([]Result, error) {
	return a.traverse(name, depth, a.ancestors)
}

// Descendants walks ancestor edges backwards from name: the classes that
// inherit from or mix in name, directly or transitively.
func (a *Ancestry) Descendants(name string, depth int) ([]Result, error) {
	return a.traverse(name, depth, a.descendants)
}

func (a *Ancestry) traverse(name string, depth int, next map[string][]string) ([]Result, error) {
	if _, err := a.Node(name); err != nil {
		return nil, err
	}

	results := []Result{}
	seen := map[string]bool{name: true}
	frontier := []string{name}

	for level := 1; len(frontier) > 0 && (depth <= 0 || level <= depth); level++ {
		var following []string
		for _, id := range frontier {
			for _, to := range next[id] {
				if seen[to] {
					continue
				}
				seen[to] = true
				results = append(results, Result{Node: a.nodes[to], Depth: level})
				following = append(following, to)
			}
		}
		frontier = following
	}
	return results, nil
}

// Models returns the model references declared by name.
func (a *Ancestry) Models(name string) ([]*Node, error) {
	if _, err := a.Node(name); err != nil {
		return nil, err
	}
	return a.lookup(a.models[name]), nil
}

// ModelUsers returns the classes that declare name as their model.
func (a *Ancestry) ModelUsers(name string) ([]*Node, error) {
	if _, err := a.Node(name); err != nil {
		return nil, err
	}
	return a.lookup(a.modelUsers[name]), nil
}

// Path returns the shortest chain of ancestor edges from one class to
// another, including both ends.
func (a *Ancestry) Path(from, to string) ([]string, error) {
	if _, err := a.Node(from); err != nil {
		return nil, err
	}
	if _, err := a.Node(to); err != nil {
		return nil, err
	}
	if from == to {
		return []string{from}, nil
	}

	path, err := graph.ShortestPath(a.inheritance, from, to)
	if err != nil || len(path) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoPath, from, to)
	}
	return path, nil
}

// Cycles returns groups of classes that are each other's ancestors. Each
// group and the list are sorted.
func (a *Ancestry) Cycles() ([][]string, error) {
	components, err := graph.StronglyConnectedComponents(a.inheritance)
	if err != nil {
		return nil, fmt.Errorf("failed to find cycles: %w", err)
	}

	cycles := [][]string{}
	for _, component := range components {
		if len(component) < 2 {
			continue
		}
		sort.Strings(component)
		cycles = append(cycles, component)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}

// Export returns the serializable form of the graph with nodes sorted by ID.
func (a *Ancestry) Export() *GraphData {
	data := &GraphData{
		Nodes: make([]Node, 0, len(a.nodes)),
		Edges: make([]Edge, len(a.edges)),
	}
	for _, node := range a.Classes() {
		data.Nodes = append(data.Nodes, *node)
	}
	copy(data.Edges, a.edges)

	data.Metadata = GraphMetadata{
		Version:     GraphVersion,
		GeneratedAt: a.generatedAt,
		NodeCount:   len(data.Nodes),
		EdgeCount:   len(data.Edges),
	}
	return data
}

func (a *Ancestry) lookup(ids []string) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.nodes[id])
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
