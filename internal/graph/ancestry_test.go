package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
)

// Test Plan for Ancestry:
// - Defined classes are class nodes; referenced-only names are external nodes
// - A class defined in several files merges files, counts and relationships
// - Ancestors keep source order, honor depth and report depth per result
// - Descendants walk ancestor edges backwards, sorted per level
// - Models and ModelUsers follow model edges in both directions
// - Unknown names return ErrNodeNotFound
// - Path finds the ancestry chain or ErrNoPath
// - Cycles reports mutually inheriting classes and traversal terminates
// - Export/NewFromData round-trips the graph

type classFixture struct {
	name      string
	file      string
	ancestors []string
	model     string
	props     int
}

func classes(specs ...classFixture) []*dsl.ClassRecord {
	var out []*dsl.ClassRecord
	for _, s := range specs {
		rec := &dsl.ClassRecord{
			Name:             dsl.ParseQualifiedName(s.name),
			Properties:       []dsl.PropertyDeclaration{},
			Ancestors:        []dsl.QualifiedName{},
			SourceFile:       s.file,
			ProblemLocations: []dsl.ProblemLocation{},
		}
		for _, a := range s.ancestors {
			rec.Ancestors = append(rec.Ancestors, dsl.ParseQualifiedName(a))
		}
		if s.model != "" {
			rec.ModelReference = dsl.ParseQualifiedName(s.model)
		}
		for i := 0; i < s.props; i++ {
			rec.Properties = append(rec.Properties, dsl.PropertyDeclaration{Name: "p"})
		}
		out = append(out, rec)
	}
	return out
}

func ids(results []Result) []string {
	out := []string{}
	for _, r := range results {
		out = append(out, r.Node.ID)
	}
	return out
}

func nodeIDs(nodes []*Node) []string {
	out := []string{}
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func sampleAncestry(t *testing.T) *Ancestry {
	t.Helper()
	a, err := Build(classes(
		classFixture{name: "Shop::Base", file: "base.rb", ancestors: []string{"T::Struct"}},
		classFixture{name: "Shop::Order", file: "order.rb", ancestors: []string{"Shop::Base", "Comparable"}, model: "Db::Order", props: 2},
		classFixture{name: "Shop::Order", file: "order_ext.rb", ancestors: []string{"Shop::Tracked"}, props: 1},
		classFixture{name: "Shop::Rush", file: "rush.rb", ancestors: []string{"Shop::Order"}, model: "Db::Order"},
		classFixture{name: "Shop::Gift", file: "gift.rb", ancestors: []string{"Shop::Base"}},
	))
	require.NoError(t, err)
	return a
}

func TestBuild_Nodes(t *testing.T) {
	t.Parallel()

	a := sampleAncestry(t)

	order, err := a.Node("Shop::Order")
	require.NoError(t, err)
	assert.Equal(t, NodeClass, order.Kind)
	assert.Equal(t, []string{"order.rb", "order_ext.rb"}, order.Files)
	assert.Equal(t, 3, order.Properties)

	external, err := a.Node("Comparable")
	require.NoError(t, err)
	assert.Equal(t, NodeExternal, external.Kind)
	assert.Empty(t, external.Files)

	_, err = a.Node("Missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestAncestors(t *testing.T) {
	t.Parallel()

	a := sampleAncestry(t)

	direct, err := a.Ancestors("Shop::Order", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop::Base", "Comparable", "Shop::Tracked"}, ids(direct))

	all, err := a.Ancestors("Shop::Rush", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop::Order", "Shop::Base", "Comparable", "Shop::Tracked", "T::Struct"}, ids(all))
	assert.Equal(t, 1, all[0].Depth)
	assert.Equal(t, 2, all[1].Depth)
	assert.Equal(t, 3, all[4].Depth)

	_, err = a.Ancestors("Nope", 1)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestDescendants(t *testing.T) {
	t.Parallel()

	a := sampleAncestry(t)

	direct, err := a.Descendants("Shop::Base", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop::Gift", "Shop::Order"}, ids(direct))

	all, err := a.Descendants("T::Struct", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop::Base", "Shop::Gift", "Shop::Order", "Shop::Rush"}, ids(all))
}

func TestModels(t *testing.T) {
	t.Parallel()

	a := sampleAncestry(t)

	models, err := a.Models("Shop::Order")
	require.NoError(t, err)
	assert.Equal(t, []string{"Db::Order"}, nodeIDs(models))

	users, err := a.ModelUsers("Db::Order")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop::Order", "Shop::Rush"}, nodeIDs(users))

	none, err := a.Models("Shop::Gift")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPath(t *testing.T) {
	t.Parallel()

	a := sampleAncestry(t)

	path, err := a.Path("Shop::Rush", "T::Struct")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop::Rush", "Shop::Order", "Shop::Base", "T::Struct"}, path)

	_, err = a.Path("T::Struct", "Shop::Rush")
	assert.ErrorIs(t, err, ErrNoPath)

	same, err := a.Path("Shop::Gift", "Shop::Gift")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop::Gift"}, same)
}

func TestCycles(t *testing.T) {
	t.Parallel()

	a, err := Build(classes(
		classFixture{name: "A", file: "a.rb", ancestors: []string{"B"}},
		classFixture{name: "B", file: "b.rb", ancestors: []string{"A"}},
		classFixture{name: "C", file: "c.rb", ancestors: []string{"C"}},
	))
	require.NoError(t, err)

	cycles, err := a.Cycles()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}}, cycles)

	ancestors, err := a.Ancestors("A", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids(ancestors))

	self, err := a.Ancestors("C", 0)
	require.NoError(t, err)
	assert.Empty(t, self)
}

func TestExport_RoundTrip(t *testing.T) {
	t.Parallel()

	a := sampleAncestry(t)
	data := a.Export()
	assert.Equal(t, len(data.Nodes), data.Metadata.NodeCount)
	assert.Equal(t, len(data.Edges), data.Metadata.EdgeCount)
	assert.Equal(t, GraphVersion, data.Metadata.Version)

	rebuilt, err := NewFromData(data)
	require.NoError(t, err)
	assert.Equal(t, data, rebuilt.Export())

	ancestors, err := rebuilt.Ancestors("Shop::Order", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop::Base", "Comparable", "Shop::Tracked"}, ids(ancestors))
}

func TestBuildFromFiles(t *testing.T) {
	t.Parallel()

	recs := classes(classFixture{name: "X", file: "x.rb", ancestors: []string{"Y"}})
	a, err := BuildFromFiles([]dsl.FileRecord{{
		Classes:    map[string]*dsl.ClassRecord{"X": recs[0]},
		SourceFile: "x.rb",
	}})
	require.NoError(t, err)
	assert.Len(t, a.Classes(), 2)
}
