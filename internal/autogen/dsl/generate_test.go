package dsl

import (
	"context"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/propscan/internal/autogen/ruby"
	"github.com/mvp-joe/propscan/internal/autogen/tree"
)

// Test Plan for Generate:
// - prop without a type records {name, none}; with a type records its source text
// - token_prop records {token, String} whatever its arguments
// - property macros inside method bodies become problem locations
// - unrecognized prop shapes become problem locations at the call
// - only constant ancestors are recorded, in header order
// - a macro used as a mixin argument is recorded once
// - the last model declaration wins; non-constant and suppressed model calls are ignored
// - reopened classes keep the first record (frames) or accumulate into it (legacy)
// - package registry classes are transparent
// - calls outside any class are ignored
// - a method outside any class does not suppress classes defined in it
// - nested classes receive their own declarations
// - the checksum depends only on source bytes
// - the scope stack is empty after a walk of well-formed input
// - legacy mode replays the stale-scope behavior of a class exited while suppressed

func generate(t *testing.T, src string, mode ScopeMode) FileRecord {
	t.Helper()
	return generateFile(t, "test.rb", src, mode)
}

func generateFile(t *testing.T, path, src string, mode ScopeMode) FileRecord {
	t.Helper()
	pf, err := ruby.NewParser().Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	return Generate(pf, nil, Options{ScopeMode: mode})
}

func class(t *testing.T, rec FileRecord, name string) *ClassRecord {
	t.Helper()
	cls, ok := rec.Class(ParseQualifiedName(name))
	require.True(t, ok, "class %s not found", name)
	return cls
}

func typed(name, typ string) PropertyDeclaration {
	return PropertyDeclaration{Name: name, Type: &typ}
}

func untyped(name string) PropertyDeclaration {
	return PropertyDeclaration{Name: name}
}

func TestGenerate_EndToEnd(t *testing.T) {
	t.Parallel()

	src := `
class SomeBase; end

class Charge < SomeBase
  prop :x
  token_prop()
end
`
	rec := generate(t, src, ScopeFrames)

	assert.Equal(t, "test.rb", rec.SourceFile)
	assert.Equal(t, crc32.ChecksumIEEE([]byte(src)), rec.Checksum)
	require.Len(t, rec.Classes, 2)

	charge := class(t, rec, "Charge")
	assert.Equal(t, QualifiedName{"Charge"}, charge.Name)
	assert.Equal(t, []PropertyDeclaration{untyped("x"), typed("token", "String")}, charge.Properties)
	assert.Equal(t, []QualifiedName{{"SomeBase"}}, charge.Ancestors)
	assert.Nil(t, charge.ModelReference)
	assert.False(t, charge.HasModel())
	assert.Empty(t, charge.ProblemLocations)
	assert.Equal(t, "test.rb", charge.SourceFile)
}

func TestGenerate_PropTypes(t *testing.T) {
	t.Parallel()

	rec := generate(t, `
class Thing
  prop :foo
  prop :bar, SomeType
  prop :baz, T.nilable(T::Array[String]), default: nil
  prop :qux, optional: true
end
`, ScopeFrames)

	assert.Equal(t, []PropertyDeclaration{
		untyped("foo"),
		typed("bar", "SomeType"),
		typed("baz", "T.nilable(T::Array[String])"),
		untyped("qux"),
	}, class(t, rec, "Thing").Properties)
}

func TestGenerate_FixedMacros(t *testing.T) {
	t.Parallel()

	rec := generate(t, `
class Thing
  token_prop
  timestamped_token_prop :ignored, Integer
  created_prop
  updated_prop(foo: 1)
  merchant_prop
  merchant_token_prop
end
`, ScopeFrames)

	thing := class(t, rec, "Thing")
	assert.Equal(t, []PropertyDeclaration{
		typed("token", "String"),
		typed("token", "String"),
		typed("created", "Float"),
		typed("updated", "Float"),
		typed("merchant", "String"),
		typed("merchant", "Opus::Autogen::Tokens::AccountModelMerchantToken"),
	}, thing.Properties)
	assert.Empty(t, thing.ProblemLocations)
}

func TestGenerate_MethodBodiesAreSuppressed(t *testing.T) {
	t.Parallel()

	for _, mode := range []ScopeMode{ScopeFrames, ScopeLegacy} {
		rec := generate(t, `class Thing
  prop :before

  def setup
    prop :inside
    token_prop
  end

  def self.build
    created_prop
  end

  prop :after
end
`, mode)

		thing := class(t, rec, "Thing")
		assert.Equal(t, []PropertyDeclaration{untyped("before"), untyped("after")}, thing.Properties, mode)
		require.Len(t, thing.ProblemLocations, 3, mode)
		assert.Equal(t, 5, thing.ProblemLocations[0].Line)
		assert.Equal(t, 6, thing.ProblemLocations[1].Line)
		assert.Equal(t, 10, thing.ProblemLocations[2].Line)
	}
}

func TestGenerate_UnrecognizedShape(t *testing.T) {
	t.Parallel()

	rec := generate(t, `class Thing
  prop "name"
  prop
  prop name_for(:x)
  prop :ok
end
`, ScopeFrames)

	thing := class(t, rec, "Thing")
	assert.Equal(t, []PropertyDeclaration{untyped("ok")}, thing.Properties)
	require.Len(t, thing.ProblemLocations, 3)
	assert.Equal(t, 2, thing.ProblemLocations[0].Line)
	assert.Equal(t, 3, thing.ProblemLocations[0].Column)
	assert.Equal(t, 3, thing.ProblemLocations[1].Line)
	assert.Equal(t, 4, thing.ProblemLocations[2].Line)
}

func TestGenerate_Ancestors(t *testing.T) {
	t.Parallel()

	rec := generate(t, `
module Mixins
  module Tracked; end
end

class Base; end

class Widget < Base
  include Mixins::Tracked
  include helper_module
  prepend Comparable
end

class Computed < Struct.new(:a)
  include Mixins::Tracked
end
`, ScopeFrames)

	assert.Equal(t, []QualifiedName{{"Base"}, {"Mixins", "Tracked"}, {"Comparable"}}, class(t, rec, "Widget").Ancestors)
	assert.Equal(t, []QualifiedName{{"Mixins", "Tracked"}}, class(t, rec, "Computed").Ancestors)
	assert.Empty(t, class(t, rec, "Base").Ancestors)
}

func TestGenerate_Model(t *testing.T) {
	t.Parallel()

	rec := generate(t, `
module Models
  class First; end
  class Second; end
end

class Api
  model Models::First
  model Models::Second
end

class Dynamic
  model Models::First
  model lookup_model
  model
end

class Suppressed
  def configure
    model Models::Second
  end
end
`, ScopeFrames)

	assert.Equal(t, QualifiedName{"Models", "Second"}, class(t, rec, "Api").ModelReference)
	assert.Equal(t, QualifiedName{"Models", "First"}, class(t, rec, "Dynamic").ModelReference)
	assert.Nil(t, class(t, rec, "Suppressed").ModelReference)
	assert.Empty(t, class(t, rec, "Suppressed").ProblemLocations, "model is not a property macro")
}

func TestGenerate_ReopenedClass(t *testing.T) {
	t.Parallel()

	src := `
class Base; end
class Other; end
class M; end

class A < Base
  prop :first
end

class A < Other
  prop :second
  model M
end
`

	frames := class(t, generate(t, src, ScopeFrames), "A")
	assert.Equal(t, []PropertyDeclaration{untyped("first")}, frames.Properties)
	assert.Equal(t, []QualifiedName{{"Base"}}, frames.Ancestors)
	assert.Nil(t, frames.ModelReference)

	legacy := class(t, generate(t, src, ScopeLegacy), "A")
	assert.Equal(t, []PropertyDeclaration{untyped("first"), untyped("second")}, legacy.Properties)
	assert.Equal(t, []QualifiedName{{"Base"}}, legacy.Ancestors, "ancestors always come from the first definition")
	assert.Equal(t, QualifiedName{"M"}, legacy.ModelReference)
}

func TestGenerate_PackageRegistryIsTransparent(t *testing.T) {
	t.Parallel()

	rec := generateFile(t, "payments/__package.rb", `
class Payments < PackageSpec
  prop :ignored
  token_prop
end
`, ScopeFrames)

	assert.Empty(t, rec.Classes)
}

func TestGenerate_TopLevelCallsIgnored(t *testing.T) {
	t.Parallel()

	rec := generate(t, `
prop :top
token_prop

def helper
  prop :in_method
end
`, ScopeFrames)

	assert.Empty(t, rec.Classes)
}

func TestGenerate_NestedClasses(t *testing.T) {
	t.Parallel()

	rec := generate(t, `
module Billing
  prop :module_level

  class Invoice
    prop :amount, Integer

    class LineItem
      prop :sku, String
    end

    prop :currency, String
  end
end
`, ScopeFrames)

	require.Len(t, rec.Classes, 3)
	assert.Equal(t, []PropertyDeclaration{untyped("module_level")}, class(t, rec, "Billing").Properties)
	assert.Equal(t, []PropertyDeclaration{typed("amount", "Integer"), typed("currency", "String")},
		class(t, rec, "Billing::Invoice").Properties)
	assert.Equal(t, []PropertyDeclaration{typed("sku", "String")},
		class(t, rec, "Billing::Invoice::LineItem").Properties)

	sorted := rec.SortedClasses()
	require.Len(t, sorted, 3)
	assert.Equal(t, "Billing", sorted[0].Name.String())
	assert.Equal(t, "Billing::Invoice::LineItem", sorted[2].Name.String())
}

func TestGenerate_Checksum(t *testing.T) {
	t.Parallel()

	src := "class A\n  prop :x\nend\n"
	a := generateFile(t, "a/one.rb", src, ScopeFrames)
	b := generateFile(t, "b/two.rb", src, ScopeFrames)
	c := generateFile(t, "a/one.rb", "class A\n  prop :y\nend\n", ScopeFrames)

	assert.Equal(t, a.Checksum, b.Checksum)
	assert.NotEqual(t, a.Checksum, c.Checksum)
}

type fixedChecksum uint32

func (f fixedChecksum) Checksum([]byte) uint32 { return uint32(f) }

func TestGenerate_CustomChecksummer(t *testing.T) {
	t.Parallel()

	pf, err := ruby.NewParser().Parse(context.Background(), "x.rb", []byte("class X; end"))
	require.NoError(t, err)
	rec := Generate(pf, fixedChecksum(42), Options{})
	assert.Equal(t, uint32(42), rec.Checksum)
}

func TestWalker_ScopeStackEmptiesAtTopLevel(t *testing.T) {
	t.Parallel()

	pf, err := ruby.NewParser().Parse(context.Background(), "x.rb", []byte(`
module A
  class B
    def m; prop :x; end
    class << self
      token_prop
    end
  end
end
`))
	require.NoError(t, err)

	for _, mode := range []ScopeMode{ScopeFrames, ScopeLegacy} {
		w := newWalker(pf.Symbols, pf.File, mode)
		tree.Walk(pf.Tree, w)
		assert.Equal(t, 0, w.scopes.Depth(), mode)
		assert.Empty(t, w.targets, mode)
	}
}

// classInsideMethod builds Outer { def m; class Inner; prop :a; end; end; prop :b }.
// Ruby rejects a class body inside a method, so the tree is built by hand.
func classInsideMethod() *tree.ParsedFile {
	st := tree.NewSymbolTable()
	outer := st.Enter(tree.Root, "Outer")
	inner := st.Enter(tree.Root, "Inner")

	prop := func(name string, line int) *tree.Send {
		return &tree.Send{
			Base: tree.Base{Loc: tree.Loc{File: "x.rb", Line: line}},
			Fun:  "prop",
			Args: []tree.Node{symbol(name)},
		}
	}

	return &tree.ParsedFile{
		File:    "x.rb",
		Symbols: st,
		Tree: []tree.Node{
			&tree.ClassDef{Symbol: outer, Body: []tree.Node{
				&tree.MethodDef{Name: "m", Body: []tree.Node{
					&tree.ClassDef{Symbol: inner, Body: []tree.Node{prop("a", 3)}},
				}},
				prop("b", 6),
			}},
		},
	}
}

func TestGenerate_ClassExitedWhileSuppressed(t *testing.T) {
	t.Parallel()

	legacy := Generate(classInsideMethod(), nil, Options{ScopeMode: ScopeLegacy})
	inner := class(t, legacy, "Inner")
	require.Len(t, inner.ProblemLocations, 1)
	assert.Equal(t, 3, inner.ProblemLocations[0].Line)
	assert.Equal(t, []PropertyDeclaration{untyped("b")}, inner.Properties, "stale scope captures the outer declaration")
	assert.Empty(t, class(t, legacy, "Outer").Properties)

	frames := Generate(classInsideMethod(), nil, Options{ScopeMode: ScopeFrames})
	assert.Len(t, class(t, frames, "Inner").ProblemLocations, 1)
	assert.Empty(t, class(t, frames, "Inner").Properties)
	assert.Equal(t, []PropertyDeclaration{untyped("b")}, class(t, frames, "Outer").Properties)
}

func TestGenerate_NestedMethodDefinitions(t *testing.T) {
	t.Parallel()

	src := `class Thing
  def outer
    def inner; end
    prop :after_inner
  end
end
`
	legacy := class(t, generate(t, src, ScopeLegacy), "Thing")
	assert.Equal(t, []PropertyDeclaration{untyped("after_inner")}, legacy.Properties)

	frames := class(t, generate(t, src, ScopeFrames), "Thing")
	assert.Empty(t, frames.Properties)
	require.Len(t, frames.ProblemLocations, 1)
	assert.Equal(t, 4, frames.ProblemLocations[0].Line)
}

func TestGenerate_ClassInsideTopLevelMethod(t *testing.T) {
	t.Parallel()

	st := tree.NewSymbolTable()
	built := st.Enter(tree.Root, "Built")
	pf := &tree.ParsedFile{
		File:    "x.rb",
		Symbols: st,
		Tree: []tree.Node{
			&tree.MethodDef{Name: "build", Body: []tree.Node{
				&tree.ClassDef{Symbol: built, Body: []tree.Node{
					&tree.Send{
						Base: tree.Base{Loc: tree.Loc{File: "x.rb", Line: 3}},
						Fun:  "prop",
						Args: []tree.Node{symbol("name")},
					},
				}},
			}},
		},
	}

	for _, mode := range []ScopeMode{ScopeFrames, ScopeLegacy} {
		rec := class(t, Generate(pf, nil, Options{ScopeMode: mode}), "Built")
		assert.Equal(t, []PropertyDeclaration{untyped("name")}, rec.Properties, mode)
		assert.Empty(t, rec.ProblemLocations, mode)
	}
}

func TestGenerate_MacroInMixinArgumentRecordedOnce(t *testing.T) {
	t.Parallel()

	src := `class Widget
  include token_prop()
end
`
	for _, mode := range []ScopeMode{ScopeFrames, ScopeLegacy} {
		widget := class(t, generate(t, src, mode), "Widget")
		assert.Equal(t, []PropertyDeclaration{typed("token", "String")}, widget.Properties, mode)
		assert.Empty(t, widget.Ancestors, mode)
	}
}
