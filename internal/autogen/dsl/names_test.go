package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/propscan/internal/autogen/tree"
)

func TestSymbolName(t *testing.T) {
	t.Parallel()

	st := tree.NewSymbolTable()
	a := st.Enter(tree.Root, "Opus")
	b := st.Enter(a, "Billing")
	c := st.Enter(b, "Invoice")

	assert.Equal(t, QualifiedName{"Opus", "Billing", "Invoice"}, SymbolName(st, c))
	assert.Equal(t, QualifiedName{"Opus"}, SymbolName(st, a))
	assert.Equal(t, QualifiedName{}, SymbolName(st, tree.Root))
	assert.Equal(t, QualifiedName{}, SymbolName(st, tree.NoSymbol))
	assert.Equal(t, QualifiedName{"<PackageRegistry>"}, SymbolName(st, tree.PackageRegistry))
}

func TestQualifiedName(t *testing.T) {
	t.Parallel()

	q := ParseQualifiedName("::Opus::Billing")
	assert.Equal(t, QualifiedName{"Opus", "Billing"}, q)
	assert.Equal(t, "Opus::Billing", q.String())
	assert.True(t, q.Equal(QualifiedName{"Opus", "Billing"}))
	assert.False(t, q.Equal(QualifiedName{"Billing", "Opus"}), "order is part of identity")
	assert.False(t, q.Equal(QualifiedName{"Opus"}))
	assert.Equal(t, QualifiedName{}, ParseQualifiedName(""))
}
