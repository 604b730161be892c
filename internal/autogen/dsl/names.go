package dsl

import "github.com/mvp-joe/propscan/internal/autogen/tree"

// SymbolLookup is the part of the symbol table needed to name a symbol.
type SymbolLookup interface {
	Exists(id tree.SymbolID) bool
	Name(id tree.SymbolID) string
	Owner(id tree.SymbolID) tree.SymbolID
}

// SymbolName returns the fully qualified name of sym by walking its owner
// chain up to (and excluding) the root. A missing symbol yields an empty name.
func SymbolName(symbols SymbolLookup, sym tree.SymbolID) QualifiedName {
	out := QualifiedName{}
	for symbols.Exists(sym) && sym != tree.Root {
		out = append(out, symbols.Name(sym))
		sym = symbols.Owner(sym)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
