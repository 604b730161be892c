// Package tree defines the resolved syntax tree consumed by the DSL analysis.
//
// A front end (see package ruby) produces a ParsedFile: every class and module
// definition is bound to a symbol in the file's SymbolTable, and every constant
// reference written in the source has been resolved to a symbol. Nodes keep
// their verbatim source text so that expressions can be rendered exactly as
// the author wrote them.
package tree

import "fmt"

// Loc is a source range. Lines and columns are 1-based.
type Loc struct {
	File      string `json:"file" yaml:"file"`
	StartByte int    `json:"start_byte" yaml:"start_byte"`
	EndByte   int    `json:"end_byte" yaml:"end_byte"`
	Line      int    `json:"line" yaml:"line"`
	Column    int    `json:"column" yaml:"column"`
}

func (l Loc) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Node is any element of the resolved tree.
type Node interface {
	Pos() Loc
	// Text returns the verbatim source text of the node.
	Text() string
}

// Base is embedded by every node type.
type Base struct {
	Loc    Loc
	Source string
}

func (b *Base) Pos() Loc { return b.Loc }

func (b *Base) Text() string { return b.Source }

// ClassKind distinguishes classes from modules.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindModule
)

func (k ClassKind) String() string {
	if k == KindModule {
		return "module"
	}
	return "class"
}

// ClassDef is a class or module definition.
type ClassDef struct {
	Base
	Kind   ClassKind
	Symbol SymbolID
	// Ancestors holds the superclass expression (if any) followed by the
	// arguments of include/prepend calls, in source order.
	Ancestors []Node
	Body      []Node

	// Mixins counts the trailing Ancestors that are arguments of calls in
	// Body. Those nodes are reachable through Body and are not walked twice.
	Mixins int
}

// Superclass returns the ancestors written in the class header.
func (c *ClassDef) Superclass() []Node {
	n := len(c.Ancestors) - c.Mixins
	if n < 0 {
		n = 0
	}
	return c.Ancestors[:n]
}

// MethodDef is a method definition; Singleton is set for def self.name.
type MethodDef struct {
	Base
	Name      string
	Singleton bool
	Body      []Node
}

// Send is a method call.
type Send struct {
	Base
	Recv  Node // nil for self-less calls
	Fun   string
	Args  []Node
	Block []Node
}

// PositionalArgs returns the arguments that are not keyword pairs.
func (s *Send) PositionalArgs() []Node {
	out := make([]Node, 0, len(s.Args))
	for _, arg := range s.Args {
		if _, ok := arg.(*Hash); ok {
			continue
		}
		out = append(out, arg)
	}
	return out
}

// ConstantLit is a resolved constant reference. Original is true when the
// reference was written in the source rather than synthesized.
type ConstantLit struct {
	Base
	Symbol   SymbolID
	Original bool
}

// LiteralKind classifies Literal values.
type LiteralKind int

const (
	LitOther LiteralKind = iota
	LitSymbol
	LitString
	LitInteger
	LitFloat
	LitNil
	LitTrue
	LitFalse
)

// Literal is a literal value. For symbols Value holds the bare name.
type Literal struct {
	Base
	Kind  LiteralKind
	Value string
}

// IsSymbol reports whether the literal is a symbol such as :foo.
func (l *Literal) IsSymbol() bool {
	return l.Kind == LitSymbol
}

// Hash groups the bare keyword arguments of a call (key: value without braces).
type Hash struct {
	Base
	Pairs []Node
}

// Expr is any other expression; it is kept for its children.
type Expr struct {
	Base
	Kind     string
	Children []Node
}

// ParsedFile is one resolved source file.
type ParsedFile struct {
	File    string
	Source  []byte
	Tree    []Node
	Symbols *SymbolTable
}
