package ruby

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/propscan/internal/autogen/tree"
)

// statementContainers lists node kinds whose named children are statements.
var statementContainers = map[string]bool{
	"program":                  true,
	"body_statement":           true,
	"block_body":               true,
	"parenthesized_statements": true,
	"begin":                    true,
	"then":                     true,
	"else":                     true,
	"ensure":                   true,
	"do":                       true,
	"if_modifier":              true,
	"unless_modifier":          true,
	"while_modifier":           true,
	"until_modifier":           true,
	"rescue_modifier":          true,
}

// mixinCalls are the body calls whose arguments become ancestors.
var mixinCalls = map[string]bool{
	"include": true,
	"prepend": true,
}

// env is the lexical environment of the statements being converted.
type env struct {
	lexical []tree.SymbolID
	locals  map[string]bool
}

func (e *env) withScope(sym tree.SymbolID) *env {
	lexical := make([]tree.SymbolID, len(e.lexical), len(e.lexical)+1)
	copy(lexical, e.lexical)
	return &env{
		lexical: append(lexical, sym),
		locals:  make(map[string]bool),
	}
}

func (e *env) withLocals() *env {
	return &env{lexical: e.lexical, locals: make(map[string]bool)}
}

type converter struct {
	file        string
	source      []byte
	packageFile bool
	symbols     *tree.SymbolTable
}

func newConverter(file string, source []byte, packageFile bool) *converter {
	return &converter{
		file:        file,
		source:      source,
		packageFile: packageFile,
		symbols:     tree.NewSymbolTable(),
	}
}

// topLexical is the outermost lexical nesting. Package files nest their
// top-level definitions in the package registry.
func (c *converter) topLexical() []tree.SymbolID {
	if c.packageFile {
		return []tree.SymbolID{tree.Root, tree.PackageRegistry}
	}
	return []tree.SymbolID{tree.Root}
}

func (c *converter) topEnv() *env {
	return &env{lexical: c.topLexical(), locals: make(map[string]bool)}
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(c.source[n.StartByte():n.EndByte()])
}

func (c *converter) base(n *sitter.Node) tree.Base {
	pos := n.StartPosition()
	return tree.Base{
		Loc: tree.Loc{
			File:      c.file,
			StartByte: int(n.StartByte()),
			EndByte:   int(n.EndByte()),
			Line:      int(pos.Row) + 1,
			Column:    int(pos.Column) + 1,
		},
		Source: c.text(n),
	}
}

// name is the namer pass: it enters every class and module definition so
// that constant references resolve regardless of definition order.
func (c *converter) name(n *sitter.Node, lexical []tree.SymbolID) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case "class", "module":
		if sym, ok := c.define(n.ChildByFieldName("name"), lexical); ok {
			lexical = appendScope(lexical, sym)
		}
	case "singleton_class":
		if sym, ok := c.singleton(n, lexical); ok {
			lexical = appendScope(lexical, sym)
		}
	}

	for _, child := range namedChildren(n) {
		c.name(child, lexical)
	}
}

func appendScope(lexical []tree.SymbolID, sym tree.SymbolID) []tree.SymbolID {
	out := make([]tree.SymbolID, len(lexical), len(lexical)+1)
	copy(out, lexical)
	return append(out, sym)
}

// define enters the symbol named by a class or module name node.
func (c *converter) define(nameNode *sitter.Node, lexical []tree.SymbolID) (tree.SymbolID, bool) {
	if nameNode == nil {
		return tree.NoSymbol, false
	}
	owner := lexical[len(lexical)-1]

	switch nameNode.Kind() {
	case "constant":
		return c.symbols.Enter(owner, c.text(nameNode)), true
	case "scope_resolution":
		leaf := nameNode.ChildByFieldName("name")
		if leaf == nil {
			return tree.NoSymbol, false
		}
		scope := nameNode.ChildByFieldName("scope")
		if scope == nil {
			return c.symbols.Enter(tree.Root, c.text(leaf)), true
		}
		scopeSym, ok := c.resolve(scope, lexical)
		if !ok {
			return tree.NoSymbol, false
		}
		return c.symbols.Enter(scopeSym, c.text(leaf)), true
	}
	return tree.NoSymbol, false
}

// singleton enters the singleton class opened by "class << self".
func (c *converter) singleton(n *sitter.Node, lexical []tree.SymbolID) (tree.SymbolID, bool) {
	value := n.ChildByFieldName("value")
	if value == nil || value.Kind() != "self" {
		return tree.NoSymbol, false
	}
	owner := lexical[len(lexical)-1]
	if owner == tree.Root || owner == tree.PackageRegistry {
		return tree.NoSymbol, false
	}
	return c.symbols.Enter(owner, "<Class:"+c.symbols.Name(owner)+">"), true
}

// resolve binds a constant reference. The first segment is searched from
// the innermost lexical scope outward and falls back to the root.
func (c *converter) resolve(n *sitter.Node, lexical []tree.SymbolID) (tree.SymbolID, bool) {
	switch n.Kind() {
	case "constant":
		name := c.text(n)
		for i := len(lexical) - 1; i >= 0; i-- {
			if sym, ok := c.symbols.Lookup(lexical[i], name); ok {
				return sym, true
			}
		}
		return c.symbols.Enter(tree.Root, name), true
	case "scope_resolution":
		leaf := n.ChildByFieldName("name")
		if leaf == nil || leaf.Kind() != "constant" {
			return tree.NoSymbol, false
		}
		scope := n.ChildByFieldName("scope")
		if scope == nil {
			return c.symbols.Enter(tree.Root, c.text(leaf)), true
		}
		scopeSym, ok := c.resolve(scope, lexical)
		if !ok {
			return tree.NoSymbol, false
		}
		return c.symbols.Enter(scopeSym, c.text(leaf)), true
	}
	return tree.NoSymbol, false
}

// statements converts the named children of a statement container.
func (c *converter) statements(n *sitter.Node, e *env) []tree.Node {
	var out []tree.Node
	for _, child := range namedChildren(n) {
		if node := c.convert(child, e, true); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func (c *converter) convert(n *sitter.Node, e *env, stmt bool) tree.Node {
	switch n.Kind() {
	case "comment":
		return nil
	case "class", "module":
		return c.convertClass(n, e)
	case "singleton_class":
		return c.convertSingletonClass(n, e)
	case "method", "singleton_method":
		return c.convertMethod(n, e)
	case "call":
		return c.convertCall(n, e)
	case "identifier":
		if stmt && !e.locals[c.text(n)] {
			return &tree.Send{Base: c.base(n), Fun: c.text(n)}
		}
		return &tree.Expr{Base: c.base(n), Kind: "identifier"}
	case "assignment", "operator_assignment":
		if left := n.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			e.locals[c.text(left)] = true
		}
		return c.convertExpr(n, e)
	case "constant", "scope_resolution":
		if sym, ok := c.resolve(n, e.lexical); ok {
			return &tree.ConstantLit{Base: c.base(n), Symbol: sym, Original: true}
		}
		return c.convertExpr(n, e)
	case "simple_symbol":
		return &tree.Literal{Base: c.base(n), Kind: tree.LitSymbol, Value: strings.TrimPrefix(c.text(n), ":")}
	case "hash_key_symbol":
		return &tree.Literal{Base: c.base(n), Kind: tree.LitSymbol, Value: c.text(n)}
	case "delimited_symbol":
		if content, ok := c.plainContent(n); ok {
			return &tree.Literal{Base: c.base(n), Kind: tree.LitSymbol, Value: content}
		}
		return c.convertExpr(n, e)
	case "string":
		if content, ok := c.plainContent(n); ok {
			return &tree.Literal{Base: c.base(n), Kind: tree.LitString, Value: content}
		}
		return c.convertExpr(n, e)
	case "integer":
		return &tree.Literal{Base: c.base(n), Kind: tree.LitInteger, Value: c.text(n)}
	case "float":
		return &tree.Literal{Base: c.base(n), Kind: tree.LitFloat, Value: c.text(n)}
	case "nil":
		return &tree.Literal{Base: c.base(n), Kind: tree.LitNil, Value: "nil"}
	case "true":
		return &tree.Literal{Base: c.base(n), Kind: tree.LitTrue, Value: "true"}
	case "false":
		return &tree.Literal{Base: c.base(n), Kind: tree.LitFalse, Value: "false"}
	}
	return c.convertExpr(n, e)
}

// convertExpr keeps an unmodelled node for its children.
func (c *converter) convertExpr(n *sitter.Node, e *env) tree.Node {
	expr := &tree.Expr{Base: c.base(n), Kind: n.Kind()}
	if statementContainers[n.Kind()] {
		expr.Children = c.statements(n, e)
		return expr
	}
	for _, child := range namedChildren(n) {
		if node := c.convert(child, e, false); node != nil {
			expr.Children = append(expr.Children, node)
		}
	}
	return expr
}

func (c *converter) convertClass(n *sitter.Node, e *env) tree.Node {
	nameNode := n.ChildByFieldName("name")
	sym, ok := c.define(nameNode, e.lexical)
	if !ok {
		return c.convertExpr(n, e)
	}

	kind := tree.KindClass
	if n.Kind() == "module" {
		kind = tree.KindModule
	}
	def := &tree.ClassDef{Base: c.base(n), Kind: kind, Symbol: sym}

	superclass := n.ChildByFieldName("superclass")
	if superclass == nil {
		superclass = findChildByKind(n, "superclass")
	}
	if superclass != nil {
		for _, expr := range namedChildren(superclass) {
			if node := c.convert(expr, e, false); node != nil {
				def.Ancestors = append(def.Ancestors, node)
				break
			}
		}
	}

	inner := e.withScope(sym)
	def.Body = c.body(n, inner, nameNode, superclass)

	for _, stmt := range def.Body {
		send, ok := stmt.(*tree.Send)
		if !ok || send.Recv != nil || !mixinCalls[send.Fun] {
			continue
		}
		args := send.PositionalArgs()
		def.Ancestors = append(def.Ancestors, args...)
		def.Mixins += len(args)
	}
	return def
}

func (c *converter) convertSingletonClass(n *sitter.Node, e *env) tree.Node {
	sym, ok := c.singleton(n, e.lexical)
	if !ok {
		return c.convertExpr(n, e)
	}
	def := &tree.ClassDef{Base: c.base(n), Kind: tree.KindClass, Symbol: sym}
	def.Body = c.body(n, e.withScope(sym), n.ChildByFieldName("value"))
	return def
}

func (c *converter) convertMethod(n *sitter.Node, e *env) tree.Node {
	nameNode := n.ChildByFieldName("name")
	def := &tree.MethodDef{
		Base:      c.base(n),
		Name:      c.text(nameNode),
		Singleton: n.Kind() == "singleton_method",
	}

	inner := e.withLocals()
	skip := []*sitter.Node{nameNode, n.ChildByFieldName("object")}
	if params := n.ChildByFieldName("parameters"); params != nil {
		c.declareParams(params, inner)
	}
	def.Body = c.body(n, inner, skip...)
	return def
}

// declareParams records every parameter name as a local of the method.
func (c *converter) declareParams(params *sitter.Node, e *env) {
	for _, p := range namedChildren(params) {
		if p.Kind() == "identifier" {
			e.locals[c.text(p)] = true
			continue
		}
		if name := p.ChildByFieldName("name"); name != nil {
			e.locals[c.text(name)] = true
		}
	}
}

// body flattens the statements of a definition, skipping header nodes.
func (c *converter) body(n *sitter.Node, e *env, skip ...*sitter.Node) []tree.Node {
	var out []tree.Node
	for _, child := range namedChildren(n) {
		if containsNode(skip, child) {
			continue
		}
		if child.Kind() == "body_statement" {
			out = append(out, c.statements(child, e)...)
			continue
		}
		if node := c.convert(child, e, true); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func (c *converter) convertCall(n *sitter.Node, e *env) tree.Node {
	method := n.ChildByFieldName("method")
	if method == nil {
		return c.convertExpr(n, e)
	}

	send := &tree.Send{Base: c.base(n), Fun: c.text(method)}
	if recv := n.ChildByFieldName("receiver"); recv != nil {
		send.Recv = c.convert(recv, e, false)
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		send.Args = c.arguments(args, e)
	}
	if block := n.ChildByFieldName("block"); block != nil {
		if node := c.convertExpr(block, e); node != nil {
			send.Block = []tree.Node{node}
		}
	}
	return send
}

// arguments converts an argument list. Consecutive bare keyword pairs are
// grouped into a single Hash.
func (c *converter) arguments(n *sitter.Node, e *env) []tree.Node {
	var out []tree.Node
	var kwargs *tree.Hash
	for _, child := range namedChildren(n) {
		if child.Kind() == "comment" {
			continue
		}
		if child.Kind() == "pair" {
			pair := c.convertExpr(child, e)
			if kwargs == nil {
				kwargs = &tree.Hash{Base: c.base(child)}
				out = append(out, kwargs)
			}
			kwargs.Pairs = append(kwargs.Pairs, pair)
			kwargs.Loc.EndByte = int(child.EndByte())
			kwargs.Source = string(c.source[kwargs.Loc.StartByte:kwargs.Loc.EndByte])
			continue
		}
		kwargs = nil
		if node := c.convert(child, e, false); node != nil {
			out = append(out, node)
		}
	}
	return out
}

// plainContent returns the literal content of a string or delimited symbol
// without interpolation.
func (c *converter) plainContent(n *sitter.Node) (string, bool) {
	var sb strings.Builder
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "string_content":
			sb.WriteString(c.text(child))
		case "escape_sequence":
			sb.WriteString(c.text(child))
		default:
			return "", false
		}
	}
	return sb.String(), true
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := n.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func findChildByKind(n *sitter.Node, kind string) *sitter.Node {
	for _, child := range namedChildren(n) {
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

func containsNode(nodes []*sitter.Node, n *sitter.Node) bool {
	for _, other := range nodes {
		if other != nil && sameNode(other, n) {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
