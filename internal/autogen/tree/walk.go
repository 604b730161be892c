package tree

// Visitor receives callbacks during Walk. Pre hooks run before a node's
// children are visited and Post hooks after.
type Visitor interface {
	PreClassDef(def *ClassDef)
	PostClassDef(def *ClassDef)
	PreMethodDef(def *MethodDef)
	PostMethodDef(def *MethodDef)
	PreSend(send *Send)
}

// Walk visits nodes depth-first in source order.
func Walk(nodes []Node, v Visitor) {
	for _, n := range nodes {
		walkNode(n, v)
	}
}

func walkNode(n Node, v Visitor) {
	switch n := n.(type) {
	case nil:
		return
	case *ClassDef:
		v.PreClassDef(n)
		Walk(n.Superclass(), v)
		Walk(n.Body, v)
		v.PostClassDef(n)
	case *MethodDef:
		v.PreMethodDef(n)
		Walk(n.Body, v)
		v.PostMethodDef(n)
	case *Send:
		v.PreSend(n)
		walkNode(n.Recv, v)
		Walk(n.Args, v)
		Walk(n.Block, v)
	case *Hash:
		Walk(n.Pairs, v)
	case *Expr:
		Walk(n.Children, v)
	}
}

// Inspect calls fn for every node in depth-first order. If fn returns false
// the node's children are skipped.
func Inspect(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		inspectNode(n, fn)
	}
}

func inspectNode(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *ClassDef:
		Inspect(n.Superclass(), fn)
		Inspect(n.Body, fn)
	case *MethodDef:
		Inspect(n.Body, fn)
	case *Send:
		inspectNode(n.Recv, fn)
		Inspect(n.Args, fn)
		Inspect(n.Block, fn)
	case *Hash:
		Inspect(n.Pairs, fn)
	case *Expr:
		Inspect(n.Children, fn)
	}
}
