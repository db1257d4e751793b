// Package optimize implements the algebraic optimizer: five fixed-order
// passes (constant folding, identity elimination, strength reduction,
// cast folding, conversion hoisting), each a confluent local rewrite so
// that running the sequence again on its own output is a no-op.
package optimize

import "github.com/oisee/veccol/pkg/ast"

// Optimize runs all five passes, in order, once.
func Optimize(n ast.Node) ast.Node {
	n = foldConstants(n)
	n = eliminateIdentities(n)
	n = reduceStrength(n)
	n = foldCasts(n)
	n = hoistConversions(n)
	return n
}

// rewriteChildren applies fn to every child of n and returns a
// rebuilt node referencing the rewritten children.
func rewriteChildren(n ast.Node, fn func(ast.Node) ast.Node) ast.Node {
	switch t := n.(type) {
	case *ast.Unary:
		t.Child = fn(t.Child)
		return t
	case *ast.Binary:
		t.Left = fn(t.Left)
		t.Right = fn(t.Right)
		return t
	case *ast.Ternary:
		t.Cond = fn(t.Cond)
		t.TrueBranch = fn(t.TrueBranch)
		t.FalseBranch = fn(t.FalseBranch)
		return t
	case *ast.Cast:
		t.Child = fn(t.Child)
		return t
	default:
		return n
	}
}

func isConstI32(n ast.Node, v int32) bool {
	c, ok := n.(*ast.Constant)
	return ok && c.Meta().ResultType == ast.I32 && c.I32 == v
}

func isConstF32(n ast.Node, v float32) bool {
	c, ok := n.(*ast.Constant)
	return ok && c.Meta().ResultType == ast.F32 && c.F32 == v
}

func constI32(n ast.Node) (int32, bool) {
	c, ok := n.(*ast.Constant)
	if !ok || c.Meta().ResultType != ast.I32 {
		return 0, false
	}
	return c.I32, true
}

func powerOfTwoExponent(v int32) (int32, bool) {
	if v <= 0 {
		return 0, false
	}
	exp := int32(0)
	for x := v; x > 1; x >>= 1 {
		if x&1 != 0 {
			return 0, false
		}
		exp++
	}
	return exp, true
}
