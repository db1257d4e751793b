package optimize

import "github.com/oisee/veccol/pkg/ast"

// eliminateIdentities rewrites binary nodes against an operand that is
// the operator's identity (or annihilator) element, per spec.md
// 4.H's literal rule list. Structural equality for the x&x/x|x/x^x
// rules is ColumnRef-by-name only, matching the spec's note that no
// side-effecting subexpressions exist in this language.
func eliminateIdentities(n ast.Node) ast.Node {
	n = rewriteChildren(n, eliminateIdentities)

	b, ok := n.(*ast.Binary)
	if !ok {
		return n
	}
	rt := b.Meta().ResultType

	switch b.Op {
	case ast.Add:
		if isZeroConst(b.Right) {
			return b.Left
		}
		if isZeroConst(b.Left) {
			return b.Right
		}
	case ast.Sub:
		if isZeroConst(b.Right) {
			return b.Left
		}
	case ast.Mul:
		if isOneConst(b.Right) {
			return b.Left
		}
		if isOneConst(b.Left) {
			return b.Right
		}
		if isZeroConst(b.Right) || isZeroConst(b.Left) {
			return zeroLike(rt)
		}
	case ast.Div:
		if isOneConst(b.Right) {
			return b.Left
		}
		if isZeroConst(b.Left) {
			return zeroLike(rt)
		}
	case ast.BitAnd:
		if isZeroConst(b.Right) || isZeroConst(b.Left) {
			return ast.NewConstantI32(0)
		}
		if sameColumnRef(b.Left, b.Right) {
			return b.Left
		}
	case ast.BitOr:
		if isZeroConst(b.Right) {
			return b.Left
		}
		if isZeroConst(b.Left) {
			return b.Right
		}
		if sameColumnRef(b.Left, b.Right) {
			return b.Left
		}
	case ast.BitXor:
		if isZeroConst(b.Right) {
			return b.Left
		}
		if isZeroConst(b.Left) {
			return b.Right
		}
		if sameColumnRef(b.Left, b.Right) {
			return ast.NewConstantI32(0)
		}
	}
	return n
}

func isZeroConst(n ast.Node) bool {
	return isConstI32(n, 0) || isConstF32(n, 0)
}

func isOneConst(n ast.Node) bool {
	return isConstI32(n, 1) || isConstF32(n, 1)
}

func zeroLike(rt ast.DataType) ast.Node {
	if rt.IsFloating() {
		return ast.NewConstantF32(0)
	}
	return ast.NewConstantI32(0)
}

func sameColumnRef(a, b ast.Node) bool {
	ca, ok1 := a.(*ast.ColumnRef)
	cb, ok2 := b.(*ast.ColumnRef)
	return ok1 && ok2 && ca.Name == cb.Name
}
