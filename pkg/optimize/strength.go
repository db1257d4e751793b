package optimize

import "github.com/oisee/veccol/pkg/ast"

// reduceStrength replaces multiplies/divides by constants with cheaper
// equivalent ops: x*2 -> x+x for any numeric type, and for integral x,
// x*2^k -> x<<k / x/2^k -> x>>k (k >= 1). The shift form takes
// priority over the generic x*2 -> x+x form when both would apply
// (i.e. k == 1 on an integral operand), since a single shift is
// cheaper than an add and the two rules would otherwise conflict.
func reduceStrength(n ast.Node) ast.Node {
	n = rewriteChildren(n, reduceStrength)

	b, ok := n.(*ast.Binary)
	if !ok {
		return n
	}
	rt := b.Meta().ResultType

	switch b.Op {
	case ast.Mul:
		if rt == ast.I32 {
			if variable, k, ok := mulByPow2(b); ok {
				return shiftNode(ast.Shl, variable, k, rt)
			}
		}
		if variable, ok := mulByTwo(b); ok {
			out := ast.NewBinary(ast.Add, variable, variable)
			out.Meta().ResultType = rt
			return out
		}
	case ast.Div:
		if rt == ast.I32 {
			if k, ok := powerOfTwoOperand(b.Right); ok && k >= 1 {
				return shiftNode(ast.Shr, b.Left, k, rt)
			}
		}
	}
	return n
}

func mulByPow2(b *ast.Binary) (ast.Node, int32, bool) {
	if k, ok := powerOfTwoOperand(b.Right); ok && k >= 1 {
		return b.Left, k, true
	}
	if k, ok := powerOfTwoOperand(b.Left); ok && k >= 1 {
		return b.Right, k, true
	}
	return nil, 0, false
}

func mulByTwo(b *ast.Binary) (ast.Node, bool) {
	if isConstI32(b.Right, 2) || isConstF32(b.Right, 2) {
		return b.Left, true
	}
	if isConstI32(b.Left, 2) || isConstF32(b.Left, 2) {
		return b.Right, true
	}
	return nil, false
}

func powerOfTwoOperand(n ast.Node) (int32, bool) {
	v, ok := constI32(n)
	if !ok {
		return 0, false
	}
	return powerOfTwoExponent(v)
}

func shiftNode(op ast.Op, x ast.Node, k int32, rt ast.DataType) ast.Node {
	out := ast.NewBinary(op, x, ast.NewConstantI32(k))
	out.Meta().ResultType = rt
	return out
}
