package optimize

import "github.com/oisee/veccol/pkg/ast"

// hoistConversions wraps every binary child whose result type differs
// from the node's own arithmetic result type in an explicit Cast, so
// later code generation emits the conversion at the leaf where it can
// fuse with the load. Comparison and logical nodes are skipped: their
// ResultType is the bool-as-i32 tag, not the operand type the two sides
// compute in. Bitwise nodes are skipped too: type inference rejects
// floating operands for them and gives them an i32 result.
func hoistConversions(n ast.Node) ast.Node {
	n = rewriteChildren(n, hoistConversions)

	b, ok := n.(*ast.Binary)
	if !ok {
		return n
	}
	if b.Op.IsComparison() || b.Op.IsLogical() || b.Op.IsBitwise() {
		return n
	}

	rt := b.Meta().ResultType
	b.Left = castIfNeeded(b.Left, rt)
	b.Right = castIfNeeded(b.Right, rt)
	return n
}

func castIfNeeded(n ast.Node, target ast.DataType) ast.Node {
	if n.Meta().ResultType == target {
		return n
	}
	return ast.NewCast(target, n)
}
