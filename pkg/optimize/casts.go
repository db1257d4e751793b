package optimize

import "github.com/oisee/veccol/pkg/ast"

// foldCasts collapses Cast<T>(Cast<U>(e)) into Cast<T>(e), and removes
// a Cast<T>(e) entirely when e already has result type T. Both
// collapses are re-checked after each rewrite so a chain of several
// redundant casts folds down in one pass.
func foldCasts(n ast.Node) ast.Node {
	n = rewriteChildren(n, foldCasts)

	for {
		c, ok := n.(*ast.Cast)
		if !ok {
			return n
		}
		if inner, ok := c.Child.(*ast.Cast); ok {
			n = ast.NewCast(c.Target, inner.Child)
			continue
		}
		if c.Child.Meta().ResultType == c.Target {
			return c.Child
		}
		return c
	}
}
