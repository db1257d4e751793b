// Package tier0 implements the pre-compiled kernel catalog: a dense
// table keyed by (pattern, element kind, operator), populated once in
// init(), mapping straight to the hand-written vectorized kernels in
// pkg/column. Lookup is O(1), matching spec.md 4.J -- this is the
// engine's fast path for the shapes the fusion analyzer recognizes up
// front (a bare column, a binary op of two columns, a nested binary,
// or a fused multiply-add).
package tier0

import (
	"fmt"

	"github.com/oisee/veccol/pkg/ast"
	"github.com/oisee/veccol/pkg/column"
	"github.com/oisee/veccol/pkg/domain"
)

// Resolver looks up a registered column by name.
type Resolver func(name string) (*column.Column, bool)

type key struct {
	Pattern ast.Pattern
	Kind    domain.Kind
	Op      ast.Op
}

type kernel func(resolve Resolver, root ast.Node) (*column.Column, error)

var catalog map[key]kernel

func init() {
	catalog = make(map[key]kernel)
	for _, k := range []domain.Kind{domain.KindI32, domain.KindF32, domain.KindBF16} {
		registerSingleColumn(k)
		registerBinaryOps(k)
		registerFMA(k)
	}
}

// binaryOps lists every operator the grammar accepts for a two-operand
// column expression; every one of these gets both a BinaryOp and a
// NestedBinary catalog entry.
func binaryOps() []ast.Op {
	return []ast.Op{
		ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod,
		ast.BitAnd, ast.BitOr, ast.BitXor, ast.Shl, ast.Shr,
		ast.Eq, ast.Ne, ast.Lt, ast.Le, ast.Gt, ast.Ge,
		ast.LogicalAnd, ast.LogicalOr, ast.Min, ast.Max,
	}
}

func registerSingleColumn(k domain.Kind) {
	catalog[key{ast.PatternSingleColumn, k, 0}] = func(resolve Resolver, root ast.Node) (*column.Column, error) {
		ref := root.(*ast.ColumnRef)
		col, ok := resolve(ref.Name)
		if !ok {
			return nil, fmt.Errorf("tier0: unresolved column %q", ref.Name)
		}
		return col, nil
	}
}

func registerBinaryOps(k domain.Kind) {
	for _, op := range binaryOps() {
		fn := func(resolve Resolver, root ast.Node) (*column.Column, error) {
			b := root.(*ast.Binary)
			left, err := resolveOperand(resolve, b.Left)
			if err != nil {
				return nil, err
			}
			right, err := resolveOperand(resolve, b.Right)
			if err != nil {
				return nil, err
			}
			return left.Binary(b.Op, right)
		}
		catalog[key{ast.PatternBinaryOp, k, op}] = fn
		catalog[key{ast.PatternNestedBinary, k, op}] = fn
	}
}

func registerFMA(k domain.Kind) {
	catalog[key{ast.PatternFMA, k, ast.FMA}] = func(resolve Resolver, root ast.Node) (*column.Column, error) {
		add := root.(*ast.Binary)
		mul := add.Left.(*ast.Binary)
		a, err := resolveOperand(resolve, mul.Left)
		if err != nil {
			return nil, err
		}
		b, err := resolveOperand(resolve, mul.Right)
		if err != nil {
			return nil, err
		}
		c, err := resolveOperand(resolve, add.Right)
		if err != nil {
			return nil, err
		}
		return column.FMA(a, b, c)
	}
}

// resolveOperand resolves an operand of a Tier-0 shape: a ColumnRef, a
// Cast around an operand, or (for NestedBinary) a Binary over two such
// operands, evaluated with Column.Binary.
func resolveOperand(resolve Resolver, n ast.Node) (*column.Column, error) {
	switch t := n.(type) {
	case *ast.Binary:
		left, err := resolveOperand(resolve, t.Left)
		if err != nil {
			return nil, err
		}
		right, err := resolveOperand(resolve, t.Right)
		if err != nil {
			return nil, err
		}
		return left.Binary(t.Op, right)
	case *ast.ColumnRef:
		col, ok := resolve(t.Name)
		if !ok {
			return nil, fmt.Errorf("tier0: unresolved column %q", t.Name)
		}
		return col, nil
	case *ast.Cast:
		inner, err := resolveOperand(resolve, t.Child)
		if err != nil {
			return nil, err
		}
		return inner.Cast(t.Target)
	default:
		return nil, fmt.Errorf("tier0: unexpected operand node %T", n)
	}
}

// kindFor maps the AST's element type tag to the column storage kind.
func kindFor(t ast.DataType) (domain.Kind, bool) {
	switch t {
	case ast.I32:
		return domain.KindI32, true
	case ast.F32:
		return domain.KindF32, true
	case ast.BF16:
		return domain.KindBF16, true
	default:
		return 0, false
	}
}

// Dispatch looks up and runs the Tier-0 kernel for root, if one exists.
// ok is false when root's pattern/type/op combination has no catalog
// entry, telling the caller to fall back to a lower tier.
func Dispatch(root ast.Node, resolve Resolver) (col *column.Column, ok bool, err error) {
	pattern := ast.ClassifyPattern(root)

	kind, kindOK := kindFor(operandKind(root))
	if !kindOK {
		return nil, false, nil
	}

	var op ast.Op
	switch pattern {
	case ast.PatternSingleColumn:
		op = 0
	case ast.PatternBinaryOp, ast.PatternNestedBinary:
		b, isBinary := root.(*ast.Binary)
		if !isBinary {
			return nil, false, nil
		}
		op = b.Op
	case ast.PatternFMA:
		op = ast.FMA
	default:
		return nil, false, nil
	}

	fn, found := catalog[key{pattern, kind, op}]
	if !found {
		return nil, false, nil
	}
	col, err = fn(resolve, root)
	return col, true, err
}

// operandKind returns the element type the kernel should compute over:
// for comparisons/logical ops (whose own ResultType is the i32 bool
// tag) this is the operand type, which the catalog keys on so mixed
// i32/f32/bf16 comparison kernels can be told apart.
func operandKind(root ast.Node) ast.DataType {
	switch t := root.(type) {
	case *ast.ColumnRef:
		return t.Meta().ResultType
	case *ast.Binary:
		if t.Op.IsComparison() || t.Op.IsLogical() {
			return t.Left.Meta().ResultType
		}
		return t.Meta().ResultType
	default:
		return root.Meta().ResultType
	}
}
