// Package typeinfer performs bottom-up type inference over an
// expression tree, promoting mismatched operand types via a rank
// table and inserting explicit pkg/ast.Cast nodes where promotion is
// required.
package typeinfer

import (
	"errors"
	"fmt"

	"github.com/oisee/veccol/pkg/ast"
)

// ErrUnknownColumn is returned when a ColumnRef names a column the
// schema doesn't know about.
var ErrUnknownColumn = errors.New("typeinfer: unknown column")

// TypeError reports an operator applied to operand types it cannot accept.
type TypeError struct {
	Op      ast.Op
	Operand ast.DataType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("typeinfer: operator %s cannot apply to %s", e.Op, e.Operand)
}

// Schema maps column names to their declared element type, mirroring
// HasImmediate/HasImm16-style predicate tables generalized into a
// per-name type lookup.
type Schema map[string]ast.DataType

// rank defines the promotion order: lower rank promotes to higher.
var rank = map[ast.DataType]int{ast.I32: 1, ast.BF16: 2, ast.F32: 3}

// Infer walks n bottom-up, assigning ResultType on every node and
// returning a possibly-rewritten tree with explicit Cast nodes
// inserted at every promotion point.
func Infer(n ast.Node, schema Schema) (ast.Node, error) {
	switch t := n.(type) {
	case *ast.ColumnRef:
		dt, ok := schema[t.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, t.Name)
		}
		t.Meta().ResultType = dt
		return t, nil

	case *ast.Constant:
		return t, nil

	case *ast.Unary:
		child, err := Infer(t.Child, schema)
		if err != nil {
			return nil, err
		}
		t.Child = child
		ct := child.Meta().ResultType
		if t.Op == ast.BitNot && ct.IsFloating() {
			return nil, &TypeError{Op: t.Op, Operand: ct}
		}
		if t.Op == ast.LogicalNot {
			t.Meta().ResultType = ast.I32
		} else {
			t.Meta().ResultType = ct
		}
		return t, nil

	case *ast.Binary:
		left, err := Infer(t.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := Infer(t.Right, schema)
		if err != nil {
			return nil, err
		}

		if t.Op.IsBitwise() {
			if left.Meta().ResultType.IsFloating() {
				return nil, &TypeError{Op: t.Op, Operand: left.Meta().ResultType}
			}
			if right.Meta().ResultType.IsFloating() {
				return nil, &TypeError{Op: t.Op, Operand: right.Meta().ResultType}
			}
			t.Left, t.Right = left, right
			t.Meta().ResultType = ast.I32
			return t, nil
		}

		common := promote(left.Meta().ResultType, right.Meta().ResultType)
		left = castTo(left, common)
		right = castTo(right, common)
		t.Left, t.Right = left, right

		if t.Op.IsComparison() || t.Op.IsLogical() {
			t.Meta().ResultType = ast.I32
		} else {
			t.Meta().ResultType = common
		}
		return t, nil

	case *ast.Ternary:
		cond, err := Infer(t.Cond, schema)
		if err != nil {
			return nil, err
		}
		trueBr, err := Infer(t.TrueBranch, schema)
		if err != nil {
			return nil, err
		}
		falseBr, err := Infer(t.FalseBranch, schema)
		if err != nil {
			return nil, err
		}

		common := promote(trueBr.Meta().ResultType, falseBr.Meta().ResultType)
		t.Cond = cond
		t.TrueBranch = castTo(trueBr, common)
		t.FalseBranch = castTo(falseBr, common)
		t.Meta().ResultType = common
		return t, nil

	case *ast.Cast:
		child, err := Infer(t.Child, schema)
		if err != nil {
			return nil, err
		}
		t.Child = child
		return t, nil

	default:
		return n, nil
	}
}

// promote returns the higher-ranked of a and b. Types missing from rank
// (Bool, Unknown) rank 0, below every numeric type, so a numeric type
// always wins.
func promote(a, b ast.DataType) ast.DataType {
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// castTo wraps n in an explicit Cast if its result type differs from target.
func castTo(n ast.Node, target ast.DataType) ast.Node {
	if n.Meta().ResultType == target {
		return n
	}
	return ast.NewCast(target, n)
}
