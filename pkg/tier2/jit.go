// Package tier2 implements the JIT-style dispatch tier: expressions too
// large or irregular for the template interpreter are lowered once into
// a cached Go closure pipeline, keyed by the expression's shape (with its
// column names and literals) plus its leaf type tuple, so the second and
// later evaluation of the same expression, over whatever columns are then
// bound to its names, skips recompilation entirely --
// the closure-cache idiom the teacher's pkg/gpu process keeps for
// compiled GPU kernels, adapted here to an in-process Go closure instead
// of a child process.
package tier2

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oisee/veccol/pkg/ast"
	"github.com/oisee/veccol/pkg/column"
)

// Resolver looks up a registered column by name.
type Resolver func(name string) (*column.Column, bool)

// Compiled is a cached, ready-to-run lowering of one expression shape.
type Compiled func(resolve Resolver) (*column.Column, error)

// cacheKey is the (normalized shape, leaf type tuple) pair a compiled
// pipeline is addressed by.
type cacheKey struct {
	shape string
	types string
}

// Cache holds compiled pipelines keyed by shape+type, with a logrus
// debug entry on every lookup (hit or miss) the way the engine's other
// tiers log dispatch decisions. Entries are never evicted.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]Compiled
	log     logrus.FieldLogger
}

// NewCache builds an empty cache. A nil logger falls back to logrus's
// standard logger.
func NewCache(log logrus.FieldLogger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{entries: make(map[cacheKey]Compiled), log: log}
}

// Eval compiles (or reuses a compiled) pipeline for root and runs it
// against resolve.
func (c *Cache) Eval(root ast.Node, resolve Resolver) (*column.Column, error) {
	key := cacheKey{shape: normalizedShape(root), types: typeTuple(root)}

	c.mu.Lock()
	fn, hit := c.entries[key]
	if !hit {
		fn = compile(root)
		c.entries[key] = fn
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"shape": key.shape,
		"types": key.types,
		"hit":   hit,
		"size":  size,
	}).Debug("tier2 dispatch")

	return fn(resolve)
}

// normalizedShape renders root's operator structure together with each
// leaf's column name or literal value. A compiled closure resolves its
// columns by name and captures its literals, so expressions that differ
// in either get separate cache entries.
func normalizedShape(root ast.Node) string {
	var sb strings.Builder
	writeShape(&sb, root)
	return sb.String()
}

func writeShape(sb *strings.Builder, n ast.Node) {
	switch t := n.(type) {
	case *ast.ColumnRef:
		sb.WriteString("@col:")
		sb.WriteString(t.Name)
	case *ast.Constant:
		sb.WriteString("@const:")
		sb.WriteString(ast.PrettyPrint(t))
	case *ast.Unary:
		sb.WriteString(t.Op.String())
		sb.WriteByte('(')
		writeShape(sb, t.Child)
		sb.WriteByte(')')
	case *ast.Binary:
		sb.WriteByte('(')
		writeShape(sb, t.Left)
		sb.WriteString(t.Op.String())
		writeShape(sb, t.Right)
		sb.WriteByte(')')
	case *ast.Ternary:
		sb.WriteByte('(')
		writeShape(sb, t.Cond)
		sb.WriteString("?")
		writeShape(sb, t.TrueBranch)
		sb.WriteString(":")
		writeShape(sb, t.FalseBranch)
		sb.WriteByte(')')
	case *ast.Cast:
		sb.WriteString(t.Target.String())
		sb.WriteByte('(')
		writeShape(sb, t.Child)
		sb.WriteByte(')')
	default:
		sb.WriteString("?")
	}
}

// typeTuple lists the element type of every column-reference leaf, in
// left-to-right order, so two structurally identical expressions over
// different element kinds (i32 vs f32 columns) get distinct entries.
func typeTuple(root ast.Node) string {
	var nodes []ast.Node
	ast.Collect(root, &nodes)
	var parts []string
	for _, n := range nodes {
		if ref, ok := n.(*ast.ColumnRef); ok {
			parts = append(parts, ref.Meta().ResultType.String())
		}
	}
	return strings.Join(parts, ",")
}

// compile lowers root into a single closure, pre-resolving each node's
// operator into its own nested closure once so repeated Eval calls over
// the same shape skip the AST type switch entirely.
func compile(root ast.Node) Compiled {
	step := compileNode(root)
	return func(resolve Resolver) (*column.Column, error) {
		return step(resolve)
	}
}

func compileNode(n ast.Node) Compiled {
	switch t := n.(type) {
	case *ast.ColumnRef:
		name := t.Name
		return func(resolve Resolver) (*column.Column, error) {
			col, ok := resolve(name)
			if !ok {
				return nil, fmt.Errorf("tier2: unresolved column %q", name)
			}
			return col, nil
		}

	case *ast.Constant:
		c := t
		return func(resolve Resolver) (*column.Column, error) {
			return nil, fmt.Errorf("tier2: constant %v reached compile without a sibling column to size against", c)
		}

	case *ast.Unary:
		child := compileNode(t.Child)
		op := t.Op
		return func(resolve Resolver) (*column.Column, error) {
			c, err := child(resolve)
			if err != nil {
				return nil, err
			}
			return c.Unary(op)
		}

	case *ast.Cast:
		child := compileNodeBroadcastable(t.Child)
		target := t.Target
		return func(resolve Resolver) (*column.Column, error) {
			// rows=0 only matters if child bottoms out at a bare
			// Constant with no sibling column to size against, which
			// the optimizer's constant folding pass never leaves
			// standing on its own (it folds Cast-of-Constant outright).
			c, err := child(resolve, 0)
			if err != nil {
				return nil, err
			}
			return c.Cast(target)
		}

	case *ast.Binary:
		left := compileNodeBroadcastable(t.Left)
		right := compileNodeBroadcastable(t.Right)
		op := t.Op
		return func(resolve Resolver) (*column.Column, error) {
			lhs, err := left(resolve, 0)
			if err != nil {
				return nil, err
			}
			rhs, err := right(resolve, lhs.Len())
			if err != nil {
				return nil, err
			}
			// A constant operand on the left doesn't know its row
			// count until it sees the right side's column length.
			if lhs.Len() == 0 && rhs.Len() > 0 {
				lhs, err = left(resolve, rhs.Len())
				if err != nil {
					return nil, err
				}
			}
			return lhs.Binary(op, rhs)
		}

	case *ast.Ternary:
		cond := compileNode(t.Cond)
		trueBr := compileNode(t.TrueBranch)
		falseBr := compileNode(t.FalseBranch)
		return func(resolve Resolver) (*column.Column, error) {
			c, err := cond(resolve)
			if err != nil {
				return nil, err
			}
			tb, err := trueBr(resolve)
			if err != nil {
				return nil, err
			}
			fb, err := falseBr(resolve)
			if err != nil {
				return nil, err
			}
			return column.Select(c, tb, fb)
		}

	default:
		return func(resolve Resolver) (*column.Column, error) {
			return nil, fmt.Errorf("tier2: unsupported node %T", n)
		}
	}
}

// broadcastable is like Compiled but accepts a row-count hint, used by
// constant leaves that don't know their own length until they see a
// sibling operand's column.
type broadcastable func(resolve Resolver, rows int) (*column.Column, error)

func compileNodeBroadcastable(n ast.Node) broadcastable {
	switch t := n.(type) {
	case *ast.Constant:
		return func(resolve Resolver, rows int) (*column.Column, error) {
			return constantColumn(t, rows)
		}
	case *ast.Cast:
		// Conversion hoisting can wrap a bare Constant operand in a
		// Cast the same Optimize pass never re-folds (e.g. promoting a
		// bf16 column's i32 constant partner up to bf16), so the row
		// count still needs to flow through the cast to the constant
		// underneath it.
		child := compileNodeBroadcastable(t.Child)
		target := t.Target
		return func(resolve Resolver, rows int) (*column.Column, error) {
			c, err := child(resolve, rows)
			if err != nil {
				return nil, err
			}
			return c.Cast(target)
		}
	default:
		inner := compileNode(n)
		return func(resolve Resolver, rows int) (*column.Column, error) {
			return inner(resolve)
		}
	}
}

func constantColumn(c *ast.Constant, rows int) (*column.Column, error) {
	switch c.Meta().ResultType {
	case ast.I32:
		data := make([]int32, rows)
		for i := range data {
			data[i] = c.I32
		}
		return column.NewI32(data), nil
	case ast.F32, ast.BF16:
		data := make([]float32, rows)
		for i := range data {
			data[i] = c.F32
		}
		return column.NewF32(data), nil
	default:
		return nil, fmt.Errorf("tier2: constant of type %s has no column representation", c.Meta().ResultType)
	}
}
