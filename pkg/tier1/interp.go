// Package tier1 implements the template interpreter: a bounded
// register-stack machine compiled once from an expression tree and run
// by walking a short, fixed instruction list, mirroring the register-
// file dispatch style of the teacher's pkg/cpu executor but operating
// on whole columns per instruction instead of single bytes per opcode.
package tier1

import (
	"errors"
	"fmt"

	"github.com/oisee/veccol/pkg/ast"
	"github.com/oisee/veccol/pkg/column"
)

// MaxNodes bounds the expression trees this tier accepts, matching
// spec.md 4.I's Tier-1 eligibility rule (node_count <= 8, no Ternary).
const MaxNodes = 8

var (
	// ErrTooLarge is returned when Compile is given a tree bigger than MaxNodes.
	ErrTooLarge = errors.New("tier1: expression exceeds the template interpreter's node bound")
	// ErrTernary is returned when Compile is given a tree containing a Ternary node.
	ErrTernary = errors.New("tier1: ternary expressions are not eligible for the template interpreter")
	// ErrNoColumns is returned when a compiled program references no column at all.
	ErrNoColumns = errors.New("tier1: expression has no column reference")
)

// Resolver looks up a registered column by name.
type Resolver func(name string) (*column.Column, bool)

type opcode uint8

const (
	opLoadColumn opcode = iota
	opLoadConst
	opUnary
	opBinary
	opCast
)

type instruction struct {
	op       opcode
	name     string
	constant *ast.Constant
	dataType ast.DataType
	aluOp    ast.Op
}

// Program is a compiled, linear register-stack program. Instructions
// run in order against an explicit stack of columns; at most
// RegisterDepth columns are live on the stack at once.
type Program struct {
	instructions  []instruction
	columnNames   []string
	RegisterDepth int
	ResultType    ast.DataType
}

// Compile lowers an optimized, Tier-1-eligible expression tree into a
// Program. The caller is expected to have already run it through
// pkg/optimize and confirmed via pkg/fusion that it classifies as
// Tier1-eligible; Compile re-checks the two hard constraints itself.
func Compile(root ast.Node) (*Program, error) {
	if ast.CountOperations(root) > MaxNodes {
		return nil, ErrTooLarge
	}
	p := &Program{ResultType: root.Meta().ResultType}
	depth := 0
	if err := p.emit(root, &depth); err != nil {
		return nil, err
	}
	if len(p.columnNames) == 0 {
		return nil, ErrNoColumns
	}
	return p, nil
}

// emit appends root's instructions in post-order and tracks the peak
// stack depth the resulting program reaches.
func (p *Program) emit(n ast.Node, depth *int) error {
	switch t := n.(type) {
	case *ast.ColumnRef:
		p.instructions = append(p.instructions, instruction{op: opLoadColumn, name: t.Name})
		p.columnNames = append(p.columnNames, t.Name)
		p.grow(depth, 1)
	case *ast.Constant:
		p.instructions = append(p.instructions, instruction{op: opLoadConst, constant: t})
		p.grow(depth, 1)
	case *ast.Unary:
		if err := p.emit(t.Child, depth); err != nil {
			return err
		}
		p.instructions = append(p.instructions, instruction{op: opUnary, aluOp: t.Op})
	case *ast.Cast:
		if err := p.emit(t.Child, depth); err != nil {
			return err
		}
		p.instructions = append(p.instructions, instruction{op: opCast, dataType: t.Target})
	case *ast.Binary:
		if err := p.emit(t.Left, depth); err != nil {
			return err
		}
		if err := p.emit(t.Right, depth); err != nil {
			return err
		}
		p.instructions = append(p.instructions, instruction{op: opBinary, aluOp: t.Op})
		p.shrink(depth, 1)
	case *ast.Ternary:
		return ErrTernary
	default:
		return fmt.Errorf("tier1: unsupported node %T", n)
	}
	return nil
}

func (p *Program) grow(depth *int, n int) {
	*depth += n
	if *depth > p.RegisterDepth {
		p.RegisterDepth = *depth
	}
}

func (p *Program) shrink(depth *int, n int) {
	*depth -= n
}

// Run executes prog against resolve, returning the single resulting column.
func Run(prog *Program, resolve Resolver) (*column.Column, error) {
	rows, err := rowCount(prog, resolve)
	if err != nil {
		return nil, err
	}

	stack := make([]*column.Column, 0, prog.RegisterDepth)
	pop := func() *column.Column {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top
	}

	for _, in := range prog.instructions {
		switch in.op {
		case opLoadColumn:
			col, ok := resolve(in.name)
			if !ok {
				return nil, fmt.Errorf("tier1: unresolved column %q", in.name)
			}
			stack = append(stack, col)

		case opLoadConst:
			col, err := constantColumn(in.constant, rows)
			if err != nil {
				return nil, err
			}
			stack = append(stack, col)

		case opUnary:
			a := pop()
			res, err := a.Unary(in.aluOp)
			if err != nil {
				return nil, err
			}
			stack = append(stack, res)

		case opCast:
			a := pop()
			res, err := a.Cast(in.dataType)
			if err != nil {
				return nil, err
			}
			stack = append(stack, res)

		case opBinary:
			b := pop()
			a := pop()
			res, err := a.Binary(in.aluOp, b)
			if err != nil {
				return nil, err
			}
			stack = append(stack, res)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("tier1: program left %d values on the stack, want 1", len(stack))
	}
	return stack[0], nil
}

// rowCount resolves the program's first referenced column to learn how
// long every constant-filled column in the program needs to be.
func rowCount(prog *Program, resolve Resolver) (int, error) {
	col, ok := resolve(prog.columnNames[0])
	if !ok {
		return 0, fmt.Errorf("tier1: unresolved column %q", prog.columnNames[0])
	}
	return col.Len(), nil
}

// constantColumn broadcasts a literal into a column of length rows, in
// the constant's own storage type (I32 or F32 -- a BF16-targeted cast
// of a constant is represented as a Cast instruction wrapping a
// normal-width constant, handled by opCast at run time, not here).
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
		return nil, fmt.Errorf("tier1: constant of type %s has no column representation", c.Meta().ResultType)
	}
}
