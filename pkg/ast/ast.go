// Package ast defines the expression tree that the lexer/parser
// produce, the type inference and optimizer passes rewrite, and the
// fusion analyzer and tiered executors consume. Every node carries
// cost-model metadata computed once, at construction time, rather
// than recomputed on every traversal.
package ast

import "fmt"

// DataType identifies the scalar element type an expression (or a
// subexpression) produces.
type DataType uint8

const (
	Unknown DataType = iota
	I32
	F32
	BF16
	Bool
)

func (d DataType) String() string {
	switch d {
	case I32:
		return "i32"
	case F32:
		return "f32"
	case BF16:
		return "bf16"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// IsFloating reports whether d is a floating-point type.
func (d DataType) IsFloating() bool { return d == F32 || d == BF16 }

// IsNumeric reports whether d carries numeric (non-bool) values.
func (d DataType) IsNumeric() bool { return d == I32 || d == F32 || d == BF16 }

// Op identifies the operator an interior node applies.
type Op uint8

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	BitXor
	BitNot
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	LogicalAnd
	LogicalOr
	LogicalNot
	Neg
	FMA
	Min
	Max
)

var opNames = map[Op]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/", Mod: "%",
	BitAnd: "&", BitOr: "|", BitXor: "^", BitNot: "~", Shl: "<<", Shr: ">>",
	Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=",
	LogicalAnd: "&&", LogicalOr: "||", LogicalNot: "!", Neg: "-",
	FMA: "fma", Min: "min", Max: "max",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", o)
}

// IsBitwise reports whether o is a bitwise operator.
func (o Op) IsBitwise() bool {
	switch o {
	case BitAnd, BitOr, BitXor, BitNot, Shl, Shr:
		return true
	}
	return false
}

// IsComparison reports whether o is a comparison operator.
func (o Op) IsComparison() bool {
	switch o {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return true
	}
	return false
}

// IsLogical reports whether o is a boolean-logic operator.
func (o Op) IsLogical() bool {
	switch o {
	case LogicalAnd, LogicalOr, LogicalNot:
		return true
	}
	return false
}

// Meta carries cost-model metadata shared by every node kind.
type Meta struct {
	ResultType       DataType
	Complexity       uint32 // rough op count in the subtree
	MemoryLoads      uint32 // estimated column reads in the subtree
	IsConstant       bool   // foldable at optimize time
	CanFuse          bool   // eligible for fusion
	RegisterPressure uint8  // estimated live-value count during fused eval
}

// Node is implemented by every expression tree node.
type Node interface {
	Meta() *Meta
	Accept(v Visitor)
}

// Visitor implements the double-dispatch traversal pattern used by
// the pretty-printer, type inference, and the optimizer's rewrite
// passes.
type Visitor interface {
	VisitColumnRef(*ColumnRef)
	VisitConstant(*Constant)
	VisitUnary(*Unary)
	VisitBinary(*Binary)
	VisitTernary(*Ternary)
	VisitCast(*Cast)
}

// ColumnRef is a leaf node referencing an input column by name.
type ColumnRef struct {
	meta  Meta
	Name  string
	Index int
}

// NewColumnRef builds a column reference node.
func NewColumnRef(name string, index int) *ColumnRef {
	return &ColumnRef{
		meta:  Meta{MemoryLoads: 1, CanFuse: true},
		Name:  name,
		Index: index,
	}
}

func (n *ColumnRef) Meta() *Meta      { return &n.meta }
func (n *ColumnRef) Accept(v Visitor) { v.VisitColumnRef(n) }

// Constant is a leaf node holding a scalar literal.
type Constant struct {
	meta Meta
	I32  int32
	F32  float32
	Bool bool
}

// NewConstantI32 builds an i32 constant node.
func NewConstantI32(v int32) *Constant {
	return &Constant{meta: Meta{ResultType: I32, IsConstant: true, CanFuse: true}, I32: v}
}

// NewConstantF32 builds an f32 constant node.
func NewConstantF32(v float32) *Constant {
	return &Constant{meta: Meta{ResultType: F32, IsConstant: true, CanFuse: true}, F32: v}
}

// NewConstantBool builds a boolean constant node.
func NewConstantBool(v bool) *Constant {
	return &Constant{meta: Meta{ResultType: Bool, IsConstant: true, CanFuse: true}, Bool: v}
}

func (n *Constant) Meta() *Meta      { return &n.meta }
func (n *Constant) Accept(v Visitor) { v.VisitConstant(n) }

// Unary applies a single-operand operator to Child.
type Unary struct {
	meta  Meta
	Op    Op
	Child Node
}

// NewUnary builds a unary node, deriving complexity/loads from Child.
func NewUnary(op Op, child Node) *Unary {
	cm := child.Meta()
	return &Unary{
		meta: Meta{
			Complexity:       cm.Complexity + 1,
			MemoryLoads:      cm.MemoryLoads,
			RegisterPressure: cm.RegisterPressure + 1,
			CanFuse:          cm.CanFuse,
		},
		Op:    op,
		Child: child,
	}
}

func (n *Unary) Meta() *Meta      { return &n.meta }
func (n *Unary) Accept(v Visitor) { v.VisitUnary(n) }

// Binary applies a two-operand operator to Left and Right.
type Binary struct {
	meta  Meta
	Op    Op
	Left  Node
	Right Node

	// FusionRoot marks a node to be fused together with its descendants
	// into a single dispatch. pkg/fusion does not set it; Analyze reports
	// its decision through Opportunity.ShouldFuse instead.
	FusionRoot bool
}

// NewBinary builds a binary node, deriving cost metadata from the
// original franklin container/expression/ast.hpp construction formulas:
// complexity sums across children plus one for this node, memory loads
// are the plain sum of the children's (the column references below it),
// register pressure sums children's plus one.
func NewBinary(op Op, left, right Node) *Binary {
	lm, rm := left.Meta(), right.Meta()
	return &Binary{
		meta: Meta{
			Complexity:       lm.Complexity + rm.Complexity + 1,
			MemoryLoads:      lm.MemoryLoads + rm.MemoryLoads,
			RegisterPressure: lm.RegisterPressure + rm.RegisterPressure + 1,
			CanFuse:          lm.CanFuse && rm.CanFuse,
		},
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func (n *Binary) Meta() *Meta      { return &n.meta }
func (n *Binary) Accept(v Visitor) { v.VisitBinary(n) }

// Ternary is condition ? TrueBranch : FalseBranch. Ternaries never
// fuse, matching the original's explicit "ternary is complex" rule.
type Ternary struct {
	meta                          Meta
	Cond, TrueBranch, FalseBranch Node
}

// NewTernary builds a ternary node.
func NewTernary(cond, trueBranch, falseBranch Node) *Ternary {
	cm, tm, fm := cond.Meta(), trueBranch.Meta(), falseBranch.Meta()
	return &Ternary{
		meta: Meta{
			Complexity:  cm.Complexity + tm.Complexity + fm.Complexity + 1,
			MemoryLoads: cm.MemoryLoads + tm.MemoryLoads + fm.MemoryLoads,
			CanFuse:     false,
		},
		Cond:        cond,
		TrueBranch:  trueBranch,
		FalseBranch: falseBranch,
	}
}

func (n *Ternary) Meta() *Meta      { return &n.meta }
func (n *Ternary) Accept(v Visitor) { v.VisitTernary(n) }

// Cast explicitly converts Child's result to Target.
type Cast struct {
	meta   Meta
	Target DataType
	Child  Node
}

// NewCast builds an explicit conversion node.
func NewCast(target DataType, child Node) *Cast {
	cm := child.Meta()
	return &Cast{
		meta: Meta{
			ResultType:       target,
			Complexity:       cm.Complexity + 1,
			MemoryLoads:      cm.MemoryLoads,
			RegisterPressure: cm.RegisterPressure,
			CanFuse:          cm.CanFuse,
		},
		Target: target,
		Child:  child,
	}
}

func (n *Cast) Meta() *Meta      { return &n.meta }
func (n *Cast) Accept(v Visitor) { v.VisitCast(n) }

// Pattern classifies an expression subtree for tier selection, exactly
// mirroring the franklin fusion analyzer's pattern enum.
type Pattern uint8

const (
	PatternSingleColumn Pattern = iota
	PatternBinaryOp
	PatternNestedBinary
	PatternFMA
	PatternComplexFusible
	PatternComplexUnfusible
)

func (p Pattern) String() string {
	switch p {
	case PatternSingleColumn:
		return "single_column"
	case PatternBinaryOp:
		return "binary_op"
	case PatternNestedBinary:
		return "nested_binary"
	case PatternFMA:
		return "fma"
	case PatternComplexFusible:
		return "complex_fusible"
	default:
		return "complex_unfusible"
	}
}

// IsColumnRef reports whether n is a *ColumnRef.
func IsColumnRef(n Node) bool {
	_, ok := n.(*ColumnRef)
	return ok
}

// IsBinaryOfRefs reports whether n is a *Binary whose two children are
// both column references.
func IsBinaryOfRefs(n Node) bool {
	b, ok := n.(*Binary)
	return ok && IsColumnRef(b.Left) && IsColumnRef(b.Right)
}

// CountOperations counts interior (operator) nodes in the subtree
// rooted at n, matching the franklin fusion analyzer's op counter.
func CountOperations(n Node) int {
	switch t := n.(type) {
	case *Binary:
		return 1 + CountOperations(t.Left) + CountOperations(t.Right)
	case *Unary:
		return 1 + CountOperations(t.Child)
	case *Ternary:
		return 1 + CountOperations(t.Cond) + CountOperations(t.TrueBranch) + CountOperations(t.FalseBranch)
	case *Cast:
		return 1 + CountOperations(t.Child)
	default:
		return 0
	}
}

// Collect appends n and every descendant, in pre-order, to nodes.
func Collect(n Node, nodes *[]Node) {
	if n == nil {
		return
	}
	*nodes = append(*nodes, n)
	switch t := n.(type) {
	case *Binary:
		Collect(t.Left, nodes)
		Collect(t.Right, nodes)
	case *Unary:
		Collect(t.Child, nodes)
	case *Ternary:
		Collect(t.Cond, nodes)
		Collect(t.TrueBranch, nodes)
		Collect(t.FalseBranch, nodes)
	case *Cast:
		Collect(t.Child, nodes)
	}
}

// ClassifyPattern mirrors the franklin fusion analyzer's classify_pattern:
// FMA is checked before generic BinaryOp, which is checked before
// NestedBinary, which is checked before ComplexFusible.
func ClassifyPattern(root Node) Pattern {
	if IsColumnRef(root) {
		return PatternSingleColumn
	}

	if add, ok := root.(*Binary); ok && add.Op == Add {
		if mul, ok := add.Left.(*Binary); ok && mul.Op == Mul {
			if IsColumnRef(mul.Left) && IsColumnRef(mul.Right) && IsColumnRef(add.Right) {
				return PatternFMA
			}
		}
	}

	if binop, ok := root.(*Binary); ok {
		if IsColumnRef(binop.Left) && IsColumnRef(binop.Right) {
			return PatternBinaryOp
		}
		if (IsColumnRef(binop.Left) && IsBinaryOfRefs(binop.Right)) ||
			(IsBinaryOfRefs(binop.Left) && IsColumnRef(binop.Right)) {
			return PatternNestedBinary
		}
		if CountOperations(root) <= 8 {
			return PatternComplexFusible
		}
	}

	return PatternComplexUnfusible
}
