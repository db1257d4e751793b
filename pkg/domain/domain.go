// Package domain implements the numeric "domain trait" pipeline: for
// each supported element type, a load/transform_to/op/transform_from/store
// sequence that lets the column and tier executors share one generic
// kernel body regardless of the on-disk representation.
package domain

import "golang.org/x/exp/constraints"

// Kind identifies a column's element type.
type Kind uint8

const (
	KindI32 Kind = iota
	KindF32
	KindBF16
)

func (k Kind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindF32:
		return "f32"
	case KindBF16:
		return "bf16"
	default:
		return "unknown"
	}
}

// Numeric is the set of element types a domain pipeline may compute over.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Pipeline describes one element type's load -> transform_to -> op ->
// transform_from -> store sequence. S is the on-disk storage
// representation; C is the representation operations are computed in
// (for bf16, C is float32 so the narrow computation path is shared
// with the native f32 domain).
type Pipeline[S any, C Numeric] struct {
	TransformTo   func(S) C
	TransformFrom func(C) S
}

// I32Pipeline computes directly over int32; no widening is needed.
var I32Pipeline = Pipeline[int32, int32]{
	TransformTo:   func(s int32) int32 { return s },
	TransformFrom: func(c int32) int32 { return c },
}

// F32Pipeline computes directly over float32; no widening is needed.
var F32Pipeline = Pipeline[float32, float32]{
	TransformTo:   func(s float32) float32 { return s },
	TransformFrom: func(c float32) float32 { return c },
}

// BF16Pipeline widens to float32 to compute, then narrows (rounding
// to nearest even) back to bf16 to store.
var BF16Pipeline = Pipeline[BF16, float32]{
	TransformTo:   BF16.ToFloat32,
	TransformFrom: BF16FromFloat32,
}

// Add, Sub, Mul are defined for every numeric compute type.
func Add[C Numeric](a, b C) C { return a + b }
func Sub[C Numeric](a, b C) C { return a - b }
func Mul[C Numeric](a, b C) C { return a * b }

// Div returns a/b and reports whether b was nonzero. The bool result
// is a signal, not the error itself: the caller (pkg/column) raises
// DivisionByZero and aborts the evaluation for any present lane where
// b is zero, rather than propagating a sentinel value or panicking,
// per DESIGN.md Open Question 4.
func Div[C Numeric](a, b C) (C, bool) {
	var zero C
	if b == zero {
		return zero, false
	}
	return a / b, true
}

// Min and Max are defined for every numeric compute type.
func Min[C Numeric](a, b C) C {
	if a < b {
		return a
	}
	return b
}

func Max[C Numeric](a, b C) C {
	if a > b {
		return a
	}
	return b
}

// FMA computes a*b+c in one call, matching the franklin fusion
// analyzer's FMA pattern.
func FMA[C Numeric](a, b, c C) C { return a*b + c }

// ModInt computes Euclidean-adjacent truncating integer remainder
// (Go's native %), reporting whether b was nonzero; see Div.
func ModInt(a, b int32) (int32, bool) {
	if b == 0 {
		return 0, false
	}
	return a % b, true
}

// BitAnd, BitOr, BitXor, Shl, Shr operate on the integer domain only;
// they are not meaningful over float32/bf16 compute values.
func BitAnd(a, b int32) int32 { return a & b }
func BitOr(a, b int32) int32  { return a | b }
func BitXor(a, b int32) int32 { return a ^ b }
func BitNot(a int32) int32    { return ^a }
func Shl(a int32, n uint32) int32 { return a << (n & 31) }
func Shr(a int32, n uint32) int32 { return a >> (n & 31) }
