// Package column implements columnar data storage and elementwise
// kernels over i32/f32/bf16 data, composing a presence (null) bitmap
// on every operation.
package column

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/oisee/veccol/pkg/alloc"
	"github.com/oisee/veccol/pkg/ast"
	"github.com/oisee/veccol/pkg/domain"
	"github.com/oisee/veccol/pkg/presence"
)

var (
	// ErrTypeMismatch is returned when a binary/ternary kernel is given
	// columns of different element kinds.
	ErrTypeMismatch = errors.New("column: operand kinds do not match")
	// ErrUnsupportedOp is returned when an operator has no kernel for a
	// given element kind (e.g. bitwise ops over floating columns).
	ErrUnsupportedOp = errors.New("column: operator not supported for this column kind")
	// ErrDivisionByZero is returned by Binary when an integer division
	// or modulo has a zero divisor in a present lane. Unlike a missing
	// operand, this aborts the whole evaluation rather than merely
	// clearing the affected row's presence bit.
	ErrDivisionByZero = errors.New("column: integer division or modulo by zero")
)

// arenaPoolSize is the shared region's capacity: a power of two, well
// above any cache line, per pkg/alloc's New contract.
const arenaPoolSize = 1 << 26 // 64 MiB

var (
	arenaOnce sync.Once
	arena     *alloc.Allocator
)

// sharedArena lazily creates the package-wide region that backs every
// column's value buffer, so a process that never evaluates an
// expression never pays for the arena.
func sharedArena() *alloc.Allocator {
	arenaOnce.Do(func() {
		a, err := alloc.New(arenaPoolSize)
		if err != nil {
			// arenaPoolSize is a fixed power-of-two constant well above
			// alloc.CacheLineSize; New can only fail on a caller error.
			panic(err)
		}
		arena = a
	})
	return arena
}

func elemSize(kind domain.Kind) uintptr {
	switch kind {
	case domain.KindI32, domain.KindF32:
		return 4
	case domain.KindBF16:
		return 2
	default:
		return 0
	}
}

// Column is a typed, presence-tracked vector of scalar values.
// Comparison and logical operators produce an i32 column of 0/1,
// matching the grammar's C-like truthiness rather than introducing a
// separate boolean storage kind.
type Column struct {
	Kind     domain.Kind
	I32Data  []int32
	F32Data  []float32
	BF16Data []domain.BF16
	Present  *presence.Bitmap

	block    alloc.Block
	hasBlock bool
}

// Release returns c's value buffer to the shared region allocator, if
// it was allocated from one (a zero-row column never is). Safe to
// call more than once; a no-op once already released.
func (c *Column) Release() {
	if !c.hasBlock {
		return
	}
	_ = sharedArena().Free(c.block)
	c.hasBlock = false
}

// NewI32 builds an i32 column with every row present.
func NewI32(data []int32) *Column {
	c := newLike(domain.KindI32, len(data))
	copy(c.I32Data, data)
	c.Present = presence.NewFull(uint64(len(data)))
	return c
}

// NewF32 builds an f32 column with every row present.
func NewF32(data []float32) *Column {
	c := newLike(domain.KindF32, len(data))
	copy(c.F32Data, data)
	c.Present = presence.NewFull(uint64(len(data)))
	return c
}

// NewBF16 builds a bf16 column with every row present.
func NewBF16(data []domain.BF16) *Column {
	c := newLike(domain.KindBF16, len(data))
	copy(c.BF16Data, data)
	c.Present = presence.NewFull(uint64(len(data)))
	return c
}

// Len returns the column's row count.
func (c *Column) Len() int {
	switch c.Kind {
	case domain.KindI32:
		return len(c.I32Data)
	case domain.KindF32:
		return len(c.F32Data)
	case domain.KindBF16:
		return len(c.BF16Data)
	default:
		return 0
	}
}

// DataType maps the column's storage kind to the AST's type tag.
func (c *Column) DataType() ast.DataType {
	switch c.Kind {
	case domain.KindI32:
		return ast.I32
	case domain.KindF32:
		return ast.F32
	case domain.KindBF16:
		return ast.BF16
	default:
		return ast.Unknown
	}
}

// newLike allocates a fresh n-row column of kind, its value buffer
// carved out of the shared region allocator per spec 3: a
// power-of-two, cache-line-aligned block reinterpreted as a typed
// slice. A request the arena cannot satisfy (larger than the pool, or
// the pool is fragmented/exhausted) falls back to a plain heap buffer
// so a kernel never fails merely because the region is full.
func newLike(kind domain.Kind, n int) *Column {
	c := &Column{Kind: kind, Present: presence.New(uint64(n))}
	if n == 0 {
		return c
	}

	size := elemSize(kind) * uintptr(n)
	block, err := sharedArena().Allocate(uint64(size))
	if err != nil {
		switch kind {
		case domain.KindI32:
			c.I32Data = make([]int32, n)
		case domain.KindF32:
			c.F32Data = make([]float32, n)
		case domain.KindBF16:
			c.BF16Data = make([]domain.BF16, n)
		}
		return c
	}

	c.block = block
	c.hasBlock = true
	data := sharedArena().Data(block)
	switch kind {
	case domain.KindI32:
		c.I32Data = unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), n)
	case domain.KindF32:
		c.F32Data = unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), n)
	case domain.KindBF16:
		c.BF16Data = unsafe.Slice((*domain.BF16)(unsafe.Pointer(&data[0])), n)
	}
	return c
}

func effectiveSize(a, b *Column) int {
	if a.Len() < b.Len() {
		return a.Len()
	}
	return b.Len()
}

// Binary applies op elementwise to c and other, returning a new
// column truncated to the shorter operand's length. A row's presence
// is the AND of both operands' presence. Integer division or modulo
// by zero in any present lane raises ErrDivisionByZero and aborts
// before producing an output column; float division by zero is never
// an error since it follows IEEE-754 (0/0 is NaN, x/0 is +-inf).
func (c *Column) Binary(op ast.Op, other *Column) (*Column, error) {
	if c.Kind != other.Kind {
		return nil, fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, c.Kind, other.Kind)
	}

	n := effectiveSize(c, other)

	if c.Kind == domain.KindI32 && (op == ast.Div || op == ast.Mod) {
		if row, zero := firstZeroDivisor(c, other, n); zero {
			return nil, fmt.Errorf("%w: row %d", ErrDivisionByZero, row)
		}
	}

	out := newLike(c.Kind, n)

	switch c.Kind {
	case domain.KindI32:
		for i := 0; i < n; i++ {
			a := domain.I32Pipeline.TransformTo(c.I32Data[i])
			b := domain.I32Pipeline.TransformTo(other.I32Data[i])
			v, ok := intBinary(op, a, b)
			out.I32Data[i] = domain.I32Pipeline.TransformFrom(v)
			out.setRowPresence(i, c, other, ok)
		}
	case domain.KindF32:
		for i := 0; i < n; i++ {
			a := domain.F32Pipeline.TransformTo(c.F32Data[i])
			b := domain.F32Pipeline.TransformTo(other.F32Data[i])
			v, ok := floatBinary(op, a, b)
			out.F32Data[i] = domain.F32Pipeline.TransformFrom(v)
			out.setRowPresence(i, c, other, ok)
		}
	case domain.KindBF16:
		for i := 0; i < n; i++ {
			a := domain.BF16Pipeline.TransformTo(c.BF16Data[i])
			b := domain.BF16Pipeline.TransformTo(other.BF16Data[i])
			v, ok := floatBinary(op, a, b)
			out.BF16Data[i] = domain.BF16Pipeline.TransformFrom(v)
			out.setRowPresence(i, c, other, ok)
		}
	default:
		return nil, ErrUnsupportedOp
	}

	// Comparison and logical results are 0/1 flags stored as i32,
	// whatever the operand kind.
	if c.Kind != domain.KindI32 && (op.IsComparison() || op.IsLogical()) {
		flags, err := out.Cast(ast.I32)
		out.Release()
		return flags, err
	}
	return out, nil
}

// firstZeroDivisor reports the lowest row index (and true) where both
// operands of an integer division/modulo are present and the divisor
// is zero. Absent lanes never trap, matching setRowPresence's AND of
// both operands' presence for every other operator.
func firstZeroDivisor(a, b *Column, n int) (int, bool) {
	for i := 0; i < n; i++ {
		ap, _ := a.Present.Test(uint64(i))
		bp, _ := b.Present.Test(uint64(i))
		if ap && bp && b.I32Data[i] == 0 {
			return i, true
		}
	}
	return 0, false
}

func (out *Column) setRowPresence(i int, a, b *Column, opOK bool) {
	ap, _ := a.Present.Test(uint64(i))
	bp, _ := b.Present.Test(uint64(i))
	_ = out.Present.Set(uint64(i), ap && bp && opOK)
}

func intBinary(op ast.Op, a, b int32) (int32, bool) {
	switch op {
	case ast.Add:
		return domain.Add(a, b), true
	case ast.Sub:
		return domain.Sub(a, b), true
	case ast.Mul:
		return domain.Mul(a, b), true
	case ast.Div:
		return domain.Div(a, b)
	case ast.Mod:
		return domain.ModInt(a, b)
	case ast.BitAnd:
		return domain.BitAnd(a, b), true
	case ast.BitOr:
		return domain.BitOr(a, b), true
	case ast.BitXor:
		return domain.BitXor(a, b), true
	case ast.Shl:
		return domain.Shl(a, uint32(b)), true
	case ast.Shr:
		return domain.Shr(a, uint32(b)), true
	case ast.Min:
		return domain.Min(a, b), true
	case ast.Max:
		return domain.Max(a, b), true
	case ast.Eq:
		return boolToI32(a == b), true
	case ast.Ne:
		return boolToI32(a != b), true
	case ast.Lt:
		return boolToI32(a < b), true
	case ast.Le:
		return boolToI32(a <= b), true
	case ast.Gt:
		return boolToI32(a > b), true
	case ast.Ge:
		return boolToI32(a >= b), true
	case ast.LogicalAnd:
		return boolToI32(a != 0 && b != 0), true
	case ast.LogicalOr:
		return boolToI32(a != 0 || b != 0), true
	default:
		return 0, false
	}
}

func floatBinary(op ast.Op, a, b float32) (float32, bool) {
	switch op {
	case ast.Add:
		return domain.Add(a, b), true
	case ast.Sub:
		return domain.Sub(a, b), true
	case ast.Mul:
		return domain.Mul(a, b), true
	case ast.Div:
		// IEEE-754 float division never traps: 0/0 is NaN and x/0 is
		// +-inf, so this is never a row-level failure unlike the
		// integer path, which does route through domain.Div to avoid
		// a native divide trap.
		return a / b, true
	case ast.Mod:
		return float32(math.Mod(float64(a), float64(b))), true
	case ast.Min:
		return domain.Min(a, b), true
	case ast.Max:
		return domain.Max(a, b), true
	case ast.Eq:
		return boolToF32(a == b), true
	case ast.Ne:
		return boolToF32(a != b), true
	case ast.Lt:
		return boolToF32(a < b), true
	case ast.Le:
		return boolToF32(a <= b), true
	case ast.Gt:
		return boolToF32(a > b), true
	case ast.Ge:
		return boolToF32(a >= b), true
	case ast.LogicalAnd:
		return boolToF32(a != 0 && b != 0), true
	case ast.LogicalOr:
		return boolToF32(a != 0 || b != 0), true
	default:
		return 0, false
	}
}

func boolToI32(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

func boolToF32(v bool) float32 {
	if v {
		return 1
	}
	return 0
}

// Unary applies a single-operand operator elementwise.
func (c *Column) Unary(op ast.Op) (*Column, error) {
	n := c.Len()
	out := newLike(c.Kind, n)

	switch c.Kind {
	case domain.KindI32:
		for i := 0; i < n; i++ {
			v, ok := intUnary(op, domain.I32Pipeline.TransformTo(c.I32Data[i]))
			out.I32Data[i] = domain.I32Pipeline.TransformFrom(v)
			p, _ := c.Present.Test(uint64(i))
			_ = out.Present.Set(uint64(i), p && ok)
		}
	case domain.KindF32:
		for i := 0; i < n; i++ {
			v, ok := floatUnary(op, domain.F32Pipeline.TransformTo(c.F32Data[i]))
			out.F32Data[i] = domain.F32Pipeline.TransformFrom(v)
			p, _ := c.Present.Test(uint64(i))
			_ = out.Present.Set(uint64(i), p && ok)
		}
	case domain.KindBF16:
		for i := 0; i < n; i++ {
			v, ok := floatUnary(op, domain.BF16Pipeline.TransformTo(c.BF16Data[i]))
			out.BF16Data[i] = domain.BF16Pipeline.TransformFrom(v)
			p, _ := c.Present.Test(uint64(i))
			_ = out.Present.Set(uint64(i), p && ok)
		}
	default:
		return nil, ErrUnsupportedOp
	}
	if c.Kind != domain.KindI32 && op == ast.LogicalNot {
		flags, err := out.Cast(ast.I32)
		out.Release()
		return flags, err
	}
	return out, nil
}

func intUnary(op ast.Op, a int32) (int32, bool) {
	switch op {
	case ast.Neg:
		return -a, true
	case ast.BitNot:
		return domain.BitNot(a), true
	case ast.LogicalNot:
		return boolToI32(a == 0), true
	default:
		return 0, false
	}
}

func floatUnary(op ast.Op, a float32) (float32, bool) {
	switch op {
	case ast.Neg:
		return -a, true
	case ast.LogicalNot:
		return boolToF32(a == 0), true
	default:
		return 0, false
	}
}

// FMA computes a*b+c elementwise over three same-kind columns in a
// single fused pass, avoiding the intermediate column a Mul then Add
// would otherwise materialize.
func FMA(a, b, c *Column) (*Column, error) {
	if a.Kind != b.Kind || b.Kind != c.Kind {
		return nil, ErrTypeMismatch
	}
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	if c.Len() < n {
		n = c.Len()
	}
	out := newLike(a.Kind, n)

	switch a.Kind {
	case domain.KindI32:
		for i := 0; i < n; i++ {
			out.I32Data[i] = domain.FMA(a.I32Data[i], b.I32Data[i], c.I32Data[i])
			out.setRowPresence3(i, a, b, c)
		}
	case domain.KindF32:
		for i := 0; i < n; i++ {
			out.F32Data[i] = domain.FMA(a.F32Data[i], b.F32Data[i], c.F32Data[i])
			out.setRowPresence3(i, a, b, c)
		}
	case domain.KindBF16:
		for i := 0; i < n; i++ {
			v := domain.FMA(
				domain.BF16Pipeline.TransformTo(a.BF16Data[i]),
				domain.BF16Pipeline.TransformTo(b.BF16Data[i]),
				domain.BF16Pipeline.TransformTo(c.BF16Data[i]),
			)
			out.BF16Data[i] = domain.BF16Pipeline.TransformFrom(v)
			out.setRowPresence3(i, a, b, c)
		}
	default:
		return nil, ErrUnsupportedOp
	}
	return out, nil
}

func (out *Column) setRowPresence3(i int, a, b, c *Column) {
	ap, _ := a.Present.Test(uint64(i))
	bp, _ := b.Present.Test(uint64(i))
	cp, _ := c.Present.Test(uint64(i))
	_ = out.Present.Set(uint64(i), ap && bp && cp)
}

// Cast converts c to the target element type.
func (c *Column) Cast(target ast.DataType) (*Column, error) {
	n := c.Len()
	targetKind, err := kindFor(target)
	if err != nil {
		return nil, err
	}
	out := newLike(targetKind, n)
	out.Present = c.Present.Clone()

	for i := 0; i < n; i++ {
		f := c.floatAt(i)
		switch targetKind {
		case domain.KindI32:
			out.I32Data[i] = int32(f)
		case domain.KindF32:
			out.F32Data[i] = f
		case domain.KindBF16:
			out.BF16Data[i] = domain.BF16Pipeline.TransformFrom(f)
		}
	}
	return out, nil
}

func kindFor(t ast.DataType) (domain.Kind, error) {
	switch t {
	case ast.I32:
		return domain.KindI32, nil
	case ast.F32:
		return domain.KindF32, nil
	case ast.BF16:
		return domain.KindBF16, nil
	default:
		return 0, fmt.Errorf("column: cannot cast to %s", t)
	}
}

// floatAt returns row i as a float32 regardless of storage kind, used
// internally by Cast.
func (c *Column) floatAt(i int) float32 {
	switch c.Kind {
	case domain.KindI32:
		return float32(c.I32Data[i])
	case domain.KindF32:
		return c.F32Data[i]
	case domain.KindBF16:
		return domain.BF16Pipeline.TransformTo(c.BF16Data[i])
	default:
		return 0
	}
}
