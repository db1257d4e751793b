package column

import (
	"math"

	"github.com/oisee/veccol/pkg/domain"
)

// Reduction identifies a whole-column combining operation.
type Reduction uint8

const (
	ReduceSum Reduction = iota
	ReduceProduct
	ReduceMin
	ReduceMax
)

func (r Reduction) String() string {
	switch r {
	case ReduceSum:
		return "sum"
	case ReduceProduct:
		return "product"
	case ReduceMin:
		return "min"
	case ReduceMax:
		return "max"
	default:
		return "reduction(?)"
	}
}

// Scalar is the result of reducing a column to a single value. Present
// is false only when every row of the input was absent, in which case
// the numeric fields hold the reduction's identity element.
type Scalar struct {
	Kind    domain.Kind
	I32     int32
	F32     float32
	BF16    domain.BF16
	Present bool
}

// Reduce combines every present row of c with r, substituting r's
// identity element for absent rows so the result never depends on
// uninitialized storage. If every row is absent, the result carries
// the identity element with Present = false.
func (c *Column) Reduce(r Reduction) (Scalar, error) {
	switch c.Kind {
	case domain.KindI32:
		acc := i32Identity(r)
		any := false
		for i, v := range c.I32Data {
			if p, _ := c.Present.Test(uint64(i)); !p {
				continue
			}
			any = true
			acc = combineI32(r, acc, v)
		}
		return Scalar{Kind: domain.KindI32, I32: acc, Present: any}, nil

	case domain.KindF32:
		acc := f32Identity(r)
		any := false
		for i, v := range c.F32Data {
			if p, _ := c.Present.Test(uint64(i)); !p {
				continue
			}
			any = true
			acc = combineF32(r, acc, v)
		}
		return Scalar{Kind: domain.KindF32, F32: acc, Present: any}, nil

	case domain.KindBF16:
		acc := f32Identity(r)
		any := false
		for i, v := range c.BF16Data {
			if p, _ := c.Present.Test(uint64(i)); !p {
				continue
			}
			any = true
			acc = combineF32(r, acc, domain.BF16Pipeline.TransformTo(v))
		}
		return Scalar{Kind: domain.KindBF16, BF16: domain.BF16Pipeline.TransformFrom(acc), Present: any}, nil

	default:
		return Scalar{}, ErrUnsupportedOp
	}
}

func i32Identity(r Reduction) int32 {
	switch r {
	case ReduceSum:
		return 0
	case ReduceProduct:
		return 1
	case ReduceMin:
		return math.MaxInt32
	case ReduceMax:
		return math.MinInt32
	default:
		return 0
	}
}

func f32Identity(r Reduction) float32 {
	switch r {
	case ReduceSum:
		return 0
	case ReduceProduct:
		return 1
	case ReduceMin:
		return float32(math.Inf(1))
	case ReduceMax:
		return float32(math.Inf(-1))
	default:
		return 0
	}
}

func combineI32(r Reduction, acc, v int32) int32 {
	switch r {
	case ReduceSum:
		return domain.Add(acc, v)
	case ReduceProduct:
		return domain.Mul(acc, v)
	case ReduceMin:
		return domain.Min(acc, v)
	case ReduceMax:
		return domain.Max(acc, v)
	default:
		return acc
	}
}

func combineF32(r Reduction, acc, v float32) float32 {
	switch r {
	case ReduceSum:
		return domain.Add(acc, v)
	case ReduceProduct:
		return domain.Mul(acc, v)
	case ReduceMin:
		return domain.Min(acc, v)
	case ReduceMax:
		return domain.Max(acc, v)
	default:
		return acc
	}
}
