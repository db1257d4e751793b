package column

import (
	"fmt"

	"github.com/oisee/veccol/pkg/domain"
)

// Select implements the ternary operator: row i takes trueBranch[i] if
// cond's row i is non-zero, else falseBranch[i]. The two branches must
// already share a kind (typeinfer promotes them to a common type
// before this runs); cond may be any kind and is read as a truthiness
// test the way the grammar's comparison/logical operators already
// encode bool as 0/1 i32.
func Select(cond, trueBranch, falseBranch *Column) (*Column, error) {
	if trueBranch.Kind != falseBranch.Kind {
		return nil, fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, trueBranch.Kind, falseBranch.Kind)
	}
	n := effectiveSize(trueBranch, falseBranch)
	if cond.Len() < n {
		n = cond.Len()
	}
	out := newLike(trueBranch.Kind, n)

	for i := 0; i < n; i++ {
		truthy := cond.truthyAt(i)
		cp, _ := cond.Present.Test(uint64(i))

		var branch *Column
		if truthy {
			branch = trueBranch
		} else {
			branch = falseBranch
		}
		bp, _ := branch.Present.Test(uint64(i))

		out.copyRowFrom(branch, i)
		_ = out.Present.Set(uint64(i), cp && bp)
	}
	return out, nil
}

// truthyAt reports row i's C-like truthiness: non-zero is true.
func (c *Column) truthyAt(i int) bool {
	switch c.Kind {
	case domain.KindI32:
		return c.I32Data[i] != 0
	case domain.KindF32:
		return c.F32Data[i] != 0
	case domain.KindBF16:
		return domain.BF16Pipeline.TransformTo(c.BF16Data[i]) != 0
	default:
		return false
	}
}

// copyRowFrom copies row i of src into the same row of out; out and
// src must share a kind.
func (out *Column) copyRowFrom(src *Column, i int) {
	switch out.Kind {
	case domain.KindI32:
		out.I32Data[i] = src.I32Data[i]
	case domain.KindF32:
		out.F32Data[i] = src.F32Data[i]
	case domain.KindBF16:
		out.BF16Data[i] = src.BF16Data[i]
	}
}
