package domain

import "math"

// BF16 is a brain-float16 value: 1 sign bit, 8 exponent bits, 7
// mantissa bits, stored as the top 16 bits of an IEEE-754 float32.
type BF16 uint16

// BF16FromFloat32 narrows a float32 to bf16, rounding to nearest even
// rather than truncating (spec.md is explicit that narrowing must
// round; see SPEC_FULL.md's bf16 conversion note for why this departs
// from the original's plain truncation).
func BF16FromFloat32(f float32) BF16 {
	bits := math.Float32bits(f)
	if bits&0x7fffffff > 0x7f800000 {
		// NaN: preserve a quiet NaN rather than rounding garbage mantissa bits.
		return BF16(bits>>16) | 0x0040
	}
	// Round to nearest, ties to even: add the rounding bias (the bit
	// being dropped, biased so exact ties round to an even mantissa).
	roundBit := uint32(1) << 15
	lsb := (bits >> 16) & 1
	rounded := bits + roundBit - 1 + lsb
	return BF16(rounded >> 16)
}

// ToFloat32 widens a bf16 to float32 by left-shifting 16 bits.
func (b BF16) ToFloat32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// Bits returns the raw 16-bit representation.
func (b BF16) Bits() uint16 { return uint16(b) }

// BF16FromBits reinterprets raw bits as a BF16 value.
func BF16FromBits(bits uint16) BF16 { return BF16(bits) }
