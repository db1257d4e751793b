package domain

import "testing"

func TestBF16RoundTripExactValues(t *testing.T) {
	cases := []float32{0, 1, -1, 2, 100, -0.5}
	for _, f := range cases {
		b := BF16FromFloat32(f)
		got := b.ToFloat32()
		if got != f {
			t.Errorf("BF16 round trip of %v = %v, want exact", f, got)
		}
	}
}

func TestBF16RoundsToNearestEven(t *testing.T) {
	// 1.0 + 2^-8 is exactly halfway between two representable bf16
	// values; round-to-even should land on the representation whose
	// mantissa LSB is 0 rather than always rounding up.
	f := float32(1.0 + 1.0/256.0)
	b := BF16FromFloat32(f)
	if b.Bits()&1 != 0 {
		t.Errorf("expected round-to-even to clear mantissa LSB, got bits=%#x", b.Bits())
	}
}

func TestDivReportsZeroDivisor(t *testing.T) {
	if _, ok := Div(int32(4), int32(0)); ok {
		t.Error("Div by zero should report ok=false")
	}
	v, ok := Div(int32(10), int32(2))
	if !ok || v != 5 {
		t.Errorf("Div(10,2) = %d, %v, want 5, true", v, ok)
	}
}

func TestModIntReportsZeroDivisor(t *testing.T) {
	if _, ok := ModInt(5, 0); ok {
		t.Error("ModInt by zero should report ok=false")
	}
	v, ok := ModInt(7, 3)
	if !ok || v != 1 {
		t.Errorf("ModInt(7,3) = %d, %v, want 1, true", v, ok)
	}
}

func TestFMA(t *testing.T) {
	if got := FMA[float32](2, 3, 1); got != 7 {
		t.Errorf("FMA(2,3,1) = %v, want 7", got)
	}
}

func TestMinMax(t *testing.T) {
	if Min(3, 5) != 3 {
		t.Error("Min(3,5) should be 3")
	}
	if Max(3, 5) != 5 {
		t.Error("Max(3,5) should be 5")
	}
}
