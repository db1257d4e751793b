package presence

import "testing"

func TestNewAllClear(t *testing.T) {
	b := New(10)
	if b.Any() {
		t.Error("New bitmap should have no set bits")
	}
	if !b.None() {
		t.Error("None() should be true for a fresh bitmap")
	}
}

func TestNewFullAllSet(t *testing.T) {
	b := NewFull(10)
	if !b.All() {
		t.Error("NewFull bitmap should be All()")
	}
}

func TestSetAndTest(t *testing.T) {
	b := New(8)
	if err := b.Set(3, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := b.Test(3)
	if err != nil || !v {
		t.Errorf("Test(3) = %v, %v, want true, nil", v, err)
	}
	v, err = b.Test(4)
	if err != nil || v {
		t.Errorf("Test(4) = %v, %v, want false, nil", v, err)
	}
}

func TestOutOfRange(t *testing.T) {
	b := New(4)
	if _, err := b.Test(4); err != ErrOutOfRange {
		t.Errorf("Test(4) on len-4 bitmap = %v, want ErrOutOfRange", err)
	}
	if err := b.Set(10, true); err != ErrOutOfRange {
		t.Errorf("Set(10, true) = %v, want ErrOutOfRange", err)
	}
}

func TestAllWithTailBits(t *testing.T) {
	b := New(70) // spans 2 64-bit words with a partial tail
	b.SetAll()
	if !b.All() {
		t.Error("All() should be true after SetAll on a non-multiple-of-64 length")
	}
	if err := b.Set(69, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.All() {
		t.Error("All() should be false after clearing one tail bit")
	}
}

// TestAllAcrossWordBoundaries is spec.md 8's bitmap tail property: All()
// of a fully-set bitmap must be true regardless of length, including
// lengths just below, at, and just above a 64-bit word boundary.
func TestAllAcrossWordBoundaries(t *testing.T) {
	for _, n := range []uint64{1, 63, 64, 65, 127, 128, 129, 4095, 4096, 4097} {
		b := NewFull(n)
		if !b.All() {
			t.Errorf("All() for a fully-set bitmap of length %d should be true", n)
		}
	}
}

func TestAndClearsBeyondShorterOperand(t *testing.T) {
	a := NewFull(8)
	short := NewFull(4)
	a.And(short)

	for i := uint64(0); i < 4; i++ {
		v, _ := a.Test(i)
		if !v {
			t.Errorf("bit %d should remain set (both operands had it set)", i)
		}
	}
	for i := uint64(4); i < 8; i++ {
		v, _ := a.Test(i)
		if v {
			t.Errorf("bit %d should be cleared (AND with implicit zero)", i)
		}
	}
}

func TestOrLeavesBeyondShorterOperandUnchanged(t *testing.T) {
	a := New(8)
	a.Set(6, true)
	short := NewFull(4)
	a.Or(short)

	for i := uint64(0); i < 4; i++ {
		v, _ := a.Test(i)
		if !v {
			t.Errorf("bit %d should be set by Or", i)
		}
	}
	v, _ := a.Test(6)
	if !v {
		t.Error("bit 6 should remain set (Or with identity beyond rhs length)")
	}
	v, _ = a.Test(7)
	if v {
		t.Error("bit 7 should remain clear")
	}
}

func TestXorLeavesBeyondShorterOperandUnchanged(t *testing.T) {
	a := NewFull(8)
	short := NewFull(4)
	a.Xor(short)

	for i := uint64(0); i < 4; i++ {
		v, _ := a.Test(i)
		if v {
			t.Errorf("bit %d should be cleared by Xor of two set bits", i)
		}
	}
	for i := uint64(4); i < 8; i++ {
		v, _ := a.Test(i)
		if !v {
			t.Errorf("bit %d should remain set (Xor with identity beyond rhs length)", i)
		}
	}
}

func TestClone(t *testing.T) {
	a := New(4)
	a.Set(1, true)
	clone := a.Clone()
	clone.Set(2, true)

	v, _ := a.Test(2)
	if v {
		t.Error("mutating clone should not affect original")
	}
}

func TestResizeGrowFillsNewBitsAndPreservesOld(t *testing.T) {
	b := New(2)
	b.Set(0, true)
	b.Resize(5, true)
	if b.Len() != 5 {
		t.Fatalf("Len = %d, want 5", b.Len())
	}
	v, _ := b.Test(0)
	if !v {
		t.Error("pre-existing bit 0 should survive a grow")
	}
	for i := uint64(2); i < 5; i++ {
		v, _ := b.Test(i)
		if !v {
			t.Errorf("grown bit %d should be filled true", i)
		}
	}
}

func TestResizeShrinkClearsUnreachableBits(t *testing.T) {
	b := NewFull(5)
	b.Resize(2, false)
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	b.Resize(5, false)
	for i := uint64(2); i < 5; i++ {
		v, _ := b.Test(i)
		if v {
			t.Errorf("bit %d resurrected stale true after shrink+grow", i)
		}
	}
}

func TestPushAppendsAndGrowsLength(t *testing.T) {
	b := New(0)
	b.Push(true)
	b.Push(false)
	b.Push(true)
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	want := []bool{true, false, true}
	for i, w := range want {
		v, _ := b.Test(uint64(i))
		if v != w {
			t.Errorf("bit %d = %v, want %v", i, v, w)
		}
	}
}

func TestClearResetsToZeroLength(t *testing.T) {
	b := NewFull(4)
	b.Clear()
	if b.Len() != 0 {
		t.Fatalf("Len = %d, want 0", b.Len())
	}
	b.Push(true)
	if b.Len() != 1 {
		t.Fatalf("Len after Push following Clear = %d, want 1", b.Len())
	}
}
