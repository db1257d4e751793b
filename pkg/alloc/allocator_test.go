package alloc

import "testing"

func TestNewRejectsBadPoolSize(t *testing.T) {
	cases := []uint64{0, 1, 63, 100, 1 << 63 >> 63}
	for _, size := range cases {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) = nil error, want ErrInvalidPoolSize", size)
		}
	}
}

func TestAllocateBasic(t *testing.T) {
	a, err := New(1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b, err := a.Allocate(100)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if b.Size() != 128 {
		t.Errorf("Size() = %d, want 128", b.Size())
	}
	if b.Size() < 100 {
		t.Errorf("block too small: %d < 100", b.Size())
	}

	data := a.Data(b)
	if len(data) != int(b.Size()) {
		t.Errorf("Data() len = %d, want %d", len(data), b.Size())
	}
}

func TestAllocateMinimumGranularity(t *testing.T) {
	a, err := New(1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := a.Allocate(1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if b.Size() != CacheLineSize {
		t.Errorf("Size() = %d, want %d", b.Size(), CacheLineSize)
	}
}

func TestAllocateExhaustion(t *testing.T) {
	a, err := New(256)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Allocate(256); err != nil {
		t.Fatalf("Allocate(256): %v", err)
	}
	if _, err := a.Allocate(1); err != ErrOutOfMemory {
		t.Errorf("Allocate(1) after pool exhausted = %v, want ErrOutOfMemory", err)
	}
}

func TestAllocateTooLarge(t *testing.T) {
	a, err := New(256)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Allocate(1024); err != ErrTooLarge {
		t.Errorf("Allocate(1024) = %v, want ErrTooLarge", err)
	}
}

func TestFreeAndReuse(t *testing.T) {
	a, err := New(256)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b1, err := a.Allocate(256)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := a.Free(b1); err != nil {
		t.Fatalf("Free: %v", err)
	}

	b2, err := a.Allocate(256)
	if err != nil {
		t.Fatalf("Allocate after free: %v", err)
	}
	if b2.Offset() != b1.Offset() {
		t.Errorf("Offset() = %d, want %d (expected full coalesce back to single block)", b2.Offset(), b1.Offset())
	}
}

func TestFreeInvalidBlock(t *testing.T) {
	a, err := New(256)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Free(Block{offset: 64, size: 64}); err != ErrInvalidBlock {
		t.Errorf("Free(unallocated) = %v, want ErrInvalidBlock", err)
	}
}

func TestSplitAndMergeRestoresFreeList(t *testing.T) {
	a, err := New(512)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	blocks := make([]Block, 0, 8)
	for i := 0; i < 8; i++ {
		b, err := a.Allocate(CacheLineSize)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		blocks = append(blocks, b)
	}

	if _, err := a.Allocate(CacheLineSize); err != ErrOutOfMemory {
		t.Fatalf("expected exhaustion, got %v", err)
	}

	for _, b := range blocks {
		if err := a.Free(b); err != nil {
			t.Fatalf("Free: %v", err)
		}
	}

	full, err := a.Allocate(512)
	if err != nil {
		t.Fatalf("Allocate(512) after freeing everything: %v", err)
	}
	if full.Offset() != 0 || full.Size() != 512 {
		t.Errorf("expected fully coalesced pool block, got offset=%d size=%d", full.Offset(), full.Size())
	}
}

// TestAllocateReturnsCacheLineAlignedOffsets is spec.md 8's buddy
// allocator alignment property: every successful Allocate returns a
// block whose offset is a multiple of CacheLineSize, regardless of the
// requested size or which level of the tree it was split from.
func TestAllocateReturnsCacheLineAlignedOffsets(t *testing.T) {
	a, err := New(4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sizes := []uint64{1, 7, 63, 64, 65, 100, 256, 513, 1024}
	for _, n := range sizes {
		b, err := a.Allocate(n)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", n, err)
		}
		if b.Offset()%CacheLineSize != 0 {
			t.Errorf("Allocate(%d) offset = %d, not a multiple of CacheLineSize (%d)", n, b.Offset(), CacheLineSize)
		}
	}
}

func TestDistinctAllocationsDoNotOverlap(t *testing.T) {
	a, err := New(1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	seen := map[uint64]bool{}
	for i := 0; i < 8; i++ {
		b, err := a.Allocate(64)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		for off := b.Offset(); off < b.Offset()+b.Size(); off++ {
			if seen[off] {
				t.Fatalf("overlapping allocation at offset %d", off)
			}
			seen[off] = true
		}
	}
}
