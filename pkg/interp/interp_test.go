package interp

import (
	"errors"
	"testing"

	"github.com/oisee/veccol/pkg/column"
	"github.com/oisee/veccol/pkg/domain"
)

func TestRegisterHasSizeUnregister(t *testing.T) {
	e := New(nil)
	if e.Size() != 0 {
		t.Fatalf("Size = %d, want 0", e.Size())
	}
	e.Register("a", column.NewI32([]int32{1, 2, 3}))
	if !e.Has("a") {
		t.Fatal("Has(a) = false after Register")
	}
	if e.Size() != 1 {
		t.Fatalf("Size = %d, want 1", e.Size())
	}
	e.Unregister("a")
	if e.Has("a") {
		t.Fatal("Has(a) = true after Unregister")
	}
	if e.Size() != 0 {
		t.Fatalf("Size = %d, want 0", e.Size())
	}
}

func TestRegisterRebindReplacesColumn(t *testing.T) {
	e := New(nil)
	e.Register("a", column.NewI32([]int32{1}))
	e.Register("a", column.NewI32([]int32{9, 9}))
	out, err := e.Eval("a")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Len() != 2 || out.I32Data[0] != 9 {
		t.Fatalf("rebind did not take effect: %+v", out.I32Data)
	}
}

func TestEvalSingleColumnDispatchesTier0(t *testing.T) {
	e := New(nil)
	e.Register("a", column.NewI32([]int32{1, 2, 3}))
	out, err := e.Eval("a")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []int32{1, 2, 3}
	for i, w := range want {
		if out.I32Data[i] != w {
			t.Errorf("out[%d] = %d, want %d", i, out.I32Data[i], w)
		}
	}
}

func TestEvalBinaryDispatchesTier0(t *testing.T) {
	e := New(nil)
	e.Register("a", column.NewI32([]int32{1, 2, 3}))
	e.Register("b", column.NewI32([]int32{10, 20, 30}))
	out, err := e.Eval("a + b")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []int32{11, 22, 33}
	for i, w := range want {
		if out.I32Data[i] != w {
			t.Errorf("out[%d] = %d, want %d", i, out.I32Data[i], w)
		}
	}
}

func TestEvalMidSizedExpressionDispatchesTier1(t *testing.T) {
	e := New(nil)
	e.Register("a", column.NewI32([]int32{1, 2, 3}))
	e.Register("b", column.NewI32([]int32{10, 20, 30}))
	e.Register("c", column.NewI32([]int32{5, 5, 5}))
	out, err := e.Eval("(a + b) * (c - a)")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []int32{44, 66, 66}
	for i, w := range want {
		if out.I32Data[i] != w {
			t.Errorf("out[%d] = %d, want %d", i, out.I32Data[i], w)
		}
	}
}

func TestEvalTernaryDispatchesTier2(t *testing.T) {
	e := New(nil)
	e.Register("c", column.NewI32([]int32{1, 0, 1}))
	e.Register("a", column.NewI32([]int32{10, 20, 30}))
	e.Register("b", column.NewI32([]int32{-1, -2, -3}))
	out, err := e.Eval("c ? a : b")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []int32{10, -2, 30}
	for i, w := range want {
		if out.I32Data[i] != w {
			t.Errorf("out[%d] = %d, want %d", i, out.I32Data[i], w)
		}
	}
}

func TestEvalLargeExpressionDispatchesTier2(t *testing.T) {
	e := New(nil)
	e.Register("a", column.NewI32([]int32{1, 1}))
	e.Register("b", column.NewI32([]int32{2, 2}))
	// 9 additions of a exceeds tier1's MaxNodes bound, so this must
	// route through the JIT cache instead of erroring.
	out, err := e.Eval("a+a+a+a+a+a+a+a+a+b")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.I32Data[0] != 11 {
		t.Fatalf("out[0] = %d, want 11", out.I32Data[0])
	}
}

func TestEvalUnknownColumnErrors(t *testing.T) {
	e := New(nil)
	if _, err := e.Eval("missing + 1"); err == nil {
		t.Fatal("expected error referencing an unregistered column")
	}
}

func TestEvalBF16Promotion(t *testing.T) {
	e := New(nil)
	e.Register("a", column.NewBF16([]domain.BF16{domain.BF16FromFloat32(2), domain.BF16FromFloat32(4)}))
	out, err := e.Eval("a + 1.5")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Kind != domain.KindF32 {
		t.Fatalf("result kind = %v, want F32", out.Kind)
	}
	want := []float32{3.5, 5.5}
	for i, w := range want {
		if out.F32Data[i] != w {
			t.Errorf("out[%d] = %v, want %v", i, out.F32Data[i], w)
		}
	}
}

func TestEvalDivisionByZeroAbortsAndRecordsDiagnostic(t *testing.T) {
	e := New(nil)
	e.Register("a", column.NewI32([]int32{10, 20, 30}))
	e.Register("b", column.NewI32([]int32{2, 0, 5}))
	before := e.Size()

	out, err := e.Eval("a / b")
	if err == nil {
		t.Fatal("Eval: expected a DivisionByZero error, got nil")
	}
	if !errors.Is(err, column.ErrDivisionByZero) {
		t.Errorf("Eval err = %v, want column.ErrDivisionByZero", err)
	}
	if out != nil {
		t.Errorf("Eval out = %v, want nil on abort", out)
	}
	if e.Size() != before {
		t.Fatal("environment must be unchanged after an aborted evaluation")
	}
	if !e.Diagnostics.HasErrors() {
		t.Fatal("expected a DivisionByZero diagnostic to be recorded")
	}
	last, ok := e.Diagnostics.Last()
	if !ok || last.Code != ErrDivisionByZero {
		t.Fatalf("last diagnostic = %+v, want DivisionByZero", last)
	}
}

func TestEvalSyntaxErrorIsReported(t *testing.T) {
	e := New(nil)
	if _, err := e.Eval("a + "); err == nil {
		t.Fatal("expected a parse error")
	}
}
