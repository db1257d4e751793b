package ffi

import "testing"

func TestColumnCreateDestroyRoundTrip(t *testing.T) {
	h := ColumnCreate(TypeI32, 3, 7)
	if h == 0 {
		t.Fatal("ColumnCreate returned the zero handle")
	}
	if ColumnSize(h) != 3 {
		t.Fatalf("ColumnSize = %d, want 3", ColumnSize(h))
	}
	if got := ColumnGetI32(h, 1); got != 7 {
		t.Fatalf("ColumnGetI32(1) = %d, want 7", got)
	}
	ColumnDestroy(h)
	if ColumnSize(h) != 0 {
		t.Fatal("ColumnSize after destroy should be 0 (handle invalid)")
	}
}

func TestColumnGetWrongTypeReturnsSentinel(t *testing.T) {
	h := ColumnCreate(TypeF32, 2, 3.5)
	defer ColumnDestroy(h)
	if got := ColumnGetI32(h, 0); got != 0 {
		t.Fatalf("ColumnGetI32 on an f32 column = %d, want 0", got)
	}
	if got := ColumnGetF32(h, 0); got != 3.5 {
		t.Fatalf("ColumnGetF32(0) = %v, want 3.5", got)
	}
}

func TestColumnGetOutOfRangeReturnsSentinel(t *testing.T) {
	h := ColumnCreate(TypeI32, 2, 9)
	defer ColumnDestroy(h)
	if got := ColumnGetI32(h, 99); got != 0 {
		t.Fatalf("out-of-range ColumnGetI32 = %d, want 0", got)
	}
}

func TestInvalidHandleAccessorsReturnSentinels(t *testing.T) {
	var bogus Handle = 999999
	if ColumnSize(bogus) != 0 {
		t.Error("ColumnSize(bogus) should be 0")
	}
	if ColumnGetI32(bogus, 0) != 0 {
		t.Error("ColumnGetI32(bogus) should be 0")
	}
	if ColumnIsPresent(bogus, 0) {
		t.Error("ColumnIsPresent(bogus) should be false")
	}
}

func TestInterpreterRoundTrip(t *testing.T) {
	ih := InterpreterCreate()
	defer InterpreterDestroy(ih)

	a := ColumnCreate(TypeI32, 3, 0)
	col, _ := columnFor(a)
	col.I32Data[0], col.I32Data[1], col.I32Data[2] = 1, 2, 3

	if !InterpreterRegister(ih, "a", a) {
		t.Fatal("InterpreterRegister failed")
	}
	if !InterpreterHas(ih, "a") {
		t.Fatal("InterpreterHas(a) = false after Register")
	}
	if InterpreterSize(ih) != 1 {
		t.Fatalf("InterpreterSize = %d, want 1", InterpreterSize(ih))
	}

	out, ok := InterpreterEval(ih, "a + 1")
	if !ok {
		t.Fatal("InterpreterEval failed")
	}
	defer ColumnDestroy(out)
	if ColumnGetI32(out, 0) != 2 || ColumnGetI32(out, 2) != 4 {
		t.Fatalf("eval result wrong: [0]=%d [2]=%d", ColumnGetI32(out, 0), ColumnGetI32(out, 2))
	}

	InterpreterUnregister(ih, "a")
	if InterpreterHas(ih, "a") {
		t.Fatal("InterpreterHas(a) = true after Unregister")
	}
}

func TestInterpreterEvalUnknownExpressionFails(t *testing.T) {
	ih := InterpreterCreate()
	defer InterpreterDestroy(ih)
	if _, ok := InterpreterEval(ih, "missing_column + 1"); ok {
		t.Fatal("expected InterpreterEval to fail for an unregistered column")
	}
}

func TestInterpreterAccessorsOnInvalidHandle(t *testing.T) {
	var bogus Handle = 424242
	if InterpreterHas(bogus, "a") {
		t.Error("InterpreterHas(bogus) should be false")
	}
	if InterpreterSize(bogus) != 0 {
		t.Error("InterpreterSize(bogus) should be 0")
	}
	if _, ok := InterpreterEval(bogus, "1"); ok {
		t.Error("InterpreterEval(bogus) should fail")
	}
}
