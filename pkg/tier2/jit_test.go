package tier2

import (
	"testing"

	"github.com/oisee/veccol/pkg/ast"
	"github.com/oisee/veccol/pkg/column"
	"github.com/oisee/veccol/pkg/domain"
	"github.com/oisee/veccol/pkg/optimize"
	"github.com/oisee/veccol/pkg/typeinfer"
)

func env(cols map[string]*column.Column) Resolver {
	return func(name string) (*column.Column, bool) {
		c, ok := cols[name]
		return c, ok
	}
}

func build(t *testing.T, n ast.Node, schema typeinfer.Schema) ast.Node {
	t.Helper()
	out, err := typeinfer.Infer(n, schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	return optimize.Optimize(out)
}

func TestCacheEvalTernary(t *testing.T) {
	schema := typeinfer.Schema{"c": ast.I32, "a": ast.I32, "b": ast.I32}
	root := build(t, ast.NewTernary(ast.NewColumnRef("c", 0), ast.NewColumnRef("a", 1), ast.NewColumnRef("b", 2)), schema)

	cache := NewCache(nil)
	cond := column.NewI32([]int32{1, 0, 1})
	a := column.NewI32([]int32{10, 20, 30})
	b := column.NewI32([]int32{-1, -2, -3})

	out, err := cache.Eval(root, env(map[string]*column.Column{"c": cond, "a": a, "b": b}))
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

func TestCacheReusesCompiledShapeAcrossDifferentColumns(t *testing.T) {
	schema := typeinfer.Schema{"a": ast.I32, "b": ast.I32}
	root1 := build(t, ast.NewBinary(ast.Add, ast.NewColumnRef("a", 0), ast.NewColumnRef("b", 1)), schema)
	root2 := build(t, ast.NewBinary(ast.Add, ast.NewColumnRef("a", 0), ast.NewColumnRef("b", 1)), schema)

	cache := NewCache(nil)
	a := column.NewI32([]int32{1, 2})
	b := column.NewI32([]int32{3, 4})

	if _, err := cache.Eval(root1, env(map[string]*column.Column{"a": a, "b": b})); err != nil {
		t.Fatalf("Eval 1: %v", err)
	}
	if len(cache.entries) != 1 {
		t.Fatalf("entries after first Eval = %d, want 1", len(cache.entries))
	}
	a2 := column.NewI32([]int32{5, 6})
	b2 := column.NewI32([]int32{7, 8})
	out, err := cache.Eval(root2, env(map[string]*column.Column{"a": a2, "b": b2}))
	if err != nil {
		t.Fatalf("Eval 2: %v", err)
	}
	if out.I32Data[0] != 12 || out.I32Data[1] != 14 {
		t.Errorf("Eval 2 = %v, want [12 14] from the second pair of columns", out.I32Data)
	}
	if len(cache.entries) != 1 {
		t.Errorf("entries after second Eval of the same shape = %d, want 1 (should reuse)", len(cache.entries))
	}
}

func TestCacheDistinctTypeTupleGetsSeparateEntry(t *testing.T) {
	cache := NewCache(nil)

	i32Root := build(t, ast.NewBinary(ast.Add, ast.NewColumnRef("a", 0), ast.NewColumnRef("b", 1)),
		typeinfer.Schema{"a": ast.I32, "b": ast.I32})
	f32Root := build(t, ast.NewBinary(ast.Add, ast.NewColumnRef("a", 0), ast.NewColumnRef("b", 1)),
		typeinfer.Schema{"a": ast.F32, "b": ast.F32})

	ai := column.NewI32([]int32{1})
	bi := column.NewI32([]int32{2})
	af := column.NewF32([]float32{1})
	bf := column.NewF32([]float32{2})

	if _, err := cache.Eval(i32Root, env(map[string]*column.Column{"a": ai, "b": bi})); err != nil {
		t.Fatalf("Eval i32: %v", err)
	}
	if _, err := cache.Eval(f32Root, env(map[string]*column.Column{"a": af, "b": bf})); err != nil {
		t.Fatalf("Eval f32: %v", err)
	}
	if len(cache.entries) != 2 {
		t.Errorf("entries = %d, want 2 (i32 and f32 shapes must not collide)", len(cache.entries))
	}
}

func TestCacheEvalPromotesConstantAcrossCast(t *testing.T) {
	// a (bf16) + 1 (i32 literal): the literal promotes up to bf16 via a
	// Cast conversion-hoisting inserts around the bare constant.
	schema := typeinfer.Schema{"a": ast.BF16}
	root := build(t, ast.NewBinary(ast.Add, ast.NewColumnRef("a", 0), ast.NewConstantI32(1)), schema)

	cache := NewCache(nil)
	a := column.NewBF16([]domain.BF16{domain.BF16FromFloat32(2), domain.BF16FromFloat32(3)})
	out, err := cache.Eval(root, env(map[string]*column.Column{"a": a}))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Kind != domain.KindBF16 {
		t.Fatalf("result kind = %v, want BF16", out.Kind)
	}
	want := []float32{3, 4}
	for i, w := range want {
		if got := out.BF16Data[i].ToFloat32(); got != w {
			t.Errorf("out[%d] = %v, want %v", i, got, w)
		}
	}
}
