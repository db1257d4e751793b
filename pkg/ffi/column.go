package ffi

import (
	"github.com/oisee/veccol/pkg/column"
	"github.com/oisee/veccol/pkg/domain"
)

// DataType mirrors FranklinDataType: the boundary's own small, stable
// enum, kept independent of pkg/ast.DataType so a C caller's ABI
// doesn't shift if the internal type enum grows.
type DataType uint8

const (
	TypeI32 DataType = iota
	TypeF32
	TypeBF16
)

// ColumnCreate allocates a column of size rows, every row set to
// value and present, wrapped behind a Handle. Returns the zero Handle
// if t is not a recognized DataType.
func ColumnCreate(t DataType, size int, value float64) Handle {
	var col *column.Column
	switch t {
	case TypeI32:
		data := make([]int32, size)
		for i := range data {
			data[i] = int32(value)
		}
		col = column.NewI32(data)
	case TypeF32:
		data := make([]float32, size)
		for i := range data {
			data[i] = float32(value)
		}
		col = column.NewF32(data)
	case TypeBF16:
		data := make([]domain.BF16, size)
		for i := range data {
			data[i] = domain.BF16FromFloat32(float32(value))
		}
		col = column.NewBF16(data)
	default:
		return 0
	}
	return alloc(tagColumn, col)
}

// ColumnDestroy releases h. A zero or already-freed Handle is a no-op.
func ColumnDestroy(h Handle) {
	if col, ok := columnFor(h); ok {
		col.Release()
	}
	free(h)
}

func columnFor(h Handle) (*column.Column, bool) {
	v, ok := lookup(h, tagColumn)
	if !ok {
		return nil, false
	}
	return v.(*column.Column), true
}

// ColumnSize returns h's row count, or 0 if h is not a valid column handle.
func ColumnSize(h Handle) uint64 {
	col, ok := columnFor(h)
	if !ok {
		return 0
	}
	return uint64(col.Len())
}

// ColumnKind reports h's element kind and whether h is a valid column handle.
func ColumnKind(h Handle) (domain.Kind, bool) {
	col, ok := columnFor(h)
	if !ok {
		return 0, false
	}
	return col.Kind, true
}

// ColumnGetI32 returns row index of an i32 column h, or the sentinel 0
// if h is invalid, not an i32 column, or index is out of range.
func ColumnGetI32(h Handle, index uint64) int32 {
	col, ok := columnFor(h)
	if !ok || col.Kind != domain.KindI32 || index >= uint64(col.Len()) {
		return 0
	}
	return col.I32Data[index]
}

// ColumnGetF32 returns row index of an f32 column h, or the sentinel 0
// if h is invalid, not an f32 column, or index is out of range.
func ColumnGetF32(h Handle, index uint64) float32 {
	col, ok := columnFor(h)
	if !ok || col.Kind != domain.KindF32 || index >= uint64(col.Len()) {
		return 0
	}
	return col.F32Data[index]
}

// ColumnGetBF16 returns row index of a bf16 column h widened to
// float32, or the sentinel 0 if h is invalid, not a bf16 column, or
// index is out of range.
func ColumnGetBF16(h Handle, index uint64) float32 {
	col, ok := columnFor(h)
	if !ok || col.Kind != domain.KindBF16 || index >= uint64(col.Len()) {
		return 0
	}
	return col.BF16Data[index].ToFloat32()
}

// ColumnIsPresent reports whether row index of h is present, or false
// if h is invalid or index is out of range.
func ColumnIsPresent(h Handle, index uint64) bool {
	col, ok := columnFor(h)
	if !ok || index >= uint64(col.Len()) {
		return false
	}
	present, err := col.Present.Test(index)
	return err == nil && present
}

// wrapColumn registers an internally-produced column (e.g. an eval
// result) under a fresh Handle.
func wrapColumn(col *column.Column) Handle {
	return alloc(tagColumn, col)
}
