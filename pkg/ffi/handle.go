// Package ffi implements the narrow foreign-callable boundary: a
// type-erased handle table over column and interpreter values, with
// create/destroy pairs and type-checked accessors that never panic
// across the boundary. It is the Go-side mirror of
// franklin_c_api.{h,cpp}'s FranklinColumnImpl/FranklinInterpreterImpl
// wrapper structs, reworked from tagged C++ pointers into a package-
// level handle table (see DESIGN.md's Open Question 2) so the boundary
// has no unsafe.Pointer games for Go's garbage collector to trip over.
package ffi

import "sync"

// Handle is an opaque reference returned by a Create call. The zero
// Handle is never issued and always denotes "no value" / error,
// mirroring the C API's null-pointer-on-error convention.
type Handle uint64

// tag identifies which payload kind a Handle's table entry carries.
type tag uint8

const (
	tagColumn tag = iota
	tagInterpreter
)

type entry struct {
	tag     tag
	payload any
}

var (
	tableMu sync.Mutex
	table   = make(map[Handle]entry)
	next    Handle = 1
)

func alloc(t tag, payload any) Handle {
	tableMu.Lock()
	defer tableMu.Unlock()
	h := next
	next++
	table[h] = entry{tag: t, payload: payload}
	return h
}

func lookup(h Handle, t tag) (any, bool) {
	tableMu.Lock()
	defer tableMu.Unlock()
	e, ok := table[h]
	if !ok || e.tag != t {
		return nil, false
	}
	return e.payload, true
}

func free(h Handle) {
	tableMu.Lock()
	defer tableMu.Unlock()
	delete(table, h)
}
