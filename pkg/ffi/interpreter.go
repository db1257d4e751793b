package ffi

import "github.com/oisee/veccol/pkg/interp"

// InterpreterCreate allocates a fresh, empty interpreter environment
// behind a Handle.
func InterpreterCreate() Handle {
	return alloc(tagInterpreter, interp.New(nil))
}

// InterpreterDestroy releases h. A zero or already-freed Handle is a no-op.
func InterpreterDestroy(h Handle) {
	free(h)
}

func envFor(h Handle) (*interp.Env, bool) {
	v, ok := lookup(h, tagInterpreter)
	if !ok {
		return nil, false
	}
	return v.(*interp.Env), true
}

// InterpreterRegister binds name to the column handle col within
// interpreter h. Reports false if either handle is invalid.
func InterpreterRegister(h Handle, name string, col Handle) bool {
	env, ok := envFor(h)
	if !ok {
		return false
	}
	c, ok := columnFor(col)
	if !ok {
		return false
	}
	env.Register(name, c)
	return true
}

// InterpreterUnregister destroys name's binding within h. Reports
// false if h is not a valid interpreter handle.
func InterpreterUnregister(h Handle, name string) bool {
	env, ok := envFor(h)
	if !ok {
		return false
	}
	env.Unregister(name)
	return true
}

// InterpreterHas reports whether name is bound within h, or false if h
// is invalid.
func InterpreterHas(h Handle, name string) bool {
	env, ok := envFor(h)
	if !ok {
		return false
	}
	return env.Has(name)
}

// InterpreterSize returns the number of columns bound within h, or 0
// if h is invalid.
func InterpreterSize(h Handle) uint64 {
	env, ok := envFor(h)
	if !ok {
		return 0
	}
	return uint64(env.Size())
}

// InterpreterEval evaluates expr within h and returns a fresh column
// handle on success. Returns the zero Handle and false on any parse,
// type, or evaluation error -- non-throwing across the boundary, per
// spec.md 4.N.
func InterpreterEval(h Handle, expr string) (Handle, bool) {
	env, ok := envFor(h)
	if !ok {
		return 0, false
	}
	col, err := env.Eval(expr)
	if err != nil {
		return 0, false
	}
	return wrapColumn(col), true
}
