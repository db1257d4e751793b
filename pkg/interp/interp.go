// Package interp implements the interpreter façade: a named-column
// environment plus the eval pipeline that ties parsing, type
// inference, algebraic optimization, fusion analysis, and the three
// dispatch tiers together into a single entry point, mirroring the
// Config/Run shape of the teacher's pkg/stoke search driver and
// logging tier decisions with logrus the way pkg/tier2 already does.
package interp

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oisee/veccol/pkg/ast"
	"github.com/oisee/veccol/pkg/column"
	"github.com/oisee/veccol/pkg/domain"
	"github.com/oisee/veccol/pkg/fusion"
	"github.com/oisee/veccol/pkg/optimize"
	"github.com/oisee/veccol/pkg/parser"
	"github.com/oisee/veccol/pkg/tier0"
	"github.com/oisee/veccol/pkg/tier1"
	"github.com/oisee/veccol/pkg/tier2"
	"github.com/oisee/veccol/pkg/typeinfer"
)

// Env is a named-column environment: the binding table an expression
// is evaluated against. Env owns every column registered into it and
// is not safe for concurrent eval calls against overlapping names
// without external synchronization beyond what Env itself provides.
type Env struct {
	mu      sync.RWMutex
	columns map[string]*column.Column
	tier2   *tier2.Cache
	log     logrus.FieldLogger

	// Diagnostics collects low-level invariant violations noted during
	// evaluation (currently: one DivisionByZero record per Eval call
	// that aborted on a Div/Mod by a zero divisor, per Open Question
	// decision 4) for inspection, not control flow: the abort itself is
	// always signaled through Eval's returned error.
	Diagnostics *Diagnostics
}

// New builds an empty environment. A nil logger falls back to
// logrus's standard logger.
func New(log logrus.FieldLogger) *Env {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Env{
		columns:     make(map[string]*column.Column),
		tier2:       tier2.NewCache(log),
		log:         log,
		Diagnostics: NewDiagnostics(),
	}
}

// Register binds name to col, taking ownership. Rebinding an existing
// name discards the prior column.
func (e *Env) Register(name string, col *column.Column) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.columns[name] = col
}

// Unregister destroys name's binding, if any.
func (e *Env) Unregister(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.columns, name)
}

// Has reports whether name is currently bound.
func (e *Env) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.columns[name]
	return ok
}

// Size returns the number of currently bound columns.
func (e *Env) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.columns)
}

func (e *Env) resolve(name string) (*column.Column, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.columns[name]
	return c, ok
}

func (e *Env) schema() typeinfer.Schema {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := make(typeinfer.Schema, len(e.columns))
	for name, col := range e.columns {
		s[name] = col.DataType()
	}
	return s
}

// Eval parses expr, infers and optimizes its type tree, analyzes it
// for fusion, dispatches to the tier the analysis selects, and
// returns a freshly allocated result column owned by the caller.
func (e *Env) Eval(expr string) (*column.Column, error) {
	root, _, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("interp: %w", err)
	}

	typed, err := typeinfer.Infer(root, e.schema())
	if err != nil {
		return nil, fmt.Errorf("interp: %w", err)
	}

	optimized := optimize.Optimize(typed)

	out, err := e.evalNode(optimized)
	if err != nil {
		if errors.Is(err, column.ErrDivisionByZero) {
			e.Diagnostics.Report(Diagnostic{
				Code:      ErrDivisionByZero,
				Component: "interp",
				Operation: "eval",
				Message:   fmt.Sprintf("%q: %v", expr, err),
			})
		}
		return nil, err
	}
	// Tier 0 hands back the registered column itself for a bare column
	// reference; copy it so the caller owns the result.
	if _, bare := optimized.(*ast.ColumnRef); bare {
		var cp *column.Column
		switch out.Kind {
		case domain.KindI32:
			cp = column.NewI32(out.I32Data)
		case domain.KindF32:
			cp = column.NewF32(out.F32Data)
		default:
			cp = column.NewBF16(out.BF16Data)
		}
		cp.Present = out.Present.Clone()
		out = cp
	}
	return out, nil
}

// evalNode analyzes an already-parsed, type-inferred, and optimized tree
// for fusion and dispatches it to the tier the analysis selects. It is
// the tail of Eval, split out so callers that already hold an optimized
// tree (e.g. the pretty-printer round-trip check) can re-run dispatch
// without re-parsing.
func (e *Env) evalNode(optimized ast.Node) (*column.Column, error) {
	opp := fusion.Analyze(optimized)

	e.log.WithFields(logrus.Fields{
		"tier":              opp.Tier.String(),
		"pattern":           opp.Pattern.String(),
		"register_pressure": opp.RegisterPressure,
		"should_fuse":       opp.ShouldFuse,
	}).Debug("interp dispatch")

	return e.dispatch(opp, optimized)
}

func (e *Env) dispatch(opp fusion.Opportunity, root ast.Node) (*column.Column, error) {
	switch opp.Tier {
	case fusion.Tier0:
		col, ok, err := tier0.Dispatch(root, e.resolve)
		if err != nil {
			return nil, fmt.Errorf("interp: tier0: %w", err)
		}
		if ok {
			return col, nil
		}
		e.log.Debug("tier0 declined, falling back to tier1")
		fallthrough

	case fusion.Tier1:
		prog, err := tier1.Compile(root)
		if err == nil {
			col, runErr := tier1.Run(prog, e.resolve)
			if runErr != nil {
				return nil, fmt.Errorf("interp: tier1: %w", runErr)
			}
			return col, nil
		}
		e.log.WithError(err).Debug("tier1 declined, falling back to tier2")
		fallthrough

	default:
		col, err := e.tier2.Eval(root, e.resolve)
		if err != nil {
			return nil, fmt.Errorf("interp: tier2: %w", err)
		}
		return col, nil
	}
}
