// Package fusion classifies expression subtrees into dispatch patterns
// and scores whether fusing them (evaluating without materializing
// intermediate columns) is worthwhile, mirroring the closed-form
// scoring style of the teacher's pkg/stoke cost model.
package fusion

import "github.com/oisee/veccol/pkg/ast"

// referenceColumnBytes is the nominal intermediate-column size used by
// the memory-traffic estimate, matching spec.md 4.I's reference figure.
const referenceColumnBytes = 4 * 1024 * 1024

// mainMemoryBandwidthBytesPerSec is the nominal bandwidth figure the
// memory-time-saved estimate assumes.
const mainMemoryBandwidthBytesPerSec = 50e9

// computeTimePerNode is the nominal per-node compute cost, in seconds,
// used by the speedup estimate.
const computeTimePerNode = 0.5e-3

// Opportunity describes one candidate subtree for fused evaluation.
type Opportunity struct {
	Root             ast.Node
	NodeSet          []ast.Node
	InputColumns     int
	RegisterPressure int
	SpeedupEstimate  float64
	Pattern          ast.Pattern
	Tier             Tier
	ShouldFuse       bool
}

// Tier is the dispatch tier a fusion opportunity is assigned to.
type Tier uint8

const (
	Tier0 Tier = iota
	Tier1
	Tier2
)

func (t Tier) String() string {
	switch t {
	case Tier0:
		return "tier0"
	case Tier1:
		return "tier1"
	default:
		return "tier2"
	}
}

// Analyze walks the tree rooted at root once and produces its single
// fusion opportunity (this core evaluates one expression tree per
// call, so there is exactly one root-level opportunity, not a set of
// independent subtree opportunities, though RegisterPressure and
// SpeedupEstimate are computed the same way spec.md 4.I describes for
// any candidate subtree).
func Analyze(root ast.Node) Opportunity {
	var nodes []ast.Node
	ast.Collect(root, &nodes)

	inputColumns := int(root.Meta().MemoryLoads)
	intermediateCount := countIntermediates(nodes)
	registerPressure := inputColumns + intermediateCount

	nodeCount := ast.CountOperations(root)
	speedup := speedupEstimate(nodeCount, intermediateCount)

	pattern := ast.ClassifyPattern(root)
	tier := assignTier(pattern, nodeCount, root.Meta().CanFuse)

	shouldFuse := registerPressure <= 12 &&
		speedup >= 1.2 &&
		nodeCount >= 2 &&
		root.Meta().CanFuse

	return Opportunity{
		Root:             root,
		NodeSet:          nodes,
		InputColumns:     inputColumns,
		RegisterPressure: registerPressure,
		SpeedupEstimate:  speedup,
		Pattern:          pattern,
		Tier:             tier,
		ShouldFuse:       shouldFuse,
	}
}

// countIntermediates counts the binary/unary/cast nodes in the tree --
// the values that, absent fusion, would each need their own
// materialized intermediate column.
func countIntermediates(nodes []ast.Node) int {
	n := 0
	for _, node := range nodes {
		switch node.(type) {
		case *ast.Binary, *ast.Unary, *ast.Cast:
			n++
		}
	}
	return n
}

// speedupEstimate computes (compute_time + memory_time_saved) /
// compute_time, per spec.md 4.I's cost model.
func speedupEstimate(nodeCount, intermediateCount int) float64 {
	computeTime := float64(nodeCount) * computeTimePerNode
	if computeTime == 0 {
		return 1
	}
	memoryTimeSaved := float64(intermediateCount) * referenceColumnBytes / mainMemoryBandwidthBytesPerSec
	return (computeTime + memoryTimeSaved) / computeTime
}

// assignTier implements spec.md 4.I's priority-ordered tier assignment:
// a pre-compiled-catalog shape wins outright; otherwise a bounded,
// Ternary-free tree goes to the template interpreter; everything else
// needs the JIT.
func assignTier(pattern ast.Pattern, nodeCount int, noTernary bool) Tier {
	switch pattern {
	case ast.PatternSingleColumn, ast.PatternBinaryOp, ast.PatternNestedBinary, ast.PatternFMA:
		return Tier0
	}
	if nodeCount <= 8 && noTernary {
		return Tier1
	}
	return Tier2
}
