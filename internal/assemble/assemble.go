// Package assemble builds complete complex multiply-accumulate structures
// out of arithmetic cells: it decomposes each complex product into real
// cells (four-cell schoolbook or three-cell with a shared cross term),
// combines the product terms over a linear cascade or a balanced adder
// tree, and keeps the cycle-exact stage accounting for the result.
package assemble

import (
	"fmt"

	"github.com/cwbudde/algo-macc/internal/cplx"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// Term is one complex product operand pair with its dynamic per-sample
// controls. Negate flips the sign of the whole product; Conjugate
// conjugates X before multiplying. Both are honored only when the
// matching enable is set in the configuration.
type Term struct {
	X, Y      cplx.Complex
	Negate    bool
	Conjugate bool
}

// Input carries one cycle's worth of structure inputs: one term per
// configured product and the accumulator clear strobe.
type Input struct {
	Terms []Term
	Clear bool
}

// Node is one clocked element of an assembled structure. Advance clocks
// it once and returns the sample leaving this cycle; Stages is the
// input-to-output latency, Cells the number of arithmetic slices consumed,
// and Width the component width of the output sample.
type Node interface {
	Advance(ctrl macctypes.Control, in Input) cplx.Complex
	Stages() int
	Cells() int
	Width() int
}

// Config describes a complete structure. All decisions are static; the
// zero value is not usable.
type Config struct {
	// Count is the number of complex product terms summed per output.
	Count int

	XWidth, YWidth int
	OutWidth       int

	// Decomposition and Topology may be left on their Auto values, in
	// which case planning picks the cheapest structure the operand
	// widths and the term count permit.
	Decomposition macctypes.Decomposition
	Topology      macctypes.Topology

	// AccumulateCycles above 1 accumulates that many outputs across
	// successive valid cycles, restarted by the clear strobe.
	AccumulateCycles int

	// UseNegation and UseConjugation enable the dynamic per-term
	// controls. Disabled controls are ignored even when set on a term.
	UseNegation    bool
	UseConjugation bool

	InputRegs  int
	OutputRegs int

	ShiftRight          int
	Round               macctypes.RoundMode
	Clip                bool
	ReportOverflow      bool
	IgnoreInputOverflow bool

	ClearRelation  macctypes.Relation
	NegateRelation macctypes.Relation

	ResetPolicy macctypes.ResetPolicy
}

// Build plans and assembles the structure described by cfg. The returned
// report matches the built node cycle for cycle.
func Build(cfg Config) (Node, Report, error) {
	s, err := plan(cfg)
	if err != nil {
		return nil, Report{}, err
	}

	node, err := s.build(cfg.Count, true)
	if err != nil {
		return nil, Report{}, err
	}

	if s.accumulating() && s.top == macctypes.TopologyTree {
		node = newAccum(s, node)
	}
	if s.top == macctypes.TopologyTree {
		node = newFormat(s, node)
	}

	rep := s.report()
	if node.Stages() != rep.Stages || node.Cells() != rep.Cells {
		// The accountant and the builder share every formula; disagreement
		// is a programming error, not a configuration problem.
		panic(fmt.Sprintf("assemble: accounting mismatch: built %d/%d, planned %d/%d",
			node.Stages(), node.Cells(), rep.Stages, rep.Cells))
	}
	return node, rep, nil
}

// Estimate runs the planning pass alone and reports the stage and cell
// accounting without allocating any runtime state.
func Estimate(cfg Config) (Report, error) {
	s, err := plan(cfg)
	if err != nil {
		return Report{}, err
	}
	if err := s.checkCells(); err != nil {
		return Report{}, err
	}
	return s.report(), nil
}
