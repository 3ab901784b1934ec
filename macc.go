// Package algomacc is a cycle-accurate model of pipelined complex
// multiply-accumulate structures built from hardware arithmetic slices.
//
// A structure computes sums of complex products
//
//	p = sum_k x_k * y_k
//
// over configurable fixed-point widths, optionally accumulating across
// clock cycles, with the exact register-level timing of the modeled
// datapath: every structure knows its pipeline depth in advance, clock
// enables freeze it, and resets ride through it at the data rate.
//
// The usual flow is to fill in a Config, call New, and clock the
// returned structure once per cycle with Advance:
//
//	m, err := algomacc.New(algomacc.Config{Count: 2, XWidth: 12, YWidth: 12})
//	if err != nil {
//		return err
//	}
//	out := m.Advance(algomacc.Run, algomacc.Input{Terms: terms})
//
// The sample returned by call t belongs to the terms of call t-Stages.
package algomacc

import (
	"fmt"

	"github.com/cwbudde/algo-macc/internal/assemble"
)

// Config describes a complete multiply-accumulate structure. Zero-valued
// fields take the documented defaults; all decisions are static.
type Config struct {
	// Count is the number of complex product terms per output sample.
	// Default 1.
	Count int

	// XWidth and YWidth are the operand component widths in bits.
	// Default 16 each.
	XWidth, YWidth int

	// OutWidth is the formatted output component width. Default
	// XWidth+YWidth.
	OutWidth int

	// Decomposition and Topology default to their Auto values: planning
	// picks the cheapest structure the widths and term count permit.
	Decomposition Decomposition
	Topology      Topology

	// AccumulateCycles above 1 accumulates that many output samples
	// across successive valid cycles, restarted by Input.Clear. Default 1
	// (no accumulation).
	AccumulateCycles int

	// UseNegation and UseConjugation enable the dynamic per-term
	// controls; disabled controls are ignored even when set on a term.
	UseNegation    bool
	UseConjugation bool

	// InputRegs is the input registration depth per cell and OutputRegs
	// the output registration depth of the final cells. Default 2 each.
	InputRegs, OutputRegs int

	// ShiftRight scales the output down by 2^ShiftRight before the width
	// change, rounded according to Round.
	ShiftRight int
	Round      RoundMode

	// Clip saturates out-of-range outputs instead of wrapping;
	// ReportOverflow arms the output overflow flag for freshly detected
	// range violations. IgnoreInputOverflow discards overflow flags
	// arriving on input samples instead of propagating them.
	Clip                bool
	ReportOverflow      bool
	IgnoreInputOverflow bool

	// ClearRelation and NegateRelation name the input port whose
	// registration the clear and negate controls ride along.
	ClearRelation  Relation
	NegateRelation Relation

	ResetPolicy ResetPolicy
}

func (c Config) withDefaults() Config {
	if c.Count == 0 {
		c.Count = 1
	}
	if c.XWidth == 0 {
		c.XWidth = 16
	}
	if c.YWidth == 0 {
		c.YWidth = 16
	}
	if c.OutWidth == 0 {
		c.OutWidth = c.XWidth + c.YWidth
	}
	if c.AccumulateCycles == 0 {
		c.AccumulateCycles = 1
	}
	if c.InputRegs == 0 {
		c.InputRegs = 2
	}
	if c.OutputRegs == 0 {
		c.OutputRegs = 2
	}
	return c
}

func (c Config) assembleConfig() assemble.Config {
	return assemble.Config{
		Count:               c.Count,
		XWidth:              c.XWidth,
		YWidth:              c.YWidth,
		OutWidth:            c.OutWidth,
		Decomposition:       c.Decomposition,
		Topology:            c.Topology,
		AccumulateCycles:    c.AccumulateCycles,
		UseNegation:         c.UseNegation,
		UseConjugation:      c.UseConjugation,
		InputRegs:           c.InputRegs,
		OutputRegs:          c.OutputRegs,
		ShiftRight:          c.ShiftRight,
		Round:               c.Round,
		Clip:                c.Clip,
		ReportOverflow:      c.ReportOverflow,
		IgnoreInputOverflow: c.IgnoreInputOverflow,
		ClearRelation:       c.ClearRelation,
		NegateRelation:      c.NegateRelation,
		ResetPolicy:         c.ResetPolicy,
	}
}

// MACC is one assembled structure with live register state. It is not
// safe for concurrent use; a structure belongs to one clock domain.
type MACC struct {
	cfg  Config
	node assemble.Node
	rep  Report
}

// New plans and assembles the structure described by cfg.
func New(cfg Config) (*MACC, error) {
	cfg = cfg.withDefaults()
	node, rep, err := assemble.Build(cfg.assembleConfig())
	if err != nil {
		return nil, err
	}
	return &MACC{cfg: cfg, node: node, rep: rep}, nil
}

// Estimate runs the planning pass alone: it reports the stage and cell
// accounting of cfg without allocating any register state. The report
// matches what New builds cycle for cycle.
func Estimate(cfg Config) (Report, error) {
	return assemble.Estimate(cfg.withDefaults().assembleConfig())
}

// Advance clocks the structure once and returns the sample leaving this
// cycle. It panics when the input shape does not match the structure;
// everything negotiable is rejected at New time, so a mismatch here is a
// caller bug, not a data condition.
func (m *MACC) Advance(ctrl Control, in Input) Complex {
	if len(in.Terms) != m.cfg.Count {
		panic(fmt.Sprintf("algomacc: %d terms for a %d-term structure", len(in.Terms), m.cfg.Count))
	}
	for i, t := range in.Terms {
		if t.X.Width() != m.cfg.XWidth || t.Y.Width() != m.cfg.YWidth {
			panic(fmt.Sprintf("algomacc: term %d width %dx%d, structure wants %dx%d",
				i, t.X.Width(), t.Y.Width(), m.cfg.XWidth, m.cfg.YWidth))
		}
	}
	return m.node.Advance(ctrl, in)
}

// Stages returns the input-to-output latency in clock cycles.
func (m *MACC) Stages() int { return m.rep.Stages }

// Cells returns the number of arithmetic slices the structure consumes.
func (m *MACC) Cells() int { return m.rep.Cells }

// Report returns the full static accounting of the structure.
func (m *MACC) Report() Report { return m.rep }

// Config returns the configuration with all defaults resolved.
func (m *MACC) Config() Config { return m.cfg }
