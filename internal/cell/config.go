// Package cell models one multiply-accumulate slice: the atomic arithmetic
// cell computing (+-xa +- xb) * y + z [+ chain] [+ accumulator] with
// configurable input registration, accumulate/clear semantics, and
// shift/round/clip/overflow output formatting.
//
// All structural decisions are fixed at configuration time. Validation
// failures reject the cell before any data flows; the runtime surface is a
// single Advance call per clock cycle.
package cell

import (
	"fmt"
	"math/bits"

	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// Limits of one arithmetic slice, modeled after an UltraScale-class MACC
// column.
const (
	// MaxPreaddWidth bounds xa and xb when the preadder is in use.
	MaxPreaddWidth = 27

	// MaxDirectWidth bounds x when it bypasses the preadder.
	MaxDirectWidth = 30

	// MaxYWidth bounds the y multiplier operand (the narrow port).
	MaxYWidth = 18

	// AccumWidth is the physical accumulator width.
	AccumWidth = 48

	// MaxGuardBits caps the guard bits carved out of the accumulator.
	MaxGuardBits = 4

	// maxALUSummands is the number of independent summand sources one ALU
	// cycle can absorb.
	maxALUSummands = 3
)

// Config describes one cell. The zero value is not usable; New validates
// and derives the internal geometry.
type Config struct {
	XWidth, YWidth int
	ZWidth         int
	OutWidth       int

	// AccumulateCycles enables accumulation over successive valid cycles
	// when greater than 1; 1 disables accumulation (clear behaves as
	// always asserted). The value sizes the guard bits.
	AccumulateCycles int

	// NumChainSummands and NumZSummands count the partial sums arriving
	// over the chain and Z ports, for guard-bit sizing. Zero disables the
	// port.
	NumChainSummands int
	NumZSummands     int

	// UseSecondaryAddend activates the xb preadder operand.
	UseSecondaryAddend bool

	// SubtractB statically turns the preadder into xa - xb.
	SubtractB bool

	// SubtractProduct statically subtracts the product in the ALU.
	SubtractProduct bool

	// UseNegation enables the dynamic per-cycle product negation bit;
	// UseANegation/UseBNegation enable the dynamic preadder sign bits.
	UseNegation  bool
	UseANegation bool
	UseBNegation bool

	InputRegsX, InputRegsY, InputRegsZ int
	OutputRegs                         int

	ShiftRight     int
	Round          macctypes.RoundMode
	Clip           bool
	ReportOverflow bool

	// ClearRelation and NegateRelation name the data port each dynamic
	// control bit is registered alongside.
	ClearRelation  macctypes.Relation
	NegateRelation macctypes.Relation

	ResetPolicy macctypes.ResetPolicy
}

// geometry holds the derived static shape of a validated cell.
type geometry struct {
	preaddActive bool
	preaddWidth  int // width of the preadder result
	prodWidth    int
	guardBits    int
	guardCapped  bool
	accWidth     int
	mulStage     int
	maxIn        int
	aluDepth     int

	// injectRound: the round-to-nearest bias is added into the accumulator
	// on the clear cycle (free ALU slot). Otherwise nearest rounding is
	// deferred to output formatting.
	injectRound bool
}

func (c Config) accumulating() bool { return c.AccumulateCycles > 1 }

// derive validates c and computes its geometry.
func derive(c Config) (geometry, error) {
	var g geometry

	if c.XWidth < 2 || c.YWidth < 2 || c.OutWidth < 2 {
		return g, fmt.Errorf("x=%d y=%d out=%d: %w", c.XWidth, c.YWidth, c.OutWidth, ErrInvalidWidth)
	}
	if c.AccumulateCycles < 1 || c.NumChainSummands < 0 || c.NumZSummands < 0 ||
		c.InputRegsX < 0 || c.InputRegsY < 0 || c.InputRegsZ < 0 ||
		c.OutputRegs < 0 || c.ShiftRight < 0 {
		return g, fmt.Errorf("negative or zero structural parameter: %w", ErrInvalidConfig)
	}

	g.preaddActive = c.UseSecondaryAddend || c.UseANegation || c.UseBNegation
	maxX := MaxDirectWidth
	if g.preaddActive {
		maxX = MaxPreaddWidth
	}
	if c.XWidth > maxX {
		return g, fmt.Errorf("x width %d exceeds port limit %d: %w", c.XWidth, maxX, ErrInvalidWidth)
	}
	if c.YWidth > MaxYWidth {
		return g, fmt.Errorf("y width %d exceeds port limit %d: %w", c.YWidth, MaxYWidth, ErrInvalidWidth)
	}
	if c.NumZSummands > 0 && c.ZWidth < 2 {
		return g, fmt.Errorf("z width %d with active z port: %w", c.ZWidth, ErrInvalidWidth)
	}

	g.preaddWidth = c.XWidth
	if g.preaddActive {
		g.preaddWidth++
	}
	g.prodWidth = g.preaddWidth + c.YWidth
	if g.prodWidth > AccumWidth {
		return g, fmt.Errorf("product width %d exceeds accumulator width %d: %w", g.prodWidth, AccumWidth, ErrInvalidWidth)
	}

	// At most three of {product, z, chain, accumulator feedback} may be
	// live in one cycle; feedback and clear exclude each other by
	// construction, so the check is purely static.
	sources := 1
	if c.NumZSummands > 0 {
		sources++
	}
	if c.NumChainSummands > 0 {
		sources++
	}
	if c.accumulating() {
		sources++
	}
	if sources > maxALUSummands {
		return g, fmt.Errorf("%d summand sources: %w", sources, ErrOversubscribedALU)
	}

	if c.accumulating() && c.OutputRegs < 1 {
		return g, fmt.Errorf("accumulation requires an output register: %w", ErrInvalidConfig)
	}

	total := c.AccumulateCycles * (1 + c.NumZSummands + c.NumChainSummands)
	need := ceilLog2(total)
	g.guardBits = need
	if g.guardBits > MaxGuardBits {
		g.guardBits = MaxGuardBits
		g.guardCapped = true
	}
	if g.prodWidth+g.guardBits > AccumWidth {
		g.guardBits = AccumWidth - g.prodWidth
		g.guardCapped = true
	}
	g.accWidth = g.prodWidth + g.guardBits

	if (c.Clip || c.ReportOverflow) && g.guardCapped &&
		c.OutWidth < g.prodWidth+g.guardBits-c.ShiftRight {
		return g, fmt.Errorf("%d summands on %d guard bits: %w", total, g.guardBits, ErrGuardBits)
	}

	if err := checkRelation(c, c.ClearRelation); err != nil {
		return g, fmt.Errorf("clear: %w", err)
	}
	if err := checkRelation(c, c.NegateRelation); err != nil {
		return g, fmt.Errorf("negate: %w", err)
	}

	g.maxIn = max(c.InputRegsX, c.InputRegsY)
	if g.maxIn >= 2 {
		g.mulStage = 1
	}
	g.aluDepth = g.maxIn + g.mulStage

	// The z summand must reach the ALU in the same cycle as the product.
	if c.NumZSummands > 0 && c.InputRegsZ != g.aluDepth {
		return g, fmt.Errorf("z registers %d against alu depth %d: %w", c.InputRegsZ, g.aluDepth, ErrInvalidConfig)
	}

	g.injectRound = c.Round == macctypes.RoundNearest && c.ShiftRight > 0 &&
		c.NumZSummands == 0 && c.NumChainSummands == 0

	return g, nil
}

// relationDepth returns the register depth a control bit experiences on
// its way to the ALU: the input registers of its related port plus the
// multiply stage.
func relationDepth(c Config, g geometry, r macctypes.Relation) int {
	switch r {
	case macctypes.RelationY:
		return c.InputRegsY + g.mulStage
	case macctypes.RelationZ:
		return c.InputRegsZ + g.mulStage
	default:
		return c.InputRegsX + g.mulStage
	}
}

func checkRelation(c Config, r macctypes.Relation) error {
	switch r {
	case macctypes.RelationX, macctypes.RelationY:
		return nil
	case macctypes.RelationZ:
		if c.NumZSummands == 0 {
			return fmt.Errorf("z relation without z port: %w", ErrInvalidRelation)
		}
		return nil
	default:
		return fmt.Errorf("relation %d: %w", r, ErrInvalidRelation)
	}
}

// ceilLog2 returns ceil(log2(n)) for n >= 1.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Widths reports the derived product and accumulator widths of a
// configuration, independent of its output formatting fields.
func (c Config) Widths() (prodWidth, accWidth int, err error) {
	t := c
	t.OutWidth = 2
	t.Clip = false
	t.ReportOverflow = false
	g, err := derive(t)
	if err != nil {
		return 0, 0, err
	}
	return g.prodWidth, g.accWidth, nil
}

// Stages returns the input-to-output latency of a cell with this
// configuration: the deeper input path, the multiply register when at
// least two input stages exist, and the output registers.
func (c Config) Stages() (int, error) {
	g, err := derive(c)
	if err != nil {
		return 0, err
	}
	return g.maxIn + g.mulStage + c.OutputRegs, nil
}
