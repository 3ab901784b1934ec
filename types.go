package algomacc

import (
	"math/big"

	"github.com/cwbudde/algo-macc/internal/assemble"
	"github.com/cwbudde/algo-macc/internal/cplx"
	"github.com/cwbudde/algo-macc/internal/fixed"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// Fixed is an arbitrary-width two's-complement integer, the scalar
// flowing through every port. The canonical definition is in
// internal/fixed.
type Fixed = fixed.Value

// Complex is one sample of the complex data stream: a real/imaginary
// pair of equal width plus the reset, valid, and overflow bits riding
// alongside. The canonical definition is in internal/cplx.
type Complex = cplx.Complex

// Term is one complex product operand pair with its dynamic per-sample
// negate and conjugate controls.
type Term = assemble.Term

// Input carries one cycle's worth of structure inputs.
type Input = assemble.Input

// Control carries the per-cycle clock enable and synchronous reset.
type Control = macctypes.Control

// Report is the static stage and cell accounting of a planned structure.
type Report = assemble.Report

// Run is the ordinary control word: clock enabled, no reset.
var Run = macctypes.Run

// RoundMode selects how discarded fraction bits are folded into the
// formatted output.
type RoundMode = macctypes.RoundMode

const (
	RoundTruncate     = macctypes.RoundTruncate
	RoundNearest      = macctypes.RoundNearest
	RoundUp           = macctypes.RoundUp
	RoundAwayFromZero = macctypes.RoundAwayFromZero
)

// Decomposition selects how a complex product maps onto real cells.
type Decomposition = macctypes.Decomposition

const (
	DecompositionAuto      = macctypes.DecompositionAuto
	DecompositionFourCell  = macctypes.DecompositionFourCell
	DecompositionThreeCell = macctypes.DecompositionThreeCell
)

// Topology selects how the product terms are summed.
type Topology = macctypes.Topology

const (
	TopologyAuto  = macctypes.TopologyAuto
	TopologyChain = macctypes.TopologyChain
	TopologyTree  = macctypes.TopologyTree
)

// Relation names the data port a dynamic control bit is registered
// alongside.
type Relation = macctypes.Relation

const (
	RelationX = macctypes.RelationX
	RelationY = macctypes.RelationY
)

// ResetPolicy selects what a synchronous reset clears.
type ResetPolicy = macctypes.ResetPolicy

const (
	ResetFlags        = macctypes.ResetFlags
	ResetDataAndFlags = macctypes.ResetDataAndFlags
)

// MaxChainLinks bounds the number of terms one linear cascade may carry.
const MaxChainLinks = assemble.MaxChainLinks

// NewFixed returns a width-bit value holding v wrapped into range.
func NewFixed(width int, v int64) Fixed { return fixed.FromInt64(width, v) }

// NewFixedBig returns a width-bit value holding v wrapped into range.
func NewFixedBig(width int, v *big.Int) Fixed { return fixed.FromBig(width, v) }

// NewComplex returns a valid sample with both components wrapped to
// width bits.
func NewComplex(width int, re, im int64) Complex { return cplx.FromInt64(width, re, im) }

// InvalidComplex returns an invalid zero sample of the given width, the
// value an idle input cycle carries.
func InvalidComplex(width int) Complex { return cplx.New(width) }
