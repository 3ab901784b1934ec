// Package macctypes holds the canonical enums and small shared types of the
// MACC pipeline model. The root package re-exports them as aliases.
package macctypes

// Control carries the global synchronous control signals of one clock cycle.
// A deasserted Enable freezes every register in the structure simultaneously.
// Reset rides the pipeline at the same rate as data: it enters the first
// stage on the cycle it is asserted and reaches the output exactly
// PIPESTAGES cycles later.
type Control struct {
	Enable bool
	Reset  bool
}

// Run is the control word of an ordinary active cycle.
var Run = Control{Enable: true}

// RoundMode selects the rounding behavior of a shift-right/resize step.
type RoundMode uint8

const (
	RoundTruncate     RoundMode = iota // round toward negative infinity (plain arithmetic shift)
	RoundNearest                       // round to nearest, ties toward positive infinity
	RoundUp                            // round toward positive infinity
	RoundAwayFromZero                  // round away from zero
)

// String returns a human-readable name for the rounding mode.
func (r RoundMode) String() string {
	switch r {
	case RoundTruncate:
		return "truncate"
	case RoundNearest:
		return "nearest"
	case RoundUp:
		return "up"
	case RoundAwayFromZero:
		return "away"
	default:
		return "unknown"
	}
}

// Decomposition selects the algebraic identity used to map one complex
// multiplication onto real-valued multiply-add cells.
type Decomposition uint8

const (
	// DecompositionAuto picks the four-cell expansion unless both operand
	// widths fit the narrow port, in which case the three-cell identity
	// is chosen.
	DecompositionAuto Decomposition = iota

	// DecompositionFourCell is the direct expansion: two cells per output
	// component, widest operand support, permits an extra additive Z
	// summand.
	DecompositionFourCell

	// DecompositionThreeCell is the Karatsuba-like identity sharing one
	// cross term between both output components. Both operands must fit
	// the narrow port; no external Z summand; accumulation and an
	// external chain input are mutually exclusive.
	DecompositionThreeCell
)

// String returns a human-readable name for the decomposition.
func (d Decomposition) String() string {
	switch d {
	case DecompositionAuto:
		return "auto"
	case DecompositionFourCell:
		return "4-cell"
	case DecompositionThreeCell:
		return "3-cell"
	default:
		return "unknown"
	}
}

// Topology selects how the partial products of N complex multiplications
// are combined into one sum.
type Topology uint8

const (
	// TopologyAuto uses a linear chain for small N and a balanced tree
	// beyond the chain-length bound.
	TopologyAuto Topology = iota

	// TopologyChain cascades units over the dedicated chain path. Bounded
	// to a small maximum length because every link deepens the input
	// pipelines of all later links.
	TopologyChain

	// TopologyTree combines two recursively built halves with a
	// registered, width-extended adder and delay compensation on the
	// faster branch.
	TopologyTree
)

// String returns a human-readable name for the topology.
func (t Topology) String() string {
	switch t {
	case TopologyAuto:
		return "auto"
	case TopologyChain:
		return "chain"
	case TopologyTree:
		return "tree"
	default:
		return "unknown"
	}
}

// Relation names the data port a dynamic control bit is registered
// alongside. A control bit experiences the input-register depth of its
// related port (plus the multiply stage), so relating it to the deepest
// port aligns it exactly with the data at the ALU while a shallower
// relation skews it early by the depth difference. The exact relation of
// the original hardware is not documented, which is why it is a
// configuration parameter here rather than a fixed choice.
type Relation uint8

const (
	RelationX Relation = iota
	RelationY
	RelationZ
)

// String returns a human-readable name for the relation tag.
func (r Relation) String() string {
	switch r {
	case RelationX:
		return "x"
	case RelationY:
		return "y"
	case RelationZ:
		return "z"
	default:
		return "unknown"
	}
}

// ResetPolicy selects what a riding reset clears as it passes a register.
type ResetPolicy uint8

const (
	// ResetFlags clears valid and overflow; data registers keep their
	// last value.
	ResetFlags ResetPolicy = iota

	// ResetDataAndFlags additionally forces data registers (including
	// accumulators) to zero.
	ResetDataAndFlags
)

// String returns a human-readable name for the reset policy.
func (p ResetPolicy) String() string {
	switch p {
	case ResetFlags:
		return "flags"
	case ResetDataAndFlags:
		return "data+flags"
	default:
		return "unknown"
	}
}
