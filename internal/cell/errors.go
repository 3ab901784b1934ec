package cell

import "errors"

// Sentinel errors raised at structure-assembly time. Configuration
// problems are always static: they reject the structure before any data
// flows and never degrade into wrong numeric results.
var (
	// ErrInvalidWidth is returned when an operand, output, or accumulator
	// width falls outside the limits of the arithmetic slice (including a
	// preadder operand exceeding the narrow port).
	ErrInvalidWidth = errors.New("algomacc: invalid width")

	// ErrInvalidConfig is returned for structurally impossible register or
	// accumulator settings, such as accumulation without an output register.
	ErrInvalidConfig = errors.New("algomacc: invalid configuration")

	// ErrOversubscribedALU is returned when more summand sources than the
	// ALU can absorb would be active in the same cycle. Of the product,
	// the Z input, the chain input, and the accumulator feedback, at most
	// three may be simultaneously live; feedback and clear are mutually
	// exclusive by construction.
	ErrOversubscribedALU = errors.New("algomacc: too many simultaneous ALU summands")

	// ErrGuardBits is returned when the guard bits were capped below the
	// worst-case summand count while clip or overflow detection is
	// requested on an output wide enough to expose the shortfall.
	ErrGuardBits = errors.New("algomacc: insufficient guard bits")

	// ErrInvalidRelation is returned when a control signal is declared
	// synchronous to a data port the configuration does not register.
	ErrInvalidRelation = errors.New("algomacc: invalid control relation")
)
