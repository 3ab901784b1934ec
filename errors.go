package algomacc

import (
	"github.com/cwbudde/algo-macc/internal/assemble"
	"github.com/cwbudde/algo-macc/internal/cell"
)

// Sentinel errors returned while planning a structure. Configuration
// problems are static: they reject the build before any data flows and
// never degrade into silently wrong numeric results. Match them with
// errors.Is; the returned errors wrap these with the offending values.
var (
	// ErrInvalidWidth is returned when an operand, output, or accumulator
	// width falls outside the limits of the arithmetic slice.
	ErrInvalidWidth = cell.ErrInvalidWidth

	// ErrInvalidConfig is returned for structurally impossible register,
	// accumulator, or enum settings.
	ErrInvalidConfig = cell.ErrInvalidConfig

	// ErrOversubscribedALU is returned when a cell would need more
	// simultaneous ALU summands than the slice provides, for example
	// accumulating a multi-link shared-term chain.
	ErrOversubscribedALU = cell.ErrOversubscribedALU

	// ErrGuardBits is returned when the accumulator cannot carry enough
	// guard bits for the configured summand count while clipping or
	// overflow detection relies on them.
	ErrGuardBits = cell.ErrGuardBits

	// ErrInvalidRelation is returned when a control signal is declared
	// synchronous to a port the structure does not expose.
	ErrInvalidRelation = cell.ErrInvalidRelation

	// ErrInvalidCount is returned for a term count below one.
	ErrInvalidCount = assemble.ErrInvalidCount

	// ErrChainTooLong is returned when a linear cascade is requested for
	// more terms than MaxChainLinks.
	ErrChainTooLong = assemble.ErrChainTooLong

	// ErrDecompositionWidth is returned when the three-cell decomposition
	// is requested but an operand exceeds the narrow multiplier port.
	ErrDecompositionWidth = assemble.ErrDecompositionWidth
)
