package assemble

import "errors"

// MaxChainLinks bounds the number of complex product terms one linear
// cascade may carry before the accumulated routing delay outweighs the
// dedicated chain wiring.
const MaxChainLinks = 4

// Sentinel errors raised while planning a structure. They join the cell
// sentinels: structural problems reject the build, never the data.
var (
	// ErrInvalidCount is returned for a term count below one.
	ErrInvalidCount = errors.New("algomacc: invalid term count")

	// ErrChainTooLong is returned when a linear chain is requested for
	// more terms than the cascade bound allows.
	ErrChainTooLong = errors.New("algomacc: chain too long")

	// ErrDecompositionWidth is returned when the three-cell decomposition
	// is requested but an operand exceeds the narrow multiplier port it
	// would have to pass through.
	ErrDecompositionWidth = errors.New("algomacc: operand too wide for decomposition")
)
