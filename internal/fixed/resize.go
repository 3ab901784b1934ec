package fixed

import (
	"math/big"

	"github.com/cwbudde/algo-macc/internal/macctypes"
)

var one = big.NewInt(1)

// Resize arithmetically shifts v right by shift bits, rounds the discarded
// fraction according to round, and changes the width to newWidth.
//
// The overflow flag is set when either the rounded result exceeds the
// representable range of newWidth and wraps (clip disabled), or clipping
// actually altered the value (clip enabled). Whether the flag is reported
// downstream is the caller's policy; Resize itself always computes it.
//
// Rounding happens at full precision before the range check, so rounding
// the most positive value up by one ULP clips to the most positive value
// (clip enabled) or wraps magnitude-correctly (clip disabled).
func Resize(v Value, newWidth, shift int, round macctypes.RoundMode, clip bool) (Value, bool) {
	if newWidth < MinWidth {
		panic("fixed: resize target below minimum width")
	}
	if shift < 0 {
		panic("fixed: negative shift")
	}

	x := v.Big()
	if shift > 0 {
		x = shiftRound(x, shift, round)
	}

	if Fits(x, newWidth) {
		return Value{width: newWidth, bits: x}, false
	}
	if clip {
		if x.Sign() > 0 {
			return Value{width: newWidth, bits: MaxVal(newWidth)}, true
		}
		return Value{width: newWidth, bits: MinVal(newWidth)}, true
	}
	return Value{width: newWidth, bits: wrap(x, newWidth)}, true
}

// shiftRound divides x by 2^shift with the requested rounding behavior.
// big.Int.Rsh floors (the discarded bits of the infinite two's-complement
// representation vanish), so every mode is expressed as a bias before the
// floor.
func shiftRound(x *big.Int, shift int, round macctypes.RoundMode) *big.Int {
	s := uint(shift)
	ceilBias := func() *big.Int {
		return new(big.Int).Sub(new(big.Int).Lsh(one, s), one)
	}
	switch round {
	case macctypes.RoundNearest:
		t := new(big.Int).Add(x, new(big.Int).Lsh(one, s-1))
		return t.Rsh(t, s)
	case macctypes.RoundUp:
		t := new(big.Int).Add(x, ceilBias())
		return t.Rsh(t, s)
	case macctypes.RoundAwayFromZero:
		if x.Sign() >= 0 {
			t := new(big.Int).Add(x, ceilBias())
			return t.Rsh(t, s)
		}
		return new(big.Int).Rsh(x, s)
	default: // RoundTruncate
		return new(big.Int).Rsh(x, s)
	}
}

// RoundBias returns the additive constant that turns a later truncation by
// shift bits into round-to-nearest. It is what a cell injects into its
// accumulator on the clear cycle when a free ALU slot exists.
func RoundBias(width, shift int) Value {
	if shift <= 0 {
		return New(width)
	}
	return Value{width: width, bits: new(big.Int).Lsh(one, uint(shift-1))}
}
