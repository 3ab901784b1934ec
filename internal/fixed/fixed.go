// Package fixed implements signed fixed-point scalars of explicit bit width
// with two's-complement wrap, saturation, and overflow reporting.
//
// Values are immutable: every operation returns a new Value. The backing
// store is a big.Int so that products and guarded accumulator sums of any
// configured width stay exact.
package fixed

import (
	"fmt"
	"math/big"
)

// MinWidth is the smallest representable width. A one-bit two's-complement
// value cannot hold a positive number, so resize targets below two bits are
// rejected at configuration time.
const MinWidth = 2

// Value is a signed fixed-point scalar. The zero Value has width 0 and is
// only valid as a placeholder; arithmetic requires width >= MinWidth.
type Value struct {
	width int
	bits  *big.Int
}

// New returns the zero value of the given width.
func New(width int) Value {
	return Value{width: width, bits: new(big.Int)}
}

// FromInt64 returns v wrapped into width bits.
func FromInt64(width int, v int64) Value {
	return FromBig(width, big.NewInt(v))
}

// FromBig returns v wrapped into width bits. The input is not modified.
func FromBig(width int, v *big.Int) Value {
	out := Value{width: width, bits: new(big.Int).Set(v)}
	out.bits = wrap(out.bits, width)
	return out
}

// Width returns the bit width of v.
func (v Value) Width() int { return v.width }

// Big returns a copy of the exact signed value.
func (v Value) Big() *big.Int {
	if v.bits == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.bits)
}

// Int64 returns the signed value. The caller guarantees it fits in 64 bits.
func (v Value) Int64() int64 {
	if v.bits == nil {
		return 0
	}
	return v.bits.Int64()
}

// IsZero reports whether v is exactly zero.
func (v Value) IsZero() bool { return v.bits == nil || v.bits.Sign() == 0 }

// IsNeg reports whether v is negative.
func (v Value) IsNeg() bool { return v.bits != nil && v.bits.Sign() < 0 }

// Eq reports whether a and b have identical width and value.
func (v Value) Eq(o Value) bool {
	return v.width == o.width && v.Big().Cmp(o.Big()) == 0
}

// String renders the value as "<decimal>w<width>".
func (v Value) String() string {
	return fmt.Sprintf("%sw%d", v.Big().String(), v.width)
}

// MaxVal returns the most positive value representable in width bits.
func MaxVal(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	return m.Sub(m, big.NewInt(1))
}

// MinVal returns the most negative value representable in width bits.
func MinVal(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	return m.Neg(m)
}

// Fits reports whether x is representable in width bits without wrapping.
func Fits(x *big.Int, width int) bool {
	return x.Cmp(MinVal(width)) >= 0 && x.Cmp(MaxVal(width)) <= 0
}

// wrap reduces x into the two's-complement range of width bits.
func wrap(x *big.Int, width int) *big.Int {
	if Fits(x, width) {
		return x
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	x = x.Mod(x, mod) // now in [0, 2^w)
	if x.Cmp(MaxVal(width)) > 0 {
		x.Sub(x, mod)
	}
	return x
}

// Extend sign-extends v to newWidth bits. newWidth must not be smaller than
// the current width; widening is always lossless.
func Extend(v Value, newWidth int) Value {
	if newWidth < v.width {
		panic("fixed: Extend would narrow")
	}
	return Value{width: newWidth, bits: v.Big()}
}

// ShiftLeft multiplies v by 2^n, growing the width by n bits (lossless).
func ShiftLeft(v Value, n int) Value {
	return Value{width: v.width + n, bits: new(big.Int).Lsh(v.Big(), uint(n))}
}

// Neg returns -v at the same width. Negating the most negative value wraps
// back onto itself and always reports overflow, independent of clip mode.
func Neg(v Value) (Value, bool) {
	n := new(big.Int).Neg(v.Big())
	if !Fits(n, v.width) {
		return Value{width: v.width, bits: wrap(n, v.width)}, true
	}
	return Value{width: v.width, bits: n}, false
}

// Add returns a+b at the common width with two's-complement wrap, reporting
// overflow. Operand widths must match.
func Add(a, b Value) (Value, bool) {
	checkWidths(a, b)
	s := new(big.Int).Add(a.Big(), b.Big())
	if !Fits(s, a.width) {
		return Value{width: a.width, bits: wrap(s, a.width)}, true
	}
	return Value{width: a.width, bits: s}, false
}

// Sub returns a-b at the common width with two's-complement wrap, reporting
// overflow. Operand widths must match.
func Sub(a, b Value) (Value, bool) {
	checkWidths(a, b)
	s := new(big.Int).Sub(a.Big(), b.Big())
	if !Fits(s, a.width) {
		return Value{width: a.width, bits: wrap(s, a.width)}, true
	}
	return Value{width: a.width, bits: s}, false
}

// AddWide returns a+b at width max(wa,wb)+1, which can never overflow.
func AddWide(a, b Value) Value {
	w := max(a.width, b.width) + 1
	return Value{width: w, bits: new(big.Int).Add(a.Big(), b.Big())}
}

// SubWide returns a-b at width max(wa,wb)+1, which can never overflow.
func SubWide(a, b Value) Value {
	w := max(a.width, b.width) + 1
	return Value{width: w, bits: new(big.Int).Sub(a.Big(), b.Big())}
}

// Mul returns the exact product at width wa+wb. The extreme case
// (-2^(wa-1)) * (-2^(wb-1)) = 2^(wa+wb-2) still fits, so no overflow is
// possible.
func Mul(a, b Value) Value {
	return Value{
		width: a.width + b.width,
		bits:  new(big.Int).Mul(a.Big(), b.Big()),
	}
}

func checkWidths(a, b Value) {
	if a.width != b.width {
		panic(fmt.Sprintf("fixed: width mismatch %d vs %d", a.width, b.width))
	}
}
