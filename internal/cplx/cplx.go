// Package cplx implements the complex fixed-point record flowing through
// the MACC pipeline: a real/imaginary pair of equal width plus the reset,
// valid, and overflow control bits that ride alongside the data.
package cplx

import (
	"fmt"

	"github.com/cwbudde/algo-macc/internal/fixed"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// Complex is one sample of the complex data stream. Values are immutable;
// every operation returns a new record.
//
// Invariants: Re and Im share one width. While Reset is set, Valid and
// Overflow are clear (and under the data-clearing reset policy Re/Im are
// zero as well).
type Complex struct {
	Re, Im   fixed.Value
	Reset    bool
	Valid    bool
	Overflow bool
}

// New returns an invalid zero sample of the given width.
func New(width int) Complex {
	return Complex{Re: fixed.New(width), Im: fixed.New(width)}
}

// From builds a valid sample from two equal-width scalars.
func From(re, im fixed.Value) Complex {
	if re.Width() != im.Width() {
		panic(fmt.Sprintf("cplx: component width mismatch %d vs %d", re.Width(), im.Width()))
	}
	return Complex{Re: re, Im: im, Valid: true}
}

// FromInt64 builds a valid sample from two integers wrapped to width.
func FromInt64(width int, re, im int64) Complex {
	return From(fixed.FromInt64(width, re), fixed.FromInt64(width, im))
}

// Width returns the common component width.
func (c Complex) Width() int { return c.Re.Width() }

// mergeUnary carries the control bits of v onto a transformed record.
func mergeUnary(v Complex, re, im fixed.Value, ovf bool) Complex {
	return Complex{
		Re:       re,
		Im:       im,
		Reset:    v.Reset,
		Valid:    v.Valid,
		Overflow: v.Overflow || (ovf && v.Valid),
	}
}

// Conj negates the imaginary part. Overflow of the negation (most negative
// imaginary value) is merged into the record's overflow flag.
func Conj(v Complex) Complex {
	im, ovf := fixed.Neg(v.Im)
	return mergeUnary(v, v.Re, im, ovf)
}

// Neg negates both components.
func Neg(v Complex) Complex {
	re, ovfRe := fixed.Neg(v.Re)
	im, ovfIm := fixed.Neg(v.Im)
	return mergeUnary(v, re, im, ovfRe || ovfIm)
}

// Swap exchanges the real and imaginary parts, i.e. multiplies the
// conjugate by i. Combined with Conj it yields multiplication by +-i.
func Swap(v Complex) Complex {
	return mergeUnary(v, v.Im, v.Re, false)
}

// Scale multiplies by 2^n, growing the component width by n (lossless).
func Scale(v Complex, n int) Complex {
	return mergeUnary(v, fixed.ShiftLeft(v.Re, n), fixed.ShiftLeft(v.Im, n), false)
}

// Extend sign-extends both components to newWidth (lossless).
func Extend(v Complex, newWidth int) Complex {
	return mergeUnary(v, fixed.Extend(v.Re, newWidth), fixed.Extend(v.Im, newWidth), false)
}

// Add sums two samples losslessly at width max(wa,wb)+1. Reset merges by
// OR, Valid by AND, Overflow by OR.
func Add(a, b Complex) Complex {
	return Complex{
		Re:       fixed.AddWide(a.Re, b.Re),
		Im:       fixed.AddWide(a.Im, b.Im),
		Reset:    a.Reset || b.Reset,
		Valid:    a.Valid && b.Valid,
		Overflow: a.Overflow || b.Overflow,
	}
}

// Sub subtracts b from a losslessly at width max(wa,wb)+1 with the same
// flag-merge policy as Add.
func Sub(a, b Complex) Complex {
	return Complex{
		Re:       fixed.SubWide(a.Re, b.Re),
		Im:       fixed.SubWide(a.Im, b.Im),
		Reset:    a.Reset || b.Reset,
		Valid:    a.Valid && b.Valid,
		Overflow: a.Overflow || b.Overflow,
	}
}

// Resize applies the shift/round/clip output formatting to both
// components. A freshly detected overflow is reported only when report is
// set and the sample is valid; an upstream overflow flag propagates unless
// ignoreInput discards it (saving downstream logic that would otherwise
// carry the flag along).
func Resize(v Complex, newWidth, shift int, round macctypes.RoundMode, clip, report, ignoreInput bool) Complex {
	re, ovfRe := fixed.Resize(v.Re, newWidth, shift, round, clip)
	im, ovfIm := fixed.Resize(v.Im, newWidth, shift, round, clip)

	ovf := report && v.Valid && (ovfRe || ovfIm)
	if !ignoreInput {
		ovf = ovf || v.Overflow
	}
	return Complex{Re: re, Im: im, Reset: v.Reset, Valid: v.Valid, Overflow: ovf}
}

// ApplyReset enforces the reset invariant on a sample whose Reset bit is
// set: valid and overflow drop, and under ResetDataAndFlags the data is
// zeroed too.
func ApplyReset(v Complex, policy macctypes.ResetPolicy) Complex {
	if !v.Reset {
		return v
	}
	out := v
	out.Valid = false
	out.Overflow = false
	if policy == macctypes.ResetDataAndFlags {
		out.Re = fixed.New(v.Re.Width())
		out.Im = fixed.New(v.Im.Width())
	}
	return out
}

// String renders the sample with its control bits for test failure output.
func (c Complex) String() string {
	return fmt.Sprintf("(%s, %s) valid=%t reset=%t ovf=%t",
		c.Re, c.Im, c.Valid, c.Reset, c.Overflow)
}
