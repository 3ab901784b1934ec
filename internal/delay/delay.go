// Package delay models fixed-depth register chains (pipeline delay lines).
package delay

// Line is a register chain of static depth. Depth 0 degenerates to a wire.
//
// Callers invoke Shift exactly once per enabled clock cycle; skipping the
// call on a clock-disabled cycle freezes the line, which is how a global
// clock enable is modeled.
type Line[T any] struct {
	regs []T
	head int
}

// NewLine returns a line of the given depth holding zero values.
func NewLine[T any](depth int) *Line[T] {
	if depth < 0 {
		panic("delay: negative depth")
	}
	return &Line[T]{regs: make([]T, depth)}
}

// Depth returns the number of registers in the line.
func (l *Line[T]) Depth() int { return len(l.regs) }

// Shift clocks the line: in enters the first register and the value shifted
// in Depth() calls ago is returned. With depth 0 the input passes through.
func (l *Line[T]) Shift(in T) T {
	if len(l.regs) == 0 {
		return in
	}
	out := l.regs[l.head]
	l.regs[l.head] = in
	l.head++
	if l.head == len(l.regs) {
		l.head = 0
	}
	return out
}

// Fill overwrites every register with v.
func (l *Line[T]) Fill(v T) {
	for i := range l.regs {
		l.regs[i] = v
	}
}
