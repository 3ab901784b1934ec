package assemble

import (
	"math/bits"

	"github.com/cwbudde/algo-macc/internal/cplx"
	"github.com/cwbudde/algo-macc/internal/delay"
	"github.com/cwbudde/algo-macc/internal/fixed"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// build assembles the node for n terms, mirroring describe split for
// split. The root of a chain topology formats inside its final cells; a
// tree stays raw until the formatting node Build appends.
func (s shape) build(n int, root bool) (Node, error) {
	if (root && s.top == macctypes.TopologyChain) || n <= s.leafMax() {
		return newChain(s, n, root && s.top == macctypes.TopologyChain)
	}
	n0 := splitCount(n)
	left, err := s.build(n0, false)
	if err != nil {
		return nil, err
	}
	right, err := s.build(n-n0, false)
	if err != nil {
		return nil, err
	}
	return newTree(left, right, n0), nil
}

// treeNode adds two branches through a registered adder one bit wider
// than its wider input. The shallower branch is padded with delay
// registers so both partials belong to the same input cycle.
type treeNode struct {
	left, right Node
	nleft       int

	align     *delay.Line[cplx.Complex]
	alignLeft bool

	reg  cplx.Complex
	held cplx.Complex

	w, nstages, ncells int
}

func newTree(left, right Node, nleft int) *treeNode {
	s0, s1 := left.Stages(), right.Stages()
	w := max(left.Width(), right.Width()) + 1

	t := &treeNode{
		left:      left,
		right:     right,
		nleft:     nleft,
		alignLeft: s0 < s1,
		align:     delay.NewLine[cplx.Complex](abs(s0 - s1)),
		reg:       cplx.New(w),
		held:      cplx.New(w),
		w:         w,
		nstages:   max(s0, s1) + 1,
		ncells:    left.Cells() + right.Cells(),
	}
	if t.alignLeft {
		t.align.Fill(cplx.New(left.Width()))
	} else {
		t.align.Fill(cplx.New(right.Width()))
	}
	return t
}

func (t *treeNode) Stages() int { return t.nstages }
func (t *treeNode) Cells() int  { return t.ncells }
func (t *treeNode) Width() int  { return t.w }

func (t *treeNode) Advance(ctrl macctypes.Control, in Input) cplx.Complex {
	if !ctrl.Enable {
		return t.held
	}

	l := t.left.Advance(ctrl, Input{Terms: in.Terms[:t.nleft], Clear: in.Clear})
	r := t.right.Advance(ctrl, Input{Terms: in.Terms[t.nleft:], Clear: in.Clear})
	if t.alignLeft {
		l = t.align.Shift(l)
	} else {
		r = t.align.Shift(r)
	}

	sum := combine(l, r, t.w)
	out := t.reg
	t.reg = sum
	t.held = out
	return out
}

// combine sums two aligned partials at width w; an invalid branch
// contributes zero so a sparse cycle still carries the other branch.
func combine(l, r cplx.Complex, w int) cplx.Complex {
	lre, lim := branchVal(l, w)
	rre, rim := branchVal(r, w)

	// w covers max(wl, wr)+1, so the adds cannot wrap.
	re, _ := fixed.Add(lre, rre)
	im, _ := fixed.Add(lim, rim)
	return cplx.Complex{
		Re:       re,
		Im:       im,
		Valid:    l.Valid || r.Valid,
		Reset:    l.Reset || r.Reset,
		Overflow: l.Overflow || r.Overflow,
	}
}

func branchVal(v cplx.Complex, w int) (re, im fixed.Value) {
	if !v.Valid {
		return fixed.New(w), fixed.New(w)
	}
	return fixed.Extend(v.Re, w), fixed.Extend(v.Im, w)
}

// accumNode is the fabric accumulator closing a tree: one register wide
// enough for the configured accumulation run, cleared through a strobe
// that rides a delay line matched to the tree depth.
type accumNode struct {
	child  Node
	clears *delay.Line[bool]

	acc  cplx.Complex
	held cplx.Complex

	w, shift int
	inject   bool
	policy   macctypes.ResetPolicy
	nstages  int
}

func newAccum(s shape, child Node) *accumNode {
	w := child.Width() + log2Up(s.cfg.AccumulateCycles)
	a := &accumNode{
		child:   child,
		clears:  delay.NewLine[bool](child.Stages()),
		acc:     cplx.New(w),
		held:    cplx.New(w),
		w:       w,
		shift:   s.cfg.ShiftRight,
		inject:  s.cfg.Round == macctypes.RoundNearest && s.cfg.ShiftRight > 0,
		policy:  s.cfg.ResetPolicy,
		nstages: child.Stages() + 1,
	}
	return a
}

func (a *accumNode) Stages() int { return a.nstages }
func (a *accumNode) Cells() int  { return a.child.Cells() }
func (a *accumNode) Width() int  { return a.w }

func (a *accumNode) Advance(ctrl macctypes.Control, in Input) cplx.Complex {
	if !ctrl.Enable {
		return a.held
	}

	c := a.child.Advance(ctrl, in)
	clear := a.clears.Shift(in.Clear)
	out := a.acc

	switch {
	case c.Reset:
		next := cplx.Complex{Re: a.acc.Re, Im: a.acc.Im, Reset: true}
		if a.policy == macctypes.ResetDataAndFlags {
			next.Re = fixed.New(a.w)
			next.Im = fixed.New(a.w)
		}
		a.acc = next
	case !c.Valid:
		// Hold the running sum and its pending flag; the slot is idle.
		a.acc = cplx.Complex{Re: a.acc.Re, Im: a.acc.Im, Overflow: a.acc.Overflow}
	case clear:
		next := cplx.Extend(c, a.w)
		if a.inject {
			// Fold the round-to-nearest bias into the fresh sum; the
			// formatting stage then truncates.
			bias := fixed.RoundBias(a.w, a.shift)
			next.Re, _ = fixed.Add(next.Re, bias)
			next.Im, _ = fixed.Add(next.Im, bias)
		}
		a.acc = next
	default:
		ext := cplx.Extend(c, a.w)
		re, o1 := fixed.Add(a.acc.Re, ext.Re)
		im, o2 := fixed.Add(a.acc.Im, ext.Im)
		a.acc = cplx.Complex{
			Re:       re,
			Im:       im,
			Valid:    true,
			Overflow: a.acc.Overflow || c.Overflow || o1 || o2,
		}
	}

	a.held = out
	return out
}

// formatNode applies the shift/round/clip output stage to the raw root
// of a tree. It is purely combinational.
type formatNode struct {
	child Node

	w, shift int
	round    macctypes.RoundMode
	clip     bool
	report   bool

	held cplx.Complex
}

func newFormat(s shape, child Node) *formatNode {
	round := s.cfg.Round
	if s.accumulating() && round == macctypes.RoundNearest && s.cfg.ShiftRight > 0 {
		// The accumulator already carries the bias.
		round = macctypes.RoundTruncate
	}
	return &formatNode{
		child:  child,
		w:      s.cfg.OutWidth,
		shift:  s.cfg.ShiftRight,
		round:  round,
		clip:   s.cfg.Clip,
		report: s.cfg.ReportOverflow,
		held:   cplx.New(s.cfg.OutWidth),
	}
}

func (f *formatNode) Stages() int { return f.child.Stages() }
func (f *formatNode) Cells() int  { return f.child.Cells() }
func (f *formatNode) Width() int  { return f.w }

func (f *formatNode) Advance(ctrl macctypes.Control, in Input) cplx.Complex {
	if !ctrl.Enable {
		return f.held
	}
	out := cplx.Resize(f.child.Advance(ctrl, in), f.w, f.shift, f.round, f.clip, f.report, false)
	f.held = out
	return out
}

// log2Up returns ceil(log2(n)) for n >= 1.
func log2Up(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
