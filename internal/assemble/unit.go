package assemble

import (
	"github.com/cwbudde/algo-macc/internal/cell"
	"github.com/cwbudde/algo-macc/internal/cplx"
	"github.com/cwbudde/algo-macc/internal/delay"
	"github.com/cwbudde/algo-macc/internal/fixed"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// run drives the cells inside a unit: the structure gates the clock
// enable before any unit advances, and resets ride the data lines.
var run = macctypes.Control{Enable: true}

// chainPair is one complex rung of the cascade: the real and imaginary
// partial sums handed from one unit to the next.
type chainPair struct {
	re, im cell.ChainLink
}

// unit is one complex product term decomposed into cells. advance clocks
// every cell once; carry is the partial-sum pair from the previous link.
type unit interface {
	advance(term Term, carry chainPair, clear, reset bool) (cplx.Complex, chainPair)
	stages() int
	width() int
}

// baseCell is the configuration shared by every cell of a structure.
func (s shape) baseCell() cell.Config {
	return cell.Config{
		AccumulateCycles: 1,
		InputRegsX:       s.cfg.InputRegs,
		InputRegsY:       s.cfg.InputRegs,
		OutputRegs:       1,
		ClearRelation:    s.cfg.ClearRelation,
		NegateRelation:   s.cfg.NegateRelation,
		ResetPolicy:      s.cfg.ResetPolicy,
	}
}

// finishCell completes a cell configuration as either the structure's
// formatted endpoint or a raw cascade member whose output stays at
// accumulator width.
func (s shape) finishCell(cc cell.Config, final bool) cell.Config {
	if final {
		cc.OutWidth = s.cfg.OutWidth
		cc.AccumulateCycles = s.cfg.AccumulateCycles
		cc.OutputRegs = s.cfg.OutputRegs
		cc.ShiftRight = s.cfg.ShiftRight
		cc.Round = s.cfg.Round
		cc.Clip = s.cfg.Clip
		cc.ReportOverflow = s.cfg.ReportOverflow
		return cc
	}
	_, accW, err := cc.Widths()
	if err != nil {
		// Leave a placeholder; validation reports the real problem when
		// the configuration derives.
		accW = 2
	}
	cc.OutWidth = accW
	return cc
}

func (s shape) fourEarly(link int) cell.Config {
	cc := s.baseCell()
	cc.XWidth = s.cfg.XWidth
	cc.YWidth = s.cfg.YWidth
	cc.NumChainSummands = 2 * link
	cc.UseNegation = s.cfg.UseNegation
	return s.finishCell(cc, false)
}

func (s shape) fourLate(link int, final, imag bool) cell.Config {
	cc := s.baseCell()
	cc.XWidth = s.cfg.XWidth
	cc.YWidth = s.cfg.YWidth
	cc.NumChainSummands = 2*link + 1
	cc.SubtractProduct = !imag
	cc.UseNegation = s.cfg.UseNegation || s.cfg.UseConjugation
	return s.finishCell(cc, final)
}

func (s shape) threeShared() cell.Config {
	cc := s.baseCell()
	// Preadds yre - yim, multiplies by xim over the narrow port.
	cc.XWidth = s.cfg.YWidth
	cc.YWidth = s.cfg.XWidth
	cc.UseSecondaryAddend = true
	cc.SubtractB = true
	cc.UseNegation = s.cfg.UseNegation || s.cfg.UseConjugation
	return s.finishCell(cc, false)
}

func (s shape) threeConsumer(link int, final, imag bool) cell.Config {
	cc := s.baseCell()
	cc.XWidth = s.cfg.XWidth
	cc.YWidth = s.cfg.YWidth
	cc.UseSecondaryAddend = true
	cc.SubtractB = !imag
	cc.UseNegation = s.cfg.UseNegation
	cc.UseBNegation = s.cfg.UseConjugation
	cc.NumZSummands = 1
	cc.NumChainSummands = 2 * link
	// The shared term is presented at input time and must reach the ALU
	// together with the registered operands.
	cc.InputRegsZ = aluDepth(s.cfg.InputRegs)
	if _, accW, err := s.threeShared().Widths(); err == nil {
		cc.ZWidth = accW
	} else {
		cc.ZWidth = 2
	}
	return s.finishCell(cc, final)
}

// unitCellConfigs lists the distinct cell configurations of one link, the
// shared or early cells first.
func (s shape) unitCellConfigs(link int, final bool) []cell.Config {
	if s.dec == macctypes.DecompositionThreeCell {
		return []cell.Config{
			s.threeShared(),
			s.threeConsumer(link, final, false),
			s.threeConsumer(link, final, true),
		}
	}
	return []cell.Config{
		s.fourEarly(link),
		s.fourLate(link, final, false),
		s.fourLate(link, final, true),
	}
}

// termControls derives the per-cycle cell control bits shared by both
// decompositions from an incoming term.
func termControls(t Term, reset, propagateOvf bool) (valid, rst, ovf bool) {
	valid = t.X.Valid && t.Y.Valid
	rst = reset || t.X.Reset || t.Y.Reset
	ovf = propagateOvf && (t.X.Overflow || t.Y.Overflow)
	return valid, rst, ovf
}

// unit4 is the schoolbook decomposition: per component a pair of chained
// cells, the second pair sitting one chain hop behind the first.
//
//	re = xre*yre - xim*yim
//	im = xre*yim + xim*yre
type unit4 struct {
	reEarly, reLate *cell.Cell
	imEarly, imLate *cell.Cell

	late      *delay.Line[u4Slot]
	propagate bool
	w, n      int
}

type u4Slot struct {
	xim, yim, yre     fixed.Value
	valid, reset, ovf bool
	neg, clear        bool
}

func newUnit4(s shape, link int, final bool) (*unit4, error) {
	lateCfg := s.fourLate(link, final, false)

	u := &unit4{
		late:      delay.NewLine[u4Slot](2),
		propagate: !s.cfg.IgnoreInputOverflow,
		w:         lateCfg.OutWidth,
		n:         s.unitStages(final),
	}
	u.late.Fill(u4Slot{
		xim: fixed.New(s.cfg.XWidth),
		yim: fixed.New(s.cfg.YWidth),
		yre: fixed.New(s.cfg.YWidth),
	})

	var err error
	if u.reEarly, err = cell.New(s.fourEarly(link)); err != nil {
		return nil, err
	}
	if u.imEarly, err = cell.New(s.fourEarly(link)); err != nil {
		return nil, err
	}
	if u.reLate, err = cell.New(lateCfg); err != nil {
		return nil, err
	}
	if u.imLate, err = cell.New(s.fourLate(link, final, true)); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *unit4) stages() int { return u.n }
func (u *unit4) width() int  { return u.w }

func (u *unit4) advance(term Term, carry chainPair, clear, reset bool) (cplx.Complex, chainPair) {
	valid, rst, ovf := termControls(term, reset, u.propagate)

	// Conjugation negates xim, flipping the sign of both late products.
	slot := u.late.Shift(u4Slot{
		xim:   term.X.Im,
		yim:   term.Y.Im,
		yre:   term.Y.Re,
		valid: valid,
		reset: rst,
		ovf:   ovf,
		neg:   term.Negate != term.Conjugate,
		clear: clear,
	})

	aOut := u.reEarly.Advance(run, cell.In{
		XA: term.X.Re, Y: term.Y.Re, Chain: carry.re,
		Valid: valid, Reset: rst, Overflow: ovf, Negate: term.Negate,
	})
	cOut := u.imEarly.Advance(run, cell.In{
		XA: term.X.Re, Y: term.Y.Im, Chain: carry.im,
		Valid: valid, Reset: rst, Overflow: ovf, Negate: term.Negate,
	})
	bOut := u.reLate.Advance(run, cell.In{
		XA: slot.xim, Y: slot.yim, Chain: aOut.Chain,
		Valid: slot.valid, Reset: slot.reset, Overflow: slot.ovf,
		Negate: slot.neg, Clear: slot.clear,
	})
	dOut := u.imLate.Advance(run, cell.In{
		XA: slot.xim, Y: slot.yre, Chain: cOut.Chain,
		Valid: slot.valid, Reset: slot.reset, Overflow: slot.ovf,
		Negate: slot.neg, Clear: slot.clear,
	})

	out := cplx.Complex{
		Re:       bOut.P,
		Im:       dOut.P,
		Valid:    bOut.Valid && dOut.Valid,
		Reset:    bOut.Reset || dOut.Reset,
		Overflow: bOut.Overflow || dOut.Overflow,
	}
	return out, chainPair{re: bOut.Chain, im: dOut.Chain}
}

// unit3 is the shared-term decomposition: one cell forms the cross term
// t = (yre - yim)*xim, and both component cells fold it in over their z
// port while its ALU result is still in flight.
//
//	re = (xre - xim)*yre + t
//	im = (xre + xim)*yim + t
type unit3 struct {
	shared *cell.Cell
	re, im *cell.Cell

	late      *delay.Line[u3Slot]
	propagate bool
	w, n      int
}

type u3Slot struct {
	xre, xim, yre, yim fixed.Value
	valid, reset, ovf  bool
	neg, negB, clear   bool
}

func newUnit3(s shape, link int, final bool) (*unit3, error) {
	reCfg := s.threeConsumer(link, final, false)

	u := &unit3{
		late:      delay.NewLine[u3Slot](aluDepth(s.cfg.InputRegs) + 1),
		propagate: !s.cfg.IgnoreInputOverflow,
		w:         reCfg.OutWidth,
		n:         s.unitStages(final),
	}
	u.late.Fill(u3Slot{
		xre: fixed.New(s.cfg.XWidth),
		xim: fixed.New(s.cfg.XWidth),
		yre: fixed.New(s.cfg.YWidth),
		yim: fixed.New(s.cfg.YWidth),
	})

	var err error
	if u.shared, err = cell.New(s.threeShared()); err != nil {
		return nil, err
	}
	if u.re, err = cell.New(reCfg); err != nil {
		return nil, err
	}
	if u.im, err = cell.New(s.threeConsumer(link, final, true)); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *unit3) stages() int { return u.n }
func (u *unit3) width() int  { return u.w }

func (u *unit3) advance(term Term, carry chainPair, clear, reset bool) (cplx.Complex, chainPair) {
	valid, rst, ovf := termControls(term, reset, u.propagate)

	// Conjugation negates xim: the shared term flips sign, and the
	// component preadders flip their xim contribution.
	slot := u.late.Shift(u3Slot{
		xre:   term.X.Re,
		xim:   term.X.Im,
		yre:   term.Y.Re,
		yim:   term.Y.Im,
		valid: valid,
		reset: rst,
		ovf:   ovf,
		neg:   term.Negate,
		negB:  term.Conjugate,
		clear: clear,
	})

	tOut := u.shared.Advance(run, cell.In{
		XA: term.Y.Re, XB: term.Y.Im, Y: term.X.Im,
		Valid: valid, Reset: rst, Overflow: ovf,
		Negate: term.Negate != term.Conjugate,
	})

	reOut := u.re.Advance(run, cell.In{
		XA: slot.xre, XB: slot.xim, Y: slot.yre,
		Z: tOut.Chain.Sum, ZValid: tOut.Chain.Valid,
		Chain: carry.re,
		Valid: slot.valid, Reset: slot.reset, Overflow: slot.ovf,
		Negate: slot.neg, NegateB: slot.negB, Clear: slot.clear,
	})
	imOut := u.im.Advance(run, cell.In{
		XA: slot.xre, XB: slot.xim, Y: slot.yim,
		Z: tOut.Chain.Sum, ZValid: tOut.Chain.Valid,
		Chain: carry.im,
		Valid: slot.valid, Reset: slot.reset, Overflow: slot.ovf,
		Negate: slot.neg, NegateB: slot.negB, Clear: slot.clear,
	})

	out := cplx.Complex{
		Re:       reOut.P,
		Im:       imOut.P,
		Valid:    reOut.Valid && imOut.Valid,
		Reset:    reOut.Reset || imOut.Reset,
		Overflow: reOut.Overflow || imOut.Overflow,
	}
	return out, chainPair{re: reOut.Chain, im: imOut.Chain}
}
