package cell

import (
	"github.com/cwbudde/algo-macc/internal/delay"
	"github.com/cwbudde/algo-macc/internal/fixed"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// ChainLink is the point-to-point partial-sum handoff between two cells.
// The producer presents its registered partial one cycle ahead of the data
// path, giving the consumer's control logic a cycle of headroom. Overflow
// carries the producer's pending flag so it stays aligned with the partial
// it belongs to.
type ChainLink struct {
	Sum      fixed.Value
	Valid    bool
	Overflow bool
}

// In carries one cycle's worth of cell inputs.
type In struct {
	XA, XB fixed.Value // preadder operands; XB ignored without the secondary addend
	Y      fixed.Value
	Z      fixed.Value
	ZValid bool
	Chain  ChainLink

	Valid bool
	Reset bool

	// Overflow marks the sample as already tainted upstream; it rides the
	// pipeline and surfaces with the matching output.
	Overflow bool

	// Dynamic controls, honored only when the matching Use* enable is set.
	Negate           bool // negate the product at the ALU
	NegateA, NegateB bool // flip the preadder operand signs
	Clear            bool // restart the accumulator with this cycle's sum
}

// Out is one cycle's worth of cell outputs. P is the formatted result at
// the configured output width; Chain is the raw registered partial at
// accumulator width for the next cell in a cascade.
type Out struct {
	P        fixed.Value
	Chain    ChainLink
	Valid    bool
	Reset    bool
	Overflow bool
}

// Internal pipeline payloads.
type xStage struct {
	xa, xb     fixed.Value
	negA, negB bool
}

type zStage struct {
	z     fixed.Value
	valid bool
	reset bool
}

type vStage struct {
	valid bool
	reset bool
	ovf   bool
}

type aluStage struct {
	prod     fixed.Value
	valid    bool
	reset    bool
	overflow bool
}

type pStage struct {
	p        fixed.Value
	valid    bool
	reset    bool
	overflow bool
}

// Cell is one multiply-accumulate slice with live register state. It is
// exclusively owned by the structure that instantiated it; no mid-life
// reconfiguration exists.
type Cell struct {
	cfg Config
	geo geometry

	xline     *delay.Line[xStage]
	yline     *delay.Line[fixed.Value]
	zline     *delay.Line[zStage]
	vline     *delay.Line[vStage]
	mline     *delay.Line[aluStage]
	chainLine *delay.Line[ChainLink]
	clearLine *delay.Line[bool]
	negLine   *delay.Line[bool]

	// acc is the first output register (the accumulator); pline models the
	// remaining output registers.
	acc   pStage
	pline *delay.Line[pStage]

	held Out
}

// New validates the configuration and builds a cell with cleared registers.
func New(cfg Config) (*Cell, error) {
	g, err := derive(cfg)
	if err != nil {
		return nil, err
	}

	c := &Cell{
		cfg:       cfg,
		geo:       g,
		xline:     delay.NewLine[xStage](cfg.InputRegsX),
		yline:     delay.NewLine[fixed.Value](cfg.InputRegsY),
		zline:     delay.NewLine[zStage](cfg.InputRegsZ),
		vline:     delay.NewLine[vStage](g.maxIn),
		mline:     delay.NewLine[aluStage](g.mulStage),
		chainLine: delay.NewLine[ChainLink](1),
		clearLine: delay.NewLine[bool](relationDepth(cfg, g, cfg.ClearRelation)),
		negLine:   delay.NewLine[bool](relationDepth(cfg, g, cfg.NegateRelation)),
		acc:       pStage{p: fixed.New(g.accWidth)},
	}

	extra := cfg.OutputRegs - 1
	if extra < 0 {
		extra = 0
	}
	c.pline = delay.NewLine[pStage](extra)

	c.xline.Fill(xStage{xa: fixed.New(cfg.XWidth), xb: fixed.New(cfg.XWidth)})
	c.yline.Fill(fixed.New(cfg.YWidth))
	zw := cfg.ZWidth
	if zw < 2 {
		zw = 2
	}
	c.zline.Fill(zStage{z: fixed.New(zw)})
	c.chainLine.Fill(ChainLink{Sum: fixed.New(g.accWidth)})
	c.pline.Fill(pStage{p: fixed.New(g.accWidth)})
	c.held = Out{P: fixed.New(cfg.OutWidth), Chain: ChainLink{Sum: fixed.New(g.accWidth)}}

	return c, nil
}

// Stages returns the cell's input-to-output latency in clock cycles.
func (c *Cell) Stages() int {
	return c.geo.maxIn + c.geo.mulStage + c.cfg.OutputRegs
}

// AccWidth returns the accumulator width (the chain output width).
func (c *Cell) AccWidth() int { return c.geo.accWidth }

// Advance clocks the cell once. A deasserted clock enable freezes every
// register and re-presents the held output; a reset enters the first stage
// and rides to the output at the data rate.
func (c *Cell) Advance(ctrl macctypes.Control, in In) Out {
	if !ctrl.Enable {
		return c.held
	}

	reset := in.Reset || ctrl.Reset

	// Input registration.
	xt := c.xline.Shift(xStage{xa: in.XA, xb: in.XB, negA: in.NegateA, negB: in.NegateB})
	yt := c.yline.Shift(in.Y)
	zt := c.zline.Shift(zStage{z: in.Z, valid: in.ZValid, reset: reset})
	vt := c.vline.Shift(vStage{valid: in.Valid, reset: reset, ovf: in.Overflow})
	clear := c.clearLine.Shift(in.Clear)
	negate := c.negLine.Shift(in.Negate)
	chain := c.chainLine.Shift(in.Chain)

	// Preadder and multiply.
	prod, preOvf := c.multiply(xt, yt)
	f := c.mline.Shift(aluStage{prod: prod, valid: vt.valid, reset: vt.reset, overflow: preOvf || vt.ovf})

	// ALU and accumulator.
	accOld := c.acc
	next := c.alu(f, zt, chain, clear, negate, accOld)

	// Output register chain: the accumulator is the first register, the
	// remaining OutputRegs-1 stages delay its previous content.
	var tail pStage
	if c.cfg.OutputRegs == 0 {
		tail = next
	} else {
		tail = c.pline.Shift(accOld)
	}
	c.acc = next

	out := c.format(tail)
	out.Chain = ChainLink{Sum: accOld.p, Valid: accOld.valid && !accOld.reset, Overflow: accOld.overflow}
	if c.cfg.OutputRegs == 0 {
		out.Chain = ChainLink{Sum: next.p, Valid: next.valid && !next.reset, Overflow: next.overflow}
	}
	c.held = out
	return out
}

// multiply evaluates the preadder and the exact product for the tapped
// input-register values. The reported overflow covers the single corner
// the width+1 preadder cannot absorb: dynamically negating both most
// negative operands at once.
func (c *Cell) multiply(xt xStage, y fixed.Value) (fixed.Value, bool) {
	if !c.geo.preaddActive {
		return fixed.Mul(xt.xa, y), false
	}

	a := fixed.Extend(xt.xa, c.geo.preaddWidth)
	var ovf bool
	if c.cfg.UseANegation && xt.negA {
		a, _ = fixed.Neg(a) // -min fits after the extend
	}
	pa := a
	if c.cfg.UseSecondaryAddend {
		b := fixed.Extend(xt.xb, c.geo.preaddWidth)
		sub := c.cfg.SubtractB
		if c.cfg.UseBNegation && xt.negB {
			sub = !sub
		}
		if sub {
			pa, ovf = fixed.Sub(a, b)
		} else {
			pa, ovf = fixed.Add(a, b)
		}
	}
	return fixed.Mul(pa, y), ovf
}

// alu sums the live sources at accumulator width and applies the
// accumulate/clear transition rule.
func (c *Cell) alu(f aluStage, zt zStage, chain ChainLink, clear, negate bool, accOld pStage) pStage {
	w := c.geo.accWidth
	sum := fixed.New(w)
	anyValid := false
	overflow := f.valid && f.overflow
	// The z line only matches the product depth when the port is active;
	// disabled it is a zero-depth wire and must not short-cut a reset.
	reset := f.reset
	if c.cfg.NumZSummands > 0 {
		reset = reset || zt.reset
	}

	if f.valid {
		p := fixed.Extend(f.prod, w)
		sub := c.cfg.SubtractProduct
		if c.cfg.UseNegation && negate {
			sub = !sub
		}
		var ovf bool
		if sub {
			sum, ovf = fixed.Sub(sum, p)
		} else {
			sum, ovf = fixed.Add(sum, p)
		}
		overflow = overflow || ovf
		anyValid = true
	}
	if c.cfg.NumZSummands > 0 && zt.valid {
		var ovf bool
		sum, ovf = fixed.Add(sum, fixed.Extend(zt.z, w))
		overflow = overflow || ovf
		anyValid = true
	}
	if c.cfg.NumChainSummands > 0 && chain.Valid {
		var ovf bool
		sum, ovf = fixed.Add(sum, fixed.Extend(chain.Sum, w))
		overflow = overflow || ovf || chain.Overflow
		anyValid = true
	}

	if reset {
		next := pStage{p: accOld.p, reset: true}
		if c.cfg.ResetPolicy == macctypes.ResetDataAndFlags {
			next.p = fixed.New(w)
		}
		return next
	}
	if !anyValid {
		// Idle: the accumulator holds its value (and any pending overflow
		// flag), the output slot is invalid.
		return pStage{p: accOld.p, overflow: accOld.overflow}
	}

	effClear := clear || !c.cfg.accumulating()
	if effClear {
		if c.geo.injectRound {
			var ovf bool
			sum, ovf = fixed.Add(sum, fixed.RoundBias(w, c.cfg.ShiftRight))
			overflow = overflow || ovf
		}
		return pStage{p: sum, valid: true, overflow: overflow}
	}
	acc, ovf := fixed.Add(accOld.p, sum)
	return pStage{p: acc, valid: true, overflow: overflow || ovf || accOld.overflow}
}

// format applies the shift/round/clip/overflow output stage to the value
// leaving the last output register.
func (c *Cell) format(tail pStage) Out {
	round := c.cfg.Round
	if c.geo.injectRound {
		// The bias already sits in the accumulator; plain truncation
		// completes round-to-nearest.
		round = macctypes.RoundTruncate
	}
	val, fovf := fixed.Resize(tail.p, c.cfg.OutWidth, c.cfg.ShiftRight, round, c.cfg.Clip)

	out := Out{
		P:     val,
		Valid: tail.valid && !tail.reset,
		Reset: tail.reset,
	}
	// Pending flags always ride through; fresh format-stage detection is
	// only armed when overflow reporting is configured.
	if out.Valid && (tail.overflow || (c.cfg.ReportOverflow && fovf)) {
		out.Overflow = true
	}
	return out
}
