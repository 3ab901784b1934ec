package assemble

import (
	"github.com/cwbudde/algo-macc/internal/cplx"
	"github.com/cwbudde/algo-macc/internal/delay"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// chainNode sums its terms over the dedicated cascade wiring: link k+1
// consumes the registered partial of link k, so each link's inputs are
// delayed by one hop more than its predecessor's. Only a final chain
// formats its output; as a tree leaf it stays at accumulator width.
type chainNode struct {
	units []unit
	lines []*delay.Line[chainSlot]
	held  cplx.Complex

	nstages, ncells int
}

type chainSlot struct {
	term         Term
	clear, reset bool
}

func newChain(s shape, n int, final bool) (*chainNode, error) {
	c := &chainNode{
		units:   make([]unit, n),
		lines:   make([]*delay.Line[chainSlot], n),
		nstages: s.chainStages(n, final),
		ncells:  n * s.unitCells(),
	}

	zero := chainSlot{term: Term{
		X: cplx.New(s.cfg.XWidth),
		Y: cplx.New(s.cfg.YWidth),
	}}
	for k := 0; k < n; k++ {
		var err error
		last := k == n-1
		if s.dec == macctypes.DecompositionThreeCell {
			c.units[k], err = newUnit3(s, k, final && last)
		} else {
			c.units[k], err = newUnit4(s, k, final && last)
		}
		if err != nil {
			return nil, err
		}
		c.lines[k] = delay.NewLine[chainSlot](k * s.hop())
		c.lines[k].Fill(zero)
	}
	c.held = cplx.New(c.units[n-1].width())
	return c, nil
}

func (c *chainNode) Stages() int { return c.nstages }
func (c *chainNode) Cells() int  { return c.ncells }
func (c *chainNode) Width() int  { return c.units[len(c.units)-1].width() }

func (c *chainNode) Advance(ctrl macctypes.Control, in Input) cplx.Complex {
	if !ctrl.Enable {
		return c.held
	}

	var out cplx.Complex
	var carry chainPair
	for k, u := range c.units {
		slot := c.lines[k].Shift(chainSlot{
			term:  in.Terms[k],
			clear: in.Clear,
			reset: ctrl.Reset,
		})
		out, carry = u.advance(slot.term, carry, slot.clear, slot.reset)
	}
	c.held = out
	return out
}
