package assemble

import (
	"fmt"

	"github.com/cwbudde/algo-macc/internal/cell"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

// Report is the static accounting of a planned structure.
type Report struct {
	// Stages is the input-to-output latency in clock cycles.
	Stages int

	// Cells is the number of arithmetic slices the structure consumes.
	Cells int

	// SkewRegisters counts the delay registers inserted to align tree
	// branches of unequal depth.
	SkewRegisters int

	// Decomposition and Topology are the resolved choices, with the Auto
	// values replaced by what planning picked.
	Decomposition macctypes.Decomposition
	Topology      macctypes.Topology
}

// shape is the planning result: the configuration plus the resolved
// structural choices. Every stage formula lives on shape so the builder
// and the accountant cannot drift apart.
type shape struct {
	cfg  Config
	dec  macctypes.Decomposition
	top  macctypes.Topology
	auto bool
}

func (s shape) accumulating() bool { return s.cfg.AccumulateCycles > 1 }

// plan validates the structural parameters and resolves the Auto choices.
func plan(cfg Config) (shape, error) {
	s := shape{cfg: cfg}

	if cfg.Count < 1 {
		return s, fmt.Errorf("%d terms: %w", cfg.Count, ErrInvalidCount)
	}
	// An unset accumulation run means a single cycle, matching the cell
	// convention that 1 disables accumulation.
	if s.cfg.AccumulateCycles < 1 {
		s.cfg.AccumulateCycles = 1
	}
	if cfg.OutputRegs < 1 {
		return s, fmt.Errorf("cascaded structure without a registered output: %w", cell.ErrInvalidConfig)
	}
	if cfg.ClearRelation == macctypes.RelationZ || cfg.NegateRelation == macctypes.RelationZ {
		return s, fmt.Errorf("z port is internal to the decomposition: %w", cell.ErrInvalidRelation)
	}

	switch cfg.Decomposition {
	case macctypes.DecompositionAuto:
		s.dec = macctypes.DecompositionFourCell
		if threeCellFits(cfg) {
			s.dec = macctypes.DecompositionThreeCell
		}
	case macctypes.DecompositionThreeCell:
		if !threeCellFits(cfg) {
			return s, fmt.Errorf("x=%d y=%d on a %d-bit shared port: %w",
				cfg.XWidth, cfg.YWidth, cell.MaxYWidth, ErrDecompositionWidth)
		}
		s.dec = cfg.Decomposition
	case macctypes.DecompositionFourCell:
		s.dec = cfg.Decomposition
	default:
		return s, fmt.Errorf("decomposition %d: %w", cfg.Decomposition, cell.ErrInvalidConfig)
	}

	switch cfg.Topology {
	case macctypes.TopologyAuto:
		s.auto = true
		s.top = macctypes.TopologyTree
		if cfg.Count <= MaxChainLinks && !s.chainAccumulateClash() {
			s.top = macctypes.TopologyChain
		}
	case macctypes.TopologyChain:
		if cfg.Count > MaxChainLinks {
			return s, fmt.Errorf("%d links on a %d-link cascade: %w", cfg.Count, MaxChainLinks, ErrChainTooLong)
		}
		s.top = cfg.Topology
	case macctypes.TopologyTree:
		s.top = cfg.Topology
	default:
		return s, fmt.Errorf("topology %d: %w", cfg.Topology, cell.ErrInvalidConfig)
	}

	return s, nil
}

// threeCellFits reports whether the shared-term decomposition can route
// the operands: the consumer cells preadd x and multiply by y over the
// narrow port, the shared-term cell preadds y and multiplies by x.
func threeCellFits(cfg Config) bool {
	return cfg.XWidth <= cell.MaxPreaddWidth && cfg.YWidth <= cell.MaxYWidth &&
		cfg.YWidth <= cell.MaxPreaddWidth && cfg.XWidth <= cell.MaxYWidth
}

// chainAccumulateClash reports whether accumulating over a multi-link
// three-cell chain would need four live ALU summands in the final cells.
func (s shape) chainAccumulateClash() bool {
	return s.accumulating() && s.dec == macctypes.DecompositionThreeCell && s.cfg.Count > 1
}

// aluDepth is the register distance from a cell input to its ALU for
// equal x/y input registration: the input stages plus the multiply stage.
func aluDepth(regs int) int {
	d := regs
	if regs >= 2 {
		d++
	}
	return d
}

// unitStages is the input-to-output latency of one decomposition unit:
// the internal delay of its last cells plus that cell's own depth. Only
// a final unit carries the configured output registration; raw tree
// leaves keep the single chain register.
func (s shape) unitStages(final bool) int {
	out := 1
	if final {
		out = s.cfg.OutputRegs
	}
	cellStages := aluDepth(s.cfg.InputRegs) + out
	if s.dec == macctypes.DecompositionThreeCell {
		// Consumer cells wait for the shared term to clear its ALU.
		return aluDepth(s.cfg.InputRegs) + 1 + cellStages
	}
	// Schoolbook: the second cell of each component pair sits one chain
	// hop behind the first.
	return 2 + cellStages
}

// hop is the input-delay pitch between consecutive chain links.
func (s shape) hop() int {
	if s.dec == macctypes.DecompositionThreeCell {
		return 2
	}
	return 4
}

func (s shape) unitCells() int {
	if s.dec == macctypes.DecompositionThreeCell {
		return 3
	}
	return 4
}

func (s shape) chainStages(n int, final bool) int {
	return (n-1)*s.hop() + s.unitStages(final)
}

// leafMax is the largest term count handled by one cascade leaf under a
// tree. An explicitly requested tree splits all the way down to single
// units; the automatic topology packs leaves up to the cascade bound.
func (s shape) leafMax() int {
	if s.top == macctypes.TopologyTree && !s.auto {
		return 1
	}
	return MaxChainLinks
}

func splitCount(n int) int { return (n + 1) / 2 }

// describe is the pure accounting mirror of build: same splits, same
// formulas, no runtime state.
func (s shape) describe(n int, root bool) (stages, cells, skew int) {
	if (root && s.top == macctypes.TopologyChain) || n <= s.leafMax() {
		final := root && s.top == macctypes.TopologyChain
		return s.chainStages(n, final), n * s.unitCells(), 0
	}
	n0 := splitCount(n)
	s0, c0, k0 := s.describe(n0, false)
	s1, c1, k1 := s.describe(n-n0, false)
	stages = max(s0, s1) + 1
	cells = c0 + c1
	skew = k0 + k1 + abs(s0-s1)
	return stages, cells, skew
}

func (s shape) report() Report {
	stages, cells, skew := s.describe(s.cfg.Count, true)
	if s.top == macctypes.TopologyTree && s.accumulating() {
		stages++
	}
	return Report{
		Stages:        stages,
		Cells:         cells,
		SkewRegisters: skew,
		Decomposition: s.dec,
		Topology:      s.top,
	}
}

// checkCells validates every cell configuration the build would create,
// without allocating any of them.
func (s shape) checkCells() error {
	return s.checkNode(s.cfg.Count, true)
}

func (s shape) checkNode(n int, root bool) error {
	if (root && s.top == macctypes.TopologyChain) || n <= s.leafMax() {
		final := root && s.top == macctypes.TopologyChain
		for k := 0; k < n; k++ {
			last := k == n-1
			for _, cc := range s.unitCellConfigs(k, final && last) {
				if _, err := cc.Stages(); err != nil {
					return err
				}
			}
		}
		return nil
	}
	n0 := splitCount(n)
	if err := s.checkNode(n0, false); err != nil {
		return err
	}
	return s.checkNode(n-n0, false)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
