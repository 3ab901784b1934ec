// Command stagereport prints the stage and cell accounting of candidate
// multiply-accumulate structures, so latency and resource trade-offs can
// be compared without building any of them.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-macc"
)

func main() {
	var (
		countList  = flag.String("counts", "1,2,4,8", "comma-separated term counts")
		xWidth     = flag.Int("xwidth", 16, "x operand width in bits")
		yWidth     = flag.Int("ywidth", 16, "y operand width in bits")
		outWidth   = flag.Int("outwidth", 0, "output width in bits (0 = full product width)")
		accumulate = flag.Int("accumulate", 1, "accumulation run length in cycles")
		inputRegs  = flag.Int("inregs", 2, "input register stages per cell")
		outputRegs = flag.Int("outregs", 2, "output register stages")
		shift      = flag.Int("shift", 0, "arithmetic right shift before the output")
		dec        = flag.String("decomposition", "auto", "decomposition: auto, four, three")
		top        = flag.String("topology", "auto", "topology: auto, chain, tree")
	)
	flag.Parse()

	counts := parseCounts(*countList)
	if len(counts) == 0 {
		fmt.Fprintln(os.Stderr, "no term counts specified")
		os.Exit(1)
	}

	decomposition, err := parseDecomposition(*dec)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	topology, err := parseTopology(*top)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("x=%d y=%d accumulate=%d regs=%d/%d\n",
		*xWidth, *yWidth, *accumulate, *inputRegs, *outputRegs)
	fmt.Printf("%6s  %13s  %8s  %7s  %6s  %5s\n",
		"terms", "decomposition", "topology", "stages", "cells", "skew")

	for _, n := range counts {
		rep, err := algomacc.Estimate(algomacc.Config{
			Count:            n,
			XWidth:           *xWidth,
			YWidth:           *yWidth,
			OutWidth:         *outWidth,
			Decomposition:    decomposition,
			Topology:         topology,
			AccumulateCycles: *accumulate,
			InputRegs:        *inputRegs,
			OutputRegs:       *outputRegs,
			ShiftRight:       *shift,
		})
		if err != nil {
			fmt.Printf("%6d  %s\n", n, err)
			continue
		}
		fmt.Printf("%6d  %13s  %8s  %7d  %6d  %5d\n",
			n, rep.Decomposition, rep.Topology, rep.Stages, rep.Cells, rep.SkewRegisters)
	}
}

func parseCounts(list string) []int {
	var counts []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %q: %v\n", part, err)
			continue
		}
		counts = append(counts, n)
	}
	return counts
}

func parseDecomposition(s string) (algomacc.Decomposition, error) {
	switch s {
	case "auto":
		return algomacc.DecompositionAuto, nil
	case "four":
		return algomacc.DecompositionFourCell, nil
	case "three":
		return algomacc.DecompositionThreeCell, nil
	default:
		return 0, fmt.Errorf("unknown decomposition %q", s)
	}
}

func parseTopology(s string) (algomacc.Topology, error) {
	switch s {
	case "auto":
		return algomacc.TopologyAuto, nil
	case "chain":
		return algomacc.TopologyChain, nil
	case "tree":
		return algomacc.TopologyTree, nil
	default:
		return 0, fmt.Errorf("unknown topology %q", s)
	}
}
