package cell

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-macc/internal/fixed"
	"github.com/cwbudde/algo-macc/internal/macctypes"
)

func baseConfig() Config {
	return Config{
		XWidth:           16,
		YWidth:           16,
		OutWidth:         32,
		AccumulateCycles: 1,
		InputRegsX:       2,
		InputRegsY:       2,
		OutputRegs:       2,
		ReportOverflow:   true,
	}
}

var run = macctypes.Run

// drive clocks the cell with a valid x*y input and returns the output.
func drive(c *Cell, x, y int64, in In) Out {
	in.XA = fixed.FromInt64(c.cfg.XWidth, x)
	if in.XB.Width() == 0 {
		in.XB = fixed.New(c.cfg.XWidth)
	}
	in.Y = fixed.FromInt64(c.cfg.YWidth, y)
	in.Valid = true
	return c.Advance(run, in)
}

// idle clocks the cell with no valid input.
func idle(c *Cell) Out {
	cfg := c.cfg
	return c.Advance(run, In{
		XA: fixed.New(cfg.XWidth), XB: fixed.New(cfg.XWidth),
		Y: fixed.New(cfg.YWidth), Z: fixed.New(max(cfg.ZWidth, 2)),
	})
}

func TestStageCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		inX, inY, out int
		want          int
	}{
		{0, 0, 0, 0},
		{1, 1, 1, 2}, // no multiply stage below two input registers
		{2, 2, 2, 5}, // multiply stage appears
		{2, 1, 2, 5}, // deeper input path dominates
		{3, 2, 1, 5},
		{1, 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("x%d_y%d_o%d", tt.inX, tt.inY, tt.out), func(t *testing.T) {
			t.Parallel()

			cfg := baseConfig()
			cfg.InputRegsX = tt.inX
			cfg.InputRegsY = tt.inY
			cfg.OutputRegs = tt.out

			got, err := cfg.Stages()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			c, err := New(cfg)
			require.NoError(t, err)
			require.Equal(t, tt.want, c.Stages())
		})
	}
}

func TestProductLatencyAndValue(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	c, err := New(cfg)
	require.NoError(t, err)

	out := drive(c, 100, -50, In{})
	require.False(t, out.Valid)

	for i := 0; i < c.Stages()-1; i++ {
		out = idle(c)
		require.False(t, out.Valid, "cycle %d", i)
	}
	out = idle(c)
	require.True(t, out.Valid, "product appears after exactly Stages cycles")
	require.Equal(t, int64(-5000), out.P.Int64())
	require.False(t, out.Overflow)
}

func TestAccumulationIdentity(t *testing.T) {
	t.Parallel()

	// Three products 100, -50, 25 (each x*1) accumulated at width 16 with
	// no shift must produce exactly 75.
	cfg := baseConfig()
	cfg.XWidth = 16
	cfg.YWidth = 2
	cfg.OutWidth = 16
	cfg.AccumulateCycles = 3

	c, err := New(cfg)
	require.NoError(t, err)

	inputs := []int64{100, -50, 25}
	var outs []Out
	for i, v := range inputs {
		outs = append(outs, drive(c, v, 1, In{Clear: i == 0}))
	}
	for range c.Stages() {
		outs = append(outs, idle(c))
	}

	final := outs[2+c.Stages()]
	require.True(t, final.Valid)
	require.Equal(t, int64(75), final.P.Int64())
	require.False(t, final.Overflow)

	// The partials before it are 100 and 50.
	require.Equal(t, int64(100), outs[0+c.Stages()].P.Int64())
	require.Equal(t, int64(50), outs[1+c.Stages()].P.Int64())
}

func TestAccumulateClearStartsNewFrame(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.YWidth = 2
	cfg.OutWidth = 20
	cfg.AccumulateCycles = 2

	c, err := New(cfg)
	require.NoError(t, err)

	var outs []Out
	outs = append(outs, drive(c, 10, 1, In{Clear: true}))
	outs = append(outs, drive(c, 5, 1, In{}))
	outs = append(outs, drive(c, 1000, 1, In{Clear: true}))
	outs = append(outs, drive(c, 7, 1, In{}))
	for range c.Stages() {
		outs = append(outs, idle(c))
	}

	s := c.Stages()
	require.Equal(t, int64(10), outs[0+s].P.Int64())
	require.Equal(t, int64(15), outs[1+s].P.Int64())
	require.Equal(t, int64(1000), outs[2+s].P.Int64(), "clear reloads, discarding the old frame")
	require.Equal(t, int64(1007), outs[3+s].P.Int64())
}

func TestOverflowClipBoundary(t *testing.T) {
	t.Parallel()

	// (-2^15) * (-2^15) = 2^30 does not fit a 16-bit output shifted by 8.
	mk := func(clip, report bool) *Cell {
		cfg := baseConfig()
		cfg.OutWidth = 16
		cfg.ShiftRight = 8
		cfg.Clip = clip
		cfg.ReportOverflow = report
		c, err := New(cfg)
		require.NoError(t, err)
		return c
	}

	runCell := func(c *Cell) Out {
		out := drive(c, -32768, -32768, In{})
		for range c.Stages() {
			out = idle(c)
		}
		return out
	}

	clipped := runCell(mk(true, true))
	require.True(t, clipped.Valid)
	require.True(t, clipped.Overflow)
	require.Equal(t, int64(32767), clipped.P.Int64(), "saturates to most positive")

	wrapped := runCell(mk(false, true))
	require.True(t, wrapped.Overflow)
	require.Equal(t, int64(0), wrapped.P.Int64(), "2^22 wraps to zero at 16 bits")

	silent := runCell(mk(false, false))
	require.False(t, silent.Overflow, "suppressed reporting stays silent")
}

func TestDynamicNegation(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.UseNegation = true
	c, err := New(cfg)
	require.NoError(t, err)

	var outs []Out
	outs = append(outs, drive(c, 20, 3, In{}))
	outs = append(outs, drive(c, 20, 3, In{Negate: true}))
	for range c.Stages() {
		outs = append(outs, idle(c))
	}

	s := c.Stages()
	require.Equal(t, int64(60), outs[0+s].P.Int64())
	require.Equal(t, int64(-60), outs[1+s].P.Int64())
}

func TestPreadder(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.UseSecondaryAddend = true
	cfg.SubtractB = true
	c, err := New(cfg)
	require.NoError(t, err)

	in := In{XB: fixed.FromInt64(16, 30)}
	out := drive(c, 100, 2, in) // (100 - 30) * 2
	for range c.Stages() {
		out = idle(c)
	}
	require.True(t, out.Valid)
	require.Equal(t, int64(140), out.P.Int64())
}

func TestRoundBiasInjection(t *testing.T) {
	t.Parallel()

	// Nearest rounding with a free ALU slot is injected at the
	// accumulator; the result must equal arithmetic rounding.
	cfg := baseConfig()
	cfg.YWidth = 2
	cfg.OutWidth = 16
	cfg.ShiftRight = 2
	cfg.Round = macctypes.RoundNearest

	c, err := New(cfg)
	require.NoError(t, err)
	g, err := derive(cfg)
	require.NoError(t, err)
	require.True(t, g.injectRound)

	out := drive(c, 14, 1, In{}) // 14/4 = 3.5 -> 4
	for range c.Stages() {
		out = idle(c)
	}
	require.Equal(t, int64(4), out.P.Int64())
}

func TestClockEnableFreezes(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	c, err := New(cfg)
	require.NoError(t, err)

	drive(c, 11, 11, In{})
	frozen := c.Advance(macctypes.Control{Enable: false}, In{})
	for range 10 {
		require.Equal(t, frozen, c.Advance(macctypes.Control{Enable: false}, In{}))
	}

	// After re-enabling, the product still arrives the usual number of
	// cycles after its input.
	out := frozen
	for range c.Stages() {
		out = idle(c)
	}
	require.True(t, out.Valid)
	require.Equal(t, int64(121), out.P.Int64())
}

func TestResetRidesThePipeline(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.ResetPolicy = macctypes.ResetDataAndFlags
	c, err := New(cfg)
	require.NoError(t, err)

	// One reset cycle, then idles: the reset must surface exactly
	// Stages cycles later and nowhere else.
	out := c.Advance(macctypes.Control{Enable: true, Reset: true}, In{
		XA: fixed.New(16), XB: fixed.New(16), Y: fixed.New(16), Z: fixed.New(2),
	})
	hits := 0
	for cyclesLater := 0; cyclesLater <= c.Stages()+4; cyclesLater++ {
		if cyclesLater > 0 {
			out = idle(c)
		}
		if out.Reset {
			hits++
			require.Equal(t, c.Stages(), cyclesLater, "reset surfaces after exactly Stages cycles")
			require.False(t, out.Valid)
			require.False(t, out.Overflow)
		}
	}
	require.Equal(t, 1, hits)
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"narrow_out", func(c *Config) { c.OutWidth = 1 }, ErrInvalidWidth},
		{"wide_y", func(c *Config) { c.YWidth = MaxYWidth + 1 }, ErrInvalidWidth},
		{"wide_x_preadd", func(c *Config) {
			c.UseSecondaryAddend = true
			c.XWidth = MaxPreaddWidth + 1
		}, ErrInvalidWidth},
		{"oversubscribed", func(c *Config) {
			c.AccumulateCycles = 4
			c.NumZSummands = 1
			c.ZWidth = 16
			c.NumChainSummands = 1
		}, ErrOversubscribedALU},
		{"accumulate_without_preg", func(c *Config) {
			c.AccumulateCycles = 2
			c.OutputRegs = 0
		}, ErrInvalidConfig},
		{"z_relation_without_z", func(c *Config) {
			c.ClearRelation = macctypes.RelationZ
		}, ErrInvalidRelation},
		{"misaligned_z", func(c *Config) {
			// Two input registers and the multiply stage put the ALU three
			// cycles in; an unregistered z port cannot meet it.
			c.NumZSummands = 1
			c.ZWidth = 16
		}, ErrInvalidConfig},
		{"guard_bits", func(c *Config) {
			// 32 summands need 5 guard bits, one over the cap, and the
			// output is wide enough to expose the shortfall.
			c.AccumulateCycles = 32
			c.OutWidth = 34
			c.Clip = true
		}, ErrGuardBits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := baseConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// The base configuration itself is valid.
	_, err := New(baseConfig())
	require.NoError(t, err)
}

func TestGuardBitsDerivation(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.AccumulateCycles = 3 // 3 summands -> 2 guard bits

	g, err := derive(cfg)
	require.NoError(t, err)
	require.Equal(t, 2, g.guardBits)
	require.False(t, g.guardCapped)
	require.Equal(t, 32+2, g.accWidth)

	cfg.AccumulateCycles = 100 // needs 7, capped at 4
	cfg.ReportOverflow = false
	g, err = derive(cfg)
	require.NoError(t, err)
	require.Equal(t, MaxGuardBits, g.guardBits)
	require.True(t, g.guardCapped)

	// Overflow detection over a capped accumulator cannot be honest at
	// this output width.
	cfg.ReportOverflow = true
	_, err = derive(cfg)
	require.ErrorIs(t, err, ErrGuardBits)
}

func TestErrorsAreSentinels(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.YWidth = 40
	_, err := New(cfg)
	require.True(t, errors.Is(err, ErrInvalidWidth))
	require.ErrorContains(t, err, "algomacc:")
}
