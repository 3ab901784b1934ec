package fixed

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-macc/internal/macctypes"
)

func TestFromInt64Wrap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		width int
		in    int64
		want  int64
	}{
		{8, 0, 0},
		{8, 127, 127},
		{8, -128, -128},
		{8, 128, -128},
		{8, -129, 127},
		{4, 7, 7},
		{4, 8, -8},
		{4, 100, 4},
		{16, 30000, 30000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("w%d_%d", tt.width, tt.in), func(t *testing.T) {
			t.Parallel()

			v := FromInt64(tt.width, tt.in)
			require.Equal(t, tt.want, v.Int64())
			require.Equal(t, tt.width, v.Width())
		})
	}
}

func TestNegMostNegativeOverflows(t *testing.T) {
	t.Parallel()

	v := FromInt64(8, -128)
	n, ovf := Neg(v)
	require.True(t, ovf, "negating the most negative value must overflow")
	require.Equal(t, int64(-128), n.Int64(), "wrap lands back on the most negative value")

	n, ovf = Neg(FromInt64(8, -127))
	require.False(t, ovf)
	require.Equal(t, int64(127), n.Int64())
}

func TestAddSubOverflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    int64
		sub     bool
		want    int64
		wantOvf bool
	}{
		{"add_in_range", 100, 27, false, 127, false},
		{"add_overflow", 100, 28, false, -128, true},
		{"add_negative_overflow", -100, -29, false, 127, true},
		{"sub_in_range", -100, 28, true, -128, false},
		{"sub_overflow", -100, 29, true, 127, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := FromInt64(8, tt.a)
			b := FromInt64(8, tt.b)

			var got Value
			var ovf bool
			if tt.sub {
				got, ovf = Sub(a, b)
			} else {
				got, ovf = Add(a, b)
			}

			require.Equal(t, tt.want, got.Int64())
			require.Equal(t, tt.wantOvf, ovf)
		})
	}
}

func TestWideOpsNeverOverflow(t *testing.T) {
	t.Parallel()

	a := FromInt64(8, -128)
	b := FromInt64(8, -128)

	s := AddWide(a, b)
	require.Equal(t, int64(-256), s.Int64())
	require.Equal(t, 9, s.Width())

	d := SubWide(FromInt64(8, 127), b)
	require.Equal(t, int64(255), d.Int64())
	require.Equal(t, 9, d.Width())
}

func TestMulExact(t *testing.T) {
	t.Parallel()

	// Extreme case: (-2^(w-1))^2 fits in 2w bits.
	a := FromInt64(8, -128)
	p := Mul(a, a)
	require.Equal(t, int64(16384), p.Int64())
	require.Equal(t, 16, p.Width())

	p = Mul(FromInt64(6, -17), FromInt64(12, 1000))
	require.Equal(t, int64(-17000), p.Int64())
	require.Equal(t, 18, p.Width())
}

func TestResizeRounding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    int64
		shift int
		round macctypes.RoundMode
		want  int64
	}{
		{"truncate_pos", 13, 2, macctypes.RoundTruncate, 3},
		{"truncate_neg", -13, 2, macctypes.RoundTruncate, -4}, // floors
		{"nearest_pos_up", 14, 2, macctypes.RoundNearest, 4},
		{"nearest_pos_down", 13, 2, macctypes.RoundNearest, 3},
		{"nearest_tie", 14, 2, macctypes.RoundNearest, 4}, // 3.5 -> 4
		{"nearest_neg", -13, 2, macctypes.RoundNearest, -3},
		{"nearest_neg_tie", -14, 2, macctypes.RoundNearest, -3}, // -3.5 -> -3 (ties up)
		{"up_pos", 13, 2, macctypes.RoundUp, 4},
		{"up_neg", -13, 2, macctypes.RoundUp, -3},
		{"away_pos", 13, 2, macctypes.RoundAwayFromZero, 4},
		{"away_neg", -13, 2, macctypes.RoundAwayFromZero, -4},
		{"exact_no_round", 12, 2, macctypes.RoundNearest, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := FromInt64(16, tt.in)
			got, ovf := Resize(v, 16, tt.shift, tt.round, false)
			require.Equal(t, tt.want, got.Int64())
			require.False(t, ovf)
		})
	}
}

func TestResizeClipAndWrap(t *testing.T) {
	t.Parallel()

	v := FromInt64(16, 300)

	clipped, ovf := Resize(v, 8, 0, macctypes.RoundTruncate, true)
	require.True(t, ovf, "clipping that alters the value reports overflow")
	require.Equal(t, int64(127), clipped.Int64())

	wrapped, ovf := Resize(v, 8, 0, macctypes.RoundTruncate, false)
	require.True(t, ovf, "wrap reports overflow")
	require.Equal(t, int64(44), wrapped.Int64()) // 300 mod 256 = 44

	neg := FromInt64(16, -300)
	clipped, ovf = Resize(neg, 8, 0, macctypes.RoundTruncate, true)
	require.True(t, ovf)
	require.Equal(t, int64(-128), clipped.Int64())

	// In-range narrowing reports nothing.
	ok, ovf := Resize(FromInt64(16, -128), 8, 0, macctypes.RoundTruncate, true)
	require.False(t, ovf)
	require.Equal(t, int64(-128), ok.Int64())
}

func TestResizeRoundAtBoundary(t *testing.T) {
	t.Parallel()

	// 510/4 = 127.5 rounds to 128, one past the top of 8 bits.
	v := FromInt64(16, 510)

	clipped, ovf := Resize(v, 8, 2, macctypes.RoundNearest, true)
	require.True(t, ovf)
	require.Equal(t, int64(127), clipped.Int64())

	wrapped, ovf := Resize(v, 8, 2, macctypes.RoundNearest, false)
	require.True(t, ovf)
	require.Equal(t, int64(-128), wrapped.Int64())
}

// TestResizeRoundTrip checks that widening and narrowing back is the
// identity whenever no rounding or clipping is triggered.
func TestResizeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, w := range []int{4, 8, 12, 17} {
		for v := int64(-8); v <= 7; v++ {
			orig := FromInt64(w, v)
			wide, ovf := Resize(orig, w+9, 0, macctypes.RoundTruncate, false)
			require.False(t, ovf)
			back, ovf := Resize(wide, w, 0, macctypes.RoundTruncate, false)
			require.False(t, ovf)
			require.True(t, orig.Eq(back), "round trip w=%d v=%d", w, v)
		}
	}
}

func TestRoundBias(t *testing.T) {
	t.Parallel()

	require.True(t, RoundBias(16, 0).IsZero())
	require.Equal(t, int64(1), RoundBias(16, 1).Int64())
	require.Equal(t, int64(8), RoundBias(16, 4).Int64())

	// Injecting the bias and truncating equals rounding to nearest.
	for v := int64(-40); v <= 40; v++ {
		biased, ovf := Add(FromInt64(16, v), RoundBias(16, 3))
		require.False(t, ovf)
		viaBias, _ := Resize(biased, 16, 3, macctypes.RoundTruncate, false)
		direct, _ := Resize(FromInt64(16, v), 16, 3, macctypes.RoundNearest, false)
		require.Equal(t, direct.Int64(), viaBias.Int64(), "v=%d", v)
	}
}

func TestExtendShift(t *testing.T) {
	t.Parallel()

	v := FromInt64(8, -5)
	e := Extend(v, 20)
	require.Equal(t, int64(-5), e.Int64())
	require.Equal(t, 20, e.Width())

	s := ShiftLeft(v, 3)
	require.Equal(t, int64(-40), s.Int64())
	require.Equal(t, 11, s.Width())
}

func TestBigRoundTrip(t *testing.T) {
	t.Parallel()

	x := new(big.Int).Lsh(big.NewInt(1), 70) // beyond int64
	v := FromBig(80, x)
	require.Equal(t, 0, v.Big().Cmp(x))
	require.False(t, v.IsNeg())
}
