package spline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prcurve/prcurve/errs"
)

func mathNaN() float64 { return math.NaN() }

func seq(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}

	return out
}

func TestQuantileKnots(t *testing.T) {
	xs := seq(18, 90, 500)
	for _, k := range []int{3, 4, 5, 6, 7, 9} {
		knots, err := QuantileKnots(xs, k)
		require.NoError(t, err)
		require.Len(t, knots, k)
		for i, v := range knots {
			require.GreaterOrEqual(t, v, 18.0)
			require.LessOrEqual(t, v, 90.0)
			if i > 0 {
				require.Greater(t, v, knots[i-1])
			}
		}
	}

	knots, err := QuantileKnots(xs, 3)
	require.NoError(t, err)
	require.InDelta(t, 54.0, knots[1], 0.5, "median knot")
}

func TestQuantileKnots_Invalid(t *testing.T) {
	_, err := QuantileKnots(seq(0, 1, 10), 2)
	require.ErrorIs(t, err, errs.ErrInvalidKnots)

	_, err = QuantileKnots([]float64{5, 5, 5, 5, 5, 5}, 3)
	require.ErrorIs(t, err, errs.ErrInvalidKnots)

	_, err = QuantileKnots([]float64{1, math.NaN()}, 3)
	require.ErrorIs(t, err, errs.ErrInvalidKnots)
}

func TestInteriorKnots(t *testing.T) {
	xs := append(seq(20, 80, 61), math.NaN())
	interior, boundary, err := InteriorKnots(xs, 3)
	require.NoError(t, err)
	require.Equal(t, [2]float64{20, 80}, boundary)
	require.Len(t, interior, 3)

	b, err := NewBSpline("bs(age)", interior, boundary, 3, false)
	require.NoError(t, err)
	require.Equal(t, 6, b.Dim())

	none, boundary, err := InteriorKnots(xs, 0)
	require.NoError(t, err)
	require.Empty(t, none)
	require.Equal(t, [2]float64{20, 80}, boundary)
}
