package spline

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/prcurve/prcurve/errs"
)

func TestRestrictedCubic_Shape(t *testing.T) {
	rc, err := NewRestrictedCubic("rcs(age)", []float64{25, 40, 55, 70})
	require.NoError(t, err)
	require.Equal(t, 3, rc.Dim())
	require.Equal(t, []string{"rcs(age)1", "rcs(age)2", "rcs(age)3"}, rc.Names())

	m, err := rc.Evaluate([]float64{10, 25, 30, 60})
	require.NoError(t, err)

	// first column is x itself
	require.Equal(t, []float64{10, 25, 30, 60}, mat.Col(nil, 0, m))
	// non-linear columns vanish at or below the first knot
	require.Zero(t, m.At(0, 1))
	require.Zero(t, m.At(0, 2))
	require.Zero(t, m.At(1, 1))
	require.Greater(t, m.At(2, 1), 0.0)
}

func TestRestrictedCubic_LinearTails(t *testing.T) {
	rc, err := NewRestrictedCubic("rcs(age)", []float64{25, 40, 55, 70})
	require.NoError(t, err)

	xs := []float64{75, 80, 85, 90}
	m, err := rc.Evaluate(xs)
	require.NoError(t, err)

	for c := 1; c < rc.Dim(); c++ {
		col := mat.Col(nil, c, m)
		d1 := col[1] - col[0]
		for i := 2; i < len(col); i++ {
			require.InDelta(t, d1, col[i]-col[i-1], 1e-9, "column %d is not linear beyond the last knot", c)
		}
	}
}

func TestRestrictedCubic_Invalid(t *testing.T) {
	_, err := NewRestrictedCubic("rcs(x)", []float64{1, 2})
	require.ErrorIs(t, err, errs.ErrInvalidKnots)

	_, err = NewRestrictedCubic("rcs(x)", []float64{1, 3, 2})
	require.ErrorIs(t, err, errs.ErrInvalidKnots)

	rc, err := NewRestrictedCubic("rcs(x)", []float64{1, 2, 3})
	require.NoError(t, err)
	_, err = rc.Evaluate([]float64{1, 2, mathNaN()})
	require.ErrorIs(t, err, errs.ErrNumericInstability)
}
