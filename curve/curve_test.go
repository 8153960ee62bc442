package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prcurve/prcurve/grid"
)

func testPooled(t *testing.T) *Pooled {
	t.Helper()
	g, err := grid.New([]float64{40, 50, 60}, 50)
	require.NoError(t, err)

	return &Pooled{
		Grid:    g,
		M:       4,
		Level:   0.95,
		Pred:    []float64{-0.2, 0, 0.3},
		SE:      []float64{0.1, 0, 0.2},
		Lower:   []float64{-0.4, 0, -0.1},
		Upper:   []float64{0, 0, 0.7},
		Within:  []float64{0.008, 0, 0.03},
		Between: []float64{0.0016, 0, 0.008},
		Total:   []float64{0.01, 0, 0.04},
		DF:      []float64{math.Inf(1), math.Inf(1), math.Inf(1)},
	}
}

func TestPooled_Ratios(t *testing.T) {
	p := testPooled(t)

	est, lo, hi := p.Ratio(1)
	require.InDelta(t, 1.0, est, 0)
	require.InDelta(t, 1.0, lo, 0)
	require.InDelta(t, 1.0, hi, 0)

	ests, los, his := p.Ratios()
	require.Len(t, ests, 3)
	require.InDelta(t, math.Exp(0.3), ests[2], 1e-15)
	require.InDelta(t, math.Exp(-0.4), los[0], 1e-15)
	require.InDelta(t, math.Exp(0.7), his[2], 1e-15)
	require.InDelta(t, 0.8, p.Width(2), 1e-12)
}

func TestPooled_MissingInformation(t *testing.T) {
	p := testPooled(t)

	r := p.RelativeIncrease()
	require.InDelta(t, 1.25*0.0016/0.008, r[0], 1e-12)
	require.Zero(t, r[1])

	lambda := p.FractionMissing()
	require.InDelta(t, 1.25*0.008/0.04, lambda[2], 1e-12)
	require.Zero(t, lambda[1])

	p.Within[0] = 0
	require.True(t, math.IsInf(p.RelativeIncrease()[0], 1))
}

func TestPooled_Clone(t *testing.T) {
	p := testPooled(t)
	c := p.Clone()
	c.Pred[0] = 42
	c.Grid.X[0] = -1

	require.InDelta(t, -0.2, p.Pred[0], 0)
	require.InDelta(t, 40.0, p.Grid.X[0], 0)
	require.Equal(t, "Pooled{Grid{N: 3, Range: [40, 60], Ref: 50}, M: 4, Level: 0.950}", p.String())
}

func TestPredicted(t *testing.T) {
	g, err := grid.New([]float64{1, 2}, 1)
	require.NoError(t, err)
	p := &Predicted{Grid: g, Pred: []float64{0, 1}, SE: []float64{0, 0.5}}
	require.Equal(t, 2, p.Len())
	require.InDelta(t, 0.25, p.Variance(1), 0)
	require.Equal(t, "Predicted{Grid{N: 2, Range: [1, 2], Ref: 1}, Clamped: 0}", p.String())
}
