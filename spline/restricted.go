package spline

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/prcurve/prcurve/errs"
)

// RestrictedCubic is a natural (restricted) cubic spline basis in the
// truncated-power parameterisation. It is cubic between the knots and linear
// beyond the outer knots.
//
// Column 0 is x itself; column j (j >= 1) is the j-th non-linear term, scaled
// by (t_k - t_1)^2 to keep columns on a comparable scale.
type RestrictedCubic struct {
	name  string
	knots []float64
	names []string
	scale float64
}

var _ Basis = (*RestrictedCubic)(nil)

// NewRestrictedCubic creates a restricted cubic spline basis over at least
// three strictly increasing knots.
func NewRestrictedCubic(name string, knots []float64) (*RestrictedCubic, error) {
	if len(knots) < 3 {
		return nil, fmt.Errorf("%w: restricted cubic spline needs at least 3 knots, got %d", errs.ErrInvalidKnots, len(knots))
	}
	for i, k := range knots {
		if math.IsNaN(k) || math.IsInf(k, 0) {
			return nil, fmt.Errorf("%w: knot %d is not finite", errs.ErrInvalidKnots, i)
		}
		if i > 0 && knots[i-1] >= k {
			return nil, fmt.Errorf("%w: knots not strictly increasing", errs.ErrInvalidKnots)
		}
	}

	span := knots[len(knots)-1] - knots[0]
	rc := &RestrictedCubic{
		name:  name,
		knots: slices.Clone(knots),
		scale: span * span,
	}
	rc.names = termNames(name, rc.Dim())

	return rc, nil
}

// Dim returns len(knots)-1.
func (rc *RestrictedCubic) Dim() int { return len(rc.knots) - 1 }

// Names returns the column term names.
func (rc *RestrictedCubic) Names() []string { return slices.Clone(rc.names) }

// Knots returns the knot positions.
func (rc *RestrictedCubic) Knots() []float64 { return slices.Clone(rc.knots) }

// Evaluate returns the basis evaluated at xs.
func (rc *RestrictedCubic) Evaluate(xs []float64) (*mat.Dense, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: no evaluation points", errs.ErrEmptyInput)
	}
	if err := checkFinite(xs); err != nil {
		return nil, err
	}

	k := len(rc.knots)
	tk := rc.knots[k-1]
	tk1 := rc.knots[k-2]
	denom := tk - tk1

	out := mat.NewDense(len(xs), rc.Dim(), nil)
	for r, x := range xs {
		out.Set(r, 0, x)
		tailK1 := cube(x - tk1)
		tailK := cube(x - tk)
		for j := 0; j < k-2; j++ {
			tj := rc.knots[j]
			v := cube(x-tj) -
				tailK1*(tk-tj)/denom +
				tailK*(tk1-tj)/denom
			out.Set(r, j+1, v/rc.scale)
		}
	}

	return out, nil
}

// cube returns max(v, 0)^3.
func cube(v float64) float64 {
	if v <= 0 {
		return 0
	}

	return v * v * v
}
