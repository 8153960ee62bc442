package spline

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/prcurve/prcurve/errs"
)

// BSpline is a B-spline basis with fixed interior and boundary knots.
//
// Columns follow the splines::bs convention: with intercept disabled the first
// basis function is dropped, leaving len(interior)+degree columns.
type BSpline struct {
	name      string
	degree    int
	interior  []float64
	boundary  [2]float64
	intercept bool
	knots     []float64 // full clamped knot vector
	names     []string
}

var _ Basis = (*BSpline)(nil)

// NewBSpline creates a B-spline basis.
//
// Parameters:
//   - name: term prefix, e.g. "bs(age)"
//   - interior: strictly increasing knots strictly inside the boundary
//   - boundary: lower and upper boundary knots
//   - degree: polynomial degree, at least 1 (3 for cubic)
//   - intercept: keep the first basis function
func NewBSpline(name string, interior []float64, boundary [2]float64, degree int, intercept bool) (*BSpline, error) {
	if degree < 1 {
		return nil, fmt.Errorf("%w: degree must be >= 1, got %d", errs.ErrInvalidKnots, degree)
	}
	lo, hi := boundary[0], boundary[1]
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || lo >= hi {
		return nil, fmt.Errorf("%w: boundary [%g, %g]", errs.ErrInvalidKnots, lo, hi)
	}
	for i, k := range interior {
		if !(k > lo && k < hi) {
			return nil, fmt.Errorf("%w: interior knot %g outside (%g, %g)", errs.ErrInvalidKnots, k, lo, hi)
		}
		if i > 0 && interior[i-1] >= k {
			return nil, fmt.Errorf("%w: interior knots not strictly increasing", errs.ErrInvalidKnots)
		}
	}

	knots := make([]float64, 0, len(interior)+2*(degree+1))
	for range degree + 1 {
		knots = append(knots, lo)
	}
	knots = append(knots, interior...)
	for range degree + 1 {
		knots = append(knots, hi)
	}

	b := &BSpline{
		name:      name,
		degree:    degree,
		interior:  slices.Clone(interior),
		boundary:  boundary,
		intercept: intercept,
		knots:     knots,
	}
	b.names = termNames(name, b.Dim())

	return b, nil
}

// Dim returns the number of basis columns.
func (b *BSpline) Dim() int {
	n := b.numFuncs()
	if !b.intercept {
		n--
	}

	return n
}

// Names returns the column term names.
func (b *BSpline) Names() []string { return slices.Clone(b.names) }

// Degree returns the polynomial degree.
func (b *BSpline) Degree() int { return b.degree }

// Knots returns the interior and boundary knots.
func (b *BSpline) Knots() (interior []float64, boundary [2]float64) {
	return slices.Clone(b.interior), b.boundary
}

func (b *BSpline) numFuncs() int {
	return len(b.knots) - b.degree - 1
}

// Evaluate returns the basis evaluated at xs.
func (b *BSpline) Evaluate(xs []float64) (*mat.Dense, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: no evaluation points", errs.ErrEmptyInput)
	}
	if err := checkFinite(xs); err != nil {
		return nil, err
	}

	dim := b.Dim()
	out := mat.NewDense(len(xs), dim, nil)
	offset := 0
	if !b.intercept {
		offset = 1
	}

	vals := make([]float64, b.degree+1)
	left := make([]float64, b.degree+1)
	right := make([]float64, b.degree+1)
	for r, x := range xs {
		span := b.span(x)
		b.basisFuncs(span, x, vals, left, right)
		// vals[j] is basis function span-degree+j
		for j, v := range vals {
			col := span - b.degree + j - offset
			if col < 0 || col >= dim {
				continue
			}
			out.Set(r, col, v)
		}
	}

	return out, nil
}

// span returns the knot span index used for x. Points outside the boundary use
// the first or last span so the boundary polynomial piece is continued.
func (b *BSpline) span(x float64) int {
	p := b.degree
	n := b.numFuncs()
	if x >= b.knots[n] {
		return n - 1
	}
	if x < b.knots[p] {
		return p
	}
	// largest i in [p, n-1] with knots[i] <= x
	i := sort.Search(n-p, func(k int) bool { return b.knots[p+k+1] > x })

	return p + i
}

// basisFuncs computes the degree+1 non-zero basis functions on span at x.
func (b *BSpline) basisFuncs(span int, x float64, vals, left, right []float64) {
	vals[0] = 1
	for j := 1; j <= b.degree; j++ {
		left[j] = x - b.knots[span+1-j]
		right[j] = b.knots[span+j] - x
		saved := 0.0
		for r := range j {
			tmp := vals[r] / (right[r+1] + left[j-r])
			vals[r] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		vals[j] = saved
	}
}
