package spline

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/prcurve/prcurve/errs"
)

// Default knot quantiles for restricted cubic splines, indexed by knot count.
var restrictedQuantiles = map[int][]float64{
	3: {0.10, 0.50, 0.90},
	4: {0.05, 0.35, 0.65, 0.95},
	5: {0.05, 0.275, 0.50, 0.725, 0.95},
	6: {0.05, 0.23, 0.41, 0.59, 0.77, 0.95},
	7: {0.025, 0.1833, 0.3417, 0.50, 0.6583, 0.8167, 0.975},
}

// QuantileKnots returns k knot positions at the conventional restricted cubic
// spline quantiles of xs. For k outside 3..7 the quantiles are equally spaced
// over [0.05, 0.95]. Non-finite values in xs are ignored.
func QuantileKnots(xs []float64, k int) ([]float64, error) {
	if k < 3 {
		return nil, fmt.Errorf("%w: need at least 3 knots, got %d", errs.ErrInvalidKnots, k)
	}

	probs, ok := restrictedQuantiles[k]
	if !ok {
		probs = make([]float64, k)
		for i := range probs {
			probs[i] = 0.05 + 0.90*float64(i)/float64(k-1)
		}
	}

	return quantiles(xs, probs)
}

// InteriorKnots returns n interior knots at equally spaced quantiles of xs,
// excluding the extremes, as splines::bs does when given degrees of freedom.
// The returned boundary is [min(xs), max(xs)].
func InteriorKnots(xs []float64, n int) (interior []float64, boundary [2]float64, err error) {
	sorted := finiteSorted(xs)
	if len(sorted) < 2 {
		return nil, boundary, fmt.Errorf("%w: need at least 2 finite values", errs.ErrInvalidKnots)
	}
	boundary = [2]float64{sorted[0], sorted[len(sorted)-1]}
	if n <= 0 {
		return nil, boundary, nil
	}

	probs := make([]float64, n)
	for i := range probs {
		probs[i] = float64(i+1) / float64(n+1)
	}
	interior, err = quantiles(xs, probs)
	if err != nil {
		return nil, boundary, err
	}

	return interior, boundary, nil
}

func quantiles(xs []float64, probs []float64) ([]float64, error) {
	sorted := finiteSorted(xs)
	if len(sorted) < len(probs) {
		return nil, fmt.Errorf("%w: %d values cannot place %d knots", errs.ErrInvalidKnots, len(sorted), len(probs))
	}

	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = stat.Quantile(p, stat.LinInterp, sorted, nil)
		if i > 0 && out[i-1] >= out[i] {
			return nil, fmt.Errorf("%w: tied knots at %g, too few distinct values", errs.ErrInvalidKnots, out[i])
		}
	}

	return out, nil
}

func finiteSorted(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	slices.Sort(out)

	return out
}
