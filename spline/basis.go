package spline

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/prcurve/prcurve/errs"
)

// Basis is a spline basis whose knots and boundary convention were fixed when
// the model was fit.
type Basis interface {
	// Dim returns the number of basis columns.
	Dim() int
	// Names returns the term name of every column, in column order.
	Names() []string
	// Evaluate returns a len(xs) x Dim() design matrix.
	Evaluate(xs []float64) (*mat.Dense, error)
}

// termNames builds the "<prefix><i>" names used by both bases, 1-based.
func termNames(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = prefix + strconv.Itoa(i+1)
	}

	return names
}

func checkFinite(xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: evaluation point %d is %g", errs.ErrNumericInstability, i, x)
		}
	}

	return nil
}
