package predict

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/prcurve/prcurve/errs"
)

// Fit is the output of one regression fit: coefficient estimates, their
// covariance and the term names in coefficient order.
type Fit struct {
	// Coefficients holds the estimates.
	Coefficients []float64
	// Covariance is the coefficient covariance matrix.
	Covariance mat.Symmetric
	// Names holds the term names; optional when terms are mapped by index.
	Names []string
}

// Validate checks that the covariance is square with the coefficient vector's
// dimension, names (if any) line up, and all values are finite.
func (f Fit) Validate() error {
	n := len(f.Coefficients)
	if n == 0 {
		return fmt.Errorf("%w: no coefficients", errs.ErrDimensionMismatch)
	}
	if f.Covariance == nil {
		return fmt.Errorf("%w: nil covariance", errs.ErrDimensionMismatch)
	}
	if dim := f.Covariance.SymmetricDim(); dim != n {
		return fmt.Errorf("%w: covariance is %dx%d, coefficient vector has %d entries",
			errs.ErrDimensionMismatch, dim, dim, n)
	}
	if len(f.Names) != 0 && len(f.Names) != n {
		return fmt.Errorf("%w: %d term names for %d coefficients", errs.ErrDimensionMismatch, len(f.Names), n)
	}
	for i, c := range f.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: coefficient %d is %g", errs.ErrNumericInstability, i, c)
		}
	}

	return nil
}

// NewCovariance builds a symmetric covariance matrix from row slices. The rows
// must form a square matrix that is symmetric within a relative tolerance of
// 1e-8; the upper triangle is kept.
func NewCovariance(rows [][]float64) (*mat.SymDense, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty covariance", errs.ErrDimensionMismatch)
	}

	data := make([]float64, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d entries, want %d",
				errs.ErrDimensionMismatch, i, len(row), n)
		}
		copy(data[i*n:], row)
	}

	for i := range n {
		for j := i + 1; j < n; j++ {
			a, b := rows[i][j], rows[j][i]
			if math.Abs(a-b) > 1e-8*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return nil, fmt.Errorf("%w: covariance not symmetric at (%d, %d): %g vs %g",
					errs.ErrDimensionMismatch, i, j, a, b)
			}
		}
	}

	return mat.NewSymDense(n, data), nil
}
