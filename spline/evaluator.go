package spline

import (
	"fmt"
	"regexp"

	"gonum.org/v1/gonum/mat"

	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/grid"
)

// Evaluator evaluates a fit-time basis on prediction grids and guards the
// column count the caller's coefficients expect.
type Evaluator struct {
	basis    Basis
	expected int
}

// NewEvaluator wraps basis. expectedCols is the number of basis columns the
// fitted model was built with; pass 0 to accept basis.Dim().
func NewEvaluator(basis Basis, expectedCols int) (*Evaluator, error) {
	if basis == nil {
		return nil, fmt.Errorf("%w: nil basis", errs.ErrEmptyInput)
	}
	if expectedCols < 0 {
		return nil, fmt.Errorf("%w: negative expected column count %d", errs.ErrDimensionMismatch, expectedCols)
	}
	if expectedCols == 0 {
		expectedCols = basis.Dim()
	}

	return &Evaluator{basis: basis, expected: expectedCols}, nil
}

// Basis returns the wrapped basis.
func (e *Evaluator) Basis() Basis { return e.basis }

// Columns returns the expected column count.
func (e *Evaluator) Columns() int { return e.expected }

// Evaluate returns the basis evaluated at every grid position.
func (e *Evaluator) Evaluate(g grid.Grid) (*mat.Dense, error) {
	return e.EvaluateAt(g.X)
}

// EvaluateAt returns the basis evaluated at xs, which may lie outside the
// fit-time data range.
func (e *Evaluator) EvaluateAt(xs []float64) (*mat.Dense, error) {
	design, err := e.basis.Evaluate(xs)
	if err != nil {
		return nil, err
	}

	if _, cols := design.Dims(); cols != e.expected {
		return nil, fmt.Errorf("%w: basis produced %d columns, model expects %d",
			errs.ErrDimensionMismatch, cols, e.expected)
	}

	return design, nil
}

// MatchColumns returns the indices of the basis columns whose term names match
// the regular expression pattern, in column order.
func (e *Evaluator) MatchColumns(pattern string) ([]int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid term pattern %q: %w", pattern, err)
	}

	return matchNames(e.basis.Names(), re), nil
}

func matchNames(names []string, re *regexp.Regexp) []int {
	var idx []int
	for i, name := range names {
		if re.MatchString(name) {
			idx = append(idx, i)
		}
	}

	return idx
}
