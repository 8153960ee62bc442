// Package grid defines the ordered prediction positions at which a curve is
// evaluated, including the reference position the curve is centered on.
package grid

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/prcurve/prcurve/errs"
)

// MaxPositions bounds the number of positions Linspace and Step may generate.
const MaxPositions = 1 << 20

// Grid is a strictly increasing sequence of x positions with one designated
// reference position X[Ref]. A Grid is immutable once built; use the
// constructors, which validate the invariants.
type Grid struct {
	// X holds the strictly increasing positions.
	X []float64
	// Ref is the index of the reference position in X.
	Ref int
}

// New builds a grid from xs, which must be finite and strictly increasing and
// contain xRef exactly.
func New(xs []float64, xRef float64) (Grid, error) {
	if len(xs) == 0 {
		return Grid{}, fmt.Errorf("%w: no positions", errs.ErrInvalidGrid)
	}

	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Grid{}, fmt.Errorf("%w: position %d is not finite", errs.ErrInvalidGrid, i)
		}
		if i > 0 && xs[i-1] >= x {
			return Grid{}, fmt.Errorf("%w: positions not strictly increasing at index %d", errs.ErrInvalidGrid, i)
		}
	}

	ref, ok := slices.BinarySearch(xs, xRef)
	if !ok {
		return Grid{}, fmt.Errorf("%w: reference %g is not a grid position", errs.ErrInvalidGrid, xRef)
	}

	return Grid{X: slices.Clone(xs), Ref: ref}, nil
}

// Linspace builds n equally spaced positions over [xMin, xMax] and inserts xRef
// if it does not fall on one of them.
func Linspace(xMin, xMax float64, n int, xRef float64) (Grid, error) {
	if n < 2 || n > MaxPositions {
		return Grid{}, fmt.Errorf("%w: position count must be in [2, %d], got %d", errs.ErrInvalidGrid, MaxPositions, n)
	}
	if err := checkDomain(xMin, xMax, xRef); err != nil {
		return Grid{}, err
	}

	xs := floats.Span(make([]float64, n), xMin, xMax)
	xs[n-1] = xMax

	return New(withReference(xs, xRef), xRef)
}

// Step builds positions xMin, xMin+step, ... up to and including xMax, and
// inserts xRef if it does not fall on one of them.
func Step(xMin, xMax, step float64, xRef float64) (Grid, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return Grid{}, fmt.Errorf("%w: step must be positive, got %g", errs.ErrInvalidGrid, step)
	}
	if err := checkDomain(xMin, xMax, xRef); err != nil {
		return Grid{}, err
	}

	count := math.Floor((xMax-xMin)/step+1e-9) + 1
	if !(count <= MaxPositions) {
		return Grid{}, fmt.Errorf("%w: step %g yields %g positions, limit is %d",
			errs.ErrInvalidGrid, step, count, MaxPositions)
	}
	n := int(count)
	xs := make([]float64, 0, n+1)
	for i := range n {
		xs = append(xs, xMin+float64(i)*step)
	}
	if last := xs[len(xs)-1]; xMax-last > step*1e-9 {
		xs = append(xs, xMax)
	} else {
		xs[len(xs)-1] = xMax
	}

	return New(withReference(xs, xRef), xRef)
}

func checkDomain(xMin, xMax, xRef float64) error {
	for _, v := range []float64{xMin, xMax, xRef} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound %g", errs.ErrInvalidGrid, v)
		}
	}
	if xMin >= xMax {
		return fmt.Errorf("%w: x_min %g must be below x_max %g", errs.ErrInvalidGrid, xMin, xMax)
	}
	if xRef < xMin || xRef > xMax {
		return fmt.Errorf("%w: reference %g outside [%g, %g]", errs.ErrInvalidGrid, xRef, xMin, xMax)
	}

	return nil
}

// withReference inserts xRef into the sorted xs unless already present.
func withReference(xs []float64, xRef float64) []float64 {
	idx, found := slices.BinarySearch(xs, xRef)
	if found {
		return xs
	}

	return slices.Insert(xs, idx, xRef)
}

// Len returns the number of positions.
func (g Grid) Len() int { return len(g.X) }

// Reference returns the reference position.
func (g Grid) Reference() float64 { return g.X[g.Ref] }

// Min returns the first position.
func (g Grid) Min() float64 { return g.X[0] }

// Max returns the last position.
func (g Grid) Max() float64 { return g.X[len(g.X)-1] }

// Equal reports whether g and other have the same positions and reference.
func (g Grid) Equal(other Grid) bool {
	return g.Ref == other.Ref && slices.Equal(g.X, other.X)
}

// String returns a short description of the grid.
func (g Grid) String() string {
	if len(g.X) == 0 {
		return "Grid{}"
	}

	return fmt.Sprintf("Grid{N: %d, Range: [%g, %g], Ref: %g}", len(g.X), g.Min(), g.Max(), g.Reference())
}
