package spline

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/internal/collision"
	"github.com/prcurve/prcurve/internal/hash"
)

// Term pairs one design-matrix column with the coefficient that multiplies it.
type Term struct {
	// Name is the regression term name.
	Name string
	// ID is the xxHash64 of Name.
	ID uint64
	// Column is the design-matrix column index.
	Column int
	// Coef is the index into the coefficient vector and covariance matrix.
	Coef int
}

// TermMap is the explicit column-to-coefficient mapping for the predictor of
// interest. It is built once when the model is set up and passed to every
// prediction; intercepts and unrelated covariates are not part of it.
type TermMap struct {
	terms []Term
}

// NewTermMap maps every basis column to the coefficient with the same name.
// Coefficient names must be non-empty and unique.
func NewTermMap(coefNames []string, basis Basis) (TermMap, error) {
	index := collision.NewTracker(len(coefNames))
	for _, name := range coefNames {
		if err := index.Track(name); err != nil {
			return TermMap{}, err
		}
	}

	names := basis.Names()
	terms := make([]Term, len(names))
	for col, name := range names {
		coef, ok := index.Lookup(name)
		if !ok {
			return TermMap{}, fmt.Errorf("%w: basis term %q has no coefficient", errs.ErrUnknownTerm, name)
		}
		terms[col] = Term{Name: name, ID: hash.TermID(name), Column: col, Coef: coef}
	}

	return TermMap{terms: terms}, nil
}

// TermMapFromPattern selects the coefficients whose names match pattern and
// pairs them, in order, with the basis columns. The number of matches must
// equal basis.Dim().
func TermMapFromPattern(coefNames []string, basis Basis, pattern string) (TermMap, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return TermMap{}, fmt.Errorf("invalid term pattern %q: %w", pattern, err)
	}

	coefs := matchNames(coefNames, re)
	if len(coefs) != basis.Dim() {
		return TermMap{}, fmt.Errorf("%w: pattern %q matched %d coefficients, basis has %d columns",
			errs.ErrDimensionMismatch, pattern, len(coefs), basis.Dim())
	}

	terms := make([]Term, len(coefs))
	for col, coef := range coefs {
		name := coefNames[coef]
		terms[col] = Term{Name: name, ID: hash.TermID(name), Column: col, Coef: coef}
	}

	return TermMap{terms: terms}, nil
}

// IdentityTermMap maps each listed column to the coefficient with the same
// index, for models whose coefficient vector is laid out like the design matrix.
func IdentityTermMap(cols []int) TermMap {
	terms := make([]Term, len(cols))
	for i, c := range cols {
		terms[i] = Term{Column: c, Coef: c}
	}

	return TermMap{terms: terms}
}

// Len returns the number of mapped terms.
func (m TermMap) Len() int { return len(m.terms) }

// Terms returns a copy of the mapped terms.
func (m TermMap) Terms() []Term { return slices.Clone(m.terms) }

// Columns returns the design-matrix column indices in term order.
func (m TermMap) Columns() []int {
	out := make([]int, len(m.terms))
	for i, t := range m.terms {
		out[i] = t.Column
	}

	return out
}

// Coefficients returns the coefficient indices in term order.
func (m TermMap) Coefficients() []int {
	out := make([]int, len(m.terms))
	for i, t := range m.terms {
		out[i] = t.Coef
	}

	return out
}

// Lookup returns the term with the given name.
func (m TermMap) Lookup(name string) (Term, bool) {
	id := hash.TermID(name)
	for _, t := range m.terms {
		if t.ID == id && t.Name == name {
			return t, true
		}
	}

	return Term{}, false
}

// Validate checks every index against a coefficient vector of length nCoef
// and a design matrix with nCols columns.
func (m TermMap) Validate(nCoef, nCols int) error {
	if len(m.terms) == 0 {
		return fmt.Errorf("%w: no terms mapped", errs.ErrDimensionMismatch)
	}
	for _, t := range m.terms {
		if t.Coef < 0 || t.Coef >= nCoef {
			return fmt.Errorf("%w: term %q coefficient index %d out of range [0, %d)",
				errs.ErrDimensionMismatch, t.Name, t.Coef, nCoef)
		}
		if t.Column < 0 || t.Column >= nCols {
			return fmt.Errorf("%w: term %q column index %d out of range [0, %d)",
				errs.ErrDimensionMismatch, t.Name, t.Column, nCols)
		}
	}

	return nil
}
