package prcurve

import (
	"fmt"
	"maps"
	"slices"

	"github.com/prcurve/prcurve/binning"
	"github.com/prcurve/prcurve/errs"
)

// Dataset is a column-oriented table of float64 values. Missing values are NaN.
type Dataset interface {
	// Len returns the number of rows.
	Len() int
	// Column returns the named column, or false if it does not exist.
	Column(name string) ([]float64, bool)
}

// Table is an in-memory Dataset.
type Table struct {
	n    int
	cols map[string][]float64
}

var _ Dataset = (*Table)(nil)

// NewTable builds a table from equally long columns. The columns are copied.
func NewTable(columns map[string][]float64) (*Table, error) {
	t := &Table{n: -1, cols: make(map[string][]float64, len(columns))}
	for _, name := range slices.Sorted(maps.Keys(columns)) {
		col := columns[name]
		if t.n >= 0 && len(col) != t.n {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", errs.ErrDimensionMismatch, name, len(col), t.n)
		}
		t.n = len(col)
		t.cols[name] = slices.Clone(col)
	}
	t.n = max(t.n, 0)

	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Column returns the named column. The slice must not be modified.
func (t *Table) Column(name string) ([]float64, bool) {
	col, ok := t.cols[name]
	return col, ok
}

// Names returns the column names in sorted order.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.cols))
}

// StackObservations concatenates the (xCol, yCol) pairs of every dataset, in
// dataset order, for binning the stacked imputations.
func StackObservations(datasets []Dataset, xCol, yCol string) ([]binning.Observation, error) {
	total := 0
	for i, ds := range datasets {
		if ds == nil {
			return nil, fmt.Errorf("%w: dataset %d is nil", errs.ErrEmptyInput, i+1)
		}
		total += ds.Len()
	}

	obs := make([]binning.Observation, 0, total)
	for i, ds := range datasets {
		xs, ok := ds.Column(xCol)
		if !ok {
			return nil, fmt.Errorf("%w: dataset %d has no column %q", errs.ErrMissingColumn, i+1, xCol)
		}
		ys, ok := ds.Column(yCol)
		if !ok {
			return nil, fmt.Errorf("%w: dataset %d has no column %q", errs.ErrMissingColumn, i+1, yCol)
		}
		if len(xs) != len(ys) {
			return nil, fmt.Errorf("%w: dataset %d columns %q and %q have %d and %d rows",
				errs.ErrDimensionMismatch, i+1, xCol, yCol, len(xs), len(ys))
		}
		for r := range xs {
			obs = append(obs, binning.Observation{X: xs[r], Y: ys[r]})
		}
	}

	return obs, nil
}
