package artifact

import (
	"fmt"

	"github.com/prcurve/prcurve/curve"
	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/format"
	"github.com/prcurve/prcurve/grid"
	"github.com/prcurve/prcurve/internal/options"
)

// curveColumns is x, pred, se, lower, upper, within, between, total, df.
const curveColumns = 9

// curveLayout: M (4), level (8), reference row (4), then nine float64 columns.
var curveLayout = tableLayout{
	kind:     format.KindCurve,
	cols:     curveColumns,
	metaSize: 4 + 8 + 4,
	rowSize:  curveColumns * 8,
}

// EncodeCurve encodes a pooled curve as a binary table.
//
// Payload layout: M (uint32), level (float64), reference row (uint32), then
// the nine float64 columns in the order listed for curveColumns.
func EncodeCurve(p *curve.Pooled, opts ...Option) ([]byte, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if p == nil || p.Len() == 0 {
		return nil, fmt.Errorf("%w: no curve rows to encode", errs.ErrEmptyInput)
	}

	n := p.Len()
	columns := [][]float64{p.Grid.X, p.Pred, p.SE, p.Lower, p.Upper, p.Within, p.Between, p.Total, p.DF}
	for i, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("%w: curve column %d has %d rows, want %d", errs.ErrDimensionMismatch, i, len(col), n)
		}
	}

	w := newWriter(cfg, int(curveLayout.rawSize(uint32(n))))
	w.uint32(uint32(p.M))
	w.float64(p.Level)
	w.uint32(uint32(p.Grid.Ref))
	for _, col := range columns {
		w.float64s(col)
	}

	return seal(cfg, format.KindCurve, n, curveColumns, w)
}

// DecodeCurve decodes a table written by EncodeCurve.
func DecodeCurve(data []byte) (*curve.Pooled, error) {
	h, r, err := open(data, curveLayout)
	if err != nil {
		return nil, err
	}

	n := int(h.Rows)
	m := r.uint32()
	level := r.float64()
	ref := r.uint32()
	if r.err == nil && (n == 0 || int(ref) >= n || m == 0 || !(level > 0 && level < 1)) {
		return nil, fmt.Errorf("%w: bad curve metadata (rows %d, M %d, level %g, reference %d)",
			errs.ErrInvalidArtifact, n, m, level, ref)
	}

	xs := r.float64s(n)
	p := &curve.Pooled{
		M:       int(m),
		Level:   level,
		Pred:    r.float64s(n),
		SE:      r.float64s(n),
		Lower:   r.float64s(n),
		Upper:   r.float64s(n),
		Within:  r.float64s(n),
		Between: r.float64s(n),
		Total:   r.float64s(n),
		DF:      r.float64s(n),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}

	g, err := grid.New(xs, xs[ref])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArtifact, err)
	}
	p.Grid = g
	if p.Pred[ref] != 0 || p.SE[ref] != 0 {
		return nil, fmt.Errorf("%w: curve is not centered at row %d", errs.ErrInvalidArtifact, ref)
	}

	return p, nil
}
