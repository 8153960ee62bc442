package artifact

import (
	"fmt"

	"github.com/prcurve/prcurve/binning"
	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/format"
	"github.com/prcurve/prcurve/internal/options"
)

// segmentColumns is lo, hi, value, index, n, status.
const segmentColumns = 6

// segmentLayout: x_min, x_max, width (3x8), bins (4), summary (1), threshold,
// positive (2x8), dropped (4); rows hold three float64, two uint32 and a uint8.
var segmentLayout = tableLayout{
	kind:     format.KindSegments,
	cols:     segmentColumns,
	metaSize: 3*8 + 4 + 1 + 2*8 + 4,
	rowSize:  3*8 + 2*4 + 1,
}

// EncodeSegments encodes a segment set as a binary table.
//
// Payload layout: x_min, x_max, width (float64), bins (uint32), summary
// (uint8), threshold, positive (float64), dropped (uint32), then the columns
// lo, hi, value (float64), index, n (uint32) and status (uint8).
func EncodeSegments(s *binning.SegmentSet, opts ...Option) ([]byte, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: no segment set to encode", errs.ErrEmptyInput)
	}

	n := s.Len()
	w := newWriter(cfg, int(segmentLayout.rawSize(uint32(n))))
	params := s.Params
	w.float64(params.XMin)
	w.float64(params.XMax)
	w.float64(params.Width)
	w.uint32(uint32(params.Bins))
	w.uint8(uint8(params.Summary))
	w.float64(params.Threshold)
	w.float64(params.Positive)
	w.uint32(uint32(s.Dropped))

	for _, seg := range s.Segments {
		w.float64(seg.Lo)
	}
	for _, seg := range s.Segments {
		w.float64(seg.Hi)
	}
	for _, seg := range s.Segments {
		w.float64(seg.Value)
	}
	for _, seg := range s.Segments {
		w.uint32(uint32(seg.Index))
	}
	for _, seg := range s.Segments {
		w.uint32(uint32(seg.N))
	}
	for _, seg := range s.Segments {
		w.uint8(uint8(seg.Status))
	}

	return seal(cfg, format.KindSegments, n, segmentColumns, w)
}

// DecodeSegments decodes a table written by EncodeSegments.
func DecodeSegments(data []byte) (*binning.SegmentSet, error) {
	h, r, err := open(data, segmentLayout)
	if err != nil {
		return nil, err
	}

	n := int(h.Rows)
	set := &binning.SegmentSet{}
	set.Params.XMin = r.float64()
	set.Params.XMax = r.float64()
	set.Params.Width = r.float64()
	set.Params.Bins = int(r.uint32())
	set.Params.Summary = binning.Summary(r.uint8())
	set.Params.Threshold = r.float64()
	set.Params.Positive = r.float64()
	set.Dropped = int(r.uint32())

	lo := r.float64s(n)
	hi := r.float64s(n)
	values := r.float64s(n)
	index := make([]uint32, n)
	for i := range index {
		index[i] = r.uint32()
	}
	counts := make([]uint32, n)
	for i := range counts {
		counts[i] = r.uint32()
	}
	status := make([]binning.Status, n)
	for i := range status {
		status[i] = binning.Status(r.uint8())
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	if !set.Params.Summary.Valid() {
		return nil, fmt.Errorf("%w: unknown summary mode %d", errs.ErrInvalidArtifact, set.Params.Summary)
	}

	if n > 0 {
		set.Segments = make([]binning.Segment, n)
	}
	for i := range n {
		if !status[i].Valid() {
			return nil, fmt.Errorf("%w: segment %d has unknown status %d", errs.ErrInvalidArtifact, i, status[i])
		}
		set.Segments[i] = binning.Segment{
			Lo:     lo[i],
			Hi:     hi[i],
			Index:  int(index[i]),
			N:      int(counts[i]),
			Value:  values[i],
			Start:  binning.Point{X: lo[i], Y: values[i]},
			End:    binning.Point{X: hi[i], Y: values[i]},
			Status: status[i],
		}
	}

	return set, nil
}
