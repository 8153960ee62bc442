package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/prcurve/prcurve/binning"
	"github.com/prcurve/prcurve/curve"
	"github.com/prcurve/prcurve/errs"
)

// CurveCSVHeader is the header line written by WriteCurveCSV.
var CurveCSVHeader = []string{
	"x", "reference", "pred", "se", "lower", "upper",
	"ratio", "ratio_lower", "ratio_upper",
	"within", "between", "total", "df",
}

// SegmentsCSVHeader is the header line written by WriteSegmentsCSV.
var SegmentsCSVHeader = []string{
	"bin", "lo", "hi", "n", "value", "status",
	"start_x", "start_y", "end_x", "end_y",
}

// WriteCurveCSV writes one row per grid position, ordered by x. The ratio
// columns are the estimate and bounds on the prevalence-ratio scale.
func WriteCurveCSV(w io.Writer, p *curve.Pooled) error {
	if p == nil {
		return fmt.Errorf("%w: no curve to write", errs.ErrEmptyInput)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(CurveCSVHeader); err != nil {
		return err
	}

	record := make([]string, len(CurveCSVHeader))
	for i := range p.Len() {
		est, lower, upper := p.Ratio(i)
		record[0] = formatFloat(p.Grid.X[i])
		record[1] = strconv.FormatBool(i == p.Grid.Ref)
		record[2] = formatFloat(p.Pred[i])
		record[3] = formatFloat(p.SE[i])
		record[4] = formatFloat(p.Lower[i])
		record[5] = formatFloat(p.Upper[i])
		record[6] = formatFloat(est)
		record[7] = formatFloat(lower)
		record[8] = formatFloat(upper)
		record[9] = formatFloat(p.Within[i])
		record[10] = formatFloat(p.Between[i])
		record[11] = formatFloat(p.Total[i])
		record[12] = formatFloat(p.DF[i])
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()

	return writer.Error()
}

// WriteSegmentsCSV writes one row per segment, ordered by x.
func WriteSegmentsCSV(w io.Writer, s *binning.SegmentSet) error {
	if s == nil {
		return fmt.Errorf("%w: no segment set to write", errs.ErrEmptyInput)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(SegmentsCSVHeader); err != nil {
		return err
	}

	record := make([]string, len(SegmentsCSVHeader))
	for _, seg := range s.Segments {
		record[0] = strconv.Itoa(seg.Index)
		record[1] = formatFloat(seg.Lo)
		record[2] = formatFloat(seg.Hi)
		record[3] = strconv.Itoa(seg.N)
		record[4] = formatFloat(seg.Value)
		record[5] = seg.Status.String()
		record[6] = formatFloat(seg.Start.X)
		record[7] = formatFloat(seg.Start.Y)
		record[8] = formatFloat(seg.End.X)
		record[9] = formatFloat(seg.End.Y)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()

	return writer.Error()
}

// ReadObservationsCSV reads (x, y) pairs from the named columns of a CSV file
// with a header line. Empty, "NA" and "NaN" cells become NaN so that binning
// drops and counts them.
func ReadObservationsCSV(r io.Reader, xCol, yCol string) ([]binning.Observation, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv has no header line", errs.ErrEmptyInput)
	}
	if err != nil {
		return nil, err
	}
	xi := slices.Index(header, xCol)
	yi := slices.Index(header, yCol)
	if xi < 0 || yi < 0 {
		return nil, fmt.Errorf("%w: columns %q and %q must both be present in %v", errs.ErrMissingColumn, xCol, yCol, header)
	}

	var obs []binning.Observation
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return obs, nil
		}
		if err != nil {
			return nil, err
		}

		x, err := parseCell(rec[xi])
		if err != nil {
			return nil, fmt.Errorf("line %d column %q: %w", line, xCol, err)
		}
		y, err := parseCell(rec[yi])
		if err != nil {
			return nil, fmt.Errorf("line %d column %q: %w", line, yCol, err)
		}
		obs = append(obs, binning.Observation{X: x, Y: y})
	}
}

func parseCell(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan":
		return math.NaN(), nil
	}

	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
