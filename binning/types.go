package binning

import (
	"fmt"
	"strings"

	"github.com/prcurve/prcurve/errs"
)

type (
	// Summary selects the per-bin summary statistic.
	Summary uint8
	// Status is the threshold label of a segment.
	Status uint8
)

const (
	Mean   Summary = 0x1 // Mean is the arithmetic mean of y.
	Rate   Summary = 0x2 // Rate is the proportion of y equal to the positive indicator.
	Count  Summary = 0x3 // Count is the number of observations.
	Median Summary = 0x4 // Median is the sample median of y.

	Below     Status = 0x1 // Below marks a summary value under the threshold.
	AtOrAbove Status = 0x2 // AtOrAbove marks a summary value at or over the threshold.
)

func (s Summary) String() string {
	switch s {
	case Mean:
		return "mean"
	case Rate:
		return "rate"
	case Count:
		return "count"
	case Median:
		return "median"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known summary mode.
func (s Summary) Valid() bool { return s >= Mean && s <= Median }

// ParseSummary parses a summary name as printed by Summary.String.
func ParseSummary(name string) (Summary, error) {
	for _, s := range []Summary{Mean, Rate, Count, Median} {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown summary %q", errs.ErrInvalidBinningParameters, name)
}

func (s Status) String() string {
	switch s {
	case Below:
		return "below"
	case AtOrAbove:
		return "at_or_above"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s == Below || s == AtOrAbove }

// ParseStatus parses a status name as printed by Status.String.
func ParseStatus(name string) (Status, error) {
	switch name {
	case "below":
		return Below, nil
	case "at_or_above":
		return AtOrAbove, nil
	default:
		return 0, fmt.Errorf("unknown segment status %q", name)
	}
}

// Observation is one raw (x, y) pair.
type Observation struct {
	X float64
	Y float64
}

// Point is a segment end point.
type Point struct {
	X float64
	Y float64
}

// Segment is the drawable summary of one non-empty bin.
type Segment struct {
	// Lo and Hi bound the bin, [Lo, Hi) or [Lo, Hi] for the last bin.
	Lo float64
	Hi float64
	// Index is the bin's position among all bins, empty ones included.
	Index int
	// N is the number of observations in the bin.
	N int
	// Value is the bin summary.
	Value float64
	// Start and End are the segment end points, (Lo, Value) and (Hi, Value).
	Start Point
	End   Point
	// Status labels Value against the threshold.
	Status Status
}

// Params records the binning parameters actually used.
type Params struct {
	XMin      float64
	XMax      float64
	Bins      int
	Width     float64
	Summary   Summary
	Threshold float64
	Positive  float64
}

// SegmentSet is the ordered result of Segments.
type SegmentSet struct {
	// Segments are ordered by x; empty bins are absent.
	Segments []Segment
	// Params are the parameters used to build the set.
	Params Params
	// Dropped counts observations outside [XMin, XMax] or with non-finite
	// coordinates.
	Dropped int
}

// Len returns the number of segments.
func (s *SegmentSet) Len() int { return len(s.Segments) }

// Observations returns the number of observations assigned to bins.
func (s *SegmentSet) Observations() int {
	total := 0
	for _, seg := range s.Segments {
		total += seg.N
	}

	return total
}

func (s *SegmentSet) String() string {
	return fmt.Sprintf("SegmentSet{Segments: %d, Bins: %d, Summary: %s, Dropped: %d}",
		len(s.Segments), s.Params.Bins, s.Params.Summary, s.Dropped)
}
