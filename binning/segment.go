package binning

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/internal/options"
	"github.com/prcurve/prcurve/internal/pool"
)

// MaxBins bounds the number of bins, whether given as a count or produced by a
// fixed width.
const MaxBins = 1 << 20

// Segments partitions [xMin, xMax] into bins, summarizes the observations in
// each, and returns one segment per non-empty bin in x order.
//
// Observations outside [xMin, xMax] or with a non-finite coordinate are
// dropped and counted in SegmentSet.Dropped.
//
// Returns errs.ErrInvalidBinningParameters when xMin >= xMax, a bound is not
// finite, or an option is invalid.
func Segments(obs []Observation, xMin, xMax float64, opts ...Option) (*SegmentSet, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	l, err := newLayout(xMin, xMax, cfg)
	if err != nil {
		return nil, err
	}

	assign, cleanupAssign := pool.GetIntSlice(len(obs))
	defer cleanupAssign()

	// offsets[b]..offsets[b+1] will hold bin b's y values after the prefix sum.
	offsets := make([]int, l.n+1)
	dropped := 0
	for i, o := range obs {
		if !isFinite(o.X) || !isFinite(o.Y) || o.X < xMin || o.X > xMax {
			assign[i] = -1
			dropped++

			continue
		}
		b := l.index(o.X)
		assign[i] = b
		offsets[b+1]++
	}
	for b := 1; b <= l.n; b++ {
		offsets[b] += offsets[b-1]
	}

	ys, cleanupYs := pool.GetFloat64Slice(len(obs) - dropped)
	defer cleanupYs()
	next, cleanupNext := pool.GetIntSlice(l.n)
	defer cleanupNext()
	copy(next, offsets[:l.n])
	for i, b := range assign {
		if b < 0 {
			continue
		}
		ys[next[b]] = obs[i].Y
		next[b]++
	}

	set := &SegmentSet{
		Params: Params{
			XMin:      xMin,
			XMax:      xMax,
			Bins:      l.n,
			Width:     l.width,
			Summary:   cfg.Summary,
			Threshold: cfg.Threshold,
			Positive:  cfg.Positive,
		},
		Dropped: dropped,
	}

	for b := range l.n {
		vals := ys[offsets[b]:offsets[b+1]]
		if len(vals) == 0 {
			continue
		}

		value := summarize(cfg, vals)
		status := Below
		if value >= cfg.Threshold {
			status = AtOrAbove
		}
		lo, hi := l.lo(b), l.hi(b)
		set.Segments = append(set.Segments, Segment{
			Lo:     lo,
			Hi:     hi,
			Index:  b,
			N:      len(vals),
			Value:  value,
			Start:  Point{X: lo, Y: value},
			End:    Point{X: hi, Y: value},
			Status: status,
		})
	}

	return set, nil
}

// layout describes n equal-width bins starting at xMin; the last bin ends at
// xMax and may be narrower than width.
type layout struct {
	xMin  float64
	xMax  float64
	width float64
	n     int
}

func newLayout(xMin, xMax float64, cfg Config) (layout, error) {
	if !isFinite(xMin) || !isFinite(xMax) {
		return layout{}, fmt.Errorf("%w: domain [%g, %g] is not finite", errs.ErrInvalidBinningParameters, xMin, xMax)
	}
	if xMin >= xMax {
		return layout{}, fmt.Errorf("%w: x_min %g must be less than x_max %g", errs.ErrInvalidBinningParameters, xMin, xMax)
	}

	span := xMax - xMin
	switch {
	case cfg.Bins > MaxBins:
		return layout{}, fmt.Errorf("%w: %d bins, limit is %d", errs.ErrInvalidBinningParameters, cfg.Bins, MaxBins)
	case cfg.Bins > 0:
		return layout{xMin: xMin, xMax: xMax, width: span / float64(cfg.Bins), n: cfg.Bins}, nil
	case cfg.Width > 0:
		count := math.Ceil(span / cfg.Width)
		if count > MaxBins {
			return layout{}, fmt.Errorf("%w: width %g yields %g bins, limit is %d",
				errs.ErrInvalidBinningParameters, cfg.Width, count, MaxBins)
		}
		l := layout{xMin: xMin, xMax: xMax, width: cfg.Width, n: max(int(count), 1)}
		// rounding in span/width can add a bin that starts at xMax
		for l.n > 1 && l.lo(l.n-1) >= xMax {
			l.n--
		}

		return l, nil
	default:
		return layout{xMin: xMin, xMax: xMax, width: span / DefaultBins, n: DefaultBins}, nil
	}
}

func (l layout) lo(b int) float64 {
	if b == 0 {
		return l.xMin
	}

	return l.xMin + float64(b)*l.width
}

func (l layout) hi(b int) float64 {
	if b == l.n-1 {
		return l.xMax
	}

	return l.lo(b + 1)
}

// index returns the bin holding x, which must lie in [xMin, xMax]. Values on
// an interior boundary belong to the upper bin.
func (l layout) index(x float64) int {
	if x >= l.xMax {
		return l.n - 1
	}

	b := min(int((x-l.xMin)/l.width), l.n-1)
	if b > 0 && x < l.lo(b) {
		b--
	}
	if b+1 < l.n && x >= l.lo(b+1) {
		b++
	}

	return b
}

// summarize computes the configured statistic. vals is scratch and may be
// reordered.
func summarize(cfg Config, vals []float64) float64 {
	switch cfg.Summary {
	case Rate:
		hits := 0
		for _, y := range vals {
			if y == cfg.Positive {
				hits++
			}
		}

		return float64(hits) / float64(len(vals))
	case Count:
		return float64(len(vals))
	case Median:
		slices.Sort(vals)
		mid := len(vals) / 2
		if len(vals)%2 == 1 {
			return vals[mid]
		}

		return (vals[mid-1] + vals[mid]) / 2
	default:
		return stat.Mean(vals, nil)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
