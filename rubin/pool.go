package rubin

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/prcurve/prcurve/curve"
	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/internal/options"
	"github.com/prcurve/prcurve/internal/pool"
)

// Pool combines M >= 1 predicted curves into a pooled curve.
//
// With M = 1 the between-imputation variance is zero and the pooled curve
// reproduces the single curve's estimate and standard error.
//
// Returns errs.ErrEmptyInput for no curves, errs.ErrGridMismatch when the
// curves differ in grid length, reference index or positions, and
// errs.ErrInvalidConfidenceLevel for a bad level option.
func Pool(curves []*curve.Predicted, opts ...Option) (*curve.Pooled, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if len(curves) == 0 {
		return nil, fmt.Errorf("%w: no curves to pool", errs.ErrEmptyInput)
	}
	if err := checkGrids(curves); err != nil {
		return nil, err
	}

	m := len(curves)
	first := curves[0]
	n := first.Len()
	out := &curve.Pooled{
		Grid:    first.Grid,
		M:       m,
		Level:   cfg.Level,
		Pred:    make([]float64, n),
		SE:      make([]float64, n),
		Lower:   make([]float64, n),
		Upper:   make([]float64, n),
		Within:  make([]float64, n),
		Between: make([]float64, n),
		Total:   make([]float64, n),
		DF:      make([]float64, n),
	}

	preds, cleanupPreds := pool.GetFloat64Slice(m)
	defer cleanupPreds()
	vars, cleanupVars := pool.GetFloat64Slice(m)
	defer cleanupVars()

	alpha := (1 - cfg.Level) / 2
	z := distuv.UnitNormal.Quantile(1 - alpha)

	for r := range n {
		for i, c := range curves {
			preds[i] = c.Pred[r]
			vars[i] = c.SE[r] * c.SE[r]
		}

		mean := sampleMean(preds)
		within := sampleMean(vars)
		between := sampleVariance(preds)
		total := within + between + between/float64(m)

		q := z
		df := math.Inf(1)
		if cfg.StudentT {
			df = degreesOfFreedom(m, within, between, cfg.CompleteDF)
			if !math.IsInf(df, 1) {
				q = distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(1 - alpha)
			}
		}

		se := math.Sqrt(total)
		out.Pred[r] = mean
		out.Within[r] = within
		out.Between[r] = between
		out.Total[r] = total
		out.SE[r] = se
		out.DF[r] = df
		out.Lower[r] = mean - q*se
		out.Upper[r] = mean + q*se
	}

	return out, nil
}

// sampleMean returns the arithmetic mean. Identical values return that value
// exactly, so pooling copies of one curve reproduces it bit for bit.
func sampleMean(xs []float64) float64 {
	if allEqual(xs) {
		return xs[0]
	}

	return stat.Mean(xs, nil)
}

// sampleVariance returns the unbiased sample variance, and 0 for fewer than
// two values or identical values.
func sampleVariance(xs []float64) float64 {
	if len(xs) < 2 || allEqual(xs) {
		return 0
	}

	return stat.Variance(xs, nil)
}

func allEqual(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}

	return true
}

// degreesOfFreedom returns Rubin's degrees of freedom for the pooled estimate,
// adjusted with Barnard–Rubin when completeDF > 0. Without between-imputation
// variance it is +Inf, or the observed complete-data df when completeDF > 0.
func degreesOfFreedom(m int, within, between, completeDF float64) float64 {
	if m < 2 || between <= 0 {
		if completeDF > 0 {
			return observedDF(completeDF, 0)
		}

		return math.Inf(1)
	}

	total := within + (1+1/float64(m))*between
	lambda := (1 + 1/float64(m)) * between / total
	old := float64(m-1) / (lambda * lambda)
	if completeDF <= 0 {
		return old
	}

	observed := observedDF(completeDF, lambda)
	if observed <= 0 {
		return old
	}

	return old * observed / (old + observed)
}

// observedDF is the Barnard–Rubin observed-data degrees of freedom.
func observedDF(completeDF, lambda float64) float64 {
	return (completeDF + 1) / (completeDF + 3) * completeDF * (1 - lambda)
}

func checkGrids(curves []*curve.Predicted) error {
	first := curves[0]
	if first == nil {
		return fmt.Errorf("%w: curve 1 is nil", errs.ErrEmptyInput)
	}
	n := first.Len()
	if len(first.SE) != n || first.Grid.Len() != n {
		return fmt.Errorf("%w: curve 1 has %d predictions, %d standard errors and %d grid positions",
			errs.ErrGridMismatch, n, len(first.SE), first.Grid.Len())
	}

	for i, c := range curves[1:] {
		if c == nil {
			return fmt.Errorf("%w: curve %d is nil", errs.ErrEmptyInput, i+2)
		}
		if c.Len() != n || len(c.SE) != n {
			return fmt.Errorf("%w: curve %d has %d rows, curve 1 has %d", errs.ErrGridMismatch, i+2, c.Len(), n)
		}
		if c.Grid.Ref != first.Grid.Ref {
			return fmt.Errorf("%w: curve %d reference index %d, curve 1 has %d",
				errs.ErrGridMismatch, i+2, c.Grid.Ref, first.Grid.Ref)
		}
		if !c.Grid.Equal(first.Grid) {
			return fmt.Errorf("%w: curve %d positions differ from curve 1", errs.ErrGridMismatch, i+2)
		}
	}

	return nil
}
