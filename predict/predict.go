package predict

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/prcurve/prcurve/curve"
	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/grid"
	"github.com/prcurve/prcurve/internal/options"
	"github.com/prcurve/prcurve/internal/pool"
	"github.com/prcurve/prcurve/spline"
)

// Predict computes the centered curve and its standard errors for one fit.
//
// Parameters:
//   - fit: coefficients and covariance of the fitted model
//   - design: basis evaluated on g, one row per grid position
//   - terms: mapping of design columns to coefficient indices
//   - g: the prediction grid; g.Ref selects the reference row
//
// Returns:
//   - *curve.Predicted: curve with Pred[g.Ref] == 0 and SE[g.Ref] == 0
//   - error: errs.ErrDimensionMismatch for inconsistent shapes or indices,
//     errs.ErrNumericInstability for non-finite results
func Predict(fit Fit, design mat.Matrix, terms spline.TermMap, g grid.Grid, opts ...Option) (*curve.Predicted, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if err := fit.Validate(); err != nil {
		return nil, err
	}
	if design == nil {
		return nil, fmt.Errorf("%w: nil design matrix", errs.ErrDimensionMismatch)
	}
	rows, cols := design.Dims()
	if rows != g.Len() {
		return nil, fmt.Errorf("%w: design has %d rows, grid has %d positions",
			errs.ErrDimensionMismatch, rows, g.Len())
	}
	if g.Ref < 0 || g.Ref >= rows {
		return nil, fmt.Errorf("%w: reference row %d out of range [0, %d)",
			errs.ErrDimensionMismatch, g.Ref, rows)
	}
	if err := terms.Validate(len(fit.Coefficients), cols); err != nil {
		return nil, err
	}

	termCols := terms.Columns()
	coefIdx := terms.Coefficients()
	k := len(termCols)

	beta := make([]float64, k)
	for j, c := range coefIdx {
		beta[j] = fit.Coefficients[c]
	}
	sigma := mat.NewSymDense(k, nil)
	for a := range k {
		for b := a; b < k; b++ {
			sigma.SetSym(a, b, fit.Covariance.At(coefIdx[a], coefIdx[b]))
		}
	}

	ref, cleanupRef := pool.GetFloat64Slice(k)
	defer cleanupRef()
	for j, c := range termCols {
		ref[j] = design.At(g.Ref, c)
	}

	diff, cleanupDiff := pool.GetFloat64Slice(k)
	defer cleanupDiff()
	dVec := mat.NewVecDense(k, diff)

	out := &curve.Predicted{
		Grid: g,
		Pred: make([]float64, rows),
		SE:   make([]float64, rows),
	}

	for r := range rows {
		var pred float64
		for j, c := range termCols {
			diff[j] = design.At(r, c) - ref[j]
			pred += diff[j] * beta[j]
		}

		variance := mat.Inner(dVec, sigma, dVec)
		if math.IsNaN(pred) || math.IsInf(pred, 0) || math.IsNaN(variance) || math.IsInf(variance, 0) {
			return nil, fmt.Errorf("%w: non-finite prediction at row %d (x=%g)",
				errs.ErrNumericInstability, r, g.X[r])
		}
		if variance < 0 {
			out.Clamped = append(out.Clamped, curve.Clamp{Row: r, Variance: variance})
			cfg.Logger.Warn("negative variance clamped to zero",
				zap.String("fit", cfg.Label),
				zap.Int("row", r),
				zap.Float64("x", g.X[r]),
				zap.Float64("variance", variance),
				zap.Error(errs.ErrNumericInstability))
			variance = 0
		}

		out.Pred[r] = pred
		out.SE[r] = math.Sqrt(variance)
	}

	return out, nil
}

// PredictAll runs Predict for every fit in parallel against the same design
// matrix and grid. Results keep the order of fits. The first error cancels the
// remaining work and is returned.
func PredictAll(ctx context.Context, fits []Fit, design mat.Matrix, terms spline.TermMap, g grid.Grid, opts ...Option) ([]*curve.Predicted, error) {
	if len(fits) == 0 {
		return nil, fmt.Errorf("%w: no fits to predict", errs.ErrEmptyInput)
	}

	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	curves := make([]*curve.Predicted, len(fits))
	eg, egCtx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		eg.SetLimit(cfg.Concurrency)
	}

	for i, fit := range fits {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			label := fmt.Sprintf("imputation %d", i+1)
			if cfg.Label != "" {
				label = cfg.Label + "/" + label
			}
			c, err := Predict(fit, design, terms, g, WithLogger(cfg.Logger), WithLabel(label))
			if err != nil {
				return fmt.Errorf("imputation %d: %w", i+1, err)
			}
			curves[i] = c

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return curves, nil
}
