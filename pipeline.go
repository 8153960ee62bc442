package prcurve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prcurve/prcurve/binning"
	"github.com/prcurve/prcurve/curve"
	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/grid"
	"github.com/prcurve/prcurve/internal/options"
	"github.com/prcurve/prcurve/predict"
	"github.com/prcurve/prcurve/rubin"
	"github.com/prcurve/prcurve/spline"
)

// Model is the fit-time description of the curve: the basis evaluator, the
// term mapping into the coefficient vector, and the prediction grid.
type Model struct {
	Evaluator *spline.Evaluator
	Terms     spline.TermMap
	Grid      grid.Grid
}

// NewModel maps every basis column to the coefficient of the same name in
// coefNames and prepares evaluation on g.
//
// The term map has exactly basis.Dim() terms, so the evaluator is pinned to
// that column count. Evaluation then fails with ErrDimensionMismatch only when
// a Basis implementation returns a design matrix that disagrees with its own
// Dim and Names.
func NewModel(basis spline.Basis, coefNames []string, g grid.Grid) (Model, error) {
	if basis == nil {
		return Model{}, fmt.Errorf("%w: nil basis", errs.ErrEmptyInput)
	}
	terms, err := spline.NewTermMap(coefNames, basis)
	if err != nil {
		return Model{}, err
	}
	eval, err := spline.NewEvaluator(basis, basis.Dim())
	if err != nil {
		return Model{}, err
	}

	return Model{Evaluator: eval, Terms: terms, Grid: g}, nil
}

// Result is the output of Analyze and Run.
type Result struct {
	// Curve is the pooled curve.
	Curve *curve.Pooled
	// Imputations holds the per-imputation curves in fit order.
	Imputations []*curve.Predicted
	// Segments holds the empirical segments when binning was enabled in Run.
	Segments *binning.SegmentSet
}

// Clamped returns the total number of clamped variances over all imputations.
func (r *Result) Clamped() int {
	n := 0
	for _, c := range r.Imputations {
		n += len(c.Clamped)
	}

	return n
}

// Analyze predicts a centered curve for each fit in parallel and pools them.
func Analyze(ctx context.Context, fits []Fit, model Model, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return analyze(ctx, fits, model, cfg)
}

func analyze(ctx context.Context, fits []Fit, model Model, cfg Config) (*Result, error) {
	if model.Evaluator == nil {
		return nil, fmt.Errorf("%w: model has no basis evaluator", errs.ErrDimensionMismatch)
	}

	start := time.Now()
	design, err := model.Evaluator.Evaluate(model.Grid)
	if err != nil {
		return nil, fmt.Errorf("evaluate basis: %w", err)
	}

	curves, err := predict.PredictAll(ctx, fits, design, model.Terms, model.Grid,
		predict.WithLogger(cfg.Logger),
		predict.WithConcurrency(cfg.Concurrency),
	)
	if err != nil {
		return nil, err
	}

	pooled, err := rubin.Pool(curves, cfg.PoolOptions...)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}

	res := &Result{Curve: pooled, Imputations: curves}
	cfg.Logger.Info("Pooled curve",
		zap.Int("imputations", pooled.M),
		zap.Int("rows", pooled.Len()),
		zap.Float64("level", pooled.Level),
		zap.Int("clamped", res.Clamped()),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

// Run imputes data, fits design on every imputed dataset in parallel, and
// pools the resulting curves. With WithBinning it also segments the stacked
// imputed observations, concurrently with fitting.
func Run(ctx context.Context, data Dataset, imputer Imputer, fitter Fitter, design Design, model Model, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if imputer == nil || fitter == nil {
		return nil, fmt.Errorf("%w: run needs both an imputer and a fitter", errs.ErrEmptyInput)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: no dataset", errs.ErrEmptyInput)
	}
	if err := design.Validate(); err != nil {
		return nil, err
	}

	cfg.Logger.Debug("Imputing", zap.Int("m", cfg.Imputations), zap.Int("rows", data.Len()))
	datasets, err := imputer.Impute(ctx, data, cfg.Methods, cfg.Imputations)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	if len(datasets) == 0 {
		return nil, fmt.Errorf("%w: imputer returned no datasets", errs.ErrEmptyInput)
	}
	for i, ds := range datasets {
		if ds == nil {
			return nil, fmt.Errorf("%w: imputer returned nil dataset %d", errs.ErrEmptyInput, i+1)
		}
	}

	fits := make([]Fit, len(datasets))
	var segments *binning.SegmentSet

	eg, egCtx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		eg.SetLimit(cfg.Concurrency)
	}
	for i, ds := range datasets {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			fit, err := fitter.Fit(egCtx, ds, design)
			if err != nil {
				return fmt.Errorf("fit imputation %d: %w", i+1, err)
			}
			fits[i] = fit
			cfg.Logger.Debug("Fitted imputation", zap.Int("imputation", i+1))

			return nil
		})
	}
	if cfg.Binning {
		eg.Go(func() error {
			obs, err := StackObservations(datasets, design.Predictor, design.Outcome)
			if err != nil {
				return err
			}
			set, err := binning.Segments(obs, model.Grid.Min(), model.Grid.Max(), cfg.BinOptions...)
			if err != nil {
				return fmt.Errorf("bin observations: %w", err)
			}
			segments = set
			cfg.Logger.Debug("Binned observations",
				zap.Int("segments", set.Len()),
				zap.Int("dropped", set.Dropped))

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res, err := analyze(ctx, fits, model, cfg)
	if err != nil {
		return nil, err
	}
	res.Segments = segments

	return res, nil
}
