// Package prcurve estimates covariate-adjusted prevalence-ratio curves from
// regressions fitted over multiply-imputed datasets.
//
// A curve is the fitted spline effect of one continuous predictor, centered
// at a reference value, on the log prevalence-ratio scale. Each imputed
// dataset is fitted once; every fit is turned into a centered curve with
// delta-method standard errors, and the curves are pooled with Rubin's rules
// into one estimate with a confidence band:
//
//	imputer → M datasets → fitter → M fits
//	        → predict (parallel) → rubin.Pool → curve.Pooled
//
// Independently, the raw observations of all imputations can be stacked and
// summarized per bin (package binning) to check the curve against the data.
//
// # Basic Usage
//
// When the fits are already available:
//
//	basis, _ := spline.NewRestrictedCubic("rcs(age)", []float64{25, 40, 55, 70})
//	g, _ := grid.Step(20, 80, 1, 50)
//	model, _ := prcurve.NewModel(basis, coefNames, g)
//	res, _ := prcurve.Analyze(ctx, fits, model)
//	est, lower, upper := res.Curve.Ratios()
//
// To drive imputation and fitting as well, implement Imputer and Fitter and
// call Run.
//
// # Package Structure
//
// This package wires the stages together. The stages are usable on their
// own: spline (bases and term mapping), predict (one fit to one curve), rubin
// (pooling), binning (empirical segments) and artifact (output tables).
package prcurve

import (
	"context"
	"fmt"

	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/predict"
)

// Fit is one fitted regression: coefficients, covariance and term names.
type Fit = predict.Fit

// Model families understood by typical Fitter implementations. Both use a
// log link so that centered predictions are log prevalence ratios.
const (
	FamilyPoisson  = "poisson"
	FamilyBinomial = "binomial"
)

// Design describes the regression a Fitter should fit on each dataset.
type Design struct {
	// Outcome is the binary outcome column.
	Outcome string
	// Predictor is the continuous predictor expanded with the spline basis.
	Predictor string
	// Covariates are adjusted for but not part of the curve.
	Covariates []string
	// Cluster names a column for cluster-robust covariance; empty for none.
	Cluster string
	// Family is FamilyPoisson (modified Poisson) or FamilyBinomial (log-binomial).
	Family string
}

// Validate checks that the outcome and predictor are named.
func (d Design) Validate() error {
	if d.Outcome == "" || d.Predictor == "" {
		return fmt.Errorf("%w: design needs an outcome and a predictor", errs.ErrMissingColumn)
	}

	return nil
}

// Columns returns every column the design reads, outcome first.
func (d Design) Columns() []string {
	cols := make([]string, 0, 3+len(d.Covariates))
	cols = append(cols, d.Outcome, d.Predictor)
	cols = append(cols, d.Covariates...)
	if d.Cluster != "" {
		cols = append(cols, d.Cluster)
	}

	return cols
}

// Imputer produces m completed copies of a dataset with missing values
// filled in. methods maps column names to imputation method names and may be
// nil for the imputer's defaults.
type Imputer interface {
	Impute(ctx context.Context, data Dataset, methods map[string]string, m int) ([]Dataset, error)
}

// Fitter fits the design on one completed dataset.
type Fitter interface {
	Fit(ctx context.Context, data Dataset, design Design) (Fit, error)
}
