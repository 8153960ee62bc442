// Package predict turns one fitted model into a centered prediction curve with
// analytic standard errors.
//
// Given the fit's coefficient vector β and covariance Σ, a design matrix X
// holding the spline basis evaluated on a grid, and a TermMap selecting the
// predictor-of-interest columns, the curve at grid row r is
//
//	pred[r] = (X[r] - X[ref]) · β
//	var[r]  = (X[r] - X[ref])ᵗ Σ (X[r] - X[ref])
//
// restricted to the mapped terms. Intercept and other covariates cancel under
// centering and are never part of the TermMap. The difference with the
// reference row is taken before the quadratic form, so the covariance between
// each row and the reference is accounted for and pred[ref] and se[ref] are
// exactly zero.
//
// Negative variances from floating-point cancellation are clamped to zero and
// reported in curve.Predicted.Clamped; they never produce a negative or NaN
// standard error.
package predict
