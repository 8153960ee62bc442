// Package spline evaluates fit-time spline bases at new prediction points and
// maps basis columns onto regression coefficients.
//
// A Basis captures its knots, degree and boundary convention when it is built
// and never re-derives them, so evaluating it on a prediction grid yields
// columns that are dimensionally and semantically identical to the design
// matrix used when the model was fit.
//
// # Bases
//
//   - BSpline: Cox–de Boor B-spline basis of any degree. Beyond the boundary
//     knots the boundary polynomial piece is continued.
//   - RestrictedCubic: natural cubic spline in the truncated-power
//     parameterisation, linear beyond the outer knots.
//
// # Term mapping
//
// Regression software reports coefficients under stable term names. A TermMap
// pairs each basis column with its coefficient index once, at model-build time,
// and is then passed explicitly to prediction:
//
//	basis, _ := spline.NewRestrictedCubic("rcs(age)", knots)
//	terms, _ := spline.NewTermMap(fit.Names, basis)
//	eval, _ := spline.NewEvaluator(basis, terms.Len())
//	design, _ := eval.Evaluate(g)
package spline
