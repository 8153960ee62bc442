// Package curve defines the immutable curve types produced by prediction and
// pooling and consumed at the rendering boundary.
//
// Values are on the centered log-prevalence-ratio scale: every curve is zero
// at its grid's reference position. Use the Ratio helpers to move to the
// prevalence-ratio scale.
package curve

import (
	"fmt"
	"math"
	"slices"

	"github.com/prcurve/prcurve/grid"
)

// Clamp records a grid row whose variance came out negative from
// floating-point cancellation and was clamped to zero.
type Clamp struct {
	// Row is the grid row index.
	Row int
	// Variance is the value before clamping.
	Variance float64
}

// Predicted is one imputation's centered curve with analytic standard errors.
type Predicted struct {
	// Grid is the prediction grid.
	Grid grid.Grid
	// Pred is the centered linear predictor per grid row.
	Pred []float64
	// SE is the standard error of Pred per grid row.
	SE []float64
	// Clamped lists rows whose variance was clamped to zero.
	Clamped []Clamp
}

// Len returns the number of grid rows.
func (p *Predicted) Len() int { return len(p.Pred) }

// Variance returns SE[i]^2.
func (p *Predicted) Variance(i int) float64 { return p.SE[i] * p.SE[i] }

// String returns a short description.
func (p *Predicted) String() string {
	return fmt.Sprintf("Predicted{%s, Clamped: %d}", p.Grid, len(p.Clamped))
}

// Pooled is the combined curve across imputations.
type Pooled struct {
	// Grid is the shared prediction grid.
	Grid grid.Grid
	// M is the number of pooled imputations.
	M int
	// Level is the confidence level of Lower/Upper, e.g. 0.95.
	Level float64
	// Pred is the mean of the per-imputation predictions.
	Pred []float64
	// SE is sqrt(Total).
	SE []float64
	// Lower and Upper are the confidence bounds on the centered log scale.
	Lower []float64
	Upper []float64
	// Within is the mean per-imputation sampling variance.
	Within []float64
	// Between is the sample variance of the predictions across imputations.
	Between []float64
	// Total is Within + (1 + 1/M) * Between.
	Total []float64
	// DF holds the degrees of freedom of the interval quantile per row;
	// +Inf when the standard-normal quantile was used.
	DF []float64
}

// Len returns the number of grid rows.
func (p *Pooled) Len() int { return len(p.Pred) }

// Width returns Upper[i] - Lower[i].
func (p *Pooled) Width(i int) float64 { return p.Upper[i] - p.Lower[i] }

// Ratio returns the estimate and bounds at row i on the prevalence-ratio scale.
func (p *Pooled) Ratio(i int) (est, lower, upper float64) {
	return math.Exp(p.Pred[i]), math.Exp(p.Lower[i]), math.Exp(p.Upper[i])
}

// Ratios returns the prevalence-ratio scale estimate and bounds for every row.
func (p *Pooled) Ratios() (est, lower, upper []float64) {
	n := p.Len()
	est = make([]float64, n)
	lower = make([]float64, n)
	upper = make([]float64, n)
	for i := range n {
		est[i], lower[i], upper[i] = p.Ratio(i)
	}

	return est, lower, upper
}

// RelativeIncrease returns the relative increase in variance due to
// nonresponse, (1 + 1/M) * Between / Within, per row. Rows with zero within
// variance yield 0 when Between is also 0 and +Inf otherwise.
func (p *Pooled) RelativeIncrease() []float64 {
	out := make([]float64, p.Len())
	inflate := 1 + 1/float64(p.M)
	for i := range out {
		b := inflate * p.Between[i]
		switch {
		case b == 0:
			out[i] = 0
		case p.Within[i] == 0:
			out[i] = math.Inf(1)
		default:
			out[i] = b / p.Within[i]
		}
	}

	return out
}

// FractionMissing returns the proportion of the total variance attributable
// to missing data, (1 + 1/M) * Between / Total, per row. Rows with zero total
// variance yield 0.
func (p *Pooled) FractionMissing() []float64 {
	out := make([]float64, p.Len())
	inflate := 1 + 1/float64(p.M)
	for i := range out {
		if p.Total[i] > 0 {
			out[i] = inflate * p.Between[i] / p.Total[i]
		}
	}

	return out
}

// Clone returns a deep copy.
func (p *Pooled) Clone() *Pooled {
	c := *p
	c.Grid = grid.Grid{X: slices.Clone(p.Grid.X), Ref: p.Grid.Ref}
	c.Pred = slices.Clone(p.Pred)
	c.SE = slices.Clone(p.SE)
	c.Lower = slices.Clone(p.Lower)
	c.Upper = slices.Clone(p.Upper)
	c.Within = slices.Clone(p.Within)
	c.Between = slices.Clone(p.Between)
	c.Total = slices.Clone(p.Total)
	c.DF = slices.Clone(p.DF)

	return &c
}

// String returns a short description.
func (p *Pooled) String() string {
	return fmt.Sprintf("Pooled{%s, M: %d, Level: %.3f}", p.Grid, p.M, p.Level)
}
