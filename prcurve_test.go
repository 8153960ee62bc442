package prcurve

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/prcurve/prcurve/binning"
	"github.com/prcurve/prcurve/curve"
	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/grid"
	"github.com/prcurve/prcurve/predict"
	"github.com/prcurve/prcurve/rubin"
	"github.com/prcurve/prcurve/spline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var coefNames = []string{"(Intercept)", "rcs(age)1", "rcs(age)2", "rcs(age)3", "sex"}

func testModel(t testing.TB) Model {
	t.Helper()
	basis, err := spline.NewRestrictedCubic("rcs(age)", []float64{25, 40, 55, 70})
	require.NoError(t, err)
	g, err := grid.Step(20, 80, 5, 50)
	require.NoError(t, err)
	model, err := NewModel(basis, coefNames, g)
	require.NoError(t, err)

	return model
}

func testFit(t testing.TB, shift float64) Fit {
	t.Helper()
	cov, err := predict.NewCovariance([][]float64{
		{0.090, -0.0020, 0.0010, -0.0005, 0.0003},
		{-0.0020, 0.00040, -0.00010, 0.00005, 0},
		{0.0010, -0.00010, 0.00030, -0.00008, 0},
		{-0.0005, 0.00005, -0.00008, 0.00020, 0},
		{0.0003, 0, 0, 0, 0.0100},
	})
	require.NoError(t, err)

	return Fit{
		Coefficients: []float64{-1.4, 0.021 + shift, 0.012 - shift, -0.006, 0.18},
		Covariance:   cov,
		Names:        coefNames,
	}
}

// fakeImputer returns m copies of the data with a constant "shift" column
// holding the imputation index scaled by 0.001.
type fakeImputer struct {
	mu      sync.Mutex
	m       int
	methods map[string]string
	err     error
	empty   bool
	nilAt   int // 1-based imputation left nil; 0 for none
}

func (f *fakeImputer) Impute(_ context.Context, data Dataset, methods map[string]string, m int) ([]Dataset, error) {
	f.mu.Lock()
	f.m, f.methods = m, methods
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return nil, nil
	}

	age, _ := data.Column("age")
	prevalent, _ := data.Column("prevalent")
	out := make([]Dataset, m)
	for i := range out {
		shift := make([]float64, data.Len())
		for r := range shift {
			shift[r] = float64(i) * 0.001
		}
		tbl, err := NewTable(map[string][]float64{"age": age, "prevalent": prevalent, "shift": shift})
		if err != nil {
			return nil, err
		}
		if i+1 != f.nilAt {
			out[i] = tbl
		}
	}

	return out, nil
}

// fakeFitter builds a fit whose spline coefficients move with the dataset's
// shift column; it fails on failOn (1-based) when set.
type fakeFitter struct {
	t      testing.TB
	failOn float64
}

func (f *fakeFitter) Fit(ctx context.Context, data Dataset, design Design) (Fit, error) {
	if err := ctx.Err(); err != nil {
		return Fit{}, err
	}
	shift, ok := data.Column("shift")
	if !ok || len(shift) == 0 {
		return Fit{}, errors.New("no shift column")
	}
	if f.failOn > 0 && shift[0] == (f.failOn-1)*0.001 {
		return Fit{}, errors.New("did not converge")
	}

	return testFit(f.t, shift[0]), nil
}

func testData(t testing.TB) *Table {
	t.Helper()
	const n = 300
	age := make([]float64, n)
	prevalent := make([]float64, n)
	for i := range age {
		age[i] = 20 + 60*(float64(i)+0.5)/n
		prevalent[i] = float64(i % 2)
	}
	tbl, err := NewTable(map[string][]float64{"age": age, "prevalent": prevalent})
	require.NoError(t, err)

	return tbl
}

var testDesign = Design{Outcome: "prevalent", Predictor: "age", Covariates: []string{"sex"}, Family: FamilyPoisson}

func TestAnalyze_IdenticalFits(t *testing.T) {
	model := testModel(t)
	fits := []Fit{testFit(t, 0), testFit(t, 0), testFit(t, 0)}

	res, err := Analyze(context.Background(), fits, model)
	require.NoError(t, err)
	require.Len(t, res.Imputations, 3)

	single := res.Imputations[0]
	require.Equal(t, single.Pred, res.Curve.Pred)
	require.Equal(t, single.SE, res.Curve.SE)
	for r := range model.Grid.Len() {
		require.Zero(t, res.Curve.Between[r])
	}
	require.Zero(t, res.Curve.Pred[model.Grid.Ref])
	require.Zero(t, res.Curve.SE[model.Grid.Ref])
}

func TestAnalyze_MatchesSequential(t *testing.T) {
	model := testModel(t)
	fits := make([]Fit, 8)
	for i := range fits {
		fits[i] = testFit(t, float64(i)*0.002)
	}

	res, err := Analyze(context.Background(), fits, model,
		WithConcurrency(3),
		WithPoolOptions(rubin.WithConfidenceLevel(0.9)),
	)
	require.NoError(t, err)

	design, err := model.Evaluator.Evaluate(model.Grid)
	require.NoError(t, err)
	curves := make([]*curve.Predicted, len(fits))
	for i, fit := range fits {
		curves[i], err = predict.Predict(fit, design, model.Terms, model.Grid)
		require.NoError(t, err)
	}
	want, err := rubin.Pool(curves, rubin.WithConfidenceLevel(0.9))
	require.NoError(t, err)

	if diff := cmp.Diff(want, res.Curve, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("pooled curve mismatch (-want +got):\n%s", diff)
	}
	require.InDelta(t, 0.9, res.Curve.Level, 0)

	for r := range model.Grid.Len() {
		if r == model.Grid.Ref {
			continue
		}
		assert.Positive(t, res.Curve.Between[r], "row %d", r)
	}
}

// widenedBasis reports the wrapped basis' Dim and Names but evaluates to one
// extra column.
type widenedBasis struct {
	spline.Basis
}

func (b widenedBasis) Evaluate(xs []float64) (*mat.Dense, error) {
	design, err := b.Basis.Evaluate(xs)
	if err != nil {
		return nil, err
	}
	r, c := design.Dims()
	out := mat.NewDense(r, c+1, nil)
	out.Slice(0, r, 0, c).(*mat.Dense).Copy(design)

	return out, nil
}

func TestNewModel_BasisDisagreesWithDim(t *testing.T) {
	basis, err := spline.NewRestrictedCubic("rcs(age)", []float64{25, 40, 55, 70})
	require.NoError(t, err)
	g, err := grid.Step(20, 80, 5, 50)
	require.NoError(t, err)

	model, err := NewModel(widenedBasis{basis}, coefNames, g)
	require.NoError(t, err)
	require.Equal(t, basis.Dim(), model.Evaluator.Columns())
	require.Equal(t, basis.Dim(), model.Terms.Len())

	_, err = Analyze(context.Background(), []Fit{testFit(t, 0)}, model)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	_, err = NewModel(nil, coefNames, g)
	require.ErrorIs(t, err, errs.ErrEmptyInput)
}

func TestAnalyze_Errors(t *testing.T) {
	model := testModel(t)

	_, err := Analyze(context.Background(), nil, model)
	require.ErrorIs(t, err, errs.ErrEmptyInput)

	_, err = Analyze(context.Background(), []Fit{testFit(t, 0)}, Model{Grid: model.Grid})
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	bad := testFit(t, 0)
	bad.Coefficients = bad.Coefficients[:3]
	_, err = Analyze(context.Background(), []Fit{testFit(t, 0), bad}, model)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
	require.Contains(t, err.Error(), "imputation 2")

	_, err = Analyze(context.Background(), []Fit{testFit(t, 0)}, model,
		WithPoolOptions(rubin.WithConfidenceLevel(1.5)))
	require.ErrorIs(t, err, errs.ErrInvalidConfidenceLevel)
}

func TestRun(t *testing.T) {
	model := testModel(t)
	imputer := &fakeImputer{}
	methods := map[string]string{"age": "pmm"}

	core, logs := observer.New(zapcore.InfoLevel)
	res, err := Run(context.Background(), testData(t), imputer, &fakeFitter{t: t}, testDesign, model,
		WithImputations(6),
		WithMethods(methods),
		WithConcurrency(2),
		WithLogger(zap.New(core)),
		WithBinning(binning.WithBinWidth(10), binning.WithSummary(binning.Rate)),
	)
	require.NoError(t, err)

	require.Equal(t, 6, imputer.m)
	require.Equal(t, methods, imputer.methods)
	require.Equal(t, 6, res.Curve.M)
	require.Len(t, res.Imputations, 6)
	require.Zero(t, res.Curve.Pred[model.Grid.Ref])
	require.Zero(t, res.Clamped())

	require.NotNil(t, res.Segments)
	require.Equal(t, 6, res.Segments.Params.Bins)
	require.Equal(t, 6*300, res.Segments.Observations())
	for _, seg := range res.Segments.Segments {
		assert.InDelta(t, 0.5, seg.Value, 0.01)
		assert.Equal(t, binning.AtOrAbove, seg.Status)
	}

	entries := logs.FilterMessage("Pooled curve").All()
	require.Len(t, entries, 1)
	require.Equal(t, int64(6), entries[0].ContextMap()["imputations"])
}

func TestRun_WithoutBinning(t *testing.T) {
	res, err := Run(context.Background(), testData(t), &fakeImputer{}, &fakeFitter{t: t}, testDesign, testModel(t),
		WithImputations(2))
	require.NoError(t, err)
	require.Nil(t, res.Segments)
	require.Equal(t, 2, res.Curve.M)
}

func TestRun_Errors(t *testing.T) {
	model := testModel(t)
	data := testData(t)
	ctx := context.Background()

	t.Run("fit failure", func(t *testing.T) {
		_, err := Run(ctx, data, &fakeImputer{}, &fakeFitter{t: t, failOn: 3}, testDesign, model, WithImputations(4))
		require.Error(t, err)
		require.Contains(t, err.Error(), "fit imputation 3")
	})

	t.Run("imputer failure", func(t *testing.T) {
		boom := errors.New("chain did not converge")
		_, err := Run(ctx, data, &fakeImputer{err: boom}, &fakeFitter{t: t}, testDesign, model)
		require.ErrorIs(t, err, boom)
	})

	t.Run("no datasets", func(t *testing.T) {
		_, err := Run(ctx, data, &fakeImputer{empty: true}, &fakeFitter{t: t}, testDesign, model)
		require.ErrorIs(t, err, errs.ErrEmptyInput)
	})

	t.Run("nil dataset from imputer", func(t *testing.T) {
		for _, opts := range [][]Option{{WithImputations(3)}, {WithImputations(3), WithBinning()}} {
			_, err := Run(ctx, data, &fakeImputer{nilAt: 2}, &fakeFitter{t: t}, testDesign, model, opts...)
			require.ErrorIs(t, err, errs.ErrEmptyInput)
			require.ErrorContains(t, err, "nil dataset 2")
		}
	})

	t.Run("missing components", func(t *testing.T) {
		_, err := Run(ctx, data, nil, &fakeFitter{t: t}, testDesign, model)
		require.ErrorIs(t, err, errs.ErrEmptyInput)
		_, err = Run(ctx, data, &fakeImputer{}, nil, testDesign, model)
		require.ErrorIs(t, err, errs.ErrEmptyInput)
		_, err = Run(ctx, nil, &fakeImputer{}, &fakeFitter{t: t}, testDesign, model)
		require.ErrorIs(t, err, errs.ErrEmptyInput)
	})

	t.Run("bad design", func(t *testing.T) {
		_, err := Run(ctx, data, &fakeImputer{}, &fakeFitter{t: t}, Design{Outcome: "prevalent"}, model)
		require.ErrorIs(t, err, errs.ErrMissingColumn)
	})

	t.Run("binning missing column", func(t *testing.T) {
		design := testDesign
		design.Outcome = "incident"
		_, err := Run(ctx, data, &fakeImputer{}, &fakeFitter{t: t}, design, model, WithBinning())
		require.ErrorIs(t, err, errs.ErrMissingColumn)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := Run(ctx, data, &fakeImputer{}, &fakeFitter{t: t}, testDesign, model, WithImputations(0))
		require.Error(t, err)
		_, err = Run(ctx, data, &fakeImputer{}, &fakeFitter{t: t}, testDesign, model, WithConcurrency(-1))
		require.Error(t, err)
	})

	t.Run("canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Run(canceled, data, &fakeImputer{}, &fakeFitter{t: t}, testDesign, model, WithImputations(3))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestDesign(t *testing.T) {
	d := Design{Outcome: "y", Predictor: "x", Covariates: []string{"a", "b"}, Cluster: "site"}
	require.NoError(t, d.Validate())
	require.Equal(t, []string{"y", "x", "a", "b", "site"}, d.Columns())
	require.ErrorIs(t, Design{Predictor: "x"}.Validate(), errs.ErrMissingColumn)
}

func TestTable(t *testing.T) {
	src := []float64{1, 2, 3}
	tbl, err := NewTable(map[string][]float64{"b": src, "a": {4, 5, 6}})
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
	require.Equal(t, []string{"a", "b"}, tbl.Names())

	src[0] = 99
	col, ok := tbl.Column("b")
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3}, col)

	_, ok = tbl.Column("c")
	require.False(t, ok)

	_, err = NewTable(map[string][]float64{"a": {1}, "b": {1, 2}})
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	empty, err := NewTable(nil)
	require.NoError(t, err)
	require.Zero(t, empty.Len())
}

func TestStackObservations(t *testing.T) {
	a, err := NewTable(map[string][]float64{"x": {1, 2}, "y": {0, 1}})
	require.NoError(t, err)
	b, err := NewTable(map[string][]float64{"x": {3}, "y": {math.NaN()}})
	require.NoError(t, err)

	obs, err := StackObservations([]Dataset{a, b}, "x", "y")
	require.NoError(t, err)
	require.Len(t, obs, 3)
	require.Equal(t, binning.Observation{X: 1, Y: 0}, obs[0])
	require.Equal(t, binning.Observation{X: 2, Y: 1}, obs[1])
	require.InDelta(t, 3, obs[2].X, 0)
	require.True(t, math.IsNaN(obs[2].Y))

	_, err = StackObservations([]Dataset{a}, "x", "z")
	require.ErrorIs(t, err, errs.ErrMissingColumn)
	_, err = StackObservations([]Dataset{a}, "w", "y")
	require.ErrorIs(t, err, errs.ErrMissingColumn)
	_, err = StackObservations([]Dataset{a, nil}, "x", "y")
	require.ErrorIs(t, err, errs.ErrEmptyInput)
}

func BenchmarkAnalyze(b *testing.B) {
	basis, err := spline.NewRestrictedCubic("rcs(age)", []float64{25, 40, 55, 70})
	require.NoError(b, err)
	g, err := grid.Linspace(18, 90, 721, 50)
	require.NoError(b, err)
	model, err := NewModel(basis, coefNames, g)
	require.NoError(b, err)

	fits := make([]Fit, 20)
	for i := range fits {
		fits[i] = testFit(b, float64(i)*0.001)
	}
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		if _, err := Analyze(ctx, fits, model); err != nil {
			b.Fatal(err)
		}
	}
}
