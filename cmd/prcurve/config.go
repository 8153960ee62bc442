package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prcurve/prcurve"
	"github.com/prcurve/prcurve/grid"
	"github.com/prcurve/prcurve/predict"
	"github.com/prcurve/prcurve/rubin"
	"github.com/prcurve/prcurve/spline"
)

// RunConfig is the YAML run file read by the curve command.
type RunConfig struct {
	Basis   BasisConfig   `yaml:"basis"`
	Grid    GridConfig    `yaml:"grid"`
	Terms   TermsConfig   `yaml:"terms"`
	Pooling PoolingConfig `yaml:"pooling"`
	Fits    []FitConfig   `yaml:"fits"`
}

// BasisConfig selects and parameterizes the spline basis used at fit time.
type BasisConfig struct {
	// Type is "rcs" (restricted cubic) or "bspline".
	Type string `yaml:"type"`
	// Name prefixes the column names, e.g. "rcs(age)" gives "rcs(age)1".
	Name string `yaml:"name"`
	// Knots are all knots for rcs and the interior knots for bspline.
	Knots     []float64 `yaml:"knots"`
	Boundary  []float64 `yaml:"boundary"`
	Degree    int       `yaml:"degree"`
	Intercept bool      `yaml:"intercept"`
}

// GridConfig describes the prediction grid. Values, if set, wins over
// Points, which wins over Step.
type GridConfig struct {
	Min       float64   `yaml:"min"`
	Max       float64   `yaml:"max"`
	Step      float64   `yaml:"step"`
	Points    int       `yaml:"points"`
	Values    []float64 `yaml:"values"`
	Reference float64   `yaml:"reference"`
}

// TermsConfig selects the coefficients of the spline terms. With an empty
// Pattern, basis columns are matched to coefficients by name.
type TermsConfig struct {
	Pattern string `yaml:"pattern"`
}

// PoolingConfig holds the Rubin's rules settings.
type PoolingConfig struct {
	Level      float64 `yaml:"level"`
	StudentT   bool    `yaml:"student_t"`
	CompleteDF float64 `yaml:"complete_df"`
}

// FitConfig is one imputation's fit.
type FitConfig struct {
	Names        []string    `yaml:"names"`
	Coefficients []float64   `yaml:"coefficients"`
	Covariance   [][]float64 `yaml:"covariance"`
}

func defaultRunConfig() *RunConfig {
	return &RunConfig{
		Basis:   BasisConfig{Type: "rcs", Degree: 3},
		Pooling: PoolingConfig{Level: rubin.DefaultConfidenceLevel},
	}
}

// loadRunConfig reads a YAML run file over the defaults.
func loadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaultRunConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Fits) == 0 {
		return nil, fmt.Errorf("config %s lists no fits", path)
	}

	return cfg, nil
}

func (c BasisConfig) build() (spline.Basis, error) {
	switch c.Type {
	case "rcs", "":
		return spline.NewRestrictedCubic(c.Name, c.Knots)
	case "bspline":
		if len(c.Boundary) != 2 {
			return nil, fmt.Errorf("bspline basis needs two boundary knots, got %d", len(c.Boundary))
		}
		return spline.NewBSpline(c.Name, c.Knots, [2]float64{c.Boundary[0], c.Boundary[1]}, c.Degree, c.Intercept)
	default:
		return nil, fmt.Errorf("unknown basis type %q, want rcs or bspline", c.Type)
	}
}

func (c GridConfig) build() (grid.Grid, error) {
	switch {
	case len(c.Values) > 0:
		return grid.New(c.Values, c.Reference)
	case c.Points > 0:
		return grid.Linspace(c.Min, c.Max, c.Points, c.Reference)
	default:
		return grid.Step(c.Min, c.Max, c.Step, c.Reference)
	}
}

func (c PoolingConfig) options() []rubin.Option {
	opts := []rubin.Option{rubin.WithConfidenceLevel(c.Level)}
	if c.StudentT {
		opts = append(opts, rubin.WithStudentT(c.CompleteDF))
	}

	return opts
}

func (c FitConfig) build(i int) (prcurve.Fit, error) {
	cov, err := predict.NewCovariance(c.Covariance)
	if err != nil {
		return prcurve.Fit{}, fmt.Errorf("fit %d covariance: %w", i+1, err)
	}
	fit := prcurve.Fit{Coefficients: c.Coefficients, Covariance: cov, Names: c.Names}
	if err := fit.Validate(); err != nil {
		return prcurve.Fit{}, fmt.Errorf("fit %d: %w", i+1, err)
	}

	return fit, nil
}

// model builds the basis, grid and term mapping. Terms are mapped against the
// first fit's names; every fit must share that coefficient layout.
func (c *RunConfig) model() (prcurve.Model, error) {
	basis, err := c.Basis.build()
	if err != nil {
		return prcurve.Model{}, err
	}
	g, err := c.Grid.build()
	if err != nil {
		return prcurve.Model{}, err
	}

	names := c.Fits[0].Names
	if c.Terms.Pattern == "" {
		return prcurve.NewModel(basis, names, g)
	}

	terms, err := spline.TermMapFromPattern(names, basis, c.Terms.Pattern)
	if err != nil {
		return prcurve.Model{}, err
	}
	eval, err := spline.NewEvaluator(basis, terms.Len())
	if err != nil {
		return prcurve.Model{}, err
	}

	return prcurve.Model{Evaluator: eval, Terms: terms, Grid: g}, nil
}

func (c *RunConfig) fits() ([]prcurve.Fit, error) {
	fits := make([]prcurve.Fit, len(c.Fits))
	for i, fc := range c.Fits {
		fit, err := fc.build(i)
		if err != nil {
			return nil, err
		}
		fits[i] = fit
	}

	return fits, nil
}
