package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prcurve/prcurve/artifact"
	"github.com/prcurve/prcurve/binning"
	"github.com/prcurve/prcurve/format"
)

const runYAML = `
basis:
  type: rcs
  name: rcs(age)
  knots: [30, 50, 70]
grid:
  min: 20
  max: 80
  step: 5
  reference: 50
pooling:
  level: 0.9
fits:
  - names: ["(Intercept)", "rcs(age)1", "rcs(age)2", "sex"]
    coefficients: [-1.2, 0.020, 0.010, 0.3]
    covariance:
      - [0.04, 0, 0, 0]
      - [0, 0.0001, 0, 0]
      - [0, 0, 0.0001, 0]
      - [0, 0, 0, 0.01]
  - names: ["(Intercept)", "rcs(age)1", "rcs(age)2", "sex"]
    coefficients: [-1.1, 0.024, 0.0085, 0.28]
    covariance:
      - [0.04, 0, 0, 0]
      - [0, 0.0001, 0, 0]
      - [0, 0, 0.0001, 0]
      - [0, 0, 0, 0.01]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), err
}

func TestCurveCommand_CSV(t *testing.T) {
	config := writeFile(t, "run.yaml", runYAML)

	out, err := execute(t, "curve", "--config", config)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 14)
	require.Equal(t, artifact.CurveCSVHeader, records[0])

	ref := records[7]
	assert.Equal(t, "50", ref[0])
	assert.Equal(t, "true", ref[1])
	assert.Equal(t, "0", ref[2])
	assert.Equal(t, "0", ref[3])
}

func TestCurveCommand_Binary(t *testing.T) {
	config := writeFile(t, "run.yaml", runYAML)
	output := filepath.Join(t.TempDir(), "curve.bin")

	_, err := execute(t, "curve", "-c", config, "--format", "bin", "--compression", "zstd", "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	h, err := artifact.ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, h.Compression)

	pooled, err := artifact.DecodeCurve(data)
	require.NoError(t, err)
	require.Equal(t, 2, pooled.M)
	require.InDelta(t, 0.9, pooled.Level, 0)
	require.Equal(t, 13, pooled.Len())
	for i := range pooled.Len() {
		if i == pooled.Grid.Ref {
			continue
		}
		assert.Positive(t, pooled.Between[i], "row %d", i)
	}
}

func TestCurveCommand_Errors(t *testing.T) {
	good := writeFile(t, "run.yaml", runYAML)
	noFits := writeFile(t, "empty.yaml", "basis:\n  knots: [1, 2, 3]\n")
	badBasis := writeFile(t, "bad.yaml", strings.Replace(runYAML, "type: rcs", "type: loess", 1))
	badGrid := writeFile(t, "grid.yaml", strings.Replace(runYAML, "reference: 50", "reference: 90", 1))
	badYAML := writeFile(t, "broken.yaml", "fits: [")

	tests := []struct {
		name string
		args []string
	}{
		{"missing config", []string{"curve", "--config", filepath.Join(t.TempDir(), "nope.yaml")}},
		{"no fits", []string{"curve", "--config", noFits}},
		{"bad basis", []string{"curve", "--config", badBasis}},
		{"bad grid", []string{"curve", "--config", badGrid}},
		{"bad yaml", []string{"curve", "--config", badYAML}},
		{"unknown format", []string{"curve", "--config", good, "--format", "json"}},
		{"csv with compression", []string{"curve", "--config", good, "--compression", "s2"}},
		{"unknown compression", []string{"curve", "--config", good, "--format", "bin", "--compression", "gzip"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestLoadRunConfig_Pattern(t *testing.T) {
	yaml := strings.Replace(runYAML, "pooling:", "terms:\n  pattern: \"^rcs\\\\(age\\\\)\"\npooling:", 1)
	cfg, err := loadRunConfig(writeFile(t, "run.yaml", yaml))
	require.NoError(t, err)
	require.Equal(t, `^rcs\(age\)`, cfg.Terms.Pattern)

	model, err := cfg.model()
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, model.Terms.Coefficients())

	fits, err := cfg.fits()
	require.NoError(t, err)
	require.Len(t, fits, 2)
}

func TestLoadRunConfig_Defaults(t *testing.T) {
	cfg, err := loadRunConfig(writeFile(t, "run.yaml", "fits:\n  - coefficients: [1]\n    covariance: [[1]]\n"))
	require.NoError(t, err)
	require.Equal(t, "rcs", cfg.Basis.Type)
	require.InDelta(t, 0.95, cfg.Pooling.Level, 0)
	require.False(t, cfg.Pooling.StudentT)
}

func TestBasisConfig_BSpline(t *testing.T) {
	b, err := BasisConfig{Type: "bspline", Name: "bs(age)", Knots: []float64{40, 60}, Boundary: []float64{18, 90}, Degree: 3}.build()
	require.NoError(t, err)
	require.Equal(t, 5, b.Dim())

	_, err = BasisConfig{Type: "bspline", Knots: []float64{40}, Boundary: []float64{18}}.build()
	require.Error(t, err)
}

const obsCSV = `id,age,prevalent
1,21,0
2,24,1
3,27,0
4,52,1
5,55,1
6,58,0
7,90,1
8,NA,1
`

func TestBinsCommand_CSV(t *testing.T) {
	input := writeFile(t, "obs.csv", obsCSV)

	out, err := execute(t, "bins", "--input", input, "--x", "age", "--y", "prevalent",
		"--min", "20", "--max", "100", "--width", "20", "--summary", "rate")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, artifact.SegmentsCSVHeader, records[0])
	require.Len(t, records, 4)

	assert.Equal(t, []string{"0", "20", "40", "3"}, records[1][:4])
	assert.Equal(t, "below", records[1][5])
	assert.Equal(t, "at_or_above", records[2][5])
	assert.Equal(t, "3", records[3][0])
}

func TestBinsCommand_DomainFromData(t *testing.T) {
	input := writeFile(t, "obs.csv", obsCSV)
	output := filepath.Join(t.TempDir(), "bins.bin")

	_, err := execute(t, "bins", "-i", input, "--x", "age", "--y", "prevalent",
		"--bins", "3", "--format", "bin", "--compression", "lz4", "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	set, err := artifact.DecodeSegments(data)
	require.NoError(t, err)

	require.InDelta(t, 21, set.Params.XMin, 0)
	require.InDelta(t, 90, set.Params.XMax, 0)
	require.Equal(t, 3, set.Params.Bins)
	require.Equal(t, binning.Mean, set.Params.Summary)
	require.Equal(t, 1, set.Dropped)
	require.Equal(t, 7, set.Observations())
}

func TestBinsCommand_Errors(t *testing.T) {
	input := writeFile(t, "obs.csv", obsCSV)

	tests := []struct {
		name string
		args []string
	}{
		{"missing input flag", []string{"bins"}},
		{"missing file", []string{"bins", "-i", filepath.Join(t.TempDir(), "nope.csv")}},
		{"missing column", []string{"bins", "-i", input, "--x", "weight", "--y", "prevalent"}},
		{"bad summary", []string{"bins", "-i", input, "--x", "age", "--y", "prevalent", "--summary", "mode"}},
		{"inverted domain", []string{"bins", "-i", input, "--x", "age", "--y", "prevalent", "--min", "50", "--max", "40"}},
		{"zero bins", []string{"bins", "-i", input, "--x", "age", "--y", "prevalent", "--bins", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}
