// Package errs defines the sentinel errors returned by prcurve packages.
//
// Callers match them with errors.Is; packages wrap them with context using
// fmt.Errorf("...: %w", errs.ErrX).
package errs

import "errors"

// Shape and parameter errors. These are returned with no partial result.
var (
	// ErrDimensionMismatch is returned when coefficient, covariance, design
	// matrix or term mapping shapes disagree.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrGridMismatch is returned when curves to be pooled are defined over
	// different grids.
	ErrGridMismatch = errors.New("grid mismatch")
	// ErrInvalidBinningParameters is returned for a non-positive bin width or
	// count, an empty or inverted domain, or an unknown summary mode.
	ErrInvalidBinningParameters = errors.New("invalid binning parameters")
	// ErrInvalidGrid is returned for grids that are not strictly increasing,
	// contain non-finite values, or do not contain the reference position.
	ErrInvalidGrid = errors.New("invalid grid")
	// ErrInvalidKnots is returned when a spline basis cannot be built from the
	// given knots or degree.
	ErrInvalidKnots = errors.New("invalid knots")
	// ErrUnknownTerm is returned when a basis term has no matching coefficient.
	ErrUnknownTerm = errors.New("unknown term")
	// ErrDuplicateTerm is returned when a coefficient name appears twice.
	ErrDuplicateTerm = errors.New("duplicate term")
	// ErrInvalidTermName is returned for an empty coefficient name.
	ErrInvalidTermName = errors.New("invalid term name")
	// ErrInvalidConfidenceLevel is returned for confidence levels outside (0, 1).
	ErrInvalidConfidenceLevel = errors.New("invalid confidence level")
	// ErrEmptyInput is returned when an operation needs at least one input item.
	ErrEmptyInput = errors.New("empty input")
	// ErrMissingColumn is returned when a dataset or input table lacks a
	// named column.
	ErrMissingColumn = errors.New("missing column")
)

// Numeric errors.
var (
	// ErrNumericInstability marks a negative variance before clamping or a
	// non-finite intermediate value. Clamped variances are reported as
	// diagnostics; non-finite results are returned as errors.
	ErrNumericInstability = errors.New("numeric instability")
)

// Artifact errors.
var (
	ErrInvalidArtifact    = errors.New("invalid artifact")
	ErrChecksumMismatch   = errors.New("artifact checksum mismatch")
	ErrUnsupportedVersion = errors.New("unsupported artifact version")
)
