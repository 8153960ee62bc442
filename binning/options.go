package binning

import (
	"fmt"
	"math"

	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/internal/options"
)

const (
	// DefaultBins is the bin count used when neither count nor width is set.
	DefaultBins = 10
	// DefaultThreshold is the status threshold used when none is set.
	DefaultThreshold = 0.5
)

// Config holds binning settings.
type Config struct {
	// Bins is the number of bins. It takes precedence over Width.
	Bins int
	// Width is the fixed bin width, used when Bins is 0.
	Width float64
	// Summary is the per-bin statistic.
	Summary Summary
	// Threshold splits segments into Below and AtOrAbove.
	Threshold float64
	// Positive is the y value counted by Rate.
	Positive float64
}

func defaultConfig() Config {
	return Config{
		Summary:   Mean,
		Threshold: DefaultThreshold,
		Positive:  1,
	}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithBinCount sets the number of equal-width bins.
func WithBinCount(n int) Option {
	return options.New(func(cfg *Config) error {
		if n <= 0 || n > MaxBins {
			return fmt.Errorf("%w: bin count must be in [1, %d], got %d", errs.ErrInvalidBinningParameters, MaxBins, n)
		}
		cfg.Bins = n

		return nil
	})
}

// WithBinWidth sets a fixed bin width. A bin count, if also given, wins.
func WithBinWidth(w float64) Option {
	return options.New(func(cfg *Config) error {
		if !(w > 0) || math.IsInf(w, 1) {
			return fmt.Errorf("%w: bin width must be positive and finite, got %g", errs.ErrInvalidBinningParameters, w)
		}
		cfg.Width = w

		return nil
	})
}

// WithSummary sets the per-bin statistic.
func WithSummary(s Summary) Option {
	return options.New(func(cfg *Config) error {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown summary mode %d", errs.ErrInvalidBinningParameters, s)
		}
		cfg.Summary = s

		return nil
	})
}

// WithThreshold sets the status threshold.
func WithThreshold(t float64) Option {
	return options.New(func(cfg *Config) error {
		if math.IsNaN(t) {
			return fmt.Errorf("%w: threshold is NaN", errs.ErrInvalidBinningParameters)
		}
		cfg.Threshold = t

		return nil
	})
}

// WithPositive sets the y value that Rate counts as a positive outcome.
func WithPositive(v float64) Option {
	return options.New(func(cfg *Config) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: positive indicator must be finite", errs.ErrInvalidBinningParameters)
		}
		cfg.Positive = v

		return nil
	})
}
