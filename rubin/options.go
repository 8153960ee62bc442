package rubin

import (
	"fmt"
	"math"

	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/internal/options"
)

// DefaultConfidenceLevel is the confidence level used when none is given.
const DefaultConfidenceLevel = 0.95

// Config holds pooling settings.
type Config struct {
	// Level is the two-sided confidence level in (0, 1).
	Level float64
	// StudentT selects a t quantile with Rubin's degrees of freedom.
	StudentT bool
	// CompleteDF is the complete-data degrees of freedom used by the
	// Barnard–Rubin adjustment; 0 disables the adjustment.
	CompleteDF float64
}

func defaultConfig() Config {
	return Config{Level: DefaultConfidenceLevel}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithConfidenceLevel sets the confidence level, e.g. 0.90 or 0.99.
func WithConfidenceLevel(level float64) Option {
	return options.New(func(cfg *Config) error {
		if !(level > 0 && level < 1) {
			return fmt.Errorf("%w: %g not in (0, 1)", errs.ErrInvalidConfidenceLevel, level)
		}
		cfg.Level = level

		return nil
	})
}

// WithStudentT uses a Student-t quantile for the interval. completeDF is the
// complete-data residual degrees of freedom; when positive the Barnard–Rubin
// adjusted degrees of freedom are used, when zero Rubin's large-sample
// degrees of freedom.
func WithStudentT(completeDF float64) Option {
	return options.New(func(cfg *Config) error {
		if completeDF < 0 || math.IsNaN(completeDF) {
			return fmt.Errorf("complete-data degrees of freedom must be >= 0, got %g", completeDF)
		}
		cfg.StudentT = true
		cfg.CompleteDF = completeDF

		return nil
	})
}
