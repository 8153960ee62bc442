package predict

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/prcurve/prcurve/internal/options"
)

// Config holds prediction settings.
type Config struct {
	// Logger receives clamp diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
	// Label identifies the fit in log messages, e.g. "imputation 3".
	Label string
	// Concurrency bounds PredictAll's parallelism; 0 means unbounded.
	Concurrency int
}

func defaultConfig() Config {
	return Config{Logger: zap.NewNop()}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	})
}

// WithLabel sets the label attached to log messages.
func WithLabel(label string) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Label = label
	})
}

// WithConcurrency bounds the number of fits PredictAll evaluates at once.
func WithConcurrency(n int) Option {
	return options.New(func(cfg *Config) error {
		if n < 0 {
			return fmt.Errorf("concurrency must be >= 0, got %d", n)
		}
		cfg.Concurrency = n

		return nil
	})
}
