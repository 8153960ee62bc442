package prcurve

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/prcurve/prcurve/binning"
	"github.com/prcurve/prcurve/internal/options"
	"github.com/prcurve/prcurve/rubin"
)

// DefaultImputations is the number of imputed datasets Run requests.
const DefaultImputations = 20

// Config holds pipeline settings.
type Config struct {
	// Logger receives progress and diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
	// Concurrency bounds the parallel fits and predictions; 0 means unbounded.
	Concurrency int
	// Imputations is the number of datasets Run asks the Imputer for.
	Imputations int
	// Methods is passed through to the Imputer.
	Methods map[string]string
	// PoolOptions configure rubin.Pool.
	PoolOptions []rubin.Option
	// Binning enables empirical segments in Run.
	Binning bool
	// BinOptions configure binning.Segments.
	BinOptions []binning.Option
}

func defaultConfig() Config {
	return Config{
		Logger:      zap.NewNop(),
		Imputations: DefaultImputations,
	}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	})
}

// WithConcurrency bounds the number of fits or predictions run at once.
func WithConcurrency(n int) Option {
	return options.New(func(cfg *Config) error {
		if n < 0 {
			return fmt.Errorf("concurrency must be >= 0, got %d", n)
		}
		cfg.Concurrency = n

		return nil
	})
}

// WithImputations sets the number of imputed datasets Run requests.
func WithImputations(m int) Option {
	return options.New(func(cfg *Config) error {
		if m < 1 {
			return fmt.Errorf("imputations must be >= 1, got %d", m)
		}
		cfg.Imputations = m

		return nil
	})
}

// WithMethods sets per-column imputation methods passed to the Imputer.
func WithMethods(methods map[string]string) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Methods = methods
	})
}

// WithPoolOptions sets the options passed to rubin.Pool.
func WithPoolOptions(opts ...rubin.Option) Option {
	return options.NoError(func(cfg *Config) {
		cfg.PoolOptions = append(cfg.PoolOptions, opts...)
	})
}

// WithBinning makes Run also segment the stacked imputed observations over the
// model grid's range.
func WithBinning(opts ...binning.Option) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Binning = true
		cfg.BinOptions = append(cfg.BinOptions, opts...)
	})
}
