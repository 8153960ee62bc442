// Command prcurve computes pooled prevalence-ratio curves and empirical bin
// segments and writes them as CSV or binary artifact tables.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prcurve/prcurve/format"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose     bool
	output      string
	format      string
	compression string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "prcurve",
		Short: "Pooled prevalence-ratio curves over multiply-imputed fits",
		Long: `prcurve turns fitted spline regressions from multiply-imputed datasets into a
single centered prevalence-ratio curve with a Rubin's-rules confidence band,
and summarizes raw observations per bin for comparison.

  prcurve curve --config run.yaml -o curve.csv
  prcurve bins --input obs.csv --x age --y prevalent --bins 12 --summary rate`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if flags.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			flags.logger = logger

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = flags.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVarP(&flags.output, "output", "o", "-", "output file, - for stdout")
	pf.StringVar(&flags.format, "format", "csv", "output format: csv or bin")
	pf.StringVar(&flags.compression, "compression", "none", "bin payload compression: none, zstd, s2 or lz4")

	root.AddCommand(newCurveCmd(flags), newBinsCmd(flags))

	return root
}

// outputFormat validates the format flags.
func (f *globalFlags) outputFormat() (binary bool, compression format.CompressionType, err error) {
	compression, err = format.ParseCompression(f.compression)
	if err != nil {
		return false, 0, err
	}

	switch f.format {
	case "csv":
		if compression != format.CompressionNone {
			return false, 0, fmt.Errorf("--compression applies to --format bin only")
		}

		return false, compression, nil
	case "bin":
		return true, compression, nil
	default:
		return false, 0, fmt.Errorf("unknown format %q, want csv or bin", f.format)
	}
}

// writeOutput writes to the --output file, or to stdout for "-".
func (f *globalFlags) writeOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if f.output == "-" || f.output == "" {
		return write(cmd.OutOrStdout())
	}

	file, err := os.Create(f.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
