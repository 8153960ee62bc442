package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prcurve/prcurve"
	"github.com/prcurve/prcurve/artifact"
)

func newCurveCmd(flags *globalFlags) *cobra.Command {
	var (
		configPath  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Predict each fit on a grid and pool the curves",
		Long: `Evaluates the configured spline basis on the prediction grid, predicts a curve
centered at the grid reference for every fit in the run file, pools the curves
with Rubin's rules, and writes the pooled curve table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			binary, compression, err := flags.outputFormat()
			if err != nil {
				return err
			}

			cfg, err := loadRunConfig(configPath)
			if err != nil {
				return err
			}
			model, err := cfg.model()
			if err != nil {
				return fmt.Errorf("build model: %w", err)
			}
			fits, err := cfg.fits()
			if err != nil {
				return err
			}
			flags.logger.Debug("Loaded run config",
				zap.String("path", configPath),
				zap.Int("fits", len(fits)),
				zap.Stringer("grid", model.Grid))

			res, err := prcurve.Analyze(cmd.Context(), fits, model,
				prcurve.WithLogger(flags.logger),
				prcurve.WithConcurrency(concurrency),
				prcurve.WithPoolOptions(cfg.Pooling.options()...),
			)
			if err != nil {
				return err
			}
			if n := res.Clamped(); n > 0 {
				flags.logger.Warn("Negative variances clamped to zero", zap.Int("count", n))
			}

			return flags.writeOutput(cmd, func(w io.Writer) error {
				if !binary {
					return artifact.WriteCurveCSV(w, res.Curve)
				}
				data, err := artifact.EncodeCurve(res.Curve, artifact.WithCompression(compression))
				if err != nil {
					return err
				}
				_, err = w.Write(data)

				return err
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "run.yaml", "YAML run file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "maximum fits predicted at once, 0 for no limit")

	return cmd
}
