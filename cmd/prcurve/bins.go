package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prcurve/prcurve/artifact"
	"github.com/prcurve/prcurve/binning"
)

type binsFlags struct {
	input     string
	xCol      string
	yCol      string
	xMin      float64
	xMax      float64
	bins      int
	width     float64
	summary   string
	threshold float64
	positive  float64
}

func newBinsCmd(flags *globalFlags) *cobra.Command {
	bf := &binsFlags{}

	cmd := &cobra.Command{
		Use:   "bins",
		Short: "Summarize observations per bin as labelled segments",
		Long: `Reads (x, y) pairs from a CSV file, splits [min, max] into equal-width bins,
and writes one segment per non-empty bin with its summary value and its
status against the threshold. Without --min/--max the observed x range is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			binary, compression, err := flags.outputFormat()
			if err != nil {
				return err
			}

			file, err := os.Open(bf.input)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			obs, err := artifact.ReadObservationsCSV(file, bf.xCol, bf.yCol)
			_ = file.Close()
			if err != nil {
				return fmt.Errorf("read %s: %w", bf.input, err)
			}

			xMin, xMax := bf.domain(cmd, obs)
			opts, err := bf.options(cmd)
			if err != nil {
				return err
			}
			set, err := binning.Segments(obs, xMin, xMax, opts...)
			if err != nil {
				return err
			}
			flags.logger.Debug("Binned observations",
				zap.Int("observations", len(obs)),
				zap.Int("segments", set.Len()),
				zap.Int("dropped", set.Dropped))
			if set.Dropped > 0 {
				flags.logger.Info("Dropped observations outside the domain or not finite",
					zap.Int("dropped", set.Dropped))
			}

			return flags.writeOutput(cmd, func(w io.Writer) error {
				if !binary {
					return artifact.WriteSegmentsCSV(w, set)
				}
				data, err := artifact.EncodeSegments(set, artifact.WithCompression(compression))
				if err != nil {
					return err
				}
				_, err = w.Write(data)

				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&bf.input, "input", "i", "", "CSV file with a header line")
	f.StringVar(&bf.xCol, "x", "x", "x column name")
	f.StringVar(&bf.yCol, "y", "y", "y column name")
	f.Float64Var(&bf.xMin, "min", 0, "domain minimum (default: smallest x)")
	f.Float64Var(&bf.xMax, "max", 0, "domain maximum (default: largest x)")
	f.IntVar(&bf.bins, "bins", 0, "number of bins (default 10; wins over --width)")
	f.Float64Var(&bf.width, "width", 0, "bin width")
	f.StringVar(&bf.summary, "summary", "mean", "per-bin summary: mean, rate, count or median")
	f.Float64Var(&bf.threshold, "threshold", binning.DefaultThreshold, "status threshold")
	f.Float64Var(&bf.positive, "positive", 1, "y value counted by the rate summary")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// domain returns the flag bounds, falling back to the finite x range.
func (bf *binsFlags) domain(cmd *cobra.Command, obs []binning.Observation) (float64, float64) {
	xMin, xMax := bf.xMin, bf.xMax
	setMin := cmd.Flags().Changed("min")
	setMax := cmd.Flags().Changed("max")
	if setMin && setMax {
		return xMin, xMax
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, o := range obs {
		if math.IsNaN(o.X) || math.IsInf(o.X, 0) {
			continue
		}
		lo = min(lo, o.X)
		hi = max(hi, o.X)
	}
	if !setMin {
		xMin = lo
	}
	if !setMax {
		xMax = hi
	}

	return xMin, xMax
}

func (bf *binsFlags) options(cmd *cobra.Command) ([]binning.Option, error) {
	summary, err := binning.ParseSummary(bf.summary)
	if err != nil {
		return nil, err
	}

	opts := []binning.Option{
		binning.WithSummary(summary),
		binning.WithThreshold(bf.threshold),
		binning.WithPositive(bf.positive),
	}
	if cmd.Flags().Changed("width") {
		opts = append(opts, binning.WithBinWidth(bf.width))
	}
	if cmd.Flags().Changed("bins") {
		opts = append(opts, binning.WithBinCount(bf.bins))
	}

	return opts, nil
}
