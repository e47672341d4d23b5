package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coldlab/coldctl/lib/stirap"
)

func NewStirapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stirap",
		Short: "Generate and plot STIRAP pulse-pair waveforms",
	}
	cmd.AddCommand(
		newStirapGenerateCommand(),
		newStirapPlotCommand(),
	)
	return cmd
}

func newStirapGenerateCommand() *cobra.Command {
	var (
		lengths []float64
		rate    int
		shape   string
		dir     string
		plot    bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate pump/Stokes waveform CSVs for a list of pulse lengths",
		Long: `Generate pump and Stokes pulse envelopes for each pulse length (in us)
and write one single-row CSV per envelope, named after the shape and
length, ready for 'wavegen load'.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if len(lengths) == 0 {
				return fmt.Errorf("no pulse lengths given")
			}
			for _, T := range lengths {
				pair, err := stirap.Generate(T, rate, stirap.Shape(shape))
				if err != nil {
					return err
				}
				prefix, err := stirap.ExportPair(pair, dir, T, stirap.Shape(shape))
				if err != nil {
					return err
				}
				logrus.WithFields(logrus.Fields{
					"length":  fmt.Sprintf("%gus", T),
					"samples": len(pair.Pump),
				}).Infof("wrote %s_{pump,stokes}.csv", prefix)

				if plot {
					png := filepath.Join(dir, prefix+".png")
					title := fmt.Sprintf("%s %g us", shape, T)
					if err := stirap.PlotPair(pair, title, png); err != nil {
						return err
					}
					logrus.Infof("plot written to %s", png)
				}
			}
			color.Green("generated %d pulse pair(s)", len(lengths))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64SliceVar(&lengths, "length", nil, "pulse length(s) in us (repeatable or comma separated)")
	flags.IntVar(&rate, "rate", 1000, "samples per us")
	flags.StringVar(&shape, "shape", string(stirap.Standard), "pulse shape")
	flags.StringVar(&dir, "dir", ".", "output directory")
	flags.BoolVar(&plot, "plot", false, "also write a PNG per pulse pair")
	_ = cmd.MarkFlagRequired("length")

	return cmd
}

func newStirapPlotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plot <waveform.csv>...",
		Short: "Plot waveform CSVs to PNGs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, path := range args {
				samples, err := stirap.LoadSamples(path)
				if err != nil {
					return err
				}
				png := strings.TrimSuffix(path, ".csv") + ".png"
				if err := stirap.PlotSamples(samples, path, png); err != nil {
					return err
				}
				logrus.Infof("plot written to %s", png)
			}
			return nil
		},
	}
}
