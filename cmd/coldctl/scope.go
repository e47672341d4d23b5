package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coldlab/coldctl/lib/scope"
)

func NewScopeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Configure and read out the oscilloscope",
	}
	cmd.AddCommand(newScopeAcquireCommand())
	cmd.AddCommand(newScopePlotCommand())
	return cmd
}

func newScopePlotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plot <capture.csv> [...]",
		Short: "Plot saved scope captures as PNGs next to the CSVs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, path := range args {
				rec, err := scope.LoadCSV(path)
				if err != nil {
					return err
				}
				out := strings.TrimSuffix(path, ".csv") + ".png"
				if err := rec.Plot(filepath.Base(path), out); err != nil {
					return fmt.Errorf("plotting %s: %w", path, err)
				}
				logrus.WithFields(logrus.Fields{
					"channels": len(rec.Channels),
					"samples":  len(rec.Time),
				}).Infof("wrote %s", out)
			}
			return nil
		},
	}
}

func newScopeAcquireCommand() *cobra.Command {
	var (
		channels      []int
		sampleRate    float64
		timebaseRange float64
		centered      bool
		highImpedance bool
		trigChannel   int
		trigLevel     float64
		trigSlope     string
		name          string
		window        int
		maxWait       time.Duration
		poll          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Arm the scope, wait for a trigger, and save the channels to CSV",
		Long: `Configure the scope, arm a single acquisition, wait for the trigger,
and save the requested channels to a timestamped CSV under the data
directory (data/<date>/<window>_<time>_<name>.csv).`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if len(channels) == 0 {
				return fmt.Errorf("no channels given")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := openInstrument("scope", cfg.ScopeAddr)
			if err != nil {
				return err
			}
			defer closeLogged("scope", conn.Close)

			sc := scope.New(conn.Session)
			if err := sc.Configure(scope.Settings{
				Channels:      channels,
				SampleRate:    sampleRate,
				TimebaseRange: timebaseRange,
				Centered:      centered,
				HighImpedance: highImpedance,
			}); err != nil {
				return err
			}
			if err := sc.ConfigureTrigger(trigChannel, trigLevel, scope.Slope(trigSlope)); err != nil {
				return err
			}

			if err := sc.Arm(maxWait, poll); err != nil {
				return err
			}
			logrus.Info("scope armed, waiting for trigger")
			triggered, err := sc.WaitForAcquisition(maxWait, poll)
			if err != nil {
				return err
			}
			if !triggered {
				return fmt.Errorf("no trigger within %s", maxWait)
			}

			record, err := sc.Acquire(channels)
			if err != nil {
				return err
			}
			path, err := record.SaveData(cfg.DataDir, name, window)
			if err != nil {
				return err
			}
			color.Green("saved %d channel(s), %d samples each, to %s",
				len(record.Channels), len(record.Time), path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&channels, "channel", nil, "scope channel(s) to save (repeatable)")
	flags.Float64Var(&sampleRate, "rate", 1e9, "sample rate in Sa/s")
	flags.Float64Var(&timebaseRange, "range", 1e-3, "capture length in seconds")
	flags.BoolVar(&centered, "centered", false, "center the capture on the trigger")
	flags.BoolVar(&highImpedance, "high-z", false, "1 MOhm DC inputs instead of 50 Ohm")
	flags.IntVar(&trigChannel, "trigger-channel", 1, "trigger source channel")
	flags.Float64Var(&trigLevel, "trigger-level", 0.5, "trigger level in volts")
	flags.StringVar(&trigSlope, "trigger-slope", "+", "trigger slope (+ or -)")
	flags.StringVar(&name, "name", "capture", "base name for the output CSV")
	flags.IntVar(&window, "window", 0, "measurement window index used in the file name")
	flags.DurationVar(&maxWait, "max-wait", 30*time.Second, "how long to wait for arming and triggering")
	flags.DurationVar(&poll, "poll", 100*time.Millisecond, "status poll interval")
	_ = cmd.MarkFlagRequired("channel")

	return cmd
}
