package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/coldlab/coldctl/lib/calib"
	"github.com/coldlab/coldctl/lib/daq"
	"github.com/coldlab/coldctl/lib/powermeter"
)

func NewCalibrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calibrate",
		Aliases: []string{"cal"},
		Short:   "Record and fit power-vs-voltage calibrations",
	}
	cmd.AddCommand(
		newCalibrateSweepCommand(),
		newCalibrateFitCommand(),
		newCalibrateConvertCommand(),
	)
	return cmd
}

func newCalibrateSweepCommand() *cobra.Command {
	var (
		ampChannel  int
		flipChannel int
		from        float64
		to          float64
		points      int
		repeats     int
		delay       time.Duration
		average     int
		out         string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep a DAQ channel and record both power meters",
		Long: `Sweep a DAQ channel through a voltage range. At each voltage the flip
mirror is raised to read the pickoff power meter, then lowered to read
the meter at the experiment. The paired readings go to a CSV for
'calibrate fit'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if points < 2 {
				return fmt.Errorf("need at least 2 sweep points, got %d", points)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			channels, err := cfg.Channels()
			if err != nil {
				return err
			}

			daqConn, err := openInstrument("DAQ", cfg.DAQAddr)
			if err != nil {
				return err
			}
			defer closeLogged("DAQ", daqConn.Close)
			flipConn, err := openInstrument("flip power meter", cfg.FlipMeterAddr)
			if err != nil {
				return err
			}
			defer closeLogged("flip power meter", flipConn.Close)
			targetConn, err := openInstrument("target power meter", cfg.TargetMeterAddr)
			if err != nil {
				return err
			}
			defer closeLogged("target power meter", targetConn.Close)

			controller, err := daq.NewController(daqConn.Session, channels)
			if err != nil {
				return err
			}
			defer func() {
				if err := controller.ReleaseAll(); err != nil {
					logrus.Warnf("failed to release DAQ outputs: %s", err)
				}
			}()

			flipMeter := powermeter.New(flipConn.Session)
			targetMeter := powermeter.New(targetConn.Session)
			var merr error
			merr = multierr.Append(merr, flipMeter.Configure(average))
			merr = multierr.Append(merr, targetMeter.Configure(average))
			if merr != nil {
				return fmt.Errorf("failed to configure power meters: %w", merr)
			}

			logrus.WithFields(logrus.Fields{
				"channel": ampChannel,
				"from":    from,
				"to":      to,
				"points":  points,
				"repeats": repeats,
			}).Info("starting sweep")

			recorded, err := calib.Sweep(cmd.Context(), calib.Config{
				AmpChannel:  ampChannel,
				FlipChannel: flipChannel,
				Voltages:    calib.Linspace(from, to, points),
				Repeats:     repeats,
				Delay:       delay,
			}, calib.Hardware{
				DAQ:         controller,
				Flip:        controller,
				FlipMeter:   flipMeter,
				TargetMeter: targetMeter,
			})
			if err != nil {
				return err
			}

			if err := calib.SaveCSV(out, recorded); err != nil {
				return err
			}
			logrus.Infof("wrote %d points to %s", len(recorded), out)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&ampChannel, "channel", 0, "DAQ channel to sweep")
	flags.IntVar(&flipChannel, "flip-channel", 0, "DAQ digital channel driving the flip mirror")
	flags.Float64Var(&from, "from", 0, "sweep start voltage")
	flags.Float64Var(&to, "to", 5, "sweep end voltage")
	flags.IntVar(&points, "points", 26, "number of sweep points")
	flags.IntVar(&repeats, "repeats", 1, "whole-sweep repetitions")
	flags.DurationVar(&delay, "delay", 500*time.Millisecond, "settle time after each move")
	flags.IntVar(&average, "average", 100, "power meter averaging count")
	flags.StringVar(&out, "out", "calibration.csv", "output CSV path")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("flip-channel")

	return cmd
}

func newCalibrateFitCommand() *cobra.Command {
	var plotPath string

	cmd := &cobra.Command{
		Use:   "fit <calibration.csv>",
		Short: "Fit a recorded calibration and print the line",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			points, err := calib.LoadCSV(args[0])
			if err != nil {
				return err
			}
			fit, err := calib.FitPoints(points)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			fmt.Printf("n      %d\n", fit.N)
			bold.Printf("a      %.6g\n", fit.A)
			bold.Printf("b      %.6g\n", fit.B)
			fmt.Printf("R^2    %.6f\n", fit.R2)
			fmt.Printf("RMSE   %.6g\n", fit.RMSE)

			if plotPath != "" {
				if err := calib.PlotFit(points, fit, plotPath); err != nil {
					return err
				}
				logrus.Infof("plot written to %s", plotPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&plotPath, "plot", "", "also write a scatter+fit PNG to this path")
	return cmd
}

func newCalibrateConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert",
		Short: "Interactively convert channel values to voltages and back",
		Long: `Interactively convert between DAQ voltages and calibrated values using
the channel roster's calibration tables. Enter q at any prompt to quit.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			channels, err := cfg.Channels()
			if err != nil {
				return err
			}
			tables := map[int]*daq.Table{}
			names := map[int]string{}
			for _, ch := range channels {
				names[ch.Number] = ch.Name
				if ch.CalibrationFile == "" {
					continue
				}
				t, err := daq.LoadTable(ch.CalibrationFile)
				if err != nil {
					return fmt.Errorf("channel %d: %w", ch.Number, err)
				}
				tables[ch.Number] = t
			}
			return convertLoop(os.Stdin, tables, names)
		},
	}
}

// convertLoop runs the prompt cycle: channel number, direction, value.
// Bad input is reported and the prompt repeats.
func convertLoop(in io.Reader, tables map[int]*daq.Table, names map[int]string) error {
	sc := bufio.NewScanner(in)
	prompt := func(p string) (string, bool) {
		fmt.Print(p)
		if !sc.Scan() {
			return "", false
		}
		line := strings.TrimSpace(sc.Text())
		if line == "q" || line == "quit" {
			return "", false
		}
		return line, true
	}

	for {
		line, ok := prompt("channel number (q to quit): ")
		if !ok {
			return sc.Err()
		}
		num, err := strconv.Atoi(line)
		if err != nil {
			fmt.Printf("not a channel number: %q\n", line)
			continue
		}
		table, found := tables[num]
		if !found {
			if name, known := names[num]; known {
				fmt.Printf("channel %d (%s) has no calibration table\n", num, name)
			} else {
				fmt.Printf("unknown channel %d\n", num)
			}
			continue
		}

		dir, ok := prompt("convert [v]oltage to value or [c]alibrated value to voltage? ")
		if !ok {
			return sc.Err()
		}
		if dir != "v" && dir != "c" {
			fmt.Printf("answer v or c, got %q\n", dir)
			continue
		}

		line, ok = prompt("value: ")
		if !ok {
			return sc.Err()
		}
		x, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Printf("not a number: %q\n", line)
			continue
		}

		if dir == "v" {
			fmt.Printf("%s(%g V) = %s\n", names[num], x,
				color.GreenString("%g", table.FromVoltage(x)))
		} else {
			fmt.Printf("%s(%g) = %s\n", names[num], x,
				color.GreenString("%g V", table.ToVoltage(x)))
		}
	}
}

func closeLogged(what string, close func() error) {
	if err := close(); err != nil {
		logrus.Warnf("failed to close %s: %s", what, err)
	}
}
