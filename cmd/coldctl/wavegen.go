package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coldlab/coldctl/lib/stirap"
	"github.com/coldlab/coldctl/lib/wavegen"
)

func NewWavegenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wavegen",
		Aliases: []string{"awg"},
		Short:   "Control the arbitrary waveform generator",
	}
	cmd.AddCommand(newWavegenLoadCommand())
	return cmd
}

func newWavegenLoadCommand() *cobra.Command {
	var (
		channel    int
		sampleRate float64
		burst      int
		trigger    string
		enable     bool
	)

	triggerModes := map[string]wavegen.TriggerMode{
		"external": wavegen.External,
		"software": wavegen.Software,
		"timer":    wavegen.Timer,
		"event":    wavegen.Event,
	}

	cmd := &cobra.Command{
		Use:   "load <waveform.csv>",
		Short: "Load a waveform CSV into a generator channel",
		Long: `Load a single-row waveform CSV (as written by 'stirap generate') into
a channel's arbitrary trace memory, configure triggered operation, and
optionally enable the output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			mode, ok := triggerModes[trigger]
			if !ok {
				return fmt.Errorf("unknown trigger source %q", trigger)
			}
			samples, err := stirap.LoadSamples(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := openInstrument("waveform generator", cfg.WavegenAddr)
			if err != nil {
				return err
			}
			defer closeLogged("waveform generator", conn.Close)

			gen, err := wavegen.Connect(conn.Session)
			if err != nil {
				return err
			}
			if err := gen.SelectChannel(channel); err != nil {
				return err
			}
			if err := gen.SetOutputMode(wavegen.Arbitrary); err != nil {
				return err
			}
			if err := gen.SetSampleRate(sampleRate); err != nil {
				return err
			}
			if err := gen.LoadArbitrary(samples); err != nil {
				return err
			}
			logrus.Infof("loaded %d samples into channel %d", len(samples), channel)

			if err := gen.SetOperationMode(wavegen.Triggered); err != nil {
				return err
			}
			if err := gen.SetTriggerMode(mode); err != nil {
				return err
			}
			if err := gen.SetBurstCount(burst); err != nil {
				return err
			}
			if enable {
				if err := gen.EnableOutput(); err != nil {
					return err
				}
				color.Green("channel %d output enabled", channel)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&channel, "channel", 1, "generator channel (1-4)")
	flags.Float64Var(&sampleRate, "rate", 1e9, "sample clock in Sa/s")
	flags.IntVar(&burst, "burst", 1, "waveform cycles per trigger")
	flags.StringVar(&trigger, "trigger", "external", "trigger source (external, software, timer, event)")
	flags.BoolVar(&enable, "enable", false, "enable the output after loading")

	return cmd
}
