// Command coldctl drives the cold-atom lab's bench instruments: DAQ
// calibration sweeps against the flip-mirror power meters, STIRAP
// waveform generation, oscilloscope captures, and waveform-generator
// downloads.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coldlab/coldctl"
	"github.com/coldlab/coldctl/lib/config"
)

var (
	logLevel   = "info"
	configPath = "coldctl.json"
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.Kitchen,
	})
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("config loaded from %s", configPath)
	return cfg, nil
}

// openInstrument connects to an address from the config, logging the
// identification string so a wrong-port mixup shows up immediately.
func openInstrument(what, addr string) (*coldctl.Conn, error) {
	if addr == "" {
		return nil, fmt.Errorf("no %s address configured (edit %s)", what, configPath)
	}
	conn, err := coldctl.Open(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s at %s: %w", what, addr, err)
	}
	idn, err := conn.Identify()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s at %s did not identify: %w", what, addr, err)
	}
	logrus.WithFields(logrus.Fields{"addr": addr, "idn": idn}).Infof("%s connected", what)
	return conn, nil
}

func main() {
	// Ctrl-C cancels the context so sweeps stop cleanly between
	// points instead of mid-instrument-call.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "coldctl",
		Short:        "coldctl drives the lab's bench instruments",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", logLevel, "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")

	cmd.AddCommand(
		NewCalibrateCommand(),
		NewStirapCommand(),
		NewScopeCommand(),
		NewWavegenCommand(),
	)

	return cmd
}
