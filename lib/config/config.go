// Package config loads and saves the toolkit's JSON configuration.
//
// The root config names instrument addresses and points at a separate
// DAQ channel roster, so the roster can be shared between setups that
// differ only in which serial ports the instruments landed on.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/coldlab/coldctl/lib/daq"
)

// Config is the root configuration. Instrument addresses take the
// forms coldctl.Open understands: a serial device path or host:port.
type Config struct {
	// DAQAddr is the DAQ / analog-output unit.
	DAQAddr string `json:"daqAddr,omitempty"`
	// FlipMeterAddr is the power meter behind the flip mirror.
	FlipMeterAddr string `json:"flipMeterAddr,omitempty"`
	// TargetMeterAddr is the power meter at the experiment.
	TargetMeterAddr string `json:"targetMeterAddr,omitempty"`
	// ScopeAddr is the oscilloscope.
	ScopeAddr string `json:"scopeAddr,omitempty"`
	// WavegenAddr is the arbitrary waveform generator.
	WavegenAddr string `json:"wavegenAddr,omitempty"`

	// DataDir is the root under which dated measurement directories
	// are created.
	DataDir string `json:"dataDir,omitempty"`
	// ChannelFile is the DAQ channel roster, relative to the config
	// file when not absolute.
	ChannelFile string `json:"channelFile,omitempty"`

	path string
}

// ChannelEntry is one DAQ output in the roster file.
type ChannelEntry struct {
	Number          int        `json:"number"`
	Name            string     `json:"name"`
	Limits          [2]float64 `json:"limits"`
	DefaultValue    float64    `json:"default"`
	UIVisible       bool       `json:"uiVisible"`
	CalibrationFile string     `json:"calibrationFile,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DataDir:     ".",
		ChannelFile: "channels.json",
	}
}

// Load reads the config at path. A missing file yields the defaults
// rather than an error, so first runs work without setup.
func Load(path string) (*Config, error) {
	c := Default()
	c.path = path

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to read config %s", path)
	}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config %s", path)
	}
	return c, nil
}

// Save writes the config back to the path it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return pkgerrors.New("config has no file path")
	}
	fp, err := os.OpenFile(c.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open config %s", c.path)
	}
	defer func() {
		if err := fp.Close(); err != nil {
			logrus.Warnf("failed to close config %s", c.path)
		}
	}()

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config %s", c.path)
	}
	return nil
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string { return c.path }

// channelPath resolves the roster path against the config file's
// directory.
func (c *Config) channelPath() string {
	if filepath.IsAbs(c.ChannelFile) || c.path == "" {
		return c.ChannelFile
	}
	return filepath.Join(filepath.Dir(c.path), c.ChannelFile)
}

// Channels loads the DAQ channel roster and converts it to the
// channel descriptions lib/daq wants. Calibration file paths are
// resolved relative to the roster file.
func (c *Config) Channels() ([]daq.Channel, error) {
	path := c.channelPath()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read channel roster %s", path)
	}
	var entries []ChannelEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal channel roster %s", path)
	}
	if len(entries) == 0 {
		return nil, pkgerrors.Errorf("channel roster %s lists no channels", path)
	}

	channels := make([]daq.Channel, len(entries))
	for i, e := range entries {
		calfile := e.CalibrationFile
		if calfile != "" && !filepath.IsAbs(calfile) {
			calfile = filepath.Join(filepath.Dir(path), calfile)
		}
		channels[i] = daq.Channel{
			Number:          e.Number,
			Name:            e.Name,
			Limits:          e.Limits,
			DefaultValue:    e.DefaultValue,
			UIVisible:       e.UIVisible,
			CalibrationFile: calfile,
		}
	}
	return channels, nil
}

// SaveChannels writes a channel roster, used to seed a new setup.
func SaveChannels(path string, entries []ChannelEntry) error {
	fp, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open channel roster %s", path)
	}
	defer func() {
		if err := fp.Close(); err != nil {
			logrus.Warnf("failed to close channel roster %s", path)
		}
	}()

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return pkgerrors.Wrapf(err, "failed to encode channel roster %s", path)
	}
	return nil
}
