// Package daq controls the experiment's analog/digital output unit:
// voltage-setting on numbered channels with per-channel limits and
// calibration tables, and digital lines for flip mirrors.
package daq

import (
	"fmt"
	"log"

	"go.uber.org/multierr"

	"github.com/coldlab/coldctl"
)

// Channel describes one output channel of the unit.
type Channel struct {
	Number          int
	Name            string
	Limits          [2]float64 // min, max output voltage
	DefaultValue    float64
	UIVisible       bool
	CalibrationFile string

	table *Table
}

// Calibration returns the channel's loaded calibration table, or nil
// when the channel has none.
func (ch *Channel) Calibration() *Table { return ch.table }

// Controller drives the output unit over an instrument session.
type Controller struct {
	// ContinuousOutput keeps the outputs driven between updates
	// rather than pulsing them.
	ContinuousOutput bool

	session  *coldctl.Session
	channels map[int]*Channel
	outputOn bool
}

// NewController wraps a session and the channel roster. Channels with
// a calibration file get their table loaded now, so a bad file fails
// at startup instead of mid-sweep.
func NewController(session *coldctl.Session, channels []Channel) (*Controller, error) {
	c := Controller{
		session:  session,
		channels: make(map[int]*Channel, len(channels)),
	}
	for i := range channels {
		ch := channels[i]
		if _, dup := c.channels[ch.Number]; dup {
			return nil, fmt.Errorf("duplicate channel number %d", ch.Number)
		}
		if ch.Limits[0] > ch.Limits[1] {
			return nil, fmt.Errorf("channel %d limits reversed: %v", ch.Number, ch.Limits)
		}
		if ch.CalibrationFile != "" {
			table, err := LoadTable(ch.CalibrationFile)
			if err != nil {
				return nil, fmt.Errorf("channel %d calibration: %w", ch.Number, err)
			}
			ch.table = table
		}
		c.channels[ch.Number] = &ch
	}
	return &c, nil
}

// Channel looks up a channel by number.
func (c *Controller) Channel(num int) (*Channel, bool) {
	ch, ok := c.channels[num]
	return ch, ok
}

// SetVoltage drives the given analog channel. Values outside the
// channel's limits are rejected rather than clamped; a silently
// clamped sweep corrupts the calibration fit.
func (c *Controller) SetVoltage(num int, volts float64) error {
	ch, ok := c.channels[num]
	if !ok {
		return fmt.Errorf("unknown channel %d", num)
	}
	if volts < ch.Limits[0] || volts > ch.Limits[1] {
		return fmt.Errorf("channel %d (%s): %g V outside limits [%g, %g]",
			num, ch.Name, volts, ch.Limits[0], ch.Limits[1])
	}
	if err := c.session.Command("SOUR%d:VOLT %.6f", num, volts); err != nil {
		return err
	}
	if c.ContinuousOutput && !c.outputOn {
		if err := c.session.Command("OUTP ON"); err != nil {
			return err
		}
		c.outputOn = true
	}
	return nil
}

// SetDigital drives a digital output line, used for the flip mirror.
func (c *Controller) SetDigital(num int, on bool) error {
	if _, ok := c.channels[num]; !ok {
		return fmt.Errorf("unknown channel %d", num)
	}
	state := 0
	if on {
		state = 1
	}
	return c.session.Command("DIG:OUTP%d %d", num, state)
}

// ReleaseAll returns every channel to its default value and disables
// the outputs. Errors are combined so every channel gets its chance.
func (c *Controller) ReleaseAll() error {
	var err error
	for num, ch := range c.channels {
		err = multierr.Append(err, c.SetVoltage(num, ch.DefaultValue))
	}
	err = multierr.Append(err, c.session.Command("OUTP OFF"))
	c.outputOn = false
	if err != nil {
		log.Printf("error releasing DAQ channels: %s", err)
	}
	return err
}
