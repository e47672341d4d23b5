// Package powermeter drives Thorlabs PM100-family optical power meters
// over a SCPI session.
package powermeter

import (
	"fmt"
	"strings"

	"github.com/gotmc/query"

	"github.com/coldlab/coldctl"
)

// Units are the power reading measures the meter can be configured to
// use.
type Units string

const (
	Watts Units = "W"
	DBM   Units = "DBM"
)

func (u Units) String() string {
	switch u {
	case Watts:
		return "Watts"
	case DBM:
		return "dBm"
	default:
		return string(u)
	}
}

// Meter is a power meter on an instrument session.
type Meter struct {
	session *coldctl.Session

	// Model is filled in by Identify.
	Model  string
	Serial string
}

// New wraps a session in a power meter.
func New(session *coldctl.Session) *Meter {
	return &Meter{session: session}
}

// Identify queries *IDN? and records the model and serial number. An
// unexpected manufacturer or model family is an error, since a sweep
// against the wrong instrument produces plausible-looking garbage.
func (m *Meter) Identify() (string, error) {
	idn, err := m.session.Identify()
	if err != nil {
		return "", err
	}
	fields := strings.Split(idn, ",")
	if len(fields) < 3 {
		return idn, fmt.Errorf("malformed identification %q", idn)
	}
	if fields[0] != "Thorlabs" {
		return idn, fmt.Errorf("not a Thorlabs power meter: %q", idn)
	}
	if !strings.HasPrefix(fields[1], "PM100") {
		return idn, fmt.Errorf("unsupported power meter model %q", fields[1])
	}
	m.Model = fields[1]
	m.Serial = fields[2]
	return idn, nil
}

// Configure sets up power measurement with the given averaging count:
// power mode, auto-ranging, and SENS:AVER:COUN.
func (m *Meter) Configure(averageCount int) error {
	if averageCount < 1 {
		return fmt.Errorf("average count must be >= 1, got %d", averageCount)
	}
	cmds := []string{
		"SENS:POW:UNIT W",
		"CONF:POW",
		"SENS:POW:RANG:AUTO ON",
		fmt.Sprintf("SENS:AVER:COUN %d", averageCount),
	}
	for _, cmd := range cmds {
		if err := m.session.Command(cmd); err != nil {
			return fmt.Errorf("error configuring power meter: %w", err)
		}
	}
	return m.session.SystemError()
}

// SetWavelength sets the correction wavelength in nm.
func (m *Meter) SetWavelength(nm float64) error {
	return m.session.Command("SENS:CORR:WAV %g", nm)
}

// Unit switches the power readout between watts and dBm.
func (m *Meter) Unit(u Units) error {
	return m.session.Command("SENS:POW:UNIT %s", string(u))
}

// Zero zeroes the sensor against ambient. The meter takes a moment;
// callers should poll OperationComplete before reading.
func (m *Meter) Zero() error {
	return m.session.Command("SENS:CORR:COLL:ZERO:INIT")
}

// Read takes one power reading in the configured units.
func (m *Meter) Read() (float64, error) {
	return query.Float64(m.session, "READ?")
}

// AverageCount queries the configured averaging count.
func (m *Meter) AverageCount() (int, error) {
	return query.Int(m.session, "SENS:AVER:COUN?")
}
