// Package wavegen drives WX218x-class arbitrary waveform generators.
//
// Firmware revisions of these units expose noticeably different
// command surfaces, so the driver probes capabilities as it goes:
// the first use of an operation the instrument rejects marks it
// unsupported, and later calls fail fast with ErrUnsupported so
// callers can fall back rather than wedge the error queue.
package wavegen

import (
	"errors"
	"fmt"
	"log"

	"go.uber.org/multierr"

	"github.com/coldlab/coldctl"
)

// ErrUnsupported reports an operation this instrument's firmware does
// not implement.
var ErrUnsupported = errors.New("operation not supported by this instrument")

// OperationMode selects how the generator runs waveforms.
type OperationMode int

const (
	Continuous OperationMode = iota // generate output continuously
	Burst                           // a burst of waveforms per trigger
	Triggered                       // trigger mode; respects the burst count setting
	Gated
)

var operationModeCmd = map[OperationMode]string{
	Continuous: "CONT",
	Burst:      "BURS",
	Triggered:  "TRIG",
	Gated:      "GATE",
}

// OutputMode selects the waveform source.
type OutputMode int

const (
	Function  OutputMode = iota // standard waveform shapes
	Arbitrary                   // downloaded arbitrary traces
	Sequence                    // sequenced waveform output
)

var outputModeCmd = map[OutputMode]string{
	Function:  "FIX",
	Arbitrary: "USER",
	Sequence:  "SEQ",
}

// TraceMode selects how a downloaded trace is placed across channels.
type TraceMode int

const (
	Single TraceMode = iota
	Duplicate
	Zero
	Combine
)

var traceModeCmd = map[TraceMode]string{
	Single:    "SING",
	Duplicate: "DUPL",
	Zero:      "ZER",
	Combine:   "COMB",
}

// TriggerMode selects the trigger source. The values match the
// instrument's attribute encoding, which skips 3.
type TriggerMode int

const (
	External TriggerMode = 1 // TRIG IN connector
	Software TriggerMode = 2 // remote commands only
	Timer    TriggerMode = 4 // built-in internal trigger generator
	Event    TriggerMode = 5 // Event IN connector
)

var triggerModeCmd = map[TriggerMode]string{
	External: "EXT",
	Software: "BUS",
	Timer:    "TIM",
	Event:    "EVEN",
}

// TriggerSlope selects the trigger edge.
type TriggerSlope int

const (
	Positive TriggerSlope = iota
	Negative
	Either
)

var triggerSlopeCmd = map[TriggerSlope]string{
	Positive: "POS",
	Negative: "NEG",
	Either:   "EIT",
}

// Generator is an arbitrary waveform generator on a session.
type Generator struct {
	session *coldctl.Session
	caps    map[string]bool
}

// Connect initializes the generator, trying each known init sequence
// in order. Older firmware rejects *RST-based init, so a legacy
// sequence is tried next; the returned error names every variant that
// failed.
func Connect(session *coldctl.Session) (*Generator, error) {
	g := &Generator{session: session, caps: map[string]bool{}}

	var errs error
	for _, variant := range []struct {
		name string
		run  func() error
	}{
		{"reset init", g.initReset},
		{"legacy init", g.initLegacy},
	} {
		err := variant.run()
		if err == nil {
			log.Printf("wavegen initialized via %s", variant.name)
			return g, nil
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", variant.name, err))
	}
	return nil, fmt.Errorf("all init variants failed: %w", errs)
}

func (g *Generator) initReset() error {
	if err := g.session.Reset(); err != nil {
		return err
	}
	if err := g.session.Clear(); err != nil {
		return err
	}
	done, err := g.session.OperationComplete()
	if err != nil {
		return err
	}
	if !done {
		return fmt.Errorf("reset did not complete")
	}
	return nil
}

func (g *Generator) initLegacy() error {
	if err := g.session.Command(":SYST:INIT"); err != nil {
		return err
	}
	done, err := g.session.OperationComplete()
	if err != nil {
		return err
	}
	if !done {
		return fmt.Errorf("init did not complete")
	}
	return nil
}

// do issues a command under a named capability: a rejected command
// marks the capability unsupported for the rest of the connection.
func (g *Generator) do(op, format string, a ...any) error {
	if sup, known := g.caps[op]; known && !sup {
		return fmt.Errorf("%s: %w", op, ErrUnsupported)
	}
	if err := g.session.Command(format, a...); err != nil {
		return err
	}
	if err := g.session.SystemError(); err != nil {
		g.caps[op] = false
		log.Printf("wavegen: %s rejected, marking unsupported: %s", op, err)
		return fmt.Errorf("%s: %w", op, ErrUnsupported)
	}
	g.caps[op] = true
	return nil
}

// Supported reports the probe state for an operation name: true only
// once the operation has succeeded at least once.
func (g *Generator) Supported(op string) bool { return g.caps[op] }

// SelectChannel routes subsequent configuration to a channel (1-4).
func (g *Generator) SelectChannel(ch int) error {
	if ch < 1 || ch > 4 {
		return fmt.Errorf("invalid channel %d (must be 1-4)", ch)
	}
	return g.do("select channel", ":INST:SEL %d", ch)
}

// SetOperationMode selects continuous, burst, triggered, or gated
// operation.
func (g *Generator) SetOperationMode(m OperationMode) error {
	mn, ok := operationModeCmd[m]
	if !ok {
		return fmt.Errorf("invalid operation mode %d", m)
	}
	return g.do("operation mode", ":INIT:%s", mn)
}

// SetOutputMode selects function, arbitrary, or sequence output.
func (g *Generator) SetOutputMode(m OutputMode) error {
	mn, ok := outputModeCmd[m]
	if !ok {
		return fmt.Errorf("invalid output mode %d", m)
	}
	return g.do("output mode", ":FUNC:MODE %s", mn)
}

// SetTraceMode selects the trace download mode.
func (g *Generator) SetTraceMode(m TraceMode) error {
	mn, ok := traceModeCmd[m]
	if !ok {
		return fmt.Errorf("invalid trace mode %d", m)
	}
	return g.do("trace mode", ":TRAC:MODE %s", mn)
}

// SetTriggerMode selects the trigger source.
func (g *Generator) SetTriggerMode(m TriggerMode) error {
	mn, ok := triggerModeCmd[m]
	if !ok {
		return fmt.Errorf("invalid trigger mode %d", m)
	}
	return g.do("trigger mode", ":TRIG:SOUR:ADV %s", mn)
}

// SetTriggerSlope selects the trigger edge direction.
func (g *Generator) SetTriggerSlope(s TriggerSlope) error {
	mn, ok := triggerSlopeCmd[s]
	if !ok {
		return fmt.Errorf("invalid trigger slope %d", s)
	}
	return g.do("trigger slope", ":TRIG:SLOP %s", mn)
}

// SetBurstCount sets how many waveform cycles one trigger produces.
func (g *Generator) SetBurstCount(n int) error {
	if n < 1 {
		return fmt.Errorf("burst count must be >= 1, got %d", n)
	}
	return g.do("burst count", ":TRIG:COUN %d", n)
}

// SetSampleRate sets the arbitrary-trace sample clock in Sa/s.
func (g *Generator) SetSampleRate(hz float64) error {
	return g.do("sample rate", ":ARB:SRAT %G", hz)
}

// SetFrequency sets the standard-function output frequency in Hz.
func (g *Generator) SetFrequency(hz float64) error {
	return g.do("frequency", ":FREQ %G", hz)
}

// SetAmplitude sets the output amplitude in Vpp.
func (g *Generator) SetAmplitude(vpp float64) error {
	return g.do("amplitude", ":VOLT %G", vpp)
}

// SetOffset sets the output DC offset in volts.
func (g *Generator) SetOffset(volts float64) error {
	return g.do("offset", ":VOLT:OFFS %G", volts)
}

// EnableOutput turns the selected channel's output on.
func (g *Generator) EnableOutput() error { return g.do("output", ":OUTP ON") }

// DisableOutput turns the selected channel's output off.
func (g *Generator) DisableOutput() error { return g.do("output", ":OUTP OFF") }
