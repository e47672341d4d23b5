// Package scope manages configuration, trigger arming, and waveform
// acquisition for the lab's Infiniium-class oscilloscope.
package scope

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gotmc/query"

	"github.com/coldlab/coldctl"
)

// Settings holds the general acquisition configuration.
type Settings struct {
	Channels      []int
	SampleRate    float64 // samples per second
	TimebaseRange float64 // seconds of capture
	Centered      bool    // center the time axis on the trigger instead of starting there
	HighImpedance bool    // DC coupling, 1 MOhm input
}

// Slope selects the trigger edge direction.
type Slope string

const (
	SlopePositive Slope = "+"
	SlopeNegative Slope = "-"
)

// Scope wraps an oscilloscope session.
type Scope struct {
	session *coldctl.Session

	configured bool
}

// New wraps a session in a scope manager.
func New(session *coldctl.Session) *Scope {
	return &Scope{session: session}
}

// Identify returns the scope identification string.
func (s *Scope) Identify() (string, error) { return s.session.Identify() }

// Configure applies the general scope settings: high-resolution
// acquisition, sample rate, timebase, input coupling, and WORD-format
// waveform transfers.
func (s *Scope) Configure(cfg Settings) error {
	log.Print("configuring the scope settings")
	cmds := []string{
		"ACQUIRE:MODE HRES",
		fmt.Sprintf("ACQUIRE:SRATE:ANALOG %G", cfg.SampleRate),
	}
	if cfg.Centered {
		cmds = append(cmds, "TIMEBASE:POSITION 0")
	} else {
		cmds = append(cmds, ":TIMEBASE:REFERENCE LEFT")
	}
	cmds = append(cmds, fmt.Sprintf("TIMEBASE:RANGE %G", cfg.TimebaseRange))
	if cfg.HighImpedance {
		for _, ch := range cfg.Channels {
			// DC coupling, impedance 1 MOhm
			cmds = append(cmds, fmt.Sprintf(":CHANnel%d:INPut DC", ch))
		}
	}
	cmds = append(cmds, "WAVeform:FORMat WORD")
	for _, cmd := range cmds {
		if err := s.session.Command(cmd); err != nil {
			return fmt.Errorf("error configuring scope: %w", err)
		}
	}
	s.configured = true
	log.Print("scope settings configured")
	return nil
}

// ConfigureTrigger sets an edge trigger on the given channel at the
// given voltage level.
func (s *Scope) ConfigureTrigger(channel int, level float64, slope Slope) error {
	cmds := []string{
		":TRIGGER:SWEEP TRIGGERED",
		":TRIGGER:MODE EDGE",
		fmt.Sprintf(":TRIGger:LEVel CHANnel%d, %G", channel, level),
	}
	switch slope {
	case SlopePositive:
		cmds = append(cmds, ":TRIGGER:EDGE:SLOPE POSITIVE")
	case SlopeNegative:
		cmds = append(cmds, ":TRIGGER:EDGE:SLOPE NEGATIVE")
	default:
		return fmt.Errorf("invalid trigger slope %q", slope)
	}
	for _, cmd := range cmds {
		if err := s.session.Command(cmd); err != nil {
			return fmt.Errorf("error configuring trigger: %w", err)
		}
	}
	return nil
}

// Arm arms a single acquisition and polls the Arm Event Register until
// the scope reports armed or maxWait expires. Expiry is an error; the
// caller is about to fire the experiment and must not do so unarmed.
func (s *Scope) Arm(maxWait, pollInterval time.Duration) error {
	// reading AER clears it
	if _, err := s.session.Query(":AER?"); err != nil {
		return fmt.Errorf("error clearing arm event register: %w", err)
	}
	if err := s.session.Command(":SINGLE"); err != nil {
		return err
	}
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		armed, err := query.Int(s.session, ":AER?")
		if err != nil {
			return fmt.Errorf("error polling arm event register: %w", err)
		}
		if armed == 1 {
			log.Print("oscilloscope armed")
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("oscilloscope failed to arm within %s", maxWait)
}

// WaitForAcquisition polls the trigger and run-state registers until a
// trigger event has occurred and the scope has stopped with processing
// complete. It reports false when maxWait expires first.
func (s *Scope) WaitForAcquisition(maxWait, pollInterval time.Duration) (bool, error) {
	deadline := time.Now().Add(maxWait)
	var triggered, stopped bool
	for time.Now().Before(deadline) {
		ter, err := query.Int(s.session, ":TER?")
		if err != nil {
			return false, err
		}
		oper, err := query.Int(s.session, ":OPER?")
		if err != nil {
			return false, err
		}
		rstate, err := query.String(s.session, ":RSTATE?")
		if err != nil {
			return false, err
		}
		pder, err := query.Int(s.session, ":PDER?")
		if err != nil {
			return false, err
		}
		if ter != 0 {
			triggered = true
		}
		if strings.EqualFold(strings.TrimSpace(rstate), "STOP") && oper == 2 && pder == 1 {
			stopped = true
		}
		if triggered && stopped {
			return true, nil
		}
		time.Sleep(pollInterval)
	}
	return false, nil
}

// Digitize starts a digitize cycle and waits for operation complete.
func (s *Scope) Digitize() (bool, error) {
	resp, err := s.session.Query(":DIGitize;*OPC?")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(resp) == "1", nil
}

// Stop puts the scope into stop mode.
func (s *Scope) Stop() error {
	log.Print("oscilloscope set to stop mode")
	return s.session.Command(":STOP")
}

// Reset clears all settings and data.
func (s *Scope) Reset() error { return s.session.Reset() }

// Clear clears instrument status.
func (s *Scope) Clear() error { return s.session.Clear() }
