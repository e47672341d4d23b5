package daq

import (
	"testing"

	"github.com/coldlab/coldctl"
	"github.com/coldlab/coldctl/lib/scpitest"
)

func testChannels() []Channel {
	return []Channel{
		{Number: 3, Name: "cool_freq", Limits: [2]float64{0, 10}, DefaultValue: 3.74},
		{Number: 7, Name: "stirap_amp", Limits: [2]float64{0, 4}},
		{Number: 4, Name: "flip_mirror", Limits: [2]float64{0, 5}},
	}
}

func TestSetVoltage(t *testing.T) {
	inst := scpitest.New(nil)
	c, err := NewController(coldctl.NewSession(inst), testChannels())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetVoltage(7, 2.5); err != nil {
		t.Fatal(err)
	}
	if !inst.SentContains("SOUR7:VOLT 2.500000") {
		t.Errorf("voltage command not sent; sent %v", inst.Sent())
	}
}

func TestSetVoltageOutsideLimits(t *testing.T) {
	c, err := NewController(coldctl.NewSession(scpitest.New(nil)), testChannels())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetVoltage(7, 4.5); err == nil {
		t.Error("expected error above upper limit")
	}
	if err := c.SetVoltage(7, -0.1); err == nil {
		t.Error("expected error below lower limit")
	}
}

func TestSetVoltageUnknownChannel(t *testing.T) {
	c, err := NewController(coldctl.NewSession(scpitest.New(nil)), testChannels())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetVoltage(99, 1); err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestSetDigital(t *testing.T) {
	inst := scpitest.New(nil)
	c, err := NewController(coldctl.NewSession(inst), testChannels())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetDigital(4, true); err != nil {
		t.Fatal(err)
	}
	if err := c.SetDigital(4, false); err != nil {
		t.Fatal(err)
	}
	if !inst.SentContains("DIG:OUTP4 1") || !inst.SentContains("DIG:OUTP4 0") {
		t.Errorf("digital commands not sent; sent %v", inst.Sent())
	}
}

func TestContinuousOutputEnablesOnce(t *testing.T) {
	inst := scpitest.New(nil)
	c, err := NewController(coldctl.NewSession(inst), testChannels())
	if err != nil {
		t.Fatal(err)
	}
	c.ContinuousOutput = true
	if err := c.SetVoltage(7, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.SetVoltage(7, 2); err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, cmd := range inst.Sent() {
		if cmd == "OUTP ON" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("OUTP ON sent %d times, want once; sent %v", n, inst.Sent())
	}
}

func TestReleaseAll(t *testing.T) {
	inst := scpitest.New(nil)
	c, err := NewController(coldctl.NewSession(inst), testChannels())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	if !inst.SentContains("SOUR3:VOLT 3.740000") {
		t.Errorf("channel 3 not returned to default; sent %v", inst.Sent())
	}
	if !inst.SentContains("OUTP OFF") {
		t.Errorf("outputs not disabled; sent %v", inst.Sent())
	}
}

func TestDuplicateChannel(t *testing.T) {
	chans := []Channel{{Number: 1}, {Number: 1}}
	if _, err := NewController(coldctl.NewSession(scpitest.New(nil)), chans); err == nil {
		t.Error("expected error for duplicate channel numbers")
	}
}

func TestReversedLimits(t *testing.T) {
	chans := []Channel{{Number: 1, Limits: [2]float64{5, 0}}}
	if _, err := NewController(coldctl.NewSession(scpitest.New(nil)), chans); err == nil {
		t.Error("expected error for reversed limits")
	}
}
