package coldctl

import (
	"bytes"
	"strings"
	"testing"
)

// fakeInst scripts an instrument: each recognized command queues its
// response for subsequent reads.
type fakeInst struct {
	responses map[string]string
	sent      []string
	pending   bytes.Buffer
}

func (f *fakeInst) Write(p []byte) (int, error) {
	cmd := strings.TrimSpace(string(p))
	f.sent = append(f.sent, cmd)
	if resp, ok := f.responses[cmd]; ok {
		f.pending.WriteString(resp)
	}
	return len(p), nil
}

func (f *fakeInst) Read(p []byte) (int, error) { return f.pending.Read(p) }

func TestCommandAppendsTerminator(t *testing.T) {
	inst := &fakeInst{}
	s := NewSession(inst)
	if err := s.Command("  OUTP ON  "); err != nil {
		t.Fatal(err)
	}
	if got, want := inst.sent[0], "OUTP ON"; got != want {
		t.Errorf("sent %q, want %q", got, want)
	}
}

func TestCommandFormats(t *testing.T) {
	inst := &fakeInst{}
	s := NewSession(inst)
	if err := s.Command("SOUR%d:VOLT %.3f", 2, 1.25); err != nil {
		t.Fatal(err)
	}
	if got, want := inst.sent[0], "SOUR2:VOLT 1.250"; got != want {
		t.Errorf("sent %q, want %q", got, want)
	}
}

func TestQuery(t *testing.T) {
	inst := &fakeInst{responses: map[string]string{
		"*IDN?": "Thorlabs,PM100A,P1002347,2.3.0\n",
	}}
	s := NewSession(inst)
	idn, err := s.Identify()
	if err != nil {
		t.Fatal(err)
	}
	if idn != "Thorlabs,PM100A,P1002347,2.3.0" {
		t.Errorf("idn = %q", idn)
	}
}

func TestQueryEOFWithoutTerminator(t *testing.T) {
	inst := &fakeInst{responses: map[string]string{
		"VAL?": "42", // no trailing newline
	}}
	s := NewSession(inst)
	resp, err := s.Query("VAL?")
	if err != nil {
		t.Fatalf("EOF on terminator-less response should not error: %s", err)
	}
	if resp != "42" {
		t.Errorf("resp = %q", resp)
	}
}

func TestOperationComplete(t *testing.T) {
	inst := &fakeInst{responses: map[string]string{"*OPC?": "1\n"}}
	s := NewSession(inst)
	done, err := s.OperationComplete()
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("expected completion")
	}
}

func TestSystemError(t *testing.T) {
	inst := &fakeInst{responses: map[string]string{
		"SYSTem:ERRor?": "0,\"No error\"\n",
	}}
	s := NewSession(inst)
	if err := s.SystemError(); err != nil {
		t.Errorf("code 0 should be nil, got %s", err)
	}

	inst = &fakeInst{responses: map[string]string{
		"SYSTem:ERRor?": "-113,\"Undefined header\"\n",
	}}
	s = NewSession(inst)
	if err := s.SystemError(); err == nil {
		t.Error("expected instrument error")
	}
}

func TestWithTerminators(t *testing.T) {
	inst := &fakeInst{responses: map[string]string{
		"FREQ?": "100.0\r",
	}}
	s := NewSession(inst, WithTerminators('\r', '\r'))
	resp, err := s.Query("FREQ?")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(resp) != "100.0" {
		t.Errorf("resp = %q", resp)
	}
}
