package stirap

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteSamples(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSamples(&buf, []float64{0.5, 1e-12, -0.25}); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	want := "0.5000000000,0.0000000000,-0.2500000000\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "\n"), ",") {
		t.Error("trailing comma before newline")
	}
}

func TestWriteSamplesZeroClamp(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSamples(&buf, []float64{9.9e-10, -9.9e-10, 1.1e-9}); err != nil {
		t.Fatal(err)
	}
	fields := strings.Split(strings.TrimSpace(buf.String()), ",")
	if fields[0] != "0.0000000000" || fields[1] != "0.0000000000" {
		t.Errorf("sub-threshold samples not clamped: %v", fields)
	}
	if fields[2] == "0.0000000000" {
		t.Error("above-threshold sample should not be clamped")
	}
}

func TestReadSamplesRoundTrip(t *testing.T) {
	in := []float64{0, 0.1234567891, -1, 0.5}
	var buf bytes.Buffer
	if err := WriteSamples(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadSamples(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("length %d, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(out[i]-in[i]) > 5e-11 {
			t.Errorf("sample %d: %g, want %g", i, out[i], in[i])
		}
	}
}

func TestReadSamplesEmpty(t *testing.T) {
	if _, err := ReadSamples(strings.NewReader("\n")); err == nil {
		t.Error("expected error for empty waveform")
	}
}

func TestReadSamplesBadData(t *testing.T) {
	if _, err := ReadSamples(strings.NewReader("0.1,abc,0.2")); err == nil {
		t.Error("expected error for non-numeric sample")
	}
}

func TestExportPair(t *testing.T) {
	p, err := Generate(1.0, 100, Standard)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	prefix, err := ExportPair(p, dir, 1.0, Standard)
	if err != nil {
		t.Fatal(err)
	}
	if prefix != "standard_1000ns" {
		t.Errorf("prefix = %q", prefix)
	}
	for _, suffix := range []string{"pump", "stokes"} {
		path := filepath.Join(dir, prefix+"_"+suffix+".csv")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s missing: %s", path, err)
			continue
		}
		samples, err := LoadSamples(path)
		if err != nil {
			t.Errorf("%s: %s", path, err)
			continue
		}
		if len(samples) != 100 {
			t.Errorf("%s: %d samples, want 100", path, len(samples))
		}
	}
}
