package calib

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestCSVRoundTrip(t *testing.T) {
	in := []Point{
		{Voltage: 0, PowerFlip: 1e-4, PowerTarget: 8.2e-5, Timestamp: time.Unix(1747921805, 250000000)},
		{Voltage: 2, PowerFlip: 2e-4, PowerTarget: 1.67e-4, Timestamp: time.Unix(1747921815, 0)},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "voltage,power_flip,power_target,timestamp\n") {
		t.Errorf("missing header: %q", buf.String())
	}
	out, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("points = %d", len(out))
	}
	for i := range in {
		if out[i].Voltage != in[i].Voltage {
			t.Errorf("voltage[%d] = %g", i, out[i].Voltage)
		}
		if out[i].PowerFlip != in[i].PowerFlip {
			t.Errorf("power_flip[%d] = %g", i, out[i].PowerFlip)
		}
		if out[i].PowerTarget != in[i].PowerTarget {
			t.Errorf("power_target[%d] = %g", i, out[i].PowerTarget)
		}
		dt := out[i].Timestamp.Sub(in[i].Timestamp)
		if dt < 0 {
			dt = -dt
		}
		if dt > time.Millisecond {
			t.Errorf("timestamp[%d] off by %s", i, dt)
		}
	}
}

func TestReadCSVLegacyThreeColumns(t *testing.T) {
	in := "voltage,power1,power2\n0.5,1e-4,9e-5\n1.0,2e-4,1.8e-4\n"
	points, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d", len(points))
	}
	if points[0].PowerTarget != 9e-5 {
		t.Errorf("power_target = %g", points[0].PowerTarget)
	}
	if !points[0].Timestamp.IsZero() {
		t.Error("legacy rows should have zero timestamps")
	}
}

func TestReadCSVNoData(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("voltage,power_flip,power_target\n")); err == nil {
		t.Error("expected error for header-only file")
	}
}

func TestFitFromCSV(t *testing.T) {
	// the full pipeline: write a sweep, read it back, fit it
	var points []Point
	for _, v := range Linspace(0, 4, 30) {
		points = append(points, Point{
			Voltage:     v,
			PowerFlip:   3e-4 * v,
			PowerTarget: 0.9*3e-4*v + 1e-6,
			Timestamp:   time.Now(),
		})
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, points); err != nil {
		t.Fatal(err)
	}
	loaded, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	fit, err := FitPoints(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fit.A-0.9) > 1e-6 {
		t.Errorf("slope = %g, want 0.9", fit.A)
	}
	if math.Abs(fit.B-1e-6) > 1e-9 {
		t.Errorf("intercept = %g, want 1e-6", fit.B)
	}
}
