package scope

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCSVRoundTrip(t *testing.T) {
	rec := &Record{
		Time: []float64{0, 1e-9, 2e-9},
		Channels: []ChannelData{
			{Number: 1, Volts: []float64{0.5, 0.25, 0.125}},
			{Number: 3, Volts: []float64{-1, 0, 1}},
		},
	}
	var buf bytes.Buffer
	if err := rec.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Channels) != 2 || got.Channels[0].Number != 1 || got.Channels[1].Number != 3 {
		t.Fatalf("channels = %+v", got.Channels)
	}
	for i := range rec.Time {
		if got.Time[i] != rec.Time[i] {
			t.Errorf("time %d = %v, want %v", i, got.Time[i], rec.Time[i])
		}
	}
	for c := range rec.Channels {
		for i, v := range rec.Channels[c].Volts {
			if got.Channels[c].Volts[i] != v {
				t.Errorf("channel %d sample %d = %v, want %v",
					rec.Channels[c].Number, i, got.Channels[c].Volts[i], v)
			}
		}
	}
}

func TestReadCSVRejectsForeignFile(t *testing.T) {
	for _, in := range []string{
		"",
		"voltage,power_flip\n1,2\n",
		"Time (s),Channel one Voltage (V)\n0,1\n",
		"Time (s),Channel 1 Voltage (V)\n0\n",
	} {
		if _, err := ReadCSV(strings.NewReader(in)); err == nil {
			t.Errorf("input %q accepted", in)
		}
	}
}

func TestRecordPlot(t *testing.T) {
	rec := &Record{
		Time: []float64{0, 1e-9},
		Channels: []ChannelData{
			{Number: 2, Volts: []float64{0, 1}},
		},
	}
	path := filepath.Join(t.TempDir(), "capture.png")
	if err := rec.Plot("capture", path); err != nil {
		t.Fatal(err)
	}
}

func TestRecordPlotEmpty(t *testing.T) {
	rec := &Record{}
	if err := rec.Plot("x", "unused.png"); err == nil {
		t.Fatal("empty record accepted")
	}
}
