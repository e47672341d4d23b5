package stirap

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Samples below this magnitude are written as exactly zero; the AWG
// otherwise renders denormal-level noise at the trace edges.
const zeroClamp = 1e-9

// WriteSamples writes samples as a single comma-separated row with ten
// decimal places and a trailing newline, the format the waveform
// loader expects.
func WriteSamples(w io.Writer, samples []float64) error {
	parts := make([]string, len(samples))
	for i, v := range samples {
		if math.Abs(v) < zeroClamp {
			v = 0
		}
		parts[i] = strconv.FormatFloat(v, 'f', 10, 64)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, ","))
	return err
}

// ExportPair writes the pump and Stokes traces of p under dir using
// the standard naming, <prefix>_pump.csv and <prefix>_stokes.csv, and
// returns the prefix.
func ExportPair(p *Pair, dir string, T float64, shape Shape) (string, error) {
	prefix := FilePrefix(T, shape)
	for _, out := range []struct {
		suffix  string
		samples []float64
	}{
		{"pump", p.Pump},
		{"stokes", p.Stokes},
	} {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, out.suffix))
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		err = WriteSamples(f, out.samples)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", fmt.Errorf("error exporting %s: %w", path, err)
		}
		log.Printf("data exported to %s", path)
	}
	return prefix, nil
}

// ReadSamples parses a single-row comma-separated waveform file back
// into samples.
func ReadSamples(r io.Reader) ([]float64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fields := strings.Split(strings.TrimSpace(string(b)), ",")
	samples := make([]float64, 0, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		samples = append(samples, v)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples in waveform file")
	}
	return samples, nil
}

// LoadSamples reads a waveform CSV from disk.
func LoadSamples(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}
