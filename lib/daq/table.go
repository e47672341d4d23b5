package daq

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// Table maps between channel voltages and the physical quantity the
// channel was calibrated against (a frequency, a power, an angle).
// Conversion in either direction is by linear interpolation, with
// values past the table ends clamped to the end points.
type Table struct {
	volts []float64
	cal   []float64
}

// LoadTable reads a two-column voltage,value CSV. A non-numeric first
// row is treated as a header and skipped.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadTable parses calibration rows from r.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	var t Table
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: want 2 columns, got %d", i+1, len(row))
		}
		v, verr := strconv.ParseFloat(row[0], 64)
		c, cerr := strconv.ParseFloat(row[1], 64)
		if verr != nil || cerr != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("row %d: non-numeric data %v", i+1, row)
		}
		t.volts = append(t.volts, v)
		t.cal = append(t.cal, c)
	}
	if len(t.volts) < 2 {
		return nil, fmt.Errorf("calibration needs at least 2 points, got %d", len(t.volts))
	}
	return &t, nil
}

// Len returns the number of calibration points.
func (t *Table) Len() int { return len(t.volts) }

// FromVoltage converts a channel voltage to the calibrated quantity.
func (t *Table) FromVoltage(v float64) float64 {
	xs, ys := t.volts, t.cal
	if xs[0] > xs[len(xs)-1] {
		xs, ys = reversed(xs), reversed(ys)
	}
	return interp(v, xs, ys)
}

// ToVoltage converts a calibrated quantity back to a channel voltage.
func (t *Table) ToVoltage(cal float64) float64 {
	xs, ys := t.cal, t.volts
	if xs[0] > xs[len(xs)-1] {
		xs, ys = reversed(xs), reversed(ys)
	}
	return interp(cal, xs, ys)
}

func reversed(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// interp is one-dimensional linear interpolation over ascending xs,
// clamped at both ends.
func interp(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	i := sort.SearchFloat64s(xs, x)
	// xs[i-1] < x <= xs[i]
	frac := (x - xs[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + frac*(ys[i]-ys[i-1])
}
