package scope

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ReadCSV parses a record back from the layout WriteCSV produces: a
// Time column followed by one voltage column per channel, channel
// numbers recovered from the headers.
func ReadCSV(r io.Reader) (*Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows in scope file")
	}

	header := rows[0]
	if len(header) < 2 || header[0] != "Time (s)" {
		return nil, fmt.Errorf("not a scope record: header %v", header)
	}
	rec := &Record{}
	for _, h := range header[1:] {
		var num int
		if _, err := fmt.Sscanf(h, "Channel %d Voltage (V)", &num); err != nil {
			return nil, fmt.Errorf("unrecognized column %q", h)
		}
		rec.Channels = append(rec.Channels, ChannelData{Number: num})
	}

	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d: want %d columns, got %d", i+2, len(header), len(row))
		}
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad time %q", i+2, row[0])
		}
		rec.Time = append(rec.Time, t)
		for j := range rec.Channels {
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad voltage %q", i+2, row[j+1])
			}
			rec.Channels[j].Volts = append(rec.Channels[j].Volts, v)
		}
	}
	return rec, nil
}

// LoadCSV reads a saved record from disk.
func LoadCSV(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rec, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Plot saves all channel traces against the time axis.
func (r *Record) Plot(title, path string) error {
	if len(r.Channels) == 0 {
		return fmt.Errorf("record has no channels")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Voltage (V)"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	var args []interface{}
	for _, ch := range r.Channels {
		pts := make(plotter.XYs, len(ch.Volts))
		for i, v := range ch.Volts {
			if i < len(r.Time) {
				pts[i].X = r.Time[i]
			}
			pts[i].Y = v
		}
		args = append(args, fmt.Sprintf("Channel %d", ch.Number), pts)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
