package calib

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"
)

var header = []string{"voltage", "power_flip", "power_target", "timestamp"}

// WriteCSV writes sweep points with the standard header. Timestamps
// are written as Unix seconds with fractional part.
func WriteCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range points {
		ts := float64(p.Timestamp.UnixNano()) / 1e9
		row := []string{
			strconv.FormatFloat(p.Voltage, 'g', -1, 64),
			strconv.FormatFloat(p.PowerFlip, 'g', -1, 64),
			strconv.FormatFloat(p.PowerTarget, 'g', -1, 64),
			strconv.FormatFloat(ts, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV overwrites path with the sweep data. Calibration files are
// always replaced whole; stale rows must not survive a rerun.
func SaveCSV(path string, points []Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = WriteCSV(f, points)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Printf("saved %d measurements to %s", len(points), path)
	return nil
}

// ReadCSV loads sweep points. Files with only three columns (older
// sweeps without timestamps) are accepted.
func ReadCSV(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	var points []Point
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("row %d: want at least 3 columns, got %d", i+1, len(row))
		}
		v, verr := strconv.ParseFloat(row[0], 64)
		p1, p1err := strconv.ParseFloat(row[1], 64)
		p2, p2err := strconv.ParseFloat(row[2], 64)
		if verr != nil || p1err != nil || p2err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: non-numeric data %v", i+1, row)
		}
		pt := Point{Voltage: v, PowerFlip: p1, PowerTarget: p2}
		if len(row) > 3 {
			if ts, err := strconv.ParseFloat(row[3], 64); err == nil {
				sec := int64(ts)
				nsec := int64((ts - float64(sec)) * 1e9)
				pt.Timestamp = time.Unix(sec, nsec)
			}
		}
		points = append(points, pt)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no data rows in calibration file")
	}
	return points, nil
}

// LoadCSV reads sweep points from disk.
func LoadCSV(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}
