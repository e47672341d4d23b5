package scope

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// overridable for tests
var timeNow = time.Now

// Record is one acquisition: a shared time axis plus per-channel
// voltage traces.
type Record struct {
	Time     []float64
	Channels []ChannelData
}

// ChannelData is the voltage trace from one scope channel.
type ChannelData struct {
	Number int
	Volts  []float64
}

// WriteCSV writes the record with a Time column followed by one
// voltage column per channel.
func (r *Record) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"Time (s)"}
	for _, ch := range r.Channels {
		header = append(header, fmt.Sprintf("Channel %d Voltage (V)", ch.Number))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i, t := range r.Time {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j, ch := range r.Channels {
			if i < len(ch.Volts) {
				row[j+1] = strconv.FormatFloat(ch.Volts[i], 'g', -1, 64)
			} else {
				row[j+1] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveData writes the record under root in a dated directory with a
// timestamped name, data/<YYYY-MM-DD>/<window>_<HH-MM-SS>_<name>.csv,
// and returns the full path.
func (r *Record) SaveData(root, name string, window int) (string, error) {
	now := timeNow()
	dir := filepath.Join(root, "data", now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	full := filepath.Join(dir, fmt.Sprintf("%d_%s_%s.csv", window, now.Format("15-04-05"), name))
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := r.WriteCSV(f); err != nil {
		return "", err
	}
	log.Printf("data saved to %s", full)
	return full, nil
}
