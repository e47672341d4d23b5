package scope

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/gotmc/query"

	"github.com/coldlab/coldctl"
)

// Acquire reads the captured waveform from each channel and converts
// the raw WORD samples to volts. The scope must already have triggered
// and stopped (Arm + WaitForAcquisition, or Digitize).
func (s *Scope) Acquire(channels []int) (*Record, error) {
	if !s.configured {
		return nil, fmt.Errorf("scope not configured; call Configure first")
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels requested")
	}

	byteCmd := "MSBFIRST"
	order := binary.ByteOrder(binary.BigEndian)
	if coldctl.NativeEndian() == binary.LittleEndian {
		byteCmd = "LSBFIRST"
		order = binary.LittleEndian
	}
	if err := s.session.Command("WAVEFORM:BYTEORDER %s", byteCmd); err != nil {
		return nil, err
	}
	unsigned, err := query.Bool(s.session, ":WAVeform:UNSigned?")
	if err != nil {
		return nil, fmt.Errorf("querying sample signedness: %w", err)
	}

	rec := &Record{}
	for _, ch := range channels {
		if err := s.session.Command("WAVEFORM:SOURCE CHANNEL%d", ch); err != nil {
			return nil, err
		}
		log.Printf("collecting data from channel %d...", ch)
		if err := s.session.SystemError(); err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		done, err := s.session.OperationComplete()
		if err != nil {
			return nil, err
		}
		if !done {
			return nil, fmt.Errorf("channel %d: pending operation did not complete", ch)
		}

		yinc, err := query.Float64(s.session, "WAVeform:YINCrement?")
		if err != nil {
			return nil, err
		}
		yorig, err := query.Float64(s.session, "WAVeform:YORigin?")
		if err != nil {
			return nil, err
		}
		if err := s.session.Command(":WAVeform:STReaming OFF"); err != nil {
			return nil, err
		}
		raw, err := s.session.QueryBlock("WAVeform:DATA?")
		if err != nil {
			return nil, fmt.Errorf("channel %d data: %w", ch, err)
		}
		words, err := coldctl.DecodeWords(raw, order)
		if err != nil {
			return nil, fmt.Errorf("channel %d data: %w", ch, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("no data collected from channel %d", ch)
		}
		volts := make([]float64, len(words))
		for i, w := range words {
			if unsigned {
				volts[i] = float64(w)*yinc + yorig
			} else {
				volts[i] = float64(int16(w))*yinc + yorig
			}
		}

		if rec.Time == nil {
			log.Print("collecting time data")
			xinc, err := query.Float64(s.session, "WAVeform:XINCrement?")
			if err != nil {
				return nil, err
			}
			xorig, err := query.Float64(s.session, "WAVeform:XORigin?")
			if err != nil {
				return nil, err
			}
			points, err := query.Int(s.session, "WAVeform:POINts?")
			if err != nil {
				return nil, err
			}
			rec.Time = timeAxis(xorig, xinc, points)
		}
		rec.Channels = append(rec.Channels, ChannelData{Number: ch, Volts: volts})
	}
	return rec, nil
}

// timeAxis builds points samples from xorig spaced by xinc.
func timeAxis(xorig, xinc float64, points int) []float64 {
	ts := make([]float64, points)
	for i := range ts {
		ts[i] = xorig + xinc*float64(i)
	}
	return ts
}
