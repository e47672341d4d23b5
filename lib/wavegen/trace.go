package wavegen

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/coldlab/coldctl"
)

// The WX218x DAC is 14 bit. Samples map onto the low 14 bits of each
// downloaded word, with 0 at negative full scale.
const (
	dacBits      = 14
	dacFullScale = 1<<dacBits - 1
)

// EncodeDAC maps samples in [-1, 1] onto DAC words. Samples outside
// the range are clipped.
func EncodeDAC(samples []float64) []uint16 {
	words := make([]uint16, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		words[i] = uint16(math.Round((v + 1) / 2 * dacFullScale))
	}
	return words
}

// Normalize scales samples so the largest magnitude is 1. A slice
// with no nonzero sample is returned unchanged.
func Normalize(samples []float64) []float64 {
	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	out := make([]float64, len(samples))
	if peak == 0 {
		copy(out, samples)
		return out
	}
	for i, v := range samples {
		out[i] = v / peak
	}
	return out
}

// LoadArbitrary normalizes samples, converts them to DAC words, and
// downloads them to the selected channel's trace memory as a
// definite-length block. The instrument takes its words LSB first
// regardless of host order.
func (g *Generator) LoadArbitrary(samples []float64) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to load")
	}
	if sup, known := g.caps["trace download"]; known && !sup {
		return fmt.Errorf("trace download: %w", ErrUnsupported)
	}
	words := EncodeDAC(Normalize(samples))
	payload := coldctl.EncodeWords(words, binary.LittleEndian)
	if err := g.session.CommandBlock(":TRAC:DATA", payload); err != nil {
		return err
	}
	if err := g.session.SystemError(); err != nil {
		g.caps["trace download"] = false
		return fmt.Errorf("trace download: %w", ErrUnsupported)
	}
	g.caps["trace download"] = true
	return nil
}
