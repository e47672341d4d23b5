// Package stirap generates the pump and Stokes Rabi-frequency
// envelopes for stimulated Raman adiabatic passage pulse sequences.
//
// The counterintuitive ordering is built into the shapes: the Stokes
// envelope peaks before the pump envelope, with both under a common
// super-Gaussian window centered on T/2.
package stirap

import (
	"fmt"
	"math"
)

// Shape names a supported pulse envelope family.
type Shape string

// Standard is the lab's production pulse shape: a super-Gaussian
// window multiplied by sin/cos of a sigmoid mixing angle.
const Standard Shape = "standard"

// window and mixing-angle constants for the standard shape
const (
	sigmoidGain = 10.0
	superGaussN = 4
)

// Stokes evaluates the Stokes envelope at time t for pulse length T.
func Stokes(t, T float64) float64 {
	return window(t, T) * math.Cos(math.Pi/2*sigmoid(t, T))
}

// Pump evaluates the pump envelope at time t for pulse length T.
func Pump(t, T float64) float64 {
	return window(t, T) * math.Sin(math.Pi/2*sigmoid(t, T))
}

func window(t, T float64) float64 {
	c := T / 3
	return math.Exp(-math.Pow((t-T/2)/c, 2*superGaussN))
}

func sigmoid(t, T float64) float64 {
	return 1 / (1 + math.Exp(-sigmoidGain*(t-T/2)/T))
}

// Pair holds one generated pulse pair, each normalized to a peak
// magnitude of 1.
type Pair struct {
	Time   []float64
	Pump   []float64
	Stokes []float64
}

// Generate samples the pump and Stokes envelopes for a pulse of length
// T at sampleRate points per unit time. Each envelope is normalized
// separately so its peak magnitude is 1.
func Generate(T float64, sampleRate int, shape Shape) (*Pair, error) {
	if shape != Standard {
		return nil, fmt.Errorf("unsupported shape for STIRAP pulses: %s", shape)
	}
	if T <= 0 {
		return nil, fmt.Errorf("pulse length must be positive, got %g", T)
	}
	if sampleRate < 2 {
		return nil, fmt.Errorf("sample rate too low: %d", sampleRate)
	}

	n := int(T * float64(sampleRate))
	if n < 2 {
		return nil, fmt.Errorf("pulse length %g at rate %d yields %d samples", T, sampleRate, n)
	}
	p := Pair{
		Time:   make([]float64, n),
		Pump:   make([]float64, n),
		Stokes: make([]float64, n),
	}
	dt := T / float64(n-1)
	for i := range p.Time {
		t := float64(i) * dt
		p.Time[i] = t
		p.Pump[i] = Pump(t, T)
		p.Stokes[i] = Stokes(t, T)
	}
	normalize(p.Pump)
	normalize(p.Stokes)
	return &p, nil
}

// normalize scales samples so the peak magnitude is 1. An all-zero
// trace is left untouched.
func normalize(samples []float64) {
	max := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > max {
			max = a
		}
	}
	if max == 0 {
		return
	}
	for i := range samples {
		samples[i] /= max
	}
}

// FilePrefix returns the output file prefix for a pulse of length T in
// us, e.g. "standard_1000ns".
func FilePrefix(T float64, shape Shape) string {
	return fmt.Sprintf("%s_%.0fns", shape, T*1000)
}
