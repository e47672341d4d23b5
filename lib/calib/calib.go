// Package calib runs flip-arm calibration sweeps and fits the linear
// mapping between the flip-arm and target power meters.
//
// The sweep steps a DAQ channel through a voltage list; at each step
// the flip mirror diverts the beam to the flip-arm meter for one
// reading, then drops it through to the target meter for the other.
package calib

import (
	"context"
	"fmt"
	"log"
	"time"
)

// VoltageSetter drives the amplitude channel under calibration.
type VoltageSetter interface {
	SetVoltage(channel int, volts float64) error
}

// Flipper moves the flip mirror in or out of the beam path.
type Flipper interface {
	SetDigital(channel int, on bool) error
}

// PowerReader takes one power reading in watts.
type PowerReader interface {
	Read() (float64, error)
}

// Point is one row of a calibration sweep.
type Point struct {
	Voltage     float64
	PowerFlip   float64
	PowerTarget float64
	Timestamp   time.Time
}

// Config parameterizes a sweep.
type Config struct {
	AmpChannel  int
	FlipChannel int
	Voltages    []float64
	Repeats     int           // whole-sweep repetitions, for averaging
	Delay       time.Duration // settle time after each voltage or mirror move
}

// Hardware gathers the instruments a sweep drives.
type Hardware struct {
	DAQ         VoltageSetter
	Flip        Flipper
	FlipMeter   PowerReader
	TargetMeter PowerReader
}

// Sweep drives the voltage list and records paired power-meter
// readings. Any hardware error aborts the sweep; a half-recorded
// calibration is worse than none. The context is checked between
// points so a sweep can be interrupted cleanly.
func Sweep(ctx context.Context, cfg Config, hw Hardware) ([]Point, error) {
	if len(cfg.Voltages) == 0 {
		return nil, fmt.Errorf("no voltages to sweep")
	}
	repeats := cfg.Repeats
	if repeats < 1 {
		repeats = 1
	}

	var points []Point
	for rep := 0; rep < repeats; rep++ {
		for _, v := range cfg.Voltages {
			if err := ctx.Err(); err != nil {
				return points, err
			}
			log.Printf("setting voltage to %.3f V", v)
			if err := hw.DAQ.SetVoltage(cfg.AmpChannel, v); err != nil {
				return points, fmt.Errorf("set voltage %.3f: %w", v, err)
			}
			if err := hw.Flip.SetDigital(cfg.FlipChannel, true); err != nil {
				return points, fmt.Errorf("flip mirror up: %w", err)
			}
			if err := sleep(ctx, cfg.Delay); err != nil {
				return points, err
			}
			pFlip, err := hw.FlipMeter.Read()
			if err != nil {
				return points, fmt.Errorf("flip-arm reading at %.3f V: %w", v, err)
			}

			if err := hw.Flip.SetDigital(cfg.FlipChannel, false); err != nil {
				return points, fmt.Errorf("flip mirror down: %w", err)
			}
			if err := sleep(ctx, cfg.Delay); err != nil {
				return points, err
			}
			pTarget, err := hw.TargetMeter.Read()
			if err != nil {
				return points, fmt.Errorf("target reading at %.3f V: %w", v, err)
			}

			points = append(points, Point{
				Voltage:     v,
				PowerFlip:   pFlip,
				PowerTarget: pTarget,
				Timestamp:   time.Now(),
			})
		}
	}
	return points, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Linspace returns n evenly spaced voltages from start to stop
// inclusive.
func Linspace(start, stop float64, n int) []float64 {
	if n < 2 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}
