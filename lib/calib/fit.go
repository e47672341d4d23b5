package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Fit is the linear calibration power_target = A*power_flip + B.
type Fit struct {
	A    float64 // slope
	B    float64 // intercept
	R2   float64 // coefficient of determination; NaN for constant data
	RMSE float64
	N    int
}

func (f Fit) String() string {
	return fmt.Sprintf("y = %.4g*x + %.4g (n=%d, R2=%.4f, RMSE=%.4g)",
		f.A, f.B, f.N, f.R2, f.RMSE)
}

// Predict maps a flip-arm reading to the expected target power.
func (f Fit) Predict(powerFlip float64) float64 {
	return f.A*powerFlip + f.B
}

// FitPoints fits the linear mapping from flip-arm power to target
// power over the sweep data.
func FitPoints(points []Point) (Fit, error) {
	if len(points) < 2 {
		return Fit{}, fmt.Errorf("linear fit needs at least 2 points, got %d", len(points))
	}
	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.PowerFlip
		y[i] = p.PowerTarget
	}

	b, a := stat.LinearRegression(x, y, nil, false)

	var ssRes, ssTot float64
	mean := stat.Mean(y, nil)
	for i := range x {
		r := y[i] - (a*x[i] + b)
		ssRes += r * r
		d := y[i] - mean
		ssTot += d * d
	}
	r2 := math.NaN()
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}
	return Fit{
		A:    a,
		B:    b,
		R2:   r2,
		RMSE: math.Sqrt(ssRes / float64(len(x))),
		N:    len(x),
	}, nil
}
