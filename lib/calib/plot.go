package calib

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotFit saves a scatter of the sweep data with the fitted line
// overlaid.
func PlotFit(points []Point, fit Fit, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("no points to plot")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Calibration (n=%d, R2=%.4f, RMSE=%.4g)", fit.N, fit.R2, fit.RMSE)
	p.X.Label.Text = "power_flip (W)"
	p.Y.Label.Text = "power_target (W)"
	p.Add(plotter.NewGrid())

	data := make(plotter.XYs, len(points))
	lo, hi := points[0].PowerFlip, points[0].PowerFlip
	for i, pt := range points {
		data[i].X = pt.PowerFlip
		data[i].Y = pt.PowerTarget
		if pt.PowerFlip < lo {
			lo = pt.PowerFlip
		}
		if pt.PowerFlip > hi {
			hi = pt.PowerFlip
		}
	}

	const lineSamples = 200
	line := make(plotter.XYs, lineSamples)
	for i := range line {
		x := lo + (hi-lo)*float64(i)/float64(lineSamples-1)
		line[i].X = x
		line[i].Y = fit.Predict(x)
	}

	err := plotutil.AddScatters(p, "data", data)
	if err != nil {
		return err
	}
	err = plotutil.AddLines(p, fmt.Sprintf("y=%.4gx+%.4g", fit.A, fit.B), line)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
