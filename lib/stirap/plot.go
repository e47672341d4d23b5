package stirap

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotPair saves the pump and Stokes envelopes to an image file. The
// format follows the extension (png, pdf, svg, eps).
func PlotPair(pair *Pair, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Normalized Rabi frequency"

	err := plotutil.AddLines(p,
		"Pump", xys(pair.Time, pair.Pump),
		"Stokes", xys(pair.Time, pair.Stokes),
	)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// PlotSamples saves a single trace against its sample index, for
// inspecting waveform files of unknown provenance.
func PlotSamples(samples []float64, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Index"
	p.Y.Label.Text = "Value"

	pts := make(plotter.XYs, len(samples))
	for i, v := range samples {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	if err := plotutil.AddLines(p, pts); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}
