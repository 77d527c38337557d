package selection

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// PlotPredictions writes a scatter of held-out actual against predicted prices
// with the identity line y = x. The image format follows the file extension.
func PlotPredictions(name string, actual, predicted []float64, path string) error {
	if len(actual) != len(predicted) {
		return errors.NewDimensionError("PlotPredictions", len(actual), len(predicted), 0)
	}
	if len(actual) == 0 {
		return errors.NewValueError("PlotPredictions", "nothing to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: actual vs predicted", name)
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Predicted"

	pts := make(plotter.XYs, len(actual))
	for i := range actual {
		pts[i].X = actual[i]
		pts[i].Y = predicted[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "create scatter")
	}
	s.Radius = vg.Points(2)
	p.Add(s)

	lo := min(floats.Min(actual), floats.Min(predicted))
	hi := max(floats.Max(actual), floats.Max(predicted))
	l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "create identity line")
	}
	l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(l)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
