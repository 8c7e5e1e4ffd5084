package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cd-at-willamette/autompg/metrics"
	"github.com/cd-at-willamette/autompg/pkg/errors"
)

// hpAxisScale maps horsepower onto the mpg axis. The chart legend states
// the divisor so the second series stays readable on one axis.
const hpAxisScale = 5.0

var (
	mpgColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	hpColor   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	ruleColor = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

// yearMarker annotates a vertical reference line on the trend chart.
type yearMarker struct {
	Year  int
	Label string
}

// energyCrisisMarkers are the two fixed policy reference points the report
// narrates: the 1973 OPEC embargo and the 1979 energy crisis.
var energyCrisisMarkers = []yearMarker{
	{Year: 73, Label: "1973 oil embargo"},
	{Year: 79, Label: "1979 energy crisis"},
}

// saveTrendChart renders the mean mpg / mean horsepower by model year line
// chart with the two energy-crisis reference lines.
func saveTrendChart(trends []YearTrend, path string) error {
	if len(trends) == 0 {
		return errors.NewModelError("saveTrendChart", "no yearly trends", errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = "Fleet fuel economy and power by model year"
	p.X.Label.Text = "model year (19xx)"
	p.Y.Label.Text = fmt.Sprintf("mean mpg / mean horsepower (divided by %.0f)", hpAxisScale)

	mpgXYs := make(plotter.XYs, len(trends))
	hpXYs := make(plotter.XYs, len(trends))
	yMin, yMax := trends[0].MeanMPG, trends[0].MeanMPG
	for i, tr := range trends {
		mpgXYs[i] = plotter.XY{X: float64(tr.Year), Y: tr.MeanMPG}
		hpXYs[i] = plotter.XY{X: float64(tr.Year), Y: tr.MeanHorsepower / hpAxisScale}
		for _, v := range []float64{mpgXYs[i].Y, hpXYs[i].Y} {
			if v < yMin {
				yMin = v
			}
			if v > yMax {
				yMax = v
			}
		}
	}

	mpgLine, err := plotter.NewLine(mpgXYs)
	if err != nil {
		return errors.Wrap(err, "saveTrendChart: mpg series")
	}
	mpgLine.Color = mpgColor

	hpLine, err := plotter.NewLine(hpXYs)
	if err != nil {
		return errors.Wrap(err, "saveTrendChart: horsepower series")
	}
	hpLine.Color = hpColor

	p.Add(mpgLine, hpLine)
	p.Legend.Add("mean mpg", mpgLine)
	p.Legend.Add(fmt.Sprintf("mean horsepower / %.0f", hpAxisScale), hpLine)
	p.Legend.Top = true

	labelXYs := plotter.XYLabels{}
	for _, marker := range energyCrisisMarkers {
		rule, err := plotter.NewLine(plotter.XYs{
			{X: float64(marker.Year), Y: yMin},
			{X: float64(marker.Year), Y: yMax},
		})
		if err != nil {
			return errors.Wrap(err, "saveTrendChart: reference line")
		}
		rule.Color = ruleColor
		rule.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(rule)

		labelXYs.XYs = append(labelXYs.XYs, plotter.XY{X: float64(marker.Year), Y: yMax})
		labelXYs.Labels = append(labelXYs.Labels, marker.Label)
	}
	labels, err := plotter.NewLabels(labelXYs)
	if err != nil {
		return errors.Wrap(err, "saveTrendChart: labels")
	}
	p.Add(labels)

	if err := p.Save(7*vg.Inch, 4.5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "saveTrendChart: save")
	}
	return nil
}

// saveROCChart renders the ROC step curve with the chance diagonal and the
// AUC in the title.
func saveROCChart(curve []metrics.ROCPoint, auc float64, path string) error {
	if len(curve) == 0 {
		return errors.NewModelError("saveROCChart", "empty ROC curve", errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC curve (AUC = %.3f)", auc)
	p.X.Label.Text = "false positive rate"
	p.Y.Label.Text = "true positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	xys := make(plotter.XYs, len(curve))
	for i, pt := range curve {
		xys[i] = plotter.XY{X: pt.FPR, Y: pt.TPR}
	}
	rocLine, err := plotter.NewLine(xys)
	if err != nil {
		return errors.Wrap(err, "saveROCChart: curve")
	}
	rocLine.Color = mpgColor

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "saveROCChart: diagonal")
	}
	diagonal.Color = ruleColor
	diagonal.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(rocLine, diagonal)
	p.Legend.Add("classifier", rocLine)
	p.Legend.Add("chance", diagonal)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "saveROCChart: save")
	}
	return nil
}
