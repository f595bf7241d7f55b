// Package plotting renders experiment abundance matrices as static PNG
// heatmaps and as interactive HTML heatmap pages.
package plotting

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/micromics/expt"
)

// viridisColors is the color ramp used for the interactive heatmaps.
var viridisColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// HeatmapOptions configures both heatmap renderers. The zero value plots
// raw values with a generic title.
type HeatmapOptions struct {
	Title string

	// Log plots log2 of the values clamped below 1, which is how
	// abundance data is usually inspected. Raw values otherwise.
	Log bool
}

// heatGrid adapts an experiment matrix to gonum's GridXYZ. Columns are
// features, rows are samples; values are optionally log-transformed.
type heatGrid struct {
	data *expt.Experiment
	log  bool
}

func (g heatGrid) Dims() (c, r int) {
	r, c = g.data.Shape()
	return c, r
}

func (g heatGrid) Z(c, r int) float64 {
	v := g.data.Data.At(r, c)
	if g.log {
		if v < 1 {
			v = 1
		}
		v = math.Log2(v)
	}
	return v
}

func (g heatGrid) X(c int) float64 { return float64(c) }
func (g heatGrid) Y(r int) float64 { return float64(r) }

// SavePNG writes a static heatmap of the experiment to a PNG file: samples
// on the vertical axis in their current order, features on the horizontal.
// Rendering respects whatever sorting or clustering was applied before the
// call.
func SavePNG(e *expt.Experiment, path string, o HeatmapOptions) error {
	r, c := e.Shape()
	if r == 0 || c == 0 {
		return fmt.Errorf("plotting: nothing to plot for shape (%d,%d)", r, c)
	}

	p := plot.New()
	p.Title.Text = o.Title
	if p.Title.Text == "" {
		p.Title.Text = e.Description
	}
	p.X.Label.Text = "Feature"
	p.Y.Label.Text = "Sample"

	hm := plotter.NewHeatMap(heatGrid{data: e, log: o.Log}, palette.Heat(16, 1))
	p.Add(hm)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}

// WriteHTML renders an interactive heatmap page. Cells carry the sample and
// feature identifiers in tooltips, so the page is usable for exploring
// which taxa drive a pattern.
func WriteHTML(e *expt.Experiment, w io.Writer, o HeatmapOptions) error {
	nSamples, nFeatures := e.Shape()
	if nSamples == 0 || nFeatures == 0 {
		return fmt.Errorf("plotting: nothing to plot for shape (%d,%d)", nSamples, nFeatures)
	}

	title := o.Title
	if title == "" {
		title = e.Description
	}

	grid := heatGrid{data: e, log: o.Log}
	data := make([]opts.HeatMapData, 0, nSamples*nFeatures)
	maxV := 0.0
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			v := grid.Z(j, i)
			if v > maxV {
				maxV = v
			}
			data = append(data, opts.HeatMapData{Value: []interface{}{j, i, v}})
		}
	}
	if maxV == 0 {
		maxV = 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     "dark",
			Width:     "1200px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d samples x %d features", nSamples, nFeatures),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "feature", Data: axisLabels(e.FeatureMetadata.IDs())}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "sample", Data: axisLabels(e.SampleMetadata.IDs())}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxV),
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	hm.AddSeries("abundance", data)

	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// SaveHTML writes the interactive heatmap page to a file.
func SaveHTML(e *expt.Experiment, path string, o HeatmapOptions) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	if err := WriteHTML(e, fh, o); err != nil {
		return err
	}
	return fh.Sync()
}

// axisLabels truncates long identifiers (sequences, taxonomy strings) so
// category axes stay readable.
func axisLabels(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if len(id) > 16 {
			id = id[:13] + "..."
		}
		out[i] = id
	}
	return out
}
