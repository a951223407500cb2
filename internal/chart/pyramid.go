package chart

import (
	"io"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"golang.org/x/image/colornames"
)

// RenderOptions controls the output of the chart renderers.
type RenderOptions struct {
	Format string    // "png" (default) or "svg"
	Width  vg.Length // default 7in
	Height vg.Length // default 5in
	Title  string    // overrides the series title when set
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Format == "" {
		o.Format = "png"
	}
	if o.Width <= 0 {
		o.Width = 7 * vg.Inch
	}
	if o.Height <= 0 {
		o.Height = 5 * vg.Inch
	}
	return o
}

// PyramidPlot builds a horizontal diverging bar chart for s, one bar per
// category in series order, with the x axis fixed to scale.
func PyramidPlot(s Series, scale TickScale) (*plot.Plot, error) {
	if s.Len() == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "chart: empty series")
	}
	if len(s.Values) != s.Len() || len(s.Colors) != s.Len() {
		return nil, eris.Errorf("chart: series %q is misaligned (%d labels, %d values, %d colors)",
			s.Title, s.Len(), len(s.Values), len(s.Colors))
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = "Population Change"
	p.Y.Label.Text = "Group"
	p.BackgroundColor = mustColor("rgba(241, 245, 249, 0.5)")

	grid := plotter.NewGrid()
	grid.Horizontal.Color = nil
	p.Add(grid)

	for i, v := range s.Values {
		bar, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(18))
		if err != nil {
			return nil, eris.Wrapf(err, "chart: bar %q", s.Labels[i])
		}
		bar.Horizontal = true
		bar.XMin = float64(i)
		bar.Color = mustColor(s.Colors[i])
		bar.LineStyle.Width = vg.Length(0)
		p.Add(bar)
	}

	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: -0.5}, {X: 0, Y: float64(s.Len()) - 0.5}})
	if err != nil {
		return nil, eris.Wrap(err, "chart: zero line")
	}
	zero.Color = colornames.Slategray
	p.Add(zero)

	p.NominalY(s.Labels...)

	ticks := make([]plot.Tick, len(scale.Values))
	for i, v := range scale.Values {
		ticks[i] = plot.Tick{Value: v, Label: scale.Labels[i]}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	if n := len(scale.Values); n > 0 {
		p.X.Min = scale.Values[0]
		p.X.Max = scale.Values[n-1]
	}

	return p, nil
}

// RenderPyramid draws the pyramid for s to w.
func RenderPyramid(w io.Writer, s Series, scale TickScale, opts RenderOptions) error {
	opts = opts.withDefaults()

	p, err := PyramidPlot(s, scale)
	if err != nil {
		return err
	}
	if opts.Title != "" {
		p.Title.Text = opts.Title
	}

	return writePlot(w, p, opts)
}

func writePlot(w io.Writer, p *plot.Plot, opts RenderOptions) error {
	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return eris.Wrapf(err, "chart: %s writer", opts.Format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return eris.Wrap(err, "chart: write image")
	}
	return nil
}
