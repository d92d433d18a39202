package chart

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// GonumRenderer draws charts with gonum.org/v1/plot.
type GonumRenderer struct{}

// Name implements Renderer.
func (GonumRenderer) Name() string { return "gonum" }

// Formats implements Renderer.
func (GonumRenderer) Formats() []string {
	return []string{"png", "svg", "pdf", "jpg", "tif"}
}

// Render implements Renderer.
func (GonumRenderer) Render(w io.Writer, format string, spec Spec) error {
	p, err := newGonumPlot(spec)
	if err != nil {
		return err
	}

	width, height := spec.size()

	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}

	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}

	return nil
}

func newGonumPlot(spec Spec) (*plot.Plot, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel

	if spec.LogX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	for i, l := range spec.Lines {
		c, err := spec.lineColor(i)
		if err != nil {
			return nil, err
		}

		xys := make(plotter.XYs, len(spec.Sizes))
		for j := range spec.Sizes {
			xys[j].X = spec.Sizes[j]
			xys[j].Y = l.Values[j]
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", l.Name, err)
		}

		line.Color = c
		line.Width = vg.Points(1.5)

		p.Add(line)

		if spec.Legend {
			p.Legend.Add(l.Name, line)
		}
	}

	if spec.Legend {
		p.Legend.Top = true
		p.Legend.Left = true
		p.Legend.Padding = 1 * vg.Millimeter
	}

	return p, nil
}
