package chart

import (
	"fmt"
	"io"
	"math"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// goChartDPI converts the inch-based Spec size into pixels.
const goChartDPI = 100

// GoChartRenderer draws charts with github.com/wcharczuk/go-chart.
type GoChartRenderer struct{}

// Name implements Renderer.
func (GoChartRenderer) Name() string { return "gochart" }

// Formats implements Renderer.
func (GoChartRenderer) Formats() []string {
	return []string{"png", "svg"}
}

// Render implements Renderer.
func (GoChartRenderer) Render(w io.Writer, format string, spec Spec) error {
	graph, err := newGoChart(spec)
	if err != nil {
		return err
	}

	var provider gochart.RendererProvider

	switch format {
	case "png":
		provider = gochart.PNG
	case "svg":
		provider = gochart.SVG
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}

	return nil
}

func newGoChart(spec Spec) (*gochart.Chart, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	xs := make([]float64, len(spec.Sizes))
	copy(xs, spec.Sizes)

	xAxis := gochart.XAxis{Name: spec.XLabel}

	// go-chart has no log axis; plot log10(x) and label each tick with
	// its size.
	if spec.LogX {
		ticks := make([]gochart.Tick, len(xs))

		for i, x := range xs {
			xs[i] = math.Log10(x)
			ticks[i] = gochart.Tick{
				Value: xs[i],
				Label: strconv.FormatFloat(x, 'f', -1, 64),
			}
		}

		xAxis.Ticks = ticks
	}

	series := make([]gochart.Series, 0, len(spec.Lines))

	for i, l := range spec.Lines {
		c, err := spec.lineColor(i)
		if err != nil {
			return nil, err
		}

		series = append(series, gochart.ContinuousSeries{
			Name:    l.Name,
			XValues: xs,
			YValues: l.Values,
			Style: gochart.Style{
				StrokeColor: drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A},
				StrokeWidth: 2,
			},
		})
	}

	width, height := spec.size()

	graph := &gochart.Chart{
		Title:  spec.Title,
		Width:  int(width * goChartDPI),
		Height: int(height * goChartDPI),
		XAxis:  xAxis,
		YAxis:  gochart.YAxis{Name: spec.YLabel},
		Series: series,
	}

	if spec.Legend {
		graph.Elements = []gochart.Renderable{gochart.Legend(graph)}
	}

	return graph, nil
}
