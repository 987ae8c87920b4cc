package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ifatmagamha/data-viz/engine"
)

// ErrRasterUnsupported is returned for chart kinds the raster exporter
// cannot draw.
var ErrRasterUnsupported = errors.New("chart type not supported for PNG export")

// Default raster size.
const (
	DefaultWidth  = 1024
	DefaultHeight = 576
)

// WritePNG draws bar, line, scatter and hist figures as PNG.
func WritePNG(w io.Writer, fig *engine.Figure, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	var r interface {
		Render(chart.RendererProvider, io.Writer) error
	}
	switch fig.ChartType {
	case engine.ChartBar, engine.ChartHist:
		labels, values := pointMatrix(fig)
		if fig.ChartType == engine.ChartHist {
			labels, values = binMatrix(fig)
		}
		if len(labels) == 0 {
			// go-chart refuses bar charts without bars; draw empty axes.
			r = xyChart(fig, false, width, height)
			break
		}
		r = bars(fig, labels, values, width, height)
	case engine.ChartLine:
		r = xyChart(fig, false, width, height)
	case engine.ChartScatter:
		r = xyChart(fig, true, width, height)
	default:
		return fmt.Errorf("%w: %s", ErrRasterUnsupported, fig.ChartType)
	}

	if err := r.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering %s chart %q: %w", fig.ChartType, fig.Title, err)
	}
	return nil
}

// ============================================================================
// BARS — bar and hist
// ============================================================================

// pointMatrix lines up every series on the union of x labels.
func pointMatrix(fig *engine.Figure) ([]string, [][]float64) {
	var labels []string
	index := map[string]int{}
	for _, s := range fig.Series {
		for _, p := range s.Points {
			l := engine.FormatValue(p.X)
			if _, ok := index[l]; !ok {
				index[l] = len(labels)
				labels = append(labels, l)
			}
		}
	}
	values := make([][]float64, len(fig.Series))
	for i, s := range fig.Series {
		values[i] = make([]float64, len(labels))
		for _, p := range s.Points {
			values[i][index[engine.FormatValue(p.X)]] = p.Y
		}
	}
	return labels, values
}

func binMatrix(fig *engine.Figure) ([]string, [][]float64) {
	var labels []string
	values := make([][]float64, len(fig.Series))
	for i, s := range fig.Series {
		for j, b := range s.Bins {
			if j >= len(labels) {
				labels = append(labels, b.Label)
			}
			values[i] = append(values[i], float64(b.Count))
		}
	}
	return labels, values
}

// bars draws one series as a bar chart and several as stacked bars.
func bars(fig *engine.Figure, labels []string, values [][]float64, width, height int) interface {
	Render(chart.RendererProvider, io.Writer) error
} {
	barWidth := max(8, min(60, (width-120)/max(1, len(labels))-8))

	if len(values) > 1 {
		stacked := make([]chart.StackedBar, len(labels))
		for j, label := range labels {
			stacked[j] = chart.StackedBar{Name: label, Width: barWidth}
			for i, s := range fig.Series {
				stacked[j].Values = append(stacked[j].Values, chart.Value{
					Label: s.Name,
					Value: values[i][j],
					Style: chart.Style{FillColor: color(s.Color), StrokeColor: color(s.Color)},
				})
			}
		}
		return &chart.StackedBarChart{
			Title:      fig.Title,
			Width:      width,
			Height:     height,
			Background: background(),
			Bars:       stacked,
		}
	}

	var series engine.Series
	var row []float64
	if len(values) == 1 {
		series, row = fig.Series[0], values[0]
	}
	lo, hi := 0.0, 0.0
	out := make([]chart.Value, len(labels))
	for j, label := range labels {
		out[j] = chart.Value{
			Label: label,
			Value: row[j],
			Style: chart.Style{FillColor: color(series.Color), StrokeColor: color(series.Color)},
		}
		lo, hi = math.Min(lo, row[j]), math.Max(hi, row[j])
	}
	return &chart.BarChart{
		Title:      fig.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		Background: background(),
		YAxis: chart.YAxis{
			Name:  fig.YLabel,
			Range: paddedRange(lo, hi),
		},
		Bars: out,
	}
}

// ============================================================================
// XY — line and scatter
// ============================================================================

func xyChart(fig *engine.Figure, dots bool, width, height int) *chart.Chart {
	numeric := true
	for _, s := range fig.Series {
		for _, p := range s.Points {
			if _, ok := p.X.(float64); !ok {
				numeric = false
			}
		}
	}

	var ticks []chart.Tick
	index := map[string]int{}
	position := func(x any) float64 {
		if numeric {
			return x.(float64)
		}
		l := engine.FormatValue(x)
		i, ok := index[l]
		if !ok {
			i = len(index)
			index[l] = i
			ticks = append(ticks, chart.Tick{Value: float64(i), Label: l})
		}
		return float64(i)
	}

	xlo, xhi := math.Inf(1), math.Inf(-1)
	ylo, yhi := math.Inf(1), math.Inf(-1)
	series := make([]chart.Series, 0, len(fig.Series))
	for _, s := range fig.Series {
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i], ys[i] = position(p.X), p.Y
			xlo, xhi = math.Min(xlo, xs[i]), math.Max(xhi, xs[i])
			ylo, yhi = math.Min(ylo, ys[i]), math.Max(yhi, ys[i])
		}
		style := chart.Style{StrokeColor: color(s.Color), StrokeWidth: 2}
		if dots {
			style = chart.Style{StrokeWidth: chart.Disabled, DotWidth: 4, DotColor: color(s.Color)}
		}
		series = append(series, chart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: ys, Style: style})
	}
	if math.IsInf(xlo, 1) {
		xlo, xhi, ylo, yhi = 0, 0, 0, 0
	}
	if len(series) == 0 {
		series = append(series, chart.ContinuousSeries{Name: fig.Title})
	}

	c := &chart.Chart{
		Title:      fig.Title,
		Width:      width,
		Height:     height,
		Background: background(),
		XAxis:      chart.XAxis{Name: fig.XLabel, Range: paddedRange(xlo, xhi), Ticks: ticks},
		YAxis:      chart.YAxis{Name: fig.YLabel, Range: paddedRange(ylo, yhi)},
		Series:     series,
	}
	if len(series) > 1 {
		c.Elements = []chart.Renderable{chart.Legend(c)}
	}
	return c
}

// ============================================================================
// STYLE
// ============================================================================

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// paddedRange widens a degenerate range so go-chart can scale it.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if hi-lo == 0 {
		pad := math.Max(1, math.Abs(hi)*0.1)
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + (hi-lo)*0.05}
}

func color(hex string) drawing.Color {
	if hex == "" {
		return chart.ColorBlue
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
