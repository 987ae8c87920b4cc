package engine

// ============================================================================
// FIGURE — Render-ready chart description
// ============================================================================
// A Figure is what the chart builder produces and what the exporters and
// the sandbox exchange. Exactly one payload is populated per chart kind:
//   bar, line, scatter → Series[].Points
//   box                → Series[].Boxes
//   hist               → Series[].Bins
//   heatmap            → Heatmap
// ============================================================================

// Margin is the layout margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// DefaultMargin is applied to every figure.
var DefaultMargin = Margin{L: 30, R: 30, T: 60, B: 30}

// Layout holds cosmetic settings shared by every chart kind.
type Layout struct {
	Margin     Margin `json:"margin"`
	ShowLegend bool   `json:"showLegend"`
}

// Figure is one renderable chart.
type Figure struct {
	ChartType ChartType    `json:"chartType"`
	Title     string       `json:"title"`
	XLabel    string       `json:"xLabel,omitempty"`
	YLabel    string       `json:"yLabel,omitempty"`
	Series    []Series     `json:"series,omitempty"`
	Heatmap   *HeatmapData `json:"heatmap,omitempty"`
	Layout    Layout       `json:"layout"`
}

// Series is one colored trace.
type Series struct {
	Name   string     `json:"name"`
	Color  string     `json:"color,omitempty"`
	Points []Point    `json:"points,omitempty"`
	Boxes  []BoxStats `json:"boxes,omitempty"`
	Bins   []Bin      `json:"bins,omitempty"`
}

// Point is an (x, y) pair. X keeps the cell's type: a category string, a
// number or a time.
type Point struct {
	X any     `json:"x"`
	Y float64 `json:"y"`
}

// BoxStats is the five-number summary of one box.
type BoxStats struct {
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Bin is one histogram bucket. Numeric bins cover [Lower, Upper), the last
// one closed; categorical bins only carry a Label.
type Bin struct {
	Label string  `json:"label"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// HeatmapData is a count pivot: Z[i][j] counts rows with y == Y[i] and x == X[j].
type HeatmapData struct {
	X []string `json:"x"`
	Y []string `json:"y"`
	Z [][]int  `json:"z"`
}

// Total returns the sum of every cell.
func (h *HeatmapData) Total() int {
	total := 0
	for _, row := range h.Z {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// PointCount returns the number of plotted marks across all series.
func (f *Figure) PointCount() int {
	n := 0
	for _, s := range f.Series {
		n += len(s.Points) + len(s.Boxes) + len(s.Bins)
	}
	if f.Heatmap != nil {
		n += len(f.Heatmap.X) * len(f.Heatmap.Y)
	}
	return n
}
