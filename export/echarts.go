// Package export turns rendered figures into files: an HTML dashboard driven
// by ECharts and PNG rasters drawn with go-chart.
package export

import (
	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// ECHARTS OPTION — Figure → ECharts setOption payload
// ============================================================================
//   bar, line → category x axis, one series per figure series
//   scatter   → value axis when every x is numeric, else category
//   box       → boxplot series of [min, q1, median, q3, max]
//   hist      → gapless bar series over bin labels
//   heatmap   → category axes + visualMap over counts
// ============================================================================

// EChartsOption converts a figure into an ECharts option object.
func EChartsOption(fig *engine.Figure) map[string]any {
	opt := map[string]any{
		"title":   map[string]any{"text": fig.Title, "left": "center"},
		"tooltip": map[string]any{"trigger": "item"},
		"grid": map[string]any{
			"left":         fig.Layout.Margin.L + 30,
			"right":        fig.Layout.Margin.R,
			"top":          fig.Layout.Margin.T,
			"bottom":       fig.Layout.Margin.B + 20,
			"containLabel": true,
		},
	}
	if fig.Layout.ShowLegend && len(fig.Series) > 1 {
		opt["legend"] = map[string]any{"top": 30}
	}

	switch fig.ChartType {
	case engine.ChartBar, engine.ChartLine:
		categorical(opt, fig)
	case engine.ChartScatter:
		scatter(opt, fig)
	case engine.ChartBox:
		boxplot(opt, fig)
	case engine.ChartHist:
		histogram(opt, fig)
	case engine.ChartHeatmap:
		heatmap(opt, fig)
	}
	return opt
}

func axis(kind, name string, data []string) map[string]any {
	a := map[string]any{"type": kind, "name": name, "nameLocation": "middle", "nameGap": 30}
	if data != nil {
		a["data"] = data
	}
	return a
}

func categorical(opt map[string]any, fig *engine.Figure) {
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

	series := make([]map[string]any, 0, len(fig.Series))
	for _, s := range fig.Series {
		data := make([]any, len(labels))
		for _, p := range s.Points {
			data[index[engine.FormatValue(p.X)]] = p.Y
		}
		series = append(series, seriesOf(s, string(fig.ChartType), data))
	}

	opt["tooltip"] = map[string]any{"trigger": "axis"}
	opt["xAxis"] = axis("category", fig.XLabel, labels)
	opt["yAxis"] = axis("value", fig.YLabel, nil)
	opt["series"] = series
}

func scatter(opt map[string]any, fig *engine.Figure) {
	numeric := true
	for _, s := range fig.Series {
		for _, p := range s.Points {
			if _, ok := p.X.(float64); !ok {
				numeric = false
			}
		}
	}

	series := make([]map[string]any, 0, len(fig.Series))
	for _, s := range fig.Series {
		data := make([]any, len(s.Points))
		for i, p := range s.Points {
			if numeric {
				data[i] = []any{p.X, p.Y}
			} else {
				data[i] = []any{engine.FormatValue(p.X), p.Y}
			}
		}
		series = append(series, seriesOf(s, "scatter", data))
	}

	if numeric {
		opt["xAxis"] = axis("value", fig.XLabel, nil)
	} else {
		opt["xAxis"] = axis("category", fig.XLabel, nil)
	}
	opt["yAxis"] = axis("value", fig.YLabel, nil)
	opt["series"] = series
}

func boxplot(opt map[string]any, fig *engine.Figure) {
	var labels []string
	var series []map[string]any
	for _, s := range fig.Series {
		data := make([]any, len(s.Boxes))
		for i, b := range s.Boxes {
			if len(labels) < len(s.Boxes) {
				labels = append(labels, b.Label)
			}
			data[i] = []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max}
		}
		series = append(series, seriesOf(s, "boxplot", data))
	}
	opt["xAxis"] = axis("category", fig.XLabel, labels)
	opt["yAxis"] = axis("value", fig.YLabel, nil)
	opt["series"] = series
}

func histogram(opt map[string]any, fig *engine.Figure) {
	var labels []string
	var series []map[string]any
	for _, s := range fig.Series {
		data := make([]any, len(s.Bins))
		for i, b := range s.Bins {
			if len(labels) < len(s.Bins) {
				labels = append(labels, b.Label)
			}
			data[i] = b.Count
		}
		bar := seriesOf(s, "bar", data)
		bar["barCategoryGap"] = "0%"
		series = append(series, bar)
	}
	opt["tooltip"] = map[string]any{"trigger": "axis"}
	opt["xAxis"] = axis("category", fig.XLabel, labels)
	opt["yAxis"] = axis("value", fig.YLabel, nil)
	opt["series"] = series
}

func heatmap(opt map[string]any, fig *engine.Figure) {
	h := fig.Heatmap
	if h == nil {
		h = &engine.HeatmapData{}
	}
	data := make([]any, 0, len(h.X)*len(h.Y))
	peak := 0
	for i, row := range h.Z {
		for j, v := range row {
			data = append(data, []int{j, i, v})
			if v > peak {
				peak = v
			}
		}
	}
	opt["xAxis"] = axis("category", fig.XLabel, h.X)
	opt["yAxis"] = axis("category", fig.YLabel, h.Y)
	opt["visualMap"] = map[string]any{
		"min": 0, "max": peak, "calculable": true,
		"orient": "horizontal", "left": "center", "bottom": 0,
	}
	opt["series"] = []map[string]any{{
		"type":  "heatmap",
		"name":  fig.Title,
		"data":  data,
		"label": map[string]any{"show": true},
	}}
}

func seriesOf(s engine.Series, kind string, data []any) map[string]any {
	out := map[string]any{"type": kind, "name": s.Name, "data": data}
	if s.Color != "" {
		out["itemStyle"] = map[string]any{"color": s.Color}
	}
	return out
}
