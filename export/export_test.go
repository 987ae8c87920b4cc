package export

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// ECHARTS OPTION
// ============================================================================

func TestEChartsOption_Bar(t *testing.T) {
	opt := EChartsOption(barFigure())

	xAxis := opt["xAxis"].(map[string]any)
	labels := xAxis["data"].([]string)
	if len(labels) != 3 || labels[0] != "Action" || labels[2] != "Drama" {
		t.Errorf("labels = %v", labels)
	}
	series := opt["series"].([]map[string]any)
	if len(series) != 1 || series[0]["type"] != "bar" {
		t.Fatalf("series = %v", series)
	}
	data := series[0]["data"].([]any)
	if data[0] != 220.0 || data[2] != 90.0 {
		t.Errorf("data = %v", data)
	}
	if _, ok := opt["legend"]; ok {
		t.Error("single series should not get a legend")
	}
}

func TestEChartsOption_AlignsSeriesOnLabels(t *testing.T) {
	fig := &engine.Figure{
		ChartType: engine.ChartLine,
		Layout:    engine.Layout{ShowLegend: true},
		Series: []engine.Series{
			{Name: "a", Points: []engine.Point{{X: "2020", Y: 1}, {X: "2021", Y: 2}}},
			{Name: "b", Points: []engine.Point{{X: "2021", Y: 5}}},
		},
	}
	opt := EChartsOption(fig)
	series := opt["series"].([]map[string]any)
	b := series[1]["data"].([]any)
	if b[0] != nil || b[1] != 5.0 {
		t.Errorf("series b = %v, want [nil 5]", b)
	}
	if _, ok := opt["legend"]; !ok {
		t.Error("multiple series should get a legend")
	}
}

func TestEChartsOption_ScatterAxes(t *testing.T) {
	numeric := EChartsOption(&engine.Figure{
		ChartType: engine.ChartScatter,
		Series:    []engine.Series{{Points: []engine.Point{{X: 1.5, Y: 2}}}},
	})
	if numeric["xAxis"].(map[string]any)["type"] != "value" {
		t.Errorf("numeric x should use a value axis: %v", numeric["xAxis"])
	}

	labelled := EChartsOption(&engine.Figure{
		ChartType: engine.ChartScatter,
		Series:    []engine.Series{{Points: []engine.Point{{X: "a", Y: 2}}}},
	})
	if labelled["xAxis"].(map[string]any)["type"] != "category" {
		t.Errorf("text x should use a category axis: %v", labelled["xAxis"])
	}
}

func TestEChartsOption_BoxAndHeatmap(t *testing.T) {
	box := EChartsOption(&engine.Figure{
		ChartType: engine.ChartBox,
		Series: []engine.Series{{Name: "rating", Boxes: []engine.BoxStats{
			{Label: "Action", Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5},
		}}},
	})
	data := box["series"].([]map[string]any)[0]["data"].([]any)
	if got := data[0].([]float64); got[2] != 3 || got[4] != 5 {
		t.Errorf("box data = %v", got)
	}

	heat := EChartsOption(&engine.Figure{
		ChartType: engine.ChartHeatmap,
		Heatmap:   &engine.HeatmapData{X: []string{"a", "b"}, Y: []string{"r"}, Z: [][]int{{2, 7}}},
	})
	if heat["visualMap"].(map[string]any)["max"] != 7 {
		t.Errorf("visualMap = %v", heat["visualMap"])
	}
	cells := heat["series"].([]map[string]any)[0]["data"].([]any)
	if len(cells) != 2 {
		t.Errorf("cells = %v", cells)
	}
}

// ============================================================================
// DASHBOARD
// ============================================================================

func TestDashboard(t *testing.T) {
	var buf bytes.Buffer
	err := Dashboard(&buf, DashboardInput{
		Title:       "Movies",
		Question:    "What drives <revenue>?",
		DatasetName: "movies.csv",
		Items: []Item{
			{ID: 1, Title: "Revenue by genre", Figure: barFigure(), Interpretation: "Action leads.", Recommendations: "- Invest in Action\n- Monitor Drama"},
			{ID: 2, Title: "Broken", ChartType: engine.ChartScatter, Err: errors.New("column \"budget\" not found")},
		},
	})
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<title>Movies</title>",
		"What drives &lt;revenue&gt;?",
		"Dataset: movies.csv",
		`id="chart-1"`,
		"Action leads.",
		"<li>Invest in Action</li>",
		"<li>Monitor Drama</li>",
		"Broken",
		"not found",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if n := strings.Count(html, "<script src="); n != 1 {
		t.Errorf("found %d script sources, want 1", n)
	}
	if !strings.Contains(html, EChartsCDN) {
		t.Error("dashboard should load ECharts")
	}
	if !strings.Contains(html, `"type":"bar"`) {
		t.Error("dashboard should embed the chart option")
	}
}

func TestItemFrom(t *testing.T) {
	r := engine.Rendered{
		Proposal: engine.Proposal{ID: 4, Title: "t", ChartType: engine.ChartHist},
		Err:      errors.New("boom"),
	}
	item := ItemFrom(r)
	if item.ID != 4 || item.Title != "t" || item.ChartType != engine.ChartHist || item.Err == nil {
		t.Errorf("item = %+v", item)
	}
}

// ============================================================================
// PNG
// ============================================================================

func TestWritePNG(t *testing.T) {
	figs := map[string]*engine.Figure{
		"bar": barFigure(),
		"line": {
			ChartType: engine.ChartLine, Title: "Trend",
			Series: []engine.Series{{Name: "v", Points: []engine.Point{{X: "2020", Y: 1}, {X: "2021", Y: 3}, {X: "2022", Y: 2}}}},
		},
		"scatter": {
			ChartType: engine.ChartScatter, Title: "Budget vs revenue",
			Series: []engine.Series{{Name: "v", Points: []engine.Point{{X: 1.0, Y: 10}, {X: 2.0, Y: 25}, {X: 3.5, Y: 18}}}},
		},
		"hist": {
			ChartType: engine.ChartHist, Title: "Ratings",
			Series: []engine.Series{{Name: "rating", Bins: []engine.Bin{{Label: "5-6", Count: 2}, {Label: "6-7", Count: 5}, {Label: "7-8", Count: 3}}}},
		},
	}
	for name, fig := range figs {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePNG(&buf, fig, 640, 360); err != nil {
				t.Fatalf("WritePNG failed: %v", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
				t.Errorf("size = %v", b)
			}
		})
	}
}

func TestWritePNG_EmptyFigures(t *testing.T) {
	tbl, err := engine.NewTableFromRows(
		[]string{"genre", "rating"},
		[][]any{{"Action", 7.5}, {"Comedy", 6.9}},
	)
	if err != nil {
		t.Fatal(err)
	}
	none := []engine.FilterSpec{{Col: "genre", Op: engine.OpEq, Value: "Horror"}}

	figs := map[string]*engine.Figure{
		"bar without points": {ChartType: engine.ChartBar, Title: "Empty", Series: []engine.Series{{Name: "v"}}},
		"hist without bins":  {ChartType: engine.ChartHist, Title: "Empty", Series: []engine.Series{{Name: "v"}}},
		"bar without series": {ChartType: engine.ChartBar, Title: "Empty"},
		"stacked empty":      {ChartType: engine.ChartBar, Title: "Empty", Series: []engine.Series{{Name: "a"}, {Name: "b"}}},
	}
	for _, ct := range []engine.ChartType{engine.ChartBar, engine.ChartHist, engine.ChartLine, engine.ChartScatter} {
		p := engine.Proposal{ID: 1, Title: "Filtered", ChartType: ct, X: "genre", Filters: none}.WithDefaults()
		if ct == engine.ChartHist {
			p.X = "rating"
		} else {
			p.Y = "rating"
		}
		fig, err := engine.Render(tbl, p)
		if err != nil {
			t.Fatalf("%s: Render failed: %v", ct, err)
		}
		figs["filtered "+string(ct)] = fig
	}

	for name, fig := range figs {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePNG(&buf, fig, 320, 200); err != nil {
				t.Fatalf("WritePNG failed: %v", err)
			}
			if _, err := png.Decode(&buf); err != nil {
				t.Errorf("output is not a PNG: %v", err)
			}
		})
	}
}

func TestWritePNG_Unsupported(t *testing.T) {
	for _, ct := range []engine.ChartType{engine.ChartBox, engine.ChartHeatmap} {
		err := WritePNG(&bytes.Buffer{}, &engine.Figure{ChartType: ct}, 0, 0)
		if !errors.Is(err, ErrRasterUnsupported) {
			t.Errorf("%s: err = %v, want ErrRasterUnsupported", ct, err)
		}
	}
}

func TestPaddedRange(t *testing.T) {
	r := paddedRange(5, 5)
	if r.Min >= 5 || r.Max <= 5 {
		t.Errorf("degenerate range not widened: %+v", r)
	}
}

// ── Test Data ──────────────────────────────────────────────────────────────

func barFigure() *engine.Figure {
	return &engine.Figure{
		ChartType: engine.ChartBar,
		Title:     "Revenue by genre",
		XLabel:    "genre",
		YLabel:    "revenue",
		Layout:    engine.Layout{Margin: engine.DefaultMargin, ShowLegend: true},
		Series: []engine.Series{{
			Name:  "revenue",
			Color: "#1f77b4",
			Points: []engine.Point{
				{X: "Action", Y: 220},
				{X: "Comedy", Y: 50},
				{X: "Drama", Y: 90},
			},
		}},
	}
}
