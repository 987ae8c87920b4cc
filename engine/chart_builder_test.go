package engine

import (
	"errors"
	"reflect"
	"testing"
)

// ============================================================================
// 1. BAR / LINE / SCATTER
// ============================================================================

func TestBuildChartBarSeries(t *testing.T) {
	p := mustProposal(t, `{"title":"Revenue","chart_type":"bar","x":"genre","y":"revenue"}`)
	fig, err := BuildChart(sampleTable(t), p)
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	assertEqual(t, len(fig.Series), 1, "series")
	assertEqual(t, len(fig.Series[0].Points), 6, "points")
	assertEqual(t, fig.Series[0].Color, defaultColors[0], "color")
	assertEqual(t, fig.Layout.ShowLegend, false, "legend")
	assertEqual(t, fig.Layout.Margin, DefaultMargin, "margin")
	assertEqual(t, fig.XLabel, "genre", "x label")
	assertEqual(t, fig.YLabel, "revenue", "y label")
}

func TestBuildChartColorSplitsSeries(t *testing.T) {
	p := mustProposal(t, `{"title":"Ratings","chart_type":"scatter","x":"rating","y":"revenue","color":"genre"}`)
	fig, err := BuildChart(sampleTable(t), p, WithPalette([]string{"#111111", "#222222"}))
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	var names, colors []string
	for _, s := range fig.Series {
		names = append(names, s.Name)
		colors = append(colors, s.Color)
		assertEqual(t, len(s.Points), 2, s.Name+" points")
	}
	if !reflect.DeepEqual(names, []string{"Action", "Comedy", "Drama"}) {
		t.Errorf("series = %v", names)
	}
	if !reflect.DeepEqual(colors, []string{"#111111", "#222222", "#111111"}) {
		t.Errorf("colors = %v", colors)
	}
	assertEqual(t, fig.Layout.ShowLegend, true, "legend")
}

func TestBuildChartBarWithoutYCounts(t *testing.T) {
	p := mustProposal(t, `{"title":"Films","chart_type":"bar","x":"director"}`)
	fig, err := BuildChart(sampleTable(t), p)
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	want := []Point{{X: "A", Y: 2}, {X: "B", Y: 2}, {X: "C", Y: 2}}
	if !reflect.DeepEqual(fig.Series[0].Points, want) {
		t.Errorf("points = %v, want %v", fig.Series[0].Points, want)
	}
	assertEqual(t, fig.YLabel, "count", "y label")
}

func TestBuildChartNonNumericY(t *testing.T) {
	p := mustProposal(t, `{"title":"t","chart_type":"line","x":"year","y":"genre"}`)
	_, err := BuildChart(sampleTable(t), p)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestBuildChartMargin(t *testing.T) {
	m := Margin{L: 1, R: 2, T: 3, B: 4}
	p := mustProposal(t, `{"title":"t","chart_type":"line","x":"year","y":"revenue"}`)
	fig, err := BuildChart(sampleTable(t), p, WithMargin(m))
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	assertEqual(t, fig.Layout.Margin, m, "margin")
}

// ============================================================================
// 2. BOX / HISTOGRAM
// ============================================================================

func TestBuildChartBox(t *testing.T) {
	p := mustProposal(t, `{"title":"Ratings","chart_type":"box","x":"genre","y":"rating"}`)
	fig, err := BuildChart(sampleTable(t), p)
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	boxes := fig.Series[0].Boxes
	assertEqual(t, len(boxes), 3, "boxes")
	assertEqual(t, boxes[0].Label, "Action", "label")
	assertEqual(t, boxes[0].Count, 2, "count")
	assertClose(t, boxes[0].Median, 8.15, "median")
	assertClose(t, boxes[0].Min, 7.8, "min")
	assertClose(t, boxes[0].Max, 8.5, "max")
}

func TestBuildChartBoxDistribution(t *testing.T) {
	p := mustProposal(t, `{"title":"Revenue","chart_type":"box","x":"revenue"}`)
	fig, err := BuildChart(sampleTable(t), p)
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	box := fig.Series[0].Boxes[0]
	assertEqual(t, box.Count, 6, "count")
	assertClose(t, box.Median, 85, "median")
}

func TestBuildChartHistNumeric(t *testing.T) {
	p := mustProposal(t, `{"title":"Ratings","chart_type":"hist","x":"rating"}`)
	fig, err := BuildChart(sampleTable(t), p)
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	bins := fig.Series[0].Bins
	assertEqual(t, len(bins), 4, "Sturges bins for 6 values")
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assertEqual(t, total, 6, "binned values")
	assertClose(t, bins[0].Lower, 6.9, "lower edge")
	assertClose(t, bins[len(bins)-1].Upper, 9.1, "upper edge")
}

func TestBuildChartHistFixedBins(t *testing.T) {
	p := mustProposal(t, `{"title":"Ratings","chart_type":"hist","x":"revenue"}`)
	fig, err := BuildChart(sampleTable(t), p, WithHistogramBins(2))
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	bins := fig.Series[0].Bins
	assertEqual(t, len(bins), 2, "bins")
	// edges 45, 82.5, 120
	assertEqual(t, bins[0].Count, 3, "low bin")
	assertEqual(t, bins[1].Count, 3, "high bin")
}

func TestBuildChartHistCategorical(t *testing.T) {
	p := mustProposal(t, `{"title":"Genres","chart_type":"hist","x":"genre"}`)
	fig, err := BuildChart(sampleTable(t), p)
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	for _, b := range fig.Series[0].Bins {
		assertEqual(t, b.Count, 2, b.Label)
	}
}

// ============================================================================
// 3. HEATMAP
// ============================================================================

func TestBuildChartHeatmapPrecondition(t *testing.T) {
	p := mustProposal(t, `{"title":"t","chart_type":"heatmap","x":"genre"}`)
	_, err := BuildChart(sampleTable(t), p)
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("err = %v, want ErrPrecondition", err)
	}
	if errors.Is(err, ErrReference) {
		t.Errorf("precondition error must not be a reference error")
	}
}

func TestBuildChartHeatmapPivot(t *testing.T) {
	p := mustProposal(t, `{"title":"Genre by year","chart_type":"heatmap","x":"genre","y":"year"}`)
	fig, err := BuildChart(sampleTable(t), p)
	if err != nil {
		t.Fatalf("BuildChart failed: %v", err)
	}
	hm := fig.Heatmap
	if !reflect.DeepEqual(hm.X, []string{"Action", "Comedy", "Drama"}) {
		t.Errorf("x = %v", hm.X)
	}
	if !reflect.DeepEqual(hm.Y, []string{"2020", "2021", "2022"}) {
		t.Errorf("y = %v", hm.Y)
	}
	want := [][]int{
		{1, 0, 1},
		{1, 1, 0},
		{0, 1, 1},
	}
	if !reflect.DeepEqual(hm.Z, want) {
		t.Errorf("z = %v, want %v", hm.Z, want)
	}
	assertEqual(t, hm.Total(), 6, "cell sum")
}

// ============================================================================
// 4. ERRORS
// ============================================================================

func TestBuildChartReferenceError(t *testing.T) {
	tests := []struct {
		record string
		role   string
		column string
	}{
		{`{"title":"t","chart_type":"bar","x":"studio","y":"revenue"}`, "x", "studio"},
		{`{"title":"t","chart_type":"line","x":"year","y":"budget"}`, "y", "budget"},
		{`{"title":"t","chart_type":"scatter","x":"rating","y":"revenue","color":"studio"}`, "color", "studio"},
		{`{"title":"t","chart_type":"heatmap","x":"genre","y":"budget"}`, "y", "budget"},
	}
	for _, tt := range tests {
		_, err := BuildChart(sampleTable(t), mustProposal(t, tt.record))
		var re *ReferenceError
		if !errors.As(err, &re) {
			t.Fatalf("err = %v, want *ReferenceError", err)
		}
		assertEqual(t, re.Role, tt.role, "role")
		assertEqual(t, re.Column, tt.column, "column")
		assertEqual(t, len(re.Known), 5, "known columns")
	}
}

func TestBuildChartUnsupported(t *testing.T) {
	p := Proposal{Title: "t", ChartType: "pie", X: "genre"}.WithDefaults()
	_, err := BuildChart(sampleTable(t), p)
	if !errors.Is(err, ErrUnsupportedChart) {
		t.Fatalf("err = %v, want ErrUnsupportedChart", err)
	}
}
