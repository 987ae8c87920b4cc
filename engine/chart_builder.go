package engine

import (
	"fmt"
	"math"
	"sort"
)

// ============================================================================
// CHART BUILDER — Produces a Figure from a table + Proposal
// ============================================================================
// bar/line/scatter → Points per series, box → five-number summaries,
// hist → bins over x, heatmap → count pivot of y by x.
// Every column the proposal names is resolved here; a missing one is a
// ReferenceError. The color column splits rows into series in
// first-occurrence order.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a Figure for the proposal from an already filtered
// and aggregated table.
func BuildChart(t *Table, p Proposal, opts ...Option) (*Figure, error) {
	cfg := applyOptions(opts)

	fig := &Figure{
		ChartType: p.ChartType,
		Title:     p.Title,
		XLabel:    p.XLabel(),
		YLabel:    p.YLabel(),
		Layout:    Layout{Margin: cfg.Margin},
	}

	var err error
	switch p.ChartType {
	case ChartBar, ChartLine, ChartScatter:
		err = buildXY(fig, t, p)
	case ChartBox:
		err = buildBox(fig, t, p)
	case ChartHist:
		err = buildHist(fig, t, p, cfg.HistBins)
	case ChartHeatmap:
		err = buildHeatmap(fig, t, p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChart, p.ChartType)
	}
	if err != nil {
		return nil, err
	}

	assignColors(fig.Series, cfg.Palette)
	fig.Layout.ShowLegend = len(fig.Series) > 1
	return fig, nil
}

// ============================================================================
// BAR / LINE / SCATTER
// ============================================================================

func buildXY(fig *Figure, t *Table, p Proposal) error {
	xcol, err := requireColumn(t, "x", p.X)
	if err != nil {
		return err
	}

	if p.Y == "" {
		if p.ChartType == ChartBar {
			return buildCountBars(fig, t, p, xcol)
		}
		return buildIndexed(fig, t, p, xcol)
	}

	ycol, err := requireColumn(t, "y", p.Y)
	if err != nil {
		return err
	}
	splits, err := splitSeries(t, p, p.YLabel())
	if err != nil {
		return err
	}

	for _, s := range splits {
		series := Series{Name: s.name, Points: make([]Point, 0, len(s.rows))}
		for _, i := range s.rows {
			x, y := xcol.Values[i], ycol.Values[i]
			if x == nil || y == nil {
				continue
			}
			f, ok := y.(float64)
			if !ok {
				return nonNumeric(ycol.Name, y)
			}
			series.Points = append(series.Points, Point{X: x, Y: f})
		}
		fig.Series = append(fig.Series, series)
	}
	return nil
}

// buildCountBars draws one bar per distinct x with the row count as height.
func buildCountBars(fig *Figure, t *Table, p Proposal, xcol *Column) error {
	fig.YLabel = labelOr(p.Formatting.YLabel, "count")
	splits, err := splitSeries(t, p, fig.YLabel)
	if err != nil {
		return err
	}
	for _, s := range splits {
		series := Series{Name: s.name}
		for _, g := range groupIndices(xcol, s.rows) {
			series.Points = append(series.Points, Point{X: g.Key, Y: float64(len(g.Rows))})
		}
		fig.Series = append(fig.Series, series)
	}
	return nil
}

// buildIndexed plots x against row position when no y is given.
func buildIndexed(fig *Figure, t *Table, p Proposal, xcol *Column) error {
	fig.YLabel = labelOr(p.Formatting.YLabel, "index")
	splits, err := splitSeries(t, p, p.XLabel())
	if err != nil {
		return err
	}
	for _, s := range splits {
		series := Series{Name: s.name}
		for _, i := range s.rows {
			if x := xcol.Values[i]; x != nil {
				series.Points = append(series.Points, Point{X: x, Y: float64(i)})
			}
		}
		fig.Series = append(fig.Series, series)
	}
	return nil
}

// ============================================================================
// BOX
// ============================================================================

func buildBox(fig *Figure, t *Table, p Proposal) error {
	xcol, err := requireColumn(t, "x", p.X)
	if err != nil {
		return err
	}

	// Distribution mode: one box of x per series.
	if p.Y == "" {
		fig.YLabel = p.XLabel()
		splits, err := splitSeries(t, p, p.XLabel())
		if err != nil {
			return err
		}
		for _, s := range splits {
			nums, err := numericValues(xcol, s.rows)
			if err != nil {
				return err
			}
			series := Series{Name: s.name}
			if len(nums) > 0 {
				series.Boxes = []BoxStats{boxStats(p.XLabel(), nums)}
			}
			fig.Series = append(fig.Series, series)
		}
		return nil
	}

	ycol, err := requireColumn(t, "y", p.Y)
	if err != nil {
		return err
	}
	splits, err := splitSeries(t, p, p.YLabel())
	if err != nil {
		return err
	}
	for _, s := range splits {
		series := Series{Name: s.name}
		for _, g := range groupIndices(xcol, s.rows) {
			nums, err := numericValues(ycol, g.Rows)
			if err != nil {
				return err
			}
			if len(nums) == 0 {
				continue
			}
			series.Boxes = append(series.Boxes, boxStats(FormatValue(g.Key), nums))
		}
		fig.Series = append(fig.Series, series)
	}
	return nil
}

func boxStats(label string, nums []float64) BoxStats {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	return BoxStats{
		Label:  label,
		Min:    sorted[0],
		Q1:     quantileSorted(sorted, 0.25),
		Median: quantileSorted(sorted, 0.5),
		Q3:     quantileSorted(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Count:  len(sorted),
	}
}

// ============================================================================
// HISTOGRAM
// ============================================================================

func buildHist(fig *Figure, t *Table, p Proposal, fixedBins int) error {
	xcol, err := requireColumn(t, "x", p.X)
	if err != nil {
		return err
	}
	fig.YLabel = labelOr(p.Formatting.YLabel, "count")
	splits, err := splitSeries(t, p, p.XLabel())
	if err != nil {
		return err
	}

	if !isNumericColumn(xcol) {
		categories := xcol.Distinct()
		for _, s := range splits {
			counts := make(map[any]int)
			for _, i := range s.rows {
				if v := xcol.Values[i]; v != nil {
					counts[groupKey(v)]++
				}
			}
			series := Series{Name: s.name}
			for _, c := range categories {
				series.Bins = append(series.Bins, Bin{Label: FormatValue(c), Count: counts[groupKey(c)]})
			}
			fig.Series = append(fig.Series, series)
		}
		return nil
	}

	all, _ := numericValues(xcol, seq(t.Len()))
	if len(all) == 0 {
		for _, s := range splits {
			fig.Series = append(fig.Series, Series{Name: s.name})
		}
		return nil
	}
	edges := binEdges(all, fixedBins)
	for _, s := range splits {
		nums, _ := numericValues(xcol, s.rows)
		fig.Series = append(fig.Series, Series{Name: s.name, Bins: countBins(nums, edges)})
	}
	return nil
}

// binEdges splits [min, max] into equal-width bins; Sturges' rule picks the
// count unless one is fixed.
func binEdges(nums []float64, fixed int) []float64 {
	lo, hi := nums[0], nums[0]
	for _, v := range nums {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	n := fixed
	if n <= 0 {
		n = int(math.Ceil(math.Log2(float64(len(nums))))) + 1
	}
	if hi == lo {
		return []float64{lo, hi}
	}
	width := (hi - lo) / float64(n)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + width*float64(i)
	}
	edges[n] = hi
	return edges
}

func countBins(nums []float64, edges []float64) []Bin {
	n := len(edges) - 1
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{
			Label: FormatFloat(edges[i]) + "-" + FormatFloat(edges[i+1]),
			Lower: edges[i],
			Upper: edges[i+1],
		}
	}
	width := edges[n] - edges[0]
	for _, v := range nums {
		idx := 0
		if width > 0 {
			idx = int((v - edges[0]) / width * float64(n))
		}
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}
	return bins
}

// ============================================================================
// HEATMAP
// ============================================================================

func buildHeatmap(fig *Figure, t *Table, p Proposal) error {
	if p.X == "" || p.Y == "" {
		return fmt.Errorf("%w: heatmap requires both x and y", ErrPrecondition)
	}
	xcol, err := requireColumn(t, "x", p.X)
	if err != nil {
		return err
	}
	ycol, err := requireColumn(t, "y", p.Y)
	if err != nil {
		return err
	}

	xs, ys := SortedDistinct(xcol), SortedDistinct(ycol)
	xi := make(map[any]int, len(xs))
	yi := make(map[any]int, len(ys))
	hm := &HeatmapData{X: make([]string, len(xs)), Y: make([]string, len(ys)), Z: make([][]int, len(ys))}
	for i, v := range xs {
		xi[groupKey(v)] = i
		hm.X[i] = FormatValue(v)
	}
	for i, v := range ys {
		yi[groupKey(v)] = i
		hm.Y[i] = FormatValue(v)
		hm.Z[i] = make([]int, len(xs))
	}

	for r := 0; r < t.Len(); r++ {
		x, y := xcol.Values[r], ycol.Values[r]
		if x == nil || y == nil {
			continue
		}
		hm.Z[yi[groupKey(y)]][xi[groupKey(x)]]++
	}

	fig.Heatmap = hm
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

type seriesRows struct {
	name string
	rows []int
}

// splitSeries partitions rows by the color column, or returns one series
// holding every row when no color is set.
func splitSeries(t *Table, p Proposal, defaultName string) ([]seriesRows, error) {
	if p.Color == "" {
		return []seriesRows{{name: defaultName, rows: seq(t.Len())}}, nil
	}
	ccol, err := requireColumn(t, "color", p.Color)
	if err != nil {
		return nil, err
	}
	groups := GroupRows(ccol)
	out := make([]seriesRows, len(groups))
	for i, g := range groups {
		out[i] = seriesRows{name: FormatValue(g.Key), rows: g.Rows}
	}
	return out, nil
}

func requireColumn(t *Table, role, name string) (*Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, &ReferenceError{Role: role, Column: name, Known: t.Names()}
	}
	return c, nil
}

func numericValues(col *Column, rows []int) ([]float64, error) {
	nums := make([]float64, 0, len(rows))
	for _, i := range rows {
		v := col.Values[i]
		if v == nil {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			return nil, nonNumeric(col.Name, v)
		}
		nums = append(nums, f)
	}
	return nums, nil
}

func isNumericColumn(col *Column) bool {
	seen := false
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		if _, ok := v.(float64); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func nonNumeric(column string, v any) error {
	return fmt.Errorf("%w: column %q holds non-numeric value %q", ErrTypeMismatch, column, FormatValue(v))
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

func assignColors(series []Series, palette []string) {
	if len(palette) == 0 {
		palette = defaultColors
	}
	for i := range series {
		series[i].Color = palette[i%len(palette)]
	}
}
