package schema

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// PROFILE — Fast per-column statistics
// ============================================================================

// ColumnProfile holds the quick statistics of one column. Min, Max and Mean
// are set for numeric columns with at least one value.
type ColumnProfile struct {
	Name       string            `json:"name"`
	Kind       engine.ColumnKind `json:"kind"`
	MissingPct float64           `json:"missing_pct"`
	Unique     int               `json:"n_unique"`
	Min        *float64          `json:"min,omitempty"`
	Max        *float64          `json:"max,omitempty"`
	Mean       *float64          `json:"mean,omitempty"`
}

// Profile is the ordered list of column profiles.
type Profile struct {
	Columns []ColumnProfile `json:"columns"`
}

// QuickProfile profiles at most maxCols columns (all when maxCols <= 0).
func QuickProfile(t *engine.Table, maxCols int) Profile {
	cols := t.Columns()
	if maxCols > 0 && len(cols) > maxCols {
		cols = cols[:maxCols]
	}

	p := Profile{Columns: make([]ColumnProfile, 0, len(cols))}
	for _, c := range cols {
		cp := ColumnProfile{
			Name:   c.Name,
			Kind:   c.Kind,
			Unique: len(c.Distinct()),
		}
		if c.Len() > 0 {
			cp.MissingPct = float64(c.NullCount()) / float64(c.Len()) * 100
		}
		if c.Kind == engine.KindNumeric {
			if nums := numbers(c); len(nums) > 0 {
				lo, hi := minMax(nums)
				mean := engine.Mean(nums)
				cp.Min, cp.Max, cp.Mean = &lo, &hi, &mean
			}
		}
		p.Columns = append(p.Columns, cp)
	}
	return p
}

// Column returns the profile of a column by name.
func (p Profile) Column(name string) (ColumnProfile, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// Text renders one line per column.
func (p Profile) Text() string {
	lines := make([]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		line := fmt.Sprintf("- %s | dtype=%s | missing%%=%.1f | unique=%d", c.Name, c.Kind, c.MissingPct, c.Unique)
		if c.Min != nil {
			line += fmt.Sprintf(" | min=%.2f max=%.2f mean=%.2f", *c.Min, *c.Max, *c.Mean)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// ============================================================================
// DESCRIBE — count/mean/std/quartiles table for numeric columns
// ============================================================================

var describeRows = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Describe renders summary statistics of the numeric columns as an aligned
// text table, one statistic per line. It returns "" when no column is numeric.
func Describe(t *engine.Table) string {
	var names []string
	var stats [][]string
	for _, c := range t.Columns() {
		if c.Kind != engine.KindNumeric {
			continue
		}
		nums := numbers(c)
		names = append(names, c.Name)
		stats = append(stats, describeColumn(nums))
	}
	if len(names) == 0 {
		return ""
	}

	label := 0
	for _, r := range describeRows {
		label = max(label, len(r))
	}
	widths := make([]int, len(names))
	for j, n := range names {
		widths[j] = len(n)
		for _, s := range stats[j] {
			widths[j] = max(widths[j], len(s))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", label))
	for j, n := range names {
		fmt.Fprintf(&b, "  %*s", widths[j], n)
	}
	for i, r := range describeRows {
		fmt.Fprintf(&b, "\n%-*s", label, r)
		for j := range names {
			fmt.Fprintf(&b, "  %*s", widths[j], stats[j][i])
		}
	}
	return b.String()
}

func describeColumn(nums []float64) []string {
	if len(nums) == 0 {
		return []string{"0", "", "", "", "", "", "", ""}
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	f := func(v float64) string { return fmt.Sprintf("%.2f", v) }
	std := ""
	if len(nums) > 1 {
		std = f(stdDev(nums))
	}
	return []string{
		fmt.Sprintf("%d", len(nums)),
		f(engine.Mean(nums)),
		std,
		f(sorted[0]),
		f(engine.Quantile(sorted, 0.25)),
		f(engine.Quantile(sorted, 0.5)),
		f(engine.Quantile(sorted, 0.75)),
		f(sorted[len(sorted)-1]),
	}
}

// stdDev is the sample standard deviation.
func stdDev(nums []float64) float64 {
	mean := engine.Mean(nums)
	var ss float64
	for _, v := range nums {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(nums)-1))
}

func numbers(c *engine.Column) []float64 {
	nums := make([]float64, 0, c.Len())
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			nums = append(nums, f)
		}
	}
	return nums
}

func minMax(nums []float64) (float64, float64) {
	lo, hi := nums[0], nums[0]
	for _, v := range nums[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
