package dataset

import (
	"fmt"

	"github.com/ifatmagamha/data-viz/engine"
	"github.com/ifatmagamha/data-viz/logging"
	"github.com/ifatmagamha/data-viz/schema"
)

// ============================================================================
// CLEANING — Names, duplicates, missing values
// ============================================================================
// Every step returns a new table; the input is never modified.
//
// AutoClean pipeline:
//   1. Normalize column names
//   2. Remove duplicate rows (first occurrence kept)
//   3. Drop sparse columns, then fill remaining gaps
// ============================================================================

// DefaultMissingThreshold drops columns missing more than half their cells.
const DefaultMissingThreshold = 0.5

// CleaningReport describes what AutoClean changed.
type CleaningReport struct {
	OriginalRows      int      `json:"original_rows"`
	OriginalCols      int      `json:"original_cols"`
	DroppedColumns    []string `json:"dropped_columns"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	ColumnsRenamed    bool     `json:"columns_renamed"`
	FinalRows         int      `json:"final_rows"`
	FinalCols         int      `json:"final_cols"`
}

// AutoClean runs every cleaning step with the given missing threshold.
func AutoClean(t *engine.Table, threshold float64) (*engine.Table, CleaningReport, error) {
	report := CleaningReport{
		OriginalRows:   t.Len(),
		OriginalCols:   t.Width(),
		DroppedColumns: []string{},
	}

	// 1. Names
	out, renamed, err := CleanColumnNames(t)
	if err != nil {
		return nil, report, err
	}
	report.ColumnsRenamed = renamed

	// 2. Duplicates
	out, report.DuplicatesRemoved = RemoveDuplicates(out)

	// 3. Missing values
	out, dropped, err := CleanMissing(out, threshold)
	if err != nil {
		return nil, report, err
	}
	report.DroppedColumns = append(report.DroppedColumns, dropped...)

	report.FinalRows, report.FinalCols = out.Len(), out.Width()

	logging.Info().
		Add(logging.Component("cleaning")).
		Add(logging.Count("duplicates_removed", report.DuplicatesRemoved)).
		Add(logging.Count("dropped_columns", len(dropped))).
		Add(logging.Rows(report.FinalRows)).
		Msg("dataset cleaned")
	return out, report, nil
}

// CleanColumnNames normalizes every column name. Names that collide after
// normalization get a numeric suffix. renamed reports whether any name changed.
func CleanColumnNames(t *engine.Table) (*engine.Table, bool, error) {
	used := make(map[string]bool, t.Width())
	renamed := false
	cols := make([]*engine.Column, 0, t.Width())
	for i, c := range t.Columns() {
		base := schema.NormalizeName(c.Name)
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true
		if name != c.Name {
			renamed = true
		}
		cols = append(cols, copyColumn(c, name, c.Values))
	}
	out, err := engine.NewTable(cols...)
	return out, renamed, err
}

// RemoveDuplicates drops rows identical to an earlier row.
func RemoveDuplicates(t *engine.Table) (*engine.Table, int) {
	seen := make(map[string]bool, t.Len())
	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		key := t.RowKey(i)
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}
	return t.Select(keep), t.Len() - len(keep)
}

// CleanMissing drops columns whose missing fraction exceeds threshold, then
// fills gaps: numeric columns with the median, others with the most frequent
// value, or "Unknown" when a column has none.
func CleanMissing(t *engine.Table, threshold float64) (*engine.Table, []string, error) {
	var dropped []string
	cols := make([]*engine.Column, 0, t.Width())

	for _, c := range t.Columns() {
		missing := 0.0
		if c.Len() > 0 {
			missing = float64(c.NullCount()) / float64(c.Len())
		}
		if missing > threshold {
			dropped = append(dropped, c.Name)
			logging.Info().
				Add(logging.Component("cleaning")).
				Add(logging.Column(c.Name)).
				Add(logging.Str("missing", fmt.Sprintf("%.1f%%", missing*100))).
				Msg("dropped sparse column")
			continue
		}

		values := append([]any(nil), c.Values...)
		if c.NullCount() > 0 {
			fill := fillValue(c)
			for i, v := range values {
				if v == nil {
					values[i] = fill
				}
			}
		}
		kind := c.Kind
		if kind == engine.KindUnknown {
			kind = ""
		}
		cols = append(cols, copyColumn(c, c.Name, values))
		cols[len(cols)-1].Kind = kind
	}

	out, err := engine.NewTable(cols...)
	return out, dropped, err
}

func fillValue(c *engine.Column) any {
	if c.Kind == engine.KindNumeric {
		var nums []float64
		for i := range c.Values {
			if f, ok := c.Float(i); ok {
				nums = append(nums, f)
			}
		}
		if len(nums) > 0 {
			return engine.Median(nums)
		}
	}
	if mode := Mode(c); mode != nil {
		return mode
	}
	return "Unknown"
}

// Mode returns the most frequent non-null value; ties go to the smallest
// value. It returns nil for a column with no values.
func Mode(c *engine.Column) any {
	counts := make(map[string]int)
	for _, v := range c.Values {
		if v != nil {
			counts[engine.FormatValue(v)]++
		}
	}
	var best any
	bestN := 0
	for _, v := range engine.SortedDistinct(c) {
		if n := counts[engine.FormatValue(v)]; n > bestN {
			best, bestN = v, n
		}
	}
	return best
}

func copyColumn(c *engine.Column, name string, values []any) *engine.Column {
	return &engine.Column{Name: name, Kind: c.Kind, Values: append([]any(nil), values...)}
}
