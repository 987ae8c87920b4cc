package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// QUALITY REPORT
// ============================================================================

// Report summarizes the data quality of a table.
type Report struct {
	Rows          int                `json:"n_rows"`
	Columns       int                `json:"n_columns"`
	DuplicateRows int                `json:"duplicates"`
	MissingPct    map[string]float64 `json:"missing_values"` // only columns with missing cells
	ColumnTypes   map[string]string  `json:"column_types"`
}

// QualityReport counts rows, duplicate rows and missing cells per column.
func QualityReport(t *engine.Table) Report {
	r := Report{
		Rows:        t.Len(),
		Columns:     t.Width(),
		MissingPct:  make(map[string]float64),
		ColumnTypes: ColumnTypes(t),
	}

	seen := make(map[string]bool, t.Len())
	for i := 0; i < t.Len(); i++ {
		key := t.RowKey(i)
		if seen[key] {
			r.DuplicateRows++
		}
		seen[key] = true
	}

	for _, c := range t.Columns() {
		if n := c.NullCount(); n > 0 {
			r.MissingPct[c.Name] = float64(n) / float64(c.Len()) * 100
		}
	}
	return r
}

// Text renders the report for terminal output.
func (r Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows: %s\ncolumns: %d\nduplicate rows: %d\n", engine.FormatInt(r.Rows), r.Columns, r.DuplicateRows)

	if len(r.MissingPct) == 0 {
		b.WriteString("missing values: none")
		return b.String()
	}
	names := make([]string, 0, len(r.MissingPct))
	for n := range r.MissingPct {
		names = append(names, n)
	}
	sort.Strings(names)
	b.WriteString("missing values:")
	for _, n := range names {
		fmt.Fprintf(&b, "\n- %s: %.1f%%", n, r.MissingPct[n])
	}
	return b.String()
}
