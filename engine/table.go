package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ============================================================================
// TABLE — Columnar in-memory dataset
// ============================================================================
// Columns keep their inferred kind and a slice of normalized cells. Stages
// never mutate their input: Select and Clone copy cells into a new table, so
// a session can keep its source table immutable while rendering proposals.
// ============================================================================

// ColumnKind is the semantic type inferred for a column.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindDatetime    ColumnKind = "datetime"
	KindBoolean     ColumnKind = "boolean"
	KindText        ColumnKind = "text"
	KindUnknown     ColumnKind = "unknown"
)

// Column is one named, typed column.
type Column struct {
	Name   string
	Kind   ColumnKind
	Values []any
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool { return c.Values[i] == nil }

// Float returns row i as a number when it holds one.
func (c *Column) Float(i int) (float64, bool) {
	if i < 0 || i >= len(c.Values) {
		return 0, false
	}
	if f, ok := c.Values[i].(float64); ok {
		return f, true
	}
	return 0, false
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// Distinct returns the non-null values in first-occurrence order.
func (c *Column) Distinct() []any {
	seen := make(map[any]bool)
	var out []any
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		k := groupKey(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}

func (c *Column) clone() *Column {
	return &Column{Name: c.Name, Kind: c.Kind, Values: append([]any(nil), c.Values...)}
}

func (c *Column) pick(indices []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Values: make([]any, len(indices))}
	for j, i := range indices {
		out.Values[j] = c.Values[i]
	}
	return out
}

// Table is an ordered set of equal-length columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable validates column names and lengths, normalizes cells and infers
// a kind for any column left without one.
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), t.rows)
		}
		for j, v := range c.Values {
			c.Values[j] = normalizeCell(v)
		}
		if c.Kind == "" {
			c.Kind = InferKind(c.Values)
		}
		t.index[c.Name] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// NewTableFromRows builds a table from row-major data with kinds inferred
// from the Go types of the cells.
func NewTableFromRows(names []string, rows [][]any) (*Table, error) {
	columns := make([]*Column, len(names))
	for i, name := range names {
		columns[i] = &Column{Name: name, Values: make([]any, len(rows))}
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r, len(row), len(names))
		}
		for i, v := range row {
			columns[i].Values[r] = v
		}
	}
	return NewTable(columns...)
}

// InferKind picks a kind from already-typed cells. String columns are
// categorical unless most values are distinct.
func InferKind(values []any) ColumnKind {
	var nums, strs, bools, times, total int
	distinct := make(map[any]bool)
	for _, v := range values {
		switch normalizeCell(v).(type) {
		case nil:
			continue
		case float64:
			nums++
		case string:
			strs++
			distinct[v] = true
		case bool:
			bools++
		case time.Time:
			times++
		}
		total++
	}
	switch {
	case total == 0:
		return KindUnknown
	case bools == total:
		return KindBoolean
	case nums == total:
		return KindNumeric
	case times == total:
		return KindDatetime
	case strs == total && IsCategorical(len(distinct), total):
		return KindCategorical
	default:
		return KindText
	}
}

// IsCategorical applies the low-cardinality rule: fewer than 20 distinct
// values, or under 5% of the non-null count.
func IsCategorical(distinct, nonNull int) bool {
	if nonNull == 0 {
		return false
	}
	return distinct < 20 || float64(distinct)/float64(nonNull) < 0.05
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. Callers must not modify them.
func (t *Table) Columns() []*Column { return t.columns }

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether name is a column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at row i of column name, or nil.
func (t *Table) Value(i int, name string) any {
	c, ok := t.Column(name)
	if !ok || i < 0 || i >= t.rows {
		return nil
	}
	return c.Values[i]
}

// Row returns row i as a slice in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// RowKey returns a string identifying the content of row i, for duplicate
// detection.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j, c := range t.columns {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		if v := c.Values[i]; v != nil {
			b.WriteByte('v')
			b.WriteString(FormatValue(v))
		}
	}
	return b.String()
}

// Select copies the given rows, in the given order, into a new table.
func (t *Table) Select(indices []int) *Table {
	out := &Table{index: make(map[string]int, len(t.columns)), rows: len(indices)}
	for i, c := range t.columns {
		out.columns = append(out.columns, c.pick(indices))
		out.index[c.Name] = i
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{index: make(map[string]int, len(t.columns)), rows: t.rows}
	for i, c := range t.columns {
		out.columns = append(out.columns, c.clone())
		out.index[c.Name] = i
	}
	return out
}

// Head copies the first n rows.
func (t *Table) Head(n int) *Table {
	if n >= t.rows || n < 0 {
		return t.Clone()
	}
	return t.Select(seq(n))
}

// Drop returns a copy without the named columns.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var kept []*Column
	for _, c := range t.columns {
		if !skip[c.Name] {
			kept = append(kept, c.clone())
		}
	}
	out := &Table{index: make(map[string]int, len(kept)), rows: t.rows, columns: kept}
	for i, c := range kept {
		out.index[c.Name] = i
	}
	if len(kept) == 0 {
		out.rows = 0
	}
	return out
}

// SortedDistinct returns the distinct non-null values of a column in
// ascending order; values of mixed types keep first-occurrence order.
func SortedDistinct(c *Column) []any {
	vals := c.Distinct()
	sort.SliceStable(vals, func(i, j int) bool {
		cmp, ok := compareValues(vals[i], vals[j])
		return ok && cmp < 0
	})
	return vals
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
