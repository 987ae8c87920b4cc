package engine

import (
	"strings"
)

// ============================================================================
// TABLE BUILDER — Tabular previews of a table
// ============================================================================
// BuildTableData feeds JSON/HTML previews; SampleText renders the same rows
// as an aligned text block for prompts and terminal output.
// ============================================================================

// TableColumn describes one preview column.
type TableColumn struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Kind  ColumnKind `json:"kind"`
	Align string     `json:"align"`
}

// TableData is a string-rendered slice of a table.
type TableData struct {
	Title     string        `json:"title,omitempty"`
	Columns   []TableColumn `json:"columns"`
	Rows      [][]string    `json:"rows"`
	TotalRows int           `json:"total_rows"`
}

// BuildTableData renders up to limit rows. A non-positive limit keeps every row.
func BuildTableData(t *Table, title string, limit int) *TableData {
	data := &TableData{Title: title, Columns: []TableColumn{}, Rows: [][]string{}}
	if t == nil {
		return data
	}
	data.TotalRows = t.Len()

	for _, c := range t.Columns() {
		align := "left"
		if c.Kind == KindNumeric {
			align = "right"
		}
		data.Columns = append(data.Columns, TableColumn{Key: c.Name, Label: c.Name, Kind: c.Kind, Align: align})
	}

	n := t.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	for i := 0; i < n; i++ {
		row := make([]string, t.Width())
		for j, c := range t.Columns() {
			row[j] = FormatValue(c.Values[i])
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// SampleText renders the first n rows with a header line, numeric columns
// right-aligned.
func SampleText(t *Table, n int) string {
	data := BuildTableData(t, "", n)
	if len(data.Columns) == 0 {
		return ""
	}

	widths := make([]int, len(data.Columns))
	for j, c := range data.Columns {
		widths[j] = len(c.Label)
		for _, row := range data.Rows {
			widths[j] = max(widths[j], len(row[j]))
		}
	}

	var b strings.Builder
	writeLine := func(cells []string) {
		for j, cell := range cells {
			if j > 0 {
				b.WriteString("  ")
			}
			pad := strings.Repeat(" ", widths[j]-len(cell))
			if data.Columns[j].Align == "right" {
				b.WriteString(pad + cell)
			} else {
				b.WriteString(cell + pad)
			}
		}
		b.WriteString("\n")
	}

	header := make([]string, len(data.Columns))
	for j, c := range data.Columns {
		header[j] = c.Label
	}
	writeLine(header)
	for _, row := range data.Rows {
		writeLine(row)
	}
	return strings.TrimRight(b.String(), " \n")
}
