package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// CSV — Delimited text
// ============================================================================

// LoadCSV parses comma-separated data with a required header row.
func LoadCSV(r io.Reader) (*engine.Table, error) {
	return LoadDelimited(r, ',')
}

// LoadDelimited parses delimited data with a required header row.
// Rows may have fewer or more fields than the header.
func LoadDelimited(r io.Reader, comma rune) (*engine.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// 1. Read header
	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// 2. Read rows
	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+2, err)
		}
		if isBlank(row) {
			continue
		}
		rows = append(rows, row)
	}

	return fromRecords(header, rows)
}

// ParseCSV parses CSV bytes held in memory.
func ParseCSV(data []byte) (*engine.Table, error) {
	return LoadCSV(bytes.NewReader(data))
}

// WriteCSV writes the table with a header row. Numbers keep full precision
// and nulls become empty fields.
func WriteCSV(w io.Writer, t *engine.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	record := make([]string, t.Width())
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			record[j] = csvField(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvField(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return engine.FormatValue(v)
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
