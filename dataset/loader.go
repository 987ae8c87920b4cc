package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ifatmagamha/data-viz/engine"
	"github.com/ifatmagamha/data-viz/logging"
	"github.com/ifatmagamha/data-viz/schema"
)

// ============================================================================
// LOADER — Tabular files → engine.Table
// ============================================================================
// The caller reads the file from wherever it lives; loaders turn raw rows
// into typed columns. Kind detection runs once per column over every cell.
// ============================================================================

var (
	// ErrNoHeader marks input without a header row.
	ErrNoHeader = errors.New("dataset has no header row")

	// ErrUnsupportedFormat marks a file extension no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// LoadFile opens path and dispatches on its extension.
func LoadFile(path string) (*engine.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(f, filepath.Base(path))
}

// Load reads r using the format implied by name's extension: .csv and .txt
// are comma separated, .tsv tab separated, .xlsx a workbook (first sheet).
func Load(r io.Reader, name string) (*engine.Table, error) {
	var (
		t   *engine.Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt", "":
		t, err = LoadCSV(r)
	case ".tsv":
		t, err = LoadDelimited(r, '\t')
	case ".xlsx", ".xlsm":
		t, err = LoadXLSX(r, "")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	logging.Info().
		Add(logging.Component("dataset")).
		Add(logging.Str("file", name)).
		Add(logging.Rows(t.Len())).
		Add(logging.Count("columns", t.Width())).
		Msg("dataset loaded")
	return t, nil
}

// fromRecords builds a table from a header row and string rows. Short rows
// are padded with missing cells; extra cells are ignored.
func fromRecords(header []string, rows [][]string) (*engine.Table, error) {
	if len(header) == 0 {
		return nil, ErrNoHeader
	}
	names := headerNames(header)

	columns := make([]*engine.Column, len(names))
	for j, name := range names {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				raw[i] = row[j]
			}
		}
		columns[j] = schema.ColumnFromStrings(name, raw)
	}
	return engine.NewTable(columns...)
}

// headerNames trims header cells, names blank ones Column_N and suffixes
// repeats with .1, .2, ...
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}
