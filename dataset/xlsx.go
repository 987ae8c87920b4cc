package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// XLSX — Excel workbooks
// ============================================================================

// LoadXLSX reads one worksheet; the first sheet when sheet is empty. The
// first row is the header.
func LoadXLSX(r io.Reader, sheet string) (*engine.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if !isBlank(row) {
			body = append(body, row)
		}
	}
	return fromRecords(rows[0], body)
}

// SheetNames lists the worksheets of a workbook.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
