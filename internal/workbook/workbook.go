// Package workbook decodes spreadsheet files into the tabular model the
// rest of the system consumes.
//
// One parser serves both deployments: the server's upload handler runs it
// on uploaded files, and the client's local-mode ingester runs it when no
// backend is available. Keeping a single implementation means both paths
// agree on normalization:
//
//   - the first row of each sheet is the header row
//   - blank or duplicate header cells get synthesized, disambiguated names
//   - every record carries every column; empty cells are "" — never an
//     omitted key
//   - rows that are entirely empty are dropped
//   - sheet discovery order and row/column order are preserved
package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sakif/excel-finder/internal/model"
)

// Parse decodes an xlsx workbook from r.
//
// The reader is consumed fully; callers streaming from disk should pass
// the open file directly. Returns an error when the content is not a
// valid xlsx archive (corrupted, password protected, or a legacy .xls
// binary, which the decoder does not understand).
func Parse(r io.Reader) (*model.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("workbook: opening spreadsheet: %w", err)
	}
	defer f.Close()

	wb := model.NewWorkbook()
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("workbook: reading sheet %q: %w", sheetName, err)
		}
		sheet := buildSheet(rows)
		if err := wb.AddSheet(sheetName, sheet); err != nil {
			return nil, err
		}
	}
	return wb, nil
}

// ParseFile decodes the xlsx workbook at path.
func ParseFile(path string) (*model.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: opening %s: %w", path, err)
	}
	defer f.Close()

	wb := model.NewWorkbook()
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("workbook: reading sheet %q: %w", sheetName, err)
		}
		if err := wb.AddSheet(sheetName, buildSheet(rows)); err != nil {
			return nil, err
		}
	}
	return wb, nil
}

// buildSheet turns the raw cell grid of one sheet into a Sheet.
//
// excelize trims trailing empty cells per row, so rows come back ragged;
// the grid width is the widest row seen, and every record is padded out
// to it with empty strings.
func buildSheet(rows [][]string) model.Sheet {
	if len(rows) == 0 {
		return model.Sheet{}
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := headerNames(rows[0], width)

	var records []map[string]string
	for _, row := range rows[1:] {
		if allEmpty(row) {
			continue
		}
		record := make(map[string]string, width)
		for i, col := range columns {
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		records = append(records, record)
	}

	return model.Sheet{Columns: columns, Rows: records}
}

// headerNames derives column names from the header row. Blank headers
// become "Column N" (1-based position); repeated names get a numeric
// suffix so the record keys stay unique.
func headerNames(header []string, width int) []string {
	columns := make([]string, 0, width)
	seen := make(map[string]int, width)

	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		columns = append(columns, name)
	}
	return columns
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
