package model

import "fmt"

// Sheet is one named tabular unit of a workbook. All rows share the same
// column set; Columns carries the order of the header row, because Go
// maps (unlike the JS objects the web client consumed) do not preserve
// insertion order. Empty cells are the empty string, never omitted.
type Sheet struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// RowCount returns the number of data rows.
func (s Sheet) RowCount() int {
	return len(s.Rows)
}

// ColumnCount returns the number of columns. A sheet with zero rows
// reports zero columns — a boundary behavior, not an error.
func (s Sheet) ColumnCount() int {
	if len(s.Rows) == 0 {
		return 0
	}
	return len(s.Columns)
}

// Workbook is the full set of sheets parsed from one spreadsheet file.
// SheetNames preserves discovery order; Sheets holds at most one table
// per non-empty name.
type Workbook struct {
	SheetNames []string         `json:"sheets"`
	Sheets     map[string]Sheet `json:"sheets_data"`
}

// NewWorkbook returns an empty workbook ready for AddSheet.
func NewWorkbook() *Workbook {
	return &Workbook{Sheets: make(map[string]Sheet)}
}

// AddSheet appends a sheet, keeping the name list and map in sync.
// Empty names and duplicates are rejected so the two views of the
// workbook can never disagree.
func (w *Workbook) AddSheet(name string, sheet Sheet) error {
	if name == "" {
		return fmt.Errorf("model: sheet name must not be empty")
	}
	if _, ok := w.Sheets[name]; ok {
		return fmt.Errorf("model: duplicate sheet name %q", name)
	}
	if w.Sheets == nil {
		w.Sheets = make(map[string]Sheet)
	}
	w.SheetNames = append(w.SheetNames, name)
	w.Sheets[name] = sheet
	return nil
}

// Empty reports whether the workbook has no sheets.
func (w *Workbook) Empty() bool {
	return w == nil || len(w.SheetNames) == 0
}

// FirstSheet returns the first discovered sheet name, or "" when empty.
// The client makes this the initial active selection after an upload.
func (w *Workbook) FirstSheet() string {
	if w.Empty() {
		return ""
	}
	return w.SheetNames[0]
}
