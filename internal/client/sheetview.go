package client

import (
	"github.com/sakif/excel-finder/internal/model"
)

// SheetViewModel holds the ingested workbook and the active sheet
// selection. The selection always names a sheet present in the
// workbook, or is empty when there is no workbook.
type SheetViewModel struct {
	workbook *model.Workbook
	active   string
}

// NewSheetViewModel creates an empty view model.
func NewSheetViewModel() *SheetViewModel {
	return &SheetViewModel{}
}

// SetWorkbook replaces the workbook and selects its first sheet.
func (v *SheetViewModel) SetWorkbook(wb *model.Workbook) {
	v.workbook = wb
	v.active = wb.FirstSheet()
}

// Reset discards the workbook and the selection.
func (v *SheetViewModel) Reset() {
	v.workbook = nil
	v.active = ""
}

// SetActiveSheet selects a sheet by name. An unknown name is a no-op;
// the previous selection stays.
func (v *SheetViewModel) SetActiveSheet(name string) {
	if v.workbook == nil {
		return
	}
	if _, ok := v.workbook.Sheets[name]; !ok {
		return
	}
	v.active = name
}

// ActiveSheet returns the selected sheet name, or "" when empty.
func (v *SheetViewModel) ActiveSheet() string {
	return v.active
}

// SheetNames returns the workbook's sheet names in discovery order.
func (v *SheetViewModel) SheetNames() []string {
	if v.workbook == nil {
		return nil
	}
	return v.workbook.SheetNames
}

// Rows returns the active sheet's rows, or nil when nothing is active.
func (v *SheetViewModel) Rows() []map[string]string {
	sheet, ok := v.activeSheetData()
	if !ok {
		return nil
	}
	return sheet.Rows
}

// Columns returns the active sheet's column names in header order.
func (v *SheetViewModel) Columns() []string {
	sheet, ok := v.activeSheetData()
	if !ok {
		return nil
	}
	if sheet.RowCount() == 0 {
		return nil
	}
	return sheet.Columns
}

// RowCount returns the number of rows in the active sheet.
func (v *SheetViewModel) RowCount() int {
	sheet, ok := v.activeSheetData()
	if !ok {
		return 0
	}
	return sheet.RowCount()
}

// ColumnCount returns the number of columns in the active sheet. A
// sheet with zero rows reports zero columns.
func (v *SheetViewModel) ColumnCount() int {
	sheet, ok := v.activeSheetData()
	if !ok {
		return 0
	}
	return sheet.ColumnCount()
}

func (v *SheetViewModel) activeSheetData() (model.Sheet, bool) {
	if v.workbook == nil || v.active == "" {
		return model.Sheet{}, false
	}
	sheet, ok := v.workbook.Sheets[v.active]
	return sheet, ok
}
