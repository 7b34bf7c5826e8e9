package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// rawCellNumbers parses workbook cells read with RawCellValue, which always
// use '.' as the decimal point whatever the CSV number flags say.
var rawCellNumbers = NumberFormat{DecimalSeparator: '.'}

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return hasExt(filename, ".xlsx", ".xlsm")
}

func (xlsxLoader) Load(path string, opt LoadOptions) ([]*Table, error) {
	return ReadWorkbook(path, opt)
}

// ReadWorkbook reads every sheet of a workbook into a Table named after the
// sheet. The first non-empty row of each sheet is its header. opt.Number is
// ignored.
func ReadWorkbook(path string, opt LoadOptions) ([]*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	defer f.Close()

	var out []*Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &LoadError{Path: path, Cause: fmt.Errorf("read sheet %q: %w", sheet, err)}
		}
		out = append(out, sheetTable(sheet, rows, rawCellNumbers))
	}
	return out, nil
}

func sheetTable(name string, rows [][]string, nf NumberFormat) *Table {
	start := 0
	for start < len(rows) && blankRecord(rows[start]) {
		start++
	}
	if start >= len(rows) {
		return &Table{Name: name}
	}
	header := rows[start]
	var records [][]string
	for _, rec := range rows[start+1:] {
		if blankRecord(rec) {
			continue
		}
		records = append(records, rec)
	}
	// excelize trims trailing empty cells, so a record may be wider than a
	// header that ends in blank titles.
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	if width > len(header) {
		padded := make([]string, width)
		copy(padded, header)
		for i := len(header); i < width; i++ {
			padded[i] = fmt.Sprintf("Column%d", i+1)
		}
		header = padded
	}
	return FromRecords(name, header, records, nf)
}
