package core

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is used for exports when no sheet name is configured.
const DefaultSheetName = "Transactions"

// ToSpreadsheet writes rows into a single-sheet xlsx workbook named
// sheetName. Every row gets exactly len(fieldOrder) cells in fieldOrder,
// with "" for fields the row lacks. The first row holds fieldOrder itself.
func ToSpreadsheet(rows []Row, fieldOrder []string, sheetName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name %q: %w", sheetName, err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]any, len(fieldOrder))
	for i, field := range fieldOrder {
		header[i] = field
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, sheetRecord(row, fieldOrder)); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetRecord lays a row out in fieldOrder. Numbers stay numeric; values
// without a native cell type are written as text.
func sheetRecord(row Row, fieldOrder []string) []any {
	record := make([]any, len(fieldOrder))
	for i, field := range fieldOrder {
		v, ok := row.Get(field)
		switch val := v.(type) {
		case nil:
			record[i] = ""
		case string, bool, int, int32, int64, float32, float64:
			record[i] = val
		default:
			record[i] = FormatValue(val)
		}
		if !ok {
			record[i] = ""
		}
	}
	return record
}
