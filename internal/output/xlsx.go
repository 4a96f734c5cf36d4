// internal/output/xlsx.go
package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/valpere/KOLMetrics/pkg/types"
)

const xlsxSheetName = "Results"

// XLSXWriter exports results as an Excel workbook with one sheet.
type XLSXWriter struct {
	w io.Writer
}

// NewXLSXWriter creates an Excel export writer.
func NewXLSXWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{w: w}
}

// Write implements Writer.
func (xw *XLSXWriter) Write(results []types.StoredResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheetName); err != nil {
		return fmt.Errorf("name results sheet: %w", err)
	}

	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := setRow(f, 1, header); err != nil {
		return err
	}

	for i, r := range results {
		record := csvRecord(r)
		row := make([]interface{}, len(record))
		for j, cell := range record {
			row[j] = cell
		}
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(xw.w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowIndex int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIndex)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", rowIndex, err)
	}
	if err := f.SetSheetRow(xlsxSheetName, cell, &values); err != nil {
		return fmt.Errorf("set row %d: %w", rowIndex, err)
	}
	return nil
}
