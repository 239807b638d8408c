// Package export renders a user's records as an XLSX workbook.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

const sheet = "Records"

var headers = []string{"Date", "Description", "Category", "Payment Method", "Type", "Amount"}

// RecordsXLSX returns a workbook with one row per record and a final Total row.
// Amounts are written as numbers so spreadsheet formulas keep working.
func RecordsXLSX(records []core.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr("#,##0.00")})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	row := 2
	for _, r := range records {
		amount, _ := r.Amount.Round(2).Float64()
		values := []any{
			r.Date.Format("2006-01-02"),
			r.Description,
			string(r.Category),
			string(r.PaymentMethod),
			string(r.Kind()),
			amount,
		}
		if err := writeRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	total, _ := core.Total(records).Round(2).Float64()
	if err := writeRow(f, row, []any{"Total", "", "", "", "", total}); err != nil {
		return nil, err
	}

	last := fmt.Sprintf("F%d", row)
	_ = f.SetCellStyle(sheet, "F2", last, amountStyle)
	_ = f.SetCellStyle(sheet, "A1", "F1", boldStyle)
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), boldStyle)
	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 36)
	_ = f.SetColWidth(sheet, "C", "D", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
