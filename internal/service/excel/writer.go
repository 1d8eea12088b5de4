package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

const maxSheetName = 31

// WriteCSV writes the sheet's header and rows as comma separated text.
func WriteCSV(w io.Writer, sheet *table.Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sheet.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(sheet.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// NewWorkbook builds a workbook with one worksheet per sheet, in order.
// Numeric cells are stored as numbers.
func NewWorkbook(sheets ...*table.Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, errors.New("no sheets to export")
	}

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]bool, len(sheets))
	for i, sheet := range sheets {
		name := sheetName(sheet.Name, i, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeSheet(f, name, sheet, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %q: %w", name, err)
		}
	}
	return f, nil
}

// WriteWorkbook writes the sheets as an .xlsx workbook to w.
func WriteWorkbook(w io.Writer, sheets ...*table.Sheet) error {
	f, err := NewWorkbook(sheets...)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, sheet *table.Sheet, headerStyle int) error {
	header := make([]interface{}, len(sheet.Columns))
	for i, c := range sheet.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(name, 1, 1, headerStyle); err != nil {
		return err
	}

	text := make([]bool, len(sheet.Columns))
	for i, c := range sheet.Columns {
		text[i] = isIdentifierColumn(c)
	}

	for i, row := range sheet.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if j < len(text) && text[j] {
				cells[j] = v
				continue
			}
			cells[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return err
		}
	}

	if len(sheet.Columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(sheet.Columns))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, "A", last, 18); err != nil {
			return err
		}
	}
	return nil
}

// isIdentifierColumn reports columns written as text whatever they hold.
func isIdentifierColumn(col string) bool {
	return col == model.ColExternalCode || strings.HasSuffix(col, "_ID")
}

// maxExactDigits is the longest integer a float64 cell holds without losing digits.
const maxExactDigits = 15

// cellValue stores finite numbers as numbers. Text with leading zeros and
// integers too long for a float64 stay text.
func cellValue(v string) interface{} {
	if len(v) > 1 && v[0] == '0' && v[1] != '.' {
		return v
	}
	if digits := strings.TrimLeft(v, "+-"); len(digits) > maxExactDigits && !strings.ContainsAny(digits, ".eE") {
		return v
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return v
}

func sheetName(name string, i int, used map[string]bool) string {
	if name == "" {
		name = fmt.Sprintf("Sheet%d", i+1)
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		if len(base)+len(suffix) > maxSheetName {
			name = base[:maxSheetName-len(suffix)] + suffix
		} else {
			name = base + suffix
		}
	}
	used[name] = true
	return name
}
