package excel

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/structure"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadSheet reads an uploaded universe. .xlsx/.xlsm files are opened as
// workbooks, .csv as comma separated text. Unknown extensions are tried as
// CSV first and as a workbook second.
func ReadSheet(r io.Reader, filename string) (*table.Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(data, "")
	case ".csv":
		return readCSV(data)
	}

	sheet, csvErr := readCSV(data)
	if csvErr == nil {
		return sheet, nil
	}
	sheet, xlsxErr := readWorkbook(data, "")
	if xlsxErr == nil {
		return sheet, nil
	}
	return nil, fmt.Errorf("unsupported file %q: %w", filename, errors.Join(csvErr, xlsxErr))
}

// ReadWorkbookSheet reads one named sheet of a workbook. An empty name reads
// the first sheet.
func ReadWorkbookSheet(r io.Reader, sheetName string) (*table.Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return readWorkbook(data, sheetName)
}

func readWorkbook(data []byte, sheetName string) (*table.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return toSheet(sheetName, rows)
}

func readCSV(data []byte) (*table.Sheet, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return toSheet("", rows)
}

func toSheet(name string, rows [][]string) (*table.Sheet, error) {
	if len(rows) == 0 {
		return nil, model.ErrEmptyUniverse
	}
	sheet := table.NewSheet(name, rows[0]...)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		sheet.Append(row...)
	}
	return sheet, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseStores converts a raw sheet into typed stores. Missing columns are
// reported together; ACV cells are coerced per row and store ids must be
// unique and non-empty. Row numbers in errors are 1-based data rows.
func ParseStores(sheet *table.Sheet) ([]model.Store, error) {
	if err := structure.CheckColumns(sheet.Columns); err != nil {
		return nil, err
	}
	if sheet.Len() == 0 {
		return nil, model.ErrEmptyUniverse
	}

	index := sheet.ColumnIndex()
	stores := make([]model.Store, 0, sheet.Len())
	for i, row := range sheet.Rows {
		acv, err := structure.CoerceACV(table.Cell(row, index, model.ColACV), i+1)
		if err != nil {
			return nil, err
		}
		stores = append(stores, model.Store{
			ExternalCode: table.Cell(row, index, model.ColExternalCode),
			ID:           table.Cell(row, index, model.ColStoreID),
			ACV:          acv,
			PlayerID:     table.Cell(row, index, model.ColPlayerID),
			Player:       table.Cell(row, index, model.ColPlayer),
			SubplayerID:  table.Cell(row, index, model.ColSubplayerID),
			Subplayer:    table.Cell(row, index, model.ColSubplayer),
			CityID:       table.Cell(row, index, model.ColCityID),
			City:         table.Cell(row, index, model.ColCity),
			StateID:      table.Cell(row, index, model.ColStateID),
			State:        table.Cell(row, index, model.ColState),
		})
	}
	if err := structure.ValidateStores(stores); err != nil {
		return nil, err
	}
	return stores, nil
}
