package structure

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sape94/NIQ-sp-proj/internal/model"
)

// CheckColumns reports every required universe column missing from columns.
// Labels must match exactly; a padded " ACV " is reported as missing.
func CheckColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	schemaErr := &model.SchemaError{}
	for _, req := range model.RequiredColumns {
		if present[req.Name] {
			continue
		}
		schemaErr.Missing = append(schemaErr.Missing, req)
		if model.IsPlayerColumn(req.Name) {
			schemaErr.PlayerHint = true
		}
	}
	if len(schemaErr.Missing) > 0 {
		return schemaErr
	}
	return nil
}

// CoerceACV parses an ACV cell as a number. Surrounding blanks are ignored;
// thousands separators and other decoration are rejected.
func CoerceACV(raw string, row int) (float64, error) {
	val := strings.TrimSpace(raw)
	if val == "" {
		return 0, &model.DataTypeError{Column: model.ColACV, Row: row, Value: raw, Err: errors.New("empty value")}
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, &model.DataTypeError{Column: model.ColACV, Row: row, Value: raw, Err: errors.New("not a number")}
	}
	if err := checkACV(f); err != nil {
		return 0, &model.DataTypeError{Column: model.ColACV, Row: row, Value: raw, Err: err}
	}
	return f, nil
}

// ValidateStores checks already typed stores: every store needs a unique,
// non-empty id and a finite non-negative ACV. Row numbers are 1-based.
func ValidateStores(stores []model.Store) error {
	seen := make(map[string]int, len(stores))
	for i, s := range stores {
		if s.ID == "" {
			return &model.DataTypeError{Column: model.ColStoreID, Row: i + 1, Err: errors.New("empty store id")}
		}
		if first, ok := seen[s.ID]; ok {
			return &model.DataTypeError{
				Column: model.ColStoreID,
				Row:    i + 1,
				Value:  s.ID,
				Err:    fmt.Errorf("duplicate store id, first seen at row %d", first),
			}
		}
		seen[s.ID] = i + 1

		if err := checkACV(s.ACV); err != nil {
			return &model.DataTypeError{
				Column: model.ColACV,
				Row:    i + 1,
				Value:  strconv.FormatFloat(s.ACV, 'g', -1, 64),
				Err:    err,
			}
		}
	}
	return nil
}

func checkACV(v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return errors.New("not a finite number")
	case v < 0:
		return errors.New("negative ACV")
	}
	return nil
}
