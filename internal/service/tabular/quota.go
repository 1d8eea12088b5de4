package tabular

import (
	"errors"
	"strconv"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Suffixes of the columns QuotaSizes adds after each numeric column.
const (
	WeightSuffix       = "_weight"
	RegularSizeSuffix  = "_regular_sample_size"
	WeightedSizeSuffix = "_weighted_sample_size"
)

// NumericColumns returns, in sheet order, the columns outside exclude whose
// cells all parse as numbers. Blank cells count as 0; a column of blanks
// only is not numeric.
func NumericColumns(sheet *table.Sheet, exclude []string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		skip[c] = true
	}
	index := sheet.ColumnIndex()

	var out []string
	for i, col := range sheet.Columns {
		if skip[col] || index[col] != i {
			continue
		}
		numeric, filled := true, false
		for _, row := range sheet.Rows {
			v := table.Cell(row, index, col)
			if v == "" {
				continue
			}
			filled = true
			if _, err := parseNumber(v); err != nil {
				numeric = false
				break
			}
		}
		if numeric && filled {
			out = append(out, col)
		}
	}
	return out
}

// QuotaSizes treats every row of a pivot as a quota cell. For each numeric
// column outside quotaColumns, values are rounded half to even and followed by
// three columns: the row's weight in the column total, the sample size the
// row needs on its own and its weighted share of the sample the column total
// needs. Other columns are copied as they are.
func QuotaSizes(sheet *table.Sheet, quotaColumns []string, params model.SamplingParams) (*table.Sheet, error) {
	if len(quotaColumns) == 0 {
		return nil, &model.ParameterError{Name: "quota", Value: "[]", Accepted: "one or more quota columns"}
	}
	if missing := sheet.Missing(quotaColumns); len(missing) > 0 {
		cols := make([]model.RequiredColumn, len(missing))
		for i, m := range missing {
			cols[i] = model.RequiredColumn{Name: m, Description: "Quota column."}
		}
		return nil, &model.SchemaError{Missing: cols}
	}
	if sheet.Len() == 0 {
		return nil, model.ErrEmptyUniverse
	}
	if err := samplesize.Validate(params); err != nil {
		return nil, err
	}

	interest := NumericColumns(sheet, quotaColumns)
	if len(interest) == 0 {
		return nil, &model.ParameterError{Name: "quota", Value: quotaColumns, Accepted: "quota columns leaving at least one numeric column"}
	}

	index := sheet.ColumnIndex()
	derived := make(map[string][4][]string, len(interest))
	for _, col := range interest {
		values := make([]int, sheet.Len())
		total := 0
		for r, row := range sheet.Rows {
			f, _ := parseNumber(table.Cell(row, index, col))
			v := int(table.Round(f, 0))
			if v < 0 {
				return nil, &model.DataTypeError{Column: col, Row: r + 1, Value: table.Cell(row, index, col), Err: errors.New("negative count")}
			}
			values[r] = v
			total += v
		}
		sizes, _, err := samplesize.Sizes(values, params)
		if err != nil {
			return nil, err
		}

		var cols [4][]string
		for r, s := range sizes {
			cols[0] = append(cols[0], strconv.Itoa(values[r]))
			cols[1] = append(cols[1], strconv.FormatFloat(s.Weight, 'f', -1, 64))
			cols[2] = append(cols[2], strconv.Itoa(s.RegularSize))
			cols[3] = append(cols[3], strconv.Itoa(s.WeightedSize))
		}
		derived[col] = cols
	}

	var header []string
	for i, col := range sheet.Columns {
		header = append(header, col)
		if _, ok := derived[col]; ok && index[col] == i {
			header = append(header, col+WeightSuffix, col+RegularSizeSuffix, col+WeightedSizeSuffix)
		}
	}
	out := table.NewSheet("Quota Sample Sizes", header...)
	for r, row := range sheet.Rows {
		cells := make([]string, 0, len(header))
		for i, col := range sheet.Columns {
			cols, ok := derived[col]
			if !ok || index[col] != i {
				v := ""
				if i < len(row) {
					v = row[i]
				}
				cells = append(cells, v)
				continue
			}
			cells = append(cells, cols[0][r], cols[1][r], cols[2][r], cols[3][r])
		}
		out.Append(cells...)
	}
	return out, nil
}
