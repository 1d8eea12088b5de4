// Package tabular stratifies arbitrary tables by a caller-chosen list of
// columns, for uploads that are not store universes: panel lists, pivot
// tables, quota sheets.
package tabular

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Design how a table is stratified
type Design struct {
	// IDColumn orders rows before grouping. Optional.
	IDColumn string   `json:"idColumn,omitempty"`
	Columns  []string `json:"columns"`
	// FeatureColumn, one of Columns, keeps only the strata whose value in
	// that column equals FeatureValue.
	FeatureColumn string `json:"featureColumn,omitempty"`
	FeatureValue  string `json:"featureValue,omitempty"`
}

// Stratum one group of rows sharing the same values in every design column
type Stratum struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
	// Rows are the member positions in the source sheet, in IDColumn order.
	Rows []int `json:"-"`
}

// Label joins the stratum's keys for display and allocation.
func (s Stratum) Label() string {
	return strings.Join(s.Keys, " | ")
}

// Validate checks the design against a sheet's header.
func (d Design) Validate(sheet *table.Sheet) error {
	if len(d.Columns) == 0 {
		return &model.ParameterError{Name: "columns", Value: "[]", Accepted: "one or more structure columns"}
	}

	var missing []model.RequiredColumn
	index := sheet.ColumnIndex()
	check := func(col, desc string) {
		if _, ok := index[col]; !ok {
			missing = append(missing, model.RequiredColumn{Name: col, Description: desc})
		}
	}
	if d.IDColumn != "" {
		check(d.IDColumn, "Identifier column.")
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if seen[c] {
			return &model.ParameterError{Name: "columns", Value: c, Accepted: "each structure column once"}
		}
		seen[c] = true
		if c == d.IDColumn {
			return &model.ParameterError{Name: "columns", Value: c, Accepted: "columns other than the identifier column"}
		}
		check(c, "Structure column.")
	}
	if len(missing) > 0 {
		return &model.SchemaError{Missing: missing}
	}

	if d.FeatureColumn == "" {
		if d.FeatureValue != "" {
			return &model.ParameterError{Name: "featureColumn", Value: "", Accepted: "a structure column when a feature value is given"}
		}
		return nil
	}
	if !seen[d.FeatureColumn] {
		return &model.ParameterError{Name: "featureColumn", Value: d.FeatureColumn, Accepted: strings.Join(d.Columns, ", ")}
	}
	return nil
}

// Stratify groups the sheet's rows by the design columns. Strata come back
// ordered by key, numeric parts compared as numbers; member rows keep the
// order of IDColumn.
func Stratify(sheet *table.Sheet, d Design) ([]Stratum, error) {
	if err := d.Validate(sheet); err != nil {
		return nil, err
	}
	if sheet.Len() == 0 {
		return nil, model.ErrEmptyUniverse
	}

	index := sheet.ColumnIndex()
	order := make([]int, sheet.Len())
	for i := range order {
		order[i] = i
	}
	if d.IDColumn != "" {
		sort.SliceStable(order, func(i, j int) bool {
			a := table.Cell(sheet.Rows[order[i]], index, d.IDColumn)
			b := table.Cell(sheet.Rows[order[j]], index, d.IDColumn)
			return table.LessParts([]string{a}, []string{b})
		})
	}

	groups := table.GroupBy(order,
		func(row int) []string {
			parts := make([]string, len(d.Columns))
			for i, c := range d.Columns {
				parts[i] = table.Cell(sheet.Rows[row], index, c)
			}
			return parts
		},
		nil,
	)

	featurePos := -1
	for i, c := range d.Columns {
		if c == d.FeatureColumn {
			featurePos = i
		}
	}

	out := make([]Stratum, 0, len(groups))
	for _, g := range groups {
		if featurePos >= 0 && g.Parts[featurePos] != d.FeatureValue {
			continue
		}
		rows := make([]int, len(g.Rows))
		for i, pos := range g.Rows {
			rows[i] = order[pos]
		}
		out = append(out, Stratum{Keys: g.Parts, Count: g.Count, Rows: rows})
	}
	if len(out) == 0 {
		return nil, &model.ParameterError{
			Name:     "featureValue",
			Value:    d.FeatureValue,
			Accepted: "a value present in " + d.FeatureColumn,
		}
	}
	return out, nil
}

// Population sums stratum counts.
func Population(strata []Stratum) int {
	total := 0
	for _, s := range strata {
		total += s.Count
	}
	return total
}

// StratumSize sample sizes for one stratum of a table
type StratumSize struct {
	Keys []string `json:"keys"`
	samplesize.Size
}

// StructureSizes stratifies the sheet and computes each stratum's regular
// and weighted sample size. The second result is the sample size of the
// (feature-filtered) population.
func StructureSizes(sheet *table.Sheet, d Design, params model.SamplingParams) ([]StratumSize, int, error) {
	strata, err := Stratify(sheet, d)
	if err != nil {
		return nil, 0, err
	}
	counts := make([]int, len(strata))
	for i, s := range strata {
		counts[i] = s.Count
	}
	sizes, universeSize, err := samplesize.Sizes(counts, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]StratumSize, len(strata))
	for i, s := range strata {
		out[i] = StratumSize{Keys: s.Keys, Size: sizes[i]}
	}
	return out, universeSize, nil
}

// Subset copies the given rows of a sheet, in the given order.
func Subset(sheet *table.Sheet, name string, rows []int) *table.Sheet {
	out := table.NewSheet(name, append([]string(nil), sheet.Columns...)...)
	for _, r := range rows {
		out.Append(append([]string(nil), sheet.Rows[r]...)...)
	}
	return out
}

var errNotNumeric = errors.New("not a number")

func parseNumber(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumeric
	}
	return f, nil
}
