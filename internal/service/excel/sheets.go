package excel

import (
	"strconv"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/pipeline"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/service/tabular"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// StratumSheet lays out a summary with its grouping's column labels.
func StratumSheet(name string, g model.Grouping, rows []model.StratumRow) *table.Sheet {
	cols := append([]string{}, g.Columns()...)
	cols = append(cols,
		model.ColACV,
		g.ACVWeightColumn(),
		g.ACVCumulativeColumn(),
		model.StoreCountColumn,
		g.StoresWeightColumn(),
		g.StoresCumulativeColumn(),
	)
	sheet := table.NewSheet(name, cols...)
	for _, r := range rows {
		sheet.Append(stratumCells(r)...)
	}
	return sheet
}

func stratumCells(r model.StratumRow) []string {
	cells := append([]string{}, r.Keys...)
	return append(cells,
		formatFloat(r.ACV),
		formatFloat(r.ACVWeight),
		formatFloat(r.ACVCumulative),
		strconv.Itoa(r.StoreCount),
		formatFloat(r.StoresWeight),
		formatFloat(r.StoresCumulative),
	)
}

// CityTargetSheet lays out the reduced universe's city summary with targets.
func CityTargetSheet(name string, rows []model.CityTarget) *table.Sheet {
	g := model.GroupingCity
	sheet := StratumSheet(name, g, nil)
	sheet.Columns = append(sheet.Columns, model.TargetStoresCityColumn, model.TargetACVCityColumn)
	for _, r := range rows {
		cells := stratumCells(r.StratumRow)
		cells = append(cells, formatFloat(r.TargetStores), formatFloat(r.TargetACV))
		sheet.Append(cells...)
	}
	return sheet
}

// ChainTargetSheet lays out chain-level targets.
func ChainTargetSheet(name string, rows []model.ChainTarget) *table.Sheet {
	sheet := table.NewSheet(name,
		model.ColStateID, model.ColState,
		model.ColCityID, model.ColCity,
		model.ColPlayerID, model.ColPlayer,
		model.ColSubplayerID, model.ColSubplayer,
		model.TargetStoresChainsColumn, model.TargetACVChainsColumn,
	)
	for _, r := range rows {
		sheet.Append(
			r.StateID, r.State,
			r.CityID, r.City,
			r.PlayerID, r.Player,
			r.SubplayerID, r.Subplayer,
			formatFloat(r.TargetStores), formatFloat(r.TargetACV),
		)
	}
	return sheet
}

// StoreSheet lays out stores with the universe's column labels.
func StoreSheet(name string, stores []model.Store) *table.Sheet {
	cols := make([]string, 0, len(model.RequiredColumns))
	for _, c := range model.RequiredColumns {
		cols = append(cols, c.Name)
	}
	sheet := table.NewSheet(name, cols...)
	for _, s := range stores {
		cells := make([]string, 0, len(cols))
		for _, c := range cols {
			if c == model.ColACV {
				cells = append(cells, formatFloat(s.ACV))
				continue
			}
			cells = append(cells, s.Field(c))
		}
		sheet.Append(cells...)
	}
	return sheet
}

// Structure sample size column labels.
const (
	StratumWeightColumn = "Stratum Weight"
	RegularSizeColumn   = "Regular Sample Size"
	WeightedSizeColumn  = "Weighted Sample Size"
)

// StructureSizeSheet lays out per-stratum sample sizes.
func StructureSizeSheet(name string, g model.Grouping, sizes []samplesize.StratumSize) *table.Sheet {
	cols := append([]string{}, g.Columns()...)
	cols = append(cols, model.StoreCountColumn, StratumWeightColumn, RegularSizeColumn, WeightedSizeColumn)
	sheet := table.NewSheet(name, cols...)
	for _, s := range sizes {
		cells := append([]string{}, s.Row.Keys...)
		cells = append(cells,
			strconv.Itoa(s.Row.StoreCount),
			formatFloat(table.Round(s.Weight, 4)),
			strconv.Itoa(s.RegularSize),
			strconv.Itoa(s.WeightedSize),
		)
		sheet.Append(cells...)
	}
	return sheet
}

// AllocationSheet lays out a stratified allocation.
func AllocationSheet(name string, allocs []samplesize.Allocation) *table.Sheet {
	sheet := table.NewSheet(name, "Stratum", model.StoreCountColumn, "Proportional", "Allocated")
	for _, a := range allocs {
		sheet.Append(a.Key, strconv.Itoa(a.Population), strconv.Itoa(a.Proportional), strconv.Itoa(a.Allocated))
	}
	return sheet
}

// ReportSheet lays out a design report as label/value pairs.
func ReportSheet(name string, r pipeline.Report) *table.Sheet {
	sheet := table.NewSheet(name, "Measure", "Value")
	sheet.Append("Selected Stores", strconv.Itoa(r.SelectedStores))
	sheet.Append("Selected ACV", formatFloat(r.SelectedACV))
	sheet.Append("Reduced Universe Stores", strconv.Itoa(r.ReducedStores))
	sheet.Append("Reduced Universe ACV", formatFloat(r.ReducedACV))
	sheet.Append("Target Stores", formatFloat(r.TargetStores))
	sheet.Append("Target ACV", formatFloat(r.TargetACV))
	sheet.Append("ACV Coverage (%)", formatFloat(r.ACVCoverage))
	sheet.Append("Target ACV Coverage (%)", formatFloat(r.TargetACVCoverage))
	return sheet
}

// DesignSheets lays out every table of a design run, in the order they are
// produced.
func DesignSheets(res *pipeline.Result) []*table.Sheet {
	sheets := make([]*table.Sheet, 0, 9)
	for _, g := range model.Groupings {
		sheets = append(sheets, StratumSheet(g.Title()+" Structure", g, res.Structure.View(g)))
	}
	sheets = append(sheets,
		StratumSheet("Principal Cities", model.GroupingCity, res.Reduction.Cities),
		CityTargetSheet("City Targets", res.Cascade.Cities),
		ChainTargetSheet("Chain Targets", res.Cascade.Chains),
		StoreSheet("Sample", res.Selected),
		ReportSheet("Report", res.Report),
	)
	return sheets
}

// TableSizeSheet lays out per-stratum sample sizes of a column-list design.
func TableSizeSheet(name string, d tabular.Design, sizes []tabular.StratumSize) *table.Sheet {
	cols := append([]string{}, d.Columns...)
	cols = append(cols, "Count", StratumWeightColumn, RegularSizeColumn, WeightedSizeColumn)
	sheet := table.NewSheet(name, cols...)
	for _, s := range sizes {
		cells := append([]string{}, s.Keys...)
		cells = append(cells,
			strconv.Itoa(s.Count),
			formatFloat(table.Round(s.Weight, 4)),
			strconv.Itoa(s.RegularSize),
			strconv.Itoa(s.WeightedSize),
		)
		sheet.Append(cells...)
	}
	return sheet
}
