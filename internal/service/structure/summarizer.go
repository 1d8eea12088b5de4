package structure

import (
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// weightPlaces is the rounding precision of every percentage column.
const weightPlaces = 2

// Summarizer stratum summary builder
type Summarizer struct {
	logger *zap.Logger
}

// NewSummarizer creates a summarizer. A nil logger discards output.
func NewSummarizer(logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{logger: logger}
}

// Summarize groups stores by the grouping and weighs each stratum against the
// whole of stores.
func (s *Summarizer) Summarize(stores []model.Store, g model.Grouping) ([]model.StratumRow, error) {
	if err := s.validate(stores, g); err != nil {
		return nil, err
	}
	return s.summarize(stores, g, model.UniverseOf(stores)), nil
}

// Universe computes the retailer, state, city and detailed views of stores,
// all weighed against the same universe totals.
func (s *Summarizer) Universe(stores []model.Store) (*model.Structure, error) {
	if err := s.validate(stores, model.GroupingDetailed); err != nil {
		return nil, err
	}

	universe := model.UniverseOf(stores)
	result := &model.Structure{
		Universe: universe,
		Retailer: s.summarize(stores, model.GroupingRetailer, universe),
		State:    s.summarize(stores, model.GroupingState, universe),
		City:     s.summarize(stores, model.GroupingCity, universe),
		Detailed: s.summarize(stores, model.GroupingDetailed, universe),
	}

	s.logger.Debug("universe structure computed",
		zap.Int("stores", universe.Stores),
		zap.Float64("acv", universe.ACV),
		zap.Int("retailers", len(result.Retailer)),
		zap.Int("states", len(result.State)),
		zap.Int("cities", len(result.City)),
		zap.Int("detailed", len(result.Detailed)),
	)
	return result, nil
}

func (s *Summarizer) validate(stores []model.Store, g model.Grouping) error {
	if _, err := model.ParseGrouping(string(g)); err != nil {
		return err
	}
	if len(stores) == 0 {
		return model.ErrEmptyUniverse
	}
	return ValidateStores(stores)
}

// summarize never mutates stores. Both cumulative columns follow the order of
// the rounded ACV weight.
func (s *Summarizer) summarize(stores []model.Store, g model.Grouping, universe model.Universe) []model.StratumRow {
	cols := g.Columns()
	groups := table.GroupBy(stores,
		func(st model.Store) []string {
			parts := make([]string, len(cols))
			for i, c := range cols {
				parts[i] = st.Field(c)
			}
			return parts
		},
		func(st model.Store) float64 { return st.ACV },
	)

	rows := make([]model.StratumRow, 0, len(groups))
	for _, grp := range groups {
		rows = append(rows, model.StratumRow{
			Grouping:     g,
			Keys:         grp.Parts,
			ACV:          grp.Sum,
			StoreCount:   grp.Count,
			ACVWeight:    table.Round(table.Percent(grp.Sum, universe.ACV), weightPlaces),
			StoresWeight: table.Round(table.Percent(float64(grp.Count), float64(universe.Stores)), weightPlaces),
		})
	}

	table.SortDesc(rows, func(r model.StratumRow) float64 { return r.ACVWeight })

	acv := make([]float64, len(rows))
	counts := make([]float64, len(rows))
	for i, r := range rows {
		acv[i] = r.ACV
		counts[i] = float64(r.StoreCount)
	}
	acvCum, countCum := table.CumSum(acv), table.CumSum(counts)
	for i := range rows {
		rows[i].ACVCumulative = table.Round(table.Percent(acvCum[i], universe.ACV), weightPlaces)
		rows[i].StoresCumulative = table.Round(table.Percent(countCum[i], float64(universe.Stores)), weightPlaces)
	}

	s.logger.Debug("strata summarized",
		zap.String("grouping", string(g)),
		zap.Int("strata", len(rows)),
	)
	return rows
}
