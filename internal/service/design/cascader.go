package design

import (
	"math"

	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/structure"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Cascader distributes store and ACV targets from the reduced universe down
// to cities and then to chains within each city.
type Cascader struct {
	summarizer *structure.Summarizer
	logger     *zap.Logger
}

// NewCascader creates a cascader. A nil logger discards output.
func NewCascader(summarizer *structure.Summarizer, logger *zap.Logger) *Cascader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if summarizer == nil {
		summarizer = structure.NewSummarizer(logger)
	}
	return &Cascader{summarizer: summarizer, logger: logger}
}

// RestrictToCities returns a copy of the stores located in the given cities,
// keeping input order.
func RestrictToCities(stores []model.Store, cityIDs []string) []model.Store {
	keep := make(map[string]bool, len(cityIDs))
	for _, id := range cityIDs {
		keep[id] = true
	}
	return table.Filter(stores, func(s model.Store) bool { return keep[s.CityID] })
}

// Cascade computes city-level targets for the selected cities and splits them
// across the chains of each city in proportion to the chain's share of the
// city's ACV and stores. stores is the whole universe; only stores in the
// selected cities take part.
func (c *Cascader) Cascade(stores []model.Store, cities []model.StratumRow, targetACV, targetStores float64, mode model.Preservation) (*model.Cascade, error) {
	mode, err := model.ParsePreservation(string(mode))
	if err != nil {
		return nil, err
	}
	if err := checkTargetFraction("targetAcv", targetACV); err != nil {
		return nil, err
	}
	if err := checkTargetFraction("targetStores", targetStores); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(cities))
	agg := model.AggregateTarget{}
	for _, city := range cities {
		ids = append(ids, city.Key(model.ColCityID))
		agg.Stores += city.StoreCount
		agg.ACV += city.ACV
	}
	agg.TargetStores = table.Round(float64(agg.Stores)*targetStores, 0)
	agg.TargetACV = table.Round(agg.ACV*targetACV, 0)

	reduced := RestrictToCities(stores, ids)
	if len(reduced) == 0 {
		return nil, model.ErrEmptyUniverse
	}
	reducedStructure, err := c.summarizer.Universe(reduced)
	if err != nil {
		return nil, err
	}

	cityTargets := make([]model.CityTarget, 0, len(reducedStructure.City))
	for _, row := range reducedStructure.City {
		ct := model.CityTarget{StratumRow: row}
		switch mode {
		case model.PreserveCities:
			ct.TargetStores = float64(row.StoreCount) * targetStores
			ct.TargetACV = row.ACV * targetACV
		case model.PreserveUniverse:
			ct.TargetStores = row.StoresWeight / 100 * agg.TargetStores
			ct.TargetACV = row.ACVWeight / 100 * agg.TargetACV
		}
		ct.TargetStores = table.Round(ct.TargetStores, 0)
		ct.TargetACV = table.Round(ct.TargetACV, 0)
		cityTargets = append(cityTargets, ct)
	}

	chains := c.cascadeChains(reducedStructure.Detailed, cityTargets)

	c.logger.Debug("targets cascaded",
		zap.String("structure", string(mode)),
		zap.Int("cities", len(cityTargets)),
		zap.Int("chains", len(chains)),
		zap.Float64("aggregateTargetStores", agg.TargetStores),
		zap.Float64("aggregateTargetAcv", agg.TargetACV),
	)
	return &model.Cascade{
		Preservation: mode,
		Aggregate:    agg,
		Cities:       cityTargets,
		Chains:       chains,
	}, nil
}

// cascadeChains visits cities in the order they first appear in the detailed
// summary and keeps the summary order of chains inside each city.
func (c *Cascader) cascadeChains(detailed []model.StratumRow, cities []model.CityTarget) []model.ChainTarget {
	cityKey := func(r model.StratumRow) table.Key { return table.KeyOf(r.Key(model.ColCityID)) }
	joined := table.Join(detailed, cities, cityKey, func(ct model.CityTarget) table.Key { return cityKey(ct.StratumRow) })

	type cityTotals struct {
		acv    float64
		stores int
	}
	totals := make(map[table.Key]*cityTotals)
	order := make([]table.Key, 0)
	byCity := make(map[table.Key][]table.Pair[model.StratumRow, model.CityTarget])
	for _, p := range joined {
		k := cityKey(p.Left)
		t, ok := totals[k]
		if !ok {
			t = &cityTotals{}
			totals[k] = t
			order = append(order, k)
		}
		t.acv += p.Left.ACV
		t.stores += p.Left.StoreCount
		byCity[k] = append(byCity[k], p)
	}

	out := make([]model.ChainTarget, 0, len(joined))
	for _, k := range order {
		t := totals[k]
		for _, p := range byCity[k] {
			row, city := p.Left, p.Right
			out = append(out, model.ChainTarget{
				StateID:      row.Key(model.ColStateID),
				State:        row.Key(model.ColState),
				CityID:       row.Key(model.ColCityID),
				City:         row.Key(model.ColCity),
				PlayerID:     row.Key(model.ColPlayerID),
				Player:       row.Key(model.ColPlayer),
				SubplayerID:  row.Key(model.ColSubplayerID),
				Subplayer:    row.Key(model.ColSubplayer),
				TargetStores: table.Round(share(float64(row.StoreCount), float64(t.stores))*city.TargetStores, 0),
				TargetACV:    table.Round(share(row.ACV, t.acv)*city.TargetACV, 0),
			})
		}
	}
	return out
}

func share(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole
}

func checkTargetFraction(name string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return &model.ParameterError{Name: name, Value: v, Accepted: "a fraction in [0, 1]"}
	}
	return nil
}
