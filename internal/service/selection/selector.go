package selection

import (
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/design"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Selector picks concrete stores to meet cascaded chain targets
type Selector struct {
	logger *zap.Logger
}

// NewSelector creates a selector. A nil logger discards output.
func NewSelector(logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{logger: logger}
}

func byACV(s model.Store) float64 { return s.ACV }

// Select picks stores from the cities covered by targets. Stores outside
// those cities are never eligible.
func (s *Selector) Select(stores []model.Store, targets []model.ChainTarget, mode model.SelectionMode) ([]model.Store, error) {
	mode, err := model.ParseSelectionMode(string(mode))
	if err != nil {
		return nil, err
	}

	cityIDs := make([]string, 0, len(targets))
	seen := make(map[string]bool)
	for _, t := range targets {
		if !seen[t.CityID] {
			seen[t.CityID] = true
			cityIDs = append(cityIDs, t.CityID)
		}
	}
	eligible := design.RestrictToCities(stores, cityIDs)

	var selected []model.Store
	switch mode {
	case model.SelectStructurePreserving:
		selected, err = s.structurePreserving(eligible, targets)
	case model.SelectACVMaximizing:
		selected = s.acvMaximizing(eligible, targets)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("stores selected",
		zap.String("mode", string(mode)),
		zap.Int("eligible", len(eligible)),
		zap.Int("selected", len(selected)),
	)
	return selected, nil
}

// structurePreserving takes the highest-ACV stores of every (city, chain)
// partition, up to the partition's store target.
func (s *Selector) structurePreserving(stores []model.Store, targets []model.ChainTarget) ([]model.Store, error) {
	targetIndex := table.IndexBy(targets, func(t model.ChainTarget) table.Key {
		return table.KeyOf(t.CityID, t.SubplayerID)
	})

	partitions := table.GroupBy(stores,
		func(st model.Store) []string { return []string{st.CityID, st.SubplayerID} },
		nil,
	)

	out := make([]model.Store, 0)
	for _, part := range partitions {
		ti, ok := targetIndex[part.Key]
		if !ok {
			return nil, &model.LookupError{CityID: part.Parts[0], SubplayerID: part.Parts[1]}
		}
		members := make([]model.Store, 0, len(part.Rows))
		for _, i := range part.Rows {
			members = append(members, stores[i])
		}
		out = append(out, table.TopN(members, int(targets[ti].TargetStores), byACV)...)
	}
	return out, nil
}

// acvMaximizing ignores partitions and takes the highest-ACV stores overall,
// as many as all chain store targets together.
func (s *Selector) acvMaximizing(stores []model.Store, targets []model.ChainTarget) []model.Store {
	total := 0.0
	for _, t := range targets {
		total += t.TargetStores
	}
	return table.TopN(stores, int(total), byACV)
}
