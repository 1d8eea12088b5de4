package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/design"
	"github.com/sape94/NIQ-sp-proj/internal/service/selection"
	"github.com/sape94/NIQ-sp-proj/internal/service/structure"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Pipeline runs a full sample design: structure, city reduction, target
// cascade and store selection.
type Pipeline struct {
	summarizer *structure.Summarizer
	reducer    *design.Reducer
	cascader   *design.Cascader
	selector   *selection.Selector
	logger     *zap.Logger
}

// New creates a pipeline. A nil logger discards output.
func New(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	summarizer := structure.NewSummarizer(logger)
	return &Pipeline{
		summarizer: summarizer,
		reducer:    design.NewReducer(logger),
		cascader:   design.NewCascader(summarizer, logger),
		selector:   selection.NewSelector(logger),
		logger:     logger,
	}
}

// Report totals of the selected sample
type Report struct {
	SelectedStores int     `json:"selectedStores"`
	SelectedACV    float64 `json:"selectedAcv"`
	ReducedStores  int     `json:"reducedStores"`
	ReducedACV     float64 `json:"reducedAcv"`
	TargetStores   float64 `json:"targetStores"`
	TargetACV      float64 `json:"targetAcv"`
	// ACVCoverage is the selected ACV as a percentage of the reduced universe ACV.
	ACVCoverage float64 `json:"acvCoverage"`
	// TargetACVCoverage is the selected ACV as a percentage of the aggregate ACV target.
	TargetACVCoverage float64 `json:"targetAcvCoverage"`
}

// Result every intermediate table of a run
type Result struct {
	Params    model.DesignParams `json:"params"`
	Structure *model.Structure   `json:"structure"`
	Reduction *design.Reduction  `json:"reduction"`
	Cascade   *model.Cascade     `json:"cascade"`
	Selected  []model.Store      `json:"selected"`
	Report    Report             `json:"report"`
}

// Run designs a sample of stores. stores is never modified.
func (p *Pipeline) Run(stores []model.Store, params model.DesignParams) (*Result, error) {
	params, err := params.Normalized()
	if err != nil {
		return nil, err
	}

	universe, err := p.summarizer.Universe(stores)
	if err != nil {
		return nil, fmt.Errorf("summarize universe: %w", err)
	}

	reduction, err := p.reducer.SelectPrincipalCities(universe.City, params.Reduction, params.CitiesCoverage)
	if err != nil {
		return nil, fmt.Errorf("select principal cities: %w", err)
	}

	cascade, err := p.cascader.Cascade(stores, reduction.Cities, params.TargetACV, params.TargetStores, params.Preservation)
	if err != nil {
		return nil, fmt.Errorf("cascade targets: %w", err)
	}

	selected, err := p.selector.Select(stores, cascade.Chains, params.Selection)
	if err != nil {
		return nil, fmt.Errorf("select stores: %w", err)
	}

	report := buildReport(selected, cascade)
	p.logger.Info("sample designed",
		zap.Int("universeStores", universe.Universe.Stores),
		zap.Int("cities", len(reduction.Cities)),
		zap.Int("chains", len(cascade.Chains)),
		zap.Int("selected", report.SelectedStores),
		zap.Float64("acvCoverage", report.ACVCoverage),
	)

	return &Result{
		Params:    params,
		Structure: universe,
		Reduction: reduction,
		Cascade:   cascade,
		Selected:  selected,
		Report:    report,
	}, nil
}

func buildReport(selected []model.Store, cascade *model.Cascade) Report {
	sel := model.UniverseOf(selected)
	agg := cascade.Aggregate
	return Report{
		SelectedStores:    sel.Stores,
		SelectedACV:       sel.ACV,
		ReducedStores:     agg.Stores,
		ReducedACV:        agg.ACV,
		TargetStores:      agg.TargetStores,
		TargetACV:         agg.TargetACV,
		ACVCoverage:       table.Round(table.Percent(sel.ACV, agg.ACV), 2),
		TargetACVCoverage: table.Round(table.Percent(sel.ACV, agg.TargetACV), 2),
	}
}
