package design

import (
	"math"

	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
)

// Reducer picks the principal cities of a universe
type Reducer struct {
	logger *zap.Logger
}

// NewReducer creates a reducer. A nil logger discards output.
func NewReducer(logger *zap.Logger) *Reducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reducer{logger: logger}
}

// Reduction principal cities and the cumulative coverage they reach
type Reduction struct {
	Metric   model.Metric       `json:"metric"`
	Target   float64            `json:"target"`
	Coverage float64            `json:"coverage"`
	Cities   []model.StratumRow `json:"cities"`
}

// SelectPrincipalCities finds the cumulative percentage (for metric) closest
// to coverage·100, the first one on ties, and returns every city whose
// cumulative percentage does not exceed it. cities must be a city summary in
// descending-weight order, so the result is a non-empty prefix.
func (r *Reducer) SelectPrincipalCities(cities []model.StratumRow, metric model.Metric, coverage float64) (*Reduction, error) {
	metric, err := model.ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	if coverage < 0 || coverage > 1 || math.IsNaN(coverage) {
		return nil, &model.ParameterError{Name: "citiesCoverage", Value: coverage, Accepted: "a fraction in [0, 1]"}
	}
	if len(cities) == 0 {
		return nil, model.ErrEmptyUniverse
	}

	target := coverage * 100
	closest := cities[0].Cumulative(metric)
	bestDiff := math.Abs(target - closest)
	for _, c := range cities[1:] {
		v := c.Cumulative(metric)
		if d := math.Abs(target - v); d < bestDiff {
			closest, bestDiff = v, d
		}
	}

	selected := make([]model.StratumRow, 0, len(cities))
	for _, c := range cities {
		if c.Cumulative(metric) <= closest {
			selected = append(selected, c)
		}
	}

	r.logger.Debug("principal cities selected",
		zap.String("metric", string(metric)),
		zap.Float64("target", target),
		zap.Float64("coverage", closest),
		zap.Int("cities", len(selected)),
	)
	return &Reduction{Metric: metric, Target: target, Coverage: closest, Cities: selected}, nil
}

// CityIDs returns the selected city ids in order.
func (r *Reduction) CityIDs() []string {
	ids := make([]string, 0, len(r.Cities))
	for _, c := range r.Cities {
		ids = append(ids, c.Key(model.ColCityID))
	}
	return ids
}
