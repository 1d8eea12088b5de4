package selection

import (
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/service/tabular"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// TableSample result of a draw over an arbitrary table
type TableSample struct {
	Design      *tabular.Design         `json:"design,omitempty"`
	Population  int                     `json:"population"`
	SampleSize  int                     `json:"sampleSize"`
	Allocations []samplesize.Allocation `json:"allocations,omitempty"`
	Sheet       *table.Sheet            `json:"-"`
}

// SimpleRows draws n rows uniformly without replacement, in draw order.
func (s *Sampler) SimpleRows(sheet *table.Sheet, n int) (*TableSample, error) {
	if sheet.Len() == 0 {
		return nil, model.ErrEmptyUniverse
	}
	if n < 0 || n > sheet.Len() {
		return nil, &model.ParameterError{Name: "sampleSize", Value: n, Accepted: "an integer between 0 and the population size"}
	}
	perm := s.rng.Perm(sheet.Len())
	s.logger.Debug("simple random rows drawn", zap.Int("population", sheet.Len()), zap.Int("n", n))
	return &TableSample{
		Population: sheet.Len(),
		SampleSize: n,
		Sheet:      tabular.Subset(sheet, "Sample", perm[:n]),
	}, nil
}

// StratifiedRows allocates n across the strata of d with drift correction and
// draws each stratum's allocation uniformly without replacement. A negative n
// draws the size params require for the (feature-filtered) population.
func (s *Sampler) StratifiedRows(sheet *table.Sheet, d tabular.Design, n int, params model.SamplingParams) (*TableSample, error) {
	strata, err := tabular.Stratify(sheet, d)
	if err != nil {
		return nil, err
	}
	population := tabular.Population(strata)
	if n < 0 {
		if n, err = samplesize.RequiredSampleSize(population, params); err != nil {
			return nil, err
		}
	}

	units := make([]samplesize.Stratum, len(strata))
	for i, st := range strata {
		units[i] = samplesize.Stratum{Key: st.Label(), Population: st.Count}
	}
	allocs, err := s.allocator.Allocate(units, n)
	if err != nil {
		return nil, err
	}

	rows := make([]int, 0, n)
	for i, st := range strata {
		perm := s.rng.Perm(len(st.Rows))
		for _, p := range perm[:allocs[i].Allocated] {
			rows = append(rows, st.Rows[p])
		}
	}

	s.logger.Debug("stratified random rows drawn",
		zap.Strings("columns", d.Columns),
		zap.Int("strata", len(strata)),
		zap.Int("n", n),
	)
	return &TableSample{
		Design:      &d,
		Population:  population,
		SampleSize:  n,
		Allocations: allocs,
		Sheet:       tabular.Subset(sheet, "Sample", rows),
	}, nil
}
