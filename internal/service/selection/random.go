package selection

import (
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Sampler draws random store samples from an injected random source
type Sampler struct {
	rng       *rand.Rand
	allocator *samplesize.Allocator
	logger    *zap.Logger
}

// NewSampler creates a sampler. Seeding rng makes every draw reproducible.
func NewSampler(rng *rand.Rand, logger *zap.Logger) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{
		rng:       rng,
		allocator: samplesize.NewAllocator(rng, logger),
		logger:    logger,
	}
}

// StratifiedSample result of a stratified draw
type StratifiedSample struct {
	Grouping    model.Grouping          `json:"grouping"`
	SampleSize  int                     `json:"sampleSize"`
	Allocations []samplesize.Allocation `json:"allocations"`
	Stores      []model.Store           `json:"stores"`
}

// Simple draws n stores uniformly without replacement, in draw order.
func (s *Sampler) Simple(stores []model.Store, n int) ([]model.Store, error) {
	if n < 0 || n > len(stores) {
		return nil, &model.ParameterError{Name: "sampleSize", Value: n, Accepted: "an integer between 0 and the population size"}
	}
	perm := s.rng.Perm(len(stores))
	out := make([]model.Store, 0, n)
	for _, i := range perm[:n] {
		out = append(out, stores[i])
	}
	s.logger.Debug("simple random sample drawn", zap.Int("population", len(stores)), zap.Int("n", n))
	return out, nil
}

// SimpleRequired draws the sample size required for the universe by params.
func (s *Sampler) SimpleRequired(stores []model.Store, params model.SamplingParams) ([]model.Store, error) {
	n, err := samplesize.RequiredSampleSize(len(stores), params)
	if err != nil {
		return nil, err
	}
	return s.Simple(stores, n)
}

// Stratified allocates n across the strata of grouping with drift
// correction and draws each stratum's allocation uniformly without replacement.
func (s *Sampler) Stratified(stores []model.Store, g model.Grouping, n int) (*StratifiedSample, error) {
	g, err := model.ParseGrouping(string(g))
	if err != nil {
		return nil, err
	}
	cols := g.Columns()
	groups := table.GroupBy(stores,
		func(st model.Store) []string {
			parts := make([]string, len(cols))
			for i, c := range cols {
				parts[i] = st.Field(c)
			}
			return parts
		},
		nil,
	)

	strata := make([]samplesize.Stratum, 0, len(groups))
	for _, grp := range groups {
		strata = append(strata, samplesize.Stratum{Key: strings.Join(grp.Parts, " | "), Population: grp.Count})
	}
	allocs, err := s.allocator.Allocate(strata, n)
	if err != nil {
		return nil, err
	}

	out := make([]model.Store, 0, n)
	for i, grp := range groups {
		members := grp.Rows
		perm := s.rng.Perm(len(members))
		for _, p := range perm[:allocs[i].Allocated] {
			out = append(out, stores[members[p]])
		}
	}

	s.logger.Debug("stratified random sample drawn",
		zap.String("grouping", string(g)),
		zap.Int("strata", len(strata)),
		zap.Int("n", n),
	)
	return &StratifiedSample{Grouping: g, SampleSize: n, Allocations: allocs, Stores: out}, nil
}

// StratifiedRequired draws a stratified sample of the size required for the
// universe by params.
func (s *Sampler) StratifiedRequired(stores []model.Store, g model.Grouping, params model.SamplingParams) (*StratifiedSample, error) {
	n, err := samplesize.RequiredSampleSize(len(stores), params)
	if err != nil {
		return nil, err
	}
	return s.Stratified(stores, g, n)
}
