package selection

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/model/modeltest"
)

func seeded(seed int64) *Sampler {
	return NewSampler(rand.New(rand.NewSource(seed)), nil)
}

func TestSimpleDrawsDistinctStores(t *testing.T) {
	stores := modeltest.ThreeCities()

	picked, err := seeded(3).Simple(stores, 6)
	require.NoError(t, err)
	require.Len(t, picked, 6)

	seen := make(map[string]bool)
	for _, s := range picked {
		assert.False(t, seen[s.ID], "store %s drawn twice", s.ID)
		seen[s.ID] = true
	}
	assert.Subset(t, modeltest.IDs(stores), modeltest.IDs(picked))
}

func TestSimpleIsReproducible(t *testing.T) {
	stores := modeltest.ThreeCities()

	first, err := seeded(11).Simple(stores, 5)
	require.NoError(t, err)
	second, err := seeded(11).Simple(stores, 5)
	require.NoError(t, err)
	assert.Equal(t, modeltest.IDs(first), modeltest.IDs(second))
}

func TestSimpleBounds(t *testing.T) {
	stores := modeltest.SingleCity()
	s := seeded(1)

	all, err := s.Simple(stores, len(stores))
	require.NoError(t, err)
	assert.ElementsMatch(t, modeltest.IDs(stores), modeltest.IDs(all))

	none, err := s.Simple(stores, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	var paramErr *model.ParameterError
	_, err = s.Simple(stores, len(stores)+1)
	assert.True(t, errors.As(err, &paramErr))
}

func TestSimpleRequired(t *testing.T) {
	// 15 stores at 95% confidence and 5% margin need all 15.
	picked, err := seeded(5).SimpleRequired(modeltest.ThreeCities(), model.DefaultSamplingParams())
	require.NoError(t, err)
	assert.Len(t, picked, 15)
}

func TestStratifiedFollowsAllocation(t *testing.T) {
	stores := modeltest.ThreeCities()

	res, err := seeded(9).Stratified(stores, model.GroupingCity, 10)
	require.NoError(t, err)

	require.Len(t, res.Allocations, 3)
	assert.Equal(t, 10, res.SampleSize)
	assert.Len(t, res.Stores, 10)

	perCity := make(map[string]int)
	for _, s := range res.Stores {
		perCity[s.CityID]++
	}
	assert.Equal(t, map[string]int{"100": 7, "200": 2, "300": 1}, perCity)
	assert.Equal(t, "100 | City One", res.Allocations[0].Key)
}

func TestStratifiedRequired(t *testing.T) {
	params := model.SamplingParams{SamplePortion: 0.5, ConfidenceLevel: 90, StandardError: 0.1}

	res, err := seeded(2).StratifiedRequired(modeltest.ThreeCities(), model.GroupingRetailer, params)
	require.NoError(t, err)
	assert.Equal(t, 13, res.SampleSize)
	assert.Len(t, res.Stores, 13)

	total := 0
	for _, a := range res.Allocations {
		assert.LessOrEqual(t, a.Allocated, a.Population)
		total += a.Allocated
	}
	assert.Equal(t, 13, total)
}

func TestStratifiedInvalidGrouping(t *testing.T) {
	_, err := seeded(1).Stratified(modeltest.SingleCity(), model.Grouping("zip"), 3)
	var paramErr *model.ParameterError
	assert.True(t, errors.As(err, &paramErr))
}
