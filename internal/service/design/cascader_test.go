package design

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/model/modeltest"
)

type chainTargets struct {
	City, Subplayer string
	Stores, ACV     float64
}

func flattenChains(chains []model.ChainTarget) []chainTargets {
	out := make([]chainTargets, 0, len(chains))
	for _, c := range chains {
		out = append(out, chainTargets{c.CityID, c.SubplayerID, c.TargetStores, c.TargetACV})
	}
	return out
}

func principalCities(t *testing.T, stores []model.Store, coverage float64) []model.StratumRow {
	t.Helper()
	red, err := NewReducer(nil).SelectPrincipalCities(citySummary(t, stores), model.MetricACV, coverage)
	require.NoError(t, err)
	return red.Cities
}

func TestCascadeSingleCity(t *testing.T) {
	stores := modeltest.ThreeCities()
	cities := principalCities(t, stores, 0.7)

	cascade, err := NewCascader(nil, nil).Cascade(stores, cities, 0.5, 0.5, model.PreserveCities)
	require.NoError(t, err)

	assert.Equal(t, model.AggregateTarget{Stores: 10, ACV: 1000, TargetStores: 5, TargetACV: 500}, cascade.Aggregate)
	require.Len(t, cascade.Cities, 1)
	assert.Equal(t, 5.0, cascade.Cities[0].TargetStores)
	assert.Equal(t, 500.0, cascade.Cities[0].TargetACV)

	want := []chainTargets{
		{"100", "11", 3, 300},
		{"100", "2", 2, 200},
	}
	if diff := cmp.Diff(want, flattenChains(cascade.Chains)); diff != "" {
		t.Errorf("chain targets mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, cascade.TotalTargetStores())
	assert.Equal(t, "Chain A", cascade.Chains[0].Subplayer)
	assert.Equal(t, "State One", cascade.Chains[0].State)
}

func TestCascadeCitiesMode(t *testing.T) {
	stores := modeltest.ThreeCities()
	cities := principalCities(t, stores, 0.9)

	cascade, err := NewCascader(nil, nil).Cascade(stores, cities, 0.5, 0.5, model.PreserveCities)
	require.NoError(t, err)

	require.Len(t, cascade.Cities, 2)
	assert.Equal(t, 2.0, cascade.Cities[1].TargetStores, "1.5 rounds half to even")
	assert.Equal(t, 150.0, cascade.Cities[1].TargetACV)

	want := []chainTargets{
		{"100", "11", 3, 300},
		{"100", "2", 2, 200},
		{"200", "11", 1, 100},
		{"200", "12", 1, 50},
	}
	if diff := cmp.Diff(want, flattenChains(cascade.Chains)); diff != "" {
		t.Errorf("chain targets mismatch (-want +got):\n%s", diff)
	}
}

func TestCascadeUniverseMode(t *testing.T) {
	stores := modeltest.ThreeCities()
	cities := principalCities(t, stores, 0.9)

	cascade, err := NewCascader(nil, nil).Cascade(stores, cities, 0.5, 0.5, model.PreserveUniverse)
	require.NoError(t, err)

	assert.Equal(t, model.AggregateTarget{Stores: 13, ACV: 1300, TargetStores: 6, TargetACV: 650}, cascade.Aggregate)

	require.Len(t, cascade.Cities, 2)
	assert.Equal(t, 76.92, cascade.Cities[0].StoresWeight, "weights come from the reduced universe")
	assert.Equal(t, 5.0, cascade.Cities[0].TargetStores)
	assert.Equal(t, 500.0, cascade.Cities[0].TargetACV)
	assert.Equal(t, 1.0, cascade.Cities[1].TargetStores)
	assert.Equal(t, 150.0, cascade.Cities[1].TargetACV)

	want := []chainTargets{
		{"100", "11", 3, 300},
		{"100", "2", 2, 200},
		{"200", "11", 1, 100},
		{"200", "12", 0, 50},
	}
	if diff := cmp.Diff(want, flattenChains(cascade.Chains)); diff != "" {
		t.Errorf("chain targets mismatch (-want +got):\n%s", diff)
	}
}

func TestCascadeIgnoresStoresOutsideCities(t *testing.T) {
	stores := modeltest.ThreeCities()
	cities := principalCities(t, stores, 0.7)

	cascade, err := NewCascader(nil, nil).Cascade(stores, cities, 1, 1, model.PreserveCities)
	require.NoError(t, err)
	for _, c := range cascade.Chains {
		assert.Equal(t, "100", c.CityID)
	}
	assert.Equal(t, 10, cascade.TotalTargetStores())
}

func TestCascadeInvalid(t *testing.T) {
	stores := modeltest.ThreeCities()
	cities := principalCities(t, stores, 0.7)
	c := NewCascader(nil, nil)
	var paramErr *model.ParameterError

	_, err := c.Cascade(stores, cities, 0.5, 0.5, model.Preservation("country"))
	assert.True(t, errors.As(err, &paramErr))

	_, err = c.Cascade(stores, cities, 1.5, 0.5, model.PreserveCities)
	require.True(t, errors.As(err, &paramErr))
	assert.Equal(t, "targetAcv", paramErr.Name)

	_, err = c.Cascade(stores, cities, 0.5, -0.1, model.PreserveCities)
	require.True(t, errors.As(err, &paramErr))
	assert.Equal(t, "targetStores", paramErr.Name)

	_, err = c.Cascade(stores, nil, 0.5, 0.5, model.PreserveCities)
	assert.ErrorIs(t, err, model.ErrEmptyUniverse)
}

func TestRestrictToCities(t *testing.T) {
	stores := modeltest.ThreeCities()
	got := RestrictToCities(stores, []string{"300", "200"})
	assert.Equal(t, []string{"11", "12", "13", "14", "15"}, modeltest.IDs(got))
	assert.Len(t, stores, 15)
}
