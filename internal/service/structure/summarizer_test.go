package structure

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/model/modeltest"
)

type weights struct {
	Keys                           []string
	ACV                            float64
	Count                          int
	ACVWeight, ACVCum              float64
	StoresWeight, StoresCumulative float64
}

func flatten(rows []model.StratumRow) []weights {
	out := make([]weights, 0, len(rows))
	for _, r := range rows {
		out = append(out, weights{r.Keys, r.ACV, r.StoreCount, r.ACVWeight, r.ACVCumulative, r.StoresWeight, r.StoresCumulative})
	}
	return out
}

func TestSummarizeCity(t *testing.T) {
	rows, err := NewSummarizer(nil).Summarize(modeltest.ThreeCities(), model.GroupingCity)
	require.NoError(t, err)

	want := []weights{
		{[]string{"100", "City One"}, 1000, 10, 71.43, 71.43, 66.67, 66.67},
		{[]string{"200", "City Two"}, 300, 3, 21.43, 92.86, 20, 86.67},
		{[]string{"300", "City Three"}, 100, 2, 7.14, 100, 13.33, 100},
	}
	if diff := cmp.Diff(want, flatten(rows)); diff != "" {
		t.Errorf("city summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeRetailer(t *testing.T) {
	rows, err := NewSummarizer(nil).Summarize(modeltest.ThreeCities(), model.GroupingRetailer)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Player 1", "11", "Chain A"}, rows[0].Keys)
	assert.Equal(t, 800.0, rows[0].ACV)
	assert.Equal(t, 57.14, rows[0].ACVWeight)
	assert.Equal(t, []string{"2", "Player 2", "2", "Chain B"}, rows[1].Keys)
	assert.Equal(t, 92.86, rows[1].ACVCumulative)
	assert.Equal(t, "Chain C", rows[2].Key(model.ColSubplayer))
}

func TestSummarizeDetailedTiesKeepKeyOrder(t *testing.T) {
	rows, err := NewSummarizer(nil).Summarize(modeltest.ThreeCities(), model.GroupingDetailed)
	require.NoError(t, err)

	require.Len(t, rows, 5)
	got := make([][2]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, [2]string{r.Key(model.ColCityID), r.Key(model.ColSubplayerID)})
	}
	want := [][2]string{{"100", "11"}, {"100", "2"}, {"200", "11"}, {"200", "12"}, {"300", "2"}}
	assert.Equal(t, want, got)
	assert.Equal(t, rows[3].ACVWeight, rows[4].ACVWeight)
}

func TestSummaryInvariants(t *testing.T) {
	stores := modeltest.ThreeCities()
	universe := model.UniverseOf(stores)
	s := NewSummarizer(nil)

	for _, g := range model.Groupings {
		t.Run(string(g), func(t *testing.T) {
			rows, err := s.Summarize(stores, g)
			require.NoError(t, err)
			require.NotEmpty(t, rows)

			acv, count := 0.0, 0
			for i, r := range rows {
				acv += r.ACV
				count += r.StoreCount
				if i > 0 {
					assert.GreaterOrEqual(t, rows[i-1].ACVWeight, r.ACVWeight, "weights must not increase")
					assert.GreaterOrEqual(t, r.ACVCumulative, rows[i-1].ACVCumulative)
					assert.GreaterOrEqual(t, r.StoresCumulative, rows[i-1].StoresCumulative)
				}
			}
			assert.InDelta(t, universe.ACV, acv, 1e-9)
			assert.Equal(t, universe.Stores, count)

			last := rows[len(rows)-1]
			assert.Equal(t, 100.0, last.ACVCumulative)
			assert.Equal(t, 100.0, last.StoresCumulative)
		})
	}
}

func TestSummarizeIsIdempotentAndPure(t *testing.T) {
	stores := modeltest.ThreeCities()
	before := model.CloneStores(stores)
	s := NewSummarizer(nil)

	first, err := s.Universe(stores)
	require.NoError(t, err)
	second, err := s.Universe(stores)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated summaries differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, before, stores, "input stores must not be modified")
}

func TestUniverseViews(t *testing.T) {
	result, err := NewSummarizer(nil).Universe(modeltest.ThreeCities())
	require.NoError(t, err)

	assert.Equal(t, model.Universe{ACV: 1400, Stores: 15}, result.Universe)
	assert.Len(t, result.Retailer, 3)
	assert.Len(t, result.State, 2)
	assert.Len(t, result.City, 3)
	assert.Len(t, result.Detailed, 5)
	assert.Equal(t, result.City, result.View(model.GroupingCity))
	assert.Equal(t, 92.86, result.State[0].ACVWeight)
}

func TestZeroACVUniverse(t *testing.T) {
	stores := (&modeltest.Builder{}).Add(modeltest.CityOne, modeltest.ChainA, 0, 0).Stores()
	rows, err := NewSummarizer(nil).Summarize(stores, model.GroupingCity)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].ACVWeight)
	assert.Equal(t, 100.0, rows[0].StoresWeight)
}

func TestSummarizeErrors(t *testing.T) {
	s := NewSummarizer(nil)

	_, err := s.Summarize(nil, model.GroupingCity)
	assert.ErrorIs(t, err, model.ErrEmptyUniverse)

	_, err = s.Summarize(modeltest.SingleCity(), model.Grouping("country"))
	var paramErr *model.ParameterError
	assert.True(t, errors.As(err, &paramErr))

	stores := modeltest.SingleCity()
	stores[3].ACV = math.NaN()
	_, err = s.Universe(stores)
	var typeErr *model.DataTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, 4, typeErr.Row)
}
