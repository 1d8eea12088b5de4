package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestNewMemoryStore(t *testing.T) {
	s := NewMemoryStore(0)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Count())
}

func TestPutAndGet(t *testing.T) {
	s := NewMemoryStore(0)
	stores := []model.Store{{ID: "1", ACV: 10}, {ID: "2", ACV: 20}}

	entry := s.Put("universe.csv", stores)
	require.NotEmpty(t, entry.ID)

	got, err := s.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "universe.csv", got.Filename)
	assert.Equal(t, stores, got.Stores)

	stores[0].ACV = 99
	assert.Equal(t, 10.0, got.Stores[0].ACV, "cached stores must not alias the caller's slice")
}

func TestPutTable(t *testing.T) {
	s := NewMemoryStore(0)
	sheet := table.NewSheet("Panel", "HH_ID", "Region")
	sheet.Append("1", "North")

	entry := s.PutTable("panel.csv", sheet)
	got, err := s.Get(entry.ID)
	require.NoError(t, err)
	assert.Same(t, sheet, got.Table)
	assert.Nil(t, got.Stores)
	assert.False(t, got.UploadedAt.IsZero())
}

func TestGetNotFound(t *testing.T) {
	s := NewMemoryStore(0)
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrUniverseNotFound)
}

func TestDelete(t *testing.T) {
	s := NewMemoryStore(0)
	entry := s.Put("a.csv", nil)
	s.Delete(entry.ID)

	_, err := s.Get(entry.ID)
	assert.ErrorIs(t, err, ErrUniverseNotFound)
	assert.Equal(t, 0, s.Count())
}

func TestEvictsOldestWhenFull(t *testing.T) {
	s := NewMemoryStore(2)
	now, advance := fakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.now = now

	first := s.Put("first.csv", nil)
	advance(time.Minute)
	second := s.Put("second.csv", nil)
	advance(time.Minute)
	third := s.Put("third.csv", nil)

	assert.Equal(t, 2, s.Count())
	_, err := s.Get(first.ID)
	assert.ErrorIs(t, err, ErrUniverseNotFound)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, third.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(0)
	var wg sync.WaitGroup
	ids := make(chan string, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.Put("u.csv", []model.Store{{ID: "1"}}).ID
		}()
	}
	wg.Wait()
	close(ids)

	for id := range ids {
		_, err := s.Get(id)
		assert.NoError(t, err)
	}
	assert.Equal(t, 50, s.Count())
}

func TestExportStoreTTL(t *testing.T) {
	s := NewExportStore(10 * time.Minute)
	now, advance := fakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.now = now

	sheet := table.NewSheet("Sample", "SHO_ID")
	token := s.Put("design", []*table.Sheet{sheet})

	exp, ok := s.Get(token)
	require.True(t, ok)
	assert.Equal(t, "design", exp.Name)

	advance(11 * time.Minute)
	_, ok = s.Get(token)
	assert.False(t, ok, "token should expire after ttl")
}

func TestExportSheetLookup(t *testing.T) {
	exp := Export{Sheets: []*table.Sheet{
		table.NewSheet("City Targets"),
		table.NewSheet("Sample"),
	}}

	first, ok := exp.Sheet("")
	require.True(t, ok)
	assert.Equal(t, "City Targets", first.Name)

	sample, ok := exp.Sheet("Sample")
	require.True(t, ok)
	assert.Equal(t, "Sample", sample.Name)

	_, ok = exp.Sheet("Nope")
	assert.False(t, ok)

	_, ok = Export{}.Sheet("")
	assert.False(t, ok)
}
