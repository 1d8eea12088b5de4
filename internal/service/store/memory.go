package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// ErrUniverseNotFound is returned for unknown or evicted upload ids.
var ErrUniverseNotFound = errors.New("universe not found")

// Entry an uploaded universe or raw table
type Entry struct {
	ID         string        `json:"id"`
	Filename   string        `json:"filename"`
	UploadedAt time.Time     `json:"uploadedAt"`
	Stores     []model.Store `json:"-"`
	// Table is set by PutTable instead of Stores.
	Table *table.Sheet `json:"-"`
}

// MemoryStore in-process cache of uploaded universes
type MemoryStore struct {
	universes map[string]*Entry
	limit     int
	now       func() time.Time
	mu        sync.RWMutex
}

// NewMemoryStore creates a cache holding at most limit universes. When full,
// the oldest upload is evicted. A limit of 0 or less means unbounded.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		universes: make(map[string]*Entry),
		limit:     limit,
		now:       time.Now,
	}
}

// Put stores a copy of stores under a new id.
func (s *MemoryStore) Put(filename string, stores []model.Store) *Entry {
	return s.put(&Entry{Filename: filename, Stores: model.CloneStores(stores)})
}

// PutTable stores a sheet as uploaded, without a universe schema.
func (s *MemoryStore) PutTable(filename string, sheet *table.Sheet) *Entry {
	return s.put(&Entry{Filename: filename, Table: sheet})
}

func (s *MemoryStore) put(entry *Entry) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limit > 0 {
		for len(s.universes) >= s.limit {
			s.evictOldestLocked()
		}
	}

	entry.ID = uuid.New().String()
	entry.UploadedAt = s.now()
	s.universes[entry.ID] = entry
	return entry
}

// Get returns an upload. Callers must not modify Stores or Table.
func (s *MemoryStore) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.universes[id]
	if !ok {
		return nil, ErrUniverseNotFound
	}
	return entry, nil
}

// Delete removes an uploaded universe.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.universes, id)
}

// List returns uploads, newest first.
func (s *MemoryStore) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.universes))
	for _, e := range s.universes {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UploadedAt.After(result[j].UploadedAt)
	})
	return result
}

// Count returns the number of cached universes.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.universes)
}

func (s *MemoryStore) evictOldestLocked() {
	var oldest *Entry
	for _, e := range s.universes {
		if oldest == nil || e.UploadedAt.Before(oldest.UploadedAt) {
			oldest = e
		}
	}
	if oldest != nil {
		delete(s.universes, oldest.ID)
	}
}
