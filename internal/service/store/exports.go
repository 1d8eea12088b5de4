package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Export result tables waiting to be downloaded
type Export struct {
	Name      string
	Sheets    []*table.Sheet
	expiresAt time.Time
}

// Sheet returns the named sheet, or the first one when name is empty.
func (e Export) Sheet(name string) (*table.Sheet, bool) {
	if len(e.Sheets) == 0 {
		return nil, false
	}
	if name == "" {
		return e.Sheets[0], true
	}
	for _, s := range e.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// ExportStore hands out short-lived download tokens for exports.
type ExportStore struct {
	mu    sync.Mutex
	items map[string]Export
	ttl   time.Duration
	now   func() time.Time
}

// NewExportStore creates a token store whose tokens live for ttl.
func NewExportStore(ttl time.Duration) *ExportStore {
	return &ExportStore{
		items: make(map[string]Export),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put registers an export and returns its token.
func (s *ExportStore) Put(name string, sheets []*table.Sheet) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token = uuid.New().String()
	s.items[token] = Export{
		Name:      name,
		Sheets:    sheets,
		expiresAt: now.Add(s.ttl),
	}
	return token
}

// Get returns a live export.
func (s *ExportStore) Get(token string) (Export, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	v, ok := s.items[token]
	if !ok {
		return Export{}, false
	}
	return v, true
}

// Delete drops a token.
func (s *ExportStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

func (s *ExportStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}
