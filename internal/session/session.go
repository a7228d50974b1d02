// Package session keeps the most recent batch results so they can be
// re-rendered or downloaded without querying the API again.
package session

import (
	"context"
	"errors"
	"sync"

	"jobmate/rome-service/internal/model"
)

// Latest addresses whichever batch was saved last.
const Latest = "latest"

// ErrNotFound is returned when no table is stored under the requested id.
var ErrNotFound = errors.New("batch not found")

// Store saves and loads batch tables. Save also makes the table Latest.
type Store interface {
	Save(ctx context.Context, t *model.Table) error
	Load(ctx context.Context, id string) (*model.Table, error)
}

// MemoryStore holds a single slot; each Save overwrites the previous batch.
type MemoryStore struct {
	mu    sync.RWMutex
	table *model.Table
}

// NewMemoryStore returns an empty single-slot store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Save replaces the stored table.
func (s *MemoryStore) Save(_ context.Context, t *model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	return nil
}

// Load returns the stored table if id is its ID or Latest.
func (s *MemoryStore) Load(_ context.Context, id string) (*model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil, ErrNotFound
	}
	if id != Latest && id != s.table.ID {
		return nil, ErrNotFound
	}
	return s.table, nil
}
