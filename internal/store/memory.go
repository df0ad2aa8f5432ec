package store

import (
	"context"
	"sort"
	"sync"

	"vcfo/pkg/contracts/domain"
)

// MemoryStore is an in-memory implementation of RecordStore
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]domain.FinancialRecord
}

// NewMemoryStore creates a new in-memory record store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]domain.FinancialRecord),
	}
}

// Replace stores a copy of records for the owner
func (s *MemoryStore) Replace(ctx context.Context, ownerID string, records []domain.FinancialRecord) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := canonical(records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[ownerID] = stored
	return nil
}

// List returns a copy of the owner's records
func (s *MemoryStore) List(ctx context.Context, ownerID string) ([]domain.FinancialRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records, exists := s.records[ownerID]
	if !exists {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external modification
	out := make([]domain.FinancialRecord, len(records))
	copy(out, records)
	return out, nil
}

// Delete removes the owner's records
func (s *MemoryStore) Delete(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[ownerID]; !exists {
		return ErrNotFound
	}
	delete(s.records, ownerID)
	return nil
}

// Owners returns the owners with stored records
func (s *MemoryStore) Owners(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.records))
	for id := range s.records {
		owners = append(owners, id)
	}
	sort.Strings(owners)
	return owners, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
