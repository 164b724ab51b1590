package memory

import (
	"context"
	"sync"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

// DynamicDataStore is an in-memory implementation of
// storage.DynamicDataStore.
type DynamicDataStore struct {
	mu   sync.RWMutex
	data map[domain.DynamicDataID]*domain.AssetDynamicData
}

// NewDynamicDataStore creates an empty in-memory dynamic-data store.
func NewDynamicDataStore() *DynamicDataStore {
	return &DynamicDataStore{
		data: make(map[domain.DynamicDataID]*domain.AssetDynamicData),
	}
}

// Insert adds new dynamic data. Returns ErrDuplicateKey if the id exists.
func (s *DynamicDataStore) Insert(_ context.Context, d *domain.AssetDynamicData) error {
	if d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *d
	s.data[d.ID] = &cp
	return nil
}

// Update replaces existing dynamic data. Returns ErrNotFound if unknown.
func (s *DynamicDataStore) Update(_ context.Context, d *domain.AssetDynamicData) error {
	if d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; !exists {
		return storage.ErrNotFound
	}
	cp := *d
	s.data[d.ID] = &cp
	return nil
}

// GetByID retrieves dynamic data by id. Returns ErrNotFound if not exists.
func (s *DynamicDataStore) GetByID(_ context.Context, id domain.DynamicDataID) (*domain.AssetDynamicData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// Verify interface compliance at compile time.
var _ storage.DynamicDataStore = (*DynamicDataStore)(nil)
