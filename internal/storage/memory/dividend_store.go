package memory

import (
	"context"
	"sort"
	"sync"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

// DividendStore is an in-memory implementation of storage.DividendStore.
type DividendStore struct {
	mu   sync.RWMutex
	data map[domain.DividendDataID]*domain.AssetDividendData
}

// NewDividendStore creates an empty in-memory dividend store.
func NewDividendStore() *DividendStore {
	return &DividendStore{
		data: make(map[domain.DividendDataID]*domain.AssetDividendData),
	}
}

// Insert adds new dividend data. Returns ErrDuplicateKey if the id exists.
func (s *DividendStore) Insert(_ context.Context, d *domain.AssetDividendData) error {
	if d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[d.ID] = cloneDividend(d)
	return nil
}

// Update replaces existing dividend data. Returns ErrNotFound if unknown.
func (s *DividendStore) Update(_ context.Context, d *domain.AssetDividendData) error {
	if d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; !exists {
		return storage.ErrNotFound
	}
	s.data[d.ID] = cloneDividend(d)
	return nil
}

// GetByID retrieves dividend data by id. Returns ErrNotFound if not exists.
func (s *DividendStore) GetByID(_ context.Context, id domain.DividendDataID) (*domain.AssetDividendData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneDividend(d), nil
}

// ListAll retrieves every dividend record ordered by id ASC.
func (s *DividendStore) ListAll(_ context.Context) ([]*domain.AssetDividendData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.DividendDataID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*domain.AssetDividendData, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneDividend(s.data[id]))
	}
	return result, nil
}

// cloneDividend copies the record including its optional timestamps, so a
// caller clearing a pointer field cannot reach stored state.
func cloneDividend(d *domain.AssetDividendData) *domain.AssetDividendData {
	cp := *d
	cp.LastScheduledPayoutTime = cloneInt64(d.LastScheduledPayoutTime)
	cp.LastPayoutTime = cloneInt64(d.LastPayoutTime)
	cp.LastScheduledDistributionTime = cloneInt64(d.LastScheduledDistributionTime)
	cp.LastDistributionTime = cloneInt64(d.LastDistributionTime)
	cp.Options.NextPayoutTime = cloneInt64(d.Options.NextPayoutTime)
	cp.Options.PayoutIntervalSec = cloneUint32(d.Options.PayoutIntervalSec)
	cp.Options.MinimumDistributionIntervalSec = cloneUint32(d.Options.MinimumDistributionIntervalSec)
	return &cp
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func cloneUint32(v *uint32) *uint32 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// Verify interface compliance at compile time.
var _ storage.DividendStore = (*DividendStore)(nil)
