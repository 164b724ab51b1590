package memory

import (
	"context"
	"sort"
	"sync"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

// balanceKey identifies a snapshot by (holder asset, payout asset).
type balanceKey struct {
	holder domain.AssetID
	payout domain.AssetID
}

// DividendBalanceStore is an in-memory implementation of
// storage.DividendBalanceStore.
type DividendBalanceStore struct {
	mu   sync.RWMutex
	data map[balanceKey]*domain.DividendBalanceSnapshot
}

// NewDividendBalanceStore creates an empty in-memory snapshot store.
func NewDividendBalanceStore() *DividendBalanceStore {
	return &DividendBalanceStore{
		data: make(map[balanceKey]*domain.DividendBalanceSnapshot),
	}
}

// Upsert inserts or replaces the snapshot for its (holder, payout) pair.
func (s *DividendBalanceStore) Upsert(_ context.Context, snap *domain.DividendBalanceSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *snap
	s.data[balanceKey{holder: snap.HolderAssetID, payout: snap.PayoutAssetID}] = &cp
	return nil
}

// Get retrieves the snapshot for a pair. Returns ErrNotFound if not exists.
func (s *DividendBalanceStore) Get(_ context.Context, holder, payout domain.AssetID) (*domain.DividendBalanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[balanceKey{holder: holder, payout: payout}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

// ListByHolder retrieves all snapshots for a holder asset, ordered by
// payout asset id ASC.
func (s *DividendBalanceStore) ListByHolder(_ context.Context, holder domain.AssetID) ([]*domain.DividendBalanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DividendBalanceSnapshot
	for k, snap := range s.data {
		if k.holder == holder {
			cp := *snap
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PayoutAssetID < result[j].PayoutAssetID
	})
	return result, nil
}

// ListAll retrieves every snapshot ordered by (holder, payout) ASC.
func (s *DividendBalanceStore) ListAll(_ context.Context) ([]*domain.DividendBalanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DividendBalanceSnapshot, 0, len(s.data))
	for _, snap := range s.data {
		cp := *snap
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].HolderAssetID != result[j].HolderAssetID {
			return result[i].HolderAssetID < result[j].HolderAssetID
		}
		return result[i].PayoutAssetID < result[j].PayoutAssetID
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.DividendBalanceStore = (*DividendBalanceStore)(nil)
