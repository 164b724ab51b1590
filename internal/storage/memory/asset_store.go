package memory

import (
	"context"
	"sort"
	"sync"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

// typeKey orders assets by (is-market-issued, id) so the maintenance
// scheduler can walk the market-issued population contiguously.
type typeKey struct {
	marketIssued bool
	id           domain.AssetID
}

func (k typeKey) less(o typeKey) bool {
	if k.marketIssued != o.marketIssued {
		return !k.marketIssued
	}
	return k.id < o.id
}

// AssetStore is an in-memory implementation of storage.AssetStore. The
// arena keyed by id is canonical; the symbol, issuer and type indices are
// derived projections updated under the same lock as the object itself, so
// no reader can observe an index entry disagreeing with the object.
type AssetStore struct {
	mu       sync.RWMutex
	byID     map[domain.AssetID]*domain.Asset
	bySymbol map[string]domain.AssetID
	byIssuer map[domain.AccountID]map[domain.AssetID]struct{}
	byType   []typeKey // sorted
}

// NewAssetStore creates an empty in-memory asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		byID:     make(map[domain.AssetID]*domain.Asset),
		bySymbol: make(map[string]domain.AssetID),
		byIssuer: make(map[domain.AccountID]map[domain.AssetID]struct{}),
	}
}

// Insert adds a new asset and its index entries atomically. All duplicate
// checks run before any state changes so a failed insert mutates nothing.
func (s *AssetStore) Insert(_ context.Context, a *domain.Asset) error {
	if a == nil || a.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[a.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.bySymbol[a.Symbol]; exists {
		return storage.ErrDuplicateSymbol
	}

	cp := cloneAsset(a)
	s.byID[a.ID] = cp
	s.bySymbol[a.Symbol] = a.ID
	s.issuerSet(a.Issuer)[a.ID] = struct{}{}
	s.typeInsert(typeKey{marketIssued: cp.IsMarketIssued(), id: a.ID})
	return nil
}

// Update replaces an existing asset, re-keying the symbol, issuer and type
// indices when the corresponding fields changed. Old-key removal and
// new-key insertion happen as one step under the write lock.
func (s *AssetStore) Update(_ context.Context, a *domain.Asset) error {
	if a == nil || a.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.byID[a.ID]
	if !exists {
		return storage.ErrNotFound
	}
	if holder, taken := s.bySymbol[a.Symbol]; taken && holder != a.ID {
		return storage.ErrDuplicateSymbol
	}

	if old.Symbol != a.Symbol {
		delete(s.bySymbol, old.Symbol)
		s.bySymbol[a.Symbol] = a.ID
	}
	if old.Issuer != a.Issuer {
		delete(s.issuerSet(old.Issuer), a.ID)
		s.issuerSet(a.Issuer)[a.ID] = struct{}{}
	}
	oldKey := typeKey{marketIssued: old.IsMarketIssued(), id: a.ID}
	newKey := typeKey{marketIssued: a.IsMarketIssued(), id: a.ID}
	if oldKey != newKey {
		s.typeRemove(oldKey)
		s.typeInsert(newKey)
	}

	s.byID[a.ID] = cloneAsset(a)
	return nil
}

// Remove deletes an asset and all of its index entries.
func (s *AssetStore) Remove(_ context.Context, id domain.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.byID[id]
	if !exists {
		return storage.ErrNotFound
	}

	delete(s.byID, id)
	delete(s.bySymbol, old.Symbol)
	delete(s.issuerSet(old.Issuer), id)
	s.typeRemove(typeKey{marketIssued: old.IsMarketIssued(), id: id})
	return nil
}

// GetByID retrieves an asset by id. Returns ErrNotFound if not exists.
func (s *AssetStore) GetByID(_ context.Context, id domain.AssetID) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneAsset(a), nil
}

// GetBySymbol retrieves an asset by its unique symbol.
func (s *AssetStore) GetBySymbol(_ context.Context, symbol string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.bySymbol[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneAsset(s.byID[id]), nil
}

// ListByIssuer retrieves all assets issued by an account, ordered by id ASC.
func (s *AssetStore) ListByIssuer(_ context.Context, issuer domain.AccountID) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.AssetID, 0, len(s.byIssuer[issuer]))
	for id := range s.byIssuer[issuer] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*domain.Asset, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneAsset(s.byID[id]))
	}
	return result, nil
}

// ListMarketIssued retrieves all market-issued assets ordered by id ASC.
// The type index keeps them contiguous at the tail of the ordering, so the
// scan touches no non-market-issued entries.
func (s *AssetStore) ListMarketIssued(_ context.Context) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Market-issued entries start at the first true key.
	start := sort.Search(len(s.byType), func(i int) bool { return s.byType[i].marketIssued })

	result := make([]*domain.Asset, 0, len(s.byType)-start)
	for _, k := range s.byType[start:] {
		result = append(result, cloneAsset(s.byID[k.id]))
	}
	return result, nil
}

// ListAll retrieves every asset ordered by id ASC.
func (s *AssetStore) ListAll(_ context.Context) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.AssetID, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*domain.Asset, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneAsset(s.byID[id]))
	}
	return result, nil
}

// cloneAsset copies the record including its optional reference ids, so a
// caller writing through a retained pointer cannot reach stored state.
func cloneAsset(a *domain.Asset) *domain.Asset {
	cp := *a
	if a.BitassetDataID != nil {
		v := *a.BitassetDataID
		cp.BitassetDataID = &v
	}
	if a.BuybackAccount != nil {
		v := *a.BuybackAccount
		cp.BuybackAccount = &v
	}
	if a.DividendDataID != nil {
		v := *a.DividendDataID
		cp.DividendDataID = &v
	}
	return &cp
}

func (s *AssetStore) issuerSet(issuer domain.AccountID) map[domain.AssetID]struct{} {
	set, exists := s.byIssuer[issuer]
	if !exists {
		set = make(map[domain.AssetID]struct{})
		s.byIssuer[issuer] = set
	}
	return set
}

func (s *AssetStore) typeInsert(k typeKey) {
	i := sort.Search(len(s.byType), func(i int) bool { return k.less(s.byType[i]) })
	s.byType = append(s.byType, typeKey{})
	copy(s.byType[i+1:], s.byType[i:])
	s.byType[i] = k
}

func (s *AssetStore) typeRemove(k typeKey) {
	i := sort.Search(len(s.byType), func(i int) bool { return !s.byType[i].less(k) })
	if i < len(s.byType) && s.byType[i] == k {
		s.byType = append(s.byType[:i], s.byType[i+1:]...)
	}
}

// Verify interface compliance at compile time.
var _ storage.AssetStore = (*AssetStore)(nil)
