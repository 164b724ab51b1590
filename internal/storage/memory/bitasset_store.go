package memory

import (
	"context"
	"sort"
	"sync"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

// expirationKey orders bitassets by (feed expiration time, id).
type expirationKey struct {
	expiresAt int64
	id        domain.BitassetDataID
}

func (k expirationKey) less(o expirationKey) bool {
	if k.expiresAt != o.expiresAt {
		return k.expiresAt < o.expiresAt
	}
	return k.id < o.id
}

// BitassetStore is an in-memory implementation of storage.BitassetStore.
// The feed-expiration index is re-keyed under the same lock as every object
// mutation, since publishing a feed or recomputing the median moves the
// object's expiration time.
type BitassetStore struct {
	mu           sync.RWMutex
	byID         map[domain.BitassetDataID]*domain.AssetBitassetData
	byExpiration []expirationKey // sorted
}

// NewBitassetStore creates an empty in-memory bitasset store.
func NewBitassetStore() *BitassetStore {
	return &BitassetStore{
		byID: make(map[domain.BitassetDataID]*domain.AssetBitassetData),
	}
}

// Insert adds new bitasset data. Returns ErrDuplicateKey if the id exists.
func (s *BitassetStore) Insert(_ context.Context, b *domain.AssetBitassetData) error {
	if b == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[b.ID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := cloneBitasset(b)
	s.byID[b.ID] = cp
	s.expirationInsert(expirationKey{expiresAt: cp.FeedExpirationTime(), id: b.ID})
	return nil
}

// Update replaces existing bitasset data, re-keying the expiration index if
// the feed publication time or lifetime changed.
func (s *BitassetStore) Update(_ context.Context, b *domain.AssetBitassetData) error {
	if b == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.byID[b.ID]
	if !exists {
		return storage.ErrNotFound
	}

	oldKey := expirationKey{expiresAt: old.FeedExpirationTime(), id: b.ID}
	newKey := expirationKey{expiresAt: b.FeedExpirationTime(), id: b.ID}
	if oldKey != newKey {
		s.expirationRemove(oldKey)
		s.expirationInsert(newKey)
	}

	s.byID[b.ID] = cloneBitasset(b)
	return nil
}

// GetByID retrieves bitasset data by id. Returns ErrNotFound if not exists.
func (s *BitassetStore) GetByID(_ context.Context, id domain.BitassetDataID) (*domain.AssetBitassetData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneBitasset(b), nil
}

// ListFeedExpiredBefore retrieves bitassets whose current feed is expired
// strictly before now, ordered by expiration time ASC. Only the stale
// prefix of the index is walked.
func (s *BitassetStore) ListFeedExpiredBefore(_ context.Context, now int64) ([]*domain.AssetBitassetData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AssetBitassetData
	for _, k := range s.byExpiration {
		if k.expiresAt >= now {
			break
		}
		result = append(result, cloneBitasset(s.byID[k.id]))
	}
	return result, nil
}

// ListAll retrieves every bitasset ordered by id ASC.
func (s *BitassetStore) ListAll(_ context.Context) ([]*domain.AssetBitassetData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.BitassetDataID, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*domain.AssetBitassetData, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneBitasset(s.byID[id]))
	}
	return result, nil
}

func (s *BitassetStore) expirationInsert(k expirationKey) {
	i := sort.Search(len(s.byExpiration), func(i int) bool { return k.less(s.byExpiration[i]) })
	s.byExpiration = append(s.byExpiration, expirationKey{})
	copy(s.byExpiration[i+1:], s.byExpiration[i:])
	s.byExpiration[i] = k
}

func (s *BitassetStore) expirationRemove(k expirationKey) {
	i := sort.Search(len(s.byExpiration), func(i int) bool { return !s.byExpiration[i].less(k) })
	if i < len(s.byExpiration) && s.byExpiration[i] == k {
		s.byExpiration = append(s.byExpiration[:i], s.byExpiration[i+1:]...)
	}
}

// cloneBitasset deep-copies the feed table so callers cannot mutate stored
// state through a returned object.
func cloneBitasset(b *domain.AssetBitassetData) *domain.AssetBitassetData {
	cp := *b
	if b.Feeds != nil {
		cp.Feeds = make(map[domain.AccountID]domain.FeedEntry, len(b.Feeds))
		for publisher, e := range b.Feeds {
			cp.Feeds[publisher] = e
		}
	}
	return &cp
}

// Verify interface compliance at compile time.
var _ storage.BitassetStore = (*BitassetStore)(nil)
