package storage

import (
	"context"

	"bitasset-ledger/internal/domain"
)

// AssetStore provides access to the asset population. Every mutation keeps
// the four derived indices (by id, by symbol, by issuer, by
// (market-issued, id)) consistent atomically with the object change.
type AssetStore interface {
	// Insert adds a new asset. Returns ErrDuplicateKey if the id exists and
	// ErrDuplicateSymbol if another asset already holds the symbol.
	Insert(ctx context.Context, a *domain.Asset) error

	// Update replaces an existing asset, re-keying affected indices. Returns
	// ErrNotFound if the id is unknown and ErrDuplicateSymbol if the new
	// symbol collides with another asset.
	Update(ctx context.Context, a *domain.Asset) error

	// Remove deletes an asset and its index entries. Returns ErrNotFound if
	// the id is unknown.
	Remove(ctx context.Context, id domain.AssetID) error

	// GetByID retrieves an asset by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id domain.AssetID) (*domain.Asset, error)

	// GetBySymbol retrieves an asset by its unique symbol.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error)

	// ListByIssuer retrieves all assets issued by an account, ordered by id ASC.
	ListByIssuer(ctx context.Context, issuer domain.AccountID) ([]*domain.Asset, error)

	// ListMarketIssued retrieves all market-issued assets ordered by id ASC,
	// without scanning the non-market-issued population.
	ListMarketIssued(ctx context.Context) ([]*domain.Asset, error)

	// ListAll retrieves every asset ordered by id ASC.
	ListAll(ctx context.Context) ([]*domain.Asset, error)
}

// BitassetStore provides access to the bitasset-data population, indexed by
// feed expiration time so the maintenance scheduler can find potentially
// stale feeds without a full scan.
type BitassetStore interface {
	// Insert adds new bitasset data. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, b *domain.AssetBitassetData) error

	// Update replaces existing bitasset data, re-keying the feed-expiration
	// index. Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, b *domain.AssetBitassetData) error

	// GetByID retrieves bitasset data by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id domain.BitassetDataID) (*domain.AssetBitassetData, error)

	// ListFeedExpiredBefore retrieves bitassets whose current feed is expired
	// strictly before now, ordered by expiration time ASC.
	ListFeedExpiredBefore(ctx context.Context, now int64) ([]*domain.AssetBitassetData, error)

	// ListAll retrieves every bitasset ordered by id ASC.
	ListAll(ctx context.Context) ([]*domain.AssetBitassetData, error)
}

// DynamicDataStore provides access to per-asset supply counters.
type DynamicDataStore interface {
	// Insert adds new dynamic data. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, d *domain.AssetDynamicData) error

	// Update replaces existing dynamic data. Returns ErrNotFound if unknown.
	Update(ctx context.Context, d *domain.AssetDynamicData) error

	// GetByID retrieves dynamic data by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id domain.DynamicDataID) (*domain.AssetDynamicData, error)
}

// DividendStore provides access to dividend scheduling state.
type DividendStore interface {
	// Insert adds new dividend data. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, d *domain.AssetDividendData) error

	// Update replaces existing dividend data. Returns ErrNotFound if unknown.
	Update(ctx context.Context, d *domain.AssetDividendData) error

	// GetByID retrieves dividend data by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id domain.DividendDataID) (*domain.AssetDividendData, error)

	// ListAll retrieves every dividend record ordered by id ASC.
	ListAll(ctx context.Context) ([]*domain.AssetDividendData, error)
}

// DividendBalanceStore tracks distribution-account balance snapshots keyed
// by (holder asset, payout asset).
type DividendBalanceStore interface {
	// Upsert inserts or replaces the snapshot for its (holder, payout) pair.
	Upsert(ctx context.Context, s *domain.DividendBalanceSnapshot) error

	// Get retrieves the snapshot for a pair. Returns ErrNotFound if not exists.
	Get(ctx context.Context, holder, payout domain.AssetID) (*domain.DividendBalanceSnapshot, error)

	// ListByHolder retrieves all snapshots for a holder asset, ordered by
	// payout asset id ASC.
	ListByHolder(ctx context.Context, holder domain.AssetID) ([]*domain.DividendBalanceSnapshot, error)

	// ListAll retrieves every snapshot ordered by (holder, payout) ASC.
	ListAll(ctx context.Context) ([]*domain.DividendBalanceSnapshot, error)
}

// FeedHistoryStore archives feed publications for offline analysis. The
// live feed table on each bitasset stays the canonical state; this archive
// is append-only history.
type FeedHistoryStore interface {
	// InsertBulk appends publication records.
	InsertBulk(ctx context.Context, pubs []*domain.FeedPublication) error

	// GetByAsset retrieves publications for an asset within [start, end]
	// unix seconds inclusive, ordered by publication time ASC.
	GetByAsset(ctx context.Context, asset domain.AssetID, start, end int64) ([]*domain.FeedPublication, error)
}
