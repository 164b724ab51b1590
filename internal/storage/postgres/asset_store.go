package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

// Unique constraint names from the assets migration.
const (
	assetsPkeyConstraint   = "assets_pkey"
	assetsSymbolConstraint = "assets_symbol_key"
)

// AssetStore implements storage.AssetStore using PostgreSQL. The symbol,
// issuer and market-issued indices are real database indexes, so every
// mutation keeps them consistent within the statement's transaction.
type AssetStore struct {
	pool *Pool
}

// NewAssetStore creates a new AssetStore.
func NewAssetStore(pool *Pool) *AssetStore {
	return &AssetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssetStore = (*AssetStore)(nil)

const assetColumns = `
	id, symbol, precision, issuer, flags, issuer_permissions,
	max_supply, market_fee_percent,
	cer_base_amount, cer_base_asset, cer_quote_amount, cer_quote_asset,
	dynamic_data_id, bitasset_data_id, buyback_account, dividend_data_id
`

// Insert adds a new asset. Returns ErrDuplicateKey if the id exists and
// ErrDuplicateSymbol if another asset already holds the symbol.
func (s *AssetStore) Insert(ctx context.Context, a *domain.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.pool.Exec(ctx, query, assetArgs(a)...)
	if err != nil {
		switch uniqueViolationConstraint(err) {
		case assetsPkeyConstraint:
			return storage.ErrDuplicateKey
		case assetsSymbolConstraint:
			return storage.ErrDuplicateSymbol
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// Update replaces an existing asset. Returns ErrNotFound if the id is
// unknown and ErrDuplicateSymbol on a symbol collision.
func (s *AssetStore) Update(ctx context.Context, a *domain.Asset) error {
	query := `
		UPDATE assets SET
			symbol = $2, precision = $3, issuer = $4, flags = $5,
			issuer_permissions = $6, max_supply = $7, market_fee_percent = $8,
			cer_base_amount = $9, cer_base_asset = $10,
			cer_quote_amount = $11, cer_quote_asset = $12,
			dynamic_data_id = $13, bitasset_data_id = $14,
			buyback_account = $15, dividend_data_id = $16
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, assetArgs(a)...)
	if err != nil {
		if uniqueViolationConstraint(err) == assetsSymbolConstraint {
			return storage.ErrDuplicateSymbol
		}
		return fmt.Errorf("update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Remove deletes an asset. Returns ErrNotFound if the id is unknown.
func (s *AssetStore) Remove(ctx context.Context, id domain.AssetID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assets WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("remove asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves an asset by id. Returns ErrNotFound if not exists.
func (s *AssetStore) GetByID(ctx context.Context, id domain.AssetID) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	a, err := scanAsset(s.pool.QueryRow(ctx, query, int64(id)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset by id: %w", err)
	}
	return a, nil
}

// GetBySymbol retrieves an asset by its unique symbol.
func (s *AssetStore) GetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE symbol = $1`

	a, err := scanAsset(s.pool.QueryRow(ctx, query, symbol))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset by symbol: %w", err)
	}
	return a, nil
}

// ListByIssuer retrieves all assets issued by an account, ordered by id ASC.
func (s *AssetStore) ListByIssuer(ctx context.Context, issuer domain.AccountID) ([]*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE issuer = $1 ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, int64(issuer))
	if err != nil {
		return nil, fmt.Errorf("list assets by issuer: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

// ListMarketIssued retrieves all market-issued assets ordered by id ASC.
// The partial index on bitasset_data_id keeps this a contiguous scan.
func (s *AssetStore) ListMarketIssued(ctx context.Context) ([]*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE bitasset_data_id IS NOT NULL ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list market-issued assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

// ListAll retrieves every asset ordered by id ASC.
func (s *AssetStore) ListAll(ctx context.Context) ([]*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

func assetArgs(a *domain.Asset) []any {
	var bitassetID, buyback, dividendID *int64
	if a.BitassetDataID != nil {
		v := int64(*a.BitassetDataID)
		bitassetID = &v
	}
	if a.BuybackAccount != nil {
		v := int64(*a.BuybackAccount)
		buyback = &v
	}
	if a.DividendDataID != nil {
		v := int64(*a.DividendDataID)
		dividendID = &v
	}

	cer := a.Options.CoreExchangeRate
	return []any{
		int64(a.ID),
		a.Symbol,
		int16(a.Precision),
		int64(a.Issuer),
		int32(a.Options.Flags),
		int32(a.Options.IssuerPermissions),
		a.Options.MaxSupply,
		int32(a.Options.MarketFeePercent),
		cer.Base.Amount, int64(cer.Base.AssetID),
		cer.Quote.Amount, int64(cer.Quote.AssetID),
		int64(a.DynamicDataID),
		bitassetID,
		buyback,
		dividendID,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var (
		a          domain.Asset
		id, issuer int64
		precision  int16
		flags      int32
		perms      int32
		feePct     int32
		cerBase    int64
		cerBaseID  int64
		cerQuote   int64
		cerQuoteID int64
		dynamicID  int64
		bitassetID *int64
		buyback    *int64
		dividendID *int64
	)

	err := row.Scan(
		&id, &a.Symbol, &precision, &issuer, &flags, &perms,
		&a.Options.MaxSupply, &feePct,
		&cerBase, &cerBaseID, &cerQuote, &cerQuoteID,
		&dynamicID, &bitassetID, &buyback, &dividendID,
	)
	if err != nil {
		return nil, err
	}

	a.ID = domain.AssetID(id)
	a.Precision = uint8(precision)
	a.Issuer = domain.AccountID(issuer)
	a.Options.Flags = domain.AssetFlags(flags)
	a.Options.IssuerPermissions = domain.AssetFlags(perms)
	a.Options.MarketFeePercent = uint16(feePct)
	a.Options.CoreExchangeRate = domain.Price{
		Base:  domain.AssetAmount{Amount: cerBase, AssetID: domain.AssetID(cerBaseID)},
		Quote: domain.AssetAmount{Amount: cerQuote, AssetID: domain.AssetID(cerQuoteID)},
	}
	a.DynamicDataID = domain.DynamicDataID(dynamicID)
	if bitassetID != nil {
		v := domain.BitassetDataID(*bitassetID)
		a.BitassetDataID = &v
	}
	if buyback != nil {
		v := domain.AccountID(*buyback)
		a.BuybackAccount = &v
	}
	if dividendID != nil {
		v := domain.DividendDataID(*dividendID)
		a.DividendDataID = &v
	}
	return &a, nil
}

func scanAssets(rows pgx.Rows) ([]*domain.Asset, error) {
	var result []*domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return result, nil
}
