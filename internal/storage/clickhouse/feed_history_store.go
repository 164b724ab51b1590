package clickhouse

import (
	"context"
	"fmt"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

// FeedHistoryStore implements storage.FeedHistoryStore using ClickHouse.
// The archive is append-only: the live feed table on each bitasset stays
// canonical, this table exists for history queries and offline analysis.
type FeedHistoryStore struct {
	conn *Conn
}

// NewFeedHistoryStore creates a new FeedHistoryStore.
func NewFeedHistoryStore(conn *Conn) *FeedHistoryStore {
	return &FeedHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeedHistoryStore = (*FeedHistoryStore)(nil)

// InsertBulk appends publication records.
func (s *FeedHistoryStore) InsertBulk(ctx context.Context, pubs []*domain.FeedPublication) error {
	if len(pubs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO feed_history (
			asset_id, publisher, published_at,
			settle_base_amount, settle_base_asset,
			settle_quote_amount, settle_quote_asset,
			maintenance_collateral_ratio, maximum_short_squeeze_ratio,
			cer_base_amount, cer_base_asset,
			cer_quote_amount, cer_quote_asset
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range pubs {
		sp := p.Feed.SettlementPrice
		cer := p.Feed.CoreExchangeRate
		err = batch.Append(
			uint64(p.AssetID), uint64(p.Publisher), p.PublishedAt,
			sp.Base.Amount, uint64(sp.Base.AssetID),
			sp.Quote.Amount, uint64(sp.Quote.AssetID),
			uint16(p.Feed.MaintenanceCollateralRatio),
			uint16(p.Feed.MaximumShortSqueezeRatio),
			cer.Base.Amount, uint64(cer.Base.AssetID),
			cer.Quote.Amount, uint64(cer.Quote.AssetID),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByAsset retrieves publications for an asset within [start, end] unix
// seconds inclusive, ordered by publication time ASC.
func (s *FeedHistoryStore) GetByAsset(ctx context.Context, asset domain.AssetID, start, end int64) ([]*domain.FeedPublication, error) {
	query := `
		SELECT
			asset_id, publisher, published_at,
			settle_base_amount, settle_base_asset,
			settle_quote_amount, settle_quote_asset,
			maintenance_collateral_ratio, maximum_short_squeeze_ratio,
			cer_base_amount, cer_base_asset,
			cer_quote_amount, cer_quote_asset
		FROM feed_history
		WHERE asset_id = ? AND published_at >= ? AND published_at <= ?
		ORDER BY published_at ASC, publisher ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(asset), start, end)
	if err != nil {
		return nil, fmt.Errorf("get feed history: %w", err)
	}
	defer rows.Close()

	var result []*domain.FeedPublication
	for rows.Next() {
		var (
			p                      domain.FeedPublication
			assetID, publisher     uint64
			settleBaseID           uint64
			settleQuoteID          uint64
			cerBaseID, cerQuoteID  uint64
			settleBase, settleQuot int64
			cerBase, cerQuote      int64
			mcr, mssr              uint16
		)
		err := rows.Scan(
			&assetID, &publisher, &p.PublishedAt,
			&settleBase, &settleBaseID,
			&settleQuot, &settleQuoteID,
			&mcr, &mssr,
			&cerBase, &cerBaseID,
			&cerQuote, &cerQuoteID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feed history row: %w", err)
		}
		p.AssetID = domain.AssetID(assetID)
		p.Publisher = domain.AccountID(publisher)
		p.Feed = domain.PriceFeed{
			SettlementPrice: domain.Price{
				Base:  domain.AssetAmount{Amount: settleBase, AssetID: domain.AssetID(settleBaseID)},
				Quote: domain.AssetAmount{Amount: settleQuot, AssetID: domain.AssetID(settleQuoteID)},
			},
			MaintenanceCollateralRatio: mcr,
			MaximumShortSqueezeRatio:   mssr,
			CoreExchangeRate: domain.Price{
				Base:  domain.AssetAmount{Amount: cerBase, AssetID: domain.AssetID(cerBaseID)},
				Quote: domain.AssetAmount{Amount: cerQuote, AssetID: domain.AssetID(cerQuoteID)},
			},
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed history: %w", err)
	}
	return result, nil
}
