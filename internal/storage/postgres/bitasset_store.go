package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage"
)

const bitassetsPkeyConstraint = "bitassets_pkey"

// BitassetStore implements storage.BitassetStore using PostgreSQL. The feed
// table travels as a JSONB document; the expression index on publication
// time + lifetime serves ListFeedExpiredBefore without a full scan.
type BitassetStore struct {
	pool *Pool
}

// NewBitassetStore creates a new BitassetStore.
func NewBitassetStore(pool *Pool) *BitassetStore {
	return &BitassetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BitassetStore = (*BitassetStore)(nil)

const bitassetColumns = `
	id, asset_id,
	feed_lifetime_sec, minimum_feeds,
	force_settlement_delay_sec, force_settlement_offset_percent,
	maximum_force_settlement_volume, short_backing_asset, median_policy,
	feeds,
	cur_settle_base_amount, cur_settle_base_asset,
	cur_settle_quote_amount, cur_settle_quote_asset,
	cur_mcr, cur_mssr,
	cur_cer_base_amount, cur_cer_base_asset,
	cur_cer_quote_amount, cur_cer_quote_asset,
	current_feed_publication_time, is_prediction_market, force_settled_volume,
	settle_base_amount, settle_base_asset,
	settle_quote_amount, settle_quote_asset,
	settlement_fund
`

// Insert adds new bitasset data. Returns ErrDuplicateKey if the id exists.
func (s *BitassetStore) Insert(ctx context.Context, b *domain.AssetBitassetData) error {
	query := `
		INSERT INTO bitassets (` + bitassetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`

	args, err := bitassetArgs(b)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		if uniqueViolationConstraint(err) == bitassetsPkeyConstraint {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert bitasset: %w", err)
	}
	return nil
}

// Update replaces existing bitasset data. Returns ErrNotFound if unknown.
func (s *BitassetStore) Update(ctx context.Context, b *domain.AssetBitassetData) error {
	query := `
		UPDATE bitassets SET
			asset_id = $2,
			feed_lifetime_sec = $3, minimum_feeds = $4,
			force_settlement_delay_sec = $5, force_settlement_offset_percent = $6,
			maximum_force_settlement_volume = $7, short_backing_asset = $8,
			median_policy = $9, feeds = $10,
			cur_settle_base_amount = $11, cur_settle_base_asset = $12,
			cur_settle_quote_amount = $13, cur_settle_quote_asset = $14,
			cur_mcr = $15, cur_mssr = $16,
			cur_cer_base_amount = $17, cur_cer_base_asset = $18,
			cur_cer_quote_amount = $19, cur_cer_quote_asset = $20,
			current_feed_publication_time = $21, is_prediction_market = $22,
			force_settled_volume = $23,
			settle_base_amount = $24, settle_base_asset = $25,
			settle_quote_amount = $26, settle_quote_asset = $27,
			settlement_fund = $28
		WHERE id = $1
	`

	args, err := bitassetArgs(b)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update bitasset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves bitasset data by id. Returns ErrNotFound if not exists.
func (s *BitassetStore) GetByID(ctx context.Context, id domain.BitassetDataID) (*domain.AssetBitassetData, error) {
	query := `SELECT ` + bitassetColumns + ` FROM bitassets WHERE id = $1`

	b, err := scanBitasset(s.pool.QueryRow(ctx, query, int64(id)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bitasset by id: %w", err)
	}
	return b, nil
}

// ListFeedExpiredBefore retrieves bitassets whose current feed is expired
// strictly before now, ordered by expiration time ASC.
func (s *BitassetStore) ListFeedExpiredBefore(ctx context.Context, now int64) ([]*domain.AssetBitassetData, error) {
	query := `
		SELECT ` + bitassetColumns + ` FROM bitassets
		WHERE current_feed_publication_time + feed_lifetime_sec < $1
		ORDER BY current_feed_publication_time + feed_lifetime_sec ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list stale bitassets: %w", err)
	}
	defer rows.Close()

	return scanBitassets(rows)
}

// ListAll retrieves every bitasset ordered by id ASC.
func (s *BitassetStore) ListAll(ctx context.Context) ([]*domain.AssetBitassetData, error) {
	query := `SELECT ` + bitassetColumns + ` FROM bitassets ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bitassets: %w", err)
	}
	defer rows.Close()

	return scanBitassets(rows)
}

func bitassetArgs(b *domain.AssetBitassetData) ([]any, error) {
	feeds := b.Feeds
	if feeds == nil {
		feeds = map[domain.AccountID]domain.FeedEntry{}
	}
	feedsJSON, err := json.Marshal(feeds)
	if err != nil {
		return nil, fmt.Errorf("marshal feed table: %w", err)
	}

	cur := b.CurrentFeed
	return []any{
		int64(b.ID), int64(b.AssetID),
		int32(b.Options.FeedLifetimeSec), int16(b.Options.MinimumFeeds),
		int32(b.Options.ForceSettlementDelaySec), int32(b.Options.ForceSettlementOffsetPercent),
		int32(b.Options.MaximumForceSettlementVolume), int64(b.Options.ShortBackingAsset),
		int16(b.Options.MedianPolicy),
		feedsJSON,
		cur.SettlementPrice.Base.Amount, int64(cur.SettlementPrice.Base.AssetID),
		cur.SettlementPrice.Quote.Amount, int64(cur.SettlementPrice.Quote.AssetID),
		int32(cur.MaintenanceCollateralRatio), int32(cur.MaximumShortSqueezeRatio),
		cur.CoreExchangeRate.Base.Amount, int64(cur.CoreExchangeRate.Base.AssetID),
		cur.CoreExchangeRate.Quote.Amount, int64(cur.CoreExchangeRate.Quote.AssetID),
		b.CurrentFeedPublicationTime, b.IsPredictionMarket, b.ForceSettledVolume,
		b.SettlementPrice.Base.Amount, int64(b.SettlementPrice.Base.AssetID),
		b.SettlementPrice.Quote.Amount, int64(b.SettlementPrice.Quote.AssetID),
		b.SettlementFund,
	}, nil
}

func scanBitasset(row rowScanner) (*domain.AssetBitassetData, error) {
	var (
		b                 domain.AssetBitassetData
		id, assetID       int64
		lifetime          int32
		minFeeds          int16
		fsDelay, fsOffset int32
		maxFSVolume       int32
		backing           int64
		policy            int16
		feedsJSON         []byte
		curSB, curSQ      int64
		curSBID, curSQID  int64
		mcr, mssr         int32
		curCB, curCQ      int64
		curCBID, curCQID  int64
		setB, setQ        int64
		setBID, setQID    int64
	)

	err := row.Scan(
		&id, &assetID,
		&lifetime, &minFeeds,
		&fsDelay, &fsOffset,
		&maxFSVolume, &backing, &policy,
		&feedsJSON,
		&curSB, &curSBID, &curSQ, &curSQID,
		&mcr, &mssr,
		&curCB, &curCBID, &curCQ, &curCQID,
		&b.CurrentFeedPublicationTime, &b.IsPredictionMarket, &b.ForceSettledVolume,
		&setB, &setBID, &setQ, &setQID,
		&b.SettlementFund,
	)
	if err != nil {
		return nil, err
	}

	b.ID = domain.BitassetDataID(id)
	b.AssetID = domain.AssetID(assetID)
	b.Options = domain.BitassetOptions{
		FeedLifetimeSec:              uint32(lifetime),
		MinimumFeeds:                 uint8(minFeeds),
		ForceSettlementDelaySec:      uint32(fsDelay),
		ForceSettlementOffsetPercent: uint16(fsOffset),
		MaximumForceSettlementVolume: uint16(maxFSVolume),
		ShortBackingAsset:            domain.AssetID(backing),
		MedianPolicy:                 domain.MedianPolicy(policy),
	}

	feeds := map[domain.AccountID]domain.FeedEntry{}
	if err := json.Unmarshal(feedsJSON, &feeds); err != nil {
		return nil, fmt.Errorf("unmarshal feed table: %w", err)
	}
	if len(feeds) > 0 {
		b.Feeds = feeds
	}

	b.CurrentFeed = domain.PriceFeed{
		SettlementPrice: domain.Price{
			Base:  domain.AssetAmount{Amount: curSB, AssetID: domain.AssetID(curSBID)},
			Quote: domain.AssetAmount{Amount: curSQ, AssetID: domain.AssetID(curSQID)},
		},
		MaintenanceCollateralRatio: uint16(mcr),
		MaximumShortSqueezeRatio:   uint16(mssr),
		CoreExchangeRate: domain.Price{
			Base:  domain.AssetAmount{Amount: curCB, AssetID: domain.AssetID(curCBID)},
			Quote: domain.AssetAmount{Amount: curCQ, AssetID: domain.AssetID(curCQID)},
		},
	}
	b.SettlementPrice = domain.Price{
		Base:  domain.AssetAmount{Amount: setB, AssetID: domain.AssetID(setBID)},
		Quote: domain.AssetAmount{Amount: setQ, AssetID: domain.AssetID(setQID)},
	}
	return &b, nil
}

func scanBitassets(rows pgx.Rows) ([]*domain.AssetBitassetData, error) {
	var result []*domain.AssetBitassetData
	for rows.Next() {
		b, err := scanBitasset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bitasset: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bitassets: %w", err)
	}
	return result, nil
}
