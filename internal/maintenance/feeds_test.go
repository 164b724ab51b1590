package maintenance

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/feeds"
	"bitasset-ledger/internal/observability"
	"bitasset-ledger/internal/storage/memory"
)

const (
	usdAsset  = domain.AssetID(7)
	coreAsset = domain.AssetID(0)
)

// One registration per test binary; promauto registers globally.
var testMetrics = observability.NewMetrics("maintenance_test")

func seedBitasset(t *testing.T, store *memory.BitassetStore, id domain.BitassetDataID, published int64, ratios ...int64) {
	t.Helper()

	b := &domain.AssetBitassetData{
		ID:      id,
		AssetID: domain.AssetID(id),
		Options: domain.BitassetOptions{
			FeedLifetimeSec:   3600,
			MinimumFeeds:      1,
			ShortBackingAsset: coreAsset,
		},
	}
	for i, ratio := range ratios {
		publisher := domain.AccountID(100 + i)
		require.NoError(t, feeds.Publish(b, publisher, published, domain.PriceFeed{
			SettlementPrice: domain.Price{
				Base:  domain.AssetAmount{Amount: ratio, AssetID: b.AssetID},
				Quote: domain.AssetAmount{Amount: 100, AssetID: coreAsset},
			},
			MaintenanceCollateralRatio: 1750,
			MaximumShortSqueezeRatio:   1500,
		}))
	}
	require.NoError(t, store.Insert(context.Background(), b))
}

func TestFeedMaintenance_Run(t *testing.T) {
	store := memory.NewBitassetStore()
	ctx := context.Background()

	// The current feeds were never computed, so both assets expire at
	// 0+3600 and land in the stale prefix at now=5000. The individual
	// publications are recent enough to contribute.
	seedBitasset(t, store, 1, 4000, 100, 102, 98)
	seedBitasset(t, store, 2, 4900, 50)

	m := &FeedMaintenance{Bitassets: store}
	updated, err := m.Run(ctx, 5000)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	b1, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b1.CurrentFeed.SettlementPrice.Base.Amount)
	assert.Equal(t, int64(4000), b1.CurrentFeedPublicationTime)

	// The recomputed assets left the stale prefix.
	stale, err := store.ListFeedExpiredBefore(ctx, 5000)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestFeedMaintenance_InsufficientFeedsResets(t *testing.T) {
	store := memory.NewBitassetStore()
	ctx := context.Background()

	// All publications are stale at now, so no feed contributes and the
	// current feed resets to null.
	seedBitasset(t, store, 1, 1000, 100)

	m := &FeedMaintenance{Bitassets: store}
	updated, err := m.Run(ctx, 10_000)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	b, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, b.CurrentFeed.IsNull())
	assert.Equal(t, int64(10_000), b.CurrentFeedPublicationTime)
}

func TestFeedMaintenance_SkipsSettled(t *testing.T) {
	store := memory.NewBitassetStore()
	ctx := context.Background()

	b := &domain.AssetBitassetData{
		ID:      1,
		AssetID: usdAsset,
		Options: domain.BitassetOptions{
			FeedLifetimeSec:   3600,
			MinimumFeeds:      1,
			ShortBackingAsset: coreAsset,
		},
		SettlementPrice: domain.UnitPrice(usdAsset, coreAsset),
		SettlementFund:  1000,
	}
	require.NoError(t, store.Insert(ctx, b))

	m := &FeedMaintenance{Bitassets: store}
	updated, err := m.Run(ctx, 10_000)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	got, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.CurrentFeedPublicationTime)
}

func TestFeedMaintenance_EligibilityFilter(t *testing.T) {
	store := memory.NewBitassetStore()
	ctx := context.Background()

	// Publishers 100 and 101 feed ratios 100 and 200; revoking 101 makes
	// the surviving feed the median.
	seedBitasset(t, store, 1, 1000, 100, 200)

	m := &FeedMaintenance{
		Bitassets: store,
		Eligible:  func(id domain.AccountID) bool { return id == 100 },
	}
	updated, err := m.Run(ctx, 4000)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	b, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.CurrentFeed.SettlementPrice.Base.Amount)
}

type fakeHistoryStore struct {
	inserted []*domain.FeedPublication
	calls    int
}

func (f *fakeHistoryStore) InsertBulk(_ context.Context, pubs []*domain.FeedPublication) error {
	f.inserted = append(f.inserted, pubs...)
	f.calls++
	return nil
}

func (f *fakeHistoryStore) GetByAsset(context.Context, domain.AssetID, int64, int64) ([]*domain.FeedPublication, error) {
	return nil, nil
}

func TestFeedMaintenance_ArchivePublications(t *testing.T) {
	store := memory.NewBitassetStore()
	ctx := context.Background()

	seedBitasset(t, store, 1, 1000, 100, 102)
	seedBitasset(t, store, 2, 2000, 50)

	hist := &fakeHistoryStore{}
	m := &FeedMaintenance{Bitassets: store, History: hist, Metrics: testMetrics}
	published := testutil.ToFloat64(testMetrics.FeedsPublished)

	// First window picks up everything published so far.
	n, err := m.ArchivePublications(ctx, 0, 2000)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, hist.inserted, 3)
	assert.Equal(t, published+3, testutil.ToFloat64(testMetrics.FeedsPublished))

	// The next window starts where the last ended, so nothing repeats.
	n, err = m.ArchivePublications(ctx, 2000, 3000)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, hist.calls)

	// A publisher refreshing their feed lands in the new window once.
	b, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, feeds.Publish(b, 100, 2500, b.Feeds[100].Feed))
	require.NoError(t, store.Update(ctx, b))

	n, err = m.ArchivePublications(ctx, 2000, 3000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, hist.inserted, 4)
	assert.Equal(t, domain.AccountID(100), hist.inserted[3].Publisher)
	assert.Equal(t, int64(2500), hist.inserted[3].PublishedAt)
}

func TestFeedMaintenance_ArchivePublications_NoHistory(t *testing.T) {
	store := memory.NewBitassetStore()
	ctx := context.Background()
	seedBitasset(t, store, 1, 1000, 100)

	m := &FeedMaintenance{Bitassets: store}
	n, err := m.ArchivePublications(ctx, 0, 2000)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFeedMaintenance_ResetSettlementVolumes(t *testing.T) {
	store := memory.NewBitassetStore()
	ctx := context.Background()

	b := &domain.AssetBitassetData{
		ID:                 1,
		AssetID:            usdAsset,
		Options:            domain.BitassetOptions{FeedLifetimeSec: 3600, ShortBackingAsset: coreAsset},
		ForceSettledVolume: 5000,
	}
	require.NoError(t, store.Insert(ctx, b))

	m := &FeedMaintenance{Bitassets: store}
	require.NoError(t, m.ResetSettlementVolumes(ctx))

	got, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.ForceSettledVolume)
}
