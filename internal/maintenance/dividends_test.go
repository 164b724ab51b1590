package maintenance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/storage/memory"
)

// fakeBalanceReader serves balances keyed by (account, asset).
type fakeBalanceReader struct {
	balances map[domain.AccountID]map[domain.AssetID]int64
	err      error
}

func (r *fakeBalanceReader) Balance(_ context.Context, account domain.AccountID, asset domain.AssetID) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.balances[account][asset], nil
}

func TestDividendMaintenance_Run(t *testing.T) {
	dividends := memory.NewDividendStore()
	balances := memory.NewDividendBalanceStore()
	ctx := context.Background()

	require.NoError(t, dividends.Insert(ctx, &domain.AssetDividendData{
		ID:                  1,
		AssetID:             7,
		DistributionAccount: 42,
	}))
	require.NoError(t, balances.Upsert(ctx, &domain.DividendBalanceSnapshot{
		ID: 1, HolderAssetID: 7, PayoutAssetID: 0, BalanceAtLastMaintenance: 1000,
	}))
	require.NoError(t, balances.Upsert(ctx, &domain.DividendBalanceSnapshot{
		ID: 2, HolderAssetID: 7, PayoutAssetID: 3, BalanceAtLastMaintenance: 500,
	}))

	reader := &fakeBalanceReader{balances: map[domain.AccountID]map[domain.AssetID]int64{
		42: {0: 1600, 3: 500},
	}}

	m := &DividendMaintenance{Dividends: dividends, Balances: balances, Reader: reader}
	deposits, err := m.Run(ctx, 9000)
	require.NoError(t, err)

	// Only the core-asset balance grew; the unchanged pair reports nothing.
	require.Len(t, deposits, 1)
	assert.Equal(t, Deposit{HolderAsset: 7, PayoutAsset: 0, Amount: 600}, deposits[0])

	snap, err := balances.Get(ctx, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1600), snap.BalanceAtLastMaintenance)

	d, err := dividends.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, d.LastDistributionTime)
	assert.Equal(t, int64(9000), *d.LastDistributionTime)

	// A second pass with the same balances observes no deposits.
	deposits, err = m.Run(ctx, 9100)
	require.NoError(t, err)
	assert.Empty(t, deposits)
}

func TestDividendMaintenance_ShrunkBalance(t *testing.T) {
	dividends := memory.NewDividendStore()
	balances := memory.NewDividendBalanceStore()
	ctx := context.Background()

	require.NoError(t, dividends.Insert(ctx, &domain.AssetDividendData{
		ID: 1, AssetID: 7, DistributionAccount: 42,
	}))
	require.NoError(t, balances.Upsert(ctx, &domain.DividendBalanceSnapshot{
		ID: 1, HolderAssetID: 7, PayoutAssetID: 0, BalanceAtLastMaintenance: 1000,
	}))

	reader := &fakeBalanceReader{balances: map[domain.AccountID]map[domain.AssetID]int64{
		42: {0: 400},
	}}

	m := &DividendMaintenance{Dividends: dividends, Balances: balances, Reader: reader}
	deposits, err := m.Run(ctx, 9000)
	require.NoError(t, err)
	assert.Empty(t, deposits)

	// The snapshot still rolls forward to the observed balance.
	snap, err := balances.Get(ctx, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(400), snap.BalanceAtLastMaintenance)
}

func TestDividendMaintenance_ReaderError(t *testing.T) {
	dividends := memory.NewDividendStore()
	balances := memory.NewDividendBalanceStore()
	ctx := context.Background()

	require.NoError(t, dividends.Insert(ctx, &domain.AssetDividendData{
		ID: 1, AssetID: 7, DistributionAccount: 42,
	}))
	require.NoError(t, balances.Upsert(ctx, &domain.DividendBalanceSnapshot{
		ID: 1, HolderAssetID: 7, PayoutAssetID: 0, BalanceAtLastMaintenance: 1000,
	}))

	readErr := errors.New("account subsystem unavailable")
	m := &DividendMaintenance{
		Dividends: dividends,
		Balances:  balances,
		Reader:    &fakeBalanceReader{err: readErr},
	}

	_, err := m.Run(ctx, 9000)
	assert.ErrorIs(t, err, readErr)

	// The failed pass did not move the snapshot.
	snap, getErr := balances.Get(ctx, 7, 0)
	require.NoError(t, getErr)
	assert.Equal(t, int64(1000), snap.BalanceAtLastMaintenance)
}

func TestDividendMaintenance_NoRecords(t *testing.T) {
	m := &DividendMaintenance{
		Dividends: memory.NewDividendStore(),
		Balances:  memory.NewDividendBalanceStore(),
		Reader:    &fakeBalanceReader{},
	}

	deposits, err := m.Run(context.Background(), 9000)
	require.NoError(t, err)
	assert.Empty(t, deposits)
}
