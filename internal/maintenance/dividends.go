package maintenance

import (
	"context"
	"fmt"
	"time"

	"bitasset-ledger/internal/dividend"
	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/observability"
	"bitasset-ledger/internal/storage"
)

// BalanceReader reads live account balances from the external account
// subsystem.
type BalanceReader interface {
	Balance(ctx context.Context, account domain.AccountID, asset domain.AssetID) (int64, error)
}

// Deposit is one interval deposit observed for a dividend-paying asset.
type Deposit struct {
	HolderAsset domain.AssetID
	PayoutAsset domain.AssetID
	Amount      int64
}

// DividendMaintenance computes interval deposits for every dividend-paying
// asset by comparing the distribution account's live balance against the
// snapshot taken at the previous interval.
type DividendMaintenance struct {
	Dividends storage.DividendStore
	Balances  storage.DividendBalanceStore
	Reader    BalanceReader

	// Metrics is optional.
	Metrics *observability.Metrics
}

// Run rolls every balance snapshot forward and returns the non-zero
// deposits observed this interval. Snapshots are written back before the
// deposits are reported, so a crash between the two repeats a zero-delta
// interval rather than double-counting.
func (m *DividendMaintenance) Run(ctx context.Context, now int64) ([]Deposit, error) {
	started := time.Now()

	records, err := m.Dividends.ListAll(ctx)
	if err != nil {
		m.countError()
		return nil, fmt.Errorf("list dividend records: %w", err)
	}

	var deposits []Deposit
	for _, d := range records {
		snaps, err := m.Balances.ListByHolder(ctx, d.AssetID)
		if err != nil {
			m.countError()
			return deposits, fmt.Errorf("list snapshots for %s: %w", d.AssetID.Object(), err)
		}

		for _, snap := range snaps {
			current, err := m.Reader.Balance(ctx, d.DistributionAccount, snap.PayoutAssetID)
			if err != nil {
				m.countError()
				return deposits, fmt.Errorf("read balance of %s in %s: %w",
					d.DistributionAccount.Object(), snap.PayoutAssetID.Object(), err)
			}

			amount := dividend.IntervalDeposit(snap, current)
			if err := m.Balances.Upsert(ctx, snap); err != nil {
				m.countError()
				return deposits, fmt.Errorf("store snapshot: %w", err)
			}
			if m.Metrics != nil {
				m.Metrics.DividendSnapshots.Inc()
			}

			if amount > 0 {
				deposits = append(deposits, Deposit{
					HolderAsset: snap.HolderAssetID,
					PayoutAsset: snap.PayoutAssetID,
					Amount:      amount,
				})
			}
		}

		t := now
		d.LastDistributionTime = &t
		if err := m.Dividends.Update(ctx, d); err != nil {
			m.countError()
			return deposits, fmt.Errorf("update dividend record %s: %w", d.ID.Object(), err)
		}
	}

	if m.Metrics != nil {
		m.Metrics.MaintenanceDuration.WithLabelValues("dividends").Observe(time.Since(started).Seconds())
	}
	return deposits, nil
}

func (m *DividendMaintenance) countError() {
	if m.Metrics != nil {
		m.Metrics.MaintenanceErrors.WithLabelValues("dividends").Inc()
	}
}
