// Package dividend implements the interval bookkeeping for dividend-paying
// assets: deposit deltas against the previous balance snapshot and schedule
// resets on reconfiguration.
package dividend

import "bitasset-ledger/internal/domain"

// IntervalDeposit computes how much was deposited into the distribution
// account since the previous maintenance interval and rolls the snapshot
// forward to the current balance. A balance that shrank (payouts leaving
// the account) yields a zero deposit, not a negative one.
func IntervalDeposit(snap *domain.DividendBalanceSnapshot, currentBalance int64) int64 {
	deposit := currentBalance - snap.BalanceAtLastMaintenance
	snap.BalanceAtLastMaintenance = currentBalance
	if deposit < 0 {
		return 0
	}
	return deposit
}

// RollForward moves the snapshot to the observed balance without reporting
// a deposit. Used when seeding a snapshot for a new (holder, payout) pair.
func RollForward(snap *domain.DividendBalanceSnapshot, currentBalance int64) {
	snap.BalanceAtLastMaintenance = currentBalance
}

// ResetSchedules clears all four scheduling timestamps so the next
// maintenance interval recomputes schedules from option defaults.
func ResetSchedules(d *domain.AssetDividendData) {
	d.LastScheduledPayoutTime = nil
	d.LastPayoutTime = nil
	d.LastScheduledDistributionTime = nil
	d.LastDistributionTime = nil
}

// Reconfigure replaces the dividend options. Any options change invalidates
// previously computed schedules.
func Reconfigure(d *domain.AssetDividendData, opts domain.DividendOptions) {
	d.Options = opts
	ResetSchedules(d)
}
