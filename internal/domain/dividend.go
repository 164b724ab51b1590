package domain

// DividendOptions configure payout scheduling for a dividend-paying asset.
type DividendOptions struct {
	// NextPayoutTime is the first scheduled payout, unix seconds; nil until
	// the issuer sets one.
	NextPayoutTime *int64

	// PayoutIntervalSec is the spacing between payouts; nil means one-shot.
	PayoutIntervalSec *uint32

	// MinimumFeePercentage is the smallest share of accumulated fees worth
	// distributing, in parts per 10_000.
	MinimumFeePercentage uint16

	// MinimumDistributionIntervalSec throttles how often pending payouts are
	// recomputed; nil means every maintenance interval.
	MinimumDistributionIntervalSec *uint32
}

// AssetDividendData is the scheduling state of a dividend-paying asset. All
// four timestamps are unset until the corresponding pass first runs, and all
// four are cleared whenever Options are reconfigured so the next maintenance
// interval reschedules from option defaults rather than stale history.
type AssetDividendData struct {
	ID DividendDataID

	// AssetID is the owning asset.
	AssetID AssetID

	Options DividendOptions

	// LastScheduledPayoutTime is when payouts were last scheduled to run,
	// unix seconds.
	LastScheduledPayoutTime *int64

	// LastPayoutTime is the maintenance interval at or after the scheduled
	// time when payouts actually ran.
	LastPayoutTime *int64

	// LastScheduledDistributionTime is when pending payouts were last
	// scheduled to be computed.
	LastScheduledDistributionTime *int64

	// LastDistributionTime is when pending payouts were actually computed.
	LastDistributionTime *int64

	// DistributionAccount collects pending payouts.
	DistributionAccount AccountID
}

// DividendBalanceSnapshot records, per (holder asset, payout asset) pair,
// the distribution-account balance observed at the previous maintenance
// interval. The next interval's deposit is the delta against the live
// balance.
type DividendBalanceSnapshot struct {
	ID DividendBalanceID

	// HolderAssetID is the dividend-paying asset whose holders are owed.
	HolderAssetID AssetID

	// PayoutAssetID is the asset being distributed.
	PayoutAssetID AssetID

	// BalanceAtLastMaintenance is the distribution-account balance seen at
	// the previous interval, in payout-asset shares.
	BalanceAtLastMaintenance int64
}
