// Package settlement implements the irreversible global-settlement
// transition and per-interval force-settlement throttling.
package settlement

import (
	"errors"
	"fmt"

	"bitasset-ledger/internal/domain"
)

// ErrVolumeThrottled is returned when a force settlement would push the
// interval's settled volume past the configured cap. The request can be
// retried next interval.
var ErrVolumeThrottled = errors.New("force settlement volume cap reached for this interval")

// GlobalSettle fixes the asset's conversion price and collateral fund after
// a black swan. The transition is terminal: a second call fails, and after
// it no feed publication or option update is permitted.
//
// Prediction markets ignore the supplied price and settle at 1:1 against
// the backing asset by construction.
func GlobalSettle(a *domain.Asset, b *domain.AssetBitassetData, price domain.Price, fund int64) error {
	if !a.IsMarketIssued() {
		return fmt.Errorf("global settle %s: %w: not market-issued", a.Symbol, domain.ErrInvariantViolation)
	}
	if !a.CanGlobalSettle() {
		return fmt.Errorf("global settle %s: %w: issuer lacks global-settle permission", a.Symbol, domain.ErrInvariantViolation)
	}
	if b.HasSettlement() {
		return fmt.Errorf("global settle %s: %w", a.Symbol, domain.ErrSettledImmutable)
	}
	if fund < 0 {
		return fmt.Errorf("global settle %s: %w: negative settlement fund %d", a.Symbol, domain.ErrInvariantViolation, fund)
	}

	if b.IsPredictionMarket {
		price = domain.UnitPrice(a.ID, b.Options.ShortBackingAsset)
	}
	if price.IsNull() {
		return fmt.Errorf("global settle %s: %w: null settlement price", a.Symbol, domain.ErrInvariantViolation)
	}

	b.SettlementPrice = price
	b.SettlementFund = fund
	return nil
}

// ValidatePredictionMarket checks the structural invariants fixed at
// creation time: a prediction market must always be able to globally settle
// and must be backed by a different asset.
func ValidatePredictionMarket(a *domain.Asset, b *domain.AssetBitassetData) error {
	if !b.IsPredictionMarket {
		return nil
	}
	if !a.CanGlobalSettle() {
		return fmt.Errorf("prediction market %s: %w: global-settle permission required", a.Symbol, domain.ErrInvariantViolation)
	}
	if b.Options.ShortBackingAsset == a.ID {
		return fmt.Errorf("prediction market %s: %w: cannot back with itself", a.Symbol, domain.ErrInvariantViolation)
	}
	return nil
}

// CanForceSettleNow reports whether a holder may request force settlement:
// the issuer has not disabled it and the asset has not globally settled.
// After a global settlement holders convert against the settlement fund
// instead.
func CanForceSettleNow(a *domain.Asset, b *domain.AssetBitassetData) bool {
	return a.CanForceSettle() && !b.HasSettlement()
}

// RecordForceSettlement accounts amount against the interval's volume cap,
// accumulating ForceSettledVolume on success.
func RecordForceSettlement(b *domain.AssetBitassetData, amount, currentSupply int64) error {
	if amount <= 0 {
		return fmt.Errorf("force settle %s: %w: non-positive amount %d", b.AssetID.Object(), domain.ErrInvariantViolation, amount)
	}
	cap := b.MaxForceSettlementVolume(currentSupply)
	if b.ForceSettledVolume+amount > cap {
		return fmt.Errorf("force settle %s: %w: %d settled, %d requested, cap %d",
			b.AssetID.Object(), ErrVolumeThrottled, b.ForceSettledVolume, amount, cap)
	}
	b.ForceSettledVolume += amount
	return nil
}

// ResetForceSettledVolume starts a fresh maintenance interval.
func ResetForceSettledVolume(b *domain.AssetBitassetData) {
	b.ForceSettledVolume = 0
}
