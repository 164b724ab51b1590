package settlement

import (
	"errors"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/observability"
)

// Instrumented wraps the settlement transitions with event counters. Hosts
// that expose metrics route settlements through it; the plain functions stay
// available for callers that do their own accounting.
type Instrumented struct {
	Metrics *observability.Metrics
}

// GlobalSettle performs the settlement transition and counts it on success.
func (i *Instrumented) GlobalSettle(a *domain.Asset, b *domain.AssetBitassetData, price domain.Price, fund int64) error {
	if err := GlobalSettle(a, b, price, fund); err != nil {
		return err
	}
	if i.Metrics != nil {
		i.Metrics.GlobalSettlements.Inc()
	}
	return nil
}

// RecordForceSettlement accounts a force settlement, counting successes and
// throttle rejections separately.
func (i *Instrumented) RecordForceSettlement(b *domain.AssetBitassetData, amount, currentSupply int64) error {
	err := RecordForceSettlement(b, amount, currentSupply)
	if i.Metrics != nil {
		switch {
		case err == nil:
			i.Metrics.ForceSettlements.Inc()
		case errors.Is(err, ErrVolumeThrottled):
			i.Metrics.VolumeThrottled.Inc()
		}
	}
	return err
}
