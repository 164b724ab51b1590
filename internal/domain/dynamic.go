package domain

import "fmt"

// AssetDynamicData holds the counters that change in almost every
// transaction touching the asset. Splitting them out keeps per-transaction
// history snapshots small: the large identity record rarely changes.
type AssetDynamicData struct {
	ID DynamicDataID

	// CurrentSupply is the number of shares in existence.
	CurrentSupply int64

	// ConfidentialSupply is the portion held in confidential balances.
	ConfidentialSupply int64

	// AccumulatedFees are collected market fees awaiting claim by the issuer.
	AccumulatedFees int64

	// FeePool is the core-asset balance funding fee conversion.
	FeePool int64
}

// Validate checks that every counter is non-negative. A negative counter is
// a contract violation by the mutating operation, never a valid state.
func (d *AssetDynamicData) Validate() error {
	if d.CurrentSupply < 0 || d.ConfidentialSupply < 0 || d.AccumulatedFees < 0 || d.FeePool < 0 {
		return fmt.Errorf("%w: negative counter in dynamic data %s", ErrInvariantViolation, d.ID.Object())
	}
	return nil
}

// Reserved returns the supply still available for future issuance,
// maxSupply - CurrentSupply. Oversupply is never valid.
func (d *AssetDynamicData) Reserved(maxSupply int64) (int64, error) {
	r := maxSupply - d.CurrentSupply
	if r < 0 {
		return 0, fmt.Errorf("%w: current supply %d exceeds max supply %d", ErrInvariantViolation, d.CurrentSupply, maxSupply)
	}
	return r, nil
}
