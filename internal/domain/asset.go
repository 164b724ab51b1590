package domain

import "fmt"

// AssetFlags are the issuer-togglable behavior bits of an asset. The same
// bit set doubles as the issuer permission mask: a flag may only be enabled
// while the corresponding permission bit is held.
type AssetFlags uint16

const (
	ChargeMarketFee     AssetFlags = 0x0001
	WhiteList           AssetFlags = 0x0002
	OverrideAuthority   AssetFlags = 0x0004
	TransferRestricted  AssetFlags = 0x0008
	DisableForceSettle  AssetFlags = 0x0010
	GlobalSettle        AssetFlags = 0x0020
	DisableConfidential AssetFlags = 0x0040
)

// MarketIssuedPermissions are the bits meaningful only for market-issued
// assets.
const MarketIssuedPermissions = DisableForceSettle | GlobalSettle

// FullPercent is the denominator for all percentage fields: values are
// expressed in parts per 10_000.
const FullPercent = 10000

// MaxAssetPrecision is the largest allowed number of decimal digits.
const MaxAssetPrecision = 12

// MaxShareSupply bounds any single asset's share count.
const MaxShareSupply int64 = 1_000_000_000_000_000

// AssetOptions are the issuer-configurable parameters of an asset.
type AssetOptions struct {
	// MaxSupply is the hard cap on CurrentSupply, in base units.
	MaxSupply int64

	// MarketFeePercent is charged on market trades when ChargeMarketFee is
	// set, in parts per 10_000.
	MarketFeePercent uint16

	Flags AssetFlags

	// IssuerPermissions is the superset of Flags the issuer may toggle.
	IssuerPermissions AssetFlags

	// CoreExchangeRate prices this asset in the core asset for fee pool
	// conversion.
	CoreExchangeRate Price
}

// Validate checks the option set independent of any asset state.
func (o AssetOptions) Validate() error {
	if o.MaxSupply <= 0 || o.MaxSupply > MaxShareSupply {
		return fmt.Errorf("%w: max supply %d out of range (0, %d]", ErrInvariantViolation, o.MaxSupply, MaxShareSupply)
	}
	if o.MarketFeePercent > FullPercent {
		return fmt.Errorf("%w: market fee percent %d exceeds %d", ErrInvariantViolation, o.MarketFeePercent, FullPercent)
	}
	if o.Flags&^o.IssuerPermissions != 0 {
		return fmt.Errorf("%w: flags %#x not covered by issuer permissions %#x", ErrInvariantViolation, o.Flags, o.IssuerPermissions)
	}
	return nil
}

// Asset is the stable identity record of a tradable asset. Frequently
// changing counters live in AssetDynamicData; market-risk state lives in
// AssetBitassetData. Both are referenced by identifier and resolved through
// the owning store, never embedded.
type Asset struct {
	ID AssetID

	// Symbol is the globally unique ticker; immutable once validated.
	Symbol string

	// Precision is the number of digits after the decimal point, 0..12.
	Precision uint8

	// Issuer is the account with administrative authority over the asset.
	Issuer AccountID

	Options AssetOptions

	// DynamicDataID references the supply counters, created atomically with
	// the asset.
	DynamicDataID DynamicDataID

	// BitassetDataID is set if and only if the asset is market-issued.
	BitassetDataID *BitassetDataID

	BuybackAccount *AccountID

	// DividendDataID is set for dividend-paying assets.
	DividendDataID *DividendDataID
}

// IsMarketIssued reports whether this asset is backed by collateral and
// priced by feeds.
func (a *Asset) IsMarketIssued() bool { return a.BitassetDataID != nil }

// CanForceSettle reports whether holders may request force settlement.
func (a *Asset) CanForceSettle() bool { return a.Options.Flags&DisableForceSettle == 0 }

// CanGlobalSettle reports whether the issuer may globally settle the asset.
func (a *Asset) CanGlobalSettle() bool { return a.Options.IssuerPermissions&GlobalSettle != 0 }

// ChargesMarketFees reports whether market trades pay a fee to the issuer.
func (a *Asset) ChargesMarketFees() bool { return a.Options.Flags&ChargeMarketFee != 0 }

// IsTransferRestricted reports whether transfers must involve the issuer.
func (a *Asset) IsTransferRestricted() bool { return a.Options.Flags&TransferRestricted != 0 }

// CanOverride reports whether the issuer may transfer the asset out of any
// account.
func (a *Asset) CanOverride() bool { return a.Options.Flags&OverrideAuthority != 0 }

// AllowConfidential reports whether the asset may be held in confidential
// balances.
func (a *Asset) AllowConfidential() bool { return a.Options.Flags&DisableConfidential == 0 }

// Validate checks structural invariants on the asset record. Non-market-
// issued assets may not carry force-settlement or global-settlement bits in
// either flags or permissions: those semantics only exist for bitassets.
func (a *Asset) Validate() error {
	if !IsValidSymbol(a.Symbol) {
		return fmt.Errorf("%w: invalid symbol %q", ErrInvariantViolation, a.Symbol)
	}
	if a.Precision > MaxAssetPrecision {
		return fmt.Errorf("%w: precision %d exceeds %d", ErrInvariantViolation, a.Precision, MaxAssetPrecision)
	}
	if err := a.Options.Validate(); err != nil {
		return err
	}
	if !a.IsMarketIssued() {
		if a.Options.Flags&MarketIssuedPermissions != 0 {
			return fmt.Errorf("%w: flags %#x include market-issued bits on a non-market-issued asset", ErrInvariantViolation, a.Options.Flags)
		}
		if a.Options.IssuerPermissions&MarketIssuedPermissions != 0 {
			return fmt.Errorf("%w: issuer permissions %#x include market-issued bits on a non-market-issued asset", ErrInvariantViolation, a.Options.IssuerPermissions)
		}
	}
	return nil
}

// AmountOf pairs a raw share count with this asset's id.
func (a *Asset) AmountOf(amount int64) AssetAmount {
	return AssetAmount{Amount: amount, AssetID: a.ID}
}
