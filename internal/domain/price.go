package domain

import "github.com/shopspring/decimal"

// AssetAmount is an integer quantity of a specific asset.
type AssetAmount struct {
	Amount  int64
	AssetID AssetID
}

// Price is an exchange rate expressed as an exact integer ratio
// base/quote. A price with a zero amount on either side is null and cannot
// value anything.
type Price struct {
	Base  AssetAmount
	Quote AssetAmount
}

// IsNull reports whether the price carries no usable ratio. A null
// settlement price is the authoritative "not globally settled" marker.
func (p Price) IsNull() bool {
	return p.Base.Amount == 0 || p.Quote.Amount == 0
}

// UnitPrice returns the 1:1 price between two assets, used for prediction
// market settlement.
func UnitPrice(base, quote AssetID) Price {
	return Price{
		Base:  AssetAmount{Amount: 1, AssetID: base},
		Quote: AssetAmount{Amount: 1, AssetID: quote},
	}
}

// Invert swaps base and quote.
func (p Price) Invert() Price {
	return Price{Base: p.Quote, Quote: p.Base}
}

// ratio cross products as exact decimals; int64*int64 overflows, decimal
// multiplication does not.
func crossProducts(p, o Price) (decimal.Decimal, decimal.Decimal) {
	lhs := decimal.NewFromInt(p.Base.Amount).Mul(decimal.NewFromInt(o.Quote.Amount))
	rhs := decimal.NewFromInt(o.Base.Amount).Mul(decimal.NewFromInt(p.Quote.Amount))
	return lhs, rhs
}

// Less orders prices by their base/quote ratio. Both prices must quote the
// same asset pair for the comparison to be meaningful.
func (p Price) Less(o Price) bool {
	lhs, rhs := crossProducts(p, o)
	return lhs.Cmp(rhs) < 0
}

// EqualRatio reports whether two prices represent the same exchange rate,
// regardless of how the ratio is scaled.
func (p Price) EqualRatio(o Price) bool {
	lhs, rhs := crossProducts(p, o)
	return lhs.Cmp(rhs) == 0
}

// Compare returns -1, 0 or 1 ordering first by ratio, then by raw base and
// quote amounts. The amount tie-breaks make sorting deterministic when two
// publishers submit the same rate at different scales.
func (p Price) Compare(o Price) int {
	lhs, rhs := crossProducts(p, o)
	if c := lhs.Cmp(rhs); c != 0 {
		return c
	}
	if p.Base.Amount != o.Base.Amount {
		if p.Base.Amount < o.Base.Amount {
			return -1
		}
		return 1
	}
	if p.Quote.Amount != o.Quote.Amount {
		if p.Quote.Amount < o.Quote.Amount {
			return -1
		}
		return 1
	}
	return 0
}

// PriceFeed is a publisher-supplied valuation snapshot for a bitasset. The
// median feed is computed element-wise across all qualifying feeds.
type PriceFeed struct {
	// SettlementPrice values debt in collateral terms: base is the bitasset,
	// quote is the backing asset.
	SettlementPrice Price

	// MaintenanceCollateralRatio is the minimum collateral:debt ratio before
	// margin call, in parts per 10_000.
	MaintenanceCollateralRatio uint16

	// MaximumShortSqueezeRatio bounds the margin call execution price, in
	// parts per 10_000.
	MaximumShortSqueezeRatio uint16

	// CoreExchangeRate converts accumulated fees into the core asset.
	CoreExchangeRate Price
}

// IsNull reports whether the feed carries no settlement price.
func (f PriceFeed) IsNull() bool {
	return f.SettlementPrice.IsNull()
}
