package domain

import "github.com/shopspring/decimal"

// MedianPolicy selects what happens to the current feed when fewer than
// MinimumFeeds qualifying feeds remain at median recomputation time.
type MedianPolicy uint8

const (
	// MedianPolicyReset nulls the current feed when the sample is too small.
	MedianPolicyReset MedianPolicy = iota

	// MedianPolicyKeepLast leaves the previous current feed in force.
	MedianPolicyKeepLast
)

// BitassetOptions are the tunable parameters of a market-issued asset.
type BitassetOptions struct {
	// FeedLifetimeSec is how long a published feed stays usable.
	FeedLifetimeSec uint32

	// MinimumFeeds is the smallest qualifying sample the median may be
	// computed from.
	MinimumFeeds uint8

	// ForceSettlementDelaySec delays execution of a force-settlement request.
	ForceSettlementDelaySec uint32

	// ForceSettlementOffsetPercent is subtracted from the feed price when a
	// force settlement executes, in parts per 10_000.
	ForceSettlementOffsetPercent uint16

	// MaximumForceSettlementVolume caps force-settled volume per maintenance
	// interval as parts per 10_000 of current supply.
	MaximumForceSettlementVolume uint16

	// ShortBackingAsset is the collateral asset.
	ShortBackingAsset AssetID

	MedianPolicy MedianPolicy
}

// FeedEntry is one publisher's slot in the feed table.
type FeedEntry struct {
	// PublishedAt is the publication time, unix seconds.
	PublishedAt int64

	Feed PriceFeed
}

// AssetBitassetData is the market-risk state of a market-issued asset.
type AssetBitassetData struct {
	ID BitassetDataID

	// AssetID is the owning asset.
	AssetID AssetID

	Options BitassetOptions

	// Feeds holds one entry per publisher; a new publication replaces the
	// publisher's previous entry. Publisher eligibility is evaluated at
	// median time from external authority state, never cached here.
	Feeds map[AccountID]FeedEntry

	// CurrentFeed is the aggregated feed currently in force.
	CurrentFeed PriceFeed

	// CurrentFeedPublicationTime is the publication time of the oldest feed
	// that contributed to CurrentFeed, unix seconds. Using the oldest
	// contributor bounds how fast a stale feed can be refreshed by unrelated
	// publications.
	CurrentFeedPublicationTime int64

	// IsPredictionMarket is fixed at creation. Prediction markets hold debt
	// and collateral in equal amounts and settle at 1:1.
	IsPredictionMarket bool

	// ForceSettledVolume accumulates force-settled shares within the current
	// maintenance interval; the scheduler resets it each interval.
	ForceSettledVolume int64

	// SettlementPrice and SettlementFund are written exactly once, at global
	// settlement. A non-null SettlementPrice is the terminal marker.
	SettlementPrice Price
	SettlementFund  int64
}

// HasSettlement reports whether a black swan has occurred. Once true it
// stays true: no code path nulls the settlement price again.
func (b *AssetBitassetData) HasSettlement() bool {
	return !b.SettlementPrice.IsNull()
}

// FeedExpirationTime returns when the current feed stops being usable,
// unix seconds.
func (b *AssetBitassetData) FeedExpirationTime() int64 {
	return b.CurrentFeedPublicationTime + int64(b.Options.FeedLifetimeSec)
}

// FeedIsExpired reports staleness under current consensus rules: the feed
// is expired strictly after its expiration instant, not at it.
func (b *AssetBitassetData) FeedIsExpired(now int64) bool {
	return now > b.FeedExpirationTime()
}

// FeedIsExpiredBeforeHardfork615 is the pre-hardfork-615 staleness
// predicate, which compared in the opposite direction. Callers replaying
// history from that era must use this variant; it is not a bug-fixed
// duplicate of FeedIsExpired.
func (b *AssetBitassetData) FeedIsExpiredBeforeHardfork615(now int64) bool {
	return now < b.FeedExpirationTime()
}

// EntryIsExpired reports whether a single feed-table entry is stale at now,
// under current consensus rules.
func (b *AssetBitassetData) EntryIsExpired(e FeedEntry, now int64) bool {
	return now > e.PublishedAt+int64(b.Options.FeedLifetimeSec)
}

// MaxForceSettlementVolume returns the share volume allowed to force-settle
// in one maintenance interval given the current supply. A cap of zero or of
// 100% and above is treated as uncapped and returns the full supply, so a
// zero-cap misconfiguration cannot starve settlement entirely.
func (b *AssetBitassetData) MaxForceSettlementVolume(currentSupply int64) int64 {
	pct := int64(b.Options.MaximumForceSettlementVolume)
	if pct == 0 || pct >= FullPercent {
		return currentSupply
	}
	// supply * pct may overflow int64; stay exact through decimal.
	v := decimal.NewFromInt(currentSupply).
		Mul(decimal.NewFromInt(pct)).
		Div(decimal.NewFromInt(FullPercent)).
		Floor()
	volume := v.IntPart()
	if volume > currentSupply {
		return currentSupply
	}
	return volume
}

// FeedPublication is one archived feed publication event, kept outside the
// live object population for history queries.
type FeedPublication struct {
	AssetID     AssetID
	Publisher   AccountID
	PublishedAt int64 // unix seconds
	Feed        PriceFeed
}
