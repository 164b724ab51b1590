// Package feeds implements price-feed publication and the element-wise
// median aggregation that produces a bitasset's current feed.
package feeds

import (
	"fmt"
	"sort"

	"bitasset-ledger/internal/domain"
)

// EligibilityFunc reports whether an account is currently authorized to
// publish feeds for the asset under maintenance. Eligibility is read from
// external authority state at call time, never cached: a publisher losing
// eligibility silently stops contributing without a table purge.
type EligibilityFunc func(domain.AccountID) bool

// AllPublishers treats every publisher in the feed table as eligible.
func AllPublishers(domain.AccountID) bool { return true }

// Publish records one publisher's feed, replacing any previous entry for
// that publisher. Publication is refused after global settlement.
func Publish(b *domain.AssetBitassetData, publisher domain.AccountID, now int64, feed domain.PriceFeed) error {
	if b.HasSettlement() {
		return fmt.Errorf("publish feed for %s: %w", b.AssetID.Object(), domain.ErrSettledImmutable)
	}
	if b.Feeds == nil {
		b.Feeds = make(map[domain.AccountID]domain.FeedEntry)
	}
	b.Feeds[publisher] = domain.FeedEntry{PublishedAt: now, Feed: feed}
	return nil
}

// UpdateResult describes the outcome of one median recomputation.
type UpdateResult struct {
	// Updated is true when CurrentFeed was recomputed from a sufficient
	// sample. False is a no-op signal, not an error.
	Updated bool

	// ContributingFeeds is the size of the qualifying sample.
	ContributingFeeds int
}

// UpdateMedianFeeds recomputes the current feed as the element-wise median
// of all feeds from eligible publishers that are not stale at now. Nothing
// is removed from the feed table: staleness is a filter, not a deletion.
//
// When fewer than MinimumFeeds entries qualify, the options' MedianPolicy
// decides whether the previous feed stays in force or is reset to null; in
// either case the result reports a no-op.
//
// On success CurrentFeedPublicationTime is set to the oldest contributing
// publication time, deliberately lagging so that one stale feed cannot be
// refreshed by unrelated updates.
func UpdateMedianFeeds(b *domain.AssetBitassetData, now int64, eligible EligibilityFunc) UpdateResult {
	if eligible == nil {
		eligible = AllPublishers
	}

	var (
		entries []domain.FeedEntry
		oldest  int64
	)
	for publisher, e := range b.Feeds {
		if !eligible(publisher) {
			continue
		}
		if b.EntryIsExpired(e, now) {
			continue
		}
		if len(entries) == 0 || e.PublishedAt < oldest {
			oldest = e.PublishedAt
		}
		entries = append(entries, e)
	}

	if len(entries) < int(b.Options.MinimumFeeds) || len(entries) == 0 {
		if b.Options.MedianPolicy == domain.MedianPolicyReset {
			b.CurrentFeed = domain.PriceFeed{}
			b.CurrentFeedPublicationTime = now
		}
		return UpdateResult{Updated: false, ContributingFeeds: len(entries)}
	}

	b.CurrentFeed = medianFeed(entries)
	b.CurrentFeedPublicationTime = oldest
	return UpdateResult{Updated: true, ContributingFeeds: len(entries)}
}

// medianFeed computes the element-wise median: each feed component is
// sorted independently and its median taken. An even-sized sample uses the
// lower middle element, keeping the result deterministic.
func medianFeed(entries []domain.FeedEntry) domain.PriceFeed {
	n := len(entries)
	mid := (n - 1) / 2

	settlement := make([]domain.Price, n)
	cer := make([]domain.Price, n)
	mcr := make([]uint16, n)
	mssr := make([]uint16, n)
	for i, e := range entries {
		settlement[i] = e.Feed.SettlementPrice
		cer[i] = e.Feed.CoreExchangeRate
		mcr[i] = e.Feed.MaintenanceCollateralRatio
		mssr[i] = e.Feed.MaximumShortSqueezeRatio
	}

	sortPrices(settlement)
	sortPrices(cer)
	sort.Slice(mcr, func(i, j int) bool { return mcr[i] < mcr[j] })
	sort.Slice(mssr, func(i, j int) bool { return mssr[i] < mssr[j] })

	return domain.PriceFeed{
		SettlementPrice:            settlement[mid],
		CoreExchangeRate:           cer[mid],
		MaintenanceCollateralRatio: mcr[mid],
		MaximumShortSqueezeRatio:   mssr[mid],
	}
}

func sortPrices(prices []domain.Price) {
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Compare(prices[j]) < 0
	})
}
