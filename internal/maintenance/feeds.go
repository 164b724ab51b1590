// Package maintenance implements the per-interval passes the host
// scheduler runs over the asset population: median feed recomputation,
// force-settlement counter resets, and dividend balance snapshots. Every
// pass is deterministic given its inputs and assumes the host serializes
// it against all other writes.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"bitasset-ledger/internal/domain"
	"bitasset-ledger/internal/feeds"
	"bitasset-ledger/internal/observability"
	"bitasset-ledger/internal/settlement"
	"bitasset-ledger/internal/storage"
)

// FeedMaintenance recomputes current feeds for bitassets whose feed went
// stale, touching only the stale prefix of the feed-expiration index.
type FeedMaintenance struct {
	Bitassets storage.BitassetStore

	// Eligible reports whether an account may currently publish; read from
	// external authority state per call. Nil accepts all publishers.
	Eligible feeds.EligibilityFunc

	// History is the optional publication archive; ArchivePublications is a
	// no-op without it.
	History storage.FeedHistoryStore

	// Metrics is optional.
	Metrics *observability.Metrics
}

// Run recomputes medians for every bitasset whose current feed expired
// before now. Globally settled assets are skipped: their pricing is frozen.
// Returns the number of bitassets whose current feed changed.
func (m *FeedMaintenance) Run(ctx context.Context, now int64) (int, error) {
	started := time.Now()

	stale, err := m.Bitassets.ListFeedExpiredBefore(ctx, now)
	if err != nil {
		m.countError("feeds")
		return 0, fmt.Errorf("list stale feeds: %w", err)
	}
	if m.Metrics != nil {
		m.Metrics.StaleFeedsFound.Set(float64(len(stale)))
	}

	updated := 0
	for _, b := range stale {
		if b.HasSettlement() {
			continue
		}

		result := feeds.UpdateMedianFeeds(b, now, m.Eligible)
		if err := m.Bitassets.Update(ctx, b); err != nil {
			m.countError("feeds")
			return updated, fmt.Errorf("update bitasset %s: %w", b.ID.Object(), err)
		}

		if result.Updated {
			updated++
			if m.Metrics != nil {
				m.Metrics.MedianRecomputations.Inc()
			}
		} else if m.Metrics != nil {
			m.Metrics.InsufficientFeeds.Inc()
		}
	}

	if m.Metrics != nil {
		m.Metrics.MaintenanceDuration.WithLabelValues("feeds").Observe(time.Since(started).Seconds())
	}
	return updated, nil
}

// ArchivePublications copies feed-table entries published in (since, until]
// into the history archive. Callers pass the previous call's until as since,
// so each publication is archived once even though it stays in the live
// table until overwritten.
func (m *FeedMaintenance) ArchivePublications(ctx context.Context, since, until int64) (int, error) {
	if m.History == nil {
		return 0, nil
	}

	all, err := m.Bitassets.ListAll(ctx)
	if err != nil {
		m.countError("archive")
		return 0, fmt.Errorf("list bitassets: %w", err)
	}

	var pubs []*domain.FeedPublication
	for _, b := range all {
		for publisher, e := range b.Feeds {
			if e.PublishedAt > since && e.PublishedAt <= until {
				pubs = append(pubs, &domain.FeedPublication{
					AssetID:     b.AssetID,
					Publisher:   publisher,
					PublishedAt: e.PublishedAt,
					Feed:        e.Feed,
				})
			}
		}
	}
	if len(pubs) == 0 {
		return 0, nil
	}

	if err := m.History.InsertBulk(ctx, pubs); err != nil {
		m.countError("archive")
		return 0, fmt.Errorf("archive publications: %w", err)
	}
	if m.Metrics != nil {
		m.Metrics.FeedsPublished.Add(float64(len(pubs)))
	}
	return len(pubs), nil
}

// ResetSettlementVolumes zeroes every bitasset's force-settled volume
// counter at the start of a new maintenance interval.
func (m *FeedMaintenance) ResetSettlementVolumes(ctx context.Context) error {
	all, err := m.Bitassets.ListAll(ctx)
	if err != nil {
		m.countError("volume_reset")
		return fmt.Errorf("list bitassets: %w", err)
	}

	for _, b := range all {
		if b.ForceSettledVolume == 0 {
			continue
		}
		settlement.ResetForceSettledVolume(b)
		if err := m.Bitassets.Update(ctx, b); err != nil {
			m.countError("volume_reset")
			return fmt.Errorf("update bitasset %s: %w", b.ID.Object(), err)
		}
	}
	return nil
}

func (m *FeedMaintenance) countError(pass string) {
	if m.Metrics != nil {
		m.Metrics.MaintenanceErrors.WithLabelValues(pass).Inc()
	}
}
