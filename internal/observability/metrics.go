// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the asset ledger core.
type Metrics struct {
	// Feed metrics
	FeedsPublished       prometheus.Counter
	MedianRecomputations prometheus.Counter
	InsufficientFeeds    prometheus.Counter
	StaleFeedsFound      prometheus.Gauge

	// Settlement metrics
	GlobalSettlements prometheus.Counter
	ForceSettlements  prometheus.Counter
	VolumeThrottled   prometheus.Counter

	// Dividend metrics
	DividendSnapshots prometheus.Counter

	// Maintenance metrics
	MaintenanceDuration *prometheus.HistogramVec
	MaintenanceErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "asset_ledger"
	}

	return &Metrics{
		FeedsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feeds_published_total",
			Help:      "Total price feed publications accepted",
		}),
		MedianRecomputations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "median_recomputations_total",
			Help:      "Total successful current-feed median recomputations",
		}),
		InsufficientFeeds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insufficient_feeds_total",
			Help:      "Median recomputations skipped for lack of qualifying feeds",
		}),
		StaleFeedsFound: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stale_feeds",
			Help:      "Bitassets with an expired current feed at the last pass",
		}),
		GlobalSettlements: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "global_settlements_total",
			Help:      "Total global settlement transitions",
		}),
		ForceSettlements: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "force_settlements_total",
			Help:      "Total force settlements recorded",
		}),
		VolumeThrottled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "force_settlements_throttled_total",
			Help:      "Force settlements rejected by the interval volume cap",
		}),
		DividendSnapshots: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dividend_snapshots_total",
			Help:      "Dividend balance snapshots rolled forward",
		}),
		MaintenanceDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "maintenance_duration_seconds",
			Help:      "Duration of maintenance passes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pass"}),
		MaintenanceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_errors_total",
			Help:      "Errors during maintenance passes",
		}, []string{"pass"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
