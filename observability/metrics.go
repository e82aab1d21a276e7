// Package observability provides Prometheus metrics for the dashboard.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Load outcomes recorded on LoadsTotal.
const (
	LoadApplied    = "applied"
	LoadSuperseded = "superseded"
	LoadEmpty      = "empty"
	LoadFailed     = "failed"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Load metrics
	LoadsTotal         *prometheus.CounterVec
	ScopeFetchFailures *prometheus.CounterVec
	RecordsLoaded      prometheus.Counter
	StoreRecords       prometheus.Gauge

	// Filter metrics
	FilterUpdates       *prometheus.CounterVec
	FilteredRecords     prometheus.Gauge
	AggregationDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates a new Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "listings_dashboard"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		LoadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Record store loads by outcome",
		}, []string{"outcome"}),
		ScopeFetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scope_fetch_failures_total",
			Help:      "Per-scope fetches that yielded no rows",
		}, []string{"city", "period"}),
		RecordsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Listing records loaded into the store",
		}),
		StoreRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_records",
			Help:      "Listing records currently held in the store",
		}),
		FilterUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_updates_total",
			Help:      "Filter state updates by kind",
		}, []string{"kind"}),
		FilteredRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "filtered_records",
			Help:      "Records in the latest filtered view",
		}),
		AggregationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Time to build one snapshot",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		registry: reg,
	}
}

// Handler returns the HTTP handler for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
