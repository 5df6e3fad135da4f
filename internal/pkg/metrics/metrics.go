// Package metrics defines and registers all custom Prometheus metrics for the
// parcel tracker. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parcel_tracker"

// ── Carrier metrics ───────────────────────────────────────────────────────────

// CarrierRequestsTotal counts calls made to the carrier tracking API.
// Label:
//   - outcome: "success", "timeout", "network_error", "http_error",
//     "upstream_error" or "malformed"
var CarrierRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "carrier_requests_total",
		Help:      "Total number of carrier tracking API calls, by outcome.",
	},
	[]string{"outcome"},
)

// CarrierRequestDuration measures the round trip to the carrier API.
var CarrierRequestDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "carrier_request_duration_seconds",
		Help:      "Duration of carrier tracking API calls.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
	},
)

// CarrierQuotaUsed is the carrier's daily request counter as last reported.
var CarrierQuotaUsed = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "carrier_quota_used",
		Help:      "Tracking requests consumed today according to the carrier.",
	},
)

// CarrierQuotaLimit is the carrier's daily request limit as last reported.
var CarrierQuotaLimit = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "carrier_quota_limit",
		Help:      "Daily tracking request limit according to the carrier.",
	},
)

// ── Normalisation metrics ─────────────────────────────────────────────────────

// UnmappedStatusCodesTotal counts carrier status codes missing from the
// mapping table.
// Label:
//   - code: the raw carrier code
var UnmappedStatusCodesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unmapped_status_codes_total",
		Help:      "Carrier status codes that resolved to unknown because they are not mapped.",
	},
	[]string{"code"},
)

// DateConversionFailuresTotal counts carrier timestamps that could not be
// converted and were replaced by the current time.
var DateConversionFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "date_conversion_failures_total",
		Help:      "Carrier timestamps that failed conversion and were substituted with the current time.",
	},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// TrackingCacheLookupsTotal counts cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var TrackingCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_cache_lookups_total",
		Help:      "Tracking cache lookups, labelled by result (hit/miss/error).",
	},
	[]string{"result"},
)

// ── Parcel metrics ────────────────────────────────────────────────────────────

// ParcelsCreatedTotal counts newly registered parcels.
// Label:
//   - country: destination country as entered by the user
var ParcelsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parcels_created_total",
		Help:      "Total number of parcels registered, by destination country.",
	},
	[]string{"country"},
)

// ParcelRefreshesTotal counts per-parcel refresh attempts.
// Label:
//   - result: "refreshed" or "failed"
var ParcelRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parcel_refreshes_total",
		Help:      "Parcel status refresh attempts, by result.",
	},
	[]string{"result"},
)

// RefreshRunDuration measures a full background refresh pass.
var RefreshRunDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_run_duration_seconds",
		Help:      "Duration of a full refresh pass over all stored parcels.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	},
)
