package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavedash_upstream_calls_total",
			Help: "Total prediction API calls",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wavedash_upstream_latency_seconds",
			Help:    "Prediction API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	PredictionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavedash_prediction_outcomes_total",
			Help: "Dashboard prediction requests by outcome",
		},
		[]string{"outcome"},
	)

	StaleResponsesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wavedash_stale_responses_dropped_total",
			Help: "Prediction responses dropped because a newer request was issued",
		},
	)

	HeatmapLocationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavedash_heatmap_location_failures_total",
			Help: "Per-location heatmap fetch failures",
		},
		[]string{"location"},
	)

	ReferenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavedash_reference_cache_lookups_total",
			Help: "Reference data cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
)
