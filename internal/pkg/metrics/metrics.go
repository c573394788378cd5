package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignaturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydesk_signatures_total",
		Help: "Request signatures produced, by venue and outcome",
	}, []string{"venue", "status"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydesk_upstream_requests_total",
		Help: "Venue HTTP calls by venue and status class",
	}, []string{"venue", "status"})

	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydesk_orders_total",
		Help: "The total number of orders processed",
	}, []string{"status", "side"})

	GateEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydesk_trading_gate_evaluations_total",
		Help: "Trading gate evaluations by terminal stage",
	}, []string{"stage"})

	AggregationSources = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polydesk_aggregation_source_runs_total",
		Help: "Event aggregation strategy runs by source and outcome",
	}, []string{"source", "status"})

	AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polydesk_aggregation_duration_seconds",
		Help:    "Wall time of a full event aggregation",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 15, 30, 60},
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polydesk_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// StatusClass collapses an HTTP status into a low-cardinality label.
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code == 401:
		return "401"
	case code == 429:
		return "429"
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 200 && code < 300:
		return "2xx"
	default:
		return "other"
	}
}
