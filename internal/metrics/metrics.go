// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_mutations_total",
			Help: "Total number of record mutations",
		},
		[]string{"entity", "operation"},
	)

	SGPAHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "semester_sgpa",
			Help:    "Distribution of recomputed semester SGPAs",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
		[]string{"owner"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_lookups_total",
			Help: "Query cache lookups by result",
		},
		[]string{"result"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
