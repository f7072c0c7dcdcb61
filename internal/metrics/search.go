package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lawsearch",
			Name:      "search_runs_total",
			Help:      "Total number of search runs by outcome",
		},
		[]string{"outcome"}, // "done" / "failed" / "rejected" / "cancelled"
	)

	SearchRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lawsearch",
			Name:      "search_run_duration_seconds",
			Help:      "End-to-end search run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"cached"}, // "hit" / "miss"
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lawsearch",
			Name:      "search_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearchBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lawsearch",
			Name:      "search_batches_total",
			Help:      "Total number of scored-and-hydrated result batches emitted",
		},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lawsearch",
			Name:      "embedding_cache_total",
			Help:      "Query embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRunsTotal)
	prometheus.MustRegister(SearchRunDuration)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(SearchBatchesTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	searchMetricsRegistered = true
}
