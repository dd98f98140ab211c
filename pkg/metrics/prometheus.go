package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	syncsTotal    *prometheus.CounterVec
	syncDuration  *prometheus.HistogramVec
	fetchesTotal  *prometheus.CounterVec
	rowsUpserted  *prometheus.CounterVec
	rowsDropped   *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		syncsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curvedash_syncs_total",
				Help: "Total sync cycles by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		syncDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curvedash_sync_duration_seconds",
				Help:    "Duration of sync cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curvedash_source_fetches_total",
				Help: "Total upstream fetch attempts by source and result",
			},
			[]string{"source", "result"},
		),
		rowsUpserted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curvedash_rows_upserted_total",
				Help: "Total packets written through upsert",
			},
			[]string{"source"},
		),
		rowsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curvedash_rows_dropped_total",
				Help: "Raw rows dropped by the normalizer (no timestamp)",
			},
			[]string{"source"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curvedash_cache_hits_total",
				Help: "Cache sufficiency hits by kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordSync records the outcome of a sync cycle.
func (r *Recorder) RecordSync(source, outcome string) {
	r.syncsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordSyncDuration records how long a sync cycle took.
func (r *Recorder) RecordSyncDuration(source string, seconds float64) {
	r.syncDuration.WithLabelValues(source).Observe(seconds)
}

// RecordFetch records an upstream fetch attempt.
func (r *Recorder) RecordFetch(source string, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	r.fetchesTotal.WithLabelValues(source, result).Inc()
}

// RecordRowsUpserted records packets written through upsert.
func (r *Recorder) RecordRowsUpserted(source string, n int) {
	r.rowsUpserted.WithLabelValues(source).Add(float64(n))
}

// RecordRowsDropped records rows the normalizer dropped.
func (r *Recorder) RecordRowsDropped(source string, n int) {
	r.rowsDropped.WithLabelValues(source).Add(float64(n))
}

// RecordCacheHit records a cache sufficiency hit.
func (r *Recorder) RecordCacheHit(kind string) {
	r.cacheHits.WithLabelValues(kind).Inc()
}
