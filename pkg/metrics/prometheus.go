package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal  *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	rowsDropped   *prometheus.CounterVec
	snapshotRows  *prometheus.GaugeVec
	snapshotAge   *prometheus.GaugeVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldash_fetches_total",
				Help: "Total number of snapshot fetches from object storage",
			},
			[]string{"source"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldash_fetch_errors_total",
				Help: "Total number of snapshot fetch failures by kind",
			},
			[]string{"source", "kind"},
		),
		fetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldash_fetch_duration_seconds",
				Help:    "Duration of snapshot fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		rowsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldash_rows_dropped_total",
				Help: "Feed rows dropped during validation by reason",
			},
			[]string{"source", "reason"},
		),
		snapshotRows: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldash_snapshot_rows",
				Help: "Number of per-coin records in the latest snapshot",
			},
			[]string{"source"},
		),
		snapshotAge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldash_snapshot_age_seconds",
				Help: "Age of the latest snapshot's newest row at fetch time",
			},
			[]string{"source"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldash_cache_hits_total",
				Help: "Snapshot cache hits by loader",
			},
			[]string{"loader"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldash_cache_misses_total",
				Help: "Snapshot cache misses by loader",
			},
			[]string{"loader"},
		),
	}
}

// RecordFetch records a completed storage fetch.
func (r *Recorder) RecordFetch(source string, dur time.Duration) {
	r.fetchesTotal.WithLabelValues(source).Inc()
	r.fetchDuration.WithLabelValues(source).Observe(dur.Seconds())
}

// RecordFetchError records a fetch failure.
func (r *Recorder) RecordFetchError(source, kind string) {
	r.fetchErrors.WithLabelValues(source, kind).Inc()
}

// RecordRowsDropped records rows removed during validation.
func (r *Recorder) RecordRowsDropped(source, reason string, n int) {
	if n > 0 {
		r.rowsDropped.WithLabelValues(source, reason).Add(float64(n))
	}
}

// RecordSnapshot records the reduced snapshot size and staleness.
func (r *Recorder) RecordSnapshot(source string, rows int, age time.Duration) {
	r.snapshotRows.WithLabelValues(source).Set(float64(rows))
	r.snapshotAge.WithLabelValues(source).Set(age.Seconds())
}

// RecordCacheHit records a snapshot served from cache.
func (r *Recorder) RecordCacheHit(loader string) {
	r.cacheHits.WithLabelValues(loader).Inc()
}

// RecordCacheMiss records a snapshot that required a storage fetch.
func (r *Recorder) RecordCacheMiss(loader string) {
	r.cacheMisses.WithLabelValues(loader).Inc()
}
