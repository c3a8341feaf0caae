package observability

import (
	"time"

	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger core.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	opDuration         *prometheus.HistogramVec
	storageErrors      *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	recordsAppended    prometheus.Counter
	loadSize           prometheus.Histogram
	validationFailures *prometheus.CounterVec
	snapshotSaves      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		opDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_storage_errors_total",
				Help: "Total key-value store failures by kind.",
			},
			[]string{"kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		recordsAppended: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_records_appended_total",
				Help: "Total records appended to the ledger.",
			},
		),
		loadSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_load_size_records",
				Help:    "Records returned per ledger load.",
				Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
			},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_validation_failures_total",
				Help: "Total rejected appends by field.",
			},
			[]string{"field"},
		),
		snapshotSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_filter_snapshots_total",
				Help: "Total filter snapshot persist attempts.",
			},
			[]string{"status"},
		),
	}
}

// RecordOpDuration records the duration of a ledger operation.
func (m *Metrics) RecordOpDuration(operation string, d time.Duration) {
	m.opDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStorageError increments the storage failure counter ("read" or "write").
func (m *Metrics) IncrStorageError(kind string) {
	m.storageErrors.WithLabelValues(kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRecordAppended counts a successful append.
func (m *Metrics) IncrRecordAppended() {
	m.recordsAppended.Inc()
}

// ObserveLoadSize records how many records a load returned.
func (m *Metrics) ObserveLoadSize(n int) {
	m.loadSize.Observe(float64(n))
}

// IncrValidationFailure counts a rejected append by offending field.
func (m *Metrics) IncrValidationFailure(field string) {
	m.validationFailures.WithLabelValues(field).Inc()
}

// IncrSnapshotSave counts a filter snapshot persist attempt ("ok" or "error").
func (m *Metrics) IncrSnapshotSave(status string) {
	m.snapshotSaves.WithLabelValues(status).Inc()
}

// GetLedgerStats returns a snapshot of ledger metrics suitable for the
// GET /v1/stats/ledger endpoint.
func (m *Metrics) GetLedgerStats() *domain.LedgerStats {
	// Gather current values from Prometheus counters.
	// Note: counters expose cumulative values since process start.
	appended := getCounterValue(m.recordsAppended)
	readErrors := getCounterValue(m.storageErrors.WithLabelValues("read"))
	writeErrors := getCounterValue(m.storageErrors.WithLabelValues("write"))
	snapshotOK := getCounterValue(m.snapshotSaves.WithLabelValues("ok"))
	snapshotErr := getCounterValue(m.snapshotSaves.WithLabelValues("error"))
	identityHits := getCounterValue(m.cacheHits.WithLabelValues("identity"))
	identityMisses := getCounterValue(m.cacheMisses.WithLabelValues("identity"))

	validations := float64(0)
	for _, field := range []string{"amount", "category", "date", "owner"} {
		validations += getCounterValue(m.validationFailures.WithLabelValues(field))
	}

	cacheHitRate := float64(0)
	if identityHits+identityMisses > 0 {
		cacheHitRate = identityHits / (identityHits + identityMisses)
	}

	return &domain.LedgerStats{
		RecordsAppended:      int64(appended),
		ValidationFailures:   int64(validations),
		StorageReadErrors:    int64(readErrors),
		StorageWriteErrors:   int64(writeErrors),
		SnapshotSaves:        int64(snapshotOK),
		SnapshotSaveFailures: int64(snapshotErr),
		IdentityCacheHitRate: cacheHitRate,
		Period:               "process_lifetime",
	}
}

// getCounterValue extracts the current float64 value from a Counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
