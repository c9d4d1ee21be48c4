package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatasetMetrics contains all Prometheus metrics related to snapshot swaps
// and the filter-preservation bridge.
type DatasetMetrics struct {
	Swaps            prometheus.Counter
	SnapshotSize     prometheus.Gauge
	FlagsCaptured    prometheus.Counter
	FlagsRestored    prometheus.Counter
	AmbiguousMatches prometheus.Counter
	SwapLatency      prometheus.Histogram
	FetchErrors      *prometheus.CounterVec
	registry         *prometheus.Registry
}

// NewDatasetMetrics creates a new instance of DatasetMetrics.
func NewDatasetMetrics(registry *prometheus.Registry) (*DatasetMetrics, error) {
	m := &DatasetMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize dataset metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register dataset metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for DatasetMetrics.
func (m *DatasetMetrics) initMetrics() error {
	m.Swaps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_snapshot_swaps_total",
		Help: "Total number of snapshot replacements",
	})

	m.SnapshotSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dataset_snapshot_records",
		Help: "Number of records in the live snapshot",
	})

	m.FlagsCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_flags_captured_total",
		Help: "Total number of flagged identities captured before snapshot swaps",
	})

	m.FlagsRestored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_flags_restored_total",
		Help: "Total number of flags restored after snapshot swaps",
	})

	m.AmbiguousMatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_ambiguous_matches_total",
		Help: "Total number of ambiguous identity matches during restoration",
	})

	m.SwapLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dataset_swap_duration_seconds",
		Help:    "Duration of snapshot swaps including bridge capture and restore",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	m.FetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_fetch_errors_total",
		Help: "Total number of dataset fetch errors by kind",
	}, []string{"kind"})

	return nil
}

// RecordSwap counts one snapshot swap and updates the size gauge.
func (m *DatasetMetrics) RecordSwap(snapshotSize int) {
	m.Swaps.Inc()
	m.SnapshotSize.Set(float64(snapshotSize))
}

// RecordCapture counts flagged identities captured before a swap.
func (m *DatasetMetrics) RecordCapture(count int) {
	m.FlagsCaptured.Add(float64(count))
}

// RecordRestore counts flags restored after a swap.
func (m *DatasetMetrics) RecordRestore(count int) {
	m.FlagsRestored.Add(float64(count))
}

// RecordAmbiguousMatch counts one ambiguous restoration match.
func (m *DatasetMetrics) RecordAmbiguousMatch() {
	m.AmbiguousMatches.Inc()
}

// ObserveSwapDuration records the duration of one swap.
func (m *DatasetMetrics) ObserveSwapDuration(d time.Duration) {
	m.SwapLatency.Observe(d.Seconds())
}

// RecordFetchError counts one dataset fetch error.
func (m *DatasetMetrics) RecordFetchError(kind string) {
	m.FetchErrors.WithLabelValues(kind).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *DatasetMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Swaps.Describe(ch)
	m.SnapshotSize.Describe(ch)
	m.FlagsCaptured.Describe(ch)
	m.FlagsRestored.Describe(ch)
	m.AmbiguousMatches.Describe(ch)
	m.SwapLatency.Describe(ch)
	m.FetchErrors.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *DatasetMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Swaps.Collect(ch)
	m.SnapshotSize.Collect(ch)
	m.FlagsCaptured.Collect(ch)
	m.FlagsRestored.Collect(ch)
	m.AmbiguousMatches.Collect(ch)
	m.SwapLatency.Collect(ch)
	m.FetchErrors.Collect(ch)
}
