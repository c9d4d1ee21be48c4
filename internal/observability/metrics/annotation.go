// Package metrics provides custom Prometheus metrics for the GeoPin-Go
// annotation synchronizer components.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnnotationMetrics contains all Prometheus metrics related to annotation mutations.
type AnnotationMetrics struct {
	FlagSets        *prometheus.CounterVec
	NotesAppended   prometheus.Counter
	NotesRejected   prometheus.Counter
	FlagsCleared    prometheus.Counter
	FlaggedRecords  prometheus.Gauge
	MutationLatency prometheus.Histogram
	registry        *prometheus.Registry
}

// NewAnnotationMetrics creates a new instance of AnnotationMetrics.
// It requires a Prometheus registry to register the metrics.
func NewAnnotationMetrics(registry *prometheus.Registry) (*AnnotationMetrics, error) {
	m := &AnnotationMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize annotation metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register annotation metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for AnnotationMetrics.
func (m *AnnotationMetrics) initMetrics() error {
	m.FlagSets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annotation_flag_sets_total",
		Help: "Total number of flag mutations by resulting value",
	}, []string{"value"})

	m.NotesAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "annotation_notes_appended_total",
		Help: "Total number of notes appended to records",
	})

	m.NotesRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "annotation_notes_rejected_total",
		Help: "Total number of note appends rejected by validation",
	})

	m.FlagsCleared = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "annotation_flags_cleared_total",
		Help: "Total number of records unflagged by clear-all operations",
	})

	m.FlaggedRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "annotation_flagged_records",
		Help: "Current number of flagged records in the live snapshot",
	})

	m.MutationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "annotation_mutation_duration_seconds",
		Help:    "Duration of annotation mutations including render fan-out",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	return nil
}

// RecordFlagSet counts one flag mutation.
func (m *AnnotationMetrics) RecordFlagSet(value bool) {
	m.FlagSets.WithLabelValues(fmt.Sprintf("%t", value)).Inc()
}

// RecordNoteAppended counts one accepted note.
func (m *AnnotationMetrics) RecordNoteAppended() {
	m.NotesAppended.Inc()
}

// RecordNoteRejected counts one note rejected by validation.
func (m *AnnotationMetrics) RecordNoteRejected() {
	m.NotesRejected.Inc()
}

// RecordFlagsCleared counts records unflagged by a clear-all operation.
func (m *AnnotationMetrics) RecordFlagsCleared(count int) {
	m.FlagsCleared.Add(float64(count))
}

// SetFlaggedRecords updates the flagged record gauge.
func (m *AnnotationMetrics) SetFlaggedRecords(count int) {
	m.FlaggedRecords.Set(float64(count))
}

// ObserveMutationDuration records the duration of one mutation.
func (m *AnnotationMetrics) ObserveMutationDuration(d time.Duration) {
	m.MutationLatency.Observe(d.Seconds())
}

// Describe implements the prometheus.Collector interface.
func (m *AnnotationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.FlagSets.Describe(ch)
	m.NotesAppended.Describe(ch)
	m.NotesRejected.Describe(ch)
	m.FlagsCleared.Describe(ch)
	m.FlaggedRecords.Describe(ch)
	m.MutationLatency.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *AnnotationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.FlagSets.Collect(ch)
	m.NotesAppended.Collect(ch)
	m.NotesRejected.Collect(ch)
	m.FlagsCleared.Collect(ch)
	m.FlaggedRecords.Collect(ch)
	m.MutationLatency.Collect(ch)
}
