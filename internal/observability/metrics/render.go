package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RenderMetrics contains all Prometheus metrics related to render sync
// fan-out across the map, list, and overlay surfaces.
type RenderMetrics struct {
	SyncRuns        prometheus.Counter
	SurfaceApplies  *prometheus.CounterVec
	SurfaceErrors   *prometheus.CounterVec
	MissingSurfaces *prometheus.CounterVec
	SyncLatency     prometheus.Histogram
	registry        *prometheus.Registry
}

// NewRenderMetrics creates a new instance of RenderMetrics.
func NewRenderMetrics(registry *prometheus.Registry) (*RenderMetrics, error) {
	m := &RenderMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize render metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register render metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for RenderMetrics.
func (m *RenderMetrics) initMetrics() error {
	m.SyncRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "render_sync_runs_total",
		Help: "Total number of render sync fan-outs",
	})

	m.SurfaceApplies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "render_surface_applies_total",
		Help: "Total number of successful surface applies by surface",
	}, []string{"surface"})

	m.SurfaceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "render_surface_errors_total",
		Help: "Total number of surface apply errors by surface",
	}, []string{"surface"})

	m.MissingSurfaces = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "render_missing_surfaces_total",
		Help: "Total number of skipped applies due to absent surface targets",
	}, []string{"surface"})

	m.SyncLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "render_sync_duration_seconds",
		Help:    "Duration of full render sync fan-outs",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	return nil
}

// RecordSyncRun counts one fan-out across all surfaces.
func (m *RenderMetrics) RecordSyncRun() {
	m.SyncRuns.Inc()
}

// RecordSurfaceApply counts one successful surface apply.
func (m *RenderMetrics) RecordSurfaceApply(surface string) {
	m.SurfaceApplies.WithLabelValues(surface).Inc()
}

// RecordSurfaceError counts one surface apply error.
func (m *RenderMetrics) RecordSurfaceError(surface string) {
	m.SurfaceErrors.WithLabelValues(surface).Inc()
}

// RecordMissingSurface counts one skipped apply for an absent target.
func (m *RenderMetrics) RecordMissingSurface(surface string) {
	m.MissingSurfaces.WithLabelValues(surface).Inc()
}

// ObserveSyncDuration records the duration of one fan-out.
func (m *RenderMetrics) ObserveSyncDuration(d time.Duration) {
	m.SyncLatency.Observe(d.Seconds())
}

// Describe implements the prometheus.Collector interface.
func (m *RenderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.SyncRuns.Describe(ch)
	m.SurfaceApplies.Describe(ch)
	m.SurfaceErrors.Describe(ch)
	m.MissingSurfaces.Describe(ch)
	m.SyncLatency.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *RenderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.SyncRuns.Collect(ch)
	m.SurfaceApplies.Collect(ch)
	m.SurfaceErrors.Collect(ch)
	m.MissingSurfaces.Collect(ch)
	m.SyncLatency.Collect(ch)
}
