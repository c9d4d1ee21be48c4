package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// OverlayMetrics contains all Prometheus metrics related to detail-overlay sessions.
type OverlayMetrics struct {
	SessionsOpened  prometheus.Counter
	SessionsClosed  prometheus.Counter
	ImplicitCloses  prometheus.Counter
	StaleActions    prometheus.Counter
	ActionsHandled  *prometheus.CounterVec
	registry        *prometheus.Registry
}

// NewOverlayMetrics creates a new instance of OverlayMetrics.
func NewOverlayMetrics(registry *prometheus.Registry) (*OverlayMetrics, error) {
	m := &OverlayMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize overlay metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register overlay metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for OverlayMetrics.
func (m *OverlayMetrics) initMetrics() error {
	m.SessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_sessions_opened_total",
		Help: "Total number of detail-overlay sessions opened",
	})

	m.SessionsClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_sessions_closed_total",
		Help: "Total number of detail-overlay sessions closed",
	})

	m.ImplicitCloses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_implicit_closes_total",
		Help: "Total number of sessions torn down by a newer open",
	})

	m.StaleActions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_stale_actions_total",
		Help: "Total number of annotation actions ignored for stale sessions",
	})

	m.ActionsHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_actions_handled_total",
		Help: "Total number of annotation actions handled by kind",
	}, []string{"action"})

	return nil
}

// RecordSessionOpened counts one opened session.
func (m *OverlayMetrics) RecordSessionOpened() {
	m.SessionsOpened.Inc()
}

// RecordSessionClosed counts one closed session. implicit marks teardowns
// triggered by a newer open rather than an explicit close.
func (m *OverlayMetrics) RecordSessionClosed(implicit bool) {
	m.SessionsClosed.Inc()
	if implicit {
		m.ImplicitCloses.Inc()
	}
}

// RecordStaleAction counts one silently dropped stale-session action.
func (m *OverlayMetrics) RecordStaleAction() {
	m.StaleActions.Inc()
}

// RecordActionHandled counts one handled annotation action.
func (m *OverlayMetrics) RecordActionHandled(action string) {
	m.ActionsHandled.WithLabelValues(action).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *OverlayMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.SessionsOpened.Describe(ch)
	m.SessionsClosed.Describe(ch)
	m.ImplicitCloses.Describe(ch)
	m.StaleActions.Describe(ch)
	m.ActionsHandled.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *OverlayMetrics) Collect(ch chan<- prometheus.Metric) {
	m.SessionsOpened.Collect(ch)
	m.SessionsClosed.Collect(ch)
	m.ImplicitCloses.Collect(ch)
	m.StaleActions.Collect(ch)
	m.ActionsHandled.Collect(ch)
}
