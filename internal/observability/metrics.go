// Package observability provides metrics and monitoring capabilities for the
// GeoPin-Go application.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tphakala/geopin-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	Annotation *metrics.AnnotationMetrics
	Dataset    *metrics.DatasetMetrics
	Render     *metrics.RenderMetrics
	Overlay    *metrics.OverlayMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	annotationMetrics, err := metrics.NewAnnotationMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create annotation metrics: %w", err)
	}

	datasetMetrics, err := metrics.NewDatasetMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset metrics: %w", err)
	}

	renderMetrics, err := metrics.NewRenderMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create render metrics: %w", err)
	}

	overlayMetrics, err := metrics.NewOverlayMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay metrics: %w", err)
	}

	// Standard process and Go runtime collectors
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Metrics{
		registry:   registry,
		Annotation: annotationMetrics,
		Dataset:    datasetMetrics,
		Render:     renderMetrics,
		Overlay:    overlayMetrics,
	}, nil
}

// Registry returns the Prometheus registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
