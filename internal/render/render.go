// Package render pushes annotation state to the three display surfaces: the
// map, the record list, and the detail overlay. Every adapter is idempotent
// and derives its full output from the live snapshot, so redundant syncs are
// harmless. A missing surface target never aborts the fan-out; the remaining
// adapters still run.
package render

import (
	"log/slog"
	"time"

	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/geo"
	"github.com/tphakala/geopin-go/internal/logging"
	"github.com/tphakala/geopin-go/internal/observability/metrics"
)

// Surface is one render target adapter. Apply must be safe to call
// redundantly and must never leave the surface showing a partially-applied
// annotation state.
type Surface interface {
	Name() string
	Apply(snapshot geo.Snapshot) error
}

// errMissingSurface marks an adapter whose external target is absent, e.g.
// the map not yet initialized. Recovered in the dispatcher, never escalated.
func errMissingSurface(surface string) error {
	return errors.Newf("surface %s has no target, skipping sync", surface).
		Component("render").
		Category(errors.CategoryRenderSurface).
		Priority(errors.PriorityLow).
		Build()
}

// Dispatcher invokes all registered surfaces in registration order.
// Fan-out is synchronous: when Sync returns, every surface has observed the
// given snapshot state.
type Dispatcher struct {
	surfaces []Surface
	logger   *slog.Logger
	metrics  *metrics.RenderMetrics
}

// NewDispatcher creates a render dispatcher. metrics may be nil.
func NewDispatcher(m *metrics.RenderMetrics) *Dispatcher {
	return &Dispatcher{
		logger:  logging.ForService("render"),
		metrics: m,
	}
}

// Register appends a surface to the fan-out order.
func (d *Dispatcher) Register(s Surface) {
	d.surfaces = append(d.surfaces, s)
	d.logger.Info("render surface registered", "surface", s.Name())
}

// SurfaceNames returns the registered surface names in fan-out order.
func (d *Dispatcher) SurfaceNames() []string {
	names := make([]string, 0, len(d.surfaces))
	for _, s := range d.surfaces {
		names = append(names, s.Name())
	}
	return names
}

// Sync applies the snapshot to every surface. Surface errors are logged and
// counted but never propagated; no failure here may make the map or list
// unresponsive.
func (d *Dispatcher) Sync(snapshot geo.Snapshot) {
	start := time.Now()

	for _, s := range d.surfaces {
		err := s.Apply(snapshot)
		switch {
		case err == nil:
			if d.metrics != nil {
				d.metrics.RecordSurfaceApply(s.Name())
			}
		case errors.IsCategory(err, errors.CategoryRenderSurface):
			if d.metrics != nil {
				d.metrics.RecordMissingSurface(s.Name())
			}
			d.logger.Debug("surface target missing, skipped", "surface", s.Name())
		default:
			if d.metrics != nil {
				d.metrics.RecordSurfaceError(s.Name())
			}
			d.logger.Error("surface apply failed", "surface", s.Name(), "error", err)
		}
	}

	if d.metrics != nil {
		d.metrics.RecordSyncRun()
		d.metrics.ObserveSyncDuration(time.Since(start))
	}
}
