package render

import (
	"github.com/tphakala/geopin-go/internal/geo"
)

// SessionView exposes the currently open detail-overlay session to the
// render fan-out without the render package knowing about session
// management. Implemented by the overlay session manager.
type SessionView interface {
	// OpenRecord returns the record behind the open overlay, or nil when no
	// overlay is open.
	OpenRecord() *geo.PointRecord
	// RefreshAnnotation re-renders only the annotation-dependent fragment
	// of the open overlay (flag toggle, notes list). It must not rebuild
	// the whole overlay, which would discard transient UI state such as an
	// in-progress note draft.
	RefreshAnnotation(annotation geo.Annotation) error
}

// OverlayAdapter keeps an open detail overlay in step with annotation state.
type OverlayAdapter struct {
	session SessionView
}

// NewOverlayAdapter creates the detail-overlay adapter. session may be nil
// when no session manager exists; Apply then no-ops.
func NewOverlayAdapter(session SessionView) *OverlayAdapter {
	return &OverlayAdapter{session: session}
}

// Name implements Surface.
func (a *OverlayAdapter) Name() string { return "overlay" }

// Apply implements Surface. A closed overlay is the normal idle state, not a
// missing surface.
func (a *OverlayAdapter) Apply(geo.Snapshot) error {
	if a.session == nil {
		return errMissingSurface(a.Name())
	}

	record := a.session.OpenRecord()
	if record == nil {
		return nil
	}

	return a.session.RefreshAnnotation(record.Annotation.Clone())
}
