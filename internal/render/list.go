package render

import (
	"github.com/tphakala/geopin-go/internal/geo"
)

// RowStyle is the per-row style directive handed to the list view.
type RowStyle struct {
	Emphasized bool   `json:"emphasized"`
	Accent     string `json:"accent,omitempty"`
}

// ListView is the list rendering collaborator. It exposes the stable
// row-to-snapshot-index mapping established when the list was built and
// accepts per-row style directives; the rendering pipeline itself is out of
// scope.
type ListView interface {
	Rows() int
	RecordIndex(row int) int
	SetRowStyle(row int, style RowStyle) error
}

// ListAdapter emphasizes the rows whose backing record is flagged.
type ListAdapter struct {
	view   ListView
	accent string
}

// NewListAdapter creates the list adapter. view may be nil when the list has
// not been built yet; Apply then no-ops.
func NewListAdapter(view ListView, accent string) *ListAdapter {
	return &ListAdapter{view: view, accent: accent}
}

// Name implements Surface.
func (a *ListAdapter) Name() string { return "list" }

// Apply implements Surface. Every visible row is restyled from its backing
// record, so the call is idempotent and also clears stale emphasis.
func (a *ListAdapter) Apply(snapshot geo.Snapshot) error {
	if a.view == nil {
		return errMissingSurface(a.Name())
	}

	for row := 0; row < a.view.Rows(); row++ {
		index := a.view.RecordIndex(row)
		if index < 0 || index >= len(snapshot) {
			// Row maps outside the live snapshot, e.g. the list has not
			// been rebuilt after a swap yet. Skip rather than guess.
			continue
		}

		style := RowStyle{}
		if snapshot[index].Annotation.Flagged {
			style = RowStyle{Emphasized: true, Accent: a.accent}
		}
		if err := a.view.SetRowStyle(row, style); err != nil {
			return err
		}
	}

	return nil
}
