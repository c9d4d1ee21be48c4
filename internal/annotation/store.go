// Package annotation holds user state attached to point records: a boolean
// flag and a list of free-text notes. The live snapshot itself is the store;
// annotations live on the records and travel with them through filter swaps
// via the dataset bridge. The Service in this package is the single mutation
// entry point and owns the render fan-out ordering.
package annotation

import (
	"strings"

	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/geo"
)

// Store implements the record-attached annotation operations. It carries no
// state of its own; all methods mutate the record in place. Callers wanting
// the surfaces repainted go through the Service instead.
type Store struct{}

// NewStore returns the annotation store.
func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the record's annotation. Total: a nil record and an
// untouched record both yield the zero annotation.
func (s *Store) Get(record *geo.PointRecord) geo.Annotation {
	if record == nil {
		return geo.Annotation{}
	}
	return record.Annotation.Clone()
}

// SetFlag sets the flagged state and reports whether the stored value
// changed. Setting the current value again is a state no-op, but callers
// still repaint on it; that is how a forced refresh is expressed.
func (s *Store) SetFlag(record *geo.PointRecord, value bool) (changed bool, err error) {
	if record == nil {
		return false, errors.ValidationError("cannot flag a nil record")
	}
	changed = record.Annotation.Flagged != value
	record.Annotation.Flagged = value
	return changed, nil
}

// ToggleFlag flips the flagged state and returns the new value.
func (s *Store) ToggleFlag(record *geo.PointRecord) (bool, error) {
	if record == nil {
		return false, errors.ValidationError("cannot flag a nil record")
	}
	record.Annotation.Flagged = !record.Annotation.Flagged
	return record.Annotation.Flagged, nil
}

// AppendNote appends a note with the current timestamp. Text is trimmed
// first; text that trims to empty is rejected with a validation error and
// the record is left untouched. Notes are append-only.
func (s *Store) AppendNote(record *geo.PointRecord, text string) (geo.Note, error) {
	if record == nil {
		return geo.Note{}, errors.ValidationError("cannot attach a note to a nil record")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return geo.Note{}, errors.ValidationError("note text is empty")
	}

	note := geo.NewNote(trimmed)
	record.Annotation.Notes = append(record.Annotation.Notes, note)
	return note, nil
}

// ClearNotes removes every note from the record and returns how many were
// removed. There is no per-note delete.
func (s *Store) ClearNotes(record *geo.PointRecord) (int, error) {
	if record == nil {
		return 0, errors.ValidationError("cannot clear notes on a nil record")
	}
	removed := len(record.Annotation.Notes)
	record.Annotation.Notes = nil
	return removed, nil
}

// ClearAllFlags unflags every record in the snapshot and returns how many
// records actually changed. Notes are left alone.
func (s *Store) ClearAllFlags(snapshot geo.Snapshot) int {
	changed := 0
	for _, record := range snapshot {
		if record != nil && record.Annotation.Flagged {
			record.Annotation.Flagged = false
			changed++
		}
	}
	return changed
}
