// Package geo defines the point record model shared by the map, list, and
// overlay surfaces, and the identity resolution used to recognize the same
// real-world feature across independent copies of a dataset.
package geo

import (
	"time"

	"github.com/google/uuid"
)

// Note is a single free-text annotation entry. Notes are append-only: once
// created they are never edited or deleted individually, only cleared at the
// record level.
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewNote creates a note with a unique ID and the current timestamp.
func NewNote(text string) Note {
	return Note{
		ID:        uuid.New().String(),
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// Annotation is the user-added state riding on a point record. It is the
// only part of a record that must outlive a snapshot replacement.
type Annotation struct {
	Flagged bool   `json:"flagged" yaml:"flagged"`
	Notes   []Note `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Clone returns a deep copy of the annotation.
func (a *Annotation) Clone() Annotation {
	clone := Annotation{Flagged: a.Flagged}
	if len(a.Notes) > 0 {
		clone.Notes = make([]Note, len(a.Notes))
		copy(clone.Notes, a.Notes)
	}
	return clone
}

// PointRecord is one geographic feature. The data source supplies no stable
// unique ID; identity across dataset copies is resolved by coordinate
// proximity with exact-name fallback (see resolver.go).
type PointRecord struct {
	Lat       float64        `json:"lat" yaml:"lat"`
	Lng       float64        `json:"lng" yaml:"lng"`
	HasCoords bool           `json:"has_coords" yaml:"has_coords"`
	Name      string         `json:"name" yaml:"name"`
	Category  string         `json:"category,omitempty" yaml:"category,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Annotation is mutable; everything above is immutable once the record
	// has been built into a snapshot.
	Annotation Annotation `json:"annotation" yaml:"annotation"`
}

// NewPointRecord builds a record with coordinates.
func NewPointRecord(lat, lng float64, name, category string) *PointRecord {
	return &PointRecord{
		Lat:       lat,
		Lng:       lng,
		HasCoords: true,
		Name:      name,
		Category:  category,
	}
}

// NewNamedRecord builds a record without usable coordinates. Identity for
// such records is resolved by name only.
func NewNamedRecord(name, category string) *PointRecord {
	return &PointRecord{
		Name:     name,
		Category: category,
	}
}

// Snapshot is the ordered sequence of point records currently shown on all
// surfaces. A snapshot is replaced wholesale on filter and reload, never
// mutated element-wise; record annotations are the only mutable state.
type Snapshot []*PointRecord

// FlaggedCount returns the number of flagged records in the snapshot.
func (s Snapshot) FlaggedCount() int {
	count := 0
	for _, r := range s {
		if r.Annotation.Flagged {
			count++
		}
	}
	return count
}

// Flagged returns the flagged subset in snapshot order.
func (s Snapshot) Flagged() []*PointRecord {
	var flagged []*PointRecord
	for _, r := range s {
		if r.Annotation.Flagged {
			flagged = append(flagged, r)
		}
	}
	return flagged
}

// Categories returns the distinct categories present, in first-seen order.
func (s Snapshot) Categories() []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, r := range s {
		if r.Category == "" {
			continue
		}
		if _, ok := seen[r.Category]; !ok {
			seen[r.Category] = struct{}{}
			categories = append(categories, r.Category)
		}
	}
	return categories
}
