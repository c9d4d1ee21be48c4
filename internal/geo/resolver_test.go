package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameFeatureCoordinateMatch(t *testing.T) {
	t.Parallel()

	a := NewPointRecord(53.0, -7.5, "A", "pub")
	b := NewPointRecord(53.00005, -7.50005, "renamed", "pub")

	// Within epsilon, names differ but coordinates decide
	assert.True(t, SameFeature(a, b, 0.0001))

	// Tighter epsilon rejects the same pair
	assert.False(t, SameFeature(a, b, 0.00001))
}

func TestSameFeatureNameFallback(t *testing.T) {
	t.Parallel()

	// Coordinates too far apart, same name
	a := NewPointRecord(53.0, -7.5, "Rock of Cashel", "")
	b := NewPointRecord(53.1, -7.6, "Rock of Cashel", "")
	assert.True(t, SameFeature(a, b, 0.0001))

	// Missing coordinates on one side, same name
	c := NewNamedRecord("Rock of Cashel", "")
	assert.True(t, SameFeature(a, c, 0.0001))

	// Name comparison is case-sensitive
	d := NewNamedRecord("rock of cashel", "")
	assert.False(t, SameFeature(a, d, 0.0001))
}

func TestSameFeatureEmptyNamesNeverMatch(t *testing.T) {
	t.Parallel()

	a := NewNamedRecord("", "")
	b := NewNamedRecord("", "")
	assert.False(t, SameFeature(a, b, 0.0001))
}

func TestSameFeatureNilRecords(t *testing.T) {
	t.Parallel()

	a := NewPointRecord(1, 2, "A", "")
	assert.False(t, SameFeature(nil, a, 0.0001))
	assert.False(t, SameFeature(a, nil, 0.0001))
	assert.False(t, SameFeature(nil, nil, 0.0001))
}

func TestSameFeatureZeroEpsilonUsesDefault(t *testing.T) {
	t.Parallel()

	a := NewPointRecord(53.0, -7.5, "A", "")
	b := NewPointRecord(53.00005, -7.50005, "B", "")
	assert.True(t, SameFeature(a, b, 0))
}

func TestSurrogateKeyFixedPrecision(t *testing.T) {
	t.Parallel()

	r := NewPointRecord(53.0001, -7.5001, "A", "pub")
	assert.Equal(t, "53.000100,-7.500100", SurrogateKey(r, 6))

	// Re-serialization below the precision cutoff yields the same key
	r2 := NewPointRecord(53.0001000004, -7.5001000004, "A", "pub")
	assert.Equal(t, SurrogateKey(r, 6), SurrogateKey(r2, 6))
}

func TestSurrogateKeyNameFallback(t *testing.T) {
	t.Parallel()

	r := NewNamedRecord("The Long Hall", "pub")
	assert.Equal(t, "n:The Long Hall", SurrogateKey(r, 6))

	empty := NewNamedRecord("", "")
	assert.Empty(t, SurrogateKey(empty, 6))
	assert.Empty(t, SurrogateKey(nil, 6))
}

func TestSnapshotFlaggedCount(t *testing.T) {
	t.Parallel()

	snapshot := Snapshot{
		NewPointRecord(53.0, -7.5, "A", "pub"),
		NewPointRecord(53.1, -7.6, "B", "castle"),
		NewPointRecord(53.2, -7.7, "C", "pub"),
	}
	assert.Equal(t, 0, snapshot.FlaggedCount())

	snapshot[0].Annotation.Flagged = true
	snapshot[2].Annotation.Flagged = true
	assert.Equal(t, 2, snapshot.FlaggedCount())

	flagged := snapshot.Flagged()
	require.Len(t, flagged, 2)
	assert.Equal(t, "A", flagged[0].Name)
	assert.Equal(t, "C", flagged[1].Name)
}

func TestSnapshotCategories(t *testing.T) {
	t.Parallel()

	snapshot := Snapshot{
		NewPointRecord(53.0, -7.5, "A", "pub"),
		NewPointRecord(53.1, -7.6, "B", "castle"),
		NewPointRecord(53.2, -7.7, "C", "pub"),
		NewNamedRecord("D", ""),
	}
	assert.Equal(t, []string{"pub", "castle"}, snapshot.Categories())
}

func TestAnnotationClone(t *testing.T) {
	t.Parallel()

	a := Annotation{Flagged: true, Notes: []Note{NewNote("first")}}
	clone := a.Clone()

	clone.Notes[0].Text = "mutated"
	clone.Flagged = false

	assert.True(t, a.Flagged)
	assert.Equal(t, "first", a.Notes[0].Text)
}
