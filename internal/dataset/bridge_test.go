package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/geopin-go/internal/geo"
)

func newTestBridge() *Bridge {
	return NewBridge(6, 0.001, nil, nil)
}

func TestBridgeCaptureOnlyAnnotatedRecords(t *testing.T) {
	t.Parallel()

	old := geo.Snapshot{
		geo.NewPointRecord(53.0, -7.5, "A", "pub"),
		geo.NewPointRecord(53.1, -7.6, "B", "castle"),
		geo.NewPointRecord(53.2, -7.7, "C", "pub"),
	}
	old[0].Annotation.Flagged = true
	old[2].Annotation.Notes = append(old[2].Annotation.Notes, geo.NewNote("worth a visit"))

	keys := newTestBridge().CaptureAnnotations(old)
	assert.Len(t, keys, 2)

	_, hasA := keys[geo.SurrogateKey(old[0], 6)]
	_, hasB := keys[geo.SurrogateKey(old[1], 6)]
	_, hasC := keys[geo.SurrogateKey(old[2], 6)]
	assert.True(t, hasA)
	assert.False(t, hasB)
	assert.True(t, hasC)
}

func TestBridgeRoundTripExactKey(t *testing.T) {
	t.Parallel()

	// Scenario from the synchronizer contract: flag "A", replace the
	// snapshot with a re-serialized copy, "A" must come back flagged and
	// "C" must not gain a flag.
	bridge := newTestBridge()

	old := geo.Snapshot{
		geo.NewPointRecord(53.0, -7.5, "A", ""),
		geo.NewPointRecord(53.1, -7.6, "B", ""),
	}
	old[0].Annotation.Flagged = true

	keys := bridge.CaptureAnnotations(old)

	next := geo.Snapshot{
		geo.NewPointRecord(53.0, -7.5, "A", ""),
		geo.NewPointRecord(0, 0, "C", ""),
	}
	restored := bridge.RestoreAnnotations(next, keys)

	assert.Equal(t, 1, restored)
	assert.True(t, next[0].Annotation.Flagged)
	assert.False(t, next[1].Annotation.Flagged)
}

func TestBridgeRestoresShiftedCoordinatesWithinEpsilon(t *testing.T) {
	t.Parallel()

	// Flag "A", then replace the snapshot with one where A's coordinates
	// were re-serialized slightly differently. The exact key misses, the
	// resolver fallback recovers it; "C" must not gain a flag.
	bridge := newTestBridge()

	old := geo.Snapshot{
		geo.NewPointRecord(53.0, -7.5, "A", ""),
		geo.NewPointRecord(53.1, -7.6, "B", ""),
	}
	old[0].Annotation.Flagged = true
	keys := bridge.CaptureAnnotations(old)

	next := geo.Snapshot{
		geo.NewPointRecord(53.0001, -7.5001, "A", ""),
		geo.NewPointRecord(0, 0, "C", ""),
	}
	restored := bridge.RestoreAnnotations(next, keys)

	assert.Equal(t, 1, restored)
	assert.True(t, next[0].Annotation.Flagged)
	assert.False(t, next[1].Annotation.Flagged)
}

func TestBridgeIgnoresRecordsBeyondEpsilon(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge()

	old := geo.Snapshot{geo.NewPointRecord(53.0, -7.5, "A", "")}
	old[0].Annotation.Flagged = true
	keys := bridge.CaptureAnnotations(old)

	// Far away and differently named: genuinely a different feature.
	moved := geo.Snapshot{geo.NewPointRecord(53.05, -7.55, "moved", "")}
	restored := bridge.RestoreAnnotations(moved, keys)

	assert.Zero(t, restored)
	assert.False(t, moved[0].Annotation.Flagged)
}

func TestBridgeNotesSurviveSwap(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge()

	old := geo.Snapshot{geo.NewPointRecord(53.0, -7.5, "A", "")}
	old[0].Annotation.Flagged = true
	old[0].Annotation.Notes = append(old[0].Annotation.Notes, geo.NewNote("first"), geo.NewNote("second"))

	keys := bridge.CaptureAnnotations(old)

	next := geo.Snapshot{geo.NewPointRecord(53.0, -7.5, "A", "")}
	restored := bridge.RestoreAnnotations(next, keys)

	require.Equal(t, 1, restored)
	assert.True(t, next[0].Annotation.Flagged)
	require.Len(t, next[0].Annotation.Notes, 2)
	assert.Equal(t, "first", next[0].Annotation.Notes[0].Text)
}

func TestBridgeAmbiguousRestorationFirstWins(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge()

	old := geo.Snapshot{geo.NewPointRecord(53.0, -7.5, "A", "")}
	old[0].Annotation.Flagged = true
	keys := bridge.CaptureAnnotations(old)

	// Two records in the new snapshot share the captured surrogate key.
	// Only the first in iteration order is restored.
	next := geo.Snapshot{
		geo.NewPointRecord(53.0, -7.5, "first", ""),
		geo.NewPointRecord(53.0, -7.5, "second", ""),
	}
	restored := bridge.RestoreAnnotations(next, keys)

	assert.Equal(t, 1, restored)
	assert.True(t, next[0].Annotation.Flagged)
	assert.False(t, next[1].Annotation.Flagged)
}

func TestBridgeNameKeyedRecords(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge()

	old := geo.Snapshot{geo.NewNamedRecord("No Coords Bar", "pub")}
	old[0].Annotation.Flagged = true
	keys := bridge.CaptureAnnotations(old)

	next := geo.Snapshot{geo.NewNamedRecord("No Coords Bar", "pub")}
	restored := bridge.RestoreAnnotations(next, keys)

	assert.Equal(t, 1, restored)
	assert.True(t, next[0].Annotation.Flagged)
}

func TestBridgeSkipsNilRecords(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge()

	old := geo.Snapshot{
		nil,
		geo.NewPointRecord(53.0, -7.5, "A", ""),
	}
	old[1].Annotation.Flagged = true
	keys := bridge.CaptureAnnotations(old)
	require.Len(t, keys, 1)

	// Shifted coordinates force the resolver fallback so both restore
	// phases scan past the nil entry.
	next := geo.Snapshot{
		nil,
		geo.NewPointRecord(53.0001, -7.5001, "A", ""),
	}
	restored := bridge.RestoreAnnotations(next, keys)

	assert.Equal(t, 1, restored)
	assert.True(t, next[1].Annotation.Flagged)
}

func TestBridgeEmptyCaptureSkipsRestoreScan(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge()

	keys := bridge.CaptureAnnotations(geo.Snapshot{geo.NewPointRecord(1, 2, "A", "")})
	assert.Empty(t, keys)

	next := geo.Snapshot{geo.NewPointRecord(1, 2, "A", "")}
	assert.Zero(t, bridge.RestoreAnnotations(next, keys))
}
