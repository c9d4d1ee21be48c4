package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/geo"
)

func managerTestSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Identity.Epsilon = 0.0001
	s.Identity.SurrogatePrecision = 6
	return s
}

func TestManagerSwapInstallsSnapshot(t *testing.T) {
	t.Parallel()

	mgr := NewManager(managerTestSettings(), nil)
	assert.Empty(t, mgr.Live())
	assert.Zero(t, mgr.Generation())

	snapshot := geo.Snapshot{
		geo.NewPointRecord(53.0, -7.5, "A", "pub"),
		geo.NewPointRecord(53.1, -7.6, "B", "castle"),
	}
	result := mgr.Swap(snapshot)

	assert.Equal(t, uint64(1), result.Generation)
	assert.Equal(t, 2, result.Size)
	assert.Zero(t, result.Captured)

	live := mgr.Live()
	require.Len(t, live, 2)
	assert.Same(t, snapshot[0], live[0])
}

func TestManagerSwapPreservesFlags(t *testing.T) {
	t.Parallel()

	mgr := NewManager(managerTestSettings(), nil)

	first := geo.Snapshot{
		geo.NewPointRecord(53.0, -7.5, "A", "pub"),
		geo.NewPointRecord(53.1, -7.6, "B", "castle"),
	}
	mgr.Swap(first)
	first[0].Annotation.Flagged = true

	// Filter rebuilds records, annotations carried by the bridge only
	second := FilterByCategory(first, "")
	result := mgr.Swap(second)

	assert.Equal(t, 1, result.Captured)
	assert.Equal(t, 1, result.Restored)
	assert.True(t, mgr.Live()[0].Annotation.Flagged)
	assert.False(t, mgr.Live()[1].Annotation.Flagged)
}

func TestManagerSwapGenerationIncrements(t *testing.T) {
	t.Parallel()

	mgr := NewManager(managerTestSettings(), nil)
	mgr.Swap(geo.Snapshot{})
	mgr.Swap(geo.Snapshot{})
	assert.Equal(t, uint64(2), mgr.Generation())
}

func TestManagerRecordByIndex(t *testing.T) {
	t.Parallel()

	mgr := NewManager(managerTestSettings(), nil)
	mgr.Swap(geo.Snapshot{geo.NewPointRecord(53.0, -7.5, "A", "pub")})

	require.NotNil(t, mgr.Record(0))
	assert.Equal(t, "A", mgr.Record(0).Name)
	assert.Nil(t, mgr.Record(1))
	assert.Nil(t, mgr.Record(-1))
}

func TestManagerIndexOfStaleRecord(t *testing.T) {
	t.Parallel()

	mgr := NewManager(managerTestSettings(), nil)
	old := geo.NewPointRecord(53.0, -7.5, "A", "pub")
	mgr.Swap(geo.Snapshot{old})
	assert.Equal(t, 0, mgr.IndexOf(old))

	// After the swap the old record object is no longer live
	mgr.Swap(FilterByCategory(geo.Snapshot{old}, ""))
	assert.Equal(t, -1, mgr.IndexOf(old))
}

// Round-trip preservation: filtering to a category and back must keep all
// flags on records that remain present, and never invent flags.
func TestManagerFilterRoundTrip(t *testing.T) {
	t.Parallel()

	mgr := NewManager(managerTestSettings(), nil)

	full := geo.Snapshot{
		geo.NewPointRecord(53.0, -7.5, "A", "pub"),
		geo.NewPointRecord(53.1, -7.6, "B", "castle"),
		geo.NewPointRecord(53.2, -7.7, "C", "pub"),
	}
	mgr.Swap(full)
	mgr.Live()[0].Annotation.Flagged = true
	mgr.Live()[2].Annotation.Flagged = true

	// Narrow to pubs: both flagged records survive
	mgr.Swap(FilterByCategory(mgr.Live(), "pub"))
	require.Len(t, mgr.Live(), 2)
	assert.Equal(t, 2, mgr.Live().FlaggedCount())

	// Back to everything sourced from the original data: the castle is
	// unflagged, the pubs stay flagged
	mgr.Swap(FilterByCategory(full, ""))
	require.Len(t, mgr.Live(), 3)
	assert.True(t, mgr.Live()[0].Annotation.Flagged)
	assert.False(t, mgr.Live()[1].Annotation.Flagged)
	assert.True(t, mgr.Live()[2].Annotation.Flagged)
}
