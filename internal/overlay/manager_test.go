package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/geopin-go/internal/annotation"
	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/dataset"
	"github.com/tphakala/geopin-go/internal/geo"
	"github.com/tphakala/geopin-go/internal/render"
)

// fakeRenderer records overlay display operations.
type fakeRenderer struct {
	shown     *geo.PointRecord
	refreshes []geo.Annotation
	hides     int
}

func (f *fakeRenderer) ShowOverlay(record *geo.PointRecord, _ geo.Annotation) error {
	f.shown = record
	return nil
}

func (f *fakeRenderer) RefreshAnnotation(annotation geo.Annotation) error {
	f.refreshes = append(f.refreshes, annotation)
	return nil
}

func (f *fakeRenderer) HideOverlay() error {
	f.shown = nil
	f.hides++
	return nil
}

func testSnapshot() geo.Snapshot {
	return geo.Snapshot{
		geo.NewPointRecord(60.1699, 24.9384, "Helsinki", "city"),
		geo.NewPointRecord(59.4370, 24.7536, "Tallinn", "city"),
		geo.NewPointRecord(59.3293, 18.0686, "Stockholm", "harbor"),
	}
}

// testManager wires a full stack: dataset manager, annotation service,
// render dispatcher with the overlay adapter, and the session manager.
func testManager(t *testing.T, snapshot geo.Snapshot) (*Manager, *annotation.Service, *fakeRenderer) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Identity.Epsilon = geo.DefaultEpsilon
	settings.Identity.SurrogatePrecision = geo.DefaultSurrogatePrecision

	dsManager := dataset.NewManager(settings, nil)
	dsManager.Swap(snapshot)

	dispatcher := render.NewDispatcher(nil)
	svc := annotation.NewService(settings, dsManager, dispatcher, nil)
	t.Cleanup(svc.Shutdown)

	renderer := &fakeRenderer{}
	manager := NewManager(svc, renderer, nil)
	dispatcher.Register(render.NewOverlayAdapter(manager))

	return manager, svc, renderer
}

func TestOpenAssignsSessionAndRenders(t *testing.T) {
	t.Parallel()

	manager, svc, renderer := testManager(t, testSnapshot())
	record := svc.Record(0)

	id, err := manager.Open(record)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, manager.SessionID())
	assert.Same(t, record, renderer.shown)
	assert.Same(t, record, manager.OpenRecord())
}

func TestOpenTearsDownPreviousSession(t *testing.T) {
	t.Parallel()

	manager, svc, renderer := testManager(t, testSnapshot())

	first, err := manager.Open(svc.Record(0))
	require.NoError(t, err)
	second, err := manager.Open(svc.Record(1))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, second, manager.SessionID())
	assert.Equal(t, 1, renderer.hides, "old overlay must be removed before the new one shows")
	assert.Same(t, svc.Record(1), renderer.shown)

	// The first id is stale now; actions through it are dropped.
	require.NoError(t, manager.HandleAction(first, ActionToggleFlag, ""))
	assert.False(t, svc.Record(0).Annotation.Flagged)
	assert.False(t, svc.Record(1).Annotation.Flagged)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	manager, svc, renderer := testManager(t, testSnapshot())

	manager.Close() // nothing open, nothing happens
	assert.Equal(t, 0, renderer.hides)

	_, err := manager.Open(svc.Record(0))
	require.NoError(t, err)
	manager.Close()
	manager.Close()

	assert.Equal(t, 1, renderer.hides)
	assert.Empty(t, manager.SessionID())
	assert.Nil(t, manager.OpenRecord())
}

func TestHandleActionMutatesAndRefreshesOverlay(t *testing.T) {
	t.Parallel()

	manager, svc, renderer := testManager(t, testSnapshot())
	record := svc.Record(0)

	id, err := manager.Open(record)
	require.NoError(t, err)

	require.NoError(t, manager.HandleAction(id, ActionToggleFlag, ""))
	assert.True(t, record.Annotation.Flagged)

	require.NoError(t, manager.HandleAction(id, ActionAddNote, "worth a visit"))
	require.Len(t, record.Annotation.Notes, 1)

	// Each mutation fanned out through the render dispatcher, which
	// refreshed the open overlay's annotation fragment.
	require.Len(t, renderer.refreshes, 2)
	assert.True(t, renderer.refreshes[1].Flagged)
	assert.Len(t, renderer.refreshes[1].Notes, 1)

	require.NoError(t, manager.HandleAction(id, ActionClearNotes, ""))
	assert.Empty(t, record.Annotation.Notes)
}

func TestHandleActionStaleSessionIsSilent(t *testing.T) {
	t.Parallel()

	manager, svc, _ := testManager(t, testSnapshot())

	_, err := manager.Open(svc.Record(0))
	require.NoError(t, err)

	// A made-up id, as if from an overlay the DOM already replaced.
	require.NoError(t, manager.HandleAction("bogus-session", ActionToggleFlag, ""))
	assert.False(t, svc.Record(0).Annotation.Flagged)

	manager.Close()
	require.NoError(t, manager.HandleAction("bogus-session", ActionAddNote, "late"))
}

func TestHandleActionValidationErrorPropagates(t *testing.T) {
	t.Parallel()

	manager, svc, _ := testManager(t, testSnapshot())

	id, err := manager.Open(svc.Record(0))
	require.NoError(t, err)

	err = manager.HandleAction(id, ActionAddNote, "   ")
	require.Error(t, err, "blank note on a live session is a real error, not a stale drop")

	err = manager.HandleAction(id, Action("explode"), "")
	require.Error(t, err)
}

func TestSessionSurvivesFilterSwapByIdentity(t *testing.T) {
	t.Parallel()

	manager, svc, _ := testManager(t, testSnapshot())

	id, err := manager.Open(svc.Record(0))
	require.NoError(t, err)

	// Swap in a rebuilt snapshot containing the same feature at the same
	// coordinates. The session rebinds to the new record object.
	svc.ReplaceSnapshot(geo.Snapshot{
		geo.NewPointRecord(60.1699, 24.9384, "Helsinki", "city"),
	})

	rebound := manager.OpenRecord()
	require.NotNil(t, rebound)
	assert.Equal(t, "Helsinki", rebound.Name)
	assert.Same(t, svc.Record(0), rebound)

	// Actions keep working against the rebound record.
	require.NoError(t, manager.HandleAction(id, ActionToggleFlag, ""))
	assert.True(t, svc.Record(0).Annotation.Flagged)
}

func TestSessionClosesWhenRecordFilteredOut(t *testing.T) {
	t.Parallel()

	manager, svc, renderer := testManager(t, testSnapshot())

	id, err := manager.Open(svc.Record(0))
	require.NoError(t, err)

	// Helsinki is gone from the new snapshot entirely.
	svc.ReplaceSnapshot(geo.Snapshot{
		geo.NewPointRecord(55.6761, 12.5683, "Copenhagen", "city"),
	})

	assert.Nil(t, manager.OpenRecord())
	assert.Empty(t, manager.SessionID())
	assert.Equal(t, 1, renderer.hides)

	// The old id is stale and silently dropped.
	require.NoError(t, manager.HandleAction(id, ActionToggleFlag, ""))
	assert.False(t, svc.Record(0).Annotation.Flagged)
}
