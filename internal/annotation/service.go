package annotation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/dataset"
	"github.com/tphakala/geopin-go/internal/geo"
	"github.com/tphakala/geopin-go/internal/observability/metrics"
	"github.com/tphakala/geopin-go/internal/render"
)

// defaultRepaintDelay coalesces bursts of advisory repaint requests. The
// debounce is an optimization only; a double fire repaints twice and changes
// nothing, since adapters are idempotent.
const defaultRepaintDelay = 50 * time.Millisecond

// Service is the single writer for annotation state. Every mutation runs the
// store write and the synchronous render fan-out under one lock, so by the
// time a mutating call returns, all registered surfaces have observed the
// new state. Reads go straight to the live snapshot.
type Service struct {
	mu         sync.Mutex
	store      *Store
	manager    *dataset.Manager
	dispatcher *render.Dispatcher
	metrics    *metrics.AnnotationMetrics
	settings   *conf.Settings
	logger     *slog.Logger

	// resolver index over the live snapshot, rebuilt lazily after a swap
	indexMu  sync.Mutex
	index    *geo.Index
	indexGen uint64

	repaintMu    sync.Mutex
	repaintTimer *time.Timer
	repaintDelay time.Duration
}

// NewService wires the store to the snapshot manager and the render
// dispatcher. metrics may be nil.
func NewService(settings *conf.Settings, manager *dataset.Manager, dispatcher *render.Dispatcher, m *metrics.AnnotationMetrics) *Service {
	return &Service{
		store:        NewStore(),
		manager:      manager,
		dispatcher:   dispatcher,
		metrics:      m,
		settings:     settings,
		logger:       getFileLogger(settings.Debug),
		repaintDelay: defaultRepaintDelay,
	}
}

// Snapshot returns the live snapshot.
func (s *Service) Snapshot() geo.Snapshot {
	return s.manager.Live()
}

// Record returns the live record at the given snapshot index, or nil.
func (s *Service) Record(index int) *geo.PointRecord {
	return s.manager.Record(index)
}

// IndexOf reports the record's position in the live snapshot, or -1 when
// the record is not part of it (e.g. it belongs to a replaced snapshot).
func (s *Service) IndexOf(record *geo.PointRecord) int {
	return s.manager.IndexOf(record)
}

// Get returns the annotation attached to the record.
func (s *Service) Get(record *geo.PointRecord) geo.Annotation {
	return s.store.Get(record)
}

// FlaggedCount reports how many live records are flagged. The map legend is
// driven by this value.
func (s *Service) FlaggedCount() int {
	return s.manager.Live().FlaggedCount()
}

// SetFlag sets the record's flagged state and repaints all surfaces before
// returning. A same-value set still repaints; that is the forced-refresh
// path.
func (s *Service) SetFlag(record *geo.PointRecord, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	changed, err := s.store.SetFlag(record, value)
	if err != nil {
		return err
	}

	s.logger.Debug("flag set",
		"name", record.Name,
		"value", value,
		"changed", changed)

	if s.metrics != nil {
		s.metrics.RecordFlagSet(value)
	}
	s.syncLocked()
	if s.metrics != nil {
		s.metrics.ObserveMutationDuration(time.Since(start))
	}
	return nil
}

// ToggleFlag flips the record's flag, repaints, and returns the new value.
func (s *Service) ToggleFlag(record *geo.PointRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	value, err := s.store.ToggleFlag(record)
	if err != nil {
		return false, err
	}

	if s.metrics != nil {
		s.metrics.RecordFlagSet(value)
	}
	s.syncLocked()
	if s.metrics != nil {
		s.metrics.ObserveMutationDuration(time.Since(start))
	}
	return value, nil
}

// AppendNote attaches a note to the record and repaints. Empty text after
// trimming is rejected without touching the record or the surfaces.
func (s *Service) AppendNote(record *geo.PointRecord, text string) (geo.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	note, err := s.store.AppendNote(record, text)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordNoteRejected()
		}
		return geo.Note{}, err
	}

	s.logger.Debug("note appended", "name", record.Name, "note_id", note.ID)

	if s.metrics != nil {
		s.metrics.RecordNoteAppended()
	}
	s.syncLocked()
	if s.metrics != nil {
		s.metrics.ObserveMutationDuration(time.Since(start))
	}
	return note, nil
}

// ClearNotes removes all notes from the record and repaints. Returns how
// many notes were removed.
func (s *Service) ClearNotes(record *geo.PointRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.ClearNotes(record)
	if err != nil {
		return 0, err
	}
	s.syncLocked()
	return removed, nil
}

// ClearAllFlags unflags every live record and returns how many changed.
// When nothing was flagged the surfaces already show the right state, so the
// repaint is skipped.
func (s *Service) ClearAllFlags() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.store.ClearAllFlags(s.manager.Live())
	if changed == 0 {
		return 0
	}

	s.logger.Info("all flags cleared", "changed", changed)

	if s.metrics != nil {
		s.metrics.RecordFlagsCleared(changed)
	}
	s.syncLocked()
	return changed
}

// ReplaceSnapshot installs a new snapshot through the manager (which runs
// the annotation bridge around the swap) and then fans the result out to all
// surfaces. Adapters never observe the new snapshot before restore has run.
func (s *Service) ReplaceSnapshot(next geo.Snapshot) dataset.SwapResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.manager.Swap(next)
	s.syncLocked()
	return result
}

// Resolve matches a probe record against the live snapshot using the
// coordinate-epsilon resolver with name fallback. candidates reports how
// many live records matched; with more than one, the first in snapshot order
// is returned.
func (s *Service) Resolve(probe *geo.PointRecord) (match *geo.PointRecord, candidates int) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if gen := s.manager.Generation(); s.index == nil || s.indexGen != gen {
		s.index = geo.NewIndex(s.manager.Live(), s.settings.Identity.Epsilon)
		s.indexGen = gen
	}
	return s.index.FindMatch(probe)
}

// Sync repaints all surfaces from the live snapshot immediately.
func (s *Service) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
}

// syncLocked runs the render fan-out and refreshes the flagged gauge.
// Callers hold s.mu, which is what makes the store write happen-before every
// adapter application.
func (s *Service) syncLocked() {
	snapshot := s.manager.Live()
	s.dispatcher.Sync(snapshot)
	if s.metrics != nil {
		s.metrics.SetFlaggedRecords(snapshot.FlaggedCount())
	}
}

// RequestRepaint schedules a coalesced repaint. Multiple requests within the
// debounce window collapse into one Sync. Purely advisory; callers needing
// the happens-before guarantee use the mutating methods or Sync directly.
func (s *Service) RequestRepaint() {
	s.repaintMu.Lock()
	defer s.repaintMu.Unlock()

	if s.repaintTimer != nil {
		return
	}
	s.repaintTimer = time.AfterFunc(s.repaintDelay, func() {
		s.repaintMu.Lock()
		s.repaintTimer = nil
		s.repaintMu.Unlock()
		s.Sync()
	})
}

// Shutdown cancels any pending debounced repaint.
func (s *Service) Shutdown() {
	s.repaintMu.Lock()
	defer s.repaintMu.Unlock()

	if s.repaintTimer != nil {
		s.repaintTimer.Stop()
		s.repaintTimer = nil
	}
}
