// Package overlay manages the detail-overlay session: the expanded view of a
// single record with its flag toggle and notes list. At most one session is
// open at a time; opening a record while another overlay is showing tears
// the old session down first. Actions arriving with a stale session id are
// dropped silently, which is the normal outcome of clicking inside an
// overlay that was replaced underneath the pointer.
package overlay

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tphakala/geopin-go/internal/annotation"
	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/geo"
	"github.com/tphakala/geopin-go/internal/logging"
	"github.com/tphakala/geopin-go/internal/observability/metrics"
)

// Action is an annotation mutation requested from inside the open overlay.
type Action string

const (
	ActionToggleFlag Action = "toggle-flag"
	ActionAddNote    Action = "add-note"
	ActionClearNotes Action = "clear-notes"
)

// Renderer is the overlay display collaborator. ShowOverlay builds the full
// overlay for a record; RefreshAnnotation repaints only the flag toggle and
// notes list so transient UI state in the rest of the overlay survives.
type Renderer interface {
	ShowOverlay(record *geo.PointRecord, annotation geo.Annotation) error
	RefreshAnnotation(annotation geo.Annotation) error
	HideOverlay() error
}

type session struct {
	id     string
	record *geo.PointRecord
}

// Manager is the single-session overlay state machine. It doubles as the
// render fan-out's session view: the render overlay adapter asks it for the
// open record and pushes annotation refreshes through it.
type Manager struct {
	mu       sync.Mutex
	current  *session
	svc      *annotation.Service
	renderer Renderer
	metrics  *metrics.OverlayMetrics
	logger   *slog.Logger
}

// NewManager creates the overlay session manager. renderer may be nil when
// no overlay display exists; sessions then track state without drawing.
func NewManager(svc *annotation.Service, renderer Renderer, m *metrics.OverlayMetrics) *Manager {
	return &Manager{
		svc:      svc,
		renderer: renderer,
		metrics:  m,
		logger:   logging.ForService("overlay"),
	}
}

// Open starts a session for the record and returns its id. Any session that
// was open is torn down first and its id becomes stale.
func (m *Manager) Open(record *geo.PointRecord) (string, error) {
	if record == nil {
		return "", errors.ValidationError("cannot open an overlay for a nil record")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.closeLocked(true)
	}

	m.current = &session{
		id:     uuid.New().String(),
		record: record,
	}

	if m.renderer != nil {
		if err := m.renderer.ShowOverlay(record, record.Annotation.Clone()); err != nil {
			m.current = nil
			return "", err
		}
	}

	if m.metrics != nil {
		m.metrics.RecordSessionOpened()
	}
	m.logger.Info("overlay opened", "session", m.current.id, "name", record.Name)
	return m.current.id, nil
}

// Close tears down the open session. Calling it with no session open is a
// no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return
	}
	m.closeLocked(false)
}

// closeLocked hides the overlay and invalidates the session id. Caller
// holds m.mu with m.current non-nil.
func (m *Manager) closeLocked(implicit bool) {
	if m.renderer != nil {
		if err := m.renderer.HideOverlay(); err != nil {
			m.logger.Warn("overlay hide failed", "session", m.current.id, "error", err)
		}
	}
	if m.metrics != nil {
		m.metrics.RecordSessionClosed(implicit)
	}
	m.logger.Info("overlay closed", "session", m.current.id, "implicit", implicit)
	m.current = nil
}

// SessionID returns the open session id, or empty when closed.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ""
	}
	return m.current.id
}

// OpenRecord returns the record behind the open overlay, or nil when no
// overlay is open. When the live snapshot was swapped underneath the
// session, the bound record is re-resolved by identity; a record that no
// longer exists closes the session implicitly.
func (m *Manager) OpenRecord() *geo.PointRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openRecordLocked()
}

func (m *Manager) openRecordLocked() *geo.PointRecord {
	if m.current == nil {
		return nil
	}

	if m.svc.IndexOf(m.current.record) >= 0 {
		return m.current.record
	}

	// The snapshot was replaced. The same feature may still be present as a
	// rebuilt record; rebind to it so the session survives filter changes.
	if match, _ := m.svc.Resolve(m.current.record); match != nil {
		m.logger.Debug("overlay rebound after snapshot swap",
			"session", m.current.id,
			"name", match.Name)
		m.current.record = match
		return match
	}

	m.closeLocked(true)
	return nil
}

// RefreshAnnotation repaints the annotation fragment of the open overlay.
func (m *Manager) RefreshAnnotation(annotation geo.Annotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.renderer == nil {
		return nil
	}
	return m.renderer.RefreshAnnotation(annotation)
}

// HandleAction applies an overlay-originated mutation to the session's
// record. A stale session id is logged and swallowed: the action came from
// an overlay that no longer exists, so there is nothing correct to mutate
// and nothing to tell the user. Live-session mutation failures (e.g. an
// empty note) do propagate.
func (m *Manager) HandleAction(sessionID string, action Action, payload string) error {
	m.mu.Lock()
	if m.current == nil || m.current.id != sessionID {
		m.mu.Unlock()
		m.logger.Warn("stale overlay action ignored", "session", sessionID, "action", action)
		if m.metrics != nil {
			m.metrics.RecordStaleAction()
		}
		return nil
	}
	record := m.openRecordLocked()
	m.mu.Unlock()

	if record == nil {
		// The bound record vanished with a snapshot swap and the session
		// just closed itself; treat the action as stale.
		if m.metrics != nil {
			m.metrics.RecordStaleAction()
		}
		return nil
	}

	// Mutations run outside m.mu: the annotation service fans out to the
	// render surfaces, and the overlay adapter calls back into this manager.
	var err error
	switch action {
	case ActionToggleFlag:
		_, err = m.svc.ToggleFlag(record)
	case ActionAddNote:
		_, err = m.svc.AppendNote(record, payload)
	case ActionClearNotes:
		_, err = m.svc.ClearNotes(record)
	default:
		return errors.Newf("unknown overlay action %q", action).
			Component("overlay").
			Category(errors.CategoryValidation).
			SessionContext(sessionID).
			Build()
	}
	if err != nil {
		return err
	}

	if m.metrics != nil {
		m.metrics.RecordActionHandled(string(action))
	}
	return nil
}
