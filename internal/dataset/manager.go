// Package dataset owns the live snapshot of point records and everything
// that replaces it: the snapshot manager, the filter-preservation bridge,
// category and expression filters, and the dataset loader. The manager is
// the single writer entry point for snapshot replacement; all render
// surfaces are driven from the same live snapshot reference.
package dataset

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/geo"
	"github.com/tphakala/geopin-go/internal/observability/metrics"
)

// SwapResult summarizes one snapshot replacement.
type SwapResult struct {
	Generation uint64 // generation of the newly installed snapshot
	Captured   int    // annotated identities captured from the old snapshot
	Restored   int    // records in the new snapshot that received them back
	Size       int    // record count of the new snapshot
}

// Manager holds the currently active snapshot, the global working set every
// surface renders from. Exactly one snapshot is live at any time. Swap is
// the only writer: it runs the bridge capture synchronously before the
// replacement and the restore synchronously after it, so no reader ever
// observes a new snapshot with annotations missing.
type Manager struct {
	mu         sync.RWMutex
	live       geo.Snapshot
	generation uint64
	bridge     *Bridge
	logger     *slog.Logger
	metrics    *metrics.DatasetMetrics
}

// NewManager creates a snapshot manager. metrics may be nil.
func NewManager(settings *conf.Settings, m *metrics.DatasetMetrics) *Manager {
	precision := geo.DefaultSurrogatePrecision
	epsilon := geo.DefaultEpsilon
	debug := false
	if settings != nil {
		precision = settings.Identity.SurrogatePrecision
		epsilon = settings.Identity.Epsilon
		debug = settings.Debug
	}

	logger := getFileLogger(debug)
	return &Manager{
		bridge:  NewBridge(precision, epsilon, logger, m),
		logger:  logger,
		metrics: m,
	}
}

// Live returns the live snapshot reference. The returned slice must be
// treated as read-only except through the annotation store mutators.
func (m *Manager) Live() geo.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live
}

// Generation returns the generation counter of the live snapshot.
func (m *Manager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Swap replaces the live snapshot. The bridge capture always completes
// before the new snapshot is installed and the restore always completes
// before Swap returns, giving callers a fully consistent snapshot to hand
// to render sync.
func (m *Manager) Swap(next geo.Snapshot) SwapResult {
	start := time.Now()

	m.mu.Lock()
	keys := m.bridge.CaptureAnnotations(m.live)
	m.live = next
	m.generation++
	restored := m.bridge.RestoreAnnotations(next, keys)
	result := SwapResult{
		Generation: m.generation,
		Captured:   len(keys),
		Restored:   restored,
		Size:       len(next),
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordSwap(result.Size)
		m.metrics.ObserveSwapDuration(time.Since(start))
	}

	m.logger.Info("snapshot swapped",
		"generation", result.Generation,
		"records", result.Size,
		"captured", result.Captured,
		"restored", result.Restored,
		"duration_ms", time.Since(start).Milliseconds())

	return result
}

// Record returns the record at the given snapshot index, or nil when the
// index is out of range. List rows address their backing records this way.
func (m *Manager) Record(index int) *geo.PointRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.live) {
		return nil
	}
	return m.live[index]
}

// IndexOf returns the snapshot position of the given record, or -1 when the
// record is not part of the live snapshot (e.g. it belonged to a snapshot
// that has since been replaced).
func (m *Manager) IndexOf(record *geo.PointRecord) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, r := range m.live {
		if r == record {
			return i
		}
	}
	return -1
}
