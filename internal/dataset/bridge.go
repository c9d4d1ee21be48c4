package dataset

import (
	"log/slog"

	"github.com/tphakala/geopin-go/internal/geo"
	"github.com/tphakala/geopin-go/internal/observability/metrics"
)

// capturedAnnotation is one preserved identity: the flag and notes that rode
// on a record in the outgoing snapshot, plus a probe record carrying the
// identity fields for resolver-based re-matching.
type capturedAnnotation struct {
	probe   *geo.PointRecord
	flagged bool
	notes   []geo.Note
}

// KeySet holds the annotated identities captured before a snapshot swap,
// keyed by fixed-precision surrogate key.
type KeySet map[string]capturedAnnotation

// Bridge preserves annotations across snapshot replacements. Record objects
// are discarded wholesale on every filter and reload; the bridge captures
// annotated identities from the old snapshot and re-attaches them to
// matching records in the new one. Restoration tries the exact
// fixed-precision surrogate key first (sufficient for a round-trip through
// the same source data) and falls back to the epsilon resolver for captured
// identities whose coordinates were re-serialized differently.
type Bridge struct {
	precision int
	epsilon   float64
	logger    *slog.Logger
	metrics   *metrics.DatasetMetrics
}

// NewBridge creates a bridge using the given surrogate-key precision and
// resolver epsilon. metrics may be nil.
func NewBridge(precision int, epsilon float64, logger *slog.Logger, m *metrics.DatasetMetrics) *Bridge {
	if precision <= 0 {
		precision = geo.DefaultSurrogatePrecision
	}
	if epsilon <= 0 {
		epsilon = geo.DefaultEpsilon
	}
	if logger == nil {
		logger = slog.Default().With("service", "dataset")
	}
	return &Bridge{precision: precision, epsilon: epsilon, logger: logger, metrics: m}
}

// CaptureAnnotations scans the outgoing snapshot and records the surrogate
// key of every record carrying an annotation (a set flag or at least one
// note). Must complete before the new snapshot is installed.
func (b *Bridge) CaptureAnnotations(old geo.Snapshot) KeySet {
	keys := make(KeySet)
	for _, r := range old {
		if r == nil {
			continue
		}
		if !r.Annotation.Flagged && len(r.Annotation.Notes) == 0 {
			continue
		}
		key := geo.SurrogateKey(r, b.precision)
		if key == "" {
			// No coordinates and no name, nothing durable to key on
			continue
		}
		if _, exists := keys[key]; exists {
			// Two annotated records collapsing to one key: the first wins,
			// matching restoration order
			b.logger.Warn("duplicate surrogate key during capture, keeping first",
				"key", key)
			continue
		}

		probe := &geo.PointRecord{
			Lat:       r.Lat,
			Lng:       r.Lng,
			HasCoords: r.HasCoords,
			Name:      r.Name,
		}
		ann := r.Annotation.Clone()
		keys[key] = capturedAnnotation{probe: probe, flagged: ann.Flagged, notes: ann.Notes}
	}

	if b.metrics != nil {
		b.metrics.RecordCapture(len(keys))
	}
	return keys
}

// RestoreAnnotations re-attaches captured annotations to the incoming
// snapshot. Exact surrogate-key matches are applied first; captured
// identities still unmatched are then resolved against the snapshot with
// the epsilon/name-fallback matcher. When more than one record matches one
// identity, the first in snapshot order wins and the rest are logged as
// ambiguous, never escalated. Returns the number of records restored. Must
// complete before any render sync observes the new snapshot.
func (b *Bridge) RestoreAnnotations(next geo.Snapshot, keys KeySet) int {
	if len(keys) == 0 {
		return 0
	}

	restored := 0
	consumed := make(map[string]struct{}, len(keys))
	applied := make(map[*geo.PointRecord]struct{}, len(keys))

	for _, r := range next {
		if r == nil {
			continue
		}
		key := geo.SurrogateKey(r, b.precision)
		if key == "" {
			continue
		}
		captured, ok := keys[key]
		if !ok {
			continue
		}
		if _, taken := consumed[key]; taken {
			// A later record also matches an already-restored identity
			b.logger.Warn("ambiguous match during restoration, first candidate kept",
				"key", key,
				"record_name", r.Name)
			if b.metrics != nil {
				b.metrics.RecordAmbiguousMatch()
			}
			continue
		}
		consumed[key] = struct{}{}

		b.apply(r, captured)
		applied[r] = struct{}{}
		restored++
	}

	if len(consumed) == len(keys) {
		if b.metrics != nil {
			b.metrics.RecordRestore(restored)
		}
		return restored
	}

	// Some identities did not round-trip exactly, e.g. the new snapshot
	// re-serialized coordinates with different precision. Fall back to the
	// fuzzy resolver for those.
	index := geo.NewIndex(next, b.epsilon)
	for key, captured := range keys {
		if _, taken := consumed[key]; taken {
			continue
		}

		match, candidates := index.FindMatch(captured.probe)
		if match == nil {
			continue
		}
		if _, has := applied[match]; has {
			b.logger.Warn("ambiguous match during restoration, first candidate kept",
				"key", key,
				"record_name", match.Name)
			if b.metrics != nil {
				b.metrics.RecordAmbiguousMatch()
			}
			continue
		}
		if candidates > 1 {
			b.logger.Warn("multiple restoration candidates, first in snapshot order kept",
				"key", key,
				"candidates", candidates)
			if b.metrics != nil {
				b.metrics.RecordAmbiguousMatch()
			}
		}

		b.apply(match, captured)
		applied[match] = struct{}{}
		restored++
	}

	if b.metrics != nil {
		b.metrics.RecordRestore(restored)
	}
	return restored
}

func (b *Bridge) apply(r *geo.PointRecord, captured capturedAnnotation) {
	r.Annotation.Flagged = captured.flagged
	if len(captured.notes) > 0 && len(r.Annotation.Notes) == 0 {
		r.Annotation.Notes = captured.notes
	}
}
