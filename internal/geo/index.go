package geo

import "math"

// Index is a coordinate-bucketed lookup structure over a snapshot. It keeps
// identity resolution near O(1) per probe on large snapshots; correctness
// never depends on it, a linear SameFeature scan gives the same answers.
type Index struct {
	epsilon  float64
	buckets  map[bucketKey][]indexEntry
	byName   map[string][]indexEntry
	snapshot Snapshot
}

type bucketKey struct {
	latCell int64
	lngCell int64
}

type indexEntry struct {
	record   *PointRecord
	position int
}

// NewIndex builds an index over the snapshot with the given epsilon. The
// bucket size equals epsilon so any epsilon-neighbor of a probe point lives
// in the probe's own bucket or one of its eight neighbors.
func NewIndex(snapshot Snapshot, epsilon float64) *Index {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	ix := &Index{
		epsilon:  epsilon,
		buckets:  make(map[bucketKey][]indexEntry),
		byName:   make(map[string][]indexEntry),
		snapshot: snapshot,
	}

	for i, r := range snapshot {
		if r == nil {
			continue
		}
		entry := indexEntry{record: r, position: i}
		if r.HasCoords {
			key := ix.bucketFor(r.Lat, r.Lng)
			ix.buckets[key] = append(ix.buckets[key], entry)
		}
		if r.Name != "" {
			ix.byName[r.Name] = append(ix.byName[r.Name], entry)
		}
	}

	return ix
}

func (ix *Index) bucketFor(lat, lng float64) bucketKey {
	return bucketKey{
		latCell: int64(math.Floor(lat / ix.epsilon)),
		lngCell: int64(math.Floor(lng / ix.epsilon)),
	}
}

// FindMatch returns the first record in snapshot order that SameFeature
// considers identical to the probe, along with the total number of
// candidates found. More than one candidate is the documented ambiguous
// case: the earliest snapshot position wins.
func (ix *Index) FindMatch(probe *PointRecord) (match *PointRecord, candidates int) {
	if probe == nil {
		return nil, 0
	}

	best := -1
	seen := make(map[int]struct{})

	consider := func(e indexEntry) {
		if _, dup := seen[e.position]; dup {
			return
		}
		if !SameFeature(e.record, probe, ix.epsilon) {
			return
		}
		seen[e.position] = struct{}{}
		candidates++
		if best == -1 || e.position < best {
			best = e.position
		}
	}

	if probe.HasCoords {
		center := ix.bucketFor(probe.Lat, probe.Lng)
		for dLat := int64(-1); dLat <= 1; dLat++ {
			for dLng := int64(-1); dLng <= 1; dLng++ {
				key := bucketKey{latCell: center.latCell + dLat, lngCell: center.lngCell + dLng}
				for _, e := range ix.buckets[key] {
					consider(e)
				}
			}
		}
	}

	// Name fallback also applies to coordinate records whose coordinate
	// match failed, so probe the name table unconditionally.
	if probe.Name != "" {
		for _, e := range ix.byName[probe.Name] {
			consider(e)
		}
	}

	if best == -1 {
		return nil, 0
	}
	return ix.snapshot[best], candidates
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.snapshot)
}
