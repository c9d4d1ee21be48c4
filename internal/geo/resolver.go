package geo

import (
	"math"
	"strconv"
	"strings"
)

// DefaultEpsilon is the fallback coordinate tolerance in degrees when no
// configured value is available. Roughly 11 meters of latitude, enough to
// absorb floating-point re-serialization of the same source data without
// merging distinct nearby features.
const DefaultEpsilon = 0.0001

// DefaultSurrogatePrecision is the fixed number of decimals used when
// deriving surrogate keys.
const DefaultSurrogatePrecision = 6

// SameFeature reports whether two records denote the same real-world
// feature. When both records carry coordinates they match within epsilon on
// both axes; when the coordinate match fails or coordinates are missing,
// exact case-sensitive name equality decides. Pure and total: no match means
// not the same feature, never an error.
func SameFeature(a, b *PointRecord, epsilon float64) bool {
	if a == nil || b == nil {
		return false
	}
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	if a.HasCoords && b.HasCoords {
		if math.Abs(a.Lat-b.Lat) < epsilon && math.Abs(a.Lng-b.Lng) < epsilon {
			return true
		}
	}

	// Name fallback covers ambiguous or absent coordinates.
	return a.Name != "" && a.Name == b.Name
}

// SurrogateKey derives the fixed-precision key used to re-identify a record
// across a snapshot replacement. Coordinate records key on "lat,lng" with
// precision decimals; records without coordinates key on their name. This is
// intentionally coarser than SameFeature: it only needs to survive a
// round-trip through the same source data.
func SurrogateKey(r *PointRecord, precision int) string {
	if r == nil {
		return ""
	}
	if precision <= 0 {
		precision = DefaultSurrogatePrecision
	}

	if r.HasCoords {
		var b strings.Builder
		b.WriteString(strconv.FormatFloat(r.Lat, 'f', precision, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(r.Lng, 'f', precision, 64))
		return b.String()
	}

	if r.Name == "" {
		return ""
	}
	return "n:" + r.Name
}
