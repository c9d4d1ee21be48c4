package dataset

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/geo"
)

// rebuildRecord allocates a fresh record with the immutable fields of src.
// Annotations deliberately do not carry over: filtered snapshots are rebuilt
// from source data and the bridge is the only annotation carrier.
func rebuildRecord(src *geo.PointRecord) *geo.PointRecord {
	r := &geo.PointRecord{
		Lat:       src.Lat,
		Lng:       src.Lng,
		HasCoords: src.HasCoords,
		Name:      src.Name,
		Category:  src.Category,
	}
	if len(src.Properties) > 0 {
		r.Properties = make(map[string]any, len(src.Properties))
		for k, v := range src.Properties {
			r.Properties[k] = v
		}
	}
	return r
}

// FilterByCategory rebuilds a snapshot containing only records of the given
// category. An empty category returns a rebuild of the full source set.
func FilterByCategory(src geo.Snapshot, category string) geo.Snapshot {
	next := make(geo.Snapshot, 0, len(src))
	for _, r := range src {
		if category != "" && r.Category != category {
			continue
		}
		next = append(next, rebuildRecord(r))
	}
	return next
}

// FilterExpression is a compiled record predicate. Expressions see each
// record as name, category, lat, lng, flagged, and the properties bag, e.g.
// `category == "pub" && properties.rating > 3`.
type FilterExpression struct {
	program *exprvm.Program
	source  string
}

// CompileFilter compiles a filter expression. Compilation failures surface
// as validation-category errors so the UI can reject the input inline.
func CompileFilter(expression string) (*FilterExpression, error) {
	if expression == "" {
		return nil, errors.Newf("filter expression cannot be empty").
			Component("dataset").
			Category(errors.CategoryFilterExpr).
			Build()
	}

	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, errors.New(err).
			Component("dataset").
			Category(errors.CategoryFilterExpr).
			Context("expression_length", len(expression)).
			Build()
	}

	return &FilterExpression{program: program, source: expression}, nil
}

// Source returns the original expression text.
func (f *FilterExpression) Source() string {
	return f.source
}

// Match evaluates the expression against one record. Evaluation errors count
// as non-matches; a bad property access must not abort a whole filter pass.
func (f *FilterExpression) Match(r *geo.PointRecord) bool {
	env := map[string]any{
		"name":       r.Name,
		"category":   r.Category,
		"lat":        r.Lat,
		"lng":        r.Lng,
		"has_coords": r.HasCoords,
		"flagged":    r.Annotation.Flagged,
		"properties": r.Properties,
	}

	result, err := exprlang.Run(f.program, env)
	if err != nil {
		return false
	}
	matched, ok := result.(bool)
	return ok && matched
}

// FilterByExpression rebuilds a snapshot containing only records matching
// the compiled expression.
func FilterByExpression(src geo.Snapshot, filter *FilterExpression) geo.Snapshot {
	next := make(geo.Snapshot, 0, len(src))
	for _, r := range src {
		if filter.Match(r) {
			next = append(next, rebuildRecord(r))
		}
	}
	return next
}
