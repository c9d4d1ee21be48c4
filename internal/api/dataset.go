package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/geopin-go/internal/dataset"
	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/geo"
)

// LoadDataset fetches a point collection from the given source and installs
// it as the new live snapshot. The source becomes the base set for filters.
func (c *Controller) LoadDataset(ctx echo.Context) error {
	var req struct {
		Source string `json:"source"`
	}
	if err := ctx.Bind(&req); err != nil || req.Source == "" {
		return c.HandleError(ctx, errors.ValidationError("load request needs a source"), "failed to parse request")
	}

	snapshot, err := c.loader.Load(ctx.Request().Context(), req.Source)
	if err != nil {
		return c.HandleError(ctx, err, "failed to load dataset")
	}

	c.baseMu.Lock()
	c.base = snapshot
	c.baseMu.Unlock()

	// Swap in a rebuild rather than the base records themselves, so the
	// annotation bridge stays the only carrier of flags and notes across
	// later filter round-trips.
	result := c.svc.ReplaceSnapshot(dataset.FilterByCategory(snapshot, ""))

	c.apiLogger.Info("dataset loaded",
		"source", req.Source,
		"size", result.Size,
		"generation", result.Generation)

	return ctx.JSON(http.StatusOK, map[string]any{
		"size":       result.Size,
		"generation": result.Generation,
	})
}

// ApplyFilter replaces the live snapshot with a filtered rebuild of the base
// set. Flags and notes on records that survive the filter are preserved by
// the swap bridge. An empty filter restores the full set.
func (c *Controller) ApplyFilter(ctx echo.Context) error {
	var req struct {
		Category   string `json:"category"`
		Expression string `json:"expression"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.ValidationError("invalid filter request body"), "failed to parse request")
	}

	c.baseMu.RLock()
	base := c.base
	c.baseMu.RUnlock()
	if base == nil {
		base = c.svc.Snapshot()
	}

	next := dataset.FilterByCategory(base, req.Category)
	if req.Expression != "" {
		filter, err := dataset.CompileFilter(req.Expression)
		if err != nil {
			return c.HandleError(ctx, err, "failed to compile filter expression")
		}
		next = dataset.FilterByExpression(next, filter)
	}

	result := c.svc.ReplaceSnapshot(next)

	return ctx.JSON(http.StatusOK, map[string]any{
		"size":       result.Size,
		"restored":   result.Restored,
		"generation": result.Generation,
	})
}

// geoJSONFeature is one exported record. Flag and notes ride along as
// ordinary properties so the output is a self-contained dataset.
type geoJSONFeature struct {
	Type       string         `json:"type"`
	Geometry   *geoJSONPoint  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// ExportSnapshot serializes the live snapshot as a GeoJSON FeatureCollection
// with annotations embedded in feature properties.
func (c *Controller) ExportSnapshot(ctx echo.Context) error {
	snapshot := c.svc.Snapshot()

	features := make([]geoJSONFeature, 0, len(snapshot))
	for _, r := range snapshot {
		features = append(features, exportFeature(r))
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	})
}

func exportFeature(r *geo.PointRecord) geoJSONFeature {
	props := map[string]any{
		"name": r.Name,
	}
	if r.Category != "" {
		props["category"] = r.Category
	}
	for k, v := range r.Properties {
		props[k] = v
	}
	if r.Annotation.Flagged {
		props["flagged"] = true
	}
	if len(r.Annotation.Notes) > 0 {
		notes := make([]string, 0, len(r.Annotation.Notes))
		for _, note := range r.Annotation.Notes {
			notes = append(notes, note.Text)
		}
		props["notes"] = notes
	}

	feature := geoJSONFeature{Type: "Feature", Properties: props}
	if r.HasCoords {
		// GeoJSON coordinate order is [lng, lat].
		feature.Geometry = &geoJSONPoint{
			Type:        "Point",
			Coordinates: [2]float64{r.Lng, r.Lat},
		}
	}
	return feature
}
