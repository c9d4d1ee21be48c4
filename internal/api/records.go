package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/geo"
)

// NoteResponse is the JSON shape of one note.
type NoteResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordResponse is the JSON shape of one live record with its annotation.
type RecordResponse struct {
	Index      int            `json:"index"`
	Name       string         `json:"name"`
	Category   string         `json:"category,omitempty"`
	Lat        float64        `json:"lat"`
	Lng        float64        `json:"lng"`
	HasCoords  bool           `json:"has_coords"`
	Flagged    bool           `json:"flagged"`
	Notes      []NoteResponse `json:"notes,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func recordResponse(index int, r *geo.PointRecord) RecordResponse {
	resp := RecordResponse{
		Index:      index,
		Name:       r.Name,
		Category:   r.Category,
		Lat:        r.Lat,
		Lng:        r.Lng,
		HasCoords:  r.HasCoords,
		Flagged:    r.Annotation.Flagged,
		Properties: r.Properties,
	}
	for _, note := range r.Annotation.Notes {
		resp.Notes = append(resp.Notes, NoteResponse{
			ID:        note.ID,
			Text:      note.Text,
			CreatedAt: note.CreatedAt,
		})
	}
	return resp
}

// recordFromParam resolves the :index path parameter against the live
// snapshot.
func (c *Controller) recordFromParam(ctx echo.Context) (*geo.PointRecord, int, error) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return nil, 0, errors.ValidationError("record index must be an integer")
	}

	record := c.svc.Record(index)
	if record == nil {
		return nil, 0, errors.Newf("no record at index %d", index).
			Component("api").
			Category(errors.CategoryNotFound).
			Context("index", index).
			Build()
	}
	return record, index, nil
}

// ListRecords returns the live snapshot with annotations.
func (c *Controller) ListRecords(ctx echo.Context) error {
	snapshot := c.svc.Snapshot()

	records := make([]RecordResponse, 0, len(snapshot))
	for i, r := range snapshot {
		records = append(records, recordResponse(i, r))
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"records":       records,
		"flagged_count": snapshot.FlaggedCount(),
	})
}

// SetFlag sets or clears the flag on one record. The render surfaces are in
// sync by the time the response is written.
func (c *Controller) SetFlag(ctx echo.Context) error {
	record, index, err := c.recordFromParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "failed to resolve record")
	}

	var req struct {
		Flagged bool `json:"flagged"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.ValidationError("invalid flag request body"), "failed to parse request")
	}

	if err := c.svc.SetFlag(record, req.Flagged); err != nil {
		return c.HandleError(ctx, err, "failed to set flag")
	}

	return ctx.JSON(http.StatusOK, recordResponse(index, record))
}

// AddNote appends a note to one record.
func (c *Controller) AddNote(ctx echo.Context) error {
	record, index, err := c.recordFromParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "failed to resolve record")
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.ValidationError("invalid note request body"), "failed to parse request")
	}

	if _, err := c.svc.AppendNote(record, req.Text); err != nil {
		return c.HandleError(ctx, err, "failed to append note")
	}

	return ctx.JSON(http.StatusCreated, recordResponse(index, record))
}

// ClearNotes removes all notes from one record.
func (c *Controller) ClearNotes(ctx echo.Context) error {
	record, _, err := c.recordFromParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "failed to resolve record")
	}

	removed, err := c.svc.ClearNotes(record)
	if err != nil {
		return c.HandleError(ctx, err, "failed to clear notes")
	}

	return ctx.JSON(http.StatusOK, map[string]int{"removed": removed})
}

// ClearAllFlags unflags every live record.
func (c *Controller) ClearAllFlags(ctx echo.Context) error {
	changed := c.svc.ClearAllFlags()
	return ctx.JSON(http.StatusOK, map[string]int{"changed": changed})
}
