package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/overlay"
)

// OpenOverlay starts a detail-overlay session for one record. Any session
// that was open is torn down first.
func (c *Controller) OpenOverlay(ctx echo.Context) error {
	var req struct {
		Index int `json:"index"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.ValidationError("invalid overlay request body"), "failed to parse request")
	}

	record := c.svc.Record(req.Index)
	if record == nil {
		err := errors.Newf("no record at index %d", req.Index).
			Component("api").
			Category(errors.CategoryNotFound).
			Build()
		return c.HandleError(ctx, err, "failed to resolve record")
	}

	session, err := c.overlay.Open(record)
	if err != nil {
		return c.HandleError(ctx, err, "failed to open overlay")
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"session": session})
}

// CloseOverlay tears down the open session. Closing with nothing open is
// fine.
func (c *Controller) CloseOverlay(ctx echo.Context) error {
	c.overlay.Close()
	return ctx.NoContent(http.StatusNoContent)
}

// OverlayAction applies an overlay-originated annotation mutation. A stale
// session id is reported as ignored rather than failed; the overlay it came
// from no longer exists.
func (c *Controller) OverlayAction(ctx echo.Context) error {
	session := ctx.Param("session")

	var req struct {
		Action  string `json:"action"`
		Payload string `json:"payload"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.ValidationError("invalid action request body"), "failed to parse request")
	}

	live := c.overlay.SessionID() == session
	if err := c.overlay.HandleAction(session, overlay.Action(req.Action), req.Payload); err != nil {
		return c.HandleError(ctx, err, "failed to handle overlay action")
	}

	status := "ok"
	if !live {
		status = "ignored"
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": status})
}
