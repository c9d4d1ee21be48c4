// Package api exposes the annotation synchronizer over HTTP: record listing
// and mutation, dataset load and filter, overlay session control, export,
// and Prometheus metrics. Handlers translate errors to statuses; nothing
// unwinds past a handler.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/geopin-go/internal/annotation"
	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/dataset"
	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/geo"
	"github.com/tphakala/geopin-go/internal/logging"
	"github.com/tphakala/geopin-go/internal/observability"
	"github.com/tphakala/geopin-go/internal/overlay"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings

	svc     *annotation.Service
	overlay *overlay.Manager
	loader  *dataset.Loader
	metrics *observability.Metrics

	// base is the last loaded full dataset; filters always rebuild from it
	baseMu sync.RWMutex
	base   geo.Snapshot

	apiLogger      *slog.Logger
	apiLoggerClose func() error
}

// New creates the API controller and registers all routes. metrics may be
// nil; the /metrics endpoint is then not mounted.
func New(settings *conf.Settings, svc *annotation.Service, overlayMgr *overlay.Manager, loader *dataset.Loader, m *observability.Metrics) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:     e,
		Settings: settings,
		svc:      svc,
		overlay:  overlayMgr,
		loader:   loader,
		metrics:  m,
	}

	levelVar := new(slog.LevelVar)
	if settings.Debug {
		levelVar.Set(slog.LevelDebug)
	}
	logger, closer, err := logging.NewFileLogger("logs/api.log", "api", levelVar)
	if err != nil || logger == nil {
		logger = logging.ForService("api")
	}
	c.apiLogger = logger
	c.apiLoggerClose = closer

	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group = c.Echo.Group("/api/v1")

	c.Group.GET("/records", c.ListRecords)
	c.Group.POST("/records/:index/flag", c.SetFlag)
	c.Group.POST("/records/:index/notes", c.AddNote)
	c.Group.DELETE("/records/:index/notes", c.ClearNotes)
	c.Group.DELETE("/records/flags", c.ClearAllFlags)

	c.Group.POST("/dataset/load", c.LoadDataset)
	c.Group.POST("/filter", c.ApplyFilter)
	c.Group.GET("/export", c.ExportSnapshot)

	c.Group.POST("/overlay", c.OpenOverlay)
	c.Group.DELETE("/overlay", c.CloseOverlay)
	c.Group.POST("/overlay/:session/action", c.OverlayAction)

	if c.metrics != nil && c.Settings.API.Metrics {
		c.Echo.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(c.metrics.Registry(), promhttp.HandlerOpts{})))
	}
}

// Start runs the HTTP server until the context is canceled, then shuts it
// down gracefully.
func (c *Controller) Start(ctx context.Context) error {
	addr := c.Settings.API.Host + ":" + c.Settings.API.Port

	errChan := make(chan error, 1)
	go func() {
		if err := c.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	c.apiLogger.Info("api server started", "addr", addr)

	select {
	case err := <-errChan:
		return errors.New(err).
			Component("api").
			Category(errors.CategoryNetwork).
			Context("addr", addr).
			Build()
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Echo.Shutdown(shutdownCtx); err != nil {
		return err
	}

	c.apiLogger.Info("api server stopped")
	if c.apiLoggerClose != nil {
		return c.apiLoggerClose()
	}
	return nil
}

// HandleError maps domain errors to HTTP responses. Validation failures are
// the caller's fault; anything else is a 500 with the detail kept out of the
// response body.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	status := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err), errors.IsCategory(err, errors.CategoryFilterExpr):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	}

	c.apiLogger.Error(message,
		"path", ctx.Request().URL.Path,
		"status", status,
		"error", err)

	body := map[string]string{"error": message}
	if status == http.StatusBadRequest {
		body["detail"] = err.Error()
	}
	return ctx.JSON(status, body)
}
