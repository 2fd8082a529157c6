package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"wave-dashboard/internal/dashboard"
	"wave-dashboard/internal/services"
	"wave-dashboard/pkg/client"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// CSVSource serves the upstream CSV export.
type CSVSource interface {
	PredictionsCSV(ctx context.Context, location string, steps int) (*client.Response, error)
}

// StatusFunc reports the state of a background component for /health.
type StatusFunc func() map[string]interface{}

type HandlerConfig struct {
	API       services.Upstream
	CSV       CSVSource
	Heatmap   dashboard.HeatmapSource
	Dashboard dashboard.Options
	Status    map[string]StatusFunc
}

type Handler struct {
	api       services.Upstream
	csv       CSVSource
	heatmap   dashboard.HeatmapSource
	options   dashboard.Options
	status    map[string]StatusFunc
	logger    *zap.Logger
	startTime time.Time
}

func NewHandler(cfg HandlerConfig, logger *zap.Logger) *Handler {
	return &Handler{
		api:       cfg.API,
		csv:       cfg.CSV,
		heatmap:   cfg.Heatmap,
		options:   cfg.Dashboard,
		status:    cfg.Status,
		logger:    logger,
		startTime: time.Now(),
	}
}

type pageData struct {
	View     *PageView
	Selected string
	Steps    int
	MinSteps int
	MaxSteps int
}

// GetIndex handles GET /. One controller drives a fresh page view per request;
// the query carries the selector, slider and button state.
func (h *Handler) GetIndex(c *fiber.Ctx) error {
	ctx := c.UserContext()
	view := NewPageView()
	ctrl := dashboard.NewController(h.api, view, h.options, h.logger)

	ctrl.Load(ctx)

	if c.Query("steps") != "" {
		ctrl.SetSteps(c.QueryInt("steps", ctrl.Steps()))
	}
	if location := c.Query("location"); location != "" {
		ctrl.SelectLocation(location)
	}

	switch action := c.Query("action"); action {
	case "", "select":
	case "predict":
		if err := ctrl.Predict(ctx); err != nil && !errors.Is(err, dashboard.ErrNoPredictions) {
			h.logger.Warn("Prediction request did not render",
				zap.String("location", ctrl.Selected()),
				zap.Error(err))
		}
	case "download":
		if err := ctrl.DownloadCSV(); err == nil && view.OpenURL != "" {
			return c.Redirect(view.OpenURL, fiber.StatusSeeOther)
		}
	default:
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown action %q", action))
	}

	c.Type("html", "utf-8")
	return pageTemplate.Execute(c.Response().BodyWriter(), pageData{
		View:     view,
		Selected: ctrl.Selected(),
		Steps:    ctrl.Steps(),
		MinSteps: h.options.MinSteps,
		MaxSteps: h.options.MaxSteps,
	})
}

// GetHeatmap handles GET /partials/heatmap with the heatmap figure document.
func (h *Handler) GetHeatmap(c *fiber.Ctx) error {
	if h.heatmap == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Heatmap is not enabled",
		})
	}

	view := NewPageView()
	opts := h.options
	opts.Heatmap = h.heatmap
	ctrl := dashboard.NewController(h.api, view, opts, h.logger)

	if err := ctrl.LoadHeatmap(c.UserContext()); err != nil {
		return h.upstreamError(c, err)
	}
	return c.JSON(view.Figures[dashboard.IDHeatmap])
}

// GetLocations handles GET /api/locations
func (h *Handler) GetLocations(c *fiber.Ctx) error {
	table, err := h.api.Locations(c.UserContext())
	if err != nil {
		return h.upstreamError(c, err)
	}
	return c.JSON(table)
}

// GetVariables handles GET /api/variables
func (h *Handler) GetVariables(c *fiber.Ctx) error {
	table, err := h.api.Variables(c.UserContext())
	if err != nil {
		return h.upstreamError(c, err)
	}
	return c.JSON(table)
}

// GetMap handles GET /api/map
func (h *Handler) GetMap(c *fiber.Ctx) error {
	html, err := h.api.MapHTML(c.UserContext())
	if err != nil {
		return h.upstreamError(c, err)
	}
	c.Type("html", "utf-8")
	return c.SendString(html)
}

// GetPredictions handles GET /api/predict/:location
func (h *Handler) GetPredictions(c *fiber.Ctx) error {
	location, err := h.locationParam(c)
	if err != nil {
		return err
	}
	steps := c.QueryInt("steps", h.options.DefaultSteps)

	h.logger.Info("Fetching predictions",
		zap.String("location", location),
		zap.Int("steps", steps))

	preds, err := h.api.Predictions(c.UserContext(), location, steps)
	if err != nil {
		return h.upstreamError(c, err)
	}
	return c.JSON(preds)
}

// GetPredictionsCSV handles GET /api/predict_csv/:location
func (h *Handler) GetPredictionsCSV(c *fiber.Ctx) error {
	location, err := h.locationParam(c)
	if err != nil {
		return err
	}
	steps := c.QueryInt("steps", h.options.DefaultSteps)

	resp, err := h.csv.PredictionsCSV(c.UserContext(), location, steps)
	if err != nil {
		return h.upstreamError(c, err)
	}

	c.Attachment(location + "_predictions.csv")
	if resp.ContentType != "" {
		c.Set(fiber.HeaderContentType, resp.ContentType)
	}
	return c.Send(resp.Body)
}

// GetHealth handles GET /health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	components := make(map[string]interface{}, len(h.status))
	for name, fn := range h.status {
		components[name] = fn()
	}

	return c.JSON(fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"uptime":     time.Since(h.startTime).String(),
		"components": components,
	})
}

func (h *Handler) locationParam(c *fiber.Ctx) (string, error) {
	location, err := url.PathUnescape(c.Params("location"))
	if err != nil || location == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid location")
	}
	return location, nil
}

// upstreamError relays an upstream failure with the upstream status and the
// server-supplied message when there is one.
func (h *Handler) upstreamError(c *fiber.Ctx, err error) error {
	status := client.StatusCode(err)
	switch {
	case status != 0:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = fiber.StatusServiceUnavailable
	default:
		status = fiber.StatusBadGateway
	}

	message, ok := client.ServerMessage(err)
	if !ok {
		message = err.Error()
	}

	h.logger.Error("Upstream request failed",
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Error(err))

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
