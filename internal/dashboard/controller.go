// Package dashboard holds the wave dashboard controller: the state a page
// session owns, the reaction to each input, and the orchestration of
// prediction fetches. Rendering goes through a View.
package dashboard

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"wave-dashboard/internal/chart"
	"wave-dashboard/internal/metrics"
	"wave-dashboard/internal/models"
	"wave-dashboard/pkg/client"
)

var (
	ErrNoLocation    = errors.New("no location selected")
	ErrNoPredictions = errors.New("no predictions available")
	ErrStaleResponse = errors.New("prediction response superseded by a newer request")
)

const (
	alertNoPredictions = "No predictions available for this location."
	alertPredictPrefix = "Error getting predictions: "
	alertUnknownError  = "Unknown error"
	mapErrorMessage    = "Failed to load map."
)

// API is the subset of the prediction API the controller consumes.
type API interface {
	Locations(ctx context.Context) (models.LocationTable, error)
	Variables(ctx context.Context) (models.VariableTable, error)
	MapHTML(ctx context.Context) (string, error)
	Predictions(ctx context.Context, location string, steps int) ([]models.Prediction, error)
}

// HeatmapSource supplies the cross-location wave height snapshot.
type HeatmapSource interface {
	Heatmap(ctx context.Context) (*models.Heatmap, error)
}

type Options struct {
	DefaultSteps int
	MinSteps     int
	MaxSteps     int
	Thresholds   Thresholds
	DisplayZone  *time.Location
	// Rand supplies placeholder wind directions. Nil seeds from the clock.
	Rand    *rand.Rand
	Heatmap HeatmapSource
}

// Controller owns one dashboard session. Its state is only written by its own
// methods and every view update happens under mu.
type Controller struct {
	api     API
	view    View
	logger  *zap.Logger
	opts    Options
	rng     *rand.Rand
	heatmap HeatmapSource

	mu          sync.Mutex
	locations   models.LocationTable
	variables   models.VariableTable
	predictions []models.Prediction
	selected    string
	steps       int
	generation  uint64
}

func NewController(api API, view View, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MinSteps < 1 {
		opts.MinSteps = 1
	}
	if opts.MaxSteps < opts.MinSteps {
		opts.MaxSteps = opts.MinSteps
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds
	}
	if opts.DisplayZone == nil {
		opts.DisplayZone = time.Local
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := &Controller{
		api:     api,
		view:    view,
		logger:  logger,
		opts:    opts,
		rng:     rng,
		heatmap: opts.Heatmap,
		steps:   clamp(opts.DefaultSteps, opts.MinSteps, opts.MaxSteps),
	}

	view.SetLocationOptions([]Option{PlaceholderOption})
	view.SetPredictEnabled(false)
	view.SetStepsLabel(strconv.Itoa(c.steps))
	view.SetLoading(false)
	view.SetConditionsVisible(false)
	view.SetDownloadVisible(false)

	return c
}

// Load fetches the location table, the variable table and the map fragment
// concurrently. Each request fills its own slot; one failing does not affect
// the others. Load returns once all three have completed.
func (c *Controller) Load(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		table, err := c.api.Locations(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.logger.Error("Failed to load locations", zap.Error(err))
			c.view.ShowLoadError("locations", err)
			return
		}
		c.locations = table
		c.view.SetLocationOptions(locationOptions(table))
	}()

	go func() {
		defer wg.Done()
		table, err := c.api.Variables(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.logger.Error("Failed to load variables", zap.Error(err))
			c.view.ShowLoadError("variables", err)
			return
		}
		c.variables = table
	}()

	go func() {
		defer wg.Done()
		html, err := c.api.MapHTML(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.logger.Warn("Failed to load map", zap.Error(err))
			c.view.ShowMapError(mapErrorMessage)
			return
		}
		c.view.SetMapHTML(html)
	}()

	wg.Wait()
}

// LoadHeatmap plots the cross-location wave height layer. It is independent
// of the main prediction flow.
func (c *Controller) LoadHeatmap(ctx context.Context) error {
	if c.heatmap == nil {
		return nil
	}

	hm, err := c.heatmap.Heatmap(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("Failed to load heatmap", zap.Error(err))
		c.view.ShowLoadError("heatmap", err)
		return err
	}
	c.view.Plot(IDHeatmap, chart.Heatmap(hm.Points))
	return nil
}

func locationOptions(table models.LocationTable) []Option {
	opts := make([]Option, 0, table.Len()+1)
	opts = append(opts, PlaceholderOption)
	for _, name := range table.Names() {
		opts = append(opts, Option{Value: name, Label: name})
	}
	return opts
}

// SelectLocation reflects a selector change. Predict is enabled only for a
// non-empty selection, and the primary charts are always reset.
func (c *Controller) SelectLocation(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = name
	c.view.SetPredictEnabled(name != "")
	c.view.SetConditionsVisible(false)
	c.resetPrimaryCharts()
}

// SetSteps mirrors the slider value into its label and returns the value
// actually stored after clamping.
func (c *Controller) SetSteps(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.steps = clamp(n, c.opts.MinSteps, c.opts.MaxSteps)
	c.view.SetStepsLabel(strconv.Itoa(c.steps))
	return c.steps
}

// Predict fetches predictions for the selected location and renders them.
// Only the latest request may update state; an older response arriving late
// is dropped with ErrStaleResponse.
func (c *Controller) Predict(ctx context.Context) error {
	c.mu.Lock()
	location, steps := c.selected, c.steps
	if location == "" {
		c.mu.Unlock()
		return ErrNoLocation
	}
	c.generation++
	gen := c.generation
	c.view.SetLoading(true)
	c.view.SetPredictEnabled(false)
	c.view.SetConditionsVisible(false)
	c.mu.Unlock()

	c.logger.Info("Fetching predictions",
		zap.String("location", location),
		zap.Int("steps", steps),
		zap.Uint64("generation", gen))

	preds, err := c.api.Predictions(ctx, location, steps)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		metrics.StaleResponsesDropped.Inc()
		c.logger.Info("Dropping stale prediction response",
			zap.String("location", location),
			zap.Uint64("generation", gen),
			zap.Uint64("current", c.generation))
		return ErrStaleResponse
	}

	defer func() {
		c.view.SetLoading(false)
		c.view.SetPredictEnabled(true)
	}()

	if err != nil {
		metrics.PredictionOutcomes.WithLabelValues("error").Inc()
		c.failPrediction(location, steps, err)
		return err
	}

	c.predictions = preds
	if len(preds) == 0 {
		metrics.PredictionOutcomes.WithLabelValues("empty").Inc()
		c.view.Alert(alertNoPredictions)
		c.resetPrimaryCharts()
		c.view.SetDownloadVisible(false)
		return ErrNoPredictions
	}

	metrics.PredictionOutcomes.WithLabelValues("ok").Inc()
	c.render(preds)
	return nil
}

func (c *Controller) failPrediction(location string, steps int, err error) {
	var apiErr *client.APIError
	fields := []zap.Field{
		zap.String("location", location),
		zap.Int("steps", steps),
		zap.Error(err),
	}
	if errors.As(err, &apiErr) {
		fields = append(fields,
			zap.Int("status", apiErr.StatusCode),
			zap.String("body", apiErr.Body))
	}
	c.logger.Error("Prediction API error", fields...)

	message := alertUnknownError
	if m, ok := client.ServerMessage(err); ok {
		message = m
	}
	c.view.Alert(alertPredictPrefix + message)
	c.resetPrimaryCharts()
	c.view.SetDownloadVisible(false)
}

func (c *Controller) render(preds []models.Prediction) {
	set := chart.Build(preds, c.variables, c.rng)
	c.view.Plot(IDWavePeriodChart, set.Period)
	c.view.Plot(IDHeightWindChart, set.HeightWind)
	c.view.Plot(IDSummaryChart, set.Summary)
	c.view.Plot(IDWindRoseChart, set.WindRose)
	c.view.Plot(IDHeightAnimation, set.Animation)

	c.view.SetConditions(Conditions(preds[0], c.variables))
	c.view.SetConditionsVisible(true)
	if banners := ExtremeEvents(preds, c.opts.Thresholds, c.opts.DisplayZone); len(banners) > 0 {
		c.view.PrependBanners(banners)
	}
	c.view.SetDownloadVisible(true)
}

func (c *Controller) resetPrimaryCharts() {
	for _, id := range PrimaryCharts {
		c.view.Plot(id, chart.Empty())
	}
}

// DownloadCSV opens the CSV export of the current selection in a new window.
func (c *Controller) DownloadCSV() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == "" {
		return ErrNoLocation
	}
	c.view.Open(client.PredictionsCSVPath(c.selected, c.steps))
	return nil
}

func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Controller) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps
}

func (c *Controller) Locations() models.LocationTable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locations
}

func (c *Controller) Variables() models.VariableTable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variables
}

// Predictions returns a copy of the last accepted prediction list.
func (c *Controller) Predictions() []models.Prediction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Prediction, len(c.predictions))
	copy(out, c.predictions)
	return out
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
