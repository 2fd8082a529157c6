package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"wave-dashboard/internal/metrics"
	"wave-dashboard/internal/models"
)

// heatmapSteps is the horizon requested per location; only the first record
// is used.
const heatmapSteps = 1

type AggregatorConfig struct {
	Concurrency int
	RateLimit   float64
	Burst       int
}

// Aggregator builds the cross-location wave height snapshot. Each location is
// fetched independently; a failing location is recorded on its point and does
// not fail the snapshot.
type Aggregator struct {
	api     Upstream
	logger  *zap.Logger
	limit   int
	limiter *rate.Limiter
	group   singleflight.Group

	mu            sync.RWMutex
	snapshot      *models.Heatmap
	lastFetchTime time.Time
	successCount  int
	failureCount  int
	refreshCount  int
}

func NewAggregator(api Upstream, cfg AggregatorConfig, logger *zap.Logger) *Aggregator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Aggregator{
		api:     api,
		logger:  logger,
		limit:   cfg.Concurrency,
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

// Heatmap returns the latest snapshot, building one on first use.
func (a *Aggregator) Heatmap(ctx context.Context) (*models.Heatmap, error) {
	a.mu.RLock()
	snapshot := a.snapshot
	a.mu.RUnlock()

	if snapshot != nil {
		return snapshot, nil
	}
	return a.Refresh(ctx)
}

// Refresh rebuilds the snapshot. Concurrent callers share one rebuild.
func (a *Aggregator) Refresh(ctx context.Context) (*models.Heatmap, error) {
	v, err, _ := a.group.Do("heatmap", func() (interface{}, error) {
		return a.fetchHeatmap(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Heatmap), nil
}

func (a *Aggregator) fetchHeatmap(ctx context.Context) (*models.Heatmap, error) {
	startTime := time.Now()

	var (
		locations models.LocationTable
		locErr    error
		varErr    error
		wg        sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		locations, locErr = a.api.Locations(ctx)
	}()
	go func() {
		defer wg.Done()
		_, varErr = a.api.Variables(ctx)
	}()
	wg.Wait()

	if locErr != nil {
		return nil, fmt.Errorf("heatmap: %w", locErr)
	}
	if varErr != nil {
		return nil, fmt.Errorf("heatmap: %w", varErr)
	}

	all := locations.All()
	points := make([]models.HeatmapPoint, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)

	for i, loc := range all {
		g.Go(func() error {
			points[i] = a.fetchPoint(gctx, loc)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, p := range points {
		if p.Err != nil {
			failed++
		}
	}

	hm := &models.Heatmap{
		Points:      points,
		Failed:      failed,
		LastUpdated: time.Now(),
	}

	a.mu.Lock()
	a.snapshot = hm
	a.lastFetchTime = hm.LastUpdated
	a.successCount += len(points) - failed
	a.failureCount += failed
	a.refreshCount++
	a.mu.Unlock()

	a.logger.Info("Heatmap refresh completed",
		zap.Int("locations", len(points)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(startTime)))

	return hm, nil
}

func (a *Aggregator) fetchPoint(ctx context.Context, loc models.Location) models.HeatmapPoint {
	point := models.HeatmapPoint{
		Location:  loc.Name,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}

	if err := a.limiter.Wait(ctx); err != nil {
		point.Err = err
		return point
	}

	preds, err := a.api.Predictions(ctx, loc.Name, heatmapSteps)
	if err != nil {
		metrics.HeatmapLocationFailures.WithLabelValues(loc.Name).Inc()
		a.logger.Warn("Failed to fetch heatmap point",
			zap.String("location", loc.Name),
			zap.Error(err))
		point.Err = err
		return point
	}

	if len(preds) > 0 {
		point.SWH = preds[0].Values.Ptr(models.SWH)
	}
	return point
}

func (a *Aggregator) GetLastFetchTime() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastFetchTime
}

func (a *Aggregator) GetStats() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	points := 0
	if a.snapshot != nil {
		points = len(a.snapshot.Points)
	}

	return map[string]interface{}{
		"last_fetch_time": a.lastFetchTime,
		"success_count":   a.successCount,
		"failure_count":   a.failureCount,
		"refresh_count":   a.refreshCount,
		"points_stored":   points,
		"concurrency":     a.limit,
	}
}
