package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"wave-dashboard/internal/metrics"
	"wave-dashboard/internal/models"
)

// Upstream is the prediction API as seen by the services layer.
type Upstream interface {
	Locations(ctx context.Context) (models.LocationTable, error)
	Variables(ctx context.Context) (models.VariableTable, error)
	MapHTML(ctx context.Context) (string, error)
	Predictions(ctx context.Context, location string, steps int) ([]models.Prediction, error)
}

// CachedAPI serves locations, variables and the map fragment from a
// ReferenceCache and passes prediction requests straight through. Concurrent
// misses for the same kind share one upstream call.
type CachedAPI struct {
	upstream Upstream
	cache    *ReferenceCache
	group    singleflight.Group
	logger   *zap.Logger
}

func NewCachedAPI(upstream Upstream, cache *ReferenceCache, logger *zap.Logger) *CachedAPI {
	return &CachedAPI{
		upstream: upstream,
		cache:    cache,
		logger:   logger,
	}
}

func (a *CachedAPI) Locations(ctx context.Context) (models.LocationTable, error) {
	v, err := a.load(ctx, KindLocations, func(ctx context.Context) (interface{}, error) {
		return a.upstream.Locations(ctx)
	})
	if err != nil {
		return models.LocationTable{}, err
	}
	return v.(models.LocationTable), nil
}

func (a *CachedAPI) Variables(ctx context.Context) (models.VariableTable, error) {
	v, err := a.load(ctx, KindVariables, func(ctx context.Context) (interface{}, error) {
		return a.upstream.Variables(ctx)
	})
	if err != nil {
		return models.VariableTable{}, err
	}
	return v.(models.VariableTable), nil
}

func (a *CachedAPI) MapHTML(ctx context.Context) (string, error) {
	v, err := a.load(ctx, KindMap, func(ctx context.Context) (interface{}, error) {
		return a.upstream.MapHTML(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *CachedAPI) Predictions(ctx context.Context, location string, steps int) ([]models.Prediction, error) {
	return a.upstream.Predictions(ctx, location, steps)
}

func (a *CachedAPI) load(ctx context.Context, kind string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	if cached, ok := a.cache.Get(kind); ok {
		metrics.ReferenceCacheLookups.WithLabelValues(kind, "hit").Inc()
		a.logger.Debug("Cache hit for reference data", zap.String("kind", kind))
		return cached, nil
	}
	metrics.ReferenceCacheLookups.WithLabelValues(kind, "miss").Inc()
	a.logger.Debug("Cache miss for reference data, fetching", zap.String("kind", kind))

	v, err, shared := a.group.Do(kind, func() (interface{}, error) {
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		a.cache.Set(kind, data)
		return data, nil
	})
	if shared {
		a.logger.Debug("Shared in-flight reference fetch", zap.String("kind", kind))
	}
	return v, err
}
