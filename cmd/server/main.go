package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"wave-dashboard/internal/api"
	"wave-dashboard/internal/config"
	"wave-dashboard/internal/dashboard"
	"wave-dashboard/internal/scheduler"
	"wave-dashboard/internal/services"
	"wave-dashboard/pkg/client"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Wave Dashboard")

	upstream := newPredictionClient(cfg, logger)
	cache := services.NewReferenceCache(cfg.Cache.Duration, cfg.Cache.MaxSize, logger)
	defer cache.Stop()
	cached := services.NewCachedAPI(upstream, cache, logger)

	heatmap := services.NewAggregator(cached, aggregatorConfig(cfg), logger)
	heatmapScheduler := scheduler.NewScheduler(heatmap, cfg.Heatmap.Schedule, logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	handler := api.NewHandler(api.HandlerConfig{
		API:       cached,
		CSV:       upstream,
		Heatmap:   heatmap,
		Dashboard: dashboardOptions(cfg),
		Status: map[string]api.StatusFunc{
			"heatmap":   heatmap.GetStats,
			"scheduler": heatmapScheduler.GetStatus,
			"cache":     cache.GetStats,
		},
	}, logger)
	api.SetupRoutes(app, handler, logger)

	if err := heatmapScheduler.Start(); err != nil {
		return err
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server",
			zap.String("address", addr),
			zap.String("prediction_api", upstream.BaseURL()))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	heatmapScheduler.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}

func newPredictionClient(cfg *config.Config, logger *zap.Logger) *client.PredictionClient {
	return client.NewPredictionClient(cfg.PredictionAPI.BaseURL, client.ClientConfig{
		Timeout:        cfg.PredictionAPI.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}, logger)
}

func dashboardOptions(cfg *config.Config) dashboard.Options {
	return dashboard.Options{
		DefaultSteps: cfg.Dashboard.DefaultSteps,
		MinSteps:     cfg.Dashboard.MinSteps,
		MaxSteps:     cfg.Dashboard.MaxSteps,
		Thresholds: dashboard.Thresholds{
			WaveHeight: cfg.Dashboard.WaveThreshold,
			WindSpeed:  cfg.Dashboard.WindThreshold,
		},
		DisplayZone: cfg.Dashboard.DisplayZone,
	}
}

func aggregatorConfig(cfg *config.Config) services.AggregatorConfig {
	return services.AggregatorConfig{
		Concurrency: cfg.Heatmap.Concurrency,
		RateLimit:   cfg.Heatmap.RateLimit,
		Burst:       cfg.Heatmap.Burst,
	}
}
