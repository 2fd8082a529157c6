package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	PredictionAPI struct {
		BaseURL string
		Timeout time.Duration
	}

	Dashboard struct {
		DefaultSteps  int
		MinSteps      int
		MaxSteps      int
		WaveThreshold float64
		WindThreshold float64
		DisplayTZ     string
		DisplayZone   *time.Location
	}

	Heatmap struct {
		Concurrency int
		RateLimit   float64
		Burst       int
		Schedule    string
	}

	Cache struct {
		Duration time.Duration
		MaxSize  int
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "60s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.PredictionAPI.BaseURL = getEnv("PREDICTION_API_URL", "http://localhost:7860")
	cfg.PredictionAPI.Timeout = parseDuration(getEnv("PREDICTION_API_TIMEOUT", "30s"))

	cfg.Dashboard.DefaultSteps = parseInt(getEnv("DEFAULT_STEPS", "8"))
	cfg.Dashboard.MinSteps = parseInt(getEnv("MIN_STEPS", "1"))
	cfg.Dashboard.MaxSteps = parseInt(getEnv("MAX_STEPS", "20"))
	cfg.Dashboard.WaveThreshold = parseFloat(getEnv("EXTREME_WAVE_HEIGHT", "3"))
	cfg.Dashboard.WindThreshold = parseFloat(getEnv("EXTREME_WIND_SPEED", "10"))
	cfg.Dashboard.DisplayTZ = getEnv("DISPLAY_TZ", "Local")
	cfg.Dashboard.DisplayZone = parseLocation(cfg.Dashboard.DisplayTZ)

	cfg.Heatmap.Concurrency = parseInt(getEnv("HEATMAP_CONCURRENCY", "4"))
	cfg.Heatmap.RateLimit = parseFloat(getEnv("HEATMAP_RATE_LIMIT", "5"))
	cfg.Heatmap.Burst = parseInt(getEnv("HEATMAP_BURST", "2"))
	cfg.Heatmap.Schedule = getEnv("HEATMAP_SCHEDULE", "@every 15m")

	cfg.Cache.Duration = parseDuration(getEnv("CACHE_DURATION", "10m"))
	cfg.Cache.MaxSize = parseInt(getEnv("MAX_CACHE_SIZE", "16"))

	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "2"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "500ms"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	cfg.normalize()

	return cfg, nil
}

// normalize repairs values that would break the dashboard if left as parsed.
func (c *Config) normalize() {
	if c.Dashboard.MinSteps < 1 {
		c.Dashboard.MinSteps = 1
	}
	if c.Dashboard.MaxSteps < c.Dashboard.MinSteps {
		c.Dashboard.MaxSteps = c.Dashboard.MinSteps
	}
	if c.Dashboard.DefaultSteps < c.Dashboard.MinSteps || c.Dashboard.DefaultSteps > c.Dashboard.MaxSteps {
		c.Dashboard.DefaultSteps = c.Dashboard.MinSteps
	}
	if c.Heatmap.Concurrency < 1 {
		c.Heatmap.Concurrency = 1
	}
	if c.Heatmap.Burst < 1 {
		c.Heatmap.Burst = 1
	}
	if c.Cache.MaxSize < 1 {
		c.Cache.MaxSize = 1
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

func parseLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		zap.L().Warn("Failed to load display timezone, using UTC", zap.String("value", name), zap.Error(err))
		return time.UTC
	}
	return loc
}
