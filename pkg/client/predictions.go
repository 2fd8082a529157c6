package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"wave-dashboard/internal/models"
)

// PredictionClient talks to the wave prediction API.
type PredictionClient struct {
	*BaseClient
	baseURL string
}

func NewPredictionClient(baseURL string, config ClientConfig, logger *zap.Logger) *PredictionClient {
	baseClient := NewBaseClient("prediction-api", config, logger)
	return &PredictionClient{
		BaseClient: baseClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *PredictionClient) BaseURL() string {
	return c.baseURL
}

func (c *PredictionClient) Locations(ctx context.Context) (models.LocationTable, error) {
	resp, err := c.GetWithRetry(ctx, "locations", c.baseURL+"/api/locations")
	if err != nil {
		return models.LocationTable{}, fmt.Errorf("failed to fetch locations: %w", err)
	}

	var table models.LocationTable
	if err := json.Unmarshal(resp.Body, &table); err != nil {
		return models.LocationTable{}, fmt.Errorf("failed to parse locations: %w", err)
	}
	return table, nil
}

func (c *PredictionClient) Variables(ctx context.Context) (models.VariableTable, error) {
	resp, err := c.GetWithRetry(ctx, "variables", c.baseURL+"/api/variables")
	if err != nil {
		return models.VariableTable{}, fmt.Errorf("failed to fetch variables: %w", err)
	}

	var table models.VariableTable
	if err := json.Unmarshal(resp.Body, &table); err != nil {
		return models.VariableTable{}, fmt.Errorf("failed to parse variables: %w", err)
	}
	return table, nil
}

// MapHTML returns the map markup fragment as served by the API.
func (c *PredictionClient) MapHTML(ctx context.Context) (string, error) {
	resp, err := c.GetWithRetry(ctx, "map", c.baseURL+"/api/map")
	if err != nil {
		return "", fmt.Errorf("failed to fetch map: %w", err)
	}
	return string(resp.Body), nil
}

func (c *PredictionClient) Predictions(ctx context.Context, location string, steps int) ([]models.Prediction, error) {
	resp, err := c.GetWithRetry(ctx, "predict", c.baseURL+PredictionsPath(location, steps))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predictions for %s: %w", location, err)
	}

	var predictions []models.Prediction
	if err := json.Unmarshal(resp.Body, &predictions); err != nil {
		return nil, fmt.Errorf("failed to parse predictions for %s: %w", location, err)
	}
	return predictions, nil
}

// PredictionsCSV fetches the CSV export verbatim.
func (c *PredictionClient) PredictionsCSV(ctx context.Context, location string, steps int) (*Response, error) {
	resp, err := c.GetWithRetry(ctx, "predict_csv", c.baseURL+PredictionsCSVPath(location, steps))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch CSV for %s: %w", location, err)
	}
	return resp, nil
}

func PredictionsPath(location string, steps int) string {
	return fmt.Sprintf("/api/predict/%s?steps=%d", url.PathEscape(location), steps)
}

func PredictionsCSVPath(location string, steps int) string {
	return fmt.Sprintf("/api/predict_csv/%s?steps=%d", url.PathEscape(location), steps)
}
