package dashboard

import (
	"testing"
	"time"

	"wave-dashboard/internal/models"
)

func TestExtremeEvents(t *testing.T) {
	preds := []models.Prediction{
		{Timestamp: "2025-06-01T00:00:00", Values: models.Values{"swh": 2.9, "wind": 12}},
		{Timestamp: "2025-06-01T03:00:00", Values: models.Values{"swh": 3.1, "wind": 4}},
		{Timestamp: "2025-06-01T15:30:00", Values: models.Values{"swh": 4, "wind": 10.5}},
		{Timestamp: "2025-06-01T18:00:00", Values: models.Values{"swh": 3, "wind": 10}},
	}

	banners := ExtremeEvents(preds, DefaultThresholds, time.UTC)
	if len(banners) != 2 {
		t.Fatalf("banners = %+v", banners)
	}

	wantWave := "⚠️ High Wave Height (>3m) at: 6/1/2025, 3:00:00 AM, 6/1/2025, 3:30:00 PM"
	if banners[0].Kind != BannerWaveHeight || banners[0].Message != wantWave {
		t.Errorf("wave banner = %q", banners[0].Message)
	}
	wantWind := "⚠️ High Wind Speed (>10 m/s) at: 6/1/2025, 12:00:00 AM, 6/1/2025, 3:30:00 PM"
	if banners[1].Kind != BannerWindSpeed || banners[1].Message != wantWind {
		t.Errorf("wind banner = %q", banners[1].Message)
	}
}

func TestExtremeEvents_None(t *testing.T) {
	preds := []models.Prediction{
		{Timestamp: "2025-06-01T00:00:00", Values: models.Values{"swh": 3, "wind": 10}},
		{Timestamp: "2025-06-01T03:00:00", Values: models.Values{"mwp": 9}},
	}
	if banners := ExtremeEvents(preds, DefaultThresholds, time.UTC); len(banners) != 0 {
		t.Errorf("expected no banners, got %+v", banners)
	}
	if banners := ExtremeEvents(nil, DefaultThresholds, time.UTC); len(banners) != 0 {
		t.Errorf("expected no banners for empty input, got %+v", banners)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want string
	}{
		{"naive", "2025-12-24T18:45:00", "12/24/2025, 6:45:00 PM"},
		{"zoned", "2025-12-24T18:45:00+02:00", "12/24/2025, 4:45:00 PM"},
		{"space separated", "2025-01-05 09:00:00", "1/5/2025, 9:00:00 AM"},
		{"unparseable", "tomorrow", "tomorrow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTimestamp(models.Prediction{Timestamp: tt.ts}, time.UTC)
			if got != tt.want {
				t.Errorf("FormatTimestamp(%q) = %q, want %q", tt.ts, got, tt.want)
			}
		})
	}
}

func TestConditions_MissingValues(t *testing.T) {
	items := Conditions(models.Prediction{Values: models.Values{"swh": 1.25}}, models.NewVariableTable())
	if len(items) != 4 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].Label != "swh" || items[0].Text() != "1.25 meters" {
		t.Errorf("swh item = %+v", items[0])
	}
	if items[2].Text() != "n/a seconds" {
		t.Errorf("pp1d item = %q", items[2].Text())
	}
}
