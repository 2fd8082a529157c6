package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"wave-dashboard/internal/chart"
	"wave-dashboard/internal/dashboard"
	"wave-dashboard/internal/services"
	"wave-dashboard/pkg/client"
)

func fakePredictionAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"Seychelles":[-4.6796,55.4919],"Maldives":[4.1755,73.5093],"Atlantis":[0,-30]}`)
	})
	mux.HandleFunc("/api/variables", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"swh":"Significant Wave Height","mwp":"Mean Wave Period","pp1d":"Peak Wave Period","wind":"Wind Speed"}`)
	})
	mux.HandleFunc("/api/map", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<div class="folium-map" id="map_1"></div>`)
	})
	mux.HandleFunc("/api/predict/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch strings.TrimPrefix(r.URL.Path, "/api/predict/") {
		case "Atlantis":
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"Location not found"}`)
		case "Seychelles":
			io.WriteString(w, `[]`)
		default:
			io.WriteString(w, `[{"timestamp":"2025-06-01T06:00:00","step":1,"predictions":{"swh":3.5,"mwp":8,"pp1d":10,"wind":5}},`+
				`{"timestamp":"2025-06-01T09:00:00","step":2,"predictions":{"swh":2.5,"mwp":7,"pp1d":9,"wind":11}}]`)
		}
	})
	mux.HandleFunc("/api/predict_csv/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "timestamp,swh\n2025-06-01T06:00:00,3.5\n")
	})
	return httptest.NewServer(mux)
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	srv := fakePredictionAPI(t)
	t.Cleanup(srv.Close)

	logger := zaptest.NewLogger(t)
	upstream := client.NewPredictionClient(srv.URL, client.ClientConfig{
		Timeout:        5 * time.Second,
		RetryDelay:     time.Millisecond,
		Multiplier:     1,
		Threshold:      10,
		BreakerTimeout: time.Minute,
	}, logger)
	cache := services.NewReferenceCache(time.Minute, 8, logger)
	t.Cleanup(cache.Stop)
	cached := services.NewCachedAPI(upstream, cache, logger)
	heatmap := services.NewAggregator(cached, services.AggregatorConfig{Concurrency: 2}, logger)

	handler := NewHandler(HandlerConfig{
		API:     cached,
		CSV:     upstream,
		Heatmap: heatmap,
		Dashboard: dashboard.Options{
			DefaultSteps: 8,
			MinSteps:     1,
			MaxSteps:     20,
			DisplayZone:  time.UTC,
		},
		Status: map[string]StatusFunc{
			"heatmap": heatmap.GetStats,
			"cache":   cache.GetStats,
		},
	}, logger)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, handler, logger)
	return app
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), 5000)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestIndex_InitialPage(t *testing.T) {
	app := newTestApp(t)
	resp, body := get(t, app, "/")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`id="locationSelect"`, `id="stepsSlider"`, `id="stepsValue">8<`,
		`id="predictBtn"`, `id="downloadCsvBtn"`, `id="loadingOverlay"`,
		`id="currentConditions"`, `id="conditionsData"`, `id="map-container"`,
		`id="waveHeightHeatmap"`, `class="folium-map"`,
		`>Select a location...</option>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s", want)
		}
	}

	seychelles := strings.Index(body, `value="Seychelles"`)
	maldives := strings.Index(body, `value="Maldives"`)
	atlantis := strings.Index(body, `value="Atlantis"`)
	if seychelles < 0 || !(seychelles < maldives && maldives < atlantis) {
		t.Error("options not in API order")
	}
	if !strings.Contains(body, `value="predict" disabled`) {
		t.Error("predict should be disabled without a selection")
	}
}

func TestIndex_Predict(t *testing.T) {
	app := newTestApp(t)
	resp, body := get(t, app, "/?location=Maldives&steps=2&action=predict")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		"3.5 meters",
		"High Wave Height (&gt;3m) at: 6/1/2025, 6:00:00 AM",
		"High Wind Speed (&gt;10 m/s) at: 6/1/2025, 9:00:00 AM",
		`"wavePeriodChart"`,
		`"waveHeightAnimation"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, `value="predict" disabled`) {
		t.Error("predict should be enabled after the request")
	}
	if strings.Contains(body, `id="currentConditions" class="card hidden"`) {
		t.Error("conditions should be visible")
	}
}

func TestIndex_PredictFailureAlerts(t *testing.T) {
	app := newTestApp(t)
	_, body := get(t, app, "/?location=Atlantis&action=predict")

	if !strings.Contains(body, "Error getting predictions: Location not found") {
		t.Error("missing server message alert")
	}
	if !strings.Contains(body, `id="currentConditions" class="card hidden"`) {
		t.Error("conditions should stay hidden")
	}
}

func TestIndex_PredictEmptyAlerts(t *testing.T) {
	app := newTestApp(t)
	_, body := get(t, app, "/?location=Seychelles&action=predict")

	if !strings.Contains(body, "No predictions available for this location.") {
		t.Error("missing empty-result alert")
	}
	if !strings.Contains(body, `id="downloadCsvBtn" class="hidden"`) {
		t.Error("download should be hidden")
	}
}

func TestIndex_DownloadRedirects(t *testing.T) {
	app := newTestApp(t)
	resp, _ := get(t, app, "/?location=Phu+Quoc%2C+Vietnam&steps=4&action=download")

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/api/predict_csv/Phu%20Quoc%2C%20Vietnam?steps=4" {
		t.Errorf("Location = %q", got)
	}
}

func TestIndex_UnknownAction(t *testing.T) {
	app := newTestApp(t)
	resp, body := get(t, app, "/?action=explode")

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"success":false`) {
		t.Errorf("body = %s", body)
	}
}

func TestPassthrough_Locations(t *testing.T) {
	app := newTestApp(t)
	resp, body := get(t, app, "/api/locations")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body != `{"Seychelles":[-4.6796,55.4919],"Maldives":[4.1755,73.5093],"Atlantis":[0,-30]}` {
		t.Errorf("body = %s", body)
	}
}

func TestPassthrough_PredictErrorKeepsStatus(t *testing.T) {
	app := newTestApp(t)
	resp, body := get(t, app, "/api/predict/Atlantis?steps=3")

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"] != "Location not found" {
		t.Errorf("error = %q", payload["error"])
	}
}

func TestPassthrough_CSV(t *testing.T) {
	app := newTestApp(t)
	resp, body := get(t, app, "/api/predict_csv/Maldives?steps=2")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "Maldives_predictions.csv") {
		t.Errorf("Content-Disposition = %q", resp.Header.Get("Content-Disposition"))
	}
	if !strings.HasPrefix(body, "timestamp,swh") {
		t.Errorf("body = %q", body)
	}
}

func TestHeatmapPartial(t *testing.T) {
	app := newTestApp(t)
	resp, body := get(t, app, "/partials/heatmap")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var fig chart.Figure
	if err := json.Unmarshal([]byte(body), &fig); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fig.Data) != 1 || fig.Data[0].Type != "scattergeo" {
		t.Fatalf("figure = %+v", fig)
	}
	// Atlantis fails upstream and is left out; Seychelles has no records.
	if len(fig.Data[0].Lat) != 2 {
		t.Errorf("lat = %v", fig.Data[0].Lat)
	}
	if fig.Data[0].Text[0] != "Seychelles: null m" || fig.Data[0].Text[1] != "Maldives: 3.5 m" {
		t.Errorf("text = %v", fig.Data[0].Text)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	resp, body := get(t, app, "/health")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"status":"healthy"`) {
		t.Errorf("health = %d %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `"heatmap"`) || !strings.Contains(body, `"cache"`) {
		t.Errorf("health missing components: %s", body)
	}

	get(t, app, "/api/locations")
	resp, body = get(t, app, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "wavedash_upstream_calls_total") {
		t.Error("metrics missing upstream counter")
	}
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t)
	resp, body := get(t, app, "/nope")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(body, "Endpoint not found") {
		t.Errorf("got %d %s", resp.StatusCode, body)
	}
}
