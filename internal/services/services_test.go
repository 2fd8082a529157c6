package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"wave-dashboard/internal/models"
)

type fakeUpstream struct {
	mu        sync.Mutex
	calls     map[string]int
	locations models.LocationTable
	locErr    error
	predict   func(location string) ([]models.Prediction, error)

	inFlight    int32
	maxInFlight int32
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		calls: make(map[string]int),
		locations: models.NewLocationTable(
			models.Location{Name: "Maldives", Latitude: 4.1755, Longitude: 73.5093},
			models.Location{Name: "Atlantis", Latitude: 0, Longitude: -30},
			models.Location{Name: "Seychelles", Latitude: -4.6796, Longitude: 55.4919},
			models.Location{Name: "Fiji", Latitude: -17.7134, Longitude: 178.065},
		),
		predict: func(location string) ([]models.Prediction, error) {
			return []models.Prediction{{Timestamp: "2025-06-01T00:00:00", Values: models.Values{"swh": 2}}}, nil
		},
	}
}

func (f *fakeUpstream) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeUpstream) hit(kind string) {
	f.mu.Lock()
	f.calls[kind]++
	f.mu.Unlock()
}

func (f *fakeUpstream) Locations(ctx context.Context) (models.LocationTable, error) {
	f.hit(KindLocations)
	return f.locations, f.locErr
}

func (f *fakeUpstream) Variables(ctx context.Context) (models.VariableTable, error) {
	f.hit(KindVariables)
	return models.NewVariableTable(models.Variable{Code: models.SWH, Label: "Significant Wave Height"}), nil
}

func (f *fakeUpstream) MapHTML(ctx context.Context) (string, error) {
	f.hit(KindMap)
	return "<div>map</div>", nil
}

func (f *fakeUpstream) Predictions(ctx context.Context, location string, steps int) ([]models.Prediction, error) {
	f.hit("predict")
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxInFlight, peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return f.predict(location)
}

func TestReferenceCache_Expiry(t *testing.T) {
	cache := NewReferenceCache(time.Minute, 4, zaptest.NewLogger(t))
	defer cache.Stop()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set(KindMap, "<div></div>")
	if v, ok := cache.Get(KindMap); !ok || v.(string) != "<div></div>" {
		t.Fatalf("Get = %v, %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get(KindMap); ok {
		t.Error("expired entry returned")
	}
}

func TestReferenceCache_EvictsOldest(t *testing.T) {
	cache := NewReferenceCache(time.Minute, 2, zaptest.NewLogger(t))
	defer cache.Stop()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("a", 1)
	now = now.Add(time.Second)
	cache.Set("b", 2)
	now = now.Add(time.Second)
	cache.Set("c", 3)

	if _, ok := cache.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("newest entry missing")
	}
	if stats := cache.GetStats(); stats["items"] != 2 {
		t.Errorf("stats = %v", stats)
	}
}

func TestCachedAPI_CachesReferenceData(t *testing.T) {
	upstream := newFakeUpstream()
	cache := NewReferenceCache(time.Minute, 8, zaptest.NewLogger(t))
	defer cache.Stop()
	api := NewCachedAPI(upstream, cache, zaptest.NewLogger(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		table, err := api.Locations(ctx)
		if err != nil {
			t.Fatalf("Locations: %v", err)
		}
		if table.Len() != 4 {
			t.Errorf("len = %d", table.Len())
		}
		if _, err := api.MapHTML(ctx); err != nil {
			t.Fatalf("MapHTML: %v", err)
		}
		if _, err := api.Predictions(ctx, "Maldives", 8); err != nil {
			t.Fatalf("Predictions: %v", err)
		}
	}

	if got := upstream.count(KindLocations); got != 1 {
		t.Errorf("locations fetched %d times", got)
	}
	if got := upstream.count(KindMap); got != 1 {
		t.Errorf("map fetched %d times", got)
	}
	if got := upstream.count("predict"); got != 3 {
		t.Errorf("predictions must pass through, fetched %d times", got)
	}
}

func TestCachedAPI_DoesNotCacheErrors(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.locErr = errors.New("upstream down")
	cache := NewReferenceCache(time.Minute, 8, zaptest.NewLogger(t))
	defer cache.Stop()
	api := NewCachedAPI(upstream, cache, zaptest.NewLogger(t))

	if _, err := api.Locations(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	upstream.locErr = nil
	if _, err := api.Locations(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if got := upstream.count(KindLocations); got != 2 {
		t.Errorf("locations fetched %d times, want 2", got)
	}
}

func TestAggregator_IsolatesFailures(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.predict = func(location string) ([]models.Prediction, error) {
		switch location {
		case "Atlantis":
			return nil, errors.New("Location not found")
		case "Fiji":
			return []models.Prediction{}, nil
		default:
			return []models.Prediction{{Values: models.Values{"swh": 1.5}}}, nil
		}
	}

	agg := NewAggregator(upstream, AggregatorConfig{Concurrency: 2}, zaptest.NewLogger(t))
	hm, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if len(hm.Points) != 4 || hm.Failed != 1 {
		t.Fatalf("points = %d, failed = %d", len(hm.Points), hm.Failed)
	}
	wantOrder := []string{"Maldives", "Atlantis", "Seychelles", "Fiji"}
	for i, name := range wantOrder {
		if hm.Points[i].Location != name {
			t.Errorf("point %d = %q, want %q", i, hm.Points[i].Location, name)
		}
	}
	if hm.Points[0].SWH == nil || *hm.Points[0].SWH != 1.5 {
		t.Errorf("Maldives swh = %v", hm.Points[0].SWH)
	}
	if hm.Points[1].Err == nil {
		t.Error("Atlantis should carry its error")
	}
	if hm.Points[3].SWH != nil || hm.Points[3].Err != nil {
		t.Errorf("empty result should be a null height, got %+v", hm.Points[3])
	}
	if peak := atomic.LoadInt32(&upstream.maxInFlight); peak > 2 {
		t.Errorf("max in flight = %d, limit 2", peak)
	}
}

func TestAggregator_HeatmapUsesSnapshot(t *testing.T) {
	upstream := newFakeUpstream()
	agg := NewAggregator(upstream, AggregatorConfig{Concurrency: 4}, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := agg.Heatmap(ctx)
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}
	second, err := agg.Heatmap(ctx)
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}
	if first != second {
		t.Error("second call should return the cached snapshot")
	}
	if got := upstream.count("predict"); got != 4 {
		t.Errorf("predictions fetched %d times, want 4", got)
	}

	if _, err := agg.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := upstream.count("predict"); got != 8 {
		t.Errorf("predictions fetched %d times after refresh, want 8", got)
	}
	if stats := agg.GetStats(); stats["refresh_count"] != 2 {
		t.Errorf("stats = %v", stats)
	}
}

func TestAggregator_LocationsFailure(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.locErr = errors.New("connection refused")
	agg := NewAggregator(upstream, AggregatorConfig{}, zaptest.NewLogger(t))

	if _, err := agg.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !agg.GetLastFetchTime().IsZero() {
		t.Error("failed refresh must not record a fetch time")
	}
}
