package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestLocationTable_KeepsAPIOrder(t *testing.T) {
	raw := `{"Maldives":[4.1755,73.5093],"Phu Quoc, Vietnam":[10.227,103.963],"Andaman Islands":[12.0,92.9]}`

	var table LocationTable
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"Maldives", "Phu Quoc, Vietnam", "Andaman Islands"}
	if got := table.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	loc, ok := table.Lookup("Phu Quoc, Vietnam")
	if !ok {
		t.Fatal("expected Phu Quoc to be present")
	}
	if loc.Latitude != 10.227 || loc.Longitude != 103.963 {
		t.Errorf("coords = (%v, %v)", loc.Latitude, loc.Longitude)
	}

	out, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want2 := `{"Maldives":[4.1755,73.5093],"Phu Quoc, Vietnam":[10.227,103.963],"Andaman Islands":[12,92.9]}`
	if string(out) != want2 {
		t.Errorf("marshal = %s\nwant      %s", out, want2)
	}
}

func TestLocationTable_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"array", `[1,2]`},
		{"short coords", `{"Maldives":[4.1]}`},
		{"broken", `{"Maldives":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var table LocationTable
			if err := json.Unmarshal([]byte(tt.raw), &table); err == nil {
				t.Errorf("expected error for %s", tt.raw)
			}
		})
	}
}

func TestVariableTable_LabelFallback(t *testing.T) {
	var vars VariableTable
	raw := `{"swh":"Significant Wave Height","mwp":"Mean Wave Period","pp1d":"Peak Wave Period","wind":"Wind Speed"}`
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if vars.Len() != 4 {
		t.Fatalf("Len() = %d", vars.Len())
	}
	if got := vars.Label(SWH); got != "Significant Wave Height" {
		t.Errorf("Label(swh) = %q", got)
	}
	if got := vars.Label(WindDir); got != WindDir {
		t.Errorf("Label(wind_dir) = %q, want code fallback", got)
	}
	if got := vars.All()[3].Code; got != Wind {
		t.Errorf("last code = %q, want wind", got)
	}
}

func TestPrediction_MissingValues(t *testing.T) {
	var preds []Prediction
	raw := `[{"timestamp":"2025-06-01T06:00:00","step":1,"predictions":{"swh":3.5,"mwp":8}}]`
	if err := json.Unmarshal([]byte(raw), &preds); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := preds[0]
	if p.Values.Ptr(Wind) != nil {
		t.Error("expected nil pointer for missing wind")
	}
	if got := p.Values.Format(SWH); got != "3.5" {
		t.Errorf("Format(swh) = %q", got)
	}
	if got := p.Values.Format(PP1D); got != "n/a" {
		t.Errorf("Format(pp1d) = %q", got)
	}
}

func TestPrediction_Time(t *testing.T) {
	tests := []struct {
		ts   string
		want time.Time
	}{
		{"2025-06-01T06:00:00.123456", time.Date(2025, 6, 1, 6, 0, 0, 123456000, time.UTC)},
		{"2025-06-01T06:00:00Z", time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)},
		{"2025-06-01T06:00:00+02:00", time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)},
		{"2025-06-01 06:00:00", time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := Prediction{Timestamp: tt.ts}.Time(time.UTC)
		if err != nil {
			t.Errorf("Time(%q): %v", tt.ts, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Time(%q) = %v, want %v", tt.ts, got, tt.want)
		}
	}

	if _, err := (Prediction{Timestamp: "yesterday"}).Time(time.UTC); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}
