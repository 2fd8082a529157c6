package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// Variable codes returned by the prediction API.
const (
	SWH     = "swh"
	MWP     = "mwp"
	PP1D    = "pp1d"
	Wind    = "wind"
	WindDir = "wind_dir"
)

// SummaryVariables is the fixed category order of the summary chart and the
// conditions panel.
var SummaryVariables = []string{SWH, MWP, PP1D, Wind}

type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationTable maps a location name to its coordinates and keeps the order
// in which the API listed the names.
type LocationTable struct {
	entries []Location
	index   map[string]int
}

func NewLocationTable(locations ...Location) LocationTable {
	t := LocationTable{index: make(map[string]int, len(locations))}
	for _, loc := range locations {
		t.add(loc)
	}
	return t
}

func (t *LocationTable) add(loc Location) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[loc.Name]; ok {
		t.entries[i] = loc
		return
	}
	t.index[loc.Name] = len(t.entries)
	t.entries = append(t.entries, loc)
}

func (t LocationTable) Len() int { return len(t.entries) }

func (t LocationTable) Names() []string {
	names := make([]string, len(t.entries))
	for i, loc := range t.entries {
		names[i] = loc.Name
	}
	return names
}

func (t LocationTable) All() []Location {
	out := make([]Location, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t LocationTable) Lookup(name string) (Location, bool) {
	i, ok := t.index[name]
	if !ok {
		return Location{}, false
	}
	return t.entries[i], true
}

// UnmarshalJSON decodes {"name": [lat, lon], ...} keeping key order.
func (t *LocationTable) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid location table JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("location table must be a JSON object, got %s", res.Type)
	}

	*t = LocationTable{index: make(map[string]int)}
	var err error
	res.ForEach(func(key, value gjson.Result) bool {
		coords := value.Array()
		if len(coords) < 2 {
			err = fmt.Errorf("location %q: expected [lat, lon], got %s", key.String(), value.Raw)
			return false
		}
		t.add(Location{
			Name:      key.String(),
			Latitude:  coords[0].Float(),
			Longitude: coords[1].Float(),
		})
		return true
	})
	return err
}

func (t LocationTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, loc := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(loc.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		coords, err := json.Marshal([2]float64{loc.Latitude, loc.Longitude})
		if err != nil {
			return nil, err
		}
		buf.Write(coords)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Variable struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// VariableTable maps variable codes to display labels in API order.
type VariableTable struct {
	entries []Variable
	index   map[string]int
}

func NewVariableTable(vars ...Variable) VariableTable {
	t := VariableTable{index: make(map[string]int, len(vars))}
	for _, v := range vars {
		t.add(v)
	}
	return t
}

func (t *VariableTable) add(v Variable) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[v.Code]; ok {
		t.entries[i] = v
		return
	}
	t.index[v.Code] = len(t.entries)
	t.entries = append(t.entries, v)
}

func (t VariableTable) Len() int { return len(t.entries) }

func (t VariableTable) All() []Variable {
	out := make([]Variable, len(t.entries))
	copy(out, t.entries)
	return out
}

// Label returns the display name for code, or the code itself when the table
// has no entry for it.
func (t VariableTable) Label(code string) string {
	if i, ok := t.index[code]; ok {
		return t.entries[i].Label
	}
	return code
}

func (t *VariableTable) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid variable table JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("variable table must be a JSON object, got %s", res.Type)
	}

	*t = VariableTable{index: make(map[string]int)}
	res.ForEach(func(key, value gjson.Result) bool {
		t.add(Variable{Code: key.String(), Label: value.String()})
		return true
	})
	return nil
}

func (t VariableTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Code)
		if err != nil {
			return nil, err
		}
		label, err := json.Marshal(v.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(label)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Values holds one record's predicted numbers keyed by variable code. The set
// of keys is whatever the API sent; nothing is validated.
type Values map[string]float64

func (v Values) Get(code string) (float64, bool) {
	f, ok := v[code]
	return f, ok
}

// Ptr returns nil for a missing code so it serializes as a JSON null point.
func (v Values) Ptr(code string) *float64 {
	f, ok := v[code]
	if !ok {
		return nil
	}
	return &f
}

// Format renders a value for text output, "n/a" when missing.
func (v Values) Format(code string) string {
	f, ok := v[code]
	if !ok {
		return "n/a"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type Prediction struct {
	Timestamp string `json:"timestamp"`
	Step      int    `json:"step,omitempty"`
	Values    Values `json:"predictions"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// Time parses the record timestamp. Timestamps without a zone are read in loc.
func (p Prediction) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, p.Timestamp, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", p.Timestamp)
}

type HeatmapPoint struct {
	Location  string   `json:"location"`
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lon"`
	SWH       *float64 `json:"swh"`
	Err       error    `json:"-"`
}

type Heatmap struct {
	Points      []HeatmapPoint `json:"points"`
	Failed      int            `json:"failed"`
	LastUpdated time.Time      `json:"last_updated"`
}
