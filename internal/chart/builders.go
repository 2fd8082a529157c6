package chart

import (
	"fmt"
	"math/rand"
	"strconv"

	"wave-dashboard/internal/models"
)

// Labeler resolves a variable code to its display label.
type Labeler interface {
	Label(code string) string
}

// Set is every figure derived from one prediction list.
type Set struct {
	Period     Figure
	HeightWind Figure
	Summary    Figure
	WindRose   Figure
	Animation  Figure
}

// Build derives all prediction charts. rng supplies placeholder wind
// directions for records without one.
func Build(preds []models.Prediction, labels Labeler, rng *rand.Rand) Set {
	return Set{
		Period:     Period(preds, labels),
		HeightWind: HeightWind(preds, labels),
		Summary:    Summary(preds, labels),
		WindRose:   WindRose(preds, rng),
		Animation:  HeightAnimation(preds, labels),
	}
}

func timestamps(preds []models.Prediction) []any {
	xs := make([]any, len(preds))
	for i, p := range preds {
		xs[i] = p.Timestamp
	}
	return xs
}

func series(preds []models.Prediction, code string) []*float64 {
	ys := make([]*float64, len(preds))
	for i, p := range preds {
		ys[i] = p.Values.Ptr(code)
	}
	return ys
}

func lineTrace(preds []models.Prediction, code, name, color string) Trace {
	return Trace{
		X:    timestamps(preds),
		Y:    series(preds, code),
		Mode: "lines+markers",
		Name: name,
		Line: &Line{Color: color},
	}
}

// Period overlays mean and peak wave period on a shared axis.
func Period(preds []models.Prediction, labels Labeler) Figure {
	return Figure{
		Data: []Trace{
			lineTrace(preds, models.MWP, labels.Label(models.MWP), ColorPrimary),
			lineTrace(preds, models.PP1D, labels.Label(models.PP1D), ColorSecondary),
		},
		Layout: Layout{
			Title:     "Wave Period Predictions (Mean & Peak)",
			HoverMode: "x unified",
			XAxis:     &Axis{Title: "Time", ShowGrid: boolPtr(true)},
			YAxis:     &Axis{Title: "Period (s)", ShowGrid: boolPtr(true)},
			Margin:    &Margin{T: 50, L: 60, R: 30, B: 50},
			PlotBG:    plotBackground,
			PaperBG:   paperBackground,
			Font:      baseFont(),
			TitleFont: titleFont(),
		},
	}
}

// HeightWind plots wave height on the left axis and wind speed on the right.
func HeightWind(preds []models.Prediction, labels Labeler) Figure {
	swh := lineTrace(preds, models.SWH, labels.Label(models.SWH), ColorAccent)
	swh.YAxis = "y1"
	wind := lineTrace(preds, models.Wind, labels.Label(models.Wind), ColorWind)
	wind.YAxis = "y2"

	return Figure{
		Data: []Trace{swh, wind},
		Layout: Layout{
			Title:     "Significant Wave Height & Wind Speed Predictions",
			HoverMode: "x unified",
			XAxis:     &Axis{Title: "Time", ShowGrid: boolPtr(true)},
			YAxis:     &Axis{Title: "Wave Height (m)", Side: "left", ShowGrid: boolPtr(true), ZeroLine: boolPtr(false)},
			YAxis2:    &Axis{Title: "Wind Speed (m/s)", Side: "right", Overlaying: "y", ShowGrid: boolPtr(false), ZeroLine: boolPtr(false)},
			Margin:    &Margin{T: 50, L: 60, R: 60, B: 50},
			PlotBG:    plotBackground,
			PaperBG:   paperBackground,
			Font:      baseFont(),
			TitleFont: titleFont(),
		},
	}
}

var summaryColors = []string{ColorAccent, ColorPrimary, ColorSecondary, ColorWind}

// Summary is a bar per summary variable taken from the first record only.
func Summary(preds []models.Prediction, labels Labeler) Figure {
	if len(preds) == 0 {
		return Empty()
	}

	current := preds[0].Values
	names := make([]any, len(models.SummaryVariables))
	values := make([]*float64, len(models.SummaryVariables))
	for i, code := range models.SummaryVariables {
		names[i] = labels.Label(code)
		values[i] = current.Ptr(code)
	}

	colors := make([]string, len(summaryColors))
	copy(colors, summaryColors)

	return Figure{
		Data: []Trace{{
			Type: "bar",
			X:    names,
			Y:    values,
			Marker: &Marker{
				Color:   colors,
				Opacity: 0.8,
			},
		}},
		Layout: Layout{
			Title:     "Current Conditions Summary",
			HoverMode: "closest",
			YAxis:     &Axis{Title: "Value", ZeroLine: boolPtr(false)},
			Margin:    &Margin{T: 50, L: 60, R: 30, B: 50},
			PlotBG:    plotBackground,
			PaperBG:   paperBackground,
			Font:      baseFont(),
			TitleFont: titleFont(),
		},
	}
}

// WindRose plots wind speed against direction. Records without wind_dir get
// a uniformly random whole-degree direction in [0, 360) as a placeholder.
func WindRose(preds []models.Prediction, rng *rand.Rand) Figure {
	speeds := series(preds, models.Wind)
	dirs := make([]float64, len(preds))
	for i, p := range preds {
		if d, ok := p.Values.Get(models.WindDir); ok && d != 0 {
			dirs[i] = d
			continue
		}
		dirs[i] = float64(randomDirection(rng))
	}

	return Figure{
		Data: []Trace{{
			Type:  "barpolar",
			R:     speeds,
			Theta: dirs,
			Name:  "Wind Speed",
			Marker: &Marker{
				Color:      speeds,
				ColorScale: "Blues",
				Line:       &Line{Color: fontColor},
			},
		}},
		Layout: Layout{
			Title: "Wind Rose",
			Polar: &Polar{
				RadialAxis:  &RadialAxis{TickSuffix: " m/s", Angle: 45, DTick: 2},
				AngularAxis: &AngularAxis{Direction: "clockwise"},
			},
			Margin:  &Margin{T: 50, L: 30, R: 30, B: 30},
			PlotBG:  plotBackground,
			PaperBG: paperBackground,
			Font:    baseFont(),
		},
	}
}

func randomDirection(rng *rand.Rand) int {
	if rng == nil {
		return rand.Intn(360)
	}
	return rng.Intn(360)
}

// FrameDuration is the per-frame time of the height animation in ms.
const FrameDuration = 500

// HeightAnimation reveals the wave height series one point per frame.
func HeightAnimation(preds []models.Prediction, labels Labeler) Figure {
	xs := timestamps(preds)
	ys := series(preds, models.SWH)

	frames := make([]Frame, len(preds))
	for i := range preds {
		frames[i] = Frame{
			Name: strconv.Itoa(i),
			Data: []Trace{{
				X:    xs[:i+1],
				Y:    ys[:i+1],
				Mode: "lines+markers",
				Line: &Line{Color: ColorAccent},
			}},
		}
	}

	play := Button{
		Label:  "Play",
		Method: "animate",
		Args: []any{nil, AnimationOptions{
			FromCurrent: true,
			Frame:       FrameOptions{Duration: FrameDuration, Redraw: true},
			Transition:  TransitionTimer{Duration: 0},
		}},
	}

	return Figure{
		Data: []Trace{{
			X:    xs,
			Y:    ys,
			Mode: "lines+markers",
			Name: labels.Label(models.SWH),
			Line: &Line{Color: ColorAccent},
		}},
		Layout: Layout{
			Title: "Wave Height Forecast Animation",
			XAxis: &Axis{Title: "Time"},
			YAxis: &Axis{Title: "Wave Height (m)"},
			UpdateMenus: []UpdateMenu{{
				Type:    "buttons",
				Buttons: []Button{play},
			}},
			PlotBG:  plotBackground,
			PaperBG: paperBackground,
			Font:    baseFont(),
		},
		Frames: frames,
	}
}

// Heatmap is the cross-location wave height layer. Points carrying an error
// are left out.
func Heatmap(points []models.HeatmapPoint) Figure {
	var lats, lons []float64
	var text []string
	var colors []*float64
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		lats = append(lats, p.Latitude)
		lons = append(lons, p.Longitude)
		colors = append(colors, p.SWH)
		text = append(text, fmt.Sprintf("%s: %s m", p.Location, formatHeight(p.SWH)))
	}
	if len(lats) == 0 {
		return Empty()
	}

	return Figure{
		Data: []Trace{{
			Type: "scattergeo",
			Mode: "markers",
			Lat:  lats,
			Lon:  lons,
			Text: text,
			Marker: &Marker{
				Size:       18,
				Color:      colors,
				ColorScale: "YlGnBu",
				ColorBar:   &ColorBar{Title: "SWH (m)"},
			},
		}},
		Layout: Layout{
			Geo: &Geo{
				Scope:      "world",
				Projection: &Projection{Type: "natural earth"},
				ShowLand:   true,
				LandColor:  plotBackground,
			},
			Margin: &Margin{T: 30, L: 0, R: 0, B: 0},
		},
	}
}

func formatHeight(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
