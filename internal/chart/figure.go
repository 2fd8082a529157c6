// Package chart builds Plotly figure documents for the dashboard. Figures are
// plain data: the page hands them to Plotly.newPlot unchanged.
package chart

// Palette shared by every chart.
const (
	ColorPrimary   = "#4A90E2"
	ColorSecondary = "#50B7C6"
	ColorAccent    = "#FFC107"
	ColorWind      = "#E91E63"

	plotBackground  = "#F7F9FC"
	paperBackground = "#FFFFFF"
	fontFamily      = "Inter, sans-serif"
	fontColor       = "#333"
)

type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Frames []Frame `json:"frames,omitempty"`
}

// Empty is the blank figure a chart area is reset to.
func Empty() Figure {
	return Figure{Data: []Trace{}}
}

func (f Figure) IsEmpty() bool {
	return len(f.Data) == 0
}

type Trace struct {
	Type   string     `json:"type,omitempty"`
	Mode   string     `json:"mode,omitempty"`
	Name   string     `json:"name,omitempty"`
	X      []any      `json:"x,omitempty"`
	Y      []*float64 `json:"y,omitempty"`
	R      []*float64 `json:"r,omitempty"`
	Theta  []float64  `json:"theta,omitempty"`
	Lat    []float64  `json:"lat,omitempty"`
	Lon    []float64  `json:"lon,omitempty"`
	Text   []string   `json:"text,omitempty"`
	Line   *Line      `json:"line,omitempty"`
	Marker *Marker    `json:"marker,omitempty"`
	YAxis  string     `json:"yaxis,omitempty"`
}

type Line struct {
	Color string `json:"color,omitempty"`
}

type Marker struct {
	// Color is a single color string or a per-point array.
	Color      any       `json:"color,omitempty"`
	Opacity    float64   `json:"opacity,omitempty"`
	Size       int       `json:"size,omitempty"`
	ColorScale string    `json:"colorscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
	Line       *Line     `json:"line,omitempty"`
}

type ColorBar struct {
	Title string `json:"title,omitempty"`
}

type Layout struct {
	Title       string       `json:"title,omitempty"`
	HoverMode   string       `json:"hovermode,omitempty"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
	YAxis2      *Axis        `json:"yaxis2,omitempty"`
	Margin      *Margin      `json:"margin,omitempty"`
	PlotBG      string       `json:"plot_bgcolor,omitempty"`
	PaperBG     string       `json:"paper_bgcolor,omitempty"`
	Font        *Font        `json:"font,omitempty"`
	TitleFont   *Font        `json:"titlefont,omitempty"`
	Polar       *Polar       `json:"polar,omitempty"`
	Geo         *Geo         `json:"geo,omitempty"`
	UpdateMenus []UpdateMenu `json:"updatemenus,omitempty"`
}

type Axis struct {
	Title      string `json:"title,omitempty"`
	Side       string `json:"side,omitempty"`
	Overlaying string `json:"overlaying,omitempty"`
	ShowGrid   *bool  `json:"showgrid,omitempty"`
	ZeroLine   *bool  `json:"zeroline,omitempty"`
}

type Margin struct {
	T int `json:"t"`
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
}

type Font struct {
	Family string `json:"family,omitempty"`
	Size   int    `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
}

type Polar struct {
	RadialAxis  *RadialAxis  `json:"radialaxis,omitempty"`
	AngularAxis *AngularAxis `json:"angularaxis,omitempty"`
}

type RadialAxis struct {
	TickSuffix string  `json:"ticksuffix,omitempty"`
	Angle      float64 `json:"angle,omitempty"`
	DTick      float64 `json:"dtick,omitempty"`
}

type AngularAxis struct {
	Direction string `json:"direction,omitempty"`
}

type Geo struct {
	Scope      string      `json:"scope,omitempty"`
	Projection *Projection `json:"projection,omitempty"`
	ShowLand   bool        `json:"showland"`
	LandColor  string      `json:"landcolor,omitempty"`
}

type Projection struct {
	Type string `json:"type"`
}

type UpdateMenu struct {
	Type       string   `json:"type"`
	ShowActive bool     `json:"showactive"`
	Buttons    []Button `json:"buttons"`
}

type Button struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

type Frame struct {
	Name string  `json:"name"`
	Data []Trace `json:"data"`
}

// AnimationOptions is the second argument of Plotly.animate.
type AnimationOptions struct {
	FromCurrent bool            `json:"fromcurrent"`
	Frame       FrameOptions    `json:"frame"`
	Transition  TransitionTimer `json:"transition"`
}

type FrameOptions struct {
	Duration int  `json:"duration"`
	Redraw   bool `json:"redraw"`
}

type TransitionTimer struct {
	Duration int `json:"duration"`
}

func baseFont() *Font {
	return &Font{Family: fontFamily, Color: fontColor}
}

func titleFont() *Font {
	return &Font{Size: 18, Color: fontColor}
}

func boolPtr(b bool) *bool {
	return &b
}
