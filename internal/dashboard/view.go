package dashboard

import "wave-dashboard/internal/chart"

// Element identifiers shared by the controller and the page markup.
const (
	IDLocationSelect    = "locationSelect"
	IDStepsSlider       = "stepsSlider"
	IDStepsValue        = "stepsValue"
	IDPredictBtn        = "predictBtn"
	IDDownloadCSVBtn    = "downloadCsvBtn"
	IDLoadingOverlay    = "loadingOverlay"
	IDCurrentConditions = "currentConditions"
	IDConditionsData    = "conditionsData"
	IDWavePeriodChart   = "wavePeriodChart"
	IDHeightWindChart   = "waveHeightAndWindChart"
	IDSummaryChart      = "summaryChart"
	IDWindRoseChart     = "windRoseChart"
	IDHeightAnimation   = "waveHeightAnimation"
	IDHeatmap           = "waveHeightHeatmap"
	IDMapContainer      = "map-container"
)

// PrimaryCharts are reset together whenever the selection changes or a
// prediction request fails.
var PrimaryCharts = []string{IDWavePeriodChart, IDHeightWindChart, IDSummaryChart}

// Option is one entry of the location selector.
type Option struct {
	Value string
	Label string
}

// PlaceholderOption is the "unselected" entry at the top of the selector.
var PlaceholderOption = Option{Value: "", Label: "Select a location..."}

// ConditionItem is one cell of the current conditions panel.
type ConditionItem struct {
	Code  string
	Label string
	Value string
	Unit  string
}

// Banner is a warning prepended to the conditions panel.
type Banner struct {
	Kind    string
	Message string
}

// View is the UI surface the controller drives. Calls are serialized by the
// controller, implementations need no locking of their own.
type View interface {
	SetLocationOptions(opts []Option)
	SetPredictEnabled(enabled bool)
	SetStepsLabel(label string)
	SetLoading(loading bool)
	SetConditionsVisible(visible bool)
	SetConditions(items []ConditionItem)
	PrependBanners(banners []Banner)
	Plot(target string, fig chart.Figure)
	SetDownloadVisible(visible bool)
	Alert(message string)
	SetMapHTML(html string)
	ShowMapError(message string)
	ShowLoadError(what string, err error)
	Open(url string)
}
