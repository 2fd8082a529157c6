package api

import (
	"fmt"
	"html/template"

	"wave-dashboard/internal/chart"
	"wave-dashboard/internal/dashboard"
)

// PageView records what the controller asks of the UI during one request.
// The page template renders the final state.
type PageView struct {
	Options           []dashboard.Option
	PredictEnabled    bool
	StepsLabel        string
	Loading           bool
	ConditionsVisible bool
	Conditions        []dashboard.ConditionItem
	Banners           []dashboard.Banner
	Figures           map[string]chart.Figure
	DownloadVisible   bool
	Alerts            []string
	MapHTML           template.HTML
	MapError          string
	LoadErrors        []string
	OpenURL           string
}

func NewPageView() *PageView {
	return &PageView{Figures: make(map[string]chart.Figure)}
}

func (v *PageView) SetLocationOptions(opts []dashboard.Option) { v.Options = opts }
func (v *PageView) SetPredictEnabled(enabled bool)             { v.PredictEnabled = enabled }
func (v *PageView) SetStepsLabel(label string)                 { v.StepsLabel = label }
func (v *PageView) SetLoading(loading bool)                    { v.Loading = loading }
func (v *PageView) SetConditionsVisible(visible bool)          { v.ConditionsVisible = visible }
func (v *PageView) SetConditions(items []dashboard.ConditionItem) {
	v.Conditions = items
}

func (v *PageView) PrependBanners(banners []dashboard.Banner) {
	v.Banners = append(append([]dashboard.Banner{}, banners...), v.Banners...)
}

func (v *PageView) Plot(target string, fig chart.Figure) { v.Figures[target] = fig }
func (v *PageView) SetDownloadVisible(visible bool)      { v.DownloadVisible = visible }
func (v *PageView) Alert(message string)                 { v.Alerts = append(v.Alerts, message) }

// SetMapHTML embeds the upstream map fragment as is.
func (v *PageView) SetMapHTML(html string) {
	v.MapHTML = template.HTML(html)
	v.MapError = ""
}

func (v *PageView) ShowMapError(message string) {
	v.MapHTML = ""
	v.MapError = message
}

func (v *PageView) ShowLoadError(what string, err error) {
	v.LoadErrors = append(v.LoadErrors, fmt.Sprintf("Failed to load %s.", what))
}

func (v *PageView) Open(url string) { v.OpenURL = url }
