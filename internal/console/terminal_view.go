// Package console renders the dashboard in a terminal.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/k3a/html2text"

	"wave-dashboard/internal/chart"
	"wave-dashboard/internal/dashboard"
	"wave-dashboard/internal/models"
)

// maxMapLines bounds how much of the map fragment is echoed.
const maxMapLines = 10

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.Bold)
	bannerColor  = color.New(color.FgYellow, color.Bold)
	alertColor   = color.New(color.FgRed, color.Bold)
	mutedColor   = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
)

// TerminalView prints controller updates as they happen. Open resolves
// relative links against baseURL.
type TerminalView struct {
	out     io.Writer
	baseURL string
	verbose bool

	options  []dashboard.Option
	figures  map[string]chart.Figure
	alerts   []string
	mapText  string
	openURL  string
	steps    string
	loadErrs []string
}

func NewTerminalView(out io.Writer, baseURL string, verbose bool) *TerminalView {
	return &TerminalView{
		out:     out,
		baseURL: strings.TrimRight(baseURL, "/"),
		verbose: verbose,
		figures: make(map[string]chart.Figure),
	}
}

func (v *TerminalView) SetLocationOptions(opts []dashboard.Option) { v.options = opts }
func (v *TerminalView) SetPredictEnabled(enabled bool)             {}
func (v *TerminalView) SetStepsLabel(label string)                 { v.steps = label }

func (v *TerminalView) SetLoading(loading bool) {
	if loading {
		mutedColor.Fprintf(v.out, "Fetching predictions (%s steps)...\n", v.steps)
	}
}

func (v *TerminalView) SetConditionsVisible(visible bool) {}

func (v *TerminalView) SetConditions(items []dashboard.ConditionItem) {
	headerColor.Fprintln(v.out, "Current Conditions")
	for _, item := range items {
		labelColor.Fprintf(v.out, "  %-26s", item.Label)
		fmt.Fprintln(v.out, item.Text())
	}
}

func (v *TerminalView) PrependBanners(banners []dashboard.Banner) {
	for _, b := range banners {
		bannerColor.Fprintln(v.out, b.Message)
	}
}

func (v *TerminalView) Plot(target string, fig chart.Figure) {
	v.figures[target] = fig
	if !v.verbose || fig.IsEmpty() {
		return
	}
	points := 0
	for _, tr := range fig.Data {
		points += len(tr.X) + len(tr.Lat) + len(tr.R)
	}
	title := fig.Layout.Title
	if title == "" {
		title = target
	}
	mutedColor.Fprintf(v.out, "  [%s] %d series, %d points\n", title, len(fig.Data), points)
}

func (v *TerminalView) SetDownloadVisible(visible bool) {}

func (v *TerminalView) Alert(message string) {
	v.alerts = append(v.alerts, message)
	alertColor.Fprintln(v.out, message)
}

// SetMapHTML keeps a plain-text rendering of the map fragment.
func (v *TerminalView) SetMapHTML(html string) {
	v.mapText = strings.TrimSpace(html2text.HTML2Text(html))
}

func (v *TerminalView) ShowMapError(message string) {
	v.mapText = ""
	if v.verbose {
		mutedColor.Fprintln(v.out, message)
	}
}

func (v *TerminalView) ShowLoadError(what string, err error) {
	v.loadErrs = append(v.loadErrs, what)
	alertColor.Fprintf(v.out, "Failed to load %s: %v\n", what, err)
}

func (v *TerminalView) Open(url string) {
	if strings.HasPrefix(url, "/") {
		url = v.baseURL + url
	}
	v.openURL = url
	successColor.Fprintf(v.out, "CSV export: %s\n", url)
}

// Options returns the selector entries without the placeholder.
func (v *TerminalView) Options() []dashboard.Option {
	var out []dashboard.Option
	for _, o := range v.options {
		if o.Value != "" {
			out = append(out, o)
		}
	}
	return out
}

func (v *TerminalView) Figure(target string) (chart.Figure, bool) {
	fig, ok := v.figures[target]
	return fig, ok
}

func (v *TerminalView) Alerts() []string     { return v.alerts }
func (v *TerminalView) MapText() string      { return v.mapText }
func (v *TerminalView) OpenedURL() string    { return v.openURL }
func (v *TerminalView) LoadErrors() []string { return v.loadErrs }

// PrintMap echoes the first lines of the map fragment text.
func (v *TerminalView) PrintMap() {
	if v.mapText == "" {
		return
	}
	lines := strings.Split(v.mapText, "\n")
	if len(lines) > maxMapLines {
		lines = lines[:maxMapLines]
	}
	headerColor.Fprintln(v.out, "Map")
	for _, l := range lines {
		fmt.Fprintln(v.out, "  "+l)
	}
}

// PrintLocations lists the location table with coordinates.
func PrintLocations(out io.Writer, table models.LocationTable) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tLAT\tLON")
	for _, loc := range table.All() {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", loc.Name, loc.Latitude, loc.Longitude)
	}
	tw.Flush()
}

// PrintPredictions prints one row per record, flagging values over th.
func PrintPredictions(out io.Writer, preds []models.Prediction, labels chart.Labeler, th dashboard.Thresholds, loc *time.Location) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := []string{"TIME"}
	for _, code := range models.SummaryVariables {
		header = append(header, strings.ToUpper(labels.Label(code)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, p := range preds {
		row := []string{dashboard.FormatTimestamp(p, loc)}
		for _, code := range models.SummaryVariables {
			cell := p.Values.Format(code)
			if exceeds(p, code, th) {
				cell += " !"
			}
			row = append(row, cell)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func exceeds(p models.Prediction, code string, th dashboard.Thresholds) bool {
	v, ok := p.Values.Get(code)
	if !ok {
		return false
	}
	switch code {
	case models.SWH:
		return v > th.WaveHeight
	case models.Wind:
		return v > th.WindSpeed
	}
	return false
}

// PrintHeatmap lists the current wave height per location. Failed locations
// show their error instead of a value.
func PrintHeatmap(out io.Writer, hm *models.Heatmap) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tSWH (m)")
	for _, p := range hm.Points {
		switch {
		case p.Err != nil:
			fmt.Fprintf(tw, "%s\terror: %v\n", p.Location, p.Err)
		case p.SWH == nil:
			fmt.Fprintf(tw, "%s\tnull\n", p.Location)
		default:
			fmt.Fprintf(tw, "%s\t%s\n", p.Location, strconv.FormatFloat(*p.SWH, 'f', -1, 64))
		}
	}
	tw.Flush()
	if hm.Failed > 0 {
		mutedColor.Fprintf(out, "%d of %d locations failed\n", hm.Failed, len(hm.Points))
	}
}
