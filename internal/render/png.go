// Package render draws static PNG versions of the line charts for terminal
// use, where Plotly is not available.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"wave-dashboard/internal/chart"
	"wave-dashboard/internal/models"
)

var ErrNoData = errors.New("no plottable values")

const (
	width  = 1024
	height = 480
)

func colorOf(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func lineStyle(hex string) gochart.Style {
	c := colorOf(hex)
	return gochart.Style{
		StrokeColor: c,
		StrokeWidth: 2,
		DotColor:    c,
		DotWidth:    3,
	}
}

// timeSeries collects the records that carry code and parse as a time. A
// single point is padded to two so the x range is not empty.
func timeSeries(preds []models.Prediction, code, name, hex string, loc *time.Location) (gochart.TimeSeries, bool) {
	var xs []time.Time
	var ys []float64
	for _, p := range preds {
		v, ok := p.Values.Get(code)
		if !ok {
			continue
		}
		t, err := p.Time(loc)
		if err != nil {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, v)
	}
	if len(xs) == 0 {
		return gochart.TimeSeries{}, false
	}

	st := lineStyle(hex)
	if len(xs) == 1 {
		st.DotWidth = 6
		xs = append(xs, xs[0].Add(time.Second))
		ys = append(ys, ys[0])
	}
	return gochart.TimeSeries{Name: name, XValues: xs, YValues: ys, Style: st}, true
}

func newChart(title string) gochart.Chart {
	return gochart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:           "Time",
			ValueFormatter: gochart.TimeHourValueFormatter,
		},
	}
}

func renderTo(w io.Writer, ch gochart.Chart) error {
	if len(ch.Series) == 0 {
		return ErrNoData
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", ch.Title, err)
	}
	return nil
}

// Period draws mean and peak wave period on a shared axis.
func Period(w io.Writer, preds []models.Prediction, labels chart.Labeler, loc *time.Location) error {
	ch := newChart("Wave Period Predictions (Mean & Peak)")
	ch.YAxis = gochart.YAxis{Name: "Period (s)"}

	if s, ok := timeSeries(preds, models.MWP, labels.Label(models.MWP), chart.ColorPrimary, loc); ok {
		ch.Series = append(ch.Series, s)
	}
	if s, ok := timeSeries(preds, models.PP1D, labels.Label(models.PP1D), chart.ColorSecondary, loc); ok {
		ch.Series = append(ch.Series, s)
	}
	return renderTo(w, ch)
}

// HeightWind draws wave height on the primary axis and wind speed on the
// secondary one.
func HeightWind(w io.Writer, preds []models.Prediction, labels chart.Labeler, loc *time.Location) error {
	ch := newChart("Significant Wave Height & Wind Speed Predictions")
	ch.YAxis = gochart.YAxis{Name: "Wave Height (m)"}
	ch.YAxisSecondary = gochart.YAxis{Name: "Wind Speed (m/s)"}

	if s, ok := timeSeries(preds, models.SWH, labels.Label(models.SWH), chart.ColorAccent, loc); ok {
		ch.Series = append(ch.Series, s)
	}
	if s, ok := timeSeries(preds, models.Wind, labels.Label(models.Wind), chart.ColorWind, loc); ok {
		// wind alone stays on the primary axis so it has a range
		if len(ch.Series) > 0 {
			s.YAxis = gochart.YAxisSecondary
		} else {
			ch.YAxis = ch.YAxisSecondary
			ch.YAxisSecondary = gochart.YAxis{}
		}
		ch.Series = append(ch.Series, s)
	}
	return renderTo(w, ch)
}

// WriteFiles renders both charts into dir and returns the written paths.
// Charts without data are skipped.
func WriteFiles(dir, location string, preds []models.Prediction, labels chart.Labeler, loc *time.Location) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	base := fileSafe(location)
	jobs := []struct {
		suffix string
		draw   func(io.Writer, []models.Prediction, chart.Labeler, *time.Location) error
	}{
		{"period", Period},
		{"height_wind", HeightWind},
	}

	var written []string
	for _, job := range jobs {
		var buf bytes.Buffer
		err := job.draw(&buf, preds, labels, loc)
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, base+"_"+job.suffix+".png")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
