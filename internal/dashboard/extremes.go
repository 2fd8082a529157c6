package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wave-dashboard/internal/models"
)

// TimestampLayout matches the browser's default toLocaleString output.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

const (
	BannerWaveHeight = "wave_height"
	BannerWindSpeed  = "wind_speed"
)

type Thresholds struct {
	WaveHeight float64
	WindSpeed  float64
}

var DefaultThresholds = Thresholds{WaveHeight: 3, WindSpeed: 10}

// ExtremeEvents returns one banner per threshold that at least one record
// exceeds, listing every matching timestamp in record order.
func ExtremeEvents(preds []models.Prediction, th Thresholds, loc *time.Location) []Banner {
	var highWaves, highWind []string
	for _, p := range preds {
		if v, ok := p.Values.Get(models.SWH); ok && v > th.WaveHeight {
			highWaves = append(highWaves, FormatTimestamp(p, loc))
		}
		if v, ok := p.Values.Get(models.Wind); ok && v > th.WindSpeed {
			highWind = append(highWind, FormatTimestamp(p, loc))
		}
	}

	var banners []Banner
	if len(highWaves) > 0 {
		banners = append(banners, Banner{
			Kind: BannerWaveHeight,
			Message: fmt.Sprintf("⚠️ High Wave Height (>%sm) at: %s",
				formatNumber(th.WaveHeight), strings.Join(highWaves, ", ")),
		})
	}
	if len(highWind) > 0 {
		banners = append(banners, Banner{
			Kind: BannerWindSpeed,
			Message: fmt.Sprintf("⚠️ High Wind Speed (>%s m/s) at: %s",
				formatNumber(th.WindSpeed), strings.Join(highWind, ", ")),
		})
	}
	return banners
}

// FormatTimestamp renders a record time in loc, or the raw timestamp when it
// cannot be parsed.
func FormatTimestamp(p models.Prediction, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, err := p.Time(loc)
	if err != nil {
		return p.Timestamp
	}
	return t.In(loc).Format(TimestampLayout)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
