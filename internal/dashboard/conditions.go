package dashboard

import (
	"wave-dashboard/internal/chart"
	"wave-dashboard/internal/models"
)

var conditionUnits = map[string]string{
	models.SWH:  "meters",
	models.MWP:  "seconds",
	models.PP1D: "seconds",
	models.Wind: "m/s",
}

// Conditions builds the current conditions panel from one record.
func Conditions(current models.Prediction, labels chart.Labeler) []ConditionItem {
	items := make([]ConditionItem, 0, len(models.SummaryVariables))
	for _, code := range models.SummaryVariables {
		items = append(items, ConditionItem{
			Code:  code,
			Label: labels.Label(code),
			Value: current.Values.Format(code),
			Unit:  conditionUnits[code],
		})
	}
	return items
}

// Text renders the item the way the panel shows it, e.g. "3.5 meters".
func (c ConditionItem) Text() string {
	return c.Value + " " + c.Unit
}
