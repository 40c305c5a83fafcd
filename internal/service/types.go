package service

import (
	"time"

	"pv_forecast/internal/forecast"
	"pv_forecast/internal/models"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "PROPOSE", "CONFIRM", "CANCEL", "SET_MANUAL"
}

// View is everything the presentation surfaces need from one successful
// calculation. It is replaced as a whole, never patched.
type View struct {
	ID           string    `json:"id"`
	CalculatedAt time.Time `json:"calculated_at"`

	Request     models.ForecastRequest `json:"request"`
	TotalLosses float64                `json:"total_losses"`

	Result    models.ForecastResult `json:"result"`
	Aggregate forecast.Aggregate    `json:"aggregate"`
	Cards     forecast.Cards        `json:"cards"`
	Metrics   forecast.MetricsPanel `json:"metrics"`
	Chart     forecast.ChartSeries  `json:"chart"`
}

// LossPreview is the live total shown next to the loss inputs.
type LossPreview struct {
	TotalLosses float64 `json:"total_losses"`
	Display     string  `json:"display"`
}
