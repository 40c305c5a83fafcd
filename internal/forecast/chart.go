package forecast

import "pv_forecast/internal/models"

// PowerDatasetLabel names the single dataset drawn by the chart widget.
const PowerDatasetLabel = "PV power (kW)"

// ChartSeries is the label/value pair consumed by the chart widget.
// Labels[i] and Values[i] always come from the same hourly record.
type ChartSeries struct {
	Labels       []string  `json:"labels"`
	Values       []float64 `json:"values"`
	DatasetLabel string    `json:"dataset_label"`
}

// Project maps every hourly record to a chart point, in order. Unlike the
// weather summary it does not filter to daylight.
func Project(hourly []models.HourlyRecord) ChartSeries {
	s := ChartSeries{
		Labels:       make([]string, len(hourly)),
		Values:       make([]float64, len(hourly)),
		DatasetLabel: PowerDatasetLabel,
	}
	for i, h := range hourly {
		s.Labels[i] = h.Hour
		s.Values[i] = h.PowerKW
	}
	return s
}
