package forecast

import (
	"fmt"
	"strconv"

	"pv_forecast/internal/models"
)

// ProductionCards are the four production summary cards.
type ProductionCards struct {
	TotalEnergy    string `json:"total_energy"`
	AvgPower       string `json:"avg_power"`
	PeakPower      string `json:"peak_power"`
	ProducingHours string `json:"producing_hours"`
}

// WeatherCards are the daylight weather cards. Blank when there are no
// daylight hours.
type WeatherCards struct {
	Temp            string    `json:"temp"`
	TempRange       string    `json:"temp_range"`
	Cloud           string    `json:"cloud"`
	CloudDescriptor string    `json:"cloud_descriptor"`
	CloudIcon       CloudIcon `json:"cloud_icon"`
	Wind            string    `json:"wind"`
	Irradiance      string    `json:"irradiance"`
}

// Cards groups everything shown in the summary area.
type Cards struct {
	Production ProductionCards `json:"production"`
	Weather    WeatherCards    `json:"weather"`
}

// MetricsPanel is the advanced metrics panel, one formatted value per metric.
type MetricsPanel struct {
	PerformanceRatio   string `json:"performance_ratio"`
	CapacityFactor     string `json:"capacity_factor"`
	SpecificYield      string `json:"specific_yield"`
	AvgCellTemp        string `json:"avg_cell_temp"`
	MaxCellTemp        string `json:"max_cell_temp"`
	TotalLossesApplied string `json:"total_losses_applied"`
}

// FormatCards renders the summary cards from an aggregate.
func FormatCards(a Aggregate) Cards {
	p := a.Production
	cards := Cards{
		Production: ProductionCards{
			TotalEnergy:    fmt.Sprintf("%.1f kWh", p.TotalEnergyKWh),
			AvgPower:       fmt.Sprintf("%.2f kW", p.AvgProducingPowerKW),
			PeakPower:      fmt.Sprintf("%.2f kW", p.PeakPowerKW),
			ProducingHours: fmt.Sprintf("%dh", p.ProducingHours),
		},
	}

	w := a.Weather
	if w == nil {
		return cards
	}
	cards.Weather = WeatherCards{
		Temp:            fmt.Sprintf("%.1f°C", w.TempAvg),
		TempRange:       fmt.Sprintf("%.1f° - %.1f°", w.TempMin, w.TempMax),
		Cloud:           fmt.Sprintf("%.0f%%", w.CloudAvg),
		CloudDescriptor: string(w.CloudDescriptor),
		CloudIcon:       w.CloudIcon,
		Wind:            fmt.Sprintf("%.1f m/s", w.WindMax),
		Irradiance:      fmt.Sprintf("%.0f W/m²", w.IrradianceAvg),
	}
	return cards
}

// FormatMetrics renders the advanced metrics as reported by the service.
func FormatMetrics(m models.AdvancedMetrics) MetricsPanel {
	return MetricsPanel{
		PerformanceRatio:   num(m.PerformanceRatio) + "%",
		CapacityFactor:     num(m.CapacityFactor) + "%",
		SpecificYield:      num(m.SpecificYield) + " kWh/kWp",
		AvgCellTemp:        num(m.AvgCellTemp) + "°C",
		MaxCellTemp:        num(m.MaxCellTemp) + "°C",
		TotalLossesApplied: num(m.TotalLossesApplied) + "%",
	}
}

// FormatLosses renders a loss fraction as a percentage with one decimal.
func FormatLosses(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
