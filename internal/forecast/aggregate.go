package forecast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"pv_forecast/internal/models"
)

// Daylight window, inclusive on both ends.
const (
	DaylightStartHour = 8
	DaylightEndHour   = 18
)

// ProducingThresholdKW is the output above which an hour counts as producing.
const ProducingThresholdKW = 0.05

// CloudDescriptor classifies the mean daylight cloud cover.
type CloudDescriptor string

const (
	CloudVeryCloudy   CloudDescriptor = "very cloudy"
	CloudPartlyCloudy CloudDescriptor = "partly cloudy"
	CloudClear        CloudDescriptor = "clear"
)

// CloudIcon is the pictogram shown next to the cloud card.
type CloudIcon string

const (
	IconSun          CloudIcon = "sun"
	IconPartlyCloudy CloudIcon = "partly_cloudy"
	IconCloud        CloudIcon = "cloud"
)

// WeatherSummary holds the daylight-window figures, already rounded for display.
type WeatherSummary struct {
	Hours int `json:"hours"`

	TempAvg float64 `json:"temp_avg"`
	TempMin float64 `json:"temp_min"`
	TempMax float64 `json:"temp_max"`

	CloudAvg        float64         `json:"cloud_avg"`
	CloudDescriptor CloudDescriptor `json:"cloud_descriptor"`
	CloudIcon       CloudIcon       `json:"cloud_icon"`

	WindAvg float64 `json:"wind_avg"`
	WindMax float64 `json:"wind_max"`

	IrradianceAvg float64 `json:"irradiance_avg"`
}

// ProductionSummary is computed over the full series.
type ProductionSummary struct {
	TotalEnergyKWh      float64 `json:"total_energy_kwh"`
	PeakPowerKW         float64 `json:"peak_power_kw"`
	ProducingHours      int     `json:"producing_hours"`
	AvgProducingPowerKW float64 `json:"avg_producing_power_kw"`
}

// Row is one line of the hourly detail table.
type Row struct {
	Hour       string `json:"hour"`
	Temp       string `json:"temp"`
	CloudCover string `json:"cloud_cover"`
	WindSpeed  string `json:"wind_speed"`
	POA        string `json:"poa"`
	CellTemp   string `json:"cell_temp"`
	Power      string `json:"power"`
}

// CellTempPlaceholder stands in for an absent cell temperature.
const CellTempPlaceholder = "--"

// Aggregate is every view derived from one hourly series.
type Aggregate struct {
	Daylight   []models.HourlyRecord `json:"daylight"`
	Weather    *WeatherSummary       `json:"weather,omitempty"` // nil when no daylight hours
	Production ProductionSummary     `json:"production"`
	Rows       []Row                 `json:"rows"`
}

// AggregateHourly derives the summaries, daylight subset and table rows from the
// hourly series. It has no state; malformed records fail the whole series.
func AggregateHourly(hourly []models.HourlyRecord) (Aggregate, error) {
	daylight := make([]models.HourlyRecord, 0, len(hourly))
	for i, h := range hourly {
		hour, err := hourOfDay(h.Hour)
		if err != nil {
			return Aggregate{}, &RecordError{Index: i, Hour: h.Hour, Reason: err.Error()}
		}
		if reason := checkValues(h); reason != "" {
			return Aggregate{}, &RecordError{Index: i, Hour: h.Hour, Reason: reason}
		}
		if hour >= DaylightStartHour && hour <= DaylightEndHour {
			daylight = append(daylight, h)
		}
	}

	return Aggregate{
		Daylight:   daylight,
		Weather:    summarizeWeather(daylight),
		Production: summarizeProduction(hourly),
		Rows:       projectRows(hourly),
	}, nil
}

// DaylightHours returns the records whose hour falls in the daylight window,
// in their original order.
func DaylightHours(hourly []models.HourlyRecord) ([]models.HourlyRecord, error) {
	out := make([]models.HourlyRecord, 0, len(hourly))
	for i, h := range hourly {
		hour, err := hourOfDay(h.Hour)
		if err != nil {
			return nil, &RecordError{Index: i, Hour: h.Hour, Reason: err.Error()}
		}
		if hour >= DaylightStartHour && hour <= DaylightEndHour {
			out = append(out, h)
		}
	}
	return out, nil
}

func summarizeWeather(daylight []models.HourlyRecord) *WeatherSummary {
	if len(daylight) == 0 {
		return nil
	}
	n := float64(len(daylight))

	var sumTemp, sumCloud, sumWind, sumPOA float64
	minTemp, maxTemp := math.Inf(1), math.Inf(-1)
	maxWind := math.Inf(-1)
	for _, h := range daylight {
		sumTemp += h.Temp
		sumCloud += h.CloudCover
		sumWind += h.WindSpeed
		sumPOA += h.POA
		minTemp = math.Min(minTemp, h.Temp)
		maxTemp = math.Max(maxTemp, h.Temp)
		maxWind = math.Max(maxWind, h.WindSpeed)
	}

	cloud := round(sumCloud/n, 0)
	return &WeatherSummary{
		Hours:           len(daylight),
		TempAvg:         round(sumTemp/n, 1),
		TempMin:         round(minTemp, 1),
		TempMax:         round(maxTemp, 1),
		CloudAvg:        cloud,
		CloudDescriptor: DescribeCloud(cloud),
		CloudIcon:       IconForCloud(cloud),
		WindAvg:         round(sumWind/n, 1),
		WindMax:         round(maxWind, 1),
		IrradianceAvg:   round(sumPOA/n, 0),
	}
}

// DescribeCloud buckets a mean cloud cover. Thresholds are strict, so 70 and
// 40 fall into the lower-intensity bucket.
func DescribeCloud(meanPct float64) CloudDescriptor {
	switch {
	case meanPct > 70:
		return CloudVeryCloudy
	case meanPct > 40:
		return CloudPartlyCloudy
	default:
		return CloudClear
	}
}

// IconForCloud picks the cloud card pictogram.
func IconForCloud(meanPct float64) CloudIcon {
	switch {
	case meanPct < 30:
		return IconSun
	case meanPct < 70:
		return IconPartlyCloudy
	default:
		return IconCloud
	}
}

func summarizeProduction(hourly []models.HourlyRecord) ProductionSummary {
	var ps ProductionSummary
	for i, h := range hourly {
		ps.TotalEnergyKWh += h.PowerKW
		if i == 0 || h.PowerKW > ps.PeakPowerKW {
			ps.PeakPowerKW = h.PowerKW
		}
		if h.PowerKW > ProducingThresholdKW {
			ps.ProducingHours++
		}
	}
	ps.AvgProducingPowerKW = ps.TotalEnergyKWh / float64(max(ps.ProducingHours, 1))
	return ps
}

func projectRows(hourly []models.HourlyRecord) []Row {
	rows := make([]Row, 0, len(hourly))
	for _, h := range hourly {
		cell := CellTempPlaceholder
		if h.CellTemp != nil {
			cell = fmt.Sprintf("%.1f°C", *h.CellTemp)
		}
		rows = append(rows, Row{
			Hour:       h.Hour,
			Temp:       fmt.Sprintf("%.1f°C", h.Temp),
			CloudCover: fmt.Sprintf("%.0f%%", h.CloudCover),
			WindSpeed:  fmt.Sprintf("%.1f m/s", h.WindSpeed),
			POA:        fmt.Sprintf("%.0f W/m²", h.POA),
			CellTemp:   cell,
			Power:      fmt.Sprintf("%.2f kW", h.PowerKW),
		})
	}
	return rows
}

// hourOfDay parses the hour out of an "HH:MM" label.
func hourOfDay(label string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(label), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("hour label %q is not HH:MM", label)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hour label %q has an invalid hour", label)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("hour label %q has invalid minutes", label)
	}
	return h, nil
}

func checkValues(h models.HourlyRecord) string {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"temp", h.Temp},
		{"cloud_cover", h.CloudCover},
		{"wind_speed", h.WindSpeed},
		{"poa", h.POA},
		{"power_kw", h.PowerKW},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return v.name + " is not a finite number"
		}
	}
	if h.CellTemp != nil && (math.IsNaN(*h.CellTemp) || math.IsInf(*h.CellTemp, 0)) {
		return "cell_temp is not a finite number"
	}
	if h.CloudCover < 0 || h.CloudCover > 100 {
		return "cloud_cover outside [0, 100]"
	}
	if h.PowerKW < 0 {
		return "power_kw is negative"
	}
	return ""
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
