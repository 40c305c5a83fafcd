package models

// ModuleType is the photovoltaic module technology preset.
type ModuleType string

const (
	ModuleMonoPremium  ModuleType = "mono_premium"
	ModuleMonoStandard ModuleType = "mono_standard"
	ModulePoly         ModuleType = "poly"
	ModuleThinFilm     ModuleType = "thin_film"
)

// DefaultModuleType is used when the form leaves the selector empty.
const DefaultModuleType = ModuleMonoStandard

// Valid reports whether m is one of the known presets.
func (m ModuleType) Valid() bool {
	switch m {
	case ModuleMonoPremium, ModuleMonoStandard, ModulePoly, ModuleThinFilm:
		return true
	}
	return false
}

// LegacyAggregateLosses is sent in the deprecated "losses" field; the service
// derives the applied losses from the individual fractions instead.
const LegacyAggregateLosses = 0.14

// ForecastConfig holds the validated installation parameters. Built once per
// calculation and never mutated afterwards.
type ForecastConfig struct {
	PowerKWp           float64    // (0, 1000]
	TiltDeg            int        // [0, 90]
	AzimuthDeg         int        // [0, 360]
	ModuleType         ModuleType // preset, see ModuleType.Valid
	DCLosses           float64    // fraction [0, 1]
	ACLosses           float64    // fraction [0, 1]
	MismatchLosses     float64    // fraction [0, 1]
	SoilingLosses      float64    // fraction [0, 1]
	InverterEfficiency float64    // fraction [0, 1]
	Albedo             float64    // [0, 1]
}

// ForecastRequest is the payload of one outbound forecast call.
type ForecastRequest struct {
	Position Position
	Config   ForecastConfig
}

// HourlyRecord is one element of the returned hourly series.
type HourlyRecord struct {
	Hour       string   `json:"hour"`                // "HH:MM"
	Temp       float64  `json:"temp"`                // °C
	CloudCover float64  `json:"cloud_cover"`         // percent [0, 100]
	WindSpeed  float64  `json:"wind_speed"`          // m/s
	POA        float64  `json:"poa"`                 // W/m²
	CellTemp   *float64 `json:"cell_temp,omitempty"` // nil when absent
	PowerKW    float64  `json:"power_kw"`            // >= 0
}

// AdvancedMetrics are the system-level figures computed by the forecast service.
type AdvancedMetrics struct {
	PerformanceRatio   float64 `json:"performance_ratio"`    // %
	CapacityFactor     float64 `json:"capacity_factor"`      // %
	SpecificYield      float64 `json:"specific_yield"`       // kWh/kWp
	AvgCellTemp        float64 `json:"avg_cell_temp"`        // °C
	MaxCellTemp        float64 `json:"max_cell_temp"`        // °C
	TotalLossesApplied float64 `json:"total_losses_applied"` // %
}

// ForecastResult is the parsed response of one successful forecast call.
// Hourly is ordered by time of day.
type ForecastResult struct {
	Date            string          `json:"date"` // YYYY-MM-DD
	EnergyKWh       *float64        `json:"energy_kwh,omitempty"`
	Hourly          []HourlyRecord  `json:"hourly"`
	AdvancedMetrics AdvancedMetrics `json:"advanced_metrics"`
	Meta            map[string]any  `json:"meta,omitempty"`
}
