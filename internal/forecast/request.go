package forecast

import (
	"math"
	"strconv"
	"strings"

	"pv_forecast/internal/models"
)

// AzimuthCustom is the selector value that enables the free azimuth input.
const AzimuthCustom = "custom"

// Installation bounds enforced by Build.
const (
	MaxPowerKWp = 1000.0
	MaxTiltDeg  = 90.0
	MaxAzimuth  = 360.0
)

// Form field names, reported in FieldError.Field.
const (
	FieldPower              = "power_kwp"
	FieldAzimuth            = "azimuth"
	FieldAzimuthCustom      = "azimuth_custom"
	FieldTilt               = "tilt"
	FieldPosition           = "position"
	FieldModuleType         = "module_type"
	FieldDCLosses           = "dc_losses"
	FieldACLosses           = "ac_losses"
	FieldMismatchLosses     = "mismatch_losses"
	FieldSoilingLosses      = "soiling_losses"
	FieldInverterEfficiency = "inverter_efficiency"
	FieldAlbedo             = "albedo"
)

// Fields are the raw form values as typed by the user. Loss and efficiency
// fields are percentages; albedo is a plain fraction.
type Fields struct {
	PowerKWp              string `json:"power_kwp"`
	Tilt                  string `json:"tilt"`
	AzimuthSelector       string `json:"azimuth"`
	AzimuthCustom         string `json:"azimuth_custom,omitempty"`
	ModuleType            string `json:"module_type,omitempty"`
	DCLossesPct           string `json:"dc_losses,omitempty"`
	ACLossesPct           string `json:"ac_losses,omitempty"`
	MismatchLossesPct     string `json:"mismatch_losses,omitempty"`
	SoilingLossesPct      string `json:"soiling_losses,omitempty"`
	InverterEfficiencyPct string `json:"inverter_efficiency,omitempty"`
	Albedo                string `json:"albedo,omitempty"`
}

// Defaults returns the form as first shown to the user.
func Defaults() Fields {
	return Fields{
		PowerKWp:              "3",
		Tilt:                  "30",
		AzimuthSelector:       "180",
		ModuleType:            string(models.DefaultModuleType),
		DCLossesPct:           "2",
		ACLossesPct:           "1",
		MismatchLossesPct:     "2",
		SoilingLossesPct:      "2",
		InverterEfficiencyPct: "97",
		Albedo:                "0.20",
	}
}

// Build validates the form against the confirmed position and assembles a
// request. Validation is fail-fast: the first failing field is returned.
func Build(f Fields, pos models.Position) (models.ForecastRequest, error) {
	power, err := parsePower(f.PowerKWp)
	if err != nil {
		return models.ForecastRequest{}, err
	}

	azimuth, err := resolveAzimuth(f.AzimuthSelector, f.AzimuthCustom)
	if err != nil {
		return models.ForecastRequest{}, err
	}

	tilt, ok := parseInRange(f.Tilt, 0, MaxTiltDeg)
	if !ok {
		return models.ForecastRequest{}, &FieldError{Field: FieldTilt, Value: f.Tilt, Err: ErrInvalidTilt}
	}

	if err := pos.Validate(); err != nil {
		return models.ForecastRequest{}, &FieldError{Field: FieldPosition, Value: pos.String(), Err: err}
	}

	moduleType := models.ModuleType(strings.TrimSpace(f.ModuleType))
	if moduleType == "" {
		moduleType = models.DefaultModuleType
	}
	if !moduleType.Valid() {
		return models.ForecastRequest{}, &FieldError{Field: FieldModuleType, Value: f.ModuleType, Err: ErrInvalidModuleType}
	}

	cfg := models.ForecastConfig{
		PowerKWp:   power,
		TiltDeg:    int(tilt),
		AzimuthDeg: int(azimuth),
		ModuleType: moduleType,
	}
	if err := applyFractions(f, &cfg); err != nil {
		return models.ForecastRequest{}, err
	}

	return models.ForecastRequest{Position: pos, Config: cfg}, nil
}

// LossesOf validates only the loss, efficiency and albedo fields. The
// returned config has every other field zeroed.
func LossesOf(f Fields) (models.ForecastConfig, error) {
	var cfg models.ForecastConfig
	if err := applyFractions(f, &cfg); err != nil {
		return models.ForecastConfig{}, err
	}
	return cfg, nil
}

func applyFractions(f Fields, cfg *models.ForecastConfig) error {
	def := Defaults()
	fractions := []struct {
		field string
		raw   string
		def   string
		scale float64
		dst   *float64
	}{
		{FieldDCLosses, f.DCLossesPct, def.DCLossesPct, 100, &cfg.DCLosses},
		{FieldACLosses, f.ACLossesPct, def.ACLossesPct, 100, &cfg.ACLosses},
		{FieldMismatchLosses, f.MismatchLossesPct, def.MismatchLossesPct, 100, &cfg.MismatchLosses},
		{FieldSoilingLosses, f.SoilingLossesPct, def.SoilingLossesPct, 100, &cfg.SoilingLosses},
		{FieldInverterEfficiency, f.InverterEfficiencyPct, def.InverterEfficiencyPct, 100, &cfg.InverterEfficiency},
		{FieldAlbedo, f.Albedo, def.Albedo, 1, &cfg.Albedo},
	}
	for _, fr := range fractions {
		raw := fr.raw
		if strings.TrimSpace(raw) == "" {
			raw = fr.def
		}
		v, ok := parseFinite(raw)
		if !ok {
			return &FieldError{Field: fr.field, Value: fr.raw, Err: ErrInvalidLoss}
		}
		v /= fr.scale
		if v < 0 || v > 1 {
			return &FieldError{Field: fr.field, Value: fr.raw, Err: ErrInvalidLoss}
		}
		*fr.dst = v
	}
	return nil
}

// TotalLosses combines the individual loss fractions and the inverter
// efficiency into the overall loss fraction applied to DC output.
func TotalLosses(c models.ForecastConfig) float64 {
	factor := (1 - c.DCLosses) * (1 - c.ACLosses) * (1 - c.MismatchLosses) * (1 - c.SoilingLosses) * c.InverterEfficiency
	return 1 - factor
}

func parsePower(raw string) (float64, error) {
	v, ok := parseFinite(raw)
	if !ok || v <= 0 || v > MaxPowerKWp {
		return 0, &FieldError{Field: FieldPower, Value: raw, Err: ErrInvalidPower}
	}
	return v, nil
}

func resolveAzimuth(selector, custom string) (float64, error) {
	if strings.TrimSpace(selector) == AzimuthCustom {
		v, ok := parseInRange(custom, 0, MaxAzimuth)
		if !ok {
			return 0, &FieldError{Field: FieldAzimuthCustom, Value: custom, Err: ErrInvalidAzimuth}
		}
		return v, nil
	}
	v, ok := parseInRange(selector, 0, MaxAzimuth)
	if !ok {
		return 0, &FieldError{Field: FieldAzimuth, Value: selector, Err: ErrInvalidAzimuth}
	}
	return v, nil
}

func parseInRange(raw string, lo, hi float64) (float64, bool) {
	v, ok := parseFinite(raw)
	if !ok || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// parseFinite accepts decimal numbers only; NaN and ±Inf are rejected.
func parseFinite(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
