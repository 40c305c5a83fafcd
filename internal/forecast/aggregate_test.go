package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_forecast/internal/models"
)

func rec(hour string, powerKW float64) models.HourlyRecord {
	return models.HourlyRecord{Hour: hour, Temp: 20, CloudCover: 50, WindSpeed: 2, POA: 400, PowerKW: powerKW}
}

func hours(records []models.HourlyRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Hour
	}
	return out
}

func TestDaylightHours(t *testing.T) {
	series := []models.HourlyRecord{
		rec("06:00", 0), rec("08:00", 0.5), rec("12:00", 3), rec("18:00", 0.2), rec("20:00", 0),
	}

	day, err := DaylightHours(series)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "12:00", "18:00"}, hours(day))

	agg, err := AggregateHourly(series)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "12:00", "18:00"}, hours(agg.Daylight))
	assert.Equal(t, 3, agg.Weather.Hours)
}

func TestAggregate_TemperatureStats(t *testing.T) {
	series := []models.HourlyRecord{rec("09:00", 0), rec("10:00", 0), rec("11:00", 0)}
	series[0].Temp, series[1].Temp, series[2].Temp = 10, 20, 30

	agg, err := AggregateHourly(series)
	require.NoError(t, err)
	require.NotNil(t, agg.Weather)
	assert.Equal(t, 20.0, agg.Weather.TempAvg)
	assert.Equal(t, 10.0, agg.Weather.TempMin)
	assert.Equal(t, 30.0, agg.Weather.TempMax)
}

func TestAggregate_Rounding(t *testing.T) {
	series := []models.HourlyRecord{rec("09:00", 0), rec("10:00", 0), rec("11:00", 0)}
	series[0].Temp, series[1].Temp, series[2].Temp = 10.04, 10.05, 10.2
	series[0].WindSpeed, series[1].WindSpeed, series[2].WindSpeed = 1.0, 2.0, 4.26
	series[0].POA, series[1].POA, series[2].POA = 100, 200, 301

	agg, err := AggregateHourly(series)
	require.NoError(t, err)
	w := agg.Weather
	assert.Equal(t, 10.1, w.TempAvg)
	assert.Equal(t, 2.4, w.WindAvg)
	assert.Equal(t, 4.3, w.WindMax)
	assert.Equal(t, 200.0, w.IrradianceAvg)
}

func TestDescribeCloud(t *testing.T) {
	assert.Equal(t, CloudVeryCloudy, DescribeCloud(71))
	assert.Equal(t, CloudPartlyCloudy, DescribeCloud(41))
	assert.Equal(t, CloudClear, DescribeCloud(39))

	// thresholds are strict
	assert.Equal(t, CloudPartlyCloudy, DescribeCloud(70))
	assert.Equal(t, CloudClear, DescribeCloud(40))
}

func TestIconForCloud(t *testing.T) {
	assert.Equal(t, IconSun, IconForCloud(29))
	assert.Equal(t, IconPartlyCloudy, IconForCloud(30))
	assert.Equal(t, IconPartlyCloudy, IconForCloud(69))
	assert.Equal(t, IconCloud, IconForCloud(70))
}

func TestAggregate_CloudDescriptorUsesRoundedMean(t *testing.T) {
	series := []models.HourlyRecord{rec("09:00", 0), rec("10:00", 0)}
	// mean 70.4 rounds to 70, which is not > 70
	series[0].CloudCover, series[1].CloudCover = 70, 70.8

	agg, err := AggregateHourly(series)
	require.NoError(t, err)
	assert.Equal(t, 70.0, agg.Weather.CloudAvg)
	assert.Equal(t, CloudPartlyCloudy, agg.Weather.CloudDescriptor)
	assert.Equal(t, IconCloud, agg.Weather.CloudIcon)
}

func TestAggregate_Production(t *testing.T) {
	series := []models.HourlyRecord{
		rec("06:00", 0.0), rec("07:00", 0.04), rec("08:00", 0.06), rec("12:00", 5.0), rec("19:00", 0.0),
	}

	agg, err := AggregateHourly(series)
	require.NoError(t, err)

	p := agg.Production
	total := 0.0 + 0.04 + 0.06 + 5.0 + 0.0
	assert.Equal(t, 2, p.ProducingHours)
	assert.InDelta(t, total, p.TotalEnergyKWh, 1e-9)
	assert.Equal(t, 5.0, p.PeakPowerKW)
	assert.InDelta(t, total/2, p.AvgProducingPowerKW, 1e-9)
}

func TestAggregate_ProductionUsesFullSeries(t *testing.T) {
	// night-time output still counts toward the totals
	series := []models.HourlyRecord{rec("05:00", 1.0), rec("21:00", 2.0)}

	agg, err := AggregateHourly(series)
	require.NoError(t, err)
	assert.Nil(t, agg.Weather)
	assert.InDelta(t, 3.0, agg.Production.TotalEnergyKWh, 1e-9)
	assert.Equal(t, 2.0, agg.Production.PeakPowerKW)
}

func TestAggregate_Empty(t *testing.T) {
	agg, err := AggregateHourly(nil)
	require.NoError(t, err)

	assert.Empty(t, agg.Daylight)
	assert.Nil(t, agg.Weather)
	assert.Empty(t, agg.Rows)
	assert.Equal(t, ProductionSummary{}, agg.Production)
	assert.False(t, math.IsNaN(agg.Production.AvgProducingPowerKW))

	cards := FormatCards(agg)
	assert.Equal(t, WeatherCards{}, cards.Weather)
	assert.Equal(t, "0.0 kWh", cards.Production.TotalEnergy)
	assert.Equal(t, "0h", cards.Production.ProducingHours)
}

func TestAggregate_MalformedRecords(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*models.HourlyRecord)
	}{
		{"bad hour label", func(r *models.HourlyRecord) { r.Hour = "noon" }},
		{"hour out of range", func(r *models.HourlyRecord) { r.Hour = "25:00" }},
		{"nan temp", func(r *models.HourlyRecord) { r.Temp = math.NaN() }},
		{"inf poa", func(r *models.HourlyRecord) { r.POA = math.Inf(1) }},
		{"negative power", func(r *models.HourlyRecord) { r.PowerKW = -0.1 }},
		{"cloud above 100", func(r *models.HourlyRecord) { r.CloudCover = 120 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			series := []models.HourlyRecord{rec("10:00", 1), rec("11:00", 1)}
			tc.mut(&series[1])

			_, err := AggregateHourly(series)
			require.ErrorIs(t, err, ErrMalformedRecord)

			var re *RecordError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, 1, re.Index)
		})
	}
}

func TestAggregate_Rows(t *testing.T) {
	cell := 41.26
	series := []models.HourlyRecord{
		{Hour: "12:00", Temp: 25, CloudCover: 20, WindSpeed: 3, POA: 800.4, CellTemp: &cell, PowerKW: 4.2},
		{Hour: "13:00", Temp: 24.55, CloudCover: 35, WindSpeed: 2.04, POA: 640, PowerKW: 3.456},
	}

	agg, err := AggregateHourly(series)
	require.NoError(t, err)
	require.Len(t, agg.Rows, 2)

	assert.Equal(t, Row{
		Hour: "12:00", Temp: "25.0°C", CloudCover: "20%", WindSpeed: "3.0 m/s",
		POA: "800 W/m²", CellTemp: "41.3°C", Power: "4.20 kW",
	}, agg.Rows[0])
	assert.Equal(t, CellTempPlaceholder, agg.Rows[1].CellTemp)
	assert.Equal(t, "3.46 kW", agg.Rows[1].Power)
}

func TestFormatCards(t *testing.T) {
	series := []models.HourlyRecord{
		{Hour: "12:00", Temp: 25, CloudCover: 20, WindSpeed: 3, POA: 800, PowerKW: 4.2},
	}
	agg, err := AggregateHourly(series)
	require.NoError(t, err)

	cards := FormatCards(agg)
	assert.Equal(t, ProductionCards{
		TotalEnergy:    "4.2 kWh",
		AvgPower:       "4.20 kW",
		PeakPower:      "4.20 kW",
		ProducingHours: "1h",
	}, cards.Production)
	assert.Equal(t, "25.0°C", cards.Weather.Temp)
	assert.Equal(t, "25.0° - 25.0°", cards.Weather.TempRange)
	assert.Equal(t, "clear", cards.Weather.CloudDescriptor)
	assert.Equal(t, IconSun, cards.Weather.CloudIcon)
	assert.Equal(t, "800 W/m²", cards.Weather.Irradiance)
}

func TestFormatMetrics(t *testing.T) {
	panel := FormatMetrics(models.AdvancedMetrics{
		PerformanceRatio:   82.5,
		CapacityFactor:     14.2,
		SpecificYield:      3.41,
		AvgCellTemp:        31.7,
		MaxCellTemp:        45,
		TotalLossesApplied: 9.6,
	})
	assert.Equal(t, "82.5%", panel.PerformanceRatio)
	assert.Equal(t, "14.2%", panel.CapacityFactor)
	assert.Equal(t, "3.41 kWh/kWp", panel.SpecificYield)
	assert.Equal(t, "31.7°C", panel.AvgCellTemp)
	assert.Equal(t, "45°C", panel.MaxCellTemp)
	assert.Equal(t, "9.6%", panel.TotalLossesApplied)
}

func TestProject(t *testing.T) {
	series := []models.HourlyRecord{rec("05:00", 0), rec("12:00", 4.2), rec("21:00", 0.1)}

	s := Project(series)
	assert.Equal(t, []string{"05:00", "12:00", "21:00"}, s.Labels)
	assert.Equal(t, []float64{0, 4.2, 0.1}, s.Values)
	assert.Equal(t, PowerDatasetLabel, s.DatasetLabel)

	empty := Project(nil)
	assert.Empty(t, empty.Labels)
	assert.Empty(t, empty.Values)
}
