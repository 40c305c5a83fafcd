package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pv_forecast/internal/logger"
	"pv_forecast/internal/models"
)

const (
	forecastPath = "/api/forecast"

	// maxErrorBody bounds how much of a failed response is read for its detail.
	maxErrorBody = 64 << 10
)

// Submitter performs one forecast exchange.
type Submitter interface {
	Submit(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error)
}

// Client talks to the remote forecast service. It makes exactly one attempt
// per Submit and never retries.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient builds a client for the service rooted at baseURL. The HTTP
// client's timeout is the only deadline applied to the exchange.
func NewClient(baseURL string, httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

var _ Submitter = (*Client)(nil)

// requestPayload is the wire form of a ForecastRequest.
type requestPayload struct {
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	PowerKWp           float64 `json:"power_kwp"`
	Tilt               int     `json:"tilt"`
	Azimuth            int     `json:"azimuth"`
	Losses             float64 `json:"losses"`
	ModuleType         string  `json:"module_type"`
	DCLosses           float64 `json:"dc_losses"`
	ACLosses           float64 `json:"ac_losses"`
	MismatchLosses     float64 `json:"mismatch_losses"`
	SoilingLosses      float64 `json:"soiling_losses"`
	InverterEfficiency float64 `json:"inverter_efficiency"`
	Albedo             float64 `json:"albedo"`
}

func toPayload(r models.ForecastRequest) requestPayload {
	c := r.Config
	return requestPayload{
		Lat:                r.Position.Latitude,
		Lon:                r.Position.Longitude,
		PowerKWp:           c.PowerKWp,
		Tilt:               c.TiltDeg,
		Azimuth:            c.AzimuthDeg,
		Losses:             models.LegacyAggregateLosses,
		ModuleType:         string(c.ModuleType),
		DCLosses:           c.DCLosses,
		ACLosses:           c.ACLosses,
		MismatchLosses:     c.MismatchLosses,
		SoilingLosses:      c.SoilingLosses,
		InverterEfficiency: c.InverterEfficiency,
		Albedo:             c.Albedo,
	}
}

// hourlyPayload uses pointers so missing fields can be told apart from zeros.
type hourlyPayload struct {
	Hour       *string  `json:"hour"`
	Temp       *float64 `json:"temp"`
	CloudCover *float64 `json:"cloud_cover"`
	WindSpeed  *float64 `json:"wind_speed"`
	POA        *float64 `json:"poa"`
	CellTemp   *float64 `json:"cell_temp"`
	PowerKW    *float64 `json:"power_kw"`
}

type responsePayload struct {
	Date            string                 `json:"date"`
	EnergyKWh       *float64               `json:"energy_kwh"`
	Hourly          []hourlyPayload        `json:"hourly"`
	AdvancedMetrics models.AdvancedMetrics `json:"advanced_metrics"`
	Meta            map[string]any         `json:"meta"`
}

type errorPayload struct {
	Detail json.RawMessage `json:"detail"`
}

// Submit serializes req, posts it and classifies the outcome.
func (c *Client) Submit(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	body, err := json.Marshal(toPayload(req))
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("encode forecast request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+forecastPath, bytes.NewReader(body))
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("build forecast request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return models.ForecastResult{}, &ServiceError{Kind: ErrTransport, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.ForecastResult{}, classifyFailure(resp)
	}

	var payload responsePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.ForecastResult{}, &ServiceError{Kind: ErrMalformedRecord, StatusCode: resp.StatusCode, Cause: err}
	}
	if len(payload.Hourly) == 0 {
		return models.ForecastResult{}, &ServiceError{Kind: ErrEmptyForecast, StatusCode: resp.StatusCode}
	}

	hourly, err := decodeHourly(payload.Hourly)
	if err != nil {
		return models.ForecastResult{}, &ServiceError{Kind: ErrMalformedRecord, StatusCode: resp.StatusCode, Cause: err}
	}

	if c.log != nil {
		c.log.Debugw("forecast_received", "date", payload.Date, "hours", len(hourly))
	}

	return models.ForecastResult{
		Date:            payload.Date,
		EnergyKWh:       payload.EnergyKWh,
		Hourly:          hourly,
		AdvancedMetrics: payload.AdvancedMetrics,
		Meta:            payload.Meta,
	}, nil
}

func classifyFailure(resp *http.Response) *ServiceError {
	kind := ErrServer
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		kind = ErrValidationRejected
	}
	return &ServiceError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Detail:     readDetail(resp.Body),
	}
}

// readDetail extracts the optional "detail" of an error body. String details
// are returned as is; structured ones are returned as compact JSON.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var ep errorPayload
	if err := json.Unmarshal(raw, &ep); err != nil || len(ep.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(ep.Detail, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, ep.Detail); err != nil {
		return ""
	}
	if buf.String() == "null" {
		return ""
	}
	return buf.String()
}

func decodeHourly(in []hourlyPayload) ([]models.HourlyRecord, error) {
	out := make([]models.HourlyRecord, 0, len(in))
	for i, h := range in {
		hour := ""
		if h.Hour != nil {
			hour = *h.Hour
		}
		missing := missingFields(h)
		if len(missing) > 0 {
			return nil, &RecordError{Index: i, Hour: hour, Reason: "missing " + strings.Join(missing, ", ")}
		}
		out = append(out, models.HourlyRecord{
			Hour:       hour,
			Temp:       *h.Temp,
			CloudCover: *h.CloudCover,
			WindSpeed:  *h.WindSpeed,
			POA:        *h.POA,
			CellTemp:   h.CellTemp,
			PowerKW:    *h.PowerKW,
		})
	}
	return out, nil
}

func missingFields(h hourlyPayload) []string {
	var missing []string
	if h.Hour == nil {
		missing = append(missing, "hour")
	}
	if h.Temp == nil {
		missing = append(missing, "temp")
	}
	if h.CloudCover == nil {
		missing = append(missing, "cloud_cover")
	}
	if h.WindSpeed == nil {
		missing = append(missing, "wind_speed")
	}
	if h.POA == nil {
		missing = append(missing, "poa")
	}
	if h.PowerKW == nil {
		missing = append(missing, "power_kw")
	}
	return missing
}

// IsServiceError reports whether err came from the forecast exchange.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
