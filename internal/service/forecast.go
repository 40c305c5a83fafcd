package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pv_forecast/internal/forecast"
	"pv_forecast/internal/logger"
	"pv_forecast/internal/models"
)

var (
	ErrCalculationInProgress = errors.New("a forecast calculation is already in progress")
	ErrNoForecast            = errors.New("no forecast has been calculated yet")
)

// positionSource is the narrow view of the site the forecast needs.
type positionSource interface {
	Confirmed() models.Position
}

// ForecastService runs one calculation at a time and keeps the last
// successful view. A failed calculation leaves the previous view in place.
type ForecastService struct {
	site      positionSource
	submitter forecast.Submitter
	log       *logger.Logger

	inFlight atomic.Bool
	latest   atomic.Pointer[View]

	now func() time.Time
}

func NewForecastService(site positionSource, submitter forecast.Submitter, log *logger.Logger) *ForecastService {
	return &ForecastService{
		site:      site,
		submitter: submitter,
		log:       log,
		now:       time.Now,
	}
}

// OnSubmit validates the form against the confirmed site, calls the remote
// service and publishes the resulting view. A second submission while one is
// pending is rejected with ErrCalculationInProgress.
func (s *ForecastService) OnSubmit(ctx context.Context, fields forecast.Fields) (View, error) {
	// the position is read by value, a later site change cannot alter this request
	req, err := forecast.Build(fields, s.site.Confirmed())
	if err != nil {
		s.log.Infow("forecast_input_rejected", "err", err)
		return View{}, err
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return View{}, ErrCalculationInProgress
	}
	defer s.inFlight.Store(false)

	// runs to completion even if the caller goes away; the transport
	// timeout is the only bound
	start := s.now()
	res, err := s.submitter.Submit(context.WithoutCancel(ctx), req)
	if err != nil {
		s.logFailure("forecast_submit_failed", err, req)
		return View{}, err
	}

	agg, err := forecast.AggregateHourly(res.Hourly)
	if err != nil {
		s.logFailure("forecast_aggregate_failed", err, req)
		return View{}, err
	}

	view := View{
		ID:           uuid.NewString(),
		CalculatedAt: s.now().UTC(),
		Request:      req,
		TotalLosses:  forecast.TotalLosses(req.Config),
		Result:       res,
		Aggregate:    agg,
		Cards:        forecast.FormatCards(agg),
		Metrics:      forecast.FormatMetrics(res.AdvancedMetrics),
		Chart:        forecast.Project(res.Hourly),
	}
	s.latest.Store(&view)

	s.log.Infow("forecast_calculated",
		"id", view.ID,
		"site", req.Position.String(),
		"hours", len(res.Hourly),
		"total_kwh", agg.Production.TotalEnergyKWh,
		"elapsed", s.now().Sub(start),
	)
	return view, nil
}

// Latest returns the last successful view.
func (s *ForecastService) Latest() (View, error) {
	v := s.latest.Load()
	if v == nil {
		return View{}, ErrNoForecast
	}
	return *v, nil
}

// Preview computes the combined loss figure for the loss inputs alone.
func (s *ForecastService) Preview(fields forecast.Fields) (LossPreview, error) {
	cfg, err := forecast.LossesOf(fields)
	if err != nil {
		return LossPreview{}, err
	}
	total := forecast.TotalLosses(cfg)
	return LossPreview{TotalLosses: total, Display: forecast.FormatLosses(total)}, nil
}

// InFlight reports whether a calculation is pending, which disables the
// submit control.
func (s *ForecastService) InFlight() bool {
	return s.inFlight.Load()
}

func (s *ForecastService) logFailure(msg string, err error, req models.ForecastRequest) {
	category := forecast.Category(err)
	if errors.Is(err, forecast.ErrMalformedRecord) {
		s.log.Errorw(msg, "err", err, "category", category, "site", req.Position.String())
		return
	}
	s.log.Warnw(msg, "err", err, "category", category, "site", req.Position.String())
}
