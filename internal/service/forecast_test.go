package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"pv_forecast/internal/forecast"
	"pv_forecast/internal/logger"
	"pv_forecast/internal/models"
)

// fakeSubmitter is a stub for forecast.Submitter. When release is set, Submit
// blocks until it is closed.
type fakeSubmitter struct {
	mu      sync.Mutex
	result  models.ForecastResult
	err     error
	calls   []models.ForecastRequest
	started chan struct{}
	release chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if err := ctx.Err(); err != nil {
		return models.ForecastResult{}, err
	}
	return f.result, f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fixedSite satisfies positionSource.
type fixedSite struct{ pos models.Position }

func (s fixedSite) Confirmed() models.Position { return s.pos }

func sunnyResult() models.ForecastResult {
	return models.ForecastResult{
		Date: "2026-10-20",
		Hourly: []models.HourlyRecord{
			{Hour: "07:00", Temp: 12, CloudCover: 90, WindSpeed: 1, POA: 10, PowerKW: 0.01},
			{Hour: "09:00", Temp: 15, CloudCover: 20, WindSpeed: 2, POA: 300, PowerKW: 1.0},
			{Hour: "12:00", Temp: 21, CloudCover: 10, WindSpeed: 3, POA: 800, PowerKW: 2.5},
			{Hour: "15:00", Temp: 19, CloudCover: 30, WindSpeed: 4, POA: 500, PowerKW: 1.5},
		},
		AdvancedMetrics: models.AdvancedMetrics{PerformanceRatio: 81.2, SpecificYield: 1.67},
	}
}

func TestForecastService_OnSubmit_Success(t *testing.T) {
	sub := &fakeSubmitter{result: sunnyResult()}
	svc := NewForecastService(fixedSite{pos: turin}, sub, logger.Nop())

	if _, err := svc.Latest(); !errors.Is(err, ErrNoForecast) {
		t.Fatalf("expected ErrNoForecast before first run, got %v", err)
	}

	view, err := svc.OnSubmit(context.Background(), forecast.Defaults())
	if err != nil {
		t.Fatalf("OnSubmit: %v", err)
	}
	if sub.callCount() != 1 {
		t.Fatalf("expected one submission, got %d", sub.callCount())
	}
	if sub.calls[0].Position != turin {
		t.Fatalf("expected request at confirmed site, got %v", sub.calls[0].Position)
	}
	if view.ID == "" || view.CalculatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", view)
	}
	if got := view.Aggregate.Production.TotalEnergyKWh; math.Abs(got-5.01) > 1e-9 {
		t.Fatalf("expected total 5.01 kWh, got %v", got)
	}
	if len(view.Aggregate.Daylight) != 3 {
		t.Fatalf("expected 3 daylight hours, got %d", len(view.Aggregate.Daylight))
	}
	if view.Cards.Production.TotalEnergy != "5.0 kWh" {
		t.Fatalf("unexpected energy card %q", view.Cards.Production.TotalEnergy)
	}
	if len(view.Chart.Labels) != 4 || view.Chart.Values[2] != 2.5 {
		t.Fatalf("unexpected chart %+v", view.Chart)
	}

	latest, err := svc.Latest()
	if err != nil || latest.ID != view.ID {
		t.Fatalf("expected latest to be the new view, got %+v err=%v", latest, err)
	}
	if svc.InFlight() {
		t.Fatalf("in-flight flag must be cleared after completion")
	}
}

func TestForecastService_InvalidInputSkipsSubmission(t *testing.T) {
	sub := &fakeSubmitter{result: sunnyResult()}
	svc := NewForecastService(fixedSite{pos: turin}, sub, logger.Nop())

	f := forecast.Defaults()
	f.PowerKWp = "0"
	_, err := svc.OnSubmit(context.Background(), f)

	var fe *forecast.FieldError
	if !errors.As(err, &fe) || fe.Field != forecast.FieldPower {
		t.Fatalf("expected power FieldError, got %v", err)
	}
	if sub.callCount() != 0 {
		t.Fatalf("invalid input must not reach the service")
	}
}

func TestForecastService_FailureKeepsPreviousView(t *testing.T) {
	sub := &fakeSubmitter{result: sunnyResult()}
	svc := NewForecastService(fixedSite{pos: turin}, sub, logger.Nop())

	first, err := svc.OnSubmit(context.Background(), forecast.Defaults())
	if err != nil {
		t.Fatalf("first OnSubmit: %v", err)
	}

	cases := []struct {
		name   string
		result models.ForecastResult
		err    error
		want   error
	}{
		{
			name: "transport",
			err:  &forecast.ServiceError{Kind: forecast.ErrTransport, Cause: errors.New("connection refused")},
			want: forecast.ErrTransport,
		},
		{
			name: "malformed record",
			result: models.ForecastResult{Hourly: []models.HourlyRecord{
				{Hour: "noon", PowerKW: 1},
			}},
			want: forecast.ErrMalformedRecord,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub.mu.Lock()
			sub.result, sub.err = tc.result, tc.err
			sub.mu.Unlock()

			_, err := svc.OnSubmit(context.Background(), forecast.Defaults())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			latest, err := svc.Latest()
			if err != nil || latest.ID != first.ID {
				t.Fatalf("previous view must survive a failed run, got %+v err=%v", latest, err)
			}
		})
	}
}

func TestForecastService_SecondSubmitRejectedWhileInFlight(t *testing.T) {
	sub := &fakeSubmitter{
		result:  sunnyResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewForecastService(fixedSite{pos: turin}, sub, logger.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.OnSubmit(context.Background(), forecast.Defaults())
		done <- err
	}()
	<-sub.started

	if !svc.InFlight() {
		t.Fatalf("expected in-flight while the first call is pending")
	}
	if _, err := svc.OnSubmit(context.Background(), forecast.Defaults()); !errors.Is(err, ErrCalculationInProgress) {
		t.Fatalf("expected ErrCalculationInProgress, got %v", err)
	}

	close(sub.release)
	if err := <-done; err != nil {
		t.Fatalf("first OnSubmit: %v", err)
	}
	if sub.callCount() != 1 {
		t.Fatalf("rejected submission must not reach the service, calls=%d", sub.callCount())
	}
}

func TestForecastService_CallerCancellationDoesNotAbortExchange(t *testing.T) {
	sub := &fakeSubmitter{
		result:  sunnyResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewForecastService(fixedSite{pos: turin}, sub, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.OnSubmit(ctx, forecast.Defaults())
		done <- err
	}()
	<-sub.started
	cancel()
	close(sub.release)

	if err := <-done; err != nil {
		t.Fatalf("expected exchange to complete, got %v", err)
	}
	if _, err := svc.Latest(); err != nil {
		t.Fatalf("expected view to be published, got %v", err)
	}
}

func TestForecastService_Preview(t *testing.T) {
	svc := NewForecastService(fixedSite{pos: turin}, &fakeSubmitter{}, logger.Nop())

	p, err := svc.Preview(forecast.Defaults())
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if p.Display != "9.6%" {
		t.Fatalf("expected 9.6%%, got %q (%v)", p.Display, p.TotalLosses)
	}

	f := forecast.Defaults()
	f.PowerKWp = "" // not needed for a preview
	if _, err := svc.Preview(f); err != nil {
		t.Fatalf("preview must ignore installation fields, got %v", err)
	}

	f.DCLossesPct = "150"
	if _, err := svc.Preview(f); !errors.Is(err, forecast.ErrInvalidLoss) {
		t.Fatalf("expected ErrInvalidLoss, got %v", err)
	}
}
