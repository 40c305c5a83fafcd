package service

import (
	"context"
	"fmt"

	"pv_forecast/internal/config"
	"pv_forecast/internal/forecast"
	"pv_forecast/internal/geocode"
	"pv_forecast/internal/logger"
	"pv_forecast/internal/models"
	"pv_forecast/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Site drives the site confirmation protocol. Every command returns the
// snapshot after the gesture was applied.
type Site interface {
	State() models.SiteState
	Confirmed() models.Position
	OnDragEnd(ctx context.Context, candidate models.Position) (models.SiteState, error)
	OnGeocodeSelect(ctx context.Context, candidate models.Position, label string) (models.SiteState, error)
	OnConfirm(ctx context.Context) (models.SiteState, error)
	OnCancel(ctx context.Context) (models.SiteState, error)
	OnManualCoords(ctx context.Context, p models.Position) (models.SiteState, error)
}

// Forecast runs calculations against the confirmed site.
type Forecast interface {
	OnSubmit(ctx context.Context, fields forecast.Fields) (View, error)
	Latest() (View, error)
	Preview(fields forecast.Fields) (LossPreview, error)
	InFlight() bool
}

// Geocode resolves free-text addresses to candidate positions.
type Geocode interface {
	Search(ctx context.Context, query string) ([]geocode.Candidate, error)
}

// EventLog exposes the append-only site gesture log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SiteEvent, error)
}

// Retention prunes the gesture log in the background.
type Retention interface {
	Start() error
	Stop()
	PruneNow(ctx context.Context) (int64, error)
}

type Service struct {
	Site
	Forecast
	Geocode
	EventLog
	Retention
	Authorization
}

// Deps are the collaborators that live outside the repository layer.
type Deps struct {
	Submitter forecast.Submitter
	Searcher  geocode.Searcher
	Config    *config.Config
	Logger    *logger.Logger
}

// NewService wires the repository layer into concrete services. The site is
// restored from storage, falling back to the configured default.
func NewService(ctx context.Context, repos *repository.Repository, deps Deps) (*Service, error) {
	cfg := deps.Config
	defaultSite := models.Position{Latitude: cfg.Site.DefaultLat, Longitude: cfg.Site.DefaultLon}

	site, err := NewSiteService(ctx, repos.SiteState, repos.EventRepo, defaultSite, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("init site service: %w", err)
	}

	return &Service{
		Site:          site,
		Forecast:      NewForecastService(site, deps.Submitter, deps.Logger),
		Geocode:       NewGeocodeService(deps.Searcher, deps.Logger),
		EventLog:      NewEventLogService(repos.EventRepo),
		Retention:     NewRetentionService(repos.EventRepo, cfg.Events.Retention, cfg.Events.PruneEvery, deps.Logger),
		Authorization: NewAuthService(repos.Auth, cfg.Auth.SigningKey, cfg.Auth.TokenTTL),
	}, nil
}
