package repository

import (
	"context"
	"database/sql"
	"time"

	"pv_forecast/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// SiteStateRepo persists the confirmed site. Pending candidates are never
// stored; they do not survive a restart.
type SiteStateRepo interface {
	Save(ctx context.Context, s models.SiteState) error
	Load(ctx context.Context) (models.SiteState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.SiteEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SiteEvent, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Repository struct {
	SiteState SiteStateRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SiteState: NewSiteStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
