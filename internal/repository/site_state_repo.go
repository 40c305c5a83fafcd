package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pv_forecast/internal/models"
)

type SiteStateSQLite struct {
	db *sql.DB
}

func NewSiteStateSQLite(db *sql.DB) *SiteStateSQLite {
	return &SiteStateSQLite{db: db}
}

const (
	siteStateRowID = 1

	upsertSiteStateSQL = `
		INSERT INTO site_state (id, lat, lon, label, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lat=excluded.lat,
			lon=excluded.lon,
			label=excluded.label,
			updated_at=excluded.updated_at
	`

	selectSiteStateSQL = `
		SELECT lat, lon, label, updated_at
		FROM site_state WHERE id=?
	`
)

// Save upserts the site_state row (id always 1) with the confirmed position.
func (r *SiteStateSQLite) Save(ctx context.Context, s models.SiteState) error {
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	var label sql.NullString
	if s.Label != "" {
		label = sql.NullString{String: s.Label, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, upsertSiteStateSQL,
		siteStateRowID,
		s.Confirmed.Latitude,
		s.Confirmed.Longitude,
		label,
		tsUTC,
	)
	if err != nil {
		return fmt.Errorf("save site state: %w", err)
	}
	return nil
}

// Load fetches the confirmed site. A zero SiteState with a nil error means
// nothing has been stored yet.
func (r *SiteStateSQLite) Load(ctx context.Context) (models.SiteState, error) {
	row := r.db.QueryRowContext(ctx, selectSiteStateSQL, siteStateRowID)

	var (
		s     models.SiteState
		label sql.NullString
	)
	if err := row.Scan(&s.Confirmed.Latitude, &s.Confirmed.Longitude, &label, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SiteState{}, nil
		}
		return models.SiteState{}, fmt.Errorf("load site state: %w", err)
	}
	if err := s.Confirmed.Validate(); err != nil {
		return models.SiteState{}, fmt.Errorf("load site state: %w", err)
	}

	s.Status = models.StatusConfirmed
	s.Label = label.String
	s.Marker = s.Confirmed
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
