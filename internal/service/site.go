package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pv_forecast/internal/logger"
	"pv_forecast/internal/models"
	"pv_forecast/internal/repository"
	"pv_forecast/internal/site"
)

// Gesture sources recorded in event metadata.
const (
	sourceDrag    = "drag"
	sourceGeocode = "geocode"
	sourceManual  = "manual"
)

// SiteService owns the single PositionState. The mutex serialises gesture
// handlers so the state machine only ever sees one writer.
//
// Only confirmed positions are persisted. Storage failures are logged and do
// not undo a gesture: the in-memory state stays authoritative.
type SiteService struct {
	mu    sync.Mutex
	state *site.PositionState

	stateRepo repository.SiteStateRepo
	eventRepo repository.EventRepo
	log       *logger.Logger
}

// NewSiteService restores the last confirmed site, or starts at defaultSite
// when nothing was stored.
func NewSiteService(ctx context.Context, stateRepo repository.SiteStateRepo, eventRepo repository.EventRepo, defaultSite models.Position, log *logger.Logger) (*SiteService, error) {
	stored, err := stateRepo.Load(ctx)
	if err != nil {
		log.Warnw("site_state_restore_failed", "err", err, "default", defaultSite.String())
		stored = models.SiteState{}
	}

	var st *site.PositionState
	if stored.UpdatedAt.IsZero() {
		st, err = site.New(defaultSite)
	} else {
		st, err = site.Restore(stored.Confirmed, stored.Label, stored.UpdatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("initial site: %w", err)
	}

	return &SiteService{
		state:     st,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		log:       log,
	}, nil
}

// State returns the current snapshot.
func (s *SiteService) State() models.SiteState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Confirmed returns the confirmed position by value, the only input the
// request builder reads from the site.
func (s *SiteService) Confirmed() models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Confirmed()
}

// OnDragEnd proposes the marker's drop point as the new candidate.
func (s *SiteService) OnDragEnd(ctx context.Context, candidate models.Position) (models.SiteState, error) {
	return s.propose(ctx, candidate, "", sourceDrag)
}

// OnGeocodeSelect proposes a geocoded address. It goes through the same
// pending/confirm protocol as a drag.
func (s *SiteService) OnGeocodeSelect(ctx context.Context, candidate models.Position, label string) (models.SiteState, error) {
	return s.propose(ctx, candidate, label, sourceGeocode)
}

func (s *SiteService) propose(ctx context.Context, candidate models.Position, label, source string) (models.SiteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Propose(candidate, label); err != nil {
		return s.state.Snapshot(), err
	}
	snap := s.state.Snapshot()

	s.appendEvent(ctx, models.SiteEvent{
		OccurredAt:  snap.UpdatedAt,
		Type:        models.EventPropose,
		Description: "Candidate site " + candidate.String(),
		Metadata: map[string]any{
			"lat":    candidate.Latitude,
			"lon":    candidate.Longitude,
			"label":  snap.CandidateLabel,
			"source": source,
		},
	})
	return snap, nil
}

// OnConfirm promotes the pending candidate. With nothing pending it returns
// site.ErrNothingPending and leaves the state untouched.
func (s *SiteService) OnConfirm(ctx context.Context) (models.SiteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.state.Confirm()
	if err != nil {
		return s.state.Snapshot(), err
	}
	snap := s.state.Snapshot()

	s.persist(ctx, snap)
	s.appendEvent(ctx, models.SiteEvent{
		OccurredAt:  snap.UpdatedAt,
		Type:        models.EventConfirm,
		Description: "Site confirmed at " + p.String(),
		Metadata:    map[string]any{"lat": p.Latitude, "lon": p.Longitude, "label": snap.Label},
	})
	return snap, nil
}

// OnCancel discards the pending candidate; the marker returns to the
// confirmed site.
func (s *SiteService) OnCancel(ctx context.Context) (models.SiteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.state.Cancel()
	if err != nil {
		return s.state.Snapshot(), err
	}
	snap := s.state.Snapshot()

	s.appendEvent(ctx, models.SiteEvent{
		OccurredAt:  snap.UpdatedAt,
		Type:        models.EventCancel,
		Description: "Candidate discarded, marker back at " + p.String(),
	})
	return snap, nil
}

// OnManualCoords confirms typed coordinates directly, bypassing the pending
// step.
func (s *SiteService) OnManualCoords(ctx context.Context, p models.Position) (models.SiteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.SetConfirmedDirectly(p); err != nil {
		return s.state.Snapshot(), err
	}
	snap := s.state.Snapshot()

	s.persist(ctx, snap)
	s.appendEvent(ctx, models.SiteEvent{
		OccurredAt:  snap.UpdatedAt,
		Type:        models.EventSetManual,
		Description: "Site set manually to " + p.String(),
		Metadata:    map[string]any{"lat": p.Latitude, "lon": p.Longitude, "source": sourceManual},
	})
	return snap, nil
}

func (s *SiteService) persist(ctx context.Context, snap models.SiteState) {
	if err := s.stateRepo.Save(ctx, snap); err != nil {
		s.log.Errorw("site_state_save_failed", "err", err, "confirmed", snap.Confirmed.String())
	}
}

func (s *SiteService) appendEvent(ctx context.Context, e models.SiteEvent) {
	e.EventID = uuid.NewString()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := s.eventRepo.Append(ctx, e); err != nil {
		s.log.Warnw("site_event_append_failed", "err", err, "type", e.Type)
	}
}

// IsBenign reports whether err is a no-op outcome rather than a failure.
func IsBenign(err error) bool {
	return errors.Is(err, site.ErrNothingPending)
}
