package site

import (
	"errors"
	"time"

	"pv_forecast/internal/models"
)

// ErrNothingPending is returned by Confirm and Cancel when no candidate is
// awaiting confirmation. It is benign: the state is left untouched.
var ErrNothingPending = errors.New("no pending position to confirm or cancel")

// LabelMaxRunes bounds the geocoded label kept for the confirmed site.
const LabelMaxRunes = 80

// PositionState is the site confirmation state machine. It holds the
// confirmed position and at most one pending candidate.
//
// PositionState has a single owner and is not safe for concurrent use.
type PositionState struct {
	confirmed      models.Position
	label          string
	candidate      *models.Position
	candidateLabel string
	updatedAt      time.Time

	now func() time.Time
}

// New returns a state machine in Confirmed at the given site.
func New(initial models.Position) (*PositionState, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	s := &PositionState{confirmed: initial, now: time.Now}
	s.updatedAt = s.now().UTC()
	return s, nil
}

// Restore returns a state machine in Confirmed at a previously persisted site.
func Restore(confirmed models.Position, label string, updatedAt time.Time) (*PositionState, error) {
	s, err := New(confirmed)
	if err != nil {
		return nil, err
	}
	s.label = truncate(label, LabelMaxRunes)
	if !updatedAt.IsZero() {
		s.updatedAt = updatedAt.UTC()
	}
	return s, nil
}

// Propose moves to PendingConfirmation holding candidate. Any previous
// candidate is discarded.
func (s *PositionState) Propose(candidate models.Position, label string) error {
	if err := candidate.Validate(); err != nil {
		return err
	}
	c := candidate
	s.candidate = &c
	s.candidateLabel = truncate(label, LabelMaxRunes)
	s.touch()
	return nil
}

// Confirm promotes the pending candidate to the confirmed position.
func (s *PositionState) Confirm() (models.Position, error) {
	if s.candidate == nil {
		return s.confirmed, ErrNothingPending
	}
	s.confirmed = *s.candidate
	s.label = s.candidateLabel
	s.clearPending()
	s.touch()
	return s.confirmed, nil
}

// Cancel discards the pending candidate and returns the confirmed position
// the marker has to move back to.
func (s *PositionState) Cancel() (models.Position, error) {
	if s.candidate == nil {
		return s.confirmed, ErrNothingPending
	}
	s.clearPending()
	s.touch()
	return s.confirmed, nil
}

// SetConfirmedDirectly applies manually entered coordinates, dropping any
// pending candidate.
func (s *PositionState) SetConfirmedDirectly(p models.Position) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.confirmed = p
	s.label = ""
	s.clearPending()
	s.touch()
	return nil
}

// Confirmed returns the confirmed position by value.
func (s *PositionState) Confirmed() models.Position {
	return s.confirmed
}

// Snapshot returns the observable state.
func (s *PositionState) Snapshot() models.SiteState {
	st := models.SiteState{
		Status:    models.StatusConfirmed,
		Confirmed: s.confirmed,
		Label:     s.label,
		Marker:    s.confirmed,
		UpdatedAt: s.updatedAt,
	}
	if s.candidate != nil {
		c := *s.candidate
		st.Status = models.StatusPendingConfirmation
		st.Candidate = &c
		st.CandidateLabel = s.candidateLabel
		st.Marker = c
	}
	return st
}

func (s *PositionState) clearPending() {
	s.candidate = nil
	s.candidateLabel = ""
}

func (s *PositionState) touch() {
	s.updatedAt = s.now().UTC()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
