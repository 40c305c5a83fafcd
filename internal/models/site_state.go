package models

import "time"

// SiteStatus is the state of the position-confirmation protocol.
type SiteStatus string

const (
	StatusConfirmed           SiteStatus = "CONFIRMED"
	StatusPendingConfirmation SiteStatus = "PENDING_CONFIRMATION"
)

// SiteState is the observable snapshot of the site position state machine.
type SiteState struct {
	Status         SiteStatus `json:"status"`
	Confirmed      Position   `json:"confirmed"`
	Label          string     `json:"label,omitempty"`     // label of the confirmed site, if geocoded
	Candidate      *Position  `json:"candidate,omitempty"` // set only while pending
	CandidateLabel string     `json:"candidate_label,omitempty"`
	Marker         Position   `json:"marker"` // where the map marker must rest
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Pending reports whether a candidate is awaiting confirmation.
func (s SiteState) Pending() bool {
	return s.Status == StatusPendingConfirmation && s.Candidate != nil
}
