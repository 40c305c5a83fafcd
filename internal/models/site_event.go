package models

import "time"

// Site event types.
const (
	EventPropose   = "PROPOSE"
	EventConfirm   = "CONFIRM"
	EventCancel    = "CANCEL"
	EventSetManual = "SET_MANUAL"
)

// SiteEvent is a single entry of the site gesture log.
type SiteEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // PROPOSE | CONFIRM | CANCEL | SET_MANUAL
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
