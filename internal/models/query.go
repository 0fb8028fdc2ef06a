package models

import (
	"time"
)

const (
	DefaultEventLimit = 100
	MaxEventLimit     = 1000
)

// EventQuery represents filters and pagination for listing a user's events.
type EventQuery struct {
	UserID string

	// Since and Until are inclusive; Before is exclusive and suits whole-day
	// windows.
	Since  *time.Time
	Until  *time.Time
	Before *time.Time

	Types         []string
	Domain        string
	DomainNotNull bool

	Limit  int
	Offset int

	// Ascending orders by timestamp oldest first; the default is newest first.
	Ascending bool
}

// ApplyDefaults fills in and caps the pagination fields.
func (q *EventQuery) ApplyDefaults() {
	if q.Limit <= 0 {
		q.Limit = DefaultEventLimit
	}
	if q.Limit > MaxEventLimit {
		q.Limit = MaxEventLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// EventResponse is a paginated list of events.
type EventResponse struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Skip   int     `json:"skip"`
}
