package models

import (
	"encoding/json"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
)

// Event is one browser telemetry event as stored for a user.
type Event struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Domain    *string         `json:"domain"`
	TabID     *int64          `json:"tabId"`
	WindowID  *int64          `json:"windowId"`
	URL       *string         `json:"url"`
	Title     *string         `json:"title"`
	Payload   json.RawMessage `json:"-"`
	CreatedAt time.Time       `json:"-"`
}

// EventType tags the browser action that produced an event.
type EventType string

const (
	EventTypeTabActivated        EventType = "TAB_ACTIVATED"
	EventTypeTabUpdated          EventType = "TAB_UPDATED"
	EventTypeTabCreated          EventType = "TAB_CREATED"
	EventTypeTabRemoved          EventType = "TAB_REMOVED"
	EventTypeWindowFocused       EventType = "WINDOW_FOCUSED"
	EventTypeNavigationCompleted EventType = "NAVIGATION_COMPLETED"
	EventTypeUnknown             EventType = "UNKNOWN"
)

// ActivityTypes are the event types that mark the user looking at a page and
// therefore take part in dwell-time estimation.
func ActivityTypes() []string {
	return []string{string(EventTypeTabActivated), string(EventTypeTabUpdated)}
}

// Record converts the stored event into the analytics view.
func (e *Event) Record() analytics.EventRecord {
	return analytics.EventRecord{
		Domain:    e.Domain,
		Timestamp: e.Timestamp,
		Type:      string(e.Type),
	}
}

// Records converts a slice of events.
func Records(events []Event) []analytics.EventRecord {
	out := make([]analytics.EventRecord, len(events))
	for i := range events {
		out[i] = events[i].Record()
	}
	return out
}
