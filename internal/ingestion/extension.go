// Package ingestion converts events posted by the browser extension into
// stored telemetry events.
package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nikhil-Doal/tracker/internal/models"
)

// MaxBatchSize is the largest number of events accepted in one sync request.
const MaxBatchSize = 1000

// Accepted epoch-millisecond range: 0001-01-01T00:00:00Z through
// 9999-12-31T23:59:59.999Z.
const (
	minEpochMillis = -62135596800000
	maxEpochMillis = 253402300799999
)

// ExtensionEvent is the wire format produced by the extension's local queue:
//
//	{"_id": "uuid", "v": 1, "type": "TAB_ACTIVATED", "ts": 1705123456789, "payload": {...}}
//
// Older clients send "timestamp" instead of "ts" and may put "type" inside
// the payload.
type ExtensionEvent struct {
	ID        string         `json:"_id,omitempty"`
	Version   int            `json:"v,omitempty"`
	Type      string         `json:"type,omitempty"`
	TS        *float64       `json:"ts,omitempty"`
	Timestamp *float64       `json:"timestamp,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ErrNotObject is returned for batch entries that are not JSON objects.
var ErrNotObject = errors.New("event must be a JSON object")

// ExtractDomain returns the network authority (host and optional port) of
// rawURL, or nil when the URL is empty, unparseable or has no host.
func ExtractDomain(rawURL string) *string {
	if strings.TrimSpace(rawURL) == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	host := u.Host
	return &host
}

// Normalize builds a stored event from an extension event. Timestamps are
// epoch milliseconds interpreted as UTC; a missing or zero timestamp is
// replaced by now.
func Normalize(userID string, ext ExtensionEvent, now time.Time) (models.Event, error) {
	ts := now.UTC()
	if ms := firstNonZero(ext.TS, ext.Timestamp); ms != 0 {
		parsed, err := fromEpochMillis(ms)
		if err != nil {
			return models.Event{}, err
		}
		ts = parsed
	}

	payload := ext.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	eventType := ext.Type
	if eventType == "" {
		if t, ok := payload["type"].(string); ok {
			eventType = t
		}
	}
	if eventType == "" {
		eventType = string(models.EventTypeUnknown)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return models.Event{}, fmt.Errorf("encoding payload: %w", err)
	}

	event := models.Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.EventType(eventType),
		Timestamp: ts,
		TabID:     intField(payload, "tabId"),
		WindowID:  intField(payload, "windowId"),
		URL:       stringField(payload, "url"),
		Title:     stringField(payload, "title"),
		Payload:   raw,
		CreatedAt: now.UTC(),
	}
	if event.URL != nil {
		event.Domain = ExtractDomain(*event.URL)
	}

	return event, nil
}

// NormalizeBatch decodes and normalizes each raw entry. Entries that fail are
// skipped and reported as "Event N failed: ..." with N counted from 1.
func NormalizeBatch(userID string, batch []json.RawMessage, now time.Time) ([]models.Event, []string) {
	events := make([]models.Event, 0, len(batch))
	var failures []string

	for i, raw := range batch {
		event, err := decodeAndNormalize(userID, raw, now)
		if err != nil {
			failures = append(failures, fmt.Sprintf("Event %d failed: %v", i+1, err))
			continue
		}
		events = append(events, event)
	}

	return events, failures
}

func decodeAndNormalize(userID string, raw json.RawMessage, now time.Time) (models.Event, error) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return models.Event{}, ErrNotObject
	}

	var ext ExtensionEvent
	if err := json.Unmarshal(raw, &ext); err != nil {
		return models.Event{}, fmt.Errorf("invalid event: %w", err)
	}
	return Normalize(userID, ext, now)
}

// fromEpochMillis converts ms to a UTC time, rejecting values that would land
// outside years 1..9999.
func fromEpochMillis(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || ms < minEpochMillis || ms > maxEpochMillis {
		return time.Time{}, fmt.Errorf("timestamp %v out of range", ms)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

func firstNonZero(values ...*float64) float64 {
	for _, v := range values {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}

func intField(payload map[string]any, key string) *int64 {
	n, ok := payload[key].(float64)
	if !ok {
		return nil
	}
	v := int64(n)
	return &v
}

func stringField(payload map[string]any, key string) *string {
	s, ok := payload[key].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
