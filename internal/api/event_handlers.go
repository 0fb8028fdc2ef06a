package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/ingestion"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

// SyncResponse reports the outcome of an extension sync.
type SyncResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Received int      `json:"received"`
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors,omitempty"`
}

func (h *Handler) rejectSync(w http.ResponseWriter, reason string, n int, body interface{}) {
	if h.recorder != nil {
		h.recorder.SyncRejected(reason, n)
	}
	writeJSON(w, http.StatusBadRequest, body)
}

// SyncEvents handles POST /api/events/sync
func (h *Handler) SyncEvents(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil || body == nil {
		h.rejectSync(w, "no_data", 1, map[string]string{"error": "No data provided"})
		return
	}

	rawEvents, ok := body["events"]
	if !ok {
		h.rejectSync(w, "no_events", 1, map[string]string{"error": "No events provided"})
		return
	}

	var batch []json.RawMessage
	if err := json.Unmarshal(rawEvents, &batch); err != nil || bytes.Equal(bytes.TrimSpace(rawEvents), []byte("null")) {
		h.rejectSync(w, "not_array", 1, map[string]string{"error": "Events must be an array"})
		return
	}
	if len(batch) > ingestion.MaxBatchSize {
		h.rejectSync(w, "too_many", 1, map[string]string{
			"error": fmt.Sprintf("Too many events: at most %d per sync", ingestion.MaxBatchSize),
		})
		return
	}

	userID := currentUser(r)
	events, failures := ingestion.NormalizeBatch(userID, batch, h.now())
	if len(failures) > 0 && h.recorder != nil {
		h.recorder.SyncRejected("invalid_event", len(failures))
	}
	events, duplicates := ingestion.Dedupe(events)
	if duplicates > 0 && h.recorder != nil {
		h.recorder.SyncRejected("duplicate", duplicates)
	}
	if len(events) == 0 {
		details := failures
		if details == nil {
			details = []string{}
		}
		h.rejectSync(w, "no_valid_events", 1, map[string]interface{}{
			"error":   "No valid events",
			"details": details,
		})
		return
	}

	inserted, err := h.events.InsertBatch(r.Context(), events)
	if err != nil {
		h.writeFailure(w, r, "Sync failed", err)
		return
	}
	if h.recorder != nil {
		h.recorder.EventsIngested(inserted)
	}

	h.logger.Debug("events synced",
		"user_id", userID,
		"received", len(batch),
		"inserted", inserted,
		"duplicates", duplicates,
		"failed", len(failures))

	writeJSON(w, http.StatusOK, SyncResponse{
		Success:  true,
		Message:  "Events synced successfully",
		Received: len(batch),
		Inserted: inserted,
		Errors:   failures,
	})
}

// eventFilter reads start_date, end_date, type and domain.
func eventFilter(r *http.Request, userID string) (models.EventQuery, error) {
	q := models.EventQuery{UserID: userID}

	since, err := timeParam(r, "start_date")
	if err != nil {
		return q, err
	}
	until, err := timeParam(r, "end_date")
	if err != nil {
		return q, err
	}
	q.Since, q.Until = since, until

	if t := r.URL.Query().Get("type"); t != "" {
		q.Types = []string{t}
	}
	q.Domain = r.URL.Query().Get("domain")
	return q, nil
}

// ListEvents handles GET /api/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q, err := eventFilter(r, currentUser(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit, err = intParam(r, "limit", models.DefaultEventLimit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Offset, err = intParam(r, "skip", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.ApplyDefaults()

	events, err := h.events.List(r.Context(), q)
	if err != nil {
		h.writeFailure(w, r, "Failed to get events", err)
		return
	}
	total, err := h.events.Count(r.Context(), q)
	if err != nil {
		h.writeFailure(w, r, "Failed to get events", err)
		return
	}

	writeJSON(w, http.StatusOK, models.EventResponse{
		Events: events,
		Total:  total,
		Limit:  q.Limit,
		Skip:   q.Offset,
	})
}

// CountEvents handles GET /api/events/count
func (h *Handler) CountEvents(w http.ResponseWriter, r *http.Request) {
	count, err := h.events.Count(r.Context(), models.EventQuery{UserID: currentUser(r)})
	if err != nil {
		h.writeFailure(w, r, "Failed to get count", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// RecentEvents handles GET /api/events/recent
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	hours, err := intParam(r, "hours", 24)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	since := h.now().UTC().Add(-time.Duration(hours) * time.Hour)
	q := models.EventQuery{UserID: currentUser(r), Since: &since, Limit: limit}
	q.ApplyDefaults()

	events, err := h.events.List(r.Context(), q)
	if err != nil {
		h.writeFailure(w, r, "Failed to get recent events", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"hours":  hours,
		"count":  len(events),
	})
}

// TopDomains handles GET /api/events/domains
func (h *Handler) TopDomains(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	domains, err := h.events.TopDomains(r.Context(), currentUser(r), nil, limit)
	if err != nil {
		h.writeFailure(w, r, "Failed to get domains", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"domains": domains,
		"total":   len(domains),
	})
}

// EventStats handles GET /api/events/stats
func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	q, err := eventFilter(r, currentUser(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// stats ignore type and domain filters
	q.Types, q.Domain = nil, ""

	byType, err := h.events.CountByType(r.Context(), q)
	if err != nil {
		h.writeFailure(w, r, "Failed to get stats", err)
		return
	}
	total, err := h.events.Count(r.Context(), q)
	if err != nil {
		h.writeFailure(w, r, "Failed to get stats", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"by_type": byType,
	})
}
