package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/insights"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

const (
	summaryConfidence = 0.85
	reportConfidence  = 0.9
)

type categorizeRequest struct {
	Domain string `json:"domain"`
	Title  string `json:"title"`
}

// saveInsight stores a generated item. Failures are logged, not returned:
// the caller already has the text to show.
func (h *Handler) saveInsight(r *http.Request, date time.Time, item models.InsightItem) {
	if !h.ai.Configured() || h.insightStore == nil {
		return
	}
	insight := &models.Insight{
		UserID: currentUser(r),
		Date:   date,
		Items:  models.InsightItems{item},
	}
	if err := h.insightStore.Create(r.Context(), insight); err != nil {
		h.logger.Error("failed to store insight", "type", item.Type, "error", err)
	}
}

// DailySummary handles GET /api/ai/daily-summary
func (h *Handler) DailySummary(w http.ResponseWriter, r *http.Request) {
	day := h.now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
			return
		}
		day = parsed
	}
	end := day.Add(24 * time.Hour)
	date := day.Format(time.DateOnly)
	userID := currentUser(r)

	records, err := h.events.Records(r.Context(), models.EventQuery{UserID: userID, Since: &day, Before: &end})
	if err != nil {
		h.writeFailure(w, r, "Failed to generate summary", err)
		return
	}
	if len(records) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"summary": "No activity recorded for this day.",
			"date":    date,
		})
		return
	}

	summary := h.ai.DailySummary(r.Context(), userID, records)

	item := models.NewInsightItem(models.InsightSummary, summary)
	item.Confidence = summaryConfidence
	h.saveInsight(r, day, item)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary":     summary,
		"date":        date,
		"event_count": len(records),
	})
}

// ProductivityInsights handles GET /api/ai/productivity-insights
func (h *Handler) ProductivityInsights(w http.ResponseWriter, r *http.Request) {
	start, end, _, err := h.window(r, 7)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := currentUser(r)

	dt, err := h.domainTime(r.Context(), userID, start, end)
	if err != nil {
		h.writeFailure(w, r, "Failed to generate insights", err)
		return
	}
	b := analytics.Classify(dt, h.analytics.ProductiveDomains, h.analytics.SocialDomains)
	text := h.ai.ProductivityInsights(r.Context(), userID, dt, b.Score)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"insights":           text,
		"productivity_score": analytics.Round2(b.Score),
		"time_spent": map[string]float64{
			"total_minutes":      analytics.Round2(b.TotalMinutes),
			"productive_minutes": analytics.Round2(b.ProductiveMinutes),
			"social_minutes":     analytics.Round2(b.SocialMinutes),
		},
	})
}

// Categorize handles POST /api/ai/categorize
func (h *Handler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Domain) == "" {
		writeError(w, http.StatusBadRequest, "Domain is required")
		return
	}

	category := h.ai.CategorizeDomain(r.Context(), currentUser(r), req.Domain, req.Title)
	writeJSON(w, http.StatusOK, map[string]string{
		"domain":   req.Domain,
		"category": string(category),
	})
}

// WeeklyReport handles GET /api/ai/weekly-report
func (h *Handler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	end := h.now().UTC()
	start := end.AddDate(0, 0, -7)
	ctx := r.Context()
	userID := currentUser(r)

	total, err := h.events.Count(ctx, models.EventQuery{UserID: userID, Since: &start, Until: &end})
	if err != nil {
		h.writeFailure(w, r, "Failed to generate report", err)
		return
	}
	top, err := h.events.TopDomains(ctx, userID, &start, 10)
	if err != nil {
		h.writeFailure(w, r, "Failed to generate report", err)
		return
	}
	dt, err := h.domainTime(ctx, userID, start, end)
	if err != nil {
		h.writeFailure(w, r, "Failed to generate report", err)
		return
	}
	p, err := h.patterns(ctx, userID, start, end)
	if err != nil {
		h.writeFailure(w, r, "Failed to generate report", err)
		return
	}

	data := insights.WeeklyData{
		TotalEvents:       total,
		TopDomains:        top,
		ProductivityScore: analytics.Round2(analytics.Score(dt, h.analytics.ProductiveDomains, h.analytics.SocialDomains)),
		PeakHour:          "N/A",
		PeakDay:           "N/A",
	}
	if p.PeakHour != nil {
		data.PeakHour = fmt.Sprintf("%d:00", *p.PeakHour)
	}
	if p.PeakDay != nil {
		data.PeakDay = analytics.DayName(*p.PeakDay)
	}

	report := h.ai.WeeklyReport(ctx, userID, data)

	item := models.NewInsightItem(models.InsightWeeklyReport, report)
	item.Confidence = reportConfidence
	h.saveInsight(r, start, item)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report": report,
		"data":   data,
		"period": Period{Start: start, End: end},
	})
}

// PatternInsights handles GET /api/ai/patterns
func (h *Handler) PatternInsights(w http.ResponseWriter, r *http.Request) {
	start, end, _, err := h.window(r, 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := currentUser(r)

	p, err := h.patterns(r.Context(), userID, start, end)
	if err != nil {
		h.writeFailure(w, r, "Failed to detect patterns", err)
		return
	}
	resp := newPatternsResponse(p)
	analysis := h.ai.DetectPatterns(r.Context(), userID, p)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analysis":         analysis,
		"most_active_hour": resp.MostActiveHour,
		"most_active_day":  resp.MostActiveDay,
	})
}

// InsightsHistory handles GET /api/ai/insights/history
func (h *Handler) InsightsHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.insightStore.ListByUser(r.Context(), currentUser(r), limit)
	if err != nil {
		h.writeFailure(w, r, "Failed to get insights", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"insights": list,
		"count":    len(list),
	})
}

// Usage handles GET /api/ai/usage: the caller's generation stats over the
// last days plus their most recent calls.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	start, end, days, err := h.window(r, 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := currentUser(r)

	stats := &models.InferenceLogStats{}
	calls := []models.InferenceLog{}
	if h.inferenceLogs != nil {
		stats, err = h.inferenceLogs.GetStats(r.Context(), userID, &start, &end)
		if err != nil {
			h.writeFailure(w, r, "Failed to get usage", err)
			return
		}
		calls, err = h.inferenceLogs.List(r.Context(), models.InferenceLogQuery{
			UserID:    userID,
			StartDate: &start,
			EndDate:   &end,
			Limit:     limit,
		})
		if err != nil {
			h.writeFailure(w, r, "Failed to get usage", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":       Period{Start: start, End: end, Days: days},
		"stats":        stats,
		"recent_calls": calls,
	})
}
