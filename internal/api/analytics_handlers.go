package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

const timeSpentRows = 20

// Period is the reporting window echoed in analytics responses.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days,omitempty"`
}

// TimeSpentRow is one domain of the time-spent report.
type TimeSpentRow struct {
	Domain  string  `json:"domain"`
	Minutes float64 `json:"minutes"`
	Hours   float64 `json:"hours"`
}

// ProductivityResponse is the body of GET /api/analytics/productivity.
type ProductivityResponse struct {
	Score                float64 `json:"score"`
	ProductiveMinutes    float64 `json:"productive_minutes"`
	SocialMinutes        float64 `json:"social_minutes"`
	TotalMinutes         float64 `json:"total_minutes"`
	ProductivePercentage float64 `json:"productive_percentage"`
	SocialPercentage     float64 `json:"social_percentage"`
}

// PeakHour is the busiest hour of day.
type PeakHour struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// DayActivity is the event count of one weekday. Day is 1 for Sunday
// through 7 for Saturday.
type DayActivity struct {
	Day   int    `json:"day"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PatternsResponse is the body of GET /api/analytics/patterns.
type PatternsResponse struct {
	MostActiveHour     *int          `json:"most_active_hour"`
	MostActiveDay      *string       `json:"most_active_day"`
	Patterns           PatternPeaks  `json:"patterns"`
	HourlyDistribution []int         `json:"hourly_distribution"`
	DailyDistribution  []DayActivity `json:"daily_distribution"`
}

// PatternPeaks holds the peak buckets; either is null without events.
type PatternPeaks struct {
	PeakHour *PeakHour    `json:"peak_hour"`
	PeakDay  *DayActivity `json:"peak_day"`
}

func newPatternsResponse(p analytics.Patterns) PatternsResponse {
	resp := PatternsResponse{
		HourlyDistribution: append([]int(nil), p.HourCounts[:]...),
		DailyDistribution:  make([]DayActivity, 0, len(p.DayCounts)),
	}
	for d, n := range p.DayCounts {
		wd := time.Weekday(d)
		resp.DailyDistribution = append(resp.DailyDistribution, DayActivity{
			Day:   analytics.DayNumber(wd),
			Name:  analytics.DayName(wd),
			Count: n,
		})
	}
	if p.PeakHour != nil {
		hour := *p.PeakHour
		resp.MostActiveHour = &hour
		resp.Patterns.PeakHour = &PeakHour{Hour: hour, Count: p.HourCounts[hour]}
	}
	if p.PeakDay != nil {
		day := resp.DailyDistribution[*p.PeakDay]
		name := day.Name
		resp.MostActiveDay = &name
		resp.Patterns.PeakDay = &day
	}
	return resp
}

// domainTime estimates minutes per domain from the user's activity events in
// [start, end].
func (h *Handler) domainTime(ctx context.Context, userID string, start, end time.Time) (analytics.DomainTimeMap, error) {
	records, err := h.events.Records(ctx, models.EventQuery{
		UserID:        userID,
		Since:         &start,
		Until:         &end,
		Types:         models.ActivityTypes(),
		DomainNotNull: true,
	})
	if err != nil {
		return nil, err
	}
	activity := analytics.PrepareActivity(records, models.ActivityTypes()...)
	return analytics.EstimateDwellTime(activity, h.analytics.ActivityGapMinutes), nil
}

func (h *Handler) patterns(ctx context.Context, userID string, start, end time.Time) (analytics.Patterns, error) {
	records, err := h.events.Records(ctx, models.EventQuery{UserID: userID, Since: &start, Until: &end})
	if err != nil {
		return analytics.Patterns{}, err
	}
	return analytics.SummarizePatterns(records), nil
}

// Dashboard handles GET /api/analytics/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start, end, days, err := h.window(r, 7)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	userID := currentUser(r)
	q := models.EventQuery{UserID: userID, Since: &start, Until: &end}

	total, err := h.events.Count(ctx, q)
	if err != nil {
		h.writeFailure(w, r, "Failed to get dashboard data", err)
		return
	}
	daily, err := h.events.DailyCounts(ctx, userID, start)
	if err != nil {
		h.writeFailure(w, r, "Failed to get dashboard data", err)
		return
	}
	top, err := h.events.TopDomains(ctx, userID, &start, 10)
	if err != nil {
		h.writeFailure(w, r, "Failed to get dashboard data", err)
		return
	}
	types, err := h.events.CountByType(ctx, q)
	if err != nil {
		h.writeFailure(w, r, "Failed to get dashboard data", err)
		return
	}
	hourly, err := h.events.HourlyCounts(ctx, userID, start)
	if err != nil {
		h.writeFailure(w, r, "Failed to get dashboard data", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":          Period{Start: start, End: end, Days: days},
		"total_events":    total,
		"daily_events":    daily,
		"top_domains":     top,
		"event_types":     types,
		"hourly_activity": hourly,
	})
}

// TimeSpent handles GET /api/analytics/time-spent
func (h *Handler) TimeSpent(w http.ResponseWriter, r *http.Request) {
	start, end, _, err := h.window(r, 7)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dt, err := h.domainTime(r.Context(), currentUser(r), start, end)
	if err != nil {
		h.writeFailure(w, r, "Failed to calculate time spent", err)
		return
	}

	rows := []TimeSpentRow{}
	for _, d := range analytics.TopDomains(dt, timeSpentRows) {
		rows = append(rows, TimeSpentRow{
			Domain:  d.Domain,
			Minutes: analytics.Round2(d.Minutes),
			Hours:   analytics.Round2(d.Hours()),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"time_spent":    rows,
		"total_minutes": analytics.Round2(dt.Total()),
	})
}

// Productivity handles GET /api/analytics/productivity
func (h *Handler) Productivity(w http.ResponseWriter, r *http.Request) {
	start, end, _, err := h.window(r, 7)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dt, err := h.domainTime(r.Context(), currentUser(r), start, end)
	if err != nil {
		h.writeFailure(w, r, "Failed to calculate productivity", err)
		return
	}

	b := analytics.Classify(dt, h.analytics.ProductiveDomains, h.analytics.SocialDomains)
	writeJSON(w, http.StatusOK, ProductivityResponse{
		Score:                analytics.Round2(b.Score),
		ProductiveMinutes:    analytics.Round2(b.ProductiveMinutes),
		SocialMinutes:        analytics.Round2(b.SocialMinutes),
		TotalMinutes:         analytics.Round2(b.TotalMinutes),
		ProductivePercentage: analytics.Round2(b.ProductivePercentage()),
		SocialPercentage:     analytics.Round2(b.SocialPercentage()),
	})
}

// Patterns handles GET /api/analytics/patterns
func (h *Handler) Patterns(w http.ResponseWriter, r *http.Request) {
	start, end, _, err := h.window(r, 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.patterns(r.Context(), currentUser(r), start, end)
	if err != nil {
		h.writeFailure(w, r, "Failed to get patterns", err)
		return
	}
	writeJSON(w, http.StatusOK, newPatternsResponse(p))
}
