package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/auth"
	"github.com/Nikhil-Doal/tracker/internal/config"
	"github.com/Nikhil-Doal/tracker/internal/insights"
	"github.com/Nikhil-Doal/tracker/internal/logging"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

// Monday
var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	t        *testing.T
	mux      *http.ServeMux
	users    *memoryUsers
	events   *memoryEvents
	insights *memoryInsights
	usage    *memoryInferenceLogs
	counter  *syncCounter
}

func newTestEnv(t *testing.T, gen insights.SummaryGenerator) *testEnv {
	t.Helper()
	env := &testEnv{
		t:        t,
		mux:      http.NewServeMux(),
		users:    newMemoryUsers(),
		events:   &memoryEvents{},
		insights: &memoryInsights{},
		usage:    &memoryInferenceLogs{},
		counter:  &syncCounter{},
	}

	logger := logging.Discard()
	h := NewHandler(Dependencies{
		Users:         env.users,
		Events:        env.events,
		Insights:      env.insights,
		InferenceLogs: env.usage,
		AI:            insights.NewService(gen, nil, time.Second, logger),
		Auth: auth.Config{
			Secret:     "test-secret",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
		Analytics: config.AnalyticsConfig{
			ActivityGapMinutes: analytics.DefaultGapMinutes,
			ProductiveDomains:  analytics.DefaultProductiveDomains,
			SocialDomains:      analytics.DefaultSocialDomains,
		},
		Recorder: env.counter,
		Version:  "test",
		Logger:   logger,
	})
	h.now = func() time.Time { return fixedNow }
	h.register(env.mux)
	return env
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) register(email string) AuthResponse {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:    email,
		Name:     "Test User",
		Password: "password123",
	})
	require.Equal(e.t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp AuthResponse
	require.NoError(e.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func body(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

// seedActivity syncs four events two hours before fixedNow:
// github 10 min, youtube 5 min, github again after a 35 min gap.
func (e *testEnv) seedActivity(token string) {
	e.t.Helper()
	t0 := fixedNow.Add(-2 * time.Hour)
	ev := func(offset time.Duration, typ, url string) map[string]interface{} {
		return map[string]interface{}{
			"type":    typ,
			"ts":      t0.Add(offset).UnixMilli(),
			"payload": map[string]interface{}{"url": url, "tabId": 1},
		}
	}
	rr := e.do(http.MethodPost, "/api/events/sync", token, map[string]interface{}{
		"events": []interface{}{
			ev(0, "TAB_ACTIVATED", "https://github.com/a/b"),
			ev(10*time.Minute, "TAB_ACTIVATED", "https://youtube.com/watch"),
			ev(15*time.Minute, "TAB_UPDATED", "https://github.com/a/c"),
			ev(50*time.Minute, "TAB_ACTIVATED", "https://reddit.com/r/golang"),
		},
	})
	require.Equal(e.t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	reg := env.register("ada@example.com")
	assert.Equal(t, "User registered successfully", reg.Message)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, models.DefaultSyncInterval, reg.User.Settings.SyncInterval)

	t.Run("duplicate email", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
			Email: "ADA@example.com", Name: "Other", Password: "password123",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "User already exists", body(t, rr)["error"])
	})

	t.Run("validation", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
			Email: "not-an-email", Password: "short",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		b := body(t, rr)
		assert.Equal(t, "Validation error", b["error"])
		messages := b["messages"].(map[string]interface{})
		assert.Contains(t, messages, "email")
		assert.Contains(t, messages, "name")
		assert.Contains(t, messages, "password")
	})

	t.Run("no password hash in responses", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/api/auth/me", reg.AccessToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "$2a$")
		user := body(t, rr)["user"].(map[string]interface{})
		assert.Equal(t, reg.User.ID, user["id"])
	})

	t.Run("login", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid credentials", body(t, rr)["error"])

		rr = env.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "password123"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = env.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ada@example.com", Password: "password123"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Login successful", body(t, rr)["message"])
	})

	t.Run("refresh", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/api/auth/refresh", reg.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = env.do(http.MethodPost, "/api/auth/refresh", reg.RefreshToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		token := body(t, rr)["access_token"].(string)

		rr = env.do(http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("update profile", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/api/auth/update-profile", reg.AccessToken, map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "No valid fields to update", body(t, rr)["error"])

		rr = env.do(http.MethodPut, "/api/auth/update-profile", reg.AccessToken, map[string]interface{}{"name": "Test User"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "No changes made", body(t, rr)["error"])

		rr = env.do(http.MethodPut, "/api/auth/update-profile", reg.AccessToken, map[string]interface{}{
			"name":     "Ada Lovelace",
			"settings": map[string]interface{}{"sync_interval": 10},
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		user := body(t, rr)["user"].(map[string]interface{})
		assert.Equal(t, "Ada Lovelace", user["name"])
		assert.Equal(t, float64(10), user["settings"].(map[string]interface{})["sync_interval"])
	})

	t.Run("logout", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/api/auth/logout", reg.AccessToken, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Logout successful", body(t, rr)["message"])
	})
}

func TestSyncEvents_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register("sync@example.com").AccessToken

	tooMany := make([]map[string]interface{}, 1001)
	for i := range tooMany {
		tooMany[i] = map[string]interface{}{"type": "TAB_ACTIVATED"}
	}

	tests := []struct {
		name  string
		body  interface{}
		error string
	}{
		{"empty body", nil, "No data provided"},
		{"json null", "null", "No data provided"},
		{"missing events", map[string]interface{}{"other": 1}, "No events provided"},
		{"events not array", map[string]interface{}{"events": "nope"}, "Events must be an array"},
		{"events null", map[string]interface{}{"events": nil}, "Events must be an array"},
		{"too many", map[string]interface{}{"events": tooMany}, "Too many events: at most 1000 per sync"},
		{"empty array", map[string]interface{}{"events": []interface{}{}}, "No valid events"},
		{"only invalid", map[string]interface{}{"events": []interface{}{"x", 1}}, "No valid events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPost, "/api/events/sync", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.error, body(t, rr)["error"])
		})
	}

	assert.Zero(t, env.counter.ingested)
	assert.Equal(t, 2, env.counter.rejected["invalid_event"])
	assert.Equal(t, 2, env.counter.rejected["no_valid_events"])
}

func TestSyncEvents_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register("sync@example.com").AccessToken

	rr := env.do(http.MethodPost, "/api/events/sync", "", map[string]interface{}{"events": []interface{}{}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPost, "/api/events/sync", token, map[string]interface{}{
		"events": []interface{}{
			map[string]interface{}{"type": "TAB_ACTIVATED", "ts": 1705312800000, "payload": map[string]interface{}{"url": "https://github.com"}},
			"garbage",
			map[string]interface{}{"payload": map[string]interface{}{"type": "WINDOW_FOCUSED", "windowId": 4}},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp SyncResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Received)
	assert.Equal(t, 2, resp.Inserted)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "Event 2 failed")

	require.Len(t, env.events.events, 2)
	assert.Equal(t, "github.com", *env.events.events[0].Domain)
	assert.Equal(t, models.EventType("WINDOW_FOCUSED"), env.events.events[1].Type)
	assert.Equal(t, fixedNow, env.events.events[1].Timestamp)
	assert.Equal(t, 2, env.counter.ingested)

	repeat := map[string]interface{}{"type": "TAB_ACTIVATED", "ts": 1705312900000, "payload": map[string]interface{}{"url": "https://go.dev", "tabId": 7}}
	rr = env.do(http.MethodPost, "/api/events/sync", token, map[string]interface{}{
		"events": []interface{}{repeat, repeat},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var again SyncResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &again))
	assert.Equal(t, 2, again.Received)
	assert.Equal(t, 1, again.Inserted)
	assert.Empty(t, again.Errors)
	assert.Equal(t, 1, env.counter.rejected["duplicate"])
}

func TestEventQueries(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register("q@example.com").AccessToken
	env.seedActivity(token)

	other := env.register("other@example.com").AccessToken
	env.seedActivity(other)

	rr := env.do(http.MethodGet, "/api/events?limit=2", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list models.EventResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 4, list.Total)
	assert.Equal(t, 2, list.Limit)
	require.Len(t, list.Events, 2)
	assert.Equal(t, "reddit.com", *list.Events[0].Domain)

	rr = env.do(http.MethodGet, "/api/events/?type=TAB_UPDATED", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), body(t, rr)["total"])

	rr = env.do(http.MethodGet, "/api/events?domain=github.com&skip=1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b := body(t, rr)
	assert.Equal(t, float64(2), b["total"])
	assert.Len(t, b["events"], 1)

	rr = env.do(http.MethodGet, "/api/events?start_date=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodGet, "/api/events?limit=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodGet, "/api/events/count", token, nil)
	assert.Equal(t, float64(4), body(t, rr)["count"])

	rr = env.do(http.MethodGet, "/api/events/recent?hours=1", token, nil)
	b = body(t, rr)
	assert.Equal(t, float64(1), b["hours"])
	assert.Equal(t, float64(0), b["count"])

	rr = env.do(http.MethodGet, "/api/events/recent", token, nil)
	assert.Equal(t, float64(4), body(t, rr)["count"])

	rr = env.do(http.MethodGet, "/api/events/domains?limit=1", token, nil)
	b = body(t, rr)
	assert.Equal(t, float64(1), b["total"])
	top := b["domains"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "github.com", top["domain"])
	assert.Equal(t, float64(2), top["count"])
	assert.NotNil(t, top["lastVisit"])

	rr = env.do(http.MethodGet, "/api/events/stats?start_date=2024-01-15", token, nil)
	b = body(t, rr)
	assert.Equal(t, float64(4), b["total"])
	byType := b["by_type"].([]interface{})
	require.Len(t, byType, 2)
	assert.Equal(t, "TAB_ACTIVATED", byType[0].(map[string]interface{})["type"])
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register("stats@example.com").AccessToken
	env.seedActivity(token)

	t.Run("time spent", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/api/analytics/time-spent", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		b := body(t, rr)
		assert.Equal(t, float64(15), b["total_minutes"])

		rows := b["time_spent"].([]interface{})
		require.Len(t, rows, 2)
		first := rows[0].(map[string]interface{})
		assert.Equal(t, "github.com", first["domain"])
		assert.Equal(t, float64(10), first["minutes"])
		assert.Equal(t, 0.17, first["hours"])
		second := rows[1].(map[string]interface{})
		assert.Equal(t, "youtube.com", second["domain"])
		assert.Equal(t, 0.08, second["hours"])
	})

	t.Run("productivity", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/api/analytics/productivity?days=7", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp ProductivityResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, ProductivityResponse{
			Score:                58.33,
			ProductiveMinutes:    10,
			SocialMinutes:        5,
			TotalMinutes:         15,
			ProductivePercentage: 66.67,
			SocialPercentage:     33.33,
		}, resp)
	})

	t.Run("productivity outside window", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/api/analytics/productivity?days=0", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(0), body(t, rr)["score"])
	})

	t.Run("patterns", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/api/analytics/patterns", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp PatternsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.MostActiveHour)
		assert.Equal(t, 10, *resp.MostActiveHour)
		require.NotNil(t, resp.MostActiveDay)
		assert.Equal(t, "Monday", *resp.MostActiveDay)
		assert.Equal(t, &DayActivity{Day: 2, Name: "Monday", Count: 4}, resp.Patterns.PeakDay)
		assert.Len(t, resp.HourlyDistribution, 24)
		assert.Equal(t, 4, resp.HourlyDistribution[10])
		assert.Len(t, resp.DailyDistribution, 7)
	})

	t.Run("patterns without events", func(t *testing.T) {
		fresh := env.register("empty@example.com").AccessToken
		rr := env.do(http.MethodGet, "/api/analytics/patterns", fresh, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		b := body(t, rr)
		assert.Nil(t, b["most_active_hour"])
		assert.Nil(t, b["most_active_day"])
	})

	t.Run("dashboard", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/api/analytics/dashboard", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		b := body(t, rr)
		assert.Equal(t, float64(4), b["total_events"])
		assert.Equal(t, float64(7), b["period"].(map[string]interface{})["days"])
		assert.Len(t, b["top_domains"], 3)
		assert.Len(t, b["daily_events"], 1)
		assert.Len(t, b["hourly_activity"], 1)
	})

	t.Run("bad days", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/api/analytics/time-spent?days=week", token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAI_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register("ai@example.com").AccessToken

	rr := env.do(http.MethodGet, "/api/ai/daily-summary", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "No activity recorded for this day.", body(t, rr)["summary"])

	env.seedActivity(token)

	rr = env.do(http.MethodGet, "/api/ai/daily-summary?date=2024-01-15", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b := body(t, rr)
	assert.True(t, strings.HasPrefix(b["summary"].(string), "AI insights not configured."))
	assert.Equal(t, float64(4), b["event_count"])
	assert.Empty(t, env.insights.insights)

	midnight := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	rr = env.do(http.MethodPost, "/api/events/sync", token, map[string]interface{}{
		"events": []interface{}{map[string]interface{}{"type": "TAB_ACTIVATED", "ts": midnight.UnixMilli()}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(http.MethodGet, "/api/ai/daily-summary?date=2024-01-15", token, nil)
	assert.Equal(t, float64(4), body(t, rr)["event_count"])
	rr = env.do(http.MethodGet, "/api/ai/daily-summary?date=2024-01-16", token, nil)
	assert.Equal(t, float64(1), body(t, rr)["event_count"])

	rr = env.do(http.MethodGet, "/api/ai/daily-summary?date=15-01-2024", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodPost, "/api/ai/categorize", token, map[string]string{"domain": "github.com"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "work", body(t, rr)["category"])

	rr = env.do(http.MethodPost, "/api/ai/categorize", token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Domain is required", body(t, rr)["error"])

	rr = env.do(http.MethodGet, "/api/ai/weekly-report", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	report := body(t, rr)["report"].(map[string]interface{})
	assert.Equal(t, insights.NotConfiguredInsights, report["summary"])

	rr = env.do(http.MethodGet, "/api/ai/usage", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b = body(t, rr)
	assert.Equal(t, float64(0), b["stats"].(map[string]interface{})["total_calls"])
	assert.Empty(t, b["recent_calls"])
	assert.Equal(t, float64(30), b["period"].(map[string]interface{})["days"])
}

func TestAI_WithGenerator(t *testing.T) {
	gen := &insights.StaticGenerator{Responses: map[string]string{
		models.OperationDailySummary: "A focused morning on GitHub.",
		models.OperationProductivity: "Keep it up.",
		models.OperationPatterns:     "You peak mid-morning.",
		models.OperationCategorize:   "learning",
		models.OperationWeeklyReport: `{"summary":"Solid week","highlights":["coding"],"recommendations":["less reddit"]}`,
	}}
	env := newTestEnv(t, gen)
	token := env.register("ai@example.com").AccessToken
	env.seedActivity(token)

	rr := env.do(http.MethodGet, "/api/ai/daily-summary", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b := body(t, rr)
	assert.Equal(t, "A focused morning on GitHub.", b["summary"])
	assert.Equal(t, "2024-01-15", b["date"])

	rr = env.do(http.MethodGet, "/api/ai/productivity-insights", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b = body(t, rr)
	assert.Equal(t, "Keep it up.", b["insights"])
	assert.Equal(t, 58.33, b["productivity_score"])
	assert.Equal(t, float64(15), b["time_spent"].(map[string]interface{})["total_minutes"])

	rr = env.do(http.MethodPost, "/api/ai/categorize", token, map[string]string{"domain": "coursera.org", "title": "Course"})
	assert.Equal(t, "learning", body(t, rr)["category"])

	rr = env.do(http.MethodGet, "/api/ai/patterns", token, nil)
	b = body(t, rr)
	assert.Equal(t, "You peak mid-morning.", b["analysis"])
	assert.Equal(t, float64(10), b["most_active_hour"])

	rr = env.do(http.MethodGet, "/api/ai/weekly-report", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b = body(t, rr)
	report := b["report"].(map[string]interface{})
	assert.Equal(t, "Solid week", report["summary"])
	data := b["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["total_events"])
	assert.Equal(t, "10:00", data["peak_hour"])
	assert.Equal(t, "Monday", data["peak_day"])

	var weeklyPrompt string
	for _, p := range gen.Prompts() {
		if p.Operation == models.OperationWeeklyReport {
			weeklyPrompt = p.User
		}
	}
	assert.Contains(t, weeklyPrompt, "Top Domains: github.com (2)")

	rr = env.do(http.MethodGet, "/api/ai/insights/history", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b = body(t, rr)
	assert.Equal(t, float64(2), b["count"])
	latest := b["insights"].([]interface{})[0].(map[string]interface{})
	item := latest["insights"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "weekly_report", item["type"])
	assert.Equal(t, 0.9, item["confidence"])
}

func TestAI_Usage(t *testing.T) {
	env := newTestEnv(t, nil)
	reg := env.register("usage@example.com")
	token := reg.AccessToken
	userID := reg.User.ID
	other := "someone-else"

	intPtr := func(v int) *int { return &v }
	cost := 0.002
	env.usage.logs = []models.InferenceLog{
		{UserID: &userID, Provider: "openai", Operation: models.OperationDailySummary, TokensUsed: 50,
			CostUSD: &cost, LatencyMs: intPtr(100), Status: models.InferenceStatusSuccess, CreatedAt: fixedNow.Add(-2 * time.Hour)},
		{UserID: &userID, Provider: "openai", Operation: models.OperationWeeklyReport,
			LatencyMs: intPtr(300), Status: models.InferenceStatusError, CreatedAt: fixedNow.Add(-time.Hour)},
		{UserID: &userID, Provider: "openai", Operation: models.OperationPatterns, TokensUsed: 70,
			LatencyMs: intPtr(50), Status: models.InferenceStatusSuccess, CreatedAt: fixedNow.AddDate(0, 0, -40)},
		{UserID: &other, Provider: "openai", Operation: models.OperationDailySummary, TokensUsed: 999,
			Status: models.InferenceStatusSuccess, CreatedAt: fixedNow.Add(-time.Hour)},
	}

	rr := env.do(http.MethodGet, "/api/ai/usage", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b := body(t, rr)
	stats := b["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total_calls"])
	assert.Equal(t, float64(1), stats["successful_calls"])
	assert.Equal(t, float64(1), stats["failed_calls"])
	assert.Equal(t, float64(50), stats["total_tokens"])
	assert.Equal(t, 0.002, stats["total_cost_usd"])
	assert.Equal(t, float64(200), stats["avg_latency_ms"])
	recent := b["recent_calls"].([]interface{})
	require.Len(t, recent, 2)
	assert.Equal(t, models.OperationWeeklyReport, recent[0].(map[string]interface{})["operation"])

	rr = env.do(http.MethodGet, "/api/ai/usage?days=60&limit=1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b = body(t, rr)
	assert.Equal(t, float64(3), b["stats"].(map[string]interface{})["total_calls"])
	assert.Len(t, b["recent_calls"], 1)
	assert.Equal(t, float64(60), b["period"].(map[string]interface{})["days"])

	rr = env.do(http.MethodGet, "/api/ai/usage?days=month", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouting(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(http.MethodGet, "/api/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "Not found", body(t, rr)["error"])

	rr = env.do(http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodGet, "/api/info", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	b := body(t, rr)
	assert.Equal(t, "tracker", b["name"])
	assert.Equal(t, false, b["ai_configured"])

	rr = env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthFailure(t *testing.T) {
	mux := http.NewServeMux()
	SetupRoutes(mux, Dependencies{
		Logger: logging.Discard(),
		Health: func(context.Context) error { return errors.New("connection refused") },
	})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"a@example.com", "first.last+tag@sub.example.org"} {
		assert.NoError(t, ValidateEmail(ok), ok)
	}
	for _, bad := range []string{"", "plain", "Ada <ada@example.com>", "a@", "@example.com"} {
		assert.Error(t, ValidateEmail(bad), bad)
	}
}
