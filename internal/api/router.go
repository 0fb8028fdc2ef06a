// Package api implements the tracker's JSON REST API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/auth"
	"github.com/Nikhil-Doal/tracker/internal/config"
	"github.com/Nikhil-Doal/tracker/internal/insights"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)
}

// EventStore persists and aggregates telemetry events.
type EventStore interface {
	InsertBatch(ctx context.Context, events []models.Event) (int, error)
	List(ctx context.Context, q models.EventQuery) ([]models.Event, error)
	Count(ctx context.Context, q models.EventQuery) (int, error)
	Records(ctx context.Context, q models.EventQuery) ([]analytics.EventRecord, error)
	TopDomains(ctx context.Context, userID string, since *time.Time, limit int) ([]models.DomainCount, error)
	CountByType(ctx context.Context, q models.EventQuery) ([]models.TypeCount, error)
	DailyCounts(ctx context.Context, userID string, since time.Time) ([]models.DailyCount, error)
	HourlyCounts(ctx context.Context, userID string, since time.Time) ([]models.HourlyCount, error)
}

// InsightStore persists generated insights.
type InsightStore interface {
	Create(ctx context.Context, insight *models.Insight) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Insight, error)
}

// InferenceLogStore reads the AI call log.
type InferenceLogStore interface {
	List(ctx context.Context, query models.InferenceLogQuery) ([]models.InferenceLog, error)
	GetStats(ctx context.Context, userID string, startDate, endDate *time.Time) (*models.InferenceLogStats, error)
}

// SyncRecorder counts ingestion outcomes.
type SyncRecorder interface {
	EventsIngested(n int)
	SyncRejected(reason string, n int)
}

// Dependencies are the collaborators the handlers need. Recorder,
// InferenceLogs and Health may be nil.
type Dependencies struct {
	Users         UserStore
	Events        EventStore
	Insights      InsightStore
	InferenceLogs InferenceLogStore
	AI            *insights.Service
	Auth          auth.Config
	Analytics     config.AnalyticsConfig
	Recorder      SyncRecorder
	Health        func(ctx context.Context) error
	AIProvider    string
	Version       string
	Logger        *slog.Logger
}

// Handler serves every API route.
type Handler struct {
	users         UserStore
	events        EventStore
	insightStore  InsightStore
	inferenceLogs InferenceLogStore
	ai            *insights.Service
	auth          auth.Config
	analytics     config.AnalyticsConfig
	recorder      SyncRecorder
	health        func(ctx context.Context) error
	aiProvider    string
	version       string
	logger        *slog.Logger
	now           func() time.Time
}

// NewHandler builds a Handler from deps.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		users:         deps.Users,
		events:        deps.Events,
		insightStore:  deps.Insights,
		inferenceLogs: deps.InferenceLogs,
		ai:            deps.AI,
		auth:          deps.Auth,
		analytics:     deps.Analytics,
		recorder:      deps.Recorder,
		health:        deps.Health,
		aiProvider:    deps.AIProvider,
		version:       deps.Version,
		logger:        deps.Logger,
		now:           time.Now,
	}
}

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, deps Dependencies) {
	h := NewHandler(deps)
	h.register(mux)
}

func (h *Handler) register(mux *http.ServeMux) {
	access := auth.Middleware(h.auth, auth.AccessToken)
	refresh := auth.Middleware(h.auth, auth.RefreshToken)
	protect := func(fn http.HandlerFunc) http.Handler { return access(fn) }

	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/info", h.Info)

	// Authentication
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.Handle("POST /api/auth/refresh", refresh(http.HandlerFunc(h.Refresh)))
	mux.Handle("GET /api/auth/me", protect(h.Me))
	mux.Handle("POST /api/auth/logout", protect(h.Logout))
	mux.Handle("PUT /api/auth/update-profile", protect(h.UpdateProfile))

	// Events
	mux.Handle("POST /api/events/sync", protect(h.SyncEvents))
	mux.Handle("GET /api/events", protect(h.ListEvents))
	mux.Handle("GET /api/events/{$}", protect(h.ListEvents))
	mux.Handle("GET /api/events/count", protect(h.CountEvents))
	mux.Handle("GET /api/events/recent", protect(h.RecentEvents))
	mux.Handle("GET /api/events/domains", protect(h.TopDomains))
	mux.Handle("GET /api/events/stats", protect(h.EventStats))

	// Analytics
	mux.Handle("GET /api/analytics/dashboard", protect(h.Dashboard))
	mux.Handle("GET /api/analytics/time-spent", protect(h.TimeSpent))
	mux.Handle("GET /api/analytics/productivity", protect(h.Productivity))
	mux.Handle("GET /api/analytics/patterns", protect(h.Patterns))

	// AI insights
	mux.Handle("GET /api/ai/daily-summary", protect(h.DailySummary))
	mux.Handle("GET /api/ai/productivity-insights", protect(h.ProductivityInsights))
	mux.Handle("POST /api/ai/categorize", protect(h.Categorize))
	mux.Handle("GET /api/ai/weekly-report", protect(h.WeeklyReport))
	mux.Handle("GET /api/ai/patterns", protect(h.PatternInsights))
	mux.Handle("GET /api/ai/insights/history", protect(h.InsightsHistory))
	mux.Handle("GET /api/ai/usage", protect(h.Usage))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			h.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /api/info
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":          "tracker",
		"version":       h.version,
		"ai_provider":   h.aiProvider,
		"ai_configured": h.ai.Configured(),
	})
}

func currentUser(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
