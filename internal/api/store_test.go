package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/database"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*models.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return database.ErrEmailTaken
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memoryUsers) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Settings != nil {
		u.Settings = *update.Settings
	}
	cp := *u
	return &cp, nil
}

type memoryEvents struct {
	mu     sync.Mutex
	events []models.Event
}

func (m *memoryEvents) InsertBatch(_ context.Context, events []models.Event) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return len(events), nil
}

func matches(q models.EventQuery, e models.Event) bool {
	if e.UserID != q.UserID {
		return false
	}
	if q.Since != nil && e.Timestamp.Before(*q.Since) {
		return false
	}
	if q.Until != nil && e.Timestamp.After(*q.Until) {
		return false
	}
	if q.Before != nil && !e.Timestamp.Before(*q.Before) {
		return false
	}
	if len(q.Types) > 0 {
		found := false
		for _, t := range q.Types {
			if string(e.Type) == t {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if q.Domain != "" && (e.Domain == nil || *e.Domain != q.Domain) {
		return false
	}
	if q.DomainNotNull && e.Domain == nil {
		return false
	}
	return true
}

func (m *memoryEvents) filter(q models.EventQuery) []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Event
	for _, e := range m.events {
		if matches(q, e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (m *memoryEvents) List(_ context.Context, q models.EventQuery) ([]models.Event, error) {
	q.ApplyDefaults()
	all := m.filter(q)
	if !q.Ascending {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	out := []models.Event{}
	for i := q.Offset; i < len(all) && len(out) < q.Limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memoryEvents) Count(_ context.Context, q models.EventQuery) (int, error) {
	return len(m.filter(q)), nil
}

func (m *memoryEvents) Records(_ context.Context, q models.EventQuery) ([]analytics.EventRecord, error) {
	return models.Records(m.filter(q)), nil
}

func (m *memoryEvents) TopDomains(_ context.Context, userID string, since *time.Time, limit int) ([]models.DomainCount, error) {
	counts := map[string]*models.DomainCount{}
	for _, e := range m.filter(models.EventQuery{UserID: userID, Since: since, DomainNotNull: true}) {
		d, ok := counts[*e.Domain]
		if !ok {
			d = &models.DomainCount{Domain: *e.Domain}
			counts[*e.Domain] = d
		}
		d.Count++
		ts := e.Timestamp
		d.LastVisit = &ts
	}
	out := []models.DomainCount{}
	for _, d := range counts {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryEvents) CountByType(_ context.Context, q models.EventQuery) ([]models.TypeCount, error) {
	counts := map[string]int{}
	for _, e := range m.filter(q) {
		counts[string(e.Type)]++
	}
	out := []models.TypeCount{}
	for t, n := range counts {
		out = append(out, models.TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (m *memoryEvents) DailyCounts(_ context.Context, userID string, since time.Time) ([]models.DailyCount, error) {
	out := []models.DailyCount{}
	for _, e := range m.filter(models.EventQuery{UserID: userID, Since: &since}) {
		day := e.Timestamp.UTC().Format(time.DateOnly)
		if n := len(out); n > 0 && out[n-1].Date == day {
			out[n-1].Count++
			continue
		}
		out = append(out, models.DailyCount{Date: day, Count: 1})
	}
	return out, nil
}

func (m *memoryEvents) HourlyCounts(_ context.Context, userID string, since time.Time) ([]models.HourlyCount, error) {
	var hours [24]int
	for _, e := range m.filter(models.EventQuery{UserID: userID, Since: &since}) {
		hours[e.Timestamp.UTC().Hour()]++
	}
	out := []models.HourlyCount{}
	for h, n := range hours {
		if n > 0 {
			out = append(out, models.HourlyCount{Hour: h, Count: n})
		}
	}
	return out, nil
}

type memoryInsights struct {
	mu       sync.Mutex
	insights []models.Insight
}

func (m *memoryInsights) Create(_ context.Context, insight *models.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	insight.ID = uuid.NewString()
	insight.GeneratedAt = time.Now().UTC()
	m.insights = append(m.insights, *insight)
	return nil
}

func (m *memoryInsights) ListByUser(_ context.Context, userID string, limit int) ([]models.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Insight{}
	for i := len(m.insights) - 1; i >= 0 && len(out) < limit; i-- {
		if m.insights[i].UserID == userID {
			out = append(out, m.insights[i])
		}
	}
	return out, nil
}

type memoryInferenceLogs struct {
	logs []models.InferenceLog
}

func (m *memoryInferenceLogs) filter(userID string, start, end *time.Time) []models.InferenceLog {
	out := []models.InferenceLog{}
	for _, l := range m.logs {
		if userID != "" && (l.UserID == nil || *l.UserID != userID) {
			continue
		}
		if start != nil && l.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && l.CreatedAt.After(*end) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (m *memoryInferenceLogs) List(_ context.Context, q models.InferenceLogQuery) ([]models.InferenceLog, error) {
	out := m.filter(q.UserID, q.StartDate, q.EndDate)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memoryInferenceLogs) GetStats(_ context.Context, userID string, start, end *time.Time) (*models.InferenceLogStats, error) {
	stats := &models.InferenceLogStats{}
	var latency int
	for _, l := range m.filter(userID, start, end) {
		stats.TotalCalls++
		stats.TotalTokens += int64(l.TokensUsed)
		if l.CostUSD != nil {
			stats.TotalCostUSD += *l.CostUSD
		}
		if l.LatencyMs != nil {
			latency += *l.LatencyMs
		}
		switch l.Status {
		case models.InferenceStatusSuccess:
			stats.SuccessfulCalls++
		case models.InferenceStatusError:
			stats.FailedCalls++
		}
	}
	if stats.TotalCalls > 0 {
		stats.AvgLatencyMs = float64(latency) / float64(stats.TotalCalls)
	}
	return stats, nil
}

type syncCounter struct {
	mu       sync.Mutex
	ingested int
	rejected map[string]int
}

func (c *syncCounter) EventsIngested(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingested += n
}

func (c *syncCounter) SyncRejected(reason string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rejected == nil {
		c.rejected = map[string]int{}
	}
	c.rejected[reason] += n
}
