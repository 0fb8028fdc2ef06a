package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

// EventRepository stores and aggregates telemetry events.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// InsertBatch stores events with a single COPY inside a transaction and
// returns the number of rows written.
func (r *EventRepository) InsertBatch(ctx context.Context, events []models.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("events",
		"id", "user_id", "type", "timestamp", "domain", "tab_id", "window_id",
		"url", "title", "payload", "created_at",
	))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, e := range events {
		payload := "{}"
		if len(e.Payload) > 0 {
			payload = string(e.Payload)
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		if _, err := stmt.ExecContext(ctx,
			e.ID, e.UserID, string(e.Type), e.Timestamp, e.Domain, e.TabID, e.WindowID,
			e.URL, e.Title, payload, createdAt,
		); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("failed to copy event %s: %w", e.ID, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("failed to close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit events: %w", err)
	}
	return len(events), nil
}

// List returns events matching q, newest first unless q.Ascending.
func (r *EventRepository) List(ctx context.Context, q models.EventQuery) ([]models.Event, error) {
	q.ApplyDefaults()

	where, args := buildEventFilter(q)
	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, type, timestamp, domain, tab_id, window_id, url, title
		FROM events
		WHERE %s
		ORDER BY timestamp %s, created_at %s
		LIMIT $%d OFFSET $%d
	`, where, order, order, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		var eventType string
		if err := rows.Scan(&e.ID, &e.UserID, &eventType, &e.Timestamp, &e.Domain,
			&e.TabID, &e.WindowID, &e.URL, &e.Title); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Type = models.EventType(eventType)
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}

	return events, rows.Err()
}

// Count returns the number of events matching q, ignoring pagination.
func (r *EventRepository) Count(ctx context.Context, q models.EventQuery) (int, error) {
	where, args := buildEventFilter(q)

	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Records returns the analytics view of every event matching q in ascending
// timestamp order. Pagination fields are ignored.
func (r *EventRepository) Records(ctx context.Context, q models.EventQuery) ([]analytics.EventRecord, error) {
	where, args := buildEventFilter(q)
	query := `
		SELECT domain, timestamp, type
		FROM events
		WHERE ` + where + `
		ORDER BY timestamp ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event records: %w", err)
	}
	defer rows.Close()

	var records []analytics.EventRecord
	for rows.Next() {
		var rec analytics.EventRecord
		var domain sql.NullString
		if err := rows.Scan(&domain, &rec.Timestamp, &rec.Type); err != nil {
			return nil, fmt.Errorf("failed to scan event record: %w", err)
		}
		if domain.Valid {
			d := domain.String
			rec.Domain = &d
		}
		rec.Timestamp = rec.Timestamp.UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// TopDomains returns the most frequently recorded domains since the given
// time (all time when nil).
func (r *EventRepository) TopDomains(ctx context.Context, userID string, since *time.Time, limit int) ([]models.DomainCount, error) {
	q := models.EventQuery{UserID: userID, Since: since, DomainNotNull: true}
	where, args := buildEventFilter(q)
	query := fmt.Sprintf(`
		SELECT domain, COUNT(*) AS count, MAX(timestamp) AS last_visit
		FROM events
		WHERE %s
		GROUP BY domain
		ORDER BY count DESC, domain ASC
		LIMIT $%d
	`, where, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top domains: %w", err)
	}
	defer rows.Close()

	domains := []models.DomainCount{}
	for rows.Next() {
		var d models.DomainCount
		var lastVisit sql.NullTime
		if err := rows.Scan(&d.Domain, &d.Count, &lastVisit); err != nil {
			return nil, fmt.Errorf("failed to scan domain count: %w", err)
		}
		if lastVisit.Valid {
			t := lastVisit.Time.UTC()
			d.LastVisit = &t
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

// CountByType groups matching events by type, most frequent first.
func (r *EventRepository) CountByType(ctx context.Context, q models.EventQuery) ([]models.TypeCount, error) {
	where, args := buildEventFilter(q)
	query := `
		SELECT type, COUNT(*) AS count
		FROM events
		WHERE ` + where + `
		GROUP BY type
		ORDER BY count DESC, type ASC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query type counts: %w", err)
	}
	defer rows.Close()

	counts := []models.TypeCount{}
	for rows.Next() {
		var c models.TypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// DailyCounts returns per-day event counts (UTC days) since the given time.
func (r *EventRepository) DailyCounts(ctx context.Context, userID string, since time.Time) ([]models.DailyCount, error) {
	query := `
		SELECT TO_CHAR(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		FROM events
		WHERE user_id = $1 AND timestamp >= $2
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	counts := []models.DailyCount{}
	for rows.Next() {
		var c models.DailyCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// HourlyCounts returns event counts per UTC hour of day since the given time.
func (r *EventRepository) HourlyCounts(ctx context.Context, userID string, since time.Time) ([]models.HourlyCount, error) {
	query := `
		SELECT EXTRACT(HOUR FROM timestamp AT TIME ZONE 'UTC')::int AS hour, COUNT(*)
		FROM events
		WHERE user_id = $1 AND timestamp >= $2
		GROUP BY hour
		ORDER BY hour ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly counts: %w", err)
	}
	defer rows.Close()

	counts := []models.HourlyCount{}
	for rows.Next() {
		var c models.HourlyCount
		if err := rows.Scan(&c.Hour, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hourly count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// ActiveUsers returns the IDs of users with at least one event in [start, end).
func (r *EventRepository) ActiveUsers(ctx context.Context, start, end time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM events
		WHERE timestamp >= $1 AND timestamp < $2
		ORDER BY user_id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// buildEventFilter renders the WHERE clause for q with positional arguments.
func buildEventFilter(q models.EventQuery) (string, []interface{}) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{q.UserID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if q.Since != nil {
		add("timestamp >= $%d", *q.Since)
	}
	if q.Until != nil {
		add("timestamp <= $%d", *q.Until)
	}
	if q.Before != nil {
		add("timestamp < $%d", *q.Before)
	}
	if len(q.Types) == 1 {
		add("type = $%d", q.Types[0])
	} else if len(q.Types) > 1 {
		add("type = ANY($%d)", pq.Array(q.Types))
	}
	if q.Domain != "" {
		add("domain = $%d", q.Domain)
	}
	if q.DomainNotNull {
		conditions = append(conditions, "domain IS NOT NULL")
	}

	return strings.Join(conditions, " AND "), args
}
