package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nikhil-Doal/tracker/internal/models"
)

// InsightRepository persists generated insights.
type InsightRepository struct {
	db *sql.DB
}

// NewInsightRepository creates a new repository
func NewInsightRepository(db *sql.DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// Create stores insight, assigning an ID and generation time when unset.
func (r *InsightRepository) Create(ctx context.Context, insight *models.Insight) error {
	if insight.ID == "" {
		insight.ID = uuid.NewString()
	}
	if insight.GeneratedAt.IsZero() {
		insight.GeneratedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO insights (id, user_id, date, items, generated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, insight.ID, insight.UserID, insight.Date, insight.Items, insight.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to insert insight: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent insights by date.
func (r *InsightRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Insight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, items, generated_at
		FROM insights
		WHERE user_id = $1
		ORDER BY date DESC, generated_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	insights := []models.Insight{}
	for rows.Next() {
		var in models.Insight
		if err := rows.Scan(&in.ID, &in.UserID, &in.Date, &in.Items, &in.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		in.Date = in.Date.UTC()
		in.GeneratedAt = in.GeneratedAt.UTC()
		insights = append(insights, in)
	}

	return insights, rows.Err()
}

// Exists reports whether the user already has an insight of the given type
// dated exactly date.
func (r *InsightRepository) Exists(ctx context.Context, userID string, date time.Time, t models.InsightType) (bool, error) {
	match, err := json.Marshal([]map[string]models.InsightType{{"type": t}})
	if err != nil {
		return false, err
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM insights
			WHERE user_id = $1 AND date = $2 AND items @> $3::jsonb
		)
	`, userID, date, string(match)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check insight: %w", err)
	}
	return exists, nil
}
