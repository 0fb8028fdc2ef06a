package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Insight is a batch of AI-generated observations stored for a user and day.
type Insight struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Date        time.Time    `json:"date"`
	Items       InsightItems `json:"insights"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// InsightType classifies a single insight item.
type InsightType string

const (
	InsightSummary        InsightType = "summary"
	InsightWeeklyReport   InsightType = "weekly_report"
	InsightProductivity   InsightType = "productivity"
	InsightPattern        InsightType = "pattern"
	InsightRecommendation InsightType = "recommendation"
	InsightAlert          InsightType = "alert"
)

// DefaultInsightConfidence is attached to generated items unless the caller
// has a better estimate.
const DefaultInsightConfidence = 0.8

// InsightItem is one generated observation. Content is free-form JSON: plain
// text for summaries, a structured report for weekly reports.
type InsightItem struct {
	Type       InsightType `json:"type"`
	Content    any         `json:"content"`
	Confidence float64     `json:"confidence"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewInsightItem builds an item stamped with the current time.
func NewInsightItem(t InsightType, content any) InsightItem {
	return InsightItem{
		Type:       t,
		Content:    content,
		Confidence: DefaultInsightConfidence,
		Timestamp:  time.Now().UTC(),
	}
}

// InsightItems is stored as a JSONB array.
type InsightItems []InsightItem

func (items InsightItems) Value() (driver.Value, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

func (items *InsightItems) Scan(value interface{}) error {
	if value == nil {
		*items = InsightItems{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, items)
}
