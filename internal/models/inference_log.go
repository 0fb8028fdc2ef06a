package models

import "time"

// AI operations recorded in the inference log.
const (
	OperationDailySummary  = "daily_summary"
	OperationProductivity  = "productivity_insights"
	OperationCategorize    = "categorize_domain"
	OperationPatterns      = "detect_patterns"
	OperationWeeklyReport  = "weekly_report"
	InferenceStatusSuccess = "success"
	InferenceStatusError   = "error"
)

// InferenceLog records a single text generation call
type InferenceLog struct {
	ID           int       `json:"id"`
	UserID       *string   `json:"user_id"`
	Provider     string    `json:"provider"` // 'openai', 'anthropic'
	Model        string    `json:"model"`
	Operation    string    `json:"operation"`
	TokensUsed   int       `json:"tokens_used"`
	InputTokens  *int      `json:"input_tokens"`
	OutputTokens *int      `json:"output_tokens"`
	CostUSD      *float64  `json:"cost_usd"`
	LatencyMs    *int      `json:"latency_ms"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message"`
	Metadata     string    `json:"metadata"` // JSONB
	CreatedAt    time.Time `json:"created_at"`
}

// InferenceLogStats aggregates the log over a window
type InferenceLogStats struct {
	TotalCalls      int     `json:"total_calls"`
	TotalTokens     int64   `json:"total_tokens"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
	SuccessfulCalls int     `json:"successful_calls"`
	FailedCalls     int     `json:"failed_calls"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
}

// InferenceLogQuery filters the log
type InferenceLogQuery struct {
	UserID    string
	Provider  string
	Operation string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}
