package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

// Messages returned in place of generated text when no provider is set up.
const (
	NotConfiguredSummary  = "AI insights not configured. Set OPENAI_API_KEY or ANTHROPIC_API_KEY to enable them."
	NotConfiguredInsights = "AI insights not configured."
	NotConfiguredPatterns = "AI pattern detection not configured."
)

const reportFallbackChars = 200

// ErrNotConfigured is returned by SummarizeDay when no provider is set up.
var ErrNotConfigured = errors.New("ai provider not configured")

// Recorder counts generation calls.
type Recorder interface {
	AIRequest(provider, operation, status string)
}

// Report is the structured weekly report.
type Report struct {
	Summary         string   `json:"summary"`
	Highlights      []string `json:"highlights"`
	Recommendations []string `json:"recommendations"`
}

// Service runs the insight operations on top of a SummaryGenerator. A nil
// generator makes every operation return its "not configured" result.
type Service struct {
	generator SummaryGenerator
	recorder  Recorder
	timeout   time.Duration
	retry     RetryPolicy
	logger    *slog.Logger
}

// NewService creates a service. recorder may be nil; timeout <= 0 disables
// the per-call deadline.
func NewService(generator SummaryGenerator, recorder Recorder, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		generator: generator,
		recorder:  recorder,
		timeout:   timeout,
		retry:     DefaultRetryPolicy(),
		logger:    logger,
	}
}

// Configured reports whether a generator is available.
func (s *Service) Configured() bool {
	return s != nil && s.generator != nil
}

func (s *Service) generate(ctx context.Context, p Prompt) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if p.System == "" {
		p.System = systemPrompt
	}

	var out Completion
	err := Retry(ctx, s.retry, func() error {
		var genErr error
		out, genErr = s.generator.Generate(ctx, p)
		return genErr
	})

	status := models.InferenceStatusSuccess
	if err != nil {
		status = models.InferenceStatusError
		s.logger.Warn("text generation failed",
			"operation", p.Operation,
			"provider", out.Provider,
			"error", err)
	}
	if s.recorder != nil {
		s.recorder.AIRequest(out.Provider, p.Operation, status)
	}
	return out.Text, err
}

// DailySummary describes one day of events.
func (s *Service) DailySummary(ctx context.Context, userID string, events []analytics.EventRecord) string {
	text, err := s.SummarizeDay(ctx, userID, events)
	switch {
	case errors.Is(err, ErrNotConfigured):
		return NotConfiguredSummary
	case err != nil:
		return fmt.Sprintf("Failed to generate summary: %v", err)
	}
	return text
}

// SummarizeDay is DailySummary for background callers that need the error
// instead of a display string.
func (s *Service) SummarizeDay(ctx context.Context, userID string, events []analytics.EventRecord) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	return s.generate(ctx, Prompt{
		UserID:    userID,
		Operation: models.OperationDailySummary,
		User:      dailySummaryPrompt(events),
	})
}

// ProductivityInsights comments on time spent per domain and the score.
func (s *Service) ProductivityInsights(ctx context.Context, userID string, domainTime analytics.DomainTimeMap, score float64) string {
	if !s.Configured() {
		return NotConfiguredInsights
	}
	text, err := s.generate(ctx, Prompt{
		UserID:    userID,
		Operation: models.OperationProductivity,
		User:      productivityPrompt(domainTime, score),
	})
	if err != nil {
		return fmt.Sprintf("Failed to generate insights: %v", err)
	}
	return text
}

// CategorizeDomain asks the model for a category. Without a provider, or when
// the call fails, the keyword rules decide. An answer that is not a known
// category becomes CategoryOther.
func (s *Service) CategorizeDomain(ctx context.Context, userID, domain, title string) analytics.Category {
	if !s.Configured() {
		return analytics.Categorize(domain)
	}
	text, err := s.generate(ctx, Prompt{
		UserID:    userID,
		Operation: models.OperationCategorize,
		User:      categorizePrompt(domain, title),
		MaxTokens: 10,
	})
	if err != nil {
		return analytics.Categorize(domain)
	}
	category, _ := analytics.ParseCategory(strings.TrimRight(strings.TrimSpace(text), "."))
	return category
}

// DetectPatterns explains hourly and weekday activity.
func (s *Service) DetectPatterns(ctx context.Context, userID string, patterns analytics.Patterns) string {
	if !s.Configured() {
		return NotConfiguredPatterns
	}
	text, err := s.generate(ctx, Prompt{
		UserID:    userID,
		Operation: models.OperationPatterns,
		User:      patternsPrompt(patterns),
	})
	if err != nil {
		return fmt.Sprintf("Failed to detect patterns: %v", err)
	}
	return text
}

// WeeklyReport produces a structured report for the week.
func (s *Service) WeeklyReport(ctx context.Context, userID string, data WeeklyData) Report {
	if !s.Configured() {
		return emptyReport(NotConfiguredInsights)
	}
	text, err := s.generate(ctx, Prompt{
		UserID:    userID,
		Operation: models.OperationWeeklyReport,
		User:      weeklyReportPrompt(data),
	})
	if err != nil {
		return emptyReport(fmt.Sprintf("Failed to generate report: %v", err))
	}
	return ParseReport(text)
}

// ParseReport decodes a model reply into a Report. Markdown code fences are
// ignored. A reply that is not valid JSON becomes the summary, cut to 200
// characters.
func ParseReport(text string) Report {
	body := stripCodeFence(text)

	var report Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return emptyReport(truncate(strings.TrimSpace(text), reportFallbackChars))
	}
	if report.Highlights == nil {
		report.Highlights = []string{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}
	return report
}

func emptyReport(summary string) Report {
	return Report{Summary: summary, Highlights: []string{}, Recommendations: []string{}}
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
