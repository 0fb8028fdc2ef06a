// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/insights"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

const digestConfidence = 0.85

// EventSource lists who was active on a day and what they did.
type EventSource interface {
	ActiveUsers(ctx context.Context, start, end time.Time) ([]string, error)
	Records(ctx context.Context, q models.EventQuery) ([]analytics.EventRecord, error)
}

// InsightSink stores digests and tells which ones already exist.
type InsightSink interface {
	Create(ctx context.Context, insight *models.Insight) error
	Exists(ctx context.Context, userID string, date time.Time, t models.InsightType) (bool, error)
}

// Summarizer produces the text of a daily digest.
type Summarizer interface {
	SummarizeDay(ctx context.Context, userID string, events []analytics.EventRecord) (string, error)
}

// DigestScheduler writes a daily summary insight for every user active on
// the previous UTC day who does not have one yet.
type DigestScheduler struct {
	events        EventSource
	insights      InsightSink
	summarizer    Summarizer
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
	now           func() time.Time
}

// NewDigestScheduler creates a new digest scheduler
func NewDigestScheduler(
	events EventSource,
	insightSink InsightSink,
	summarizer Summarizer,
	logger *slog.Logger,
	checkInterval time.Duration,
) *DigestScheduler {
	if checkInterval <= 0 {
		checkInterval = time.Hour
	}
	return &DigestScheduler{
		events:        events,
		insights:      insightSink,
		summarizer:    summarizer,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: checkInterval,
		now:           time.Now,
	}
}

// Start begins the scheduler loop. It blocks until Stop is called or ctx is
// done.
func (s *DigestScheduler) Start(ctx context.Context) {
	s.logger.Info("starting digest scheduler", "check_interval", s.checkInterval)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Run once immediately on start
	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("digest scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("digest scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler
func (s *DigestScheduler) Stop() {
	close(s.stopChan)
}

// RunOnce generates the missing digests for yesterday and returns how many
// were written.
func (s *DigestScheduler) RunOnce(ctx context.Context) int {
	day := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -1)
	end := day.Add(24 * time.Hour)

	users, err := s.events.ActiveUsers(ctx, day, end)
	if err != nil {
		s.logger.Error("failed to list active users", "error", err)
		return 0
	}
	if len(users) == 0 {
		s.logger.Debug("no activity to digest", "date", day.Format(time.DateOnly))
		return 0
	}

	written := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		ok, err := s.digestUser(ctx, userID, day, end)
		if errors.Is(err, insights.ErrNotConfigured) {
			s.logger.Warn("digest skipped, AI provider not configured")
			return written
		}
		if err != nil {
			s.logger.Error("failed to write digest",
				"user_id", userID,
				"date", day.Format(time.DateOnly),
				"error", err)
			continue
		}
		if ok {
			written++
		}
	}

	s.logger.Info("digest run complete",
		"date", day.Format(time.DateOnly),
		"active_users", len(users),
		"written", written)
	return written
}

func (s *DigestScheduler) digestUser(ctx context.Context, userID string, day, end time.Time) (bool, error) {
	exists, err := s.insights.Exists(ctx, userID, day, models.InsightSummary)
	if err != nil || exists {
		return false, err
	}

	records, err := s.events.Records(ctx, models.EventQuery{UserID: userID, Since: &day, Before: &end})
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}

	text, err := s.summarizer.SummarizeDay(ctx, userID, records)
	if err != nil {
		return false, err
	}

	item := models.NewInsightItem(models.InsightSummary, text)
	item.Confidence = digestConfidence
	if err := s.insights.Create(ctx, &models.Insight{
		UserID: userID,
		Date:   day,
		Items:  models.InsightItems{item},
	}); err != nil {
		return false, err
	}
	return true, nil
}
