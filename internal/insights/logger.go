package insights

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/models"
)

// LogStore persists inference log rows.
type LogStore interface {
	Create(ctx context.Context, log models.InferenceLog) error
}

// InferenceLogger records AI calls to the inference log. A nil logger
// discards calls.
type InferenceLogger struct {
	store  LogStore
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewInferenceLogger creates a logger writing to store.
func NewInferenceLogger(store LogStore, logger *slog.Logger) *InferenceLogger {
	return &InferenceLogger{store: store, logger: logger}
}

// CallParams describes one provider call.
type CallParams struct {
	UserID       string
	Provider     string
	Model        string
	Operation    string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
	Err          error
	Metadata     map[string]interface{}
}

// LogCall writes the call in the background so the request path never waits
// on the log table.
func (l *InferenceLogger) LogCall(params CallParams) {
	if l == nil || l.store == nil {
		return
	}

	entry := buildLog(params)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.store.Create(context.Background(), entry); err != nil {
			l.logger.Error("failed to log inference call",
				"operation", entry.Operation,
				"provider", entry.Provider,
				"error", err)
		}
	}()
}

// Wait blocks until pending writes finish.
func (l *InferenceLogger) Wait() {
	if l == nil {
		return
	}
	l.wg.Wait()
}

func buildLog(params CallParams) models.InferenceLog {
	input, output := params.InputTokens, params.OutputTokens
	latencyMs := int(params.Latency.Milliseconds())
	cost := estimateCost(params.Provider, params.Model, input, output)

	entry := models.InferenceLog{
		Provider:     params.Provider,
		Model:        params.Model,
		Operation:    params.Operation,
		TokensUsed:   input + output,
		InputTokens:  &input,
		OutputTokens: &output,
		CostUSD:      &cost,
		LatencyMs:    &latencyMs,
		Status:       models.InferenceStatusSuccess,
	}
	if params.UserID != "" {
		userID := params.UserID
		entry.UserID = &userID
	}
	if params.Err != nil {
		entry.Status = models.InferenceStatusError
		msg := params.Err.Error()
		entry.ErrorMessage = &msg
	}
	if params.Metadata != nil {
		if raw, err := json.Marshal(params.Metadata); err == nil {
			entry.Metadata = string(raw)
		}
	}
	return entry
}

// price is USD per million tokens.
type price struct {
	input, output float64
}

// Rough list prices; unknown models fall back to the provider default.
var modelPrices = map[string]price{
	"gpt-4o":                     {2.50, 10.00},
	"gpt-4o-mini":                {0.15, 0.60},
	"gpt-4-turbo":                {10.00, 30.00},
	"gpt-3.5-turbo":              {0.50, 1.50},
	"claude-sonnet-4-20250514":   {3.00, 15.00},
	"claude-3-5-sonnet-20240620": {3.00, 15.00},
	"claude-3-opus-20240229":     {15.00, 75.00},
	"claude-3-haiku-20240307":    {0.25, 1.25},
}

var providerPrices = map[string]price{
	ProviderOpenAI:    {5.00, 15.00},
	ProviderAnthropic: {3.00, 15.00},
}

func estimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	p, ok := modelPrices[model]
	if !ok {
		p = providerPrices[provider]
	}
	return float64(inputTokens)/1_000_000*p.input + float64(outputTokens)/1_000_000*p.output
}
