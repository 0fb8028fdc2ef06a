// Package insights turns aggregated browsing activity into natural-language
// summaries using a hosted text generation model.
package insights

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Nikhil-Doal/tracker/internal/config"
)

// Provider names as they appear in configuration, metrics and the inference
// log.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderStatic    = "static"
)

// ErrEmptyCompletion is returned when a provider answers without any text.
var ErrEmptyCompletion = errors.New("no text content in response")

// Prompt is a single generation request.
type Prompt struct {
	UserID    string
	Operation string
	System    string
	User      string
	MaxTokens int // 0 uses the generator default
}

// Completion is the provider's answer. On error it still names the provider
// and model so the failure can be attributed.
type Completion struct {
	Text         string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
}

// SummaryGenerator produces text for a prompt.
type SummaryGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (Completion, error)
}

// NewGenerator builds the generator selected by cfg.Provider. It returns nil
// when no provider is configured or the selected provider has no API key;
// callers treat nil as "AI not configured".
func NewGenerator(cfg config.AIConfig, logger *slog.Logger, calls *InferenceLogger) SummaryGenerator {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("AI provider openai selected without OPENAI_API_KEY; insights disabled")
			return nil
		}
		return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.MaxTokens, calls)
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			logger.Warn("AI provider anthropic selected without ANTHROPIC_API_KEY; insights disabled")
			return nil
		}
		return NewAnthropicGenerator(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxTokens, calls)
	case ProviderStatic:
		logger.Info("using static AI responses")
		return &StaticGenerator{}
	default:
		return nil
	}
}

func maxTokens(p Prompt, fallback int) int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return fallback
}
