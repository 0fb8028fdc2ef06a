package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator generates text with the Anthropic messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int
	calls     *InferenceLogger
}

// NewAnthropicGenerator creates a generator for the given model.
func NewAnthropicGenerator(apiKey, model string, maxTokens int, calls *InferenceLogger) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
		calls:     calls,
	}
}

// Generate sends the prompt and returns the first text block of the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, p Prompt) (Completion, error) {
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   int64(maxTokens(p, g.maxTokens)),
		Temperature: anthropic.Float(samplingTemperature),
		System: []anthropic.TextBlockParam{
			{Text: p.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		},
	}

	start := time.Now()
	resp, err := g.client.Messages.New(ctx, req)
	latency := time.Since(start)

	out := Completion{Provider: ProviderAnthropic, Model: g.model}
	if err == nil {
		out.InputTokens = int(resp.Usage.InputTokens)
		out.OutputTokens = int(resp.Usage.OutputTokens)
	}
	g.calls.LogCall(CallParams{
		UserID:       p.UserID,
		Provider:     ProviderAnthropic,
		Model:        g.model,
		Operation:    p.Operation,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		Latency:      latency,
		Err:          err,
	})

	if err != nil {
		return out, fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			out.Text = strings.TrimSpace(block.Text)
			break
		}
	}
	if out.Text == "" {
		return out, ErrEmptyCompletion
	}
	return out, nil
}
