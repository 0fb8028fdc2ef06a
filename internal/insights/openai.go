package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const samplingTemperature = 0.7

// OpenAIGenerator generates text with the OpenAI chat completions API.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	calls     *InferenceLogger
}

// NewOpenAIGenerator creates a generator for the given model.
func NewOpenAIGenerator(apiKey, model string, maxTokens int, calls *InferenceLogger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
		calls:     calls,
	}
}

// Generate sends the prompt as a system and a user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   maxTokens(p, g.maxTokens),
		Temperature: samplingTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	latency := time.Since(start)

	out := Completion{Provider: ProviderOpenAI, Model: g.model}
	if err == nil {
		out.InputTokens = resp.Usage.PromptTokens
		out.OutputTokens = resp.Usage.CompletionTokens
	}
	g.calls.LogCall(CallParams{
		UserID:       p.UserID,
		Provider:     ProviderOpenAI,
		Model:        g.model,
		Operation:    p.Operation,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		Latency:      latency,
		Err:          err,
	})

	if err != nil {
		return out, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return out, ErrEmptyCompletion
	}

	out.Text = strings.TrimSpace(resp.Choices[0].Message.Content)
	if out.Text == "" {
		return out, ErrEmptyCompletion
	}
	return out, nil
}
