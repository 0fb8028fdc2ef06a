package insights

import (
	"context"
	"sync"

	"github.com/Nikhil-Doal/tracker/internal/models"
)

// StaticGenerator answers every prompt with a fixed response. It backs the
// "static" provider for local development and stands in for a real model in
// tests.
type StaticGenerator struct {
	// Responses overrides the reply per operation.
	Responses map[string]string
	// Err, when set, is returned from every call.
	Err error

	mu      sync.Mutex
	prompts []Prompt
}

// Generate records the prompt and returns the canned reply.
func (g *StaticGenerator) Generate(_ context.Context, p Prompt) (Completion, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, p)
	g.mu.Unlock()

	out := Completion{Provider: ProviderStatic, Model: ProviderStatic}
	if g.Err != nil {
		return out, g.Err
	}
	if text, ok := g.Responses[p.Operation]; ok {
		out.Text = text
	} else {
		out.Text = staticResponse(p.Operation)
	}
	return out, nil
}

// Prompts returns every prompt received so far.
func (g *StaticGenerator) Prompts() []Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Prompt(nil), g.prompts...)
}

func staticResponse(operation string) string {
	switch operation {
	case models.OperationCategorize:
		return "other"
	case models.OperationWeeklyReport:
		return `{"summary":"Static weekly report.","highlights":[],"recommendations":[]}`
	default:
		return "Static insight generated without a language model."
	}
}
