package feedback

import (
	"context"
	"fmt"

	"resume-feedback/internal/llm"
)

// Generator asks the language model for feedback on extracted resume text.
type Generator struct {
	LLM         llm.Client
	Model       string
	Temperature float32
	JSONMode    bool
}

// Generate makes exactly one completion call. Provider errors are returned wrapped, never retried.
func (g *Generator) Generate(ctx context.Context, resumeText string) (string, error) {
	if g == nil || g.LLM == nil {
		return "", llm.ErrNotImplemented
	}
	raw, err := g.LLM.Complete(ctx, llm.Request{
		Model:       g.Model,
		System:      SystemPrompt,
		User:        BuildPrompt(resumeText),
		Temperature: g.Temperature,
		JSONMode:    g.JSONMode,
	})
	if err != nil {
		return "", fmt.Errorf("generate feedback: %w", err)
	}
	return raw, nil
}
