package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-feedback/internal/llm"
	"resume-feedback/internal/shared/telemetry"
)

// Client implements llm.Client on the Gemini API.
type Client struct {
	client  *genai.Client
	timeout time.Duration
}

// Options configures the Gemini client.
type Options struct {
	APIKey string
	// BaseURL overrides the API endpoint; empty uses the SDK default.
	BaseURL string
	// Timeout bounds each call. Zero leaves calls bounded only by ctx.
	Timeout time.Duration
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, timeout: opts.Timeout}, nil
}

// Complete generates one response for the system+user pair.
func (c *Client) Complete(ctx context.Context, in llm.Request) (string, error) {
	if strings.TrimSpace(in.Model) == "" {
		return "", fmt.Errorf("LLM_MODEL is required for Gemini")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Models.GenerateContent(ctx, in.Model, genai.Text(in.User), generateConfig(in))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini response empty")
	}
	if resp.UsageMetadata != nil {
		telemetry.Info("llm.usage", map[string]any{
			"provider":          "gemini",
			"model":             in.Model,
			"prompt_tokens":     resp.UsageMetadata.PromptTokenCount,
			"completion_tokens": resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens":      resp.UsageMetadata.TotalTokenCount,
		})
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return text, nil
}

func generateConfig(in llm.Request) *genai.GenerateContentConfig {
	temp := in.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if strings.TrimSpace(in.System) != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: in.System}},
		}
	}
	if in.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

var _ llm.Client = (*Client)(nil)
