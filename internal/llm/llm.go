package llm

import (
	"context"
	"errors"
)

// Client abstracts LLM providers behind a single-turn completion call.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one system+user exchange.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float32
	// JSONMode asks the provider to constrain output to a JSON object, when supported.
	JSONMode bool
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotImplemented
}
