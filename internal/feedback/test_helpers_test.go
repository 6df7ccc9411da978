package feedback

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/llm"
	"resume-feedback/internal/shared/telemetry"
)

const sampleResponse = `Here is my review of your resume:
{
  "feedback": {
    "big_tech_readiness_score": 6,
    "resume_format_score": 7,
    "strengths": ["Shipped *payment APIs in Go*"],
    "weaknesses": ["Impact is not quantified"],
    "tips": ["Practice graph problems", "Quantify your results"],
    "motivation": "You are closer than you think."
  }
}
Good luck!`

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, kind extract.Kind, data []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubLLM struct {
	mu       sync.Mutex
	response string
	err      error
	requests []llm.Request
}

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.response, s.err
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type failingRepo struct{}

func (failingRepo) Create(ctx context.Context, rec Record) error {
	return errors.New("connection refused")
}

func silenceLogs(t *testing.T) {
	t.Helper()
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
}
