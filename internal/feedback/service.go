package feedback

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/shared/metrics"
	"resume-feedback/internal/shared/storage/object"
	"resume-feedback/internal/shared/telemetry"
	"resume-feedback/internal/upload"
)

// TextExtractor turns document bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, kind extract.Kind, data []byte) (string, error)
}

// Service runs the feedback pipeline for one validated upload.
type Service struct {
	Extractor TextExtractor
	Generator *Generator
	Repo      Repo
	// Store archives the original upload when set.
	Store object.ObjectStore
	Now   func() time.Time
}

// Analyze extracts text, asks the model for feedback, parses it and persists
// the record. Either the record is persisted and returned or nothing is kept.
func (s *Service) Analyze(ctx context.Context, doc upload.Document) (Record, error) {
	started := time.Now()
	base := map[string]any{
		"request_id":    telemetry.RequestID(ctx),
		"owner_id":      doc.OwnerID,
		"document_name": doc.Name,
		"kind":          string(doc.Kind),
	}

	text, err := s.Extractor.Extract(ctx, doc.Kind, doc.Data)
	if err != nil {
		return Record{}, s.fail("extract", base, fmt.Errorf("extract text: %w", err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Record{}, s.fail("extract", base, ErrEmptyText)
	}
	telemetry.Info("feedback.extracted", with(base, map[string]any{"chars": len(text)}))

	llmStarted := time.Now()
	raw, err := s.Generator.Generate(ctx, text)
	llmMs := metrics.SinceMs(llmStarted)
	metrics.ObserveLLMDurationMs(llmMs)
	if err != nil {
		return Record{}, s.fail("llm", base, err)
	}
	telemetry.Info("feedback.llm.complete", with(base, map[string]any{
		"duration_ms":    llmMs,
		"response_chars": len(raw),
	}))

	parsed, err := Finalize(raw)
	if err != nil {
		return Record{}, s.fail("parse", base, err)
	}
	if issues := Inspect(parsed); len(issues) > 0 {
		telemetry.Warn("feedback.schema_drift", with(base, map[string]any{"issues": issues}))
	}

	rec := Record{
		ID:           uuid.NewString(),
		OwnerID:      doc.OwnerID,
		DocumentName: doc.Name,
		Feedback:     parsed,
		CreatedAt:    s.now(),
	}

	if s.Store != nil {
		key, err := s.Store.Save(ctx, object.Object{
			OwnerID:     doc.OwnerID,
			FileName:    doc.Name,
			ContentType: doc.MimeType,
			Body:        bytes.NewReader(doc.Data),
		})
		if err != nil {
			return Record{}, s.fail("archive", base, fmt.Errorf("archive document: %w", err))
		}
		rec.DocumentKey = key
	}

	if err := s.Repo.Create(ctx, rec); err != nil {
		s.discardArchive(ctx, base, rec.DocumentKey)
		return Record{}, s.fail("store", base, fmt.Errorf("persist feedback: %w", err))
	}

	durationMs := metrics.SinceMs(started)
	metrics.IncFeedbackCompleted()
	metrics.ObserveFeedbackDurationMs(durationMs)
	telemetry.Info("feedback.persisted", with(base, map[string]any{
		"record_id":    rec.ID,
		"document_key": rec.DocumentKey,
		"duration_ms":  durationMs,
	}))
	return rec, nil
}

func (s *Service) discardArchive(ctx context.Context, base map[string]any, key string) {
	if key == "" || s.Store == nil {
		return
	}
	// The request context may already be cancelled; cleanup must still run.
	if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		telemetry.Error("feedback.archive_cleanup_failed", with(base, map[string]any{
			"document_key": key,
			"error":        err.Error(),
		}))
	}
}

func (s *Service) fail(stage string, base map[string]any, err error) error {
	metrics.IncFeedbackFailed(stage)
	telemetry.Error("feedback.failed", with(base, map[string]any{
		"stage": stage,
		"error": err.Error(),
	}))
	return err
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func with(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
