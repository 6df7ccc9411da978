package feedback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/shared/storage/object/local"
	"resume-feedback/internal/upload"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testDoc() upload.Document {
	data := []byte("%PDF-1.4\n...")
	return upload.Document{
		OwnerID:  "user-1",
		Name:     "resume.pdf",
		MimeType: extract.MimePDF,
		Ext:      ".pdf",
		Kind:     extract.KindPDF,
		Size:     int64(len(data)),
		Data:     data,
	}
}

func newTestService(ext *stubExtractor, model *stubLLM, repo Repo) *Service {
	return &Service{
		Extractor: ext,
		Generator: &Generator{LLM: model, Model: "gpt-4", Temperature: 0.5},
		Repo:      repo,
		Now:       func() time.Time { return fixedNow },
	}
}

func TestAnalyzePersistsFinalizedFeedback(t *testing.T) {
	silenceLogs(t)
	repo := NewMemoryRepo()
	model := &stubLLM{response: sampleResponse}
	svc := newTestService(&stubExtractor{text: "  Jane Doe\nGo engineer  "}, model, repo)

	rec, err := svc.Analyze(context.Background(), testDoc())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "user-1", rec.OwnerID)
	assert.Equal(t, "resume.pdf", rec.DocumentName)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.Empty(t, rec.DocumentKey)

	tips := rec.Feedback["feedback"].(map[string]any)["tips"].([]any)
	require.Len(t, tips, 3)
	assert.Equal(t, StaticTip, tips[2])

	require.Equal(t, 1, model.calls())
	assert.Contains(t, model.requests[0].User, `"""Jane Doe`+"\n"+`Go engineer"""`)

	stored := repo.All()
	require.Len(t, stored, 1)
	assert.Equal(t, rec, stored[0])
}

func TestAnalyzeEmptyTextSkipsModel(t *testing.T) {
	silenceLogs(t)
	repo := NewMemoryRepo()
	model := &stubLLM{response: sampleResponse}
	svc := newTestService(&stubExtractor{text: " \n\t "}, model, repo)

	_, err := svc.Analyze(context.Background(), testDoc())
	require.ErrorIs(t, err, ErrEmptyText)
	assert.ErrorIs(t, err, ErrNoJSONFound)
	assert.Zero(t, model.calls())
	assert.Empty(t, repo.All())
}

func TestAnalyzeStageFailuresPersistNothing(t *testing.T) {
	upstream := errors.New("openai http status 500: boom")
	extractErr := errors.New("open pdf: malformed")

	tests := []struct {
		name    string
		ext     *stubExtractor
		model   *stubLLM
		wantErr error
	}{
		{name: "extraction error", ext: &stubExtractor{err: extractErr}, model: &stubLLM{}, wantErr: extractErr},
		{name: "model error", ext: &stubExtractor{text: "cv"}, model: &stubLLM{err: upstream}, wantErr: upstream},
		{name: "no json", ext: &stubExtractor{text: "cv"}, model: &stubLLM{response: "Sorry, I can't."}, wantErr: ErrNoJSONFound},
		{name: "invalid json", ext: &stubExtractor{text: "cv"}, model: &stubLLM{response: "{not json}"}, wantErr: ErrInvalidJSON},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			silenceLogs(t)
			repo := NewMemoryRepo()
			svc := newTestService(tt.ext, tt.model, repo)

			_, err := svc.Analyze(context.Background(), testDoc())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.All())
			assert.LessOrEqual(t, tt.model.calls(), 1)
		})
	}
}

func TestAnalyzeArchivesUpload(t *testing.T) {
	silenceLogs(t)
	dir := t.TempDir()
	repo := NewMemoryRepo()
	svc := newTestService(&stubExtractor{text: "cv"}, &stubLLM{response: sampleResponse}, repo)
	svc.Store = local.New(dir)

	rec, err := svc.Analyze(context.Background(), testDoc())
	require.NoError(t, err)
	require.NotEmpty(t, rec.DocumentKey)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rec.DocumentKey)))
	require.NoError(t, err)
	assert.Equal(t, testDoc().Data, data)
	assert.Equal(t, rec.DocumentKey, repo.All()[0].DocumentKey)
}

func TestAnalyzeRemovesArchiveWhenPersistFails(t *testing.T) {
	silenceLogs(t)
	dir := t.TempDir()
	svc := newTestService(&stubExtractor{text: "cv"}, &stubLLM{response: sampleResponse}, failingRepo{})
	svc.Store = local.New(dir)

	_, err := svc.Analyze(context.Background(), testDoc())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	var files []string
	require.NoError(t, filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, path)
		}
		return err
	}))
	assert.Empty(t, files, "archived upload should be removed")
}

func TestAnalyzeArchivesNamesWithInnerDots(t *testing.T) {
	silenceLogs(t)
	dir := t.TempDir()
	repo := NewMemoryRepo()
	model := &stubLLM{response: sampleResponse}
	svc := newTestService(&stubExtractor{text: "cv"}, model, repo)
	svc.Store = local.New(dir)

	doc := testDoc()
	doc.Name = "Jane..Doe_CV.pdf"
	rec, err := svc.Analyze(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "Jane..Doe_CV.pdf", rec.DocumentName)
	assert.True(t, strings.HasSuffix(rec.DocumentKey, "_Jane..Doe_CV.pdf"), "key %q", rec.DocumentKey)
	assert.Equal(t, 1, model.calls())
	require.Len(t, repo.All(), 1)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rec.DocumentKey)))
	assert.NoError(t, err)
}
