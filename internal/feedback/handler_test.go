package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/shared/server/middleware"
	"resume-feedback/internal/upload"
)

var validPDF = []byte("%PDF-1.4\n...")

type part struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, file *part) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("note", "hello"))
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

type routerOpts struct {
	ext          *stubExtractor
	model        *stubLLM
	repo         Repo
	exposeErrors bool
}

func newTestRouter(t *testing.T, opts routerOpts) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	silenceLogs(t)

	if opts.ext == nil {
		opts.ext = &stubExtractor{text: "Jane Doe\nGo engineer"}
	}
	if opts.model == nil {
		opts.model = &stubLLM{response: sampleResponse}
	}
	if opts.repo == nil {
		opts.repo = NewMemoryRepo()
	}
	svc := newTestService(opts.ext, opts.model, opts.repo)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery(), middleware.Identity())
	NewHandler(svc, upload.DefaultRules(0), opts.exposeErrors).RegisterRoutes(r.Group("/api"))
	return r
}

func post(t *testing.T, r *gin.Engine, path string, file *part, ownerID string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	body, contentType := multipartBody(t, file)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if ownerID != "" {
		req.Header.Set("X-User-Id", ownerID)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload), "body: %s", resp.Body.String())
	return resp, payload
}

func TestUploadValidationPrecedence(t *testing.T) {
	big := append(append([]byte{}, validPDF...), bytes.Repeat([]byte("x"), 2<<20)...)

	tests := []struct {
		name       string
		file       *part
		ownerID    string
		wantStatus int
		wantMsg    string
	}{
		{name: "no file no identity", file: nil, ownerID: "", wantStatus: http.StatusBadRequest, wantMsg: "No file uploaded"},
		{name: "no file with identity", file: nil, ownerID: "user-1", wantStatus: http.StatusBadRequest, wantMsg: "No file uploaded"},
		{name: "file without identity", file: &part{"cv.pdf", extract.MimePDF, validPDF}, wantStatus: http.StatusUnauthorized, wantMsg: "Missing user ID"},
		{name: "plain text with pdf extension", file: &part{"cv.pdf", "text/plain", validPDF}, ownerID: "user-1", wantStatus: http.StatusBadRequest, wantMsg: "Unsupported file type"},
		{name: "oversized valid pdf", file: &part{"cv.pdf", extract.MimePDF, big}, ownerID: "user-1", wantStatus: http.StatusBadRequest, wantMsg: "File too large"},
		{name: "oversized without identity", file: &part{"cv.pdf", extract.MimePDF, big}, wantStatus: http.StatusBadRequest, wantMsg: "1MB"},
		{name: "bad extension", file: &part{"cv.exe", extract.MimePDF, validPDF}, ownerID: "user-1", wantStatus: http.StatusBadRequest, wantMsg: "Only PDF or DOCX files are accepted"},
		{name: "spoofed content", file: &part{"cv.pdf", extract.MimePDF, []byte("MZ\x90\x00binary")}, ownerID: "user-1", wantStatus: http.StatusBadRequest, wantMsg: "Unsupported file type"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMemoryRepo()
			model := &stubLLM{response: sampleResponse}
			r := newTestRouter(t, routerOpts{repo: repo, model: model})

			resp, payload := post(t, r, "/api/upload/", tt.file, tt.ownerID)

			assert.Equal(t, tt.wantStatus, resp.Code)
			require.Len(t, payload, 1)
			assert.Contains(t, payload["error"], tt.wantMsg)
			assert.Zero(t, model.calls())
			assert.Empty(t, repo.All())
		})
	}
}

func TestUploadBodyOverTransportLimit(t *testing.T) {
	r := newTestRouter(t, routerOpts{})
	huge := bytes.Repeat([]byte("x"), maxRequestBytes+(1<<20))

	resp, payload := post(t, r, "/api/upload/", &part{"cv.pdf", extract.MimePDF, huge}, "user-1")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, payload["error"], "File too large")
}

func TestUploadEndToEnd(t *testing.T) {
	for _, path := range []string{"/api/upload/", "/api/upload"} {
		path := path
		t.Run(path, func(t *testing.T) {
			repo := NewMemoryRepo()
			r := newTestRouter(t, routerOpts{repo: repo})

			resp, payload := post(t, r, path, &part{"resume.pdf", extract.MimePDF, validPDF}, "user-1")

			require.Equal(t, http.StatusOK, resp.Code)
			require.Contains(t, payload, "feedback")
			fb := payload["feedback"].(map[string]any)
			tips := fb["tips"].([]any)
			require.Len(t, tips, 3)
			assert.Equal(t, StaticTip, tips[2])
			assert.EqualValues(t, 6, fb["big_tech_readiness_score"])

			stored := repo.All()
			require.Len(t, stored, 1)
			assert.Equal(t, "resume.pdf", stored[0].DocumentName)
			assert.Equal(t, "user-1", stored[0].OwnerID)
		})
	}
}

func TestUploadEmptyTextIsInternalError(t *testing.T) {
	tests := []struct {
		name    string
		expose  bool
		wantMsg string
	}{
		{name: "exposed", expose: true, wantMsg: "no valid JSON object found in model response: no readable text extracted from document"},
		{name: "hidden", expose: false, wantMsg: msgInternal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			model := &stubLLM{response: sampleResponse}
			repo := NewMemoryRepo()
			r := newTestRouter(t, routerOpts{ext: &stubExtractor{text: ""}, model: model, repo: repo, exposeErrors: tt.expose})

			resp, payload := post(t, r, "/api/upload/", &part{"scan.pdf", extract.MimePDF, validPDF}, "user-1")

			assert.Equal(t, http.StatusInternalServerError, resp.Code)
			assert.Equal(t, tt.wantMsg, payload["error"])
			assert.Zero(t, model.calls())
			assert.Empty(t, repo.All())
		})
	}
}

func TestUploadInternalErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    routerOpts
		expose  bool
		wantMsg string
	}{
		{name: "model error exposed", opts: routerOpts{model: &stubLLM{err: errors.New("openai http status 429: rate limited")}}, expose: true, wantMsg: "rate limited"},
		{name: "model error hidden", opts: routerOpts{model: &stubLLM{err: errors.New("openai http status 429: rate limited")}}, expose: false, wantMsg: msgInternal},
		{name: "no json exposed", opts: routerOpts{model: &stubLLM{response: "I cannot do that"}}, expose: true, wantMsg: "no valid JSON"},
		{name: "store error hidden", opts: routerOpts{repo: failingRepo{}}, expose: false, wantMsg: msgInternal},
		{name: "store error exposed", opts: routerOpts{repo: failingRepo{}}, expose: true, wantMsg: "connection refused"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.exposeErrors = tt.expose
			r := newTestRouter(t, opts)

			resp, payload := post(t, r, "/api/upload/", &part{"resume.pdf", extract.MimePDF, validPDF}, "user-1")

			assert.Equal(t, http.StatusInternalServerError, resp.Code)
			msg, _ := payload["error"].(string)
			assert.True(t, strings.Contains(msg, tt.wantMsg), "message %q should contain %q", msg, tt.wantMsg)
			if !tt.expose {
				assert.Equal(t, msgInternal, msg)
			}
		})
	}
}

type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(ctx context.Context, doc upload.Document) (Record, error) {
	panic("unexpected")
}

func TestUploadPanicRecovered(t *testing.T) {
	gin.SetMode(gin.TestMode)
	silenceLogs(t)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery())
	NewHandler(panicAnalyzer{}, upload.DefaultRules(0), false).RegisterRoutes(r.Group("/api"))

	resp, payload := post(t, r, "/api/upload/", &part{"resume.pdf", extract.MimePDF, validPDF}, "user-1")

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "Unexpected server error", payload["error"])
}
