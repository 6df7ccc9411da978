package feedback

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/metrics"
	"resume-feedback/internal/shared/server/middleware"
	"resume-feedback/internal/shared/server/respond"
	"resume-feedback/internal/upload"
)

// maxRequestBytes caps the whole multipart body. Larger bodies are reported as FileTooLarge.
const maxRequestBytes = 10 << 20 // 10MB

const msgInternal = "Failed to analyze resume. Please try again."

// Analyzer runs the pipeline for a validated upload.
type Analyzer interface {
	Analyze(ctx context.Context, doc upload.Document) (Record, error)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc   Analyzer
	Rules upload.Rules
	// ExposeErrors returns raw error text on 500 instead of a generic message.
	ExposeErrors bool
}

// NewHandler constructs a Handler.
func NewHandler(svc Analyzer, rules upload.Rules, exposeErrors bool) *Handler {
	return &Handler{Svc: svc, Rules: rules, ExposeErrors: exposeErrors}
}

// RegisterRoutes attaches the upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.POST("/upload/", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	metrics.IncFeedbackRequests()

	limit := int64(maxRequestBytes)
	if h.Rules.MaxBytes+(1<<20) > limit {
		limit = h.Rules.MaxBytes + (1 << 20)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	req := upload.Request{OwnerID: c.GetHeader(middleware.OwnerHeader)}
	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil:
		req.File = fileHeader
	case isBodyTooLarge(err):
		req.BodyTooLarge = true
	}

	doc, err := upload.Validate(req, h.Rules)
	if err != nil {
		if uerr, ok := upload.AsError(err); ok {
			metrics.IncFeedbackRejected(string(uerr.Code))
			respond.Error(c, uerr.Status, string(uerr.Code), uerr.Message)
			return
		}
		h.internalError(c, err)
		return
	}

	rec, err := h.Svc.Analyze(c.Request.Context(), doc)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.Set("recordId", rec.ID)
	respond.OK(c, rec.Feedback)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	message := msgInternal
	if h.ExposeErrors {
		message = err.Error()
	}
	c.Set("error", err.Error())
	respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, message)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
