package respond

import (
	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/telemetry"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error logs the failure and sends {"error": message} with the given status.
// code is logged only. An underlying cause stored under "error" is logged too.
func Error(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if ownerID := c.GetString("ownerId"); ownerID != "" {
		fields["owner_id"] = ownerID
	}
	if cause := c.GetString("error"); cause != "" && cause != message {
		fields["error"] = cause
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
