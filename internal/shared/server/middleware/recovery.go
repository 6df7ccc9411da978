package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/server/respond"
	"resume-feedback/internal/shared/telemetry"
)

const msgUnexpected = "Unexpected server error"

// Recovery turns a handler panic into a 500 {"error": ...} response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			cause := fmt.Sprint(rec)
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      cause,
				"stack":      string(debug.Stack()),
			})
			c.Set("error", cause)
			respond.Error(c, http.StatusInternalServerError, "Panic", msgUnexpected)
		}()
		c.Next()
	}
}
