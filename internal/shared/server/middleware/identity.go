package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// OwnerHeader carries the caller identity set by the upstream auth layer.
const OwnerHeader = "X-User-Id"

const ownerIDKey = "ownerId"

// Identity copies the upstream caller identity into the context for logging.
// It never rejects: a missing identity is reported by upload validation so
// that a missing file is always reported first.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(OwnerHeader)); id != "" {
			c.Set(ownerIDKey, id)
		}
		c.Next()
	}
}

// OwnerIDFromContext returns the identity stored by Identity, or "".
func OwnerIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(ownerIDKey)
}
